package extract

import (
	"regexp"
	"strings"
)

// rule is one declaration pattern. Group indexes of 0 mean "not captured".
type rule struct {
	re        *regexp.Regexp
	nameIdx   int
	paramsIdx int
	returnIdx int
}

type ruleMatch struct {
	Name       string
	Params     string
	ReturnType string
	End        int
}

func newRule(expr string, nameIdx, paramsIdx, returnIdx int) rule {
	return rule{
		re:        regexp.MustCompile(expr),
		nameIdx:   nameIdx,
		paramsIdx: paramsIdx,
		returnIdx: returnIdx,
	}
}

func (r rule) match(line string) (ruleMatch, bool) {
	loc := r.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return ruleMatch{}, false
	}
	group := func(idx int) string {
		if idx == 0 || loc[2*idx] < 0 {
			return ""
		}
		return strings.TrimSpace(line[loc[2*idx]:loc[2*idx+1]])
	}

	m := ruleMatch{
		Name:       group(r.nameIdx),
		Params:     group(r.paramsIdx),
		ReturnType: group(r.returnIdx),
		End:        loc[1],
	}
	if m.Name == "" || reservedWords[m.Name] {
		return ruleMatch{}, false
	}
	if r.returnIdx != 0 && reservedWords[m.ReturnType] {
		return ruleMatch{}, false
	}
	if m.ReturnType == "" {
		m.ReturnType = DefaultReturnType
	}
	return m, true
}

// firstMatch applies rules in order and returns the first acceptable match.
func firstMatch(rules []rule, line string) (ruleMatch, bool) {
	for _, r := range rules {
		if m, ok := r.match(line); ok {
			return m, true
		}
	}
	return ruleMatch{}, false
}

// Control-flow keywords and operators that the shorthand shapes would
// otherwise pick up as declarations.
var reservedWords = map[string]bool{
	"if": true, "else": true, "elif": true, "for": true, "foreach": true,
	"while": true, "do": true, "switch": true, "case": true, "catch": true,
	"try": true, "finally": true, "return": true, "throw": true, "new": true,
	"delete": true, "typeof": true, "instanceof": true, "await": true,
	"yield": true, "function": true, "class": true, "except": true,
	"with": true, "lambda": true, "sizeof": true, "using": true, "lock": true,
	"fixed": true, "match": true, "loop": true,
}

// functionRules are tried in order against every line; the first hit wins.
var functionRules = []rule{
	// function name(params): ret
	newRule(`(?:export\s+)?(?:default\s+)?(?:async\s+)?\bfunction\b\s*\*?\s*(\w+)\s*\(([^)]*)\)(?:\s*:\s*([^\s{]+))?`, 1, 2, 3),
	// const name = (params): ret =>
	newRule(`(?:export\s+)?\b(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\(([^)]*)\)(?:\s*:\s*([^\s=]+))?\s*=>`, 1, 2, 3),
	// name(params): ret {
	newRule(`^\s*(?:async\s+)?(\w+)\s*\(([^)]*)\)(?:\s*:\s*([^\s{]+))?\s*\{`, 1, 2, 3),
	// def name(params) -> ret:
	newRule(`^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)(?:\s*->\s*([^\s:]+))?\s*:`, 1, 2, 3),
	// fn name(params) -> ret
	newRule(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:(?:async|const|unsafe|extern)\s+)*fn\s+(\w+)\s*(?:<[^>]*>)?\s*\(([^)]*)\)(?:\s*->\s*([^\s{]+))?`, 1, 2, 3),
}

// braceMethodRules detect method headers inside a brace-delimited class body.
var braceMethodRules = []rule{
	// public static function name(params): ret
	newRule(`^\s*(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+&?(\w+)\s*\(([^)]*)\)(?:\s*:\s*\??([^\s{;]+))?`, 1, 2, 3),
	// async name(params): ret {
	newRule(`^\s*(?:(?:public|private|protected|static|async|readonly|override|abstract|get|set)\s+)*\*?(\w+)\s*(?:<[^>]*>)?\s*\(([^)]*)\)(?:\s*:\s*([^\s{]+))?\s*\{`, 1, 2, 3),
	// public int name(params) throws X {
	newRule(`^\s*(?:@\w+\s+)*(?:(?:public|private|protected|internal|static|final|abstract|synchronized|virtual|override|async|native)\s+)*([\w<>\[\],.?]+)\s+(\w+)\s*\(([^)]*)\)\s*(?:throws\s+[\w.,\s]+)?\{`, 2, 3, 1),
}

// pythonMethodRules detect methods inside an indentation-delimited class body.
var pythonMethodRules = []rule{
	newRule(`^\s+(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)(?:\s*->\s*([^\s:]+))?\s*:`, 1, 2, 3),
}

var (
	braceClassHeader  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:(?:abstract|final|public|private|protected|static|sealed|partial)\s+)*class\s+(\w+)(?:\s*<[^>]*>)?(?:\s+extends\s+([\w.]+)(?:\s*<[^>]*>)?)?(?:\s+implements\s+([^{]+))?`)
	pythonClassHeader = regexp.MustCompile(`^(\s*)class\s+(\w+)\s*(?:\(([^)]*)\))?\s*:`)
	pythonDefHeader   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+\w+`)
)

var (
	bareCallPattern   = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
	dottedCallPattern = regexp.MustCompile(`\b(\w+)\.(\w+)\s*\(`)
	thisCallPattern   = regexp.MustCompile(`\bthis\.(\w+)\s*\(`)
)

func splitNames(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if idx := strings.IndexAny(part, "<( "); idx != -1 {
			part = part[:idx]
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
