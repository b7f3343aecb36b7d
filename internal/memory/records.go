package memory

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is one entry of RULES.md.
type Rule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	Files       string `json:"files"`
	Action      string `json:"action"`
	Enabled     bool   `json:"enabled"`
}

// Attempt is one entry of ATTEMPTS.md.
type Attempt struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	Error     string `json:"error"`
	DontRetry bool   `json:"dontRetry"`
}

var (
	blockSplit      = regexp.MustCompile(`###\s+\[`)
	ruleHeader      = regexp.MustCompile(`^(\w+)\]\s+(.+)`)
	rulePattern     = regexp.MustCompile("Pattern:\\s*`([^`]+)`")
	ruleFiles       = regexp.MustCompile("Files:\\s*`([^`]+)`")
	ruleAction      = regexp.MustCompile(`(?i)Action:\s*(BLOCK|WARN)`)
	ruleEnabled     = regexp.MustCompile(`(?i)Enabled:\s*(true|false)`)
	attemptHeader   = regexp.MustCompile(`^([^\]]+)\]\s+(.+)`)
	attemptError    = regexp.MustCompile(`Error:\s*(.+)`)
	attemptNoRetry  = regexp.MustCompile(`(?i)DONT_RETRY:\s*(true|false)`)
	discoveryMarker = regexp.MustCompile(`(?i)^-\s+\[x\]\s+(.+)`)
)

// ParseRules reads "### [ID] description" blocks. Missing fields default to
// files "*", action WARN and enabled true.
func ParseRules(content string) []Rule {
	rules := make([]Rule, 0)
	for _, block := range blockSplit.Split(content, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		header := ruleHeader.FindStringSubmatch(block)
		if header == nil {
			continue
		}

		rule := Rule{
			ID:          header[1],
			Description: strings.TrimSpace(firstLine(header[2])),
			Files:       "*",
			Action:      "WARN",
			Enabled:     true,
		}
		if m := rulePattern.FindStringSubmatch(block); m != nil {
			rule.Pattern = m[1]
		}
		if m := ruleFiles.FindStringSubmatch(block); m != nil {
			rule.Files = m[1]
		}
		if m := ruleAction.FindStringSubmatch(block); m != nil {
			rule.Action = strings.ToUpper(m[1])
		}
		if m := ruleEnabled.FindStringSubmatch(block); m != nil {
			rule.Enabled = strings.EqualFold(m[1], "true")
		}
		rules = append(rules, rule)
	}
	return rules
}

func FormatRule(rule Rule) string {
	return fmt.Sprintf("### [%s] %s\n- Pattern: `%s`\n- Files: `%s`\n- Action: %s\n- Enabled: %t\n",
		rule.ID, rule.Description, rule.Pattern, rule.Files, rule.Action, rule.Enabled)
}

// ParseAttempts reads "### [timestamp] command" blocks.
func ParseAttempts(content string) []Attempt {
	attempts := make([]Attempt, 0)
	for _, block := range blockSplit.Split(content, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		header := attemptHeader.FindStringSubmatch(block)
		if header == nil {
			continue
		}

		attempt := Attempt{
			Timestamp: header[1],
			Command:   strings.TrimSpace(firstLine(header[2])),
		}
		if m := attemptError.FindStringSubmatch(block); m != nil {
			attempt.Error = strings.TrimSpace(m[1])
		}
		if m := attemptNoRetry.FindStringSubmatch(block); m != nil {
			attempt.DontRetry = strings.EqualFold(m[1], "true")
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}

func FormatAttempt(attempt Attempt) string {
	return fmt.Sprintf("### [%s] %s\nError: %s\nDONT_RETRY: %t\n",
		attempt.Timestamp, attempt.Command, attempt.Error, attempt.DontRetry)
}

// ParseDiscovery returns the explored directories in document order.
func ParseDiscovery(content string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, line := range strings.Split(content, "\n") {
		m := discoveryMarker.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		dir := strings.TrimSpace(m[1])
		if seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	return out
}

// UpdateDiscovery appends a "- [x] dir" marker for every directory that is
// not yet listed.
func UpdateDiscovery(content string, dirs []string) string {
	if strings.TrimSpace(content) == "" {
		content = templates[KindDiscovery]
	}
	for _, dir := range dirs {
		marker := "- [x] " + dir
		if containsLine(content, marker) {
			continue
		}
		content = strings.TrimRight(content, " \t\r\n") + "\n" + marker + "\n"
	}
	return content
}

func containsLine(content, line string) bool {
	for _, existing := range strings.Split(content, "\n") {
		if strings.TrimRight(existing, "\r ") == line {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}
