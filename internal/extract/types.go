package extract

// DefaultReturnType is recorded when a declaration carries no return annotation.
const DefaultReturnType = "void"

// SymbolEntry is one function found in a source file.
type SymbolEntry struct {
	Name         string   `json:"name"`
	File         string   `json:"file"`
	Line         int      `json:"line,omitempty"`
	Params       string   `json:"params"`
	ReturnType   string   `json:"returnType"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Key is the practical identity used to de-duplicate entries.
func (s SymbolEntry) Key() string {
	return s.Name + "\x00" + s.File + "\x00" + s.Params + "\x00" + s.ReturnType
}

// MethodEntry is a method declared inside a class body.
type MethodEntry struct {
	Name       string `json:"name"`
	Line       int    `json:"line,omitempty"`
	Params     string `json:"params"`
	ReturnType string `json:"returnType"`
}

// ClassEntry is a class (or Go type) with the methods attributed to it.
type ClassEntry struct {
	Name       string        `json:"name"`
	File       string        `json:"file"`
	Line       int           `json:"line,omitempty"`
	Extends    string        `json:"extends,omitempty"`
	Implements []string      `json:"implements,omitempty"`
	Methods    []MethodEntry `json:"methods,omitempty"`
}

// CallSet holds the callees recorded for one caller, in first-seen order.
// Caller is either a bare function name or "Class.method".
type CallSet struct {
	Caller  string   `json:"caller"`
	Callees []string `json:"callees"`
}

// FileResult holds everything extracted from a single file.
type FileResult struct {
	Path      string        `json:"path"`
	Language  string        `json:"language"`
	Functions []SymbolEntry `json:"functions"`
	Classes   []ClassEntry  `json:"classes"`
	Calls     []CallSet     `json:"calls"`
}

// CallsFor returns the callees recorded for caller.
func (r *FileResult) CallsFor(caller string) []string {
	for _, set := range r.Calls {
		if set.Caller == caller {
			return set.Callees
		}
	}
	return nil
}
