package graph

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/morozRed/flowdex/internal/extract"
)

// EntryRules decide which functions are declared entry points: the file
// must follow an entry-file convention and the name an entry-name one.
type EntryRules struct {
	Files        []string `yaml:"files"`
	Dirs         []string `yaml:"dirs"`
	Names        []string `yaml:"names"`
	NameContains []string `yaml:"name_contains"`
}

func DefaultEntryRules() EntryRules {
	return EntryRules{
		Files:        []string{"main", "index", "app", "server", "cli", "routes", "router"},
		Dirs:         []string{"routes", "handlers", "api", "cmd"},
		Names:        []string{"main", "start", "run", "serve"},
		NameContains: []string{"handler", "route"},
	}
}

// IsEntryFile matches the file's base name (without extension) or any of
// its directories.
func (r EntryRules) IsEntryFile(file string) bool {
	base := strings.ToLower(strings.TrimSuffix(path.Base(file), path.Ext(file)))
	for _, name := range r.Files {
		if base == strings.ToLower(name) {
			return true
		}
	}
	dirs := strings.Split(strings.ToLower(path.Dir(file)), "/")
	for _, dir := range dirs {
		for _, want := range r.Dirs {
			if dir == strings.ToLower(want) {
				return true
			}
		}
	}
	return false
}

func (r EntryRules) IsEntryName(name string) bool {
	lower := strings.ToLower(name)
	for _, want := range r.Names {
		if lower == strings.ToLower(want) {
			return true
		}
	}
	for _, part := range r.NameContains {
		if part != "" && strings.Contains(lower, strings.ToLower(part)) {
			return true
		}
	}
	return false
}

// Fragment is the part of a previous graph that belongs to one file.
type Fragment struct {
	File  string
	Nodes []SymbolNode
	Edges []FlowEdge
}

// Input is everything one assembly run merges.
type Input struct {
	// Files are freshly extracted.
	Files []extract.FileResult
	// Carried are files that were not rescanned this run.
	Carried []Fragment
	Rules   EntryRules
	Now     time.Time
}

type assembler struct {
	g           *FlowGraph
	rules       EntryRules
	byFile      map[string]map[string]string // file -> display name -> id
	fileOrder   map[string][]string          // file -> ids in insertion order
	classByName map[string][]*SymbolNode
	edgeSeen    map[string]bool
	entrySeen   map[string]bool
}

// Assemble builds a complete flow graph from fresh and carried files.
// Files are processed in path order; ids depend only on kind, name and file.
func Assemble(in Input) *FlowGraph {
	a := &assembler{
		g:           Empty(),
		rules:       in.Rules,
		byFile:      make(map[string]map[string]string),
		fileOrder:   make(map[string][]string),
		classByName: make(map[string][]*SymbolNode),
		edgeSeen:    make(map[string]bool),
		entrySeen:   make(map[string]bool),
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	a.g.Generated = now.UTC().Format(time.RFC3339)

	fresh := append([]extract.FileResult(nil), in.Files...)
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Path < fresh[j].Path })
	carried := append([]Fragment(nil), in.Carried...)
	sort.SliceStable(carried, func(i, j int) bool { return carried[i].File < carried[j].File })

	// Nodes first, merged in path order, so edges can target any file.
	fi, ci := 0, 0
	for fi < len(fresh) || ci < len(carried) {
		if ci >= len(carried) || (fi < len(fresh) && fresh[fi].Path <= carried[ci].File) {
			a.addFileNodes(&fresh[fi])
			fi++
			continue
		}
		a.addFragmentNodes(carried[ci])
		ci++
	}

	for i := range fresh {
		a.addStructuralEdges(&fresh[i])
	}
	for i := range fresh {
		a.addCallEdges(&fresh[i])
	}
	for _, frag := range carried {
		for _, edge := range frag.Edges {
			a.addEdge(edge.From, edge.To, edge.Type)
		}
	}

	return a.g
}

func (a *assembler) put(node SymbolNode) {
	if !a.g.Nodes.Put(node) {
		return
	}
	stored, _ := a.g.Nodes.Get(node.ID)
	if a.byFile[node.File] == nil {
		a.byFile[node.File] = make(map[string]string)
	}
	if _, ok := a.byFile[node.File][node.Name]; !ok {
		a.byFile[node.File][node.Name] = node.ID
	}
	a.fileOrder[node.File] = append(a.fileOrder[node.File], node.ID)
	if node.Kind == KindClass {
		a.classByName[node.Name] = append(a.classByName[node.Name], stored)
	}
	if node.Kind == KindFunction && a.rules.IsEntryFile(node.File) && a.rules.IsEntryName(node.Name) {
		if !a.entrySeen[node.ID] {
			a.entrySeen[node.ID] = true
			a.g.EntryPoints = append(a.g.EntryPoints, node.ID)
		}
	}
}

func (a *assembler) addFileNodes(file *extract.FileResult) {
	methodLines := make(map[int]bool)
	for _, class := range file.Classes {
		for _, method := range class.Methods {
			if method.Line > 0 {
				methodLines[method.Line] = true
			}
		}
	}

	for _, fn := range file.Functions {
		if fn.Line > 0 && methodLines[fn.Line] {
			continue
		}
		a.put(FunctionNode(fn))
	}

	for _, class := range file.Classes {
		classID := SymbolID(KindClass, class.Name, file.Path)
		a.put(SymbolNode{
			ID:        classID,
			Name:      class.Name,
			Kind:      KindClass,
			File:      file.Path,
			Line:      class.Line,
			Signature: classSignature(class),
		})
		for _, method := range class.Methods {
			qualified := class.Name + "." + method.Name
			methodID := SymbolID(KindMethod, qualified, file.Path)
			a.put(SymbolNode{
				ID:        methodID,
				Name:      qualified,
				Kind:      KindMethod,
				File:      file.Path,
				Line:      method.Line,
				Signature: fmt.Sprintf("%s(%s): %s", qualified, method.Params, method.ReturnType),
			})
			a.addEdge(classID, methodID, EdgeContains)
		}
	}
}

func (a *assembler) addFragmentNodes(frag Fragment) {
	for _, node := range frag.Nodes {
		a.put(node)
	}
}

func (a *assembler) addStructuralEdges(file *extract.FileResult) {
	for _, class := range file.Classes {
		classID := SymbolID(KindClass, class.Name, file.Path)
		if target := a.resolveClass(class.Extends, file.Path); target != "" && target != classID {
			a.addEdge(classID, target, EdgeExtend)
		}
		for _, iface := range class.Implements {
			if target := a.resolveClass(iface, file.Path); target != "" && target != classID {
				a.addEdge(classID, target, EdgeImplement)
			}
		}
	}
}

// resolveClass finds an indexed class by name, preferring the given file.
func (a *assembler) resolveClass(name, file string) string {
	candidates := a.classByName[name]
	if len(candidates) == 0 {
		return ""
	}
	for _, node := range candidates {
		if node.File == file {
			return node.ID
		}
	}
	return candidates[0].ID
}

func (a *assembler) addCallEdges(file *extract.FileResult) {
	names := a.byFile[file.Path]
	for _, set := range file.Calls {
		fromID, ok := names[set.Caller]
		if !ok {
			continue
		}
		for _, callee := range set.Callees {
			toID := a.resolveCallee(file.Path, set.Caller, callee)
			if toID == "" || toID == fromID {
				continue
			}
			a.addEdge(fromID, toID, EdgeCall)
		}
	}
}

// resolveCallee tries the caller's class prefix, the exact name, then the
// first "Class.name" in the same file.
func (a *assembler) resolveCallee(file, caller, callee string) string {
	names := a.byFile[file]
	if idx := strings.LastIndex(caller, "."); idx != -1 && !strings.Contains(callee, ".") {
		if id, ok := names[caller[:idx]+"."+callee]; ok {
			return id
		}
	}
	if id, ok := names[callee]; ok {
		return id
	}
	suffix := "." + callee
	for _, id := range a.fileOrder[file] {
		node, _ := a.g.Nodes.Get(id)
		if node.Kind == KindMethod && strings.HasSuffix(node.Name, suffix) {
			return id
		}
	}
	return ""
}

func (a *assembler) addEdge(from, to string, kind EdgeKind) {
	if !a.g.Nodes.Has(from) || !a.g.Nodes.Has(to) {
		return
	}
	edge := FlowEdge{From: from, To: to, Type: kind}
	if a.edgeSeen[edge.key()] {
		return
	}
	a.edgeSeen[edge.key()] = true
	a.g.Edges = append(a.g.Edges, edge)
}

// FunctionNode builds the node for a symbol-table entry.
func FunctionNode(fn extract.SymbolEntry) SymbolNode {
	return SymbolNode{
		ID:        SymbolID(KindFunction, fn.Name, fn.File),
		Name:      fn.Name,
		Kind:      KindFunction,
		File:      fn.File,
		Line:      fn.Line,
		Signature: fmt.Sprintf("%s(%s): %s", fn.Name, fn.Params, fn.ReturnType),
	}
}

func classSignature(class extract.ClassEntry) string {
	sig := "class " + class.Name
	if class.Extends != "" {
		sig += " extends " + class.Extends
	}
	if len(class.Implements) > 0 {
		sig += " implements " + strings.Join(class.Implements, ", ")
	}
	return sig
}

// Fragment returns the nodes located in file and the edges leaving them.
func (g *FlowGraph) Fragment(file string) Fragment {
	frag := Fragment{File: file}
	if g.IsEmpty() {
		return frag
	}
	inFile := make(map[string]bool)
	g.Nodes.Each(func(node *SymbolNode) {
		if node.File == file {
			frag.Nodes = append(frag.Nodes, *node)
			inFile[node.ID] = true
		}
	})
	for _, edge := range g.Edges {
		if inFile[edge.From] {
			frag.Edges = append(frag.Edges, edge)
		}
	}
	return frag
}

// CarryFragment rebuilds the fragment of a file that is not rescanned from
// the previous graph. When the previous graph holds nothing for the file,
// function nodes are rebuilt from its symbol-table entries instead.
func CarryFragment(prev *FlowGraph, file string, functions []extract.SymbolEntry) Fragment {
	frag := Fragment{File: file}
	if prev != nil {
		frag = prev.Fragment(file)
	}
	if len(frag.Nodes) > 0 {
		return frag
	}
	present := make(map[string]bool)
	for _, fn := range functions {
		if fn.File != file {
			continue
		}
		node := FunctionNode(fn)
		if present[node.ID] {
			continue
		}
		present[node.ID] = true
		frag.Nodes = append(frag.Nodes, node)
	}
	return frag
}
