package extract

// knownNames holds the declarations of one file that calls may refer to.
type knownNames struct {
	bare      map[string]bool
	qualified map[string]bool
}

func newKnownNames(functions []SymbolEntry, classes []ClassEntry) knownNames {
	known := knownNames{
		bare:      make(map[string]bool),
		qualified: make(map[string]bool),
	}
	for _, fn := range functions {
		known.bare[fn.Name] = true
	}
	for _, class := range classes {
		for _, method := range class.Methods {
			known.bare[method.Name] = true
			known.qualified[class.Name+"."+method.Name] = true
		}
	}
	return known
}

// callMapBuilder accumulates call sets keyed by caller in first-seen order.
type callMapBuilder struct {
	sets  []CallSet
	index map[string]int
	seen  map[string]map[string]bool
}

func newCallMapBuilder() *callMapBuilder {
	return &callMapBuilder{
		sets:  make([]CallSet, 0),
		index: make(map[string]int),
		seen:  make(map[string]map[string]bool),
	}
}

// open starts a fresh, empty callee list for caller.
func (b *callMapBuilder) open(caller string) {
	if idx, ok := b.index[caller]; ok {
		b.sets[idx].Callees = make([]string, 0)
	} else {
		b.index[caller] = len(b.sets)
		b.sets = append(b.sets, CallSet{Caller: caller, Callees: make([]string, 0)})
	}
	b.seen[caller] = make(map[string]bool)
}

func (b *callMapBuilder) add(caller, callee string) {
	if b.seen[caller][callee] {
		return
	}
	b.seen[caller][callee] = true
	idx := b.index[caller]
	b.sets[idx].Callees = append(b.sets[idx].Callees, callee)
}

// BuildCallMap records, for every function and method of one file, the
// names from the same file that its body appears to call.
func BuildCallMap(code, path string, functions []SymbolEntry, classes []ClassEntry) []CallSet {
	known := newKnownNames(functions, classes)
	family := FamilyFor(path)
	lines := splitLines(code)
	builder := newCallMapBuilder()

	methodRules := braceMethodRules
	if family == FamilyPython {
		methodRules = pythonMethodRules
	}

	currentFunction := ""
	currentClass := ""
	classEnd := -1

	for i, line := range lines {
		if currentClass != "" && classEnd >= 0 && i > classEnd {
			currentClass = ""
			currentFunction = ""
			classEnd = -1
		}

		if name, ok := classHeader(line, family); ok {
			currentClass = name
			currentFunction = ""
			classEnd = -1
			if family == FamilyBrace {
				classEnd = braceBlockEnd(lines, i)
			}
			continue
		}

		if family == FamilyPython {
			if m := pythonDefHeader.FindStringSubmatch(line); m != nil && m[1] == "" {
				currentClass = ""
			}
		}

		remainder := line
		opened := false
		if currentClass != "" {
			if m, ok := firstMatch(methodRules, line); ok {
				currentFunction = currentClass + "." + m.Name
				remainder = line[m.End:]
				opened = true
			}
		}
		if !opened {
			if m, ok := firstMatch(functionRules, line); ok {
				currentFunction = m.Name
				remainder = line[m.End:]
				opened = true
			}
		}
		if opened {
			builder.open(currentFunction)
		}

		if currentFunction == "" {
			continue
		}
		recordCalls(builder, currentFunction, remainder, known)
	}

	return builder.sets
}

func recordCalls(builder *callMapBuilder, caller, text string, known knownNames) {
	for _, m := range bareCallPattern.FindAllStringSubmatch(text, -1) {
		if known.bare[m[1]] {
			builder.add(caller, m[1])
		}
	}
	for _, m := range dottedCallPattern.FindAllStringSubmatch(text, -1) {
		qualified := m[1] + "." + m[2]
		switch {
		case known.qualified[qualified]:
			builder.add(caller, qualified)
		case known.bare[m[2]]:
			builder.add(caller, m[2])
		}
	}
	for _, m := range thisCallPattern.FindAllStringSubmatch(text, -1) {
		if known.bare[m[1]] {
			builder.add(caller, m[1])
		}
	}
}

func classHeader(line string, family Family) (string, bool) {
	if family == FamilyPython {
		if m := pythonClassHeader.FindStringSubmatch(line); m != nil {
			return m[2], true
		}
		return "", false
	}
	if m := braceClassHeader.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}
