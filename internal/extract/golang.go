package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor extracts Go files from a tree-sitter syntax tree. Struct and
// interface types become classes; methods are grouped by receiver type.
type GoExtractor struct{}

func NewGoExtractor() *GoExtractor {
	return &GoExtractor{}
}

func (g *GoExtractor) Language() string {
	return "go"
}

func (g *GoExtractor) Extensions() []string {
	return []string{".go"}
}

type goBody struct {
	caller string
	node   *sitter.Node
}

func (g *GoExtractor) Extract(path string, content []byte) (*FileResult, error) {
	result := &FileResult{
		Path:      path,
		Language:  "go",
		Functions: make([]SymbolEntry, 0),
		Classes:   make([]ClassEntry, 0),
		Calls:     make([]CallSet, 0),
	}
	if !utf8.Valid(content) {
		return result, nil
	}

	// sitter.Parser is not safe for concurrent use.
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	classIdx := make(map[string]int)
	classFor := func(name string, line int) *ClassEntry {
		if idx, ok := classIdx[name]; ok {
			return &result.Classes[idx]
		}
		classIdx[name] = len(result.Classes)
		result.Classes = append(result.Classes, ClassEntry{Name: name, File: path, Line: line})
		return &result.Classes[len(result.Classes)-1]
	}

	bodies := make([]goBody, 0)
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		line := int(node.StartPoint().Row) + 1

		switch node.Type() {
		case "function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			entry := SymbolEntry{
				Name:       nameNode.Content(content),
				File:       path,
				Line:       line,
				Params:     goParams(node, content),
				ReturnType: goResult(node, content),
			}
			result.Functions = append(result.Functions, entry)
			bodies = append(bodies, goBody{caller: entry.Name, node: node.ChildByFieldName("body")})

		case "method_declaration":
			nameNode := node.ChildByFieldName("name")
			recv := goReceiverType(node.ChildByFieldName("receiver"), content)
			if nameNode == nil || recv == "" {
				continue
			}
			method := MethodEntry{
				Name:       nameNode.Content(content),
				Line:       line,
				Params:     goParams(node, content),
				ReturnType: goResult(node, content),
			}
			class := classFor(recv, line)
			class.Methods = append(class.Methods, method)
			bodies = append(bodies, goBody{caller: recv + "." + method.Name, node: node.ChildByFieldName("body")})

		case "type_declaration":
			for j := 0; j < int(node.NamedChildCount()); j++ {
				spec := node.NamedChild(j)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				typeNode := spec.ChildByFieldName("type")
				if nameNode == nil || typeNode == nil {
					continue
				}
				if typeNode.Type() != "struct_type" && typeNode.Type() != "interface_type" {
					continue
				}
				name := nameNode.Content(content)
				class := classFor(name, int(spec.StartPoint().Row)+1)
				class.Line = int(spec.StartPoint().Row) + 1
				if typeNode.Type() == "struct_type" {
					class.Extends = goFirstEmbedded(typeNode, content)
				}
			}
		}
	}

	known := newKnownNames(result.Functions, result.Classes)
	builder := newCallMapBuilder()
	for _, body := range bodies {
		builder.open(body.caller)
		g.collectCalls(body.node, content, body.caller, known, builder)
	}
	result.Calls = builder.sets

	return result, nil
}

func (g *GoExtractor) collectCalls(node *sitter.Node, content []byte, caller string, known knownNames, builder *callMapBuilder) {
	if node == nil {
		return
	}

	if node.Type() == "call_expression" {
		fnNode := node.ChildByFieldName("function")
		if fnNode != nil {
			switch fnNode.Type() {
			case "identifier":
				if name := fnNode.Content(content); known.bare[name] {
					builder.add(caller, name)
				}
			case "selector_expression":
				operand := fnNode.ChildByFieldName("operand")
				field := fnNode.ChildByFieldName("field")
				if field != nil {
					name := field.Content(content)
					qualified := ""
					if operand != nil {
						qualified = strings.TrimSpace(operand.Content(content)) + "." + name
					}
					switch {
					case qualified != "" && known.qualified[qualified]:
						builder.add(caller, qualified)
					case known.bare[name]:
						builder.add(caller, name)
					}
				}
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		g.collectCalls(node.Child(i), content, caller, known, builder)
	}
}

func goParams(node *sitter.Node, content []byte) string {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return ""
	}
	raw := strings.TrimSpace(paramsNode.Content(content))
	raw = strings.TrimPrefix(raw, "(")
	raw = strings.TrimSuffix(raw, ")")
	return collapseSpace(raw)
}

func goResult(node *sitter.Node, content []byte) string {
	resultNode := node.ChildByFieldName("result")
	if resultNode == nil {
		return DefaultReturnType
	}
	return collapseSpace(resultNode.Content(content))
}

func goReceiverType(receiver *sitter.Node, content []byte) string {
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return baseTypeName(typeNode.Content(content))
	}
	return ""
}

func goFirstEmbedded(structNode *sitter.Node, content []byte) string {
	for i := 0; i < int(structNode.NamedChildCount()); i++ {
		list := structNode.NamedChild(i)
		if list.Type() != "field_declaration_list" {
			continue
		}
		for j := 0; j < int(list.NamedChildCount()); j++ {
			field := list.NamedChild(j)
			if field.Type() != "field_declaration" || field.ChildByFieldName("name") != nil {
				continue
			}
			if typeNode := field.ChildByFieldName("type"); typeNode != nil {
				return baseTypeName(typeNode.Content(content))
			}
		}
	}
	return ""
}

func baseTypeName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimLeft(raw, "*")
	if idx := strings.Index(raw, "["); idx != -1 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
