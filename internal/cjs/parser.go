package cjs

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

func parseSource(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree")
	}
	return tree, nil
}

func walkNode(node *sitter.Node, visit func(*sitter.Node)) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		visit(child)
		walkNode(child, visit)
	}
}

// walkNodePrune is walkNode with subtree pruning: returning false from visit
// skips the node's children.
func walkNodePrune(node *sitter.Node, visit func(*sitter.Node) bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if visit(child) {
			walkNodePrune(child, visit)
		}
	}
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

func extractStringLiteral(node *sitter.Node, content []byte) (string, bool) {
	if node == nil || node.Type() != "string" {
		return "", false
	}

	text := nodeText(node, content)
	if len(text) >= 2 {
		quote := text[0]
		if (quote == '"' || quote == '\'') && text[len(text)-1] == quote {
			return text[1 : len(text)-1], true
		}
	}
	return "", false
}

// isIdentifier reports whether node is a bare identifier with the given name.
func isIdentifier(node *sitter.Node, content []byte, name string) bool {
	return node != nil && node.Type() == "identifier" && nodeText(node, content) == name
}

var functionBoundaryTypes = map[string]bool{
	"function":                       true,
	"function_expression":            true,
	"function_declaration":           true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"method_definition":              true,
	"class_static_block":             true,
}

// insideFunction reports whether node sits inside a non-arrow function body.
// Arrow functions are transparent: their `this` is the enclosing scope's.
func insideFunction(node *sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if functionBoundaryTypes[parent.Type()] {
			return true
		}
	}
	return false
}

// isIdentifierUsage reports whether an identifier node is a value reference
// rather than a declaration name, parameter, property key, or import binding.
func isIdentifierUsage(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}

	switch parent.Type() {
	case "import_specifier", "import_clause", "namespace_import", "named_imports", "import_statement":
		return false
	case "variable_declarator", "function_declaration", "function", "function_expression",
		"generator_function", "generator_function_declaration", "class_declaration", "class":
		nameNode := parent.ChildByFieldName("name")
		return nameNode == nil || nameNode.ID() != node.ID()
	case "formal_parameters", "required_parameter", "optional_parameter", "rest_parameter",
		"arrow_function":
		return false
	case "shorthand_property_identifier_pattern", "property_identifier",
		"shorthand_property_identifier", "statement_identifier":
		return false
	case "pair", "pair_pattern":
		key := parent.ChildByFieldName("key")
		return key == nil || key.ID() != node.ID()
	case "object_pattern", "array_pattern", "assignment_pattern":
		return false
	case "member_expression":
		// Only the object side of a member expression is a value reference.
		objectNode := parent.ChildByFieldName("object")
		return objectNode != nil && objectNode.ID() == node.ID()
	case "subscript_expression":
		objectNode := parent.ChildByFieldName("object")
		indexNode := parent.ChildByFieldName("index")
		if objectNode != nil && objectNode.ID() == node.ID() {
			return true
		}
		return indexNode != nil && indexNode.ID() == node.ID()
	case "labeled_statement", "break_statement", "continue_statement":
		return false
	default:
		return true
	}
}

// identifierRegexp-free validity check, shared by export synthesis and config
// validation via ValidExportName.
func isValidIdentifierName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		if i == 0 {
			if !alpha {
				return false
			}
			continue
		}
		if !alpha && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

var jsReservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "let": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"await": true, "implements": true, "interface": true, "package": true,
	"private": true, "protected": true, "public": true, "static": true,
}

// ValidExportName reports whether name can be bound as an ES named export.
func ValidExportName(name string) bool {
	name = strings.TrimSpace(name)
	return isValidIdentifierName(name) && !jsReservedWords[name]
}
