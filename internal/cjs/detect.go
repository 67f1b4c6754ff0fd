package cjs

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Evidence names a CommonJS pattern the detector matched.
type Evidence string

const (
	EvidenceRequireCall    Evidence = "require-call"
	EvidenceDefaultAssign  Evidence = "module-exports-assign"
	EvidenceNamedAssign    Evidence = "exports-assign"
	EvidenceModuleRef      Evidence = "module-reference"
	EvidenceTypeofSentinel Evidence = "typeof-sentinel"
)

// Verdict is the per-module detection outcome. It is computed once per module
// and never recomputed mid-rewrite.
type Verdict struct {
	CommonJS bool
	ESModule bool
	Evidence []Evidence

	// WeakOnly is set when the only evidence is free module/exports
	// references with no call, assignment, or typeof check. Property reads
	// are the documented false-positive class, so callers warn on this.
	WeakOnly bool
}

func detect(root *sitter.Node, source []byte) Verdict {
	verdict := Verdict{}
	seen := make(map[Evidence]bool)
	add := func(kind Evidence) {
		if !seen[kind] {
			seen[kind] = true
			verdict.Evidence = append(verdict.Evidence, kind)
		}
	}

	walkNode(root, func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement", "export_statement":
			verdict.ESModule = true
		case "call_expression":
			if isRequireCall(node, source) {
				add(EvidenceRequireCall)
			}
		case "assignment_expression", "augmented_assignment_expression":
			left := node.ChildByFieldName("left")
			if isModuleExportsExpr(left, source) {
				add(EvidenceDefaultAssign)
			} else if name, ok := exportedNameTarget(left, source); ok && name != "" {
				add(EvidenceNamedAssign)
			}
		case "identifier":
			if !isIdentifierUsage(node) {
				break
			}
			name := nodeText(node, source)
			if name == "module" || name == "exports" {
				add(EvidenceModuleRef)
			}
		case "binary_expression":
			if _, _, ok := sentinelTypeofComparison(node, source); ok {
				add(EvidenceTypeofSentinel)
			}
		}
	})

	if verdict.ESModule {
		return verdict
	}
	verdict.CommonJS = len(verdict.Evidence) > 0
	verdict.WeakOnly = verdict.CommonJS && len(verdict.Evidence) == 1 && verdict.Evidence[0] == EvidenceModuleRef
	return verdict
}

// isRequireCall matches require(<anything>) with a bare require callee.
func isRequireCall(node *sitter.Node, source []byte) bool {
	functionNode := node.ChildByFieldName("function")
	if !isIdentifier(functionNode, source, "require") {
		return false
	}
	argumentsNode := node.ChildByFieldName("arguments")
	return argumentsNode != nil
}

// requireSpecifier extracts the literal specifier from a require call, if any.
func requireSpecifier(node *sitter.Node, source []byte) (string, bool) {
	argumentsNode := node.ChildByFieldName("arguments")
	if argumentsNode == nil || argumentsNode.NamedChildCount() != 1 {
		return "", false
	}
	return extractStringLiteral(argumentsNode.NamedChild(0), source)
}

// isModuleExportsExpr matches the exact expression `module.exports`.
func isModuleExportsExpr(node *sitter.Node, source []byte) bool {
	if node == nil || node.Type() != "member_expression" {
		return false
	}
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	return isIdentifier(object, source, "module") &&
		property != nil && nodeText(property, source) == "exports"
}

// exportedNameTarget matches assignment targets of the shapes
// exports.NAME, exports['NAME'], module.exports.NAME, module.exports['NAME']
// and returns NAME.
func exportedNameTarget(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}

	var object *sitter.Node
	var name string
	switch node.Type() {
	case "member_expression":
		object = node.ChildByFieldName("object")
		name = nodeText(node.ChildByFieldName("property"), source)
	case "subscript_expression":
		object = node.ChildByFieldName("object")
		literal, ok := extractStringLiteral(node.ChildByFieldName("index"), source)
		if !ok {
			return "", false
		}
		name = literal
	default:
		return "", false
	}

	if isIdentifier(object, source, "exports") || isModuleExportsExpr(object, source) {
		return name, true
	}
	return "", false
}
