package cjs

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// sentinelTypeofValues holds the statically-known typeof results for the four
// UMD environment sentinels when compiling into a static-module environment:
// an object-like module/exports pair exists, free require/define do not.
var sentinelTypeofValues = map[string]string{
	"module":  "object",
	"exports": "object",
	"require": "undefined",
	"define":  "undefined",
}

// resolveTypeofs collapses UMD environment checks of the shape
// `typeof module === 'object'` (and the ==, !==, != variants, in either
// operand order) to literal booleans so dead AMD/global branches become
// removable downstream. typeof over unrelated identifiers is untouched.
func resolveTypeofs(root *sitter.Node, source []byte, edits *editList) {
	walkNode(root, func(node *sitter.Node) {
		if node.Type() != "binary_expression" {
			return
		}
		value, operator, ok := sentinelTypeofComparison(node, source)
		if !ok {
			return
		}
		switch operator {
		case "===", "==":
			edits.replaceNode(node, boolLiteral(value))
		case "!==", "!=":
			edits.replaceNode(node, boolLiteral(!value))
		}
	})
}

// sentinelTypeofComparison matches `typeof <sentinel> <op> <string literal>`
// with the typeof on either side, returning the truth value of the equality
// (before operator negation) and the operator.
func sentinelTypeofComparison(node *sitter.Node, source []byte) (bool, string, bool) {
	operatorNode := node.ChildByFieldName("operator")
	if operatorNode == nil {
		return false, "", false
	}
	operator := nodeText(operatorNode, source)
	switch operator {
	case "===", "==", "!==", "!=":
	default:
		return false, "", false
	}

	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	sentinel, ok := sentinelTypeofOperand(left, source)
	literalNode := right
	if !ok {
		sentinel, ok = sentinelTypeofOperand(right, source)
		literalNode = left
	}
	if !ok {
		return false, "", false
	}

	literal, ok := extractStringLiteral(unwrapParens(literalNode), source)
	if !ok {
		return false, "", false
	}

	return sentinelTypeofValues[sentinel] == literal, operator, true
}

// sentinelTypeofOperand matches `typeof X` where X is one of the four UMD
// sentinels as a bare identifier.
func sentinelTypeofOperand(node *sitter.Node, source []byte) (string, bool) {
	node = unwrapParens(node)
	if node == nil || node.Type() != "unary_expression" {
		return "", false
	}
	operatorNode := node.ChildByFieldName("operator")
	if operatorNode == nil || nodeText(operatorNode, source) != "typeof" {
		return "", false
	}
	argument := unwrapParens(node.ChildByFieldName("argument"))
	if argument == nil || argument.Type() != "identifier" {
		return "", false
	}
	name := nodeText(argument, source)
	if _, ok := sentinelTypeofValues[name]; !ok {
		return "", false
	}
	return name, true
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		node = node.NamedChild(0)
	}
	return node
}

func boolLiteral(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
