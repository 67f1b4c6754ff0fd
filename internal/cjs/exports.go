package cjs

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// exportScan is the statically inferred export surface of one module.
type exportScan struct {
	// Names are the synthesized named exports, deduplicated, in insertion
	// order. __esModule and reserved words never appear here.
	Names []string
	// DefaultReplaced is set when `module.exports = <expr>` occurs.
	DefaultReplaced bool
	// Reexports are require specifiers assigned wholesale to module.exports
	// (`module.exports = require('x')`).
	Reexports []string

	seen map[string]bool
}

func (s *exportScan) add(name string) {
	if name == "__esModule" || !ValidExportName(name) {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.Names = append(s.Names, name)
}

// synthesizeExports scans for statically-declared named exports. It looks at
// top-level statements plus the bodies of IIFE and UMD factory wrappers
// (transpiled CommonJS commonly wraps its whole body in one), without
// descending into other function bodies. Named keys accumulate regardless of
// their order relative to a `module.exports = ...` replacement; both
// mutate-then-replace and replace-then-mutate are honored.
func synthesizeExports(root *sitter.Node, source []byte) exportScan {
	scan := exportScan{}
	for _, stmt := range exportScanRoots(root, source) {
		scanStatementForExports(stmt, source, &scan)
	}
	return scan
}

// exportScanRoots collects the program's statements plus the statements one
// level inside IIFE/factory wrappers: (function(){...})(), (()=>{...})(),
// (function(){...}).call(this), !function(){...}(), and the function
// arguments of a top-level UMD wrapper call.
func exportScanRoots(root *sitter.Node, source []byte) []*sitter.Node {
	roots := make([]*sitter.Node, 0, int(root.NamedChildCount()))
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		roots = append(roots, stmt)
		if stmt.Type() != "expression_statement" {
			continue
		}
		roots = append(roots, wrapperBodies(stmt.NamedChild(0), source)...)
	}
	return roots
}

func wrapperBodies(expr *sitter.Node, source []byte) []*sitter.Node {
	expr = unwrapParens(expr)
	if expr == nil {
		return nil
	}

	switch expr.Type() {
	case "call_expression":
		bodies := functionBodyStatements(expr.ChildByFieldName("function"))
		argumentsNode := expr.ChildByFieldName("arguments")
		if argumentsNode != nil {
			for i := 0; i < int(argumentsNode.NamedChildCount()); i++ {
				bodies = append(bodies, functionBodyStatements(argumentsNode.NamedChild(i))...)
			}
		}
		return bodies
	case "unary_expression":
		return wrapperBodies(expr.ChildByFieldName("argument"), source)
	case "binary_expression":
		bodies := wrapperBodies(expr.ChildByFieldName("left"), source)
		return append(bodies, wrapperBodies(expr.ChildByFieldName("right"), source)...)
	case "sequence_expression":
		var bodies []*sitter.Node
		for i := 0; i < int(expr.NamedChildCount()); i++ {
			bodies = append(bodies, wrapperBodies(expr.NamedChild(i), source)...)
		}
		return bodies
	}
	return nil
}

// functionBodyStatements returns the statements of a function-valued node,
// following `.call`/`.apply` member targets.
func functionBodyStatements(node *sitter.Node) []*sitter.Node {
	node = unwrapParens(node)
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "function", "function_expression", "arrow_function":
		body := node.ChildByFieldName("body")
		if body == nil || body.Type() != "statement_block" {
			return nil
		}
		stmts := make([]*sitter.Node, 0, int(body.NamedChildCount()))
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmts = append(stmts, body.NamedChild(i))
		}
		return stmts
	case "member_expression":
		// (function(){...}).call(this) and friends.
		return functionBodyStatements(node.ChildByFieldName("object"))
	}
	return nil
}

// scanStatementForExports walks a statement subtree for export patterns
// without descending into nested function bodies.
func scanStatementForExports(stmt *sitter.Node, source []byte, scan *exportScan) {
	visit := func(node *sitter.Node) bool {
		switch node.Type() {
		case "function", "function_expression", "function_declaration",
			"arrow_function", "generator_function", "generator_function_declaration",
			"method_definition", "class_declaration", "class":
			return false
		case "assignment_expression":
			scanAssignmentForExports(node, source, scan)
		case "call_expression":
			scanDefinePropertyForExports(node, source, scan)
		}
		return true
	}
	if visit(stmt) {
		walkNodePrune(stmt, visit)
	}
}

func scanAssignmentForExports(node *sitter.Node, source []byte, scan *exportScan) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	if name, ok := exportedNameTarget(left, source); ok {
		scan.add(name)
		return
	}

	// Reassigning the bare `exports` binding does not change module.exports,
	// so only `module.exports = ...` counts as a default replacement.
	if !isModuleExportsExpr(left, source) {
		return
	}
	scan.DefaultReplaced = true
	scanModuleExportsValue(unwrapParens(right), source, scan)
}

// scanModuleExportsValue records names carried by a full exports replacement:
// object literal keys become named exports, `require('x')` becomes a
// re-export, and chained assignments fall through to the final value.
func scanModuleExportsValue(value *sitter.Node, source []byte, scan *exportScan) {
	if value == nil {
		return
	}
	switch value.Type() {
	case "object":
		for i := 0; i < int(value.NamedChildCount()); i++ {
			property := value.NamedChild(i)
			switch property.Type() {
			case "pair":
				key := property.ChildByFieldName("key")
				if key == nil {
					continue
				}
				switch key.Type() {
				case "property_identifier":
					scan.add(nodeText(key, source))
				case "string":
					if name, ok := extractStringLiteral(key, source); ok {
						scan.add(name)
					}
				}
			case "shorthand_property_identifier":
				scan.add(nodeText(property, source))
			case "method_definition":
				name := property.ChildByFieldName("name")
				if name != nil && name.Type() == "property_identifier" {
					scan.add(nodeText(name, source))
				}
			}
		}
	case "call_expression":
		if isRequireCall(value, source) {
			if specifier, ok := requireSpecifier(value, source); ok {
				scan.Reexports = append(scan.Reexports, specifier)
			}
		}
	case "assignment_expression":
		scanAssignmentForExports(value, source, scan)
		scanModuleExportsValue(unwrapParens(value.ChildByFieldName("right")), source, scan)
	}
}

// scanDefinePropertyForExports matches
// Object.defineProperty(exports|module.exports, 'NAME', ...).
func scanDefinePropertyForExports(node *sitter.Node, source []byte, scan *exportScan) {
	functionNode := node.ChildByFieldName("function")
	if functionNode == nil || functionNode.Type() != "member_expression" {
		return
	}
	object := functionNode.ChildByFieldName("object")
	property := functionNode.ChildByFieldName("property")
	if !isIdentifier(object, source, "Object") || property == nil || nodeText(property, source) != "defineProperty" {
		return
	}

	argumentsNode := node.ChildByFieldName("arguments")
	if argumentsNode == nil || argumentsNode.NamedChildCount() < 2 {
		return
	}
	target := argumentsNode.NamedChild(0)
	if !isIdentifier(target, source, "exports") && !isModuleExportsExpr(target, source) {
		return
	}
	if name, ok := extractStringLiteral(argumentsNode.NamedChild(1), source); ok {
		scan.add(name)
	}
}
