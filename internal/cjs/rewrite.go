package cjs

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	moduleVar         = "__cjsModule__"
	exportsVar        = "__cjsExports__"
	globalVar         = "__cjsGlobal__"
	dynamicRequireVar = "__cjsDynamicRequire__"
)

// GlobalPolicy selects how free global/self/window references are handled.
type GlobalPolicy string

const (
	// GlobalRewrite unifies global/self/window into one resolved accessor.
	GlobalRewrite GlobalPolicy = "rewrite"
	// GlobalIgnore leaves the literal identifiers untouched.
	GlobalIgnore GlobalPolicy = "ignore"
)

var globalAliases = map[string]bool{
	"global": true,
	"self":   true,
	"window": true,
}

// rewriteInfo carries what the reference pass learned, for scaffolding.
type rewriteInfo struct {
	// Specifiers are required module specifiers in first-seen order.
	Specifiers []string
	// DynamicRequire is set when a computed require survives as a runtime
	// call through the interop fallback.
	DynamicRequire bool
	// GlobalUsed is set when at least one global alias was unified.
	GlobalUsed bool

	Warnings []string

	bindings map[string]string
}

func (info *rewriteInfo) bindingFor(specifier string) string {
	if info.bindings == nil {
		info.bindings = make(map[string]string)
	}
	if name, ok := info.bindings[specifier]; ok {
		return name
	}
	name := fmt.Sprintf("__cjsImport%d__", len(info.Specifiers))
	info.bindings[specifier] = name
	info.Specifiers = append(info.Specifiers, specifier)
	return name
}

// rewriteReferences rewrites require calls, module/exports/global references
// and top-level this into their static-module equivalents. Edits land in
// edits; spans already covered by earlier edits (resolved typeof checks,
// rewritten require calls) are skipped so the edit list stays non-overlapping.
func rewriteReferences(root *sitter.Node, source []byte, policy GlobalPolicy, edits *editList) rewriteInfo {
	info := rewriteInfo{}
	covered := newSpanSet(edits)

	// Require calls first: their replacement swallows the callee identifier.
	walkNode(root, func(node *sitter.Node) {
		if node.Type() != "call_expression" || !isRequireCall(node, source) {
			return
		}
		if covered.contains(node) {
			return
		}
		if specifier, ok := requireSpecifier(node, source); ok {
			binding := info.bindingFor(specifier)
			edits.replaceNode(node, binding)
			covered.add(node)
			return
		}
		// Computed specifier: call through the runtime interop fallback and
		// flag it to the host instead of failing.
		functionNode := node.ChildByFieldName("function")
		edits.replaceNode(functionNode, dynamicRequireVar)
		covered.add(functionNode)
		if !info.DynamicRequire {
			info.DynamicRequire = true
			info.Warnings = append(info.Warnings, "computed require specifier cannot be resolved statically; calling through runtime fallback")
		}
	})

	walkNode(root, func(node *sitter.Node) {
		switch node.Type() {
		case "identifier":
			if covered.contains(node) || !isIdentifierUsage(node) {
				return
			}
			switch nodeText(node, source) {
			case "module":
				edits.replaceNode(node, moduleVar)
			case "exports":
				edits.replaceNode(node, exportsVar)
			case "require":
				// A bare require reference (not a call) survives only as the
				// runtime fallback value.
				edits.replaceNode(node, dynamicRequireVar)
				if !info.DynamicRequire {
					info.DynamicRequire = true
					info.Warnings = append(info.Warnings, "free require reference cannot be resolved statically; substituting runtime fallback")
				}
			case "global", "self", "window":
				if policy == GlobalRewrite {
					edits.replaceNode(node, globalVar)
					info.GlobalUsed = true
				}
			}
		case "this":
			// CommonJS wrapper semantics: top-level this === module.exports.
			if covered.contains(node) || insideFunction(node) {
				return
			}
			edits.replaceNode(node, moduleVar+".exports")
		}
	})

	return info
}

// spanSet tracks original-byte spans consumed by earlier edits.
type spanSet struct {
	spans []Edit
}

func newSpanSet(edits *editList) *spanSet {
	set := &spanSet{}
	for _, edit := range edits.edits {
		if edit.End > edit.Start {
			set.spans = append(set.spans, edit)
		}
	}
	return set
}

func (s *spanSet) add(node *sitter.Node) {
	s.spans = append(s.spans, Edit{Start: node.StartByte(), End: node.EndByte()})
}

func (s *spanSet) contains(node *sitter.Node) bool {
	start, end := node.StartByte(), node.EndByte()
	for _, span := range s.spans {
		if start >= span.Start && end <= span.End {
			return true
		}
	}
	return false
}

// headerInsertOffset returns the byte offset where injected scaffolding goes:
// offset zero, or past a leading shebang line.
func headerInsertOffset(source []byte) uint32 {
	if len(source) < 2 || source[0] != '#' || source[1] != '!' {
		return 0
	}
	if idx := strings.IndexByte(string(source), '\n'); idx >= 0 {
		return uint32(idx + 1)
	}
	return uint32(len(source))
}

// buildHeader emits the injected import and scaffolding prologue. The text is
// synthetic: it carries no source-map segments.
func buildHeader(info rewriteInfo) string {
	var builder strings.Builder
	for _, specifier := range info.Specifiers {
		fmt.Fprintf(&builder, "import %s from %q;\n", info.bindings[specifier], specifier)
	}
	builder.WriteString("var " + exportsVar + " = {};\n")
	builder.WriteString("var " + moduleVar + " = { exports: " + exportsVar + " };\n")
	if info.GlobalUsed {
		builder.WriteString("var " + globalVar + " = typeof window !== \"undefined\" ? window : typeof global !== \"undefined\" ? global : typeof self !== \"undefined\" ? self : {};\n")
	}
	if info.DynamicRequire {
		builder.WriteString("var " + dynamicRequireVar + " = function (id) { throw new Error(\"dynamic require of \" + JSON.stringify(id) + \" is not supported\"); };\n")
	}
	return builder.String()
}

// buildFooter emits the default and named export bindings. Named values are
// read off the live exports object after the module body has evaluated, so
// mutation anywhere in the body (including nested scopes) is reflected; the
// default binding is the exports object itself and stays live afterwards.
func buildFooter(names []string) string {
	var builder strings.Builder
	builder.WriteString("\nexport default " + moduleVar + ".exports;\n")
	if len(names) == 0 {
		return builder.String()
	}
	aliases := make([]string, 0, len(names))
	for _, name := range names {
		local := "__cjsExport_" + name + "__"
		fmt.Fprintf(&builder, "var %s = %s.exports.%s;\n", local, moduleVar, name)
		aliases = append(aliases, local+" as "+name)
	}
	builder.WriteString("export { " + strings.Join(aliases, ", ") + " };\n")
	return builder.String()
}
