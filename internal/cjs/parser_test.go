package cjs

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestValidExportName(t *testing.T) {
	valid := []string{"foo", "_bar", "$", "camelCase", "x1"}
	for _, name := range valid {
		if !ValidExportName(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", "1x", "with-dash", "default", "class", "has space", "ü"}
	for _, name := range invalid {
		if ValidExportName(name) {
			t.Fatalf("expected %q to be invalid", name)
		}
	}
}

func countModuleUsages(t *testing.T, source string) int {
	t.Helper()
	root, content := parseForTest(t, source)
	count := 0
	walkNode(root, func(node *sitter.Node) {
		if node.Type() == "identifier" && nodeText(node, content) == "module" && isIdentifierUsage(node) {
			count++
		}
	})
	return count
}

func TestIsIdentifierUsage(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   int
	}{
		{"declaration name excluded", "var module = 1;\n", 0},
		{"parameter excluded", "function f(module) {}\n", 0},
		{"property key excluded", "var o = { module: 1 };\n", 0},
		{"member property excluded", "thing.module;\n", 0},
		{"member object counted", "module.exports;\n", 1},
		{"bare reference counted", "log(module);\n", 1},
		{"subscript index counted", "cache[module];\n", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := countModuleUsages(t, tc.source); got != tc.want {
				t.Fatalf("expected %d usages, got %d", tc.want, got)
			}
		})
	}
}

func TestExtractStringLiteral(t *testing.T) {
	root, content := parseForTest(t, "var x = \"hello\";\nvar y = 'world';\nvar z = 1;\n")
	var literals []string
	walkNode(root, func(node *sitter.Node) {
		if value, ok := extractStringLiteral(node, content); ok {
			literals = append(literals, value)
		}
	})
	if len(literals) != 2 || literals[0] != "hello" || literals[1] != "world" {
		t.Fatalf("expected hello and world, got %v", literals)
	}
}
