package cjs

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Edit replaces the original byte span [Start, End) with Text. A span with
// Start == End is a pure insertion.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

type editList struct {
	edits []Edit
}

func (l *editList) insert(offset uint32, text string) {
	l.edits = append(l.edits, Edit{Start: offset, End: offset, Text: text})
}

func (l *editList) replaceSpan(start, end uint32, text string) {
	l.edits = append(l.edits, Edit{Start: start, End: end, Text: text})
}

func (l *editList) replaceNode(node *sitter.Node, text string) {
	l.replaceSpan(node.StartByte(), node.EndByte(), text)
}

func (l *editList) merge(other *editList) {
	l.edits = append(l.edits, other.edits...)
}

// finalize sorts edits into ascending original-offset order and verifies the
// non-overlap invariant downstream offset math depends on. Duplicate edits
// (same span, same text) collapse to one; any other overlap is an error and
// the caller abandons the rewrite rather than emit half-rewritten code.
func (l *editList) finalize() ([]Edit, error) {
	edits := append([]Edit(nil), l.edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End < edits[j].End
	})

	out := edits[:0]
	for _, edit := range edits {
		if edit.End < edit.Start {
			return nil, fmt.Errorf("edit span inverted: [%d, %d)", edit.Start, edit.End)
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if edit == prev {
				continue
			}
			if edit.Start < prev.End {
				return nil, fmt.Errorf("overlapping edits at byte %d", edit.Start)
			}
		}
		out = append(out, edit)
	}
	return out, nil
}
