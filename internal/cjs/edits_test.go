package cjs

import (
	"testing"
)

func TestEditListFinalizeSorts(t *testing.T) {
	list := &editList{}
	list.replaceSpan(10, 12, "b")
	list.replaceSpan(0, 4, "a")
	list.insert(6, "c")

	edits, err := list.finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(edits) != 3 {
		t.Fatalf("expected 3 edits, got %d", len(edits))
	}
	if edits[0].Start != 0 || edits[1].Start != 6 || edits[2].Start != 10 {
		t.Fatalf("expected ascending order, got %+v", edits)
	}
}

func TestEditListFinalizeCollapsesDuplicates(t *testing.T) {
	list := &editList{}
	list.replaceSpan(0, 4, "x")
	list.replaceSpan(0, 4, "x")

	edits, err := list.finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected duplicate collapse, got %+v", edits)
	}
}

func TestEditListFinalizeRejectsOverlap(t *testing.T) {
	list := &editList{}
	list.replaceSpan(0, 10, "x")
	list.replaceSpan(5, 8, "y")

	if _, err := list.finalize(); err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestEditListFinalizeRejectsInvertedSpan(t *testing.T) {
	list := &editList{}
	list.edits = append(list.edits, Edit{Start: 8, End: 4})

	if _, err := list.finalize(); err == nil {
		t.Fatalf("expected inverted span error")
	}
}

func TestEditListInsertAtReplacementBoundary(t *testing.T) {
	// An insertion at the start offset of a replacement is not an overlap.
	list := &editList{}
	list.insert(0, "header")
	list.replaceSpan(0, 6, "x")

	edits, err := list.finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(edits) != 2 || edits[0].Text != "header" {
		t.Fatalf("expected insertion first, got %+v", edits)
	}
}
