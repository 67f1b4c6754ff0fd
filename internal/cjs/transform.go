// Package cjs detects CommonJS modules and rewrites them into static-module
// form: require calls hoist into imports, module/exports references resolve
// against injected scaffolding, UMD environment probes collapse to literals,
// and a named-export surface is synthesized from the static export shape.
package cjs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/unwrapjs/unwrap/internal/sourcemap"
)

// Request is one module to transform. Source is the module text; InputMap is
// an optional incoming source map when the text was already generated once.
// Overrides, when HasOverride is set, replaces the inferred named-export list.
type Request struct {
	ID       string
	Source   string
	InputMap []byte

	Policy      GlobalPolicy
	Overrides   []string
	HasOverride bool
}

// Result is the transform outcome for one module. For modules that are not
// CommonJS (or that could not be rewritten safely) Code equals the input
// byte-for-byte, Map is nil, and the export lists are empty.
type Result struct {
	Code string
	Map  []byte

	CommonJS     bool
	Evidence     []Evidence
	Imports      []string
	NamedExports []string
	Reexports    []string
	Warnings     []string
}

// Transform runs the full detect-and-rewrite pipeline on one module. It is a
// pure function over the request: no I/O, no shared state, safe to call
// concurrently for different modules. Malformed input degrades to
// pass-through with a warning; only context cancellation is returned as an
// error.
func Transform(ctx context.Context, req Request) (Result, error) {
	// Small modules can parse before ParseCtx observes cancellation.
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	source := []byte(req.Source)

	tree, err := parseSource(ctx, source)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", req.ID, err)
	}
	defer tree.Close()
	root := tree.RootNode()

	if root.HasError() {
		return Result{
			Code:     req.Source,
			Warnings: []string{fmt.Sprintf("%s: syntax error, module left unmodified", req.ID)},
		}, nil
	}

	verdict := detect(root, source)
	result := Result{
		Code:     req.Source,
		CommonJS: verdict.CommonJS,
		Evidence: verdict.Evidence,
	}
	if !verdict.CommonJS {
		return result, nil
	}
	if verdict.WeakOnly {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: only free module/exports references found; rewrite may be a false positive", req.ID))
	}

	edits := &editList{}
	resolveTypeofs(root, source, edits)

	scan := synthesizeExports(root, source)
	names := scan.Names
	if req.HasOverride {
		names = overrideNames(req, scan, &result)
	}
	result.NamedExports = append([]string(nil), names...)
	result.Reexports = append([]string(nil), scan.Reexports...)

	info := rewriteReferences(root, source, req.Policy, edits)
	result.Imports = append([]string(nil), info.Specifiers...)
	result.Warnings = append(result.Warnings, info.Warnings...)

	edits.insert(headerInsertOffset(source), buildHeader(info))

	finalized, err := edits.finalize()
	if err != nil {
		return abandonRewrite(result, req, fmt.Sprintf("conflicting rewrites (%v)", err)), nil
	}

	code, mapJSON, err := applyEdits(req, source, finalized, buildFooter(names))
	if err != nil {
		return abandonRewrite(result, req, err.Error()), nil
	}

	result.Code = code
	result.Map = mapJSON
	return result, nil
}

// abandonRewrite resets a result to pass-through while keeping the detection
// verdict, for rewrites that could not be completed safely.
func abandonRewrite(result Result, req Request, reason string) Result {
	result.Code = req.Source
	result.Map = nil
	result.Imports = nil
	result.NamedExports = nil
	result.Reexports = nil
	result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s, module left unmodified", req.ID, reason))
	return result
}

// overrideNames applies the configured export override, warning when it names
// exports the static scan never saw (the override may be shadowing a scan
// false negative, or it may be stale).
func overrideNames(req Request, scan exportScan, result *Result) []string {
	names := make([]string, 0, len(req.Overrides))
	var unmatched []string
	for _, name := range req.Overrides {
		if !ValidExportName(name) || name == "__esModule" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: override export %q is not a valid export name, skipped", req.ID, name))
			continue
		}
		names = append(names, name)
		if !scan.seen[name] {
			unmatched = append(unmatched, name)
		}
	}
	if len(unmatched) > 0 {
		sort.Strings(unmatched)
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: override exports not found statically: %s", req.ID, strings.Join(unmatched, ", ")))
	}
	return names
}

// applyEdits renders the output text and its source map. Spans copied from
// the original get one mapping per output line; injected text gets none. When
// the request carries an incoming map, every mapping is composed through it
// so positions point at the true original source.
func applyEdits(req Request, source []byte, edits []Edit, footer string) (string, []byte, error) {
	generator := sourcemap.NewGenerator(req.ID)
	writer := &mappedWriter{
		generator: generator,
		lines:     newLineIndex(source),
	}

	if len(req.InputMap) > 0 {
		incoming, err := sourcemap.Parse(req.InputMap)
		if err != nil {
			return "", nil, fmt.Errorf("incoming source map: %w", err)
		}
		consumer, err := sourcemap.NewConsumer(incoming)
		if err != nil {
			return "", nil, fmt.Errorf("incoming source map: %w", err)
		}
		writer.consumer = consumer
		writer.sourceIndexes = make([]int, len(consumer.Sources()))
		for i, path := range consumer.Sources() {
			writer.sourceIndexes[i] = generator.AddSourceRef(path, consumer.SourceContent(i))
		}
	} else {
		writer.selfIndex = generator.AddSource(req.ID, req.Source)
	}

	cursor := uint32(0)
	for _, edit := range edits {
		if edit.Start > uint32(len(source)) || edit.End > uint32(len(source)) {
			return "", nil, fmt.Errorf("edit span [%d, %d) outside source", edit.Start, edit.End)
		}
		writer.copySpan(source, cursor, edit.Start)
		writer.writeSynthetic(edit.Text)
		cursor = edit.End
	}
	writer.copySpan(source, cursor, uint32(len(source)))
	writer.writeSynthetic(footer)

	mapJSON, err := generator.Map().Encode()
	if err != nil {
		return "", nil, fmt.Errorf("encode source map: %w", err)
	}
	return writer.builder.String(), mapJSON, nil
}

// mappedWriter assembles output text while tracking generated positions and
// emitting mappings for verbatim spans.
type mappedWriter struct {
	builder strings.Builder
	genLine int
	genCol  int

	generator *sourcemap.Generator
	lines     *lineIndex

	// Without an incoming map the module itself is the single source.
	selfIndex int
	// With an incoming map, positions resolve through it instead.
	consumer      *sourcemap.Consumer
	sourceIndexes []int
}

// copySpan copies source[start:end) verbatim, mapping the span start and each
// subsequent line start back to the original position.
func (w *mappedWriter) copySpan(source []byte, start, end uint32) {
	if start >= end {
		return
	}
	origLine, origCol := w.lines.position(start)
	w.addMapping(origLine, origCol)
	span := source[start:end]
	for i, b := range span {
		w.builder.WriteByte(b)
		if b == '\n' {
			w.genLine++
			w.genCol = 0
			origLine++
			origCol = 0
			if i+1 < len(span) {
				w.addMapping(origLine, origCol)
			}
			continue
		}
		w.genCol++
		origCol++
	}
}

// writeSynthetic appends injected text with no mappings.
func (w *mappedWriter) writeSynthetic(text string) {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			w.genLine++
			w.genCol = 0
		} else {
			w.genCol++
		}
	}
	w.builder.WriteString(text)
}

func (w *mappedWriter) addMapping(origLine, origCol int) {
	if w.consumer == nil {
		w.generator.AddMapping(w.genLine, w.genCol, w.selfIndex, origLine, origCol)
		return
	}
	position, ok := w.consumer.OriginalPosition(origLine, origCol)
	if !ok {
		return
	}
	w.generator.AddMapping(w.genLine, w.genCol, w.sourceIndexes[position.SourceIdx], position.Line, position.Col)
}

// lineIndex resolves byte offsets to 0-based line/column positions.
type lineIndex struct {
	starts []uint32
}

func newLineIndex(source []byte) *lineIndex {
	index := &lineIndex{starts: []uint32{0}}
	for i, b := range source {
		if b == '\n' {
			index.starts = append(index.starts, uint32(i+1))
		}
	}
	return index
}

func (ix *lineIndex) position(offset uint32) (line, col int) {
	line = sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	}) - 1
	return line, int(offset - ix.starts[line])
}
