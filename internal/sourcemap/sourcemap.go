// Package sourcemap encodes, decodes, and composes source map v3 documents
// for the rewrite pipeline. Injected scaffolding carries no mappings; spans
// copied verbatim map back to their original line and column, composed
// through an incoming map when the source was already transformed once.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Map is a source map v3 document.
type Map struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// Parse decodes a JSON source map and rejects unsupported versions.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse source map: %w", err)
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", m.Version)
	}
	return &m, nil
}

// Segment is one decoded mapping. A SourceIndex of -1 marks a generated
// position with no original position.
type Segment struct {
	GenLine     int
	GenCol      int
	SourceIndex int
	SourceLine  int
	SourceCol   int
	NameIndex   int
}

// Generator accumulates mappings while output text is assembled.
type Generator struct {
	file           string
	sources        []string
	sourcesContent []*string
	segments       []Segment
}

func NewGenerator(file string) *Generator {
	return &Generator{file: file}
}

// AddSource registers an original source and returns its index.
func (g *Generator) AddSource(path string, content string) int {
	g.sources = append(g.sources, path)
	g.sourcesContent = append(g.sourcesContent, &content)
	return len(g.sources) - 1
}

// AddSourceRef registers a source path without content (composed maps keep
// whatever the incoming map recorded).
func (g *Generator) AddSourceRef(path string, content *string) int {
	g.sources = append(g.sources, path)
	g.sourcesContent = append(g.sourcesContent, content)
	return len(g.sources) - 1
}

// AddMapping records that generated (genLine, genCol) originates at
// (sourceLine, sourceCol) of the indexed source. All positions are 0-based.
func (g *Generator) AddMapping(genLine, genCol, sourceIndex, sourceLine, sourceCol int) {
	g.segments = append(g.segments, Segment{
		GenLine:     genLine,
		GenCol:      genCol,
		SourceIndex: sourceIndex,
		SourceLine:  sourceLine,
		SourceCol:   sourceCol,
		NameIndex:   -1,
	})
}

// Map encodes the accumulated mappings into a v3 document.
func (g *Generator) Map() *Map {
	segments := append([]Segment(nil), g.segments...)
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].GenLine != segments[j].GenLine {
			return segments[i].GenLine < segments[j].GenLine
		}
		return segments[i].GenCol < segments[j].GenCol
	})

	var builder strings.Builder
	line := 0
	prevGenCol := 0
	prevSourceIndex := 0
	prevSourceLine := 0
	prevSourceCol := 0
	firstOnLine := true

	for _, segment := range segments {
		for line < segment.GenLine {
			builder.WriteByte(';')
			line++
			prevGenCol = 0
			firstOnLine = true
		}
		if !firstOnLine {
			builder.WriteByte(',')
		}
		firstOnLine = false

		encodeVLQ(&builder, segment.GenCol-prevGenCol)
		prevGenCol = segment.GenCol
		if segment.SourceIndex >= 0 {
			encodeVLQ(&builder, segment.SourceIndex-prevSourceIndex)
			encodeVLQ(&builder, segment.SourceLine-prevSourceLine)
			encodeVLQ(&builder, segment.SourceCol-prevSourceCol)
			prevSourceIndex = segment.SourceIndex
			prevSourceLine = segment.SourceLine
			prevSourceCol = segment.SourceCol
		}
	}

	hasContent := false
	for _, content := range g.sourcesContent {
		if content != nil {
			hasContent = true
			break
		}
	}
	sourcesContent := g.sourcesContent
	if !hasContent {
		sourcesContent = nil
	}

	return &Map{
		Version:        3,
		File:           g.file,
		Sources:        append([]string(nil), g.sources...),
		SourcesContent: sourcesContent,
		Names:          []string{},
		Mappings:       builder.String(),
	}
}

// Encode renders the map as JSON.
func (m *Map) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode expands the mappings string into segments.
func (m *Map) Decode() ([]Segment, error) {
	segments := make([]Segment, 0, len(m.Mappings)/4)
	line := 0
	genCol := 0
	sourceIndex := 0
	sourceLine := 0
	sourceCol := 0
	nameIndex := 0

	pos := 0
	for pos < len(m.Mappings) {
		switch m.Mappings[pos] {
		case ';':
			line++
			genCol = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		var err error
		var delta int
		if delta, pos, err = decodeVLQ(m.Mappings, pos); err != nil {
			return nil, err
		}
		genCol += delta
		segment := Segment{GenLine: line, GenCol: genCol, SourceIndex: -1, NameIndex: -1}

		if pos < len(m.Mappings) && !isSegmentBoundary(m.Mappings[pos]) {
			if delta, pos, err = decodeVLQ(m.Mappings, pos); err != nil {
				return nil, err
			}
			sourceIndex += delta
			if delta, pos, err = decodeVLQ(m.Mappings, pos); err != nil {
				return nil, err
			}
			sourceLine += delta
			if delta, pos, err = decodeVLQ(m.Mappings, pos); err != nil {
				return nil, err
			}
			sourceCol += delta
			if sourceIndex < 0 || sourceIndex >= len(m.Sources) {
				return nil, fmt.Errorf("source index %d out of range", sourceIndex)
			}
			segment.SourceIndex = sourceIndex
			segment.SourceLine = sourceLine
			segment.SourceCol = sourceCol

			if pos < len(m.Mappings) && !isSegmentBoundary(m.Mappings[pos]) {
				if delta, pos, err = decodeVLQ(m.Mappings, pos); err != nil {
					return nil, err
				}
				nameIndex += delta
				segment.NameIndex = nameIndex
			}
		}

		segments = append(segments, segment)
	}

	return segments, nil
}

func isSegmentBoundary(c byte) bool {
	return c == ';' || c == ','
}
