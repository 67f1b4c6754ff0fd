package sourcemap

import (
	"sort"
)

// Position is an original source position resolved through a map.
type Position struct {
	Source    string
	Line      int
	Col       int
	SourceIdx int
}

// Consumer answers generated-to-original position queries against a decoded
// map, for composing a fresh map with the incoming one.
type Consumer struct {
	m     *Map
	lines map[int][]Segment
}

func NewConsumer(m *Map) (*Consumer, error) {
	segments, err := m.Decode()
	if err != nil {
		return nil, err
	}
	lines := make(map[int][]Segment)
	for _, segment := range segments {
		if segment.SourceIndex < 0 {
			continue
		}
		lines[segment.GenLine] = append(lines[segment.GenLine], segment)
	}
	for _, lineSegments := range lines {
		sort.SliceStable(lineSegments, func(i, j int) bool {
			return lineSegments[i].GenCol < lineSegments[j].GenCol
		})
	}
	return &Consumer{m: m, lines: lines}, nil
}

// OriginalPosition maps a generated (line, col) to its original position,
// extrapolating by column offset past the nearest preceding segment on the
// same line. Returns false when the position has no original counterpart.
func (c *Consumer) OriginalPosition(line, col int) (Position, bool) {
	lineSegments, ok := c.lines[line]
	if !ok || len(lineSegments) == 0 {
		return Position{}, false
	}
	idx := sort.Search(len(lineSegments), func(i int) bool {
		return lineSegments[i].GenCol > col
	}) - 1
	if idx < 0 {
		return Position{}, false
	}
	segment := lineSegments[idx]
	return Position{
		Source:    c.m.Sources[segment.SourceIndex],
		Line:      segment.SourceLine,
		Col:       segment.SourceCol + (col - segment.GenCol),
		SourceIdx: segment.SourceIndex,
	}, true
}

// SourceContent returns the recorded content for a source index, if any.
func (c *Consumer) SourceContent(index int) *string {
	if index < 0 || index >= len(c.m.SourcesContent) {
		return nil
	}
	return c.m.SourcesContent[index]
}

// Sources lists the map's original source paths.
func (c *Consumer) Sources() []string {
	return c.m.Sources
}
