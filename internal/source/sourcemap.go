package source

import (
	"encoding/json"
	"strings"
)

// SourceMap is a Source Map v3 document (https://sourcemaps.info/spec.html),
// reused here as `novac dump-ir --with-debug-map`'s format for mapping
// compiled function entries back to their Nova source positions.
type SourceMap struct {
	Version  int      `json:"version"`
	File     string   `json:"file,omitempty"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// mapping is one generated-position -> source-position pair.
type mapping struct {
	genLine, genCol int
	srcLine, srcCol int
	nameIndex       int
	hasName         bool
}

// Generator builds a debug map incrementally, one AddMapping call per
// compiled entry.
type Generator struct {
	lineIndex *LineIndex
	mappings  []mapping
	names     map[string]int
	namesList []string

	file       string
	sourceName string
}

// NewGenerator creates a debug map generator over the given original source.
func NewGenerator(source string) *Generator {
	return &Generator{
		lineIndex: NewLineIndex(source),
		names:     make(map[string]int),
	}
}

// SetFile sets the generated file name recorded in the debug map.
func (g *Generator) SetFile(file string) { g.file = file }

// SetSourceName sets the original source file's name recorded in the debug map.
func (g *Generator) SetSourceName(name string) { g.sourceName = name }

// AddMapping records that genLine/genCol in the generated output corresponds
// to srcOffset, a byte offset into the original source. name, if non-empty,
// is recorded in the map's Names table (e.g. a function's mangled symbol).
func (g *Generator) AddMapping(genLine, genCol, srcOffset int, name string) {
	srcLine, srcCol := g.lineIndex.ByteOffsetToLineColumn(srcOffset)

	m := mapping{genLine: genLine, genCol: genCol, srcLine: srcLine, srcCol: srcCol, nameIndex: -1}
	if name != "" {
		idx, ok := g.names[name]
		if !ok {
			idx = len(g.namesList)
			g.names[name] = idx
			g.namesList = append(g.namesList, name)
		}
		m.nameIndex = idx
		m.hasName = true
	}

	g.mappings = append(g.mappings, m)
}

// Generate produces the final SourceMap.
func (g *Generator) Generate() *SourceMap {
	sources := []string{}
	if g.sourceName != "" {
		sources = []string{g.sourceName}
	}
	return &SourceMap{
		Version:  3,
		File:     g.file,
		Sources:  sources,
		Names:    g.namesList,
		Mappings: g.encodeMappings(),
	}
}

// encodeMappings encodes all mappings as VLQ, delta-encoded per field per
// the source map v3 "mappings" grammar. There is always exactly one source
// file, so the source-index field is always a zero delta.
func (g *Generator) encodeMappings() string {
	if len(g.mappings) == 0 {
		return ""
	}

	var buf strings.Builder
	prevGenCol, prevSrcLine, prevSrcCol, prevNameIndex := 0, 0, 0, 0
	currentLine := 0
	firstOnLine := true

	for i := range g.mappings {
		m := &g.mappings[i]

		for currentLine < m.genLine {
			buf.WriteByte(';')
			currentLine++
			prevGenCol = 0
			firstOnLine = true
		}

		if !firstOnLine {
			buf.WriteByte(',')
		}
		firstOnLine = false

		buf.WriteString(EncodeVLQ(m.genCol - prevGenCol))
		prevGenCol = m.genCol
		buf.WriteString(EncodeVLQ(0)) // single source file
		buf.WriteString(EncodeVLQ(m.srcLine - prevSrcLine))
		prevSrcLine = m.srcLine
		buf.WriteString(EncodeVLQ(m.srcCol - prevSrcCol))
		prevSrcCol = m.srcCol
		if m.hasName {
			buf.WriteString(EncodeVLQ(m.nameIndex - prevNameIndex))
			prevNameIndex = m.nameIndex
		}
	}

	return buf.String()
}

// ToJSON returns the debug map as a JSON string.
func (sm *SourceMap) ToJSON() string {
	data, _ := json.Marshal(sm)
	return string(data)
}
