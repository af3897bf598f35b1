package source

import (
	"encoding/json"
	"testing"
)

func TestGeneratorVersion(t *testing.T) {
	g := NewGenerator("")
	sm := g.Generate()
	if sm.Version != 3 {
		t.Errorf("Version = %d, want 3", sm.Version)
	}
}

func TestGeneratorEmptyMappings(t *testing.T) {
	g := NewGenerator("func f() {}")
	sm := g.Generate()
	if sm.Mappings != "" {
		t.Errorf("Mappings = %q, want empty", sm.Mappings)
	}
	if len(sm.Names) != 0 {
		t.Errorf("Names = %v, want empty", sm.Names)
	}
}

func TestGeneratorSingleMapping(t *testing.T) {
	source := "func f() i32 {\n\treturn 1;\n}\n"
	g := NewGenerator(source)
	g.SetFile("out.map")
	g.SetSourceName("f.nova")

	// "f" starts at byte offset 5.
	g.AddMapping(0, 0, 5, "module.f")

	sm := g.Generate()
	if sm.File != "out.map" {
		t.Errorf("File = %q, want out.map", sm.File)
	}
	if len(sm.Sources) != 1 || sm.Sources[0] != "f.nova" {
		t.Errorf("Sources = %v, want [f.nova]", sm.Sources)
	}
	if len(sm.Names) != 1 || sm.Names[0] != "module.f" {
		t.Errorf("Names = %v, want [module.f]", sm.Names)
	}
	if sm.Mappings == "" {
		t.Error("Mappings is empty, want a VLQ-encoded segment")
	}
}

func TestGeneratorMultipleLines(t *testing.T) {
	source := "func a() {}\nfunc b() {}\n"
	g := NewGenerator(source)
	g.AddMapping(0, 0, 5, "a")
	g.AddMapping(1, 0, 17, "b")

	sm := g.Generate()
	if len(sm.Names) != 2 {
		t.Fatalf("Names = %v, want 2 entries", sm.Names)
	}
	// One ';' separates the two generated lines.
	if want := 1; countByte(sm.Mappings, ';') != want {
		t.Errorf("Mappings = %q, want exactly %d ';'", sm.Mappings, want)
	}
}

func TestSourceMapRoundTripsThroughJSON(t *testing.T) {
	g := NewGenerator("func f() {}")
	g.SetFile("f.map")
	g.AddMapping(0, 0, 5, "f")
	sm := g.Generate()

	var decoded SourceMap
	if err := json.Unmarshal([]byte(sm.ToJSON()), &decoded); err != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", err)
	}
	if decoded.Version != 3 || decoded.File != "f.map" {
		t.Errorf("decoded = %+v, want version 3, file f.map", decoded)
	}
}

func TestEncodeVLQ(t *testing.T) {
	cases := []struct {
		value int
		want  string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{16, "gB"},
	}
	for _, c := range cases {
		if got := EncodeVLQ(c.value); got != c.want {
			t.Errorf("EncodeVLQ(%d) = %q, want %q", c.value, got, c.want)
		}
	}
}

func countByte(s string, b byte) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			n++
		}
	}
	return n
}
