package ir

import (
	"testing"

	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/types"
)

func TestConstantCarriesSpanAndType(t *testing.T) {
	b := NewBuilder()
	span := source.Span{Start: 0, End: 2}
	c := b.ConstantInt(span, types.NewPrimitive(types.Int32), 42)
	if c.Span() != span {
		t.Fatalf("Span() = %+v, want %+v", c.Span(), span)
	}
	if c.Type().Pretty() != "i32" {
		t.Fatalf("Type().Pretty() = %q, want i32", c.Type().Pretty())
	}
}

func TestReferenceToCarriesReferentMutability(t *testing.T) {
	b := NewBuilder()
	v := b.VarRef(source.NoSpan, types.NewPrimitive(types.Int32), "x")
	ref := b.ReferenceTo(source.NoSpan, v, true)
	want, ok := ref.Type().(*types.Reference)
	if !ok || !want.Mutable {
		t.Fatalf("ReferenceTo did not produce a mutable reference: %+v", ref.Type())
	}
}

func TestVarDeclAdoptsInitializerType(t *testing.T) {
	b := NewBuilder()
	init := b.ConstantFloat(source.NoSpan, types.NewPrimitive(types.Float64), 1.5)
	decl := b.VarDecl(source.NoSpan, nil, "x", init, true)
	if decl.Type().Pretty() != "f64" {
		t.Fatalf("VarDecl.Type() = %q, want f64", decl.Type().Pretty())
	}
}

func TestVarDeclFallsBackToDeclaredTypeWithoutInit(t *testing.T) {
	b := NewBuilder()
	decl := b.VarDecl(source.NoSpan, types.NewPrimitive(types.Bool), "flag", nil, false)
	if decl.Type().Pretty() != "bool" {
		t.Fatalf("VarDecl.Type() = %q, want bool", decl.Type().Pretty())
	}
}

func TestIndexExtractUsesFieldType(t *testing.T) {
	b := NewBuilder()
	base := b.VarRef(source.NoSpan, &types.Defined{Name: "Widget"}, "w")
	extract := b.IndexExtract(source.NoSpan, types.NewPrimitive(types.Int32), base, 1, "width")
	if extract.Type().Pretty() != "i32" {
		t.Fatalf("IndexExtract.Type() = %q, want i32", extract.Type().Pretty())
	}
	if extract.Slot != 1 {
		t.Fatalf("Slot = %d, want 1", extract.Slot)
	}
}

func TestBlockTypeIsLastValue(t *testing.T) {
	b := NewBuilder()
	values := []Value{
		b.ConstantInt(source.NoSpan, types.NewPrimitive(types.Int32), 1),
		b.ConstantBool(source.NoSpan, true),
	}
	block := b.Block(source.NoSpan, values)
	if block.Type().Pretty() != "bool" {
		t.Fatalf("Block.Type() = %q, want bool (last value's type)", block.Type().Pretty())
	}
}

func TestEmptyBlockIsVoid(t *testing.T) {
	b := NewBuilder()
	block := b.Block(source.NoSpan, nil)
	if block.Type().Pretty() != "void" {
		t.Fatalf("empty Block.Type() = %q, want void", block.Type().Pretty())
	}
}

func TestModuleStartsWithEmptyExports(t *testing.T) {
	m := NewModule("mymod", "my::mod", "my/mod.nova")
	if len(m.Exports) != 0 {
		t.Fatalf("new module should have no exports, got %d", len(m.Exports))
	}
	m.Exports["main"] = ExportedSymbol{Name: "main"}
	if _, ok := m.Exports["main"]; !ok {
		t.Fatalf("export not recorded")
	}
}
