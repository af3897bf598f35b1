package ast

import (
	"testing"

	"github.com/novalang/novac/internal/source"
)

func TestAttributeGet(t *testing.T) {
	attr := Attribute{
		Name: AttrExport,
		Args: []AttributeArg{{Key: "name", Value: "main"}},
	}
	if v, ok := attr.Get("name"); !ok || v != "main" {
		t.Fatalf("Get(name) = %q, %v; want main, true", v, ok)
	}
	if _, ok := attr.Get("missing"); ok {
		t.Fatalf("Get(missing) returned ok=true")
	}
}

func TestHasAndFind(t *testing.T) {
	attrs := []Attribute{{Name: AttrBuiltin}, {Name: AttrNoMangle}}
	if !Has(attrs, AttrNoMangle) {
		t.Fatalf("Has(no_mangle) = false")
	}
	if Has(attrs, AttrUnsafe) {
		t.Fatalf("Has(unsafe) = true")
	}
	found, ok := Find(attrs, AttrBuiltin)
	if !ok || found.Name != AttrBuiltin {
		t.Fatalf("Find(builtin) = %+v, %v", found, ok)
	}
}

func TestRefValidity(t *testing.T) {
	if InvalidRef.IsValid() {
		t.Fatalf("InvalidRef.IsValid() = true")
	}
	r := Ref{ModuleIndex: 0, SymbolIndex: 3}
	if !r.IsValid() {
		t.Fatalf("Ref{0,3}.IsValid() = false")
	}
}

func TestBlockHoldsOrderedStmts(t *testing.T) {
	block := &Block{
		Stmts: []Stmt{
			&ExprStmt{Value: &ConstantValue{Kind: ConstInt, Int: 1}},
			&Return{Value: &ConstantValue{Kind: ConstInt, Int: 2}},
		},
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("len(block.Stmts) = %d, want 2", len(block.Stmts))
	}
	if _, ok := block.Stmts[1].(*Return); !ok {
		t.Fatalf("block.Stmts[1] is not *Return")
	}
}

func TestClassDeclFields(t *testing.T) {
	class := &ClassDecl{
		Name: "Widget",
		Kind: KindClass,
		Fields: []FieldDecl{
			{Name: "width", Type: &TypeRef{Name: "i32"}, Mutable: true},
		},
		Implements: []*TypeRef{{Name: "Drawable"}},
	}
	if len(class.Fields) != 1 || class.Fields[0].Name != "width" {
		t.Fatalf("unexpected fields: %+v", class.Fields)
	}
	if len(class.Implements) != 1 || class.Implements[0].Name != "Drawable" {
		t.Fatalf("unexpected implements: %+v", class.Implements)
	}
}

func TestScopeLookupChain(t *testing.T) {
	root := NewScope(nil)
	root.Members["x"] = ScopeMember{Ref: Ref{ModuleIndex: 0, SymbolIndex: 0}}
	child := NewScope(root)
	root.Children = append(root.Children, child)

	if _, ok := child.Members["x"]; ok {
		t.Fatalf("child scope should not directly contain parent's members")
	}
	if child.Parent != root {
		t.Fatalf("child.Parent != root")
	}
	if _, ok := root.Members["x"]; !ok {
		t.Fatalf("root scope missing its own member")
	}
}

func TestFunctionDeclBodyKinds(t *testing.T) {
	extern := &FunctionDecl{Name: "puts", BodyKind: BodyExtern, ExternalName: "puts"}
	inline := &FunctionDecl{Name: "raw_add", BodyKind: BodyInlineIR, InlineIR: []InlineIRChunk{
		{Literal: "iadd %0, %1"},
		{IsTypeAccess: true, TypeAccess: &TypeRef{Name: "i32"}},
	}}
	if extern.BodyKind != BodyExtern || extern.ExternalName != "puts" {
		t.Fatalf("unexpected extern function: %+v", extern)
	}
	if len(inline.InlineIR) != 2 || !inline.InlineIR[1].IsTypeAccess {
		t.Fatalf("unexpected inline-IR chunks: %+v", inline.InlineIR)
	}
}

func TestSpanMerge(t *testing.T) {
	a := source.Span{Start: 5, End: 10}
	b := source.Span{Start: 2, End: 7}
	merged := a.Merge(b)
	if merged.Start != 2 || merged.End != 10 {
		t.Fatalf("Merge = %+v, want {2 10}", merged)
	}
	if got := source.NoSpan.Merge(a); got != a {
		t.Fatalf("NoSpan.Merge(a) = %+v, want %+v", got, a)
	}
}

func TestDeclInterfaceSatisfiedByTopLevelForms(t *testing.T) {
	var decls []Decl
	decls = append(decls,
		&FunctionDecl{Name: "main"},
		&ClassDecl{Name: "Widget"},
		&AliasDecl{Name: "Id", Type: &TypeRef{Name: "i64"}},
		&EnumDecl{Name: "Color"},
		&MacroDecl{Name: "log_if"},
		&Import{Package: "std", Components: []string{"io", "Writer"}},
		&Namespace{Name: "geometry"},
	)
	if len(decls) != 7 {
		t.Fatalf("len(decls) = %d, want 7", len(decls))
	}
}
