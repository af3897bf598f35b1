package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/source"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	p := New(source.NewBuffer("test.nova", src))
	file, errs := p.Parse()
	require.Empty(t, errs, "unexpected parse errors for %q", src)
	return file
}

func TestParseVariableDecl(t *testing.T) {
	file := parse(t, "func f() { let x: i32 = 1 + 2; }")
	require.Len(t, file.Declarations, 1)
	fn := file.Declarations[0].(*ast.FunctionDecl)
	require.Len(t, fn.Body.Stmts, 1)
	decl := fn.Body.Stmts[0].(*ast.VariableDecl)
	assert.Equal(t, "x", decl.Name)
	assert.False(t, decl.Mutable)
	require.NotNil(t, decl.Type)
	assert.Equal(t, "i32", decl.Type.Name)
	bin, ok := decl.Init.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func TestParseMutableVar(t *testing.T) {
	file := parse(t, "func f() { var y = 3; }")
	fn := file.Declarations[0].(*ast.FunctionDecl)
	decl := fn.Body.Stmts[0].(*ast.VariableDecl)
	assert.Equal(t, "y", decl.Name)
	assert.True(t, decl.Mutable)
	assert.Nil(t, decl.Type)
}

func TestParseFunctionSignature(t *testing.T) {
	file := parse(t, "func add(a: i32, b: i32) i32 { return a + b; }")
	fn := file.Declarations[0].(*ast.FunctionDecl)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Parameters, 2)
	assert.Equal(t, "a", fn.Parameters[0].Name)
	assert.Equal(t, "i32", fn.Parameters[0].Type.Name)
	require.NotNil(t, fn.ReturnType)
	assert.Equal(t, "i32", fn.ReturnType.Name)
	require.Len(t, fn.Body.Stmts, 1)
	_, ok := fn.Body.Stmts[0].(*ast.Return)
	assert.True(t, ok)
}

func TestParseClassWithParentAndField(t *testing.T) {
	file := parse(t, `
class A<T> {
	let v: T;
	func id() T { return self.v; }
}
class B extends A<i32> {
	virtual func m() {}
}
`)
	require.Len(t, file.Declarations, 2)

	a := file.Declarations[0].(*ast.ClassDecl)
	assert.Equal(t, "A", a.Name)
	require.Len(t, a.Generics, 1)
	assert.Equal(t, "T", a.Generics[0].Name)
	require.Len(t, a.Fields, 1)
	assert.Equal(t, "v", a.Fields[0].Name)
	require.Len(t, a.Methods, 1)
	assert.Equal(t, "id", a.Methods[0].Name)

	b := file.Declarations[1].(*ast.ClassDecl)
	assert.Equal(t, "B", b.Name)
	require.NotNil(t, b.Parent)
	assert.Equal(t, "A", b.Parent.Name)
	require.Len(t, b.Methods, 1)
	assert.True(t, b.Methods[0].Virtual)
}

func TestParseImport(t *testing.T) {
	file := parse(t, "import std::io;")
	imp := file.Declarations[0].(*ast.Import)
	assert.Equal(t, "std", imp.Package)
	assert.Equal(t, []string{"io"}, imp.Components)
}

func TestParseOverloadCandidates(t *testing.T) {
	file := parse(t, `
func f(x: i32) i32 { return x; }
func f(x: f64) f64 { return x; }
`)
	require.Len(t, file.Declarations, 2)
	first := file.Declarations[0].(*ast.FunctionDecl)
	second := file.Declarations[1].(*ast.FunctionDecl)
	assert.Equal(t, "f", first.Name)
	assert.Equal(t, "f", second.Name)
	assert.Equal(t, "i32", first.Parameters[0].Type.Name)
	assert.Equal(t, "f64", second.Parameters[0].Type.Name)
}

func TestParseNewInstanceAndDotAccess(t *testing.T) {
	file := parse(t, `
func f() i32 {
	let obj = new Point(1, 2);
	return obj.x;
}
`)
	fn := file.Declarations[0].(*ast.FunctionDecl)
	decl := fn.Body.Stmts[0].(*ast.VariableDecl)
	newInstance, ok := decl.Init.(*ast.NewInstance)
	require.True(t, ok)
	assert.Equal(t, "Point", newInstance.Type.Name)
	require.Len(t, newInstance.Args, 2)

	ret := fn.Body.Stmts[1].(*ast.Return)
	idx, ok := ret.Value.(*ast.Index)
	require.True(t, ok)
	assert.Equal(t, ast.IndexDot, idx.Kind)
	assert.Equal(t, "x", idx.Name)
}

func TestParseSwitchCaseAndDefault(t *testing.T) {
	file := parse(t, `
func f(x: i32) i32 {
	switch (x) {
	case 1: return 10;
	default: return 0;
	}
}
`)
	fn := file.Declarations[0].(*ast.FunctionDecl)
	sw := fn.Body.Stmts[0].(*ast.Switch)
	assert.Len(t, sw.Cases, 1)
	assert.NotNil(t, sw.Default)
}
