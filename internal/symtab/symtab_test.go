package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/types"
)

func TestBuildUUIDJoinsEnclosingNames(t *testing.T) {
	require.Equal(t, "mymod.Widget.draw", BuildUUID("mymod", "Widget", "draw"))
	require.Equal(t, "mymod", BuildUUID("mymod"))
}

func TestInstantiationUUIDSuffixesNonZero(t *testing.T) {
	require.Equal(t, "mymod.A", InstantiationUUID("mymod.A", 0))
	require.Equal(t, "mymod.A:1", InstantiationUUID("mymod.A", 1))
	require.Equal(t, "mymod.A:2", InstantiationUUID("mymod.A", 2))
}

func TestDeclareFunctionAppendsOverloads(t *testing.T) {
	c := New()
	c.DeclareFunction("mymod.f", &FunctionEntry{AST: &ast.FunctionDecl{Name: "f"}})
	c.DeclareFunction("mymod.f", &FunctionEntry{AST: &ast.FunctionDecl{Name: "f"}})

	store := c.Functions("mymod.f")
	require.NotNil(t, store)
	require.Len(t, store.Overloads, 2)
}

func TestFunctionsReturnsNilForUnknownUUID(t *testing.T) {
	c := New()
	require.Nil(t, c.Functions("nope"))
}

func TestInstantiationCachingIsIdempotent(t *testing.T) {
	c := New()
	c.DeclareType("mymod.A", &TypeStore{UUID: "mymod.A", AST: &ast.ClassDecl{Name: "A"}})

	want := &types.Defined{Name: "A<i32>"}
	c.CacheInstantiation("mymod.A", "mymod.A:1", want)

	got, ok := c.Instantiation("mymod.A", "mymod.A:1")
	require.True(t, ok)
	require.Same(t, want, got)

	_, ok = c.Instantiation("mymod.A", "mymod.A:2")
	require.False(t, ok)
}

func TestModuleLifecycleTracksPartialState(t *testing.T) {
	c := New()
	c.BeginModule("std.io")

	entry, ok := c.Module("std.io")
	require.True(t, ok)
	require.True(t, entry.Partial, "module should be partial before Phase B completes")

	c.FinishModule("std.io", nil)
	entry, ok = c.Module("std.io")
	require.True(t, ok)
	require.False(t, entry.Partial)
}

func TestMacroAndAliasRoundTrip(t *testing.T) {
	c := New()
	c.DeclareMacro("mymod.log_if", &MacroEntry{AST: &ast.MacroDecl{Name: "log_if"}})
	macro, ok := c.Macro("mymod.log_if")
	require.True(t, ok)
	require.Equal(t, "log_if", macro.AST.Name)

	c.DeclareAlias("mymod.Id", &AliasEntry{Type: types.NewPrimitive(types.Int64)})
	alias, ok := c.Alias("mymod.Id")
	require.True(t, ok)
	require.Equal(t, "i64", alias.Type.Pretty())
}
