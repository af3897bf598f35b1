package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/types"
)

func TestShadowingAndRestoreOnPop(t *testing.T) {
	s := New()
	require.NoError(t, s.Define(Item{Kind: ItemType, Name: "x", Type: types.NewPrimitive(types.Int32)}))

	s.Push()
	require.NoError(t, s.Define(Item{Kind: ItemType, Name: "x", Type: types.NewPrimitive(types.Bool)}))

	inner, ok := s.Lookup("x")
	require.True(t, ok)
	require.Equal(t, "bool", inner.Type.Pretty())

	s.Pop()
	outer, ok := s.Lookup("x")
	require.True(t, ok)
	require.Equal(t, "i32", outer.Type.Pretty())
}

func TestDuplicateNameInSameScopeIsAnError(t *testing.T) {
	s := New()
	require.NoError(t, s.Define(Item{Kind: ItemValue, Name: "x"}))
	err := s.Define(Item{Kind: ItemValue, Name: "x"})
	require.Error(t, err)

	var dupErr *DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "x", dupErr.Name)
}

func TestLookupMissingNameReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.Lookup("missing")
	require.False(t, ok)
}

func TestWithFunctionRestoresPreviousOnExit(t *testing.T) {
	s := New()
	require.Nil(t, s.CurrentFunction)

	fn := &ir.Function{Name: "f"}
	s.WithFunction(fn, func() {
		require.NotNil(t, s.CurrentFunction)
		require.Equal(t, "f", s.CurrentFunction.Name)
	})
	require.Nil(t, s.CurrentFunction)
}

func TestUUIDOverrideStackPushPop(t *testing.T) {
	s := New()
	s.PushUUIDOverride("std.io")
	s.PushUUIDOverride("std.collections")
	require.Equal(t, []string{"std.io", "std.collections"}, s.UUIDOverrides())

	s.PopUUIDOverride()
	require.Equal(t, []string{"std.io"}, s.UUIDOverrides())
}

func TestWithScopePushesAndPops(t *testing.T) {
	s := New()
	depthBefore := s.Depth()
	s.WithScope(func() {
		require.Equal(t, depthBefore+1, s.Depth())
	})
	require.Equal(t, depthBefore, s.Depth())
}
