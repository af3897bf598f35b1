package modreg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/ir"
)

func TestRegistryPutGet(t *testing.T) {
	r := New()
	m := ir.NewModule("std_io", "std::io", "std/io.nova")
	r.Put("std/io", m)

	got, ok := r.Get("std/io")
	require.True(t, ok)
	require.Same(t, m, got)
}

func TestRegistryAllIsSortedByPath(t *testing.T) {
	r := New()
	r.Put("zeta", ir.NewModule("zeta", "zeta", ""))
	r.Put("alpha", ir.NewModule("alpha", "alpha", ""))

	all := r.All()
	require.Len(t, all, 2)
	require.Equal(t, "alpha", all[0].UniqueName)
	require.Equal(t, "zeta", all[1].UniqueName)
}

func TestReflectListsExportsSorted(t *testing.T) {
	m := ir.NewModule("mymod", "my::mod", "")
	m.Exports["zeta_fn"] = ir.ExportedSymbol{Name: "zeta_fn", Function: &ir.Function{Mangle: "_ZN..."}}
	m.Exports["alpha_macro"] = ir.ExportedSymbol{Name: "alpha_macro", IsMacro: true}

	infos := Reflect(m)
	require.Len(t, infos, 2)
	require.Equal(t, "alpha_macro", infos[0].Name)
	require.Equal(t, "macro", infos[0].Kind)
	require.Equal(t, "zeta_fn", infos[1].Name)
	require.Equal(t, "function", infos[1].Kind)
}
