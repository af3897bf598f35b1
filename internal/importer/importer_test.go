package importer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/modreg"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/symtab"
)

func fixtureRoots() Roots {
	return Roots{Std: "/std", Current: "/pkg/current", External: "/pkg/external"}
}

func TestResolveOrdersRootsByPackage(t *testing.T) {
	r := fixtureRoots()

	std, err := r.Resolve("std", []string{"io", "file"})
	require.NoError(t, err)
	require.Equal(t, "/std/io/file.nova", std)

	cur, err := r.Resolve("$", []string{"util"})
	require.NoError(t, err)
	require.Equal(t, "/pkg/current/util.nova", cur)

	ext, err := r.Resolve("acme_collections", []string{"list"})
	require.NoError(t, err)
	require.Equal(t, "/pkg/external/acme_collections/list.nova", ext)
}

func TestModuleUUIDIsStableForSamePath(t *testing.T) {
	a := ModuleUUID("/std/io/file.nova")
	b := ModuleUUID("/std/io/file.nova")
	require.Equal(t, a, b)

	c := ModuleUUID("/std/io/other.nova")
	require.NotEqual(t, a, c)
}

func TestExportNamePrefersAliasOverLastComponent(t *testing.T) {
	require.Equal(t, "file", ExportName([]string{"io", "file"}, ""))
	require.Equal(t, "f", ExportName([]string{"io", "file"}, "f"))
}

func TestSplitPathCollapsesEmptySegments(t *testing.T) {
	require.Equal(t, []string{"io", "file"}, SplitPath("io::file"))
	require.Equal(t, []string{"io", "file"}, SplitPath("::io::file"))
}

func TestImportCompilesOnceAndReusesCache(t *testing.T) {
	cache := symtab.New()
	registry := modreg.New()
	d := New(fixtureRoots(), cache, registry)

	calls := 0
	d.Compile = func(path string, buf *source.Buffer, diags *diagnostic.List) (*ir.Module, error) {
		calls++
		return ir.NewModule("file", "io::file", path), nil
	}

	read := func(path string) (string, error) { return "# empty", nil }

	m1, uuid1, err := d.Import("std", []string{"io", "file"}, read)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	m2, uuid2, err := d.Import("std", []string{"io", "file"}, read)
	require.NoError(t, err)
	require.Equal(t, 1, calls, "second import must reuse the cached module")
	require.Same(t, m1, m2)
	require.Equal(t, uuid1, uuid2)

	_, ok := registry.Get("/std/io/file.nova")
	require.True(t, ok)
}

func TestImportDetectsCycleViaPartialEntry(t *testing.T) {
	cache := symtab.New()
	registry := modreg.New()
	d := New(fixtureRoots(), cache, registry)

	d.Compile = func(path string, buf *source.Buffer, diags *diagnostic.List) (*ir.Module, error) {
		// Re-entrant import of the same path while this compile is still
		// in flight must observe the partial entry and fail.
		_, _, err := d.Import("std", []string{"io", "file"}, func(string) (string, error) { return "", nil })
		require.Error(t, err)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		return ir.NewModule("file", "io::file", path), nil
	}

	_, _, err := d.Import("std", []string{"io", "file"}, func(string) (string, error) { return "", nil })
	require.NoError(t, err)
}

func TestImportPropagatesReadError(t *testing.T) {
	cache := symtab.New()
	registry := modreg.New()
	d := New(fixtureRoots(), cache, registry)
	d.Compile = func(path string, buf *source.Buffer, diags *diagnostic.List) (*ir.Module, error) {
		t.Fatal("compile should not run when the source cannot be read")
		return nil, nil
	}

	_, _, err := d.Import("std", []string{"missing"}, func(string) (string, error) {
		return "", fmt.Errorf("no such file")
	})
	require.Error(t, err)
}

func TestReexportMacrosBindsRequestedNames(t *testing.T) {
	m := ir.NewModule("file", "io::file", "")
	m.ExportedMacros = []string{"log_debug", "log_info"}

	var bound []string
	err := ReexportMacros(m, []string{"log_info"}, func(name string) error {
		bound = append(bound, name)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"log_info"}, bound)
}

func TestReexportMacrosRejectsUnknownName(t *testing.T) {
	m := ir.NewModule("file", "io::file", "")
	m.ExportedMacros = []string{"log_debug"}

	err := ReexportMacros(m, []string{"nope"}, func(string) error { return nil })
	require.Error(t, err)
}

func TestReexportMacrosDefaultsToAllExported(t *testing.T) {
	m := ir.NewModule("file", "io::file", "")
	m.ExportedMacros = []string{"a", "b"}

	var bound []string
	err := ReexportMacros(m, nil, func(name string) error {
		bound = append(bound, name)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, bound)
}
