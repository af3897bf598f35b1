// Package importer implements the import driver (spec.md §4.6): path
// resolution across the std/current-package/external roots, a stable
// module UUID, cache lookup, and the fresh-module compile sequence
// (lex -> parse -> transform Phase A -> transform Phase B).
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/modreg"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/symtab"
)

// moduleNamespace is the fixed namespace UUID module paths are hashed
// against, so the same resolved path always yields the same module UUID
// across runs (SPEC_FULL.md §4 "Deterministic module identity").
var moduleNamespace = uuid.MustParse("6e1d3a0a-6e22-4f0b-9f0e-2a7c9d6b1c10")

// Root is one of the three resolution roots spec.md §4.6 step 1 lists, in
// priority order.
type Root struct {
	Name string // "std", "$", or the external-packages directory name
	Path string
}

// Roots bundles the resolver's configured search roots.
type Roots struct {
	Std      string // built-in runtime root
	Current  string // "$", the current package path
	External string // external-packages directory
}

// Resolve turns a package + path-components pair into a file path,
// trying std, then the current package, then external packages, in that
// order (spec.md §4.6 step 1).
func (r Roots) Resolve(pkg string, components []string) (string, error) {
	rel := filepath.Join(components...) + ".nova"
	var root string
	switch pkg {
	case "std":
		root = r.Std
	case "$":
		root = r.Current
	default:
		root = filepath.Join(r.External, pkg)
	}
	if root == "" {
		return "", fmt.Errorf("import: no root configured for package %q", pkg)
	}
	return filepath.Join(root, rel), nil
}

// ModuleUUID computes the stable hash of a resolved file path (spec.md
// §4.6 step 2): a version-5-style SHA1 namespace UUID, so re-importing
// the same path within or across runs always yields the same identity.
func ModuleUUID(resolvedPath string) uuid.UUID {
	return uuid.NewSHA1(moduleNamespace, []byte(resolvedPath))
}

// ExportName returns the default export name for an import: the last
// path component, unless overridden by an explicit alias.
func ExportName(components []string, alias string) string {
	if alias != "" {
		return alias
	}
	if len(components) == 0 {
		return ""
	}
	return components[len(components)-1]
}

// Driver resolves and compiles imports, backed by the symbol cache's
// partial-entry cycle detection (spec.md §5) and the module registry.
type Driver struct {
	Roots    Roots
	Cache    *symtab.Cache
	Registry *modreg.Registry

	// Compile drives lex -> parse -> transform Phase A -> transform Phase
	// B for a fresh module. It's injected rather than called directly so
	// internal/importer has no import-cycle dependency on
	// internal/transform (which itself depends on internal/importer to
	// recurse into dependencies).
	Compile func(resolvedPath string, buf *source.Buffer, diags *diagnostic.List) (*ir.Module, error)
}

// New creates an import driver.
func New(roots Roots, cache *symtab.Cache, registry *modreg.Registry) *Driver {
	return &Driver{Roots: roots, Cache: cache, Registry: registry}
}

// CycleError reports that an import path is already being transformed
// (spec.md §5: "recursion into an already-in-progress module is detected
// by the presence of a partial module entry").
type CycleError struct {
	Path string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle detected: %q is still being compiled", e.Path)
}

// Import resolves pkg+components to a module, compiling it on first use
// and reusing the cached module thereafter (spec.md §4.6 steps 3-4).
func (d *Driver) Import(pkg string, components []string, readSource func(path string) (string, error)) (*ir.Module, string, error) {
	resolved, err := d.Roots.Resolve(pkg, components)
	if err != nil {
		return nil, "", err
	}
	moduleUUID := ModuleUUID(resolved).String()

	if entry, ok := d.Cache.Module(moduleUUID); ok {
		if entry.Partial {
			return nil, "", &CycleError{Path: resolved}
		}
		return entry.Module, moduleUUID, nil
	}

	d.Cache.BeginModule(moduleUUID)

	text, err := readSource(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("import %s: %w", resolved, err)
	}
	buf := source.NewBuffer(resolved, text)
	diags := diagnostic.NewList(buf)

	m, err := d.Compile(resolved, buf, diags)
	if err != nil {
		return nil, "", fmt.Errorf("import %s: %w", resolved, err)
	}

	d.Cache.FinishModule(moduleUUID, m)
	d.Registry.Put(resolved, m)
	return m, moduleUUID, nil
}

// ReexportMacros binds the named macros (or every exported macro, if
// names is empty) from src into a target symbol table, as driven by an
// import declaration's `macros(...)` attribute (spec.md §4.6 step 5). It
// reports the first name collision via bind, which should return an
// error for a name already defined in the importer's current scope.
func ReexportMacros(src *ir.Module, names []string, bind func(name string) error) error {
	wanted := src.ExportedMacros
	if len(names) > 0 {
		wanted = names
	}
	declared := make(map[string]bool, len(src.ExportedMacros))
	for _, n := range src.ExportedMacros {
		declared[n] = true
	}
	for _, name := range wanted {
		if !declared[name] {
			return fmt.Errorf("macro %q is not exported by %s", name, src.DisplayName)
		}
		if err := bind(name); err != nil {
			return err
		}
	}
	return nil
}

// SplitPath splits a "::"-joined import path into components, dropping
// empty segments. ".." components are kept as they are; they are only
// collapsed when Resolve joins the components into a file path.
func SplitPath(path string) []string {
	raw := strings.Split(path, "::")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
