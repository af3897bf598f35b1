// Package modreg owns compiled modules (spec.md §3 "Modules": "Modules
// are created the first time their file is imported and then reused.")
// and exposes a reflection query surface over a finished module's
// exports, adapted from the teacher's shader-binding reflection package
// into a general "what does this module export" query (SPEC_FULL.md §6).
package modreg

import (
	"sort"

	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/types"
)

// Registry owns every compiled module, keyed by its resolved import path
// (distinct from the symbol cache's UUID keying in internal/symtab,
// which also tracks partial/in-progress entries for cycle detection).
type Registry struct {
	byPath map[string]*ir.Module
}

// New creates an empty module registry.
func New() *Registry {
	return &Registry{byPath: make(map[string]*ir.Module)}
}

// Get returns the module compiled for path, if any.
func (r *Registry) Get(path string) (*ir.Module, bool) {
	m, ok := r.byPath[path]
	return m, ok
}

// Put registers a finished module under its resolved path.
func (r *Registry) Put(path string, m *ir.Module) {
	r.byPath[path] = m
}

// All returns every registered module, sorted by path for deterministic
// iteration (e.g. when a driver reports them to the user).
func (r *Registry) All() []*ir.Module {
	paths := make([]string, 0, len(r.byPath))
	for p := range r.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*ir.Module, len(paths))
	for i, p := range paths {
		out[i] = r.byPath[p]
	}
	return out
}

// ----------------------------------------------------------------------------
// Reflection
// ----------------------------------------------------------------------------

// ExportInfo describes one exported symbol for tooling consumption
// (documentation generators, the `novac dump-ir` command).
type ExportInfo struct {
	Name         string
	MangledName  string
	Kind         string // "function", "type", "macro"
	FieldLayout  []FieldInfo
}

// FieldInfo describes one field of an exported defined type.
type FieldInfo struct {
	Name string
	Type string
	Slot int
}

// Reflect exposes a module's exported symbols, their mangled names, and
// defined-type field layouts (grounded on the teacher's reflect package,
// which produced the same shape of information for WGSL bind groups;
// here it describes Nova module exports instead, per SPEC_FULL.md §6).
func Reflect(m *ir.Module) []ExportInfo {
	names := make([]string, 0, len(m.Exports))
	for name := range m.Exports {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ExportInfo, 0, len(names))
	for _, name := range names {
		sym := m.Exports[name]
		info := ExportInfo{Name: name}
		switch {
		case sym.Function != nil:
			info.Kind = "function"
			info.MangledName = sym.Function.Mangle
		case sym.Type != nil:
			info.Kind = "type"
			info.MangledName = types.Mangle(sym.Type)
			if d, ok := types.Unalias(sym.Type).(*types.Defined); ok {
				for i, f := range d.AllFields() {
					info.FieldLayout = append(info.FieldLayout, FieldInfo{Name: f.Name, Type: f.Type.Pretty(), Slot: d.FieldSlot(i)})
				}
			}
		case sym.IsMacro:
			info.Kind = "macro"
		}
		out = append(out, info)
	}
	return out
}
