// Package symtab implements the symbol cache (spec.md §4.3): a canonical
// map from UUID to a cache entry — function store, type store, module, or
// macro/alias entry — plus the UUID-construction scheme the rest of the
// transformer builds on.
package symtab

import (
	"strconv"
	"strings"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/types"
)

// BuildUUID joins the owning module's unique name with a chain of
// enclosing names, matching spec.md §4.3: "UUIDs are built by joining
// the owning module's unique name with a chain of '.'-separated
// enclosing names".
func BuildUUID(moduleUniqueName string, enclosing ...string) string {
	parts := append([]string{moduleUniqueName}, enclosing...)
	return strings.Join(parts, ".")
}

// InstantiationUUID appends a monotonically increasing per-base-name
// suffix for a generic instantiation (spec.md §4.3).
func InstantiationUUID(baseUUID string, n int) string {
	if n == 0 {
		return baseUUID
	}
	return baseUUID + ":" + strconv.Itoa(n)
}

// FunctionStore holds every declared overload for one UUID, plus the
// context state captured when each overload was declared (spec.md §4.3
// "Function store").
type FunctionStore struct {
	UUID      string
	Overloads []*FunctionEntry
}

// FunctionEntry is one overload: its AST definition, its generated IR (if
// Phase B has already run for it), and the scope/module/class state
// captured at the declaration site so a generic instantiation can later
// re-enter that context.
type FunctionEntry struct {
	AST             *ast.FunctionDecl
	IR              *ir.Function // nil until Phase B generates the body
	DeclModule      string
	DeclClass       string
	DeclScopeMarker int // opaque snapshot index into the scope stack
}

// TypeStore holds one type declaration's AST plus, for generics, a side
// table from instantiation UUID to the already-built instantiated type
// (spec.md §4.3 "Type store").
type TypeStore struct {
	UUID            string
	AST             ast.Decl // *ast.ClassDecl, *ast.EnumDecl, etc.
	DeclModule      string
	DeclScopeMarker int
	Instantiations  map[string]types.Type
}

// ModuleEntry records a compiled module under its import path.
type ModuleEntry struct {
	UUID   string
	Module *ir.Module
	// Partial marks an entry created the moment transformation begins,
	// before Phase A completes, so a re-entrant import of the same path
	// is detected as a cycle rather than recursing (spec.md §5;
	// SPEC_FULL.md §5 "Import cache entry marks in-progress modules").
	Partial bool
}

// MacroEntry records a macro declaration available for import.
type MacroEntry struct {
	UUID string
	AST  *ast.MacroDecl
}

// AliasEntry records a type alias.
type AliasEntry struct {
	UUID string
	Type types.Type
}

// Cache is the canonical UUID -> entry map described in spec.md §4.3.
type Cache struct {
	functions map[string]*FunctionStore
	typesT    map[string]*TypeStore
	modules   map[string]*ModuleEntry
	macros    map[string]*MacroEntry
	aliases   map[string]*AliasEntry
}

// New creates an empty symbol cache.
func New() *Cache {
	return &Cache{
		functions: make(map[string]*FunctionStore),
		typesT:    make(map[string]*TypeStore),
		modules:   make(map[string]*ModuleEntry),
		macros:    make(map[string]*MacroEntry),
		aliases:   make(map[string]*AliasEntry),
	}
}

// DeclareFunction registers an overload under uuid, creating the store on
// first use. Multiple overloads sharing a UUID are appended in
// declaration order (spec.md §5 "instantiation order follows first-use
// order").
func (c *Cache) DeclareFunction(uuid string, entry *FunctionEntry) {
	store, ok := c.functions[uuid]
	if !ok {
		store = &FunctionStore{UUID: uuid}
		c.functions[uuid] = store
	}
	store.Overloads = append(store.Overloads, entry)
}

// Functions returns the overload store for uuid, or nil.
func (c *Cache) Functions(uuid string) *FunctionStore { return c.functions[uuid] }

// DeclareType registers a type declaration's store under uuid. Declaring
// twice under the same UUID is a caller bug (duplicate names are
// rejected earlier, at scope-insertion time).
func (c *Cache) DeclareType(uuid string, store *TypeStore) {
	if store.Instantiations == nil {
		store.Instantiations = make(map[string]types.Type)
	}
	c.typesT[uuid] = store
}

// Types returns the type store for uuid, or nil.
func (c *Cache) Types(uuid string) *TypeStore { return c.typesT[uuid] }

// Instantiation looks up a cached instantiated type, and reports whether
// one exists — this is the cache-idempotence mechanism of spec.md §8
// property 3: "transforming the same generic instantiation twice yields
// the same UUID and the same IR type identity".
func (c *Cache) Instantiation(typeUUID, instanceKey string) (types.Type, bool) {
	store := c.typesT[typeUUID]
	if store == nil {
		return nil, false
	}
	t, ok := store.Instantiations[instanceKey]
	return t, ok
}

// CacheInstantiation records a freshly built instantiated type.
func (c *Cache) CacheInstantiation(typeUUID, instanceKey string, t types.Type) {
	store := c.typesT[typeUUID]
	if store == nil {
		store = &TypeStore{UUID: typeUUID, Instantiations: make(map[string]types.Type)}
		c.typesT[typeUUID] = store
	}
	store.Instantiations[instanceKey] = t
}

// BeginModule records a partial module entry for cycle detection, before
// Phase A begins (spec.md §5).
func (c *Cache) BeginModule(uuid string) {
	c.modules[uuid] = &ModuleEntry{UUID: uuid, Partial: true}
}

// FinishModule replaces a partial entry with the fully compiled module.
func (c *Cache) FinishModule(uuid string, m *ir.Module) {
	c.modules[uuid] = &ModuleEntry{UUID: uuid, Module: m, Partial: false}
}

// Module looks up a module entry by uuid, reporting whether it exists and
// whether it's still partial (an in-progress import, i.e. a cycle).
func (c *Cache) Module(uuid string) (*ModuleEntry, bool) {
	e, ok := c.modules[uuid]
	return e, ok
}

// DeclareMacro registers a macro declaration.
func (c *Cache) DeclareMacro(uuid string, entry *MacroEntry) { c.macros[uuid] = entry }

// Macro looks up a macro entry by uuid.
func (c *Cache) Macro(uuid string) (*MacroEntry, bool) {
	e, ok := c.macros[uuid]
	return e, ok
}

// DeclareAlias registers a type alias.
func (c *Cache) DeclareAlias(uuid string, entry *AliasEntry) { c.aliases[uuid] = entry }

// Alias looks up an alias entry by uuid.
func (c *Cache) Alias(uuid string) (*AliasEntry, bool) {
	e, ok := c.aliases[uuid]
	return e, ok
}
