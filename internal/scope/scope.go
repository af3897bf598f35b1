// Package scope implements the transformer's scope stack and context
// (spec.md §4.4): a stack of name -> item tables, the current
// module/function/defined-type/generate-function state, and the UUID
// override stack used during cross-module lookup.
package scope

import (
	"fmt"

	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/types"
)

// ItemKind classifies what a scope entry holds (spec.md §3 "Scope item").
type ItemKind uint8

const (
	ItemValue ItemKind = iota
	ItemType
	ItemFunctionSet
	ItemModule
	ItemMacro
	ItemASTAlias
)

// Item is one binding in a scope's name table.
type Item struct {
	Kind  ItemKind
	Name  string
	Value ir.Value     // ItemValue
	Type  types.Type    // ItemType
	UUID  string        // ItemFunctionSet / ItemModule / ItemMacro: cache key
	Alias string        // ItemASTAlias: the UUID it stands for
}

// frame is one pushed scope: a name -> item table.
type frame struct {
	items map[string]Item
}

func newFrame() *frame { return &frame{items: make(map[string]Item)} }

// DuplicateNameError reports that name is already bound in the innermost
// scope (spec.md §4.4: "Adding an item to a scope in which the same name
// is already defined is an error.").
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%q is already defined in this scope", e.Name)
}

// Stack is the transformer's scope stack plus its surrounding context.
type Stack struct {
	frames []*frame

	CurrentModule      *ir.Module
	CurrentFunction     *ir.Function
	CurrentDefinedType  *types.Defined
	GenerateFunction    bool // Phase A/B flag, spec.md §4.5

	// uuidOverrides is the UUID override stack. It is pushed, popped and
	// returned by UUIDOverrides; Lookup does not consult it.
	uuidOverrides []string
}

// New creates a scope stack with one root frame pushed.
func New() *Stack {
	s := &Stack{}
	s.Push()
	return s
}

// Push enters a new lexical scope (block, class body, namespace, or
// imported module).
func (s *Stack) Push() { s.frames = append(s.frames, newFrame()) }

// Pop exits the innermost lexical scope. Outer bindings are unaffected
// and become visible again (spec.md §8 property 4, "scope shadowing").
func (s *Stack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth reports how many frames are currently pushed (used by callers
// that need to snapshot/restore, e.g. symtab.FunctionEntry.DeclScopeMarker).
func (s *Stack) Depth() int { return len(s.frames) }

// Define adds name to the innermost scope. Returns a DuplicateNameError
// if name is already bound there.
func (s *Stack) Define(item Item) error {
	top := s.frames[len(s.frames)-1]
	if _, exists := top.items[item.Name]; exists {
		return &DuplicateNameError{Name: item.Name}
	}
	top.items[item.Name] = item
	return nil
}

// Lookup resolves name by walking frames from innermost to outermost
// (spec.md §4.4: "innermost scope outward").
func (s *Stack) Lookup(name string) (Item, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if it, ok := s.frames[i].items[name]; ok {
			return it, true
		}
	}
	return Item{}, false
}

// PushUUIDOverride pushes a UUID onto the override stack.
func (s *Stack) PushUUIDOverride(uuid string) {
	s.uuidOverrides = append(s.uuidOverrides, uuid)
}

// PopUUIDOverride removes the most recently pushed override.
func (s *Stack) PopUUIDOverride() {
	if len(s.uuidOverrides) > 0 {
		s.uuidOverrides = s.uuidOverrides[:len(s.uuidOverrides)-1]
	}
}

// UUIDOverrides returns the override stack, most-recently-pushed last.
func (s *Stack) UUIDOverrides() []string { return s.uuidOverrides }

// ----------------------------------------------------------------------------
// Scoped helpers
// ----------------------------------------------------------------------------

// WithFunction runs fn with CurrentFunction temporarily set, restoring the
// previous value on every exit path (spec.md "Design notes": "use scoped
// helpers that restore the previous state on all exit paths").
func (s *Stack) WithFunction(f *ir.Function, fn func()) {
	prev := s.CurrentFunction
	s.CurrentFunction = f
	defer func() { s.CurrentFunction = prev }()
	fn()
}

// WithDefinedType runs fn with CurrentDefinedType temporarily set.
func (s *Stack) WithDefinedType(d *types.Defined, fn func()) {
	prev := s.CurrentDefinedType
	s.CurrentDefinedType = d
	defer func() { s.CurrentDefinedType = prev }()
	fn()
}

// WithModule runs fn with CurrentModule temporarily set.
func (s *Stack) WithModule(m *ir.Module, fn func()) {
	prev := s.CurrentModule
	s.CurrentModule = m
	defer func() { s.CurrentModule = prev }()
	fn()
}

// WithScope pushes a fresh frame, runs fn, and pops it on every exit path.
func (s *Stack) WithScope(fn func()) {
	s.Push()
	defer s.Pop()
	fn()
}
