// Package types implements the canonical type registry (spec.md §4.1):
// primitives, pointers, references, function types, aliases, defined
// (class/struct) types, interface types, and enum types, plus mangling,
// structural equality, and the sizedness/reference-taking operations the
// transformer builds on.
package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Type is any value in the closed sum described in spec.md §3.
type Type interface {
	// Pretty returns the human-readable form used in diagnostics.
	Pretty() string
	isType()
}

// Equals reports structural equality per spec.md §4.1: aliases collapse
// to their base before comparison, function types must match mutability
// and variadic flags, and defined types compare by their mangled form
// (module name, type name and generic arguments); UUIDs are not compared.
func Equals(a, b Type) bool {
	a = Unalias(a)
	b = Unalias(b)
	return Mangle(a) == Mangle(b)
}

// Unalias strips any number of Alias wrappers, returning the base type.
func Unalias(t Type) Type {
	for {
		a, ok := t.(*Alias)
		if !ok {
			return t
		}
		t = a.Base
	}
}

// ----------------------------------------------------------------------------
// Primitives
// ----------------------------------------------------------------------------

// PrimitiveKind enumerates the fixed primitive set (spec.md §3).
type PrimitiveKind uint8

const (
	Int8 PrimitiveKind = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Bool
	Char
	Void
)

// Primitive is a built-in scalar type.
type Primitive struct {
	Kind PrimitiveKind
}

var primitiveNames = map[PrimitiveKind]string{
	Int8: "i8", Int16: "i16", Int32: "i32", Int64: "i64",
	UInt8: "u8", UInt16: "u16", UInt32: "u32", UInt64: "u64",
	Float32: "f32", Float64: "f64", Bool: "bool", Char: "char", Void: "void",
}

var primitiveMangle = map[PrimitiveKind]string{
	Int8: "c", Int16: "s", Int32: "i", Int64: "l",
	UInt8: "Uc", UInt16: "Us", UInt32: "Ui", UInt64: "Ul",
	Float32: "f", Float64: "d", Bool: "b", Char: "Ch", Void: "v",
}

func (p *Primitive) Pretty() string { return primitiveNames[p.Kind] }
func (*Primitive) isType()          {}

// IsInteger reports whether p is one of the signed/unsigned integer widths.
func (p *Primitive) IsInteger() bool {
	return p.Kind >= Int8 && p.Kind <= UInt64
}

// IsSigned reports whether p is a signed integer primitive.
func (p *Primitive) IsSigned() bool { return p.Kind >= Int8 && p.Kind <= Int64 }

// Width returns the bit width of an integer primitive (0 for non-integers).
func (p *Primitive) Width() int {
	switch p.Kind {
	case Int8, UInt8:
		return 8
	case Int16, UInt16:
		return 16
	case Int32, UInt32:
		return 32
	case Int64, UInt64:
		return 64
	default:
		return 0
	}
}

var primitiveSingletons = func() map[PrimitiveKind]*Primitive {
	m := make(map[PrimitiveKind]*Primitive, len(primitiveNames))
	for k := range primitiveNames {
		m[k] = &Primitive{Kind: k}
	}
	return m
}()

// NewPrimitive returns the canonical singleton for a primitive kind.
func NewPrimitive(k PrimitiveKind) *Primitive { return primitiveSingletons[k] }

// PointerImplType and IntImplType name the compiler's own internal
// primitive representations of pointers/integers used by the runtime
// (SPEC_FULL.md §5, "Default assignment operator generation for
// non-primitive types only"): the default `=` operator synthesis in
// internal/transform skips these by name since they are not user-facing
// defined types and already have a trivial bitwise assignment.
const (
	PointerImplType = "$PtrImpl"
	IntImplType     = "$IntImpl"
)

// ----------------------------------------------------------------------------
// Pointer / Reference
// ----------------------------------------------------------------------------

// Pointer is `*T` / `*mut T`.
type Pointer struct {
	Elem    Type
	Mutable bool
}

func (p *Pointer) Pretty() string {
	if p.Mutable {
		return "*mut " + p.Elem.Pretty()
	}
	return "*" + p.Elem.Pretty()
}
func (*Pointer) isType() {}

// Reference is `&T` / `&mut T`. Never wraps another Reference (spec.md §3
// invariant "a reference is never a reference to a reference").
type Reference struct {
	Elem    Type
	Mutable bool
}

func (r *Reference) Pretty() string {
	if r.Mutable {
		return "&mut " + r.Elem.Pretty()
	}
	return "&" + r.Elem.Pretty()
}
func (*Reference) isType() {}

// ReferenceTo wraps t in a Reference with the given mutability. If t is
// already a Reference, its existing reference is returned unchanged
// (collapsing rather than nesting), matching §3's invariant.
func ReferenceTo(t Type, mutable bool) *Reference {
	if r, ok := t.(*Reference); ok {
		return r
	}
	return &Reference{Elem: t, Mutable: mutable}
}

// PointerTo wraps t in a Pointer with the given mutability.
func PointerTo(t Type, mutable bool) *Pointer {
	return &Pointer{Elem: t, Mutable: mutable}
}

// Dereference returns the pointee/referent of a Pointer or Reference.
// For any other type it returns the type unchanged (spec.md §8 round-trip
// property: `pretty(dereference(reference_to(t))) == pretty(t)`).
func Dereference(t Type) Type {
	switch v := t.(type) {
	case *Pointer:
		return v.Elem
	case *Reference:
		return v.Elem
	default:
		return t
	}
}

// ----------------------------------------------------------------------------
// Function type
// ----------------------------------------------------------------------------

// Function is a function signature (distinct from internal/ir's Function,
// which is the IR definition carrying a body).
type Function struct {
	Args     []Type
	Return   Type
	Variadic bool
	Mutable  bool // true if this is a method taking &mut self
}

func (f *Function) Pretty() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Pretty()
	}
	variadic := ""
	if f.Variadic {
		variadic = ", ..."
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.Pretty()
	}
	return fmt.Sprintf("func(%s%s) %s", strings.Join(parts, ", "), variadic, ret)
}
func (*Function) isType() {}

// ----------------------------------------------------------------------------
// Alias
// ----------------------------------------------------------------------------

// Alias is `type Name = Base;`: transparent in comparisons (spec.md §3).
type Alias struct {
	Name string
	Base Type
}

func (a *Alias) Pretty() string { return a.Name }
func (*Alias) isType()          {}

// ----------------------------------------------------------------------------
// Defined type (class / struct)
// ----------------------------------------------------------------------------

// Field is one ordered field of a Defined type.
type Field struct {
	Name       string
	Type       Type
	Privacy    int // ast.Privacy, duplicated here to avoid an import cycle
	DefaultAST any // *ast.Expr-typed default, opaque to this package
	Mutable    bool
}

// Defined is a class or struct type (spec.md §3 "Defined type").
type Defined struct {
	UUID           uuid.UUID
	ModuleName     string
	Name           string
	Fields         []Field
	Parent         *Defined
	Generics       []Type
	Interfaces     []*Interface
	IsStruct       bool
	HasConstructor bool
	HasVtable      bool
	// InstantiationCount is the running per-base-name instantiation
	// counter; UUID.String() + ":" + strconv.Itoa(InstantiationCount) is
	// the identity key for generic instantiations (spec.md §4.5.4 step 1).
	InstantiationCount int
}

func (d *Defined) Pretty() string {
	if len(d.Generics) == 0 {
		return d.Name
	}
	parts := make([]string, len(d.Generics))
	for i, g := range d.Generics {
		parts[i] = g.Pretty()
	}
	return fmt.Sprintf("%s<%s>", d.Name, strings.Join(parts, ", "))
}
func (*Defined) isType() {}

// InstanceKey returns the identity string for this instantiation: the
// base UUID, suffixed with ":<count>" for any generic instantiation
// beyond the zeroth (spec.md §4.5.4 step 1; SPEC_FULL.md §4 domain-stack
// "Defined-type identity").
func (d *Defined) InstanceKey() string {
	if d.InstantiationCount == 0 {
		return d.UUID.String()
	}
	return d.UUID.String() + ":" + strconv.Itoa(d.InstantiationCount)
}

// AllFields returns the defined type's fields with parent fields first,
// matching the merge order specified in spec.md §4.5.4 step 5.
func (d *Defined) AllFields() []Field {
	if d.Parent == nil {
		return d.Fields
	}
	parent := d.Parent.AllFields()
	out := make([]Field, 0, len(parent)+len(d.Fields))
	out = append(out, parent...)
	out = append(out, d.Fields...)
	return out
}

// FieldSlot returns the structural slot index for field k, shifted by one
// if the type carries a vtable (spec.md §3 invariant, §8 property 6).
func (d *Defined) FieldSlot(k int) int {
	if d.HasVtable {
		return k + 1
	}
	return k
}

// IsPointerOrIntImpl reports whether this defined type is one of the
// compiler's own internal primitive implementations (see PointerImplType
// / IntImplType above).
func (d *Defined) IsPointerOrIntImpl() bool {
	return d.Name == PointerImplType || d.Name == IntImplType
}

// ----------------------------------------------------------------------------
// Interface type
// ----------------------------------------------------------------------------

// InterfaceMemberKind is FIELD or METHOD (GLOSSARY "Interface member kind").
type InterfaceMemberKind uint8

const (
	MemberField InterfaceMemberKind = iota
	MemberMethod
)

// InterfaceMember is one member of an Interface's contract.
type InterfaceMember struct {
	Name string
	Type Type
	Kind InterfaceMemberKind
}

// Interface is an interface type (spec.md §3).
type Interface struct {
	UUID         uuid.UUID
	ModuleName   string
	Name         string
	Members      []InterfaceMember
	Implementors []*Defined
}

func (i *Interface) Pretty() string { return i.Name }
func (*Interface) isType()          {}

// ----------------------------------------------------------------------------
// Enum type
// ----------------------------------------------------------------------------

// EnumVariant is one ordered variant of an Enum, with optional payload
// types (spec.md §3).
type EnumVariant struct {
	Name    string
	Payload []Type
}

// Enum is an enum type (spec.md §3).
type Enum struct {
	UUID       uuid.UUID
	ModuleName string
	Name       string
	Variants   []EnumVariant
}

func (e *Enum) Pretty() string { return e.Name }
func (*Enum) isType()          {}

// VariantIndex returns the ordinal of the named variant, or -1.
func (e *Enum) VariantIndex(name string) int {
	for i, v := range e.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// ----------------------------------------------------------------------------
// is_sized
// ----------------------------------------------------------------------------

// IsSized reports whether a type has a known, non-zero storage size.
// void and bare interface types are unsized; everything else is sized
// (spec.md §4.1 "is_sized"). This is kept as a direct predicate rather
// than reintroducing a general marker-interface mechanism — see
// DESIGN.md Open Question OQ-2, grounded on the original implementation's
// builtin `Sized` interface marker (SPEC_FULL.md §5).
func IsSized(t Type) bool {
	t = Unalias(t)
	switch v := t.(type) {
	case *Primitive:
		return v.Kind != Void
	case *Interface:
		return false
	default:
		return true
	}
}

// ----------------------------------------------------------------------------
// Mangling
// ----------------------------------------------------------------------------

// Mangle produces a deterministic mangled string for t (spec.md §4.1).
// Function types use `_FntY.<ret>fAr<arg0><arg1>...[Va][Mt]Gv fAe`; defined
// types concatenate a module prefix, name-length+name, and generics;
// references, pointers, and primitives carry fixed tags.
func Mangle(t Type) string {
	switch v := t.(type) {
	case *Primitive:
		return primitiveMangle[v.Kind]
	case *Pointer:
		tag := "P"
		if v.Mutable {
			tag = "PM"
		}
		return tag + Mangle(v.Elem)
	case *Reference:
		tag := "R"
		if v.Mutable {
			tag = "RM"
		}
		return tag + Mangle(v.Elem)
	case *Alias:
		return Mangle(v.Base)
	case *Function:
		var sb strings.Builder
		sb.WriteString("_FntY.")
		sb.WriteString(Mangle(v.Return))
		sb.WriteString("fAr")
		for _, a := range v.Args {
			sb.WriteString(Mangle(a))
		}
		if v.Variadic {
			sb.WriteString("Va")
		}
		if v.Mutable {
			sb.WriteString("Mt")
		}
		sb.WriteString("Gv")
		sb.WriteString("fAe")
		return sb.String()
	case *Defined:
		var sb strings.Builder
		fmt.Fprintf(&sb, "N%d%s%d%s", len(v.ModuleName), v.ModuleName, len(v.Name), v.Name)
		if len(v.Generics) > 0 {
			sb.WriteString("I")
			for _, g := range v.Generics {
				sb.WriteString(Mangle(g))
			}
			sb.WriteString("E")
		}
		return sb.String()
	case *Interface:
		return fmt.Sprintf("N%d%s%d%s", len(v.ModuleName), v.ModuleName, len(v.Name), v.Name)
	case *Enum:
		return fmt.Sprintf("Enum%d%s%d%s", len(v.ModuleName), v.ModuleName, len(v.Name), v.Name)
	default:
		return "?"
	}
}
