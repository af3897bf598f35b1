// Package ir defines the intermediate representation the transformer
// produces (spec.md §3 "IR values", §4.2 "IR Value Builder") and the
// Function/Module containers that own it. IR is a fresh structure built
// alongside the AST: nothing here points back into internal/ast except an
// optional source.Span for debug info (spec.md "Design notes": "AST is
// immutable input to the transformer; IR is a fresh structure").
package ir

import (
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/types"
)

// Value is any IR value node.
type Value interface {
	Type() types.Type
	Span() source.Span
	isValue()
}

// base carries the fields every IR value has: its type and debug span
// (spec.md §4.2: "every constructor ... attaches it to the produced value,
// then sets the value's type").
type base struct {
	typ  types.Type
	span source.Span
}

func (b *base) Type() types.Type    { return b.typ }
func (b *base) Span() source.Span   { return b.span }
func (*base) isValue()              {}

// ----------------------------------------------------------------------------
// Constants
// ----------------------------------------------------------------------------

type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstChar
	ConstString
)

// Constant is a literal value of a primitive type.
type Constant struct {
	base
	Kind   ConstKind
	Int    int64
	Float  float64
	Bool   bool
	String string
}

// ----------------------------------------------------------------------------
// Variables
// ----------------------------------------------------------------------------

// VarRef is a reference to a previously declared local, argument, or field.
type VarRef struct {
	base
	Name string
}

// VarDecl introduces a new local. Its type is adopted from the
// initializer if present, otherwise from the declared type (spec.md
// §4.2: "variable-declaration adopts either the initializer's type or
// the declared variable's type, in that order").
type VarDecl struct {
	base
	Name    string
	Init    Value // nil if zero-initialized
	Mutable bool
}

// Argument is a function parameter reference inside a function body.
type Argument struct {
	base
	Name  string
	Index int
}

// ----------------------------------------------------------------------------
// Reference / pointer / cast
// ----------------------------------------------------------------------------

// ReferenceTo takes a reference to an lvalue. Its type is the referent's
// type wrapped in a Reference carrying the referent's mutability (spec.md
// §4.2).
type ReferenceTo struct {
	base
	Referent Value
}

// DereferenceTo loads through a pointer or reference.
type DereferenceTo struct {
	base
	Pointer Value
}

// Cast converts Value to a different type.
type Cast struct {
	base
	Value Value
}

// ----------------------------------------------------------------------------
// Field / index access
// ----------------------------------------------------------------------------

// IndexExtract computes a field's address (spec.md §4.2: "the result type
// is the field's declared type"). Slot is the structural slot, already
// shifted per types.Defined.FieldSlot when the owner has a vtable.
type IndexExtract struct {
	base
	Base Value
	Slot int
	Name string
}

// ValueExtract loads the value currently stored at an address (the
// complement to IndexExtract: spec.md §3 "value-extract (load)").
type ValueExtract struct {
	base
	Address Value
}

// ----------------------------------------------------------------------------
// Calls / construction
// ----------------------------------------------------------------------------

// Call invokes a resolved function (by mangled name, see internal/transform
// overload resolution) with a fixed argument list.
type Call struct {
	base
	Callee Value
	Args   []Value
}

// ObjectInit wraps a constructor Call, carrying the constructed type
// (spec.md §4.5.1 "New-instance": "wraps the result in an
// object-initialization value carrying T").
type ObjectInit struct {
	base
	Construct *Call
}

// EnumInit constructs an enum value of a given variant with payload
// values.
type EnumInit struct {
	base
	Variant string
	Payload []Value
}

// ZeroInit is the default value of a type with no explicit initializer.
type ZeroInit struct {
	base
}

// ----------------------------------------------------------------------------
// Operators / control flow
// ----------------------------------------------------------------------------

// BinaryOp is a lowered binary operation: by the time the transformer
// produces one, non-assignment operators have already been rewritten to
// a Call to the operator method (spec.md §4.5.1), so BinaryOp only
// represents assignment forms and the fully-resolved arithmetic/compare
// calls are plain Call values.
type BinaryOp struct {
	base
	Op    string
	Left  Value
	Right Value
}

// Block is an ordered sequence of values (spec.md §3 "block").
type Block struct {
	base
	Values []Value
}

// Conditional is `if`/`else`.
type Conditional struct {
	base
	Cond Value
	Then *Block
	Else Value // *Block, *Conditional, or nil
}

// WhileLoop covers while/do-while/lowered-for (spec.md §3).
type WhileLoop struct {
	base
	Cond    Value
	Body    *Block
	Step    Value // non-nil for lowered for-loops
	DoWhile bool
}

// SwitchKind distinguishes pattern-matching from C-style switches.
type SwitchKind uint8

const (
	SwitchPattern SwitchKind = iota
	SwitchCStyle
)

// SwitchCase is one arm of a Switch.
type SwitchCase struct {
	VariantOrConst string
	Binding        string
	Body           *Block
}

// Switch is a pattern or C-style switch (spec.md §3, §4.5.6).
type Switch struct {
	base
	Kind    SwitchKind
	Subject Value
	Cases   []SwitchCase
	Default *Block
}

// Return is a function return, with an optional value.
type Return struct {
	base
	Value Value // nil for void return
}

// Throw raises an exception value.
type Throw struct {
	base
	Value Value
}

// CatchArm is one `catch` clause of a Try.
type CatchArm struct {
	VarName string
	VarType types.Type
	Body    *Block
}

// Try is a try/catch construct.
type Try struct {
	base
	Body    *Block
	Catches []CatchArm
}

// LoopFlowKind is break or continue.
type LoopFlowKind uint8

const (
	FlowBreak LoopFlowKind = iota
	FlowContinue
)

// LoopFlow is a `break`/`continue` value.
type LoopFlow struct {
	base
	Kind LoopFlowKind
}

// ----------------------------------------------------------------------------
// Builder
// ----------------------------------------------------------------------------

// Builder is the pure IR value factory described in spec.md §4.2: every
// constructor attaches the given span and computes the value's type; the
// builder does not touch the scope stack or any other side table.
type Builder struct{}

// NewBuilder returns a stateless IR value builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) ConstantInt(span source.Span, t types.Type, v int64) *Constant {
	return &Constant{base: base{typ: t, span: span}, Kind: ConstInt, Int: v}
}

func (b *Builder) ConstantFloat(span source.Span, t types.Type, v float64) *Constant {
	return &Constant{base: base{typ: t, span: span}, Kind: ConstFloat, Float: v}
}

func (b *Builder) ConstantBool(span source.Span, v bool) *Constant {
	return &Constant{base: base{typ: types.NewPrimitive(types.Bool), span: span}, Kind: ConstBool, Bool: v}
}

func (b *Builder) ConstantChar(span source.Span, v rune) *Constant {
	return &Constant{base: base{typ: types.NewPrimitive(types.Char), span: span}, Kind: ConstChar, Int: int64(v)}
}

func (b *Builder) ConstantString(span source.Span, strType types.Type, v string) *Constant {
	return &Constant{base: base{typ: strType, span: span}, Kind: ConstString, String: v}
}

func (b *Builder) VarRef(span source.Span, t types.Type, name string) *VarRef {
	return &VarRef{base: base{typ: t, span: span}, Name: name}
}

func (b *Builder) VarDecl(span source.Span, declaredType types.Type, name string, init Value, mutable bool) *VarDecl {
	t := declaredType
	if init != nil {
		t = init.Type()
	}
	return &VarDecl{base: base{typ: t, span: span}, Name: name, Init: init, Mutable: mutable}
}

func (b *Builder) Argument(span source.Span, t types.Type, name string, index int) *Argument {
	return &Argument{base: base{typ: t, span: span}, Name: name, Index: index}
}

// ReferenceTo wraps referent in a reference carrying the referent's own
// mutability (spec.md §4.2).
func (b *Builder) ReferenceTo(span source.Span, referent Value, mutable bool) *ReferenceTo {
	refType := types.ReferenceTo(referent.Type(), mutable)
	return &ReferenceTo{base: base{typ: refType, span: span}, Referent: referent}
}

func (b *Builder) DereferenceTo(span source.Span, pointer Value) *DereferenceTo {
	return &DereferenceTo{base: base{typ: types.Dereference(pointer.Type()), span: span}, Pointer: pointer}
}

func (b *Builder) Cast(span source.Span, t types.Type, v Value) *Cast {
	return &Cast{base: base{typ: t, span: span}, Value: v}
}

// IndexExtract produces a field access whose type is the field's declared
// type (spec.md §4.2).
func (b *Builder) IndexExtract(span source.Span, fieldType types.Type, baseVal Value, slot int, name string) *IndexExtract {
	return &IndexExtract{base: base{typ: fieldType, span: span}, Base: baseVal, Slot: slot, Name: name}
}

func (b *Builder) ValueExtract(span source.Span, t types.Type, address Value) *ValueExtract {
	return &ValueExtract{base: base{typ: t, span: span}, Address: address}
}

func (b *Builder) Call(span source.Span, returnType types.Type, callee Value, args []Value) *Call {
	return &Call{base: base{typ: returnType, span: span}, Callee: callee, Args: args}
}

func (b *Builder) ObjectInit(span source.Span, constructedType types.Type, construct *Call) *ObjectInit {
	return &ObjectInit{base: base{typ: constructedType, span: span}, Construct: construct}
}

func (b *Builder) EnumInit(span source.Span, enumType types.Type, variant string, payload []Value) *EnumInit {
	return &EnumInit{base: base{typ: enumType, span: span}, Variant: variant, Payload: payload}
}

func (b *Builder) ZeroInit(span source.Span, t types.Type) *ZeroInit {
	return &ZeroInit{base: base{typ: t, span: span}}
}

func (b *Builder) BinaryOp(span source.Span, t types.Type, op string, left, right Value) *BinaryOp {
	return &BinaryOp{base: base{typ: t, span: span}, Op: op, Left: left, Right: right}
}

func (b *Builder) Block(span source.Span, values []Value) *Block {
	t := types.Type(types.NewPrimitive(types.Void))
	if len(values) > 0 {
		t = values[len(values)-1].Type()
	}
	return &Block{base: base{typ: t, span: span}, Values: values}
}

func (b *Builder) Conditional(span source.Span, cond Value, then *Block, els Value) *Conditional {
	return &Conditional{base: base{typ: types.NewPrimitive(types.Void), span: span}, Cond: cond, Then: then, Else: els}
}

func (b *Builder) WhileLoop(span source.Span, cond Value, body *Block, step Value, doWhile bool) *WhileLoop {
	return &WhileLoop{base: base{typ: types.NewPrimitive(types.Void), span: span}, Cond: cond, Body: body, Step: step, DoWhile: doWhile}
}

func (b *Builder) Switch(span source.Span, kind SwitchKind, subject Value, cases []SwitchCase, def *Block) *Switch {
	return &Switch{base: base{typ: types.NewPrimitive(types.Void), span: span}, Kind: kind, Subject: subject, Cases: cases, Default: def}
}

func (b *Builder) Return(span source.Span, v Value) *Return {
	t := types.Type(types.NewPrimitive(types.Void))
	if v != nil {
		t = v.Type()
	}
	return &Return{base: base{typ: t, span: span}, Value: v}
}

func (b *Builder) Throw(span source.Span, v Value) *Throw {
	return &Throw{base: base{typ: types.NewPrimitive(types.Void), span: span}, Value: v}
}

func (b *Builder) Try(span source.Span, body *Block, catches []CatchArm) *Try {
	return &Try{base: base{typ: types.NewPrimitive(types.Void), span: span}, Body: body, Catches: catches}
}

func (b *Builder) LoopFlow(span source.Span, kind LoopFlowKind) *LoopFlow {
	return &LoopFlow{base: base{typ: types.NewPrimitive(types.Void), span: span}, Kind: kind}
}

// ----------------------------------------------------------------------------
// Functions
// ----------------------------------------------------------------------------

// Param is one ordered, named argument of a Function.
type Param struct {
	Name string
	Type types.Type
}

// Function is the IR definition of a function or method (spec.md §3
// "Functions (IR)").
type Function struct {
	Name         string // identifier, pre-mangle
	Mangle       string
	Parent       *types.Defined // nullable
	Args         []Param
	Return       types.Type
	Body         *Block          // nil if extern or inline-IR
	InlineIR     []InlineIRChunk // nil unless an inline-IR body
	Locals       []Param         // declared locals, for alloca hoisting
	Generics     []types.Type
	VTableIndex  int // -1 if none
	Privacy      int // ast.Privacy
	Static       bool
	Extern       bool
	Anonymous    bool
	ParentScope  *Function // non-nil for lambdas capturing an enclosing function
	UsesParentScope bool
}

// InlineIRChunk is a literal text fragment or a type-access marker whose
// mangled type is spliced in at emission time (spec.md §4.5.8).
type InlineIRChunk struct {
	IsTypeAccess bool
	Literal      string
	TypeAccess   types.Type
}

// ----------------------------------------------------------------------------
// Modules
// ----------------------------------------------------------------------------

// ExportedSymbol is one name a Module makes visible to importers.
type ExportedSymbol struct {
	Name     string
	Function *Function
	Type     types.Type
	IsMacro  bool
}

// Module owns a compiled unit's exports, type table, and function list
// (spec.md §3 "Modules").
type Module struct {
	UniqueName     string // mangling prefix
	DisplayName    string
	SourcePath     string
	Exports        map[string]ExportedSymbol
	TypeInfo       map[string]types.Type // id -> defined type
	ExportedMacros []string
	Functions      []*Function
	GlobalCtor     *Function // nil if the module has no global initializer
}

// NewModule creates an empty module ready to receive declarations.
func NewModule(uniqueName, displayName, sourcePath string) *Module {
	return &Module{
		UniqueName:  uniqueName,
		DisplayName: displayName,
		SourcePath:  sourcePath,
		Exports:     make(map[string]ExportedSymbol),
		TypeInfo:    make(map[string]types.Type),
	}
}
