// Package ast defines the Abstract Syntax Tree node set the Nova parser
// (internal/parser) produces and the transformer (internal/transform)
// consumes. The node set matches spec.md §6 exactly: block,
// constant-value, cast, function-call, new-instance, identifier (with
// optional generic arguments), pseudo-variable, index, binary-op, lambda,
// function-def (bodied/extern/inline-IR), variable-decl, class-def,
// conditional, import, return, namespace, while-loop, switch, try/catch,
// type-ref, macro-def.
//
// The AST is immutable input to the transformer: IR is a fresh structure
// built alongside it, and nothing in internal/ir points back into this
// package except an optional source.Span for debug info.
package ast

import "github.com/novalang/novac/internal/source"

// ----------------------------------------------------------------------------
// Symbols
// ----------------------------------------------------------------------------

// Ref is a reference to a symbol in a Module's symbol table, kept as two
// indices (rather than a pointer) so the table can be reallocated safely
// and so a Ref is cheap to copy through the AST.
type Ref struct {
	ModuleIndex uint32
	SymbolIndex uint32
}

// InvalidRef is the zero-value sentinel for "no symbol bound yet".
var InvalidRef = Ref{ModuleIndex: ^uint32(0), SymbolIndex: ^uint32(0)}

func (r Ref) IsValid() bool { return r.ModuleIndex != ^uint32(0) }

// SymbolKind classifies a declared name.
type SymbolKind uint8

const (
	SymbolUnbound SymbolKind = iota
	SymbolValue              // let/var/const/param
	SymbolFunction
	SymbolClass
	SymbolInterface
	SymbolEnum
	SymbolAlias
	SymbolNamespace
	SymbolMacro
	SymbolGeneric
)

// Symbol is a declared name as written in source, before resolution.
type Symbol struct {
	OriginalName string
	Loc          source.Span
	Kind         SymbolKind
}

// ----------------------------------------------------------------------------
// Attributes (spec.md §6 "Attributes recognized by the core")
// ----------------------------------------------------------------------------

// AttributeName enumerates the attributes the core itself interprets.
type AttributeName string

const (
	AttrBuiltin         AttributeName = "builtin"
	AttrNoMangle        AttributeName = "no_mangle"
	AttrExport          AttributeName = "export"
	AttrMacros          AttributeName = "macros"
	AttrInternalLinkage AttributeName = "internal_linkage"
	AttrLLVMFunc        AttributeName = "llvm_func"
	AttrAllowForTest    AttributeName = "allow_for_test"
	AttrAllowForBench   AttributeName = "allow_for_bench"
	AttrUnsafe          AttributeName = "unsafe"
)

// Attribute is a single `@name(args...)` annotation.
type Attribute struct {
	Loc  source.Span
	Name AttributeName
	Args []AttributeArg
}

// AttributeArg is one `key=value` or positional argument to an attribute.
type AttributeArg struct {
	Key   string // empty for positional args
	Value string
}

// Get returns the value bound to key, and whether it was present.
func (a Attribute) Get(key string) (string, bool) {
	for _, arg := range a.Args {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return "", false
}

// Has reports whether attrs contains one with the given name.
func Has(attrs []Attribute, name AttributeName) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Find returns the first attribute with the given name, if any.
func Find(attrs []Attribute, name AttributeName) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// ----------------------------------------------------------------------------
// Privacy
// ----------------------------------------------------------------------------

type Privacy uint8

const (
	Public Privacy = iota
	Private
	Protected
)

// ----------------------------------------------------------------------------
// Type references (unresolved, as written in source)
// ----------------------------------------------------------------------------

// TypeRef is a type as written in source: a name plus optional generic
// arguments, or one of the built-in shape markers (pointer/reference).
type TypeRef struct {
	Loc      source.Span
	Name     string // qualified with "::" already split by the parser into Path
	Path     []string
	Generics []*TypeRef

	Pointer   *TypeRef // non-nil if this is `*T` / `*mut T`
	Reference *TypeRef // non-nil if this is `&T` / `&mut T`
	Mutable   bool
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr is any expression node.
type Expr interface {
	Span() source.Span
	isExpr()
}

// BaseExpr factors the common span field; embedded by every Expr.
type BaseExpr struct {
	Loc source.Span
}

func (b BaseExpr) Span() source.Span { return b.Loc }
func (BaseExpr) isExpr()             {}

// ConstKind distinguishes constant-value literal forms.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstChar
	ConstString
	ConstByteString
)

// ConstantValue is a literal (spec.md §6 "constant-value").
type ConstantValue struct {
	BaseExpr
	Kind  ConstKind
	Text  string // original literal text, prefixes/suffixes included
	Int   int64
	Float float64
	Bool  bool
}

// Identifier is a name reference, optionally qualified (A::B::c) and
// optionally carrying explicit generic arguments (spec.md §4.5.1
// "Generic identifier").
type Identifier struct {
	BaseExpr
	Path     []string
	Generics []*TypeRef
	Ref      Ref // filled in during the visit/bind pass
}

// PseudoVar is a `#name` pseudo-variable: `#self`, or an operator token
// identifier like `#+` used in operator-overload declarations.
type PseudoVar struct {
	BaseExpr
	Name string
}

// BinaryOp is `left op right`, including assignment forms.
type BinaryOp struct {
	BaseExpr
	Op    string
	Left  Expr
	Right Expr
}

// IndexKind distinguishes `.` (value/dot) indexing from `::` (static)
// indexing (spec.md §4.5.2).
type IndexKind uint8

const (
	IndexDot IndexKind = iota
	IndexStatic
	IndexBracket // a[i]
)

// Index is a member/element access.
type Index struct {
	BaseExpr
	Kind  IndexKind
	Base  Expr
	Name  string // for Dot/Static
	Arg   Expr   // for Bracket
}

// Call is a function call expression.
type Call struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

// NewInstance is `new T(args)` (spec.md §4.5.1 "New-instance").
type NewInstance struct {
	BaseExpr
	Type *TypeRef
	Args []Expr
}

// Lambda is an anonymous function literal.
type Lambda struct {
	BaseExpr
	Parameters []Parameter
	ReturnType *TypeRef // nil if inferred
	Body       *Block
}

// Cast is `expr as T` / `expr: T`.
type Cast struct {
	BaseExpr
	Value Expr
	Type  *TypeRef
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt is any statement node.
type Stmt interface {
	Span() source.Span
	isStmt()
}

type BaseStmt struct {
	Loc source.Span
}

func (b BaseStmt) Span() source.Span { return b.Loc }
func (BaseStmt) isStmt()             {}

// ExprStmt wraps an expression evaluated for effect.
type ExprStmt struct {
	BaseStmt
	Value Expr
}

// Block is an ordered list of statements forming a lexical block
// (spec.md §3 "block (ordered list of values)").
type Block struct {
	BaseStmt
	Stmts []Stmt
}

// VariableDecl is `let`/`var` with optional type and optional initializer
// (spec.md §4.5.6).
type VariableDecl struct {
	BaseStmt
	Name        string
	Type        *TypeRef // nil if to be inferred from Init
	Init        Expr     // nil if defaulted to zero-initialized
	Mutable     bool
	SelfRef     Ref
}

// Conditional is `if cond { ... } else { ... }`.
type Conditional struct {
	BaseStmt
	Cond Expr
	Then *Block
	Else Stmt // *Block or *Conditional (else-if chain), nil if absent
}

// WhileLoop covers while/do-while/for, lowered per spec.md §4.5.6: a
// for-loop becomes a While with Step set to the loop's trailing
// expression, and DoWhile marks the post-condition form.
type WhileLoop struct {
	BaseStmt
	Cond    Expr
	Body    *Block
	Step    Expr // non-nil only for lowered for-loops
	DoWhile bool
}

// Return is `return [expr];`.
type Return struct {
	BaseStmt
	Value Expr // nil for bare return
}

// Throw is `throw expr;`.
type Throw struct {
	BaseStmt
	Value Expr
}

// CatchClause is one `catch (name: T) { block }` arm of a Try.
type CatchClause struct {
	Loc  source.Span
	Name string
	Type *TypeRef
	Body *Block
}

// Try is `try { block } catch (...) {...}...` (spec.md §4.5.6).
type Try struct {
	BaseStmt
	Body    *Block
	Catches []CatchClause
}

// SwitchKind distinguishes pattern-matching enum switches from C-style
// integral switches (spec.md §4.5.6).
type SwitchKind uint8

const (
	SwitchPattern SwitchKind = iota
	SwitchCStyle
)

// SwitchCase is one `case pattern: { block }` arm.
type SwitchCase struct {
	Loc     source.Span
	Pattern Expr // variant-name-with-binding for pattern switches, constant expr for C-style
	Binding string
	Body    *Block
}

// Switch covers both switch forms (spec.md §4.5.6).
type Switch struct {
	BaseStmt
	Kind    SwitchKind
	Subject Expr
	Cases   []SwitchCase
	Default *Block // nil if absent (required to be present for pattern switches to be exhaustive, or synthesized)
}

// LoopFlowKind distinguishes break from continue.
type LoopFlowKind uint8

const (
	FlowBreak LoopFlowKind = iota
	FlowContinue
)

// LoopFlow is `break;` / `continue;`.
type LoopFlow struct {
	BaseStmt
	Kind LoopFlowKind
}

// Import is `import pkg::path::components [as name] [@macros(...)];`
// (spec.md §4.6).
type Import struct {
	BaseDecl
	Package    string // "std", "$", or external package name
	Components []string
	Alias      string // overrides the default export name (last component)
	Attributes []Attribute
}

// Namespace reopens or creates a nested module scope (spec.md §4.5.6).
type Namespace struct {
	BaseDecl
	Name string
	Body []Decl
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl is any top-level or member declaration.
type Decl interface {
	Span() source.Span
	isDecl()
}

type BaseDecl struct {
	Loc source.Span
}

func (b BaseDecl) Span() source.Span { return b.Loc }
func (BaseDecl) isDecl()             {}

// Parameter is a function/lambda parameter, possibly with a default.
type Parameter struct {
	Loc      source.Span
	Name     string
	Type     *TypeRef // nil if to be inferred (only legal for lambdas)
	Default  Expr     // non-nil if this parameter has a default value
	Variadic bool
}

// GenericParam is `<T: Bound1 + Bound2 = Default>` on a class or function.
type GenericParam struct {
	Loc         source.Span
	Name        string
	WhereClause []*TypeRef // constraint bounds
	Default     *TypeRef   // nil if required
}

// FunctionBodyKind distinguishes the three function body forms (spec.md
// §3 "Functions (IR)").
type FunctionBodyKind uint8

const (
	BodyBlock FunctionBodyKind = iota
	BodyExtern
	BodyInlineIR
)

// InlineIRChunk is one piece of an inline low-level IR body: either a
// literal text chunk or a type-access marker whose mangled type is
// spliced in at emission time (spec.md §4.5.8).
type InlineIRChunk struct {
	IsTypeAccess bool
	Literal      string
	TypeAccess   *TypeRef
}

// FunctionDecl is a function or method declaration.
type FunctionDecl struct {
	BaseDecl
	Attributes   []Attribute
	Name         string
	Generics     []GenericParam
	Parameters   []Parameter
	ReturnType   *TypeRef // nil for void
	Privacy      Privacy
	Static       bool
	Virtual      bool
	Override     bool
	BodyKind     FunctionBodyKind
	Body         *Block          // BodyBlock
	InlineIR     []InlineIRChunk // BodyInlineIR
	ExternalName string          // override from an attribute, or ""
	SelfRef      Ref
}

// FieldDecl is a class/struct/interface field.
type FieldDecl struct {
	Loc     source.Span
	Name    string
	Type    *TypeRef // nil requires inference to be rejected (spec.md §4.5.4 step 4)
	Default Expr
	Privacy Privacy
	Mutable bool
}

// ClassKind distinguishes class/struct/interface (spec.md §3 "Defined
// type" vs "Interface type").
type ClassKind uint8

const (
	KindClass ClassKind = iota
	KindStruct
	KindInterface
)

// ClassDecl is a class/struct/interface declaration (spec.md §4.5.4).
type ClassDecl struct {
	BaseDecl
	Attributes []Attribute
	Kind       ClassKind
	Name       string
	Generics   []GenericParam
	Parent     *TypeRef   // extends; nil if none
	Implements []*TypeRef // implemented interfaces, in declaration order
	Fields     []FieldDecl
	Methods    []*FunctionDecl
	Aliases    []*AliasDecl
	Privacy    Privacy
	SelfRef    Ref
}

// AliasDecl is `type Name = T;`.
type AliasDecl struct {
	BaseDecl
	Name string
	Type *TypeRef
}

// EnumVariant is one variant of an enum declaration.
type EnumVariant struct {
	Loc     source.Span
	Name    string
	Payload []*TypeRef // empty if the variant carries no payload
}

// EnumDecl is `enum Name { Variant(T)... }`.
type EnumDecl struct {
	BaseDecl
	Name     string
	Variants []EnumVariant
	SelfRef  Ref
}

// MacroDecl is a `macro name(...) { ... }` declaration.
type MacroDecl struct {
	BaseDecl
	Attributes []Attribute
	Name       string
	Params     []string
	Body       []Stmt
}

// ----------------------------------------------------------------------------
// Module (top level)
// ----------------------------------------------------------------------------

// File is the AST produced for one source file.
type File struct {
	Buf          *source.Buffer
	Declarations []Decl
	Symbols      []Symbol
	Scope        *Scope
}

// ----------------------------------------------------------------------------
// Scope (parser-time lexical scope, distinct from the transformer's
// runtime scope.Stack — this one only tracks declaration order and
// shadowing for the parser's own binding pass)
// ----------------------------------------------------------------------------

type ScopeMember struct {
	Ref Ref
	Loc int
}

type Scope struct {
	Parent   *Scope
	Children []*Scope
	Members  map[string]ScopeMember
}

func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, Members: make(map[string]ScopeMember)}
}
