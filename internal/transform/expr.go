package transform

import (
	"strings"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/scope"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/types"
)

// lowerExpr lowers one ast.Expr to an ir.Value (spec.md §4.5.1).
func (t *Transformer) lowerExpr(e ast.Expr) ir.Value {
	switch n := e.(type) {
	case *ast.ConstantValue:
		return t.lowerConstant(n)
	case *ast.Identifier:
		return t.lowerIdentifier(n)
	case *ast.PseudoVar:
		return t.lowerPseudoVar(n)
	case *ast.BinaryOp:
		return t.lowerBinaryOp(n)
	case *ast.Index:
		return t.getFromIndex(n)
	case *ast.Call:
		return t.lowerCall(n)
	case *ast.NewInstance:
		return t.lowerNewInstance(n)
	case *ast.Lambda:
		return t.lowerLambda(n)
	case *ast.Cast:
		return t.lowerCast(n)
	default:
		diagnostic.Unreachable("transform: unhandled expr node")
		return nil
	}
}

func (t *Transformer) lowerConstant(n *ast.ConstantValue) ir.Value {
	switch n.Kind {
	case ast.ConstInt:
		return t.Builder.ConstantInt(n.Span(), types.NewPrimitive(types.Int32), n.Int)
	case ast.ConstFloat:
		return t.Builder.ConstantFloat(n.Span(), types.NewPrimitive(types.Float64), n.Float)
	case ast.ConstBool:
		return t.Builder.ConstantBool(n.Span(), n.Bool)
	case ast.ConstChar:
		return t.Builder.ConstantChar(n.Span(), rune(n.Int))
	case ast.ConstByteString:
		strType := types.PointerTo(types.NewPrimitive(types.Char), false)
		return t.Builder.ConstantString(n.Span(), strType, n.Text)
	case ast.ConstString:
		return t.lowerStringLiteral(n)
	default:
		diagnostic.Unreachable("transform: unhandled constant kind")
		return nil
	}
}

// stringFromMangle is the external symbol a bare string literal's implicit
// constructor call resolves to (spec.md §4.5.1: "default to a call to
// std::String::from(bytes, len) unless the b prefix is given"). Mangled
// directly rather than resolved through a real std module import, since
// the standard library's module graph is an external collaborator (spec.md
// §1) this core does not itself compile.
const stringFromMangle = "_ZN$SNstd&6String&4from" + "Cv0Sa" + "A0_PtcA1_Pr4u32FnE"

// lowerStringLiteral lowers an unprefixed string literal to a call to
// std::String::from(bytes, len) (spec.md §4.5.1, SPEC_FULL.md §7/S3): the
// raw bytes and their length are passed as a pointer constant and an
// integer constant, and the call's result carries the std::String type.
func (t *Transformer) lowerStringLiteral(n *ast.ConstantValue) ir.Value {
	ptrType := types.PointerTo(types.NewPrimitive(types.Char), false)
	bytes := t.Builder.ConstantString(n.Span(), ptrType, n.Text)
	length := t.Builder.ConstantInt(n.Span(), types.NewPrimitive(types.UInt32), int64(len(n.Text)))
	callee := t.Builder.VarRef(n.Span(), types.NewPrimitive(types.Void), stringFromMangle)
	return t.Builder.Call(n.Span(), t.pipeline.stdStringType(), callee, []ir.Value{bytes, length})
}

// lowerIdentifier resolves a bare/path identifier through the scope
// chain (spec.md §4.4 "lookup order"), returning a value reference for
// locals/args, or a call of the zero-argument overload when the name is a
// function.
func (t *Transformer) lowerIdentifier(n *ast.Identifier) ir.Value {
	name := n.Path[len(n.Path)-1]
	if len(n.Path) == 1 {
		if item, ok := t.Scope.Lookup(name); ok {
			switch item.Kind {
			case scope.ItemValue:
				return item.Value
			case scope.ItemFunctionSet:
				// A bare function-set reference used as a value (e.g.
				// passed as a callback) resolves its zero-arg overload.
				fn := t.resolveCallTarget(item.UUID, nil, nil, n.Span())
				if fn == nil {
					return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
				}
				return t.Builder.VarRef(n.Span(), types.NewPrimitive(types.Void), fn.Mangle)
			}
		}
		t.Diags.Errorf(diagnostic.Variable, n.Span(), "undefined name %q", name)
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
	}
	return t.lowerQualifiedIdentifier(n)
}

func (t *Transformer) lowerQualifiedIdentifier(n *ast.Identifier) ir.Value {
	modName := n.Path[0]
	last := n.Path[len(n.Path)-1]
	item, ok := t.Scope.Lookup(modName)
	if !ok || item.Kind != scope.ItemModule {
		t.Diags.Errorf(diagnostic.Variable, n.Span(), "undefined module %q", modName)
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
	}
	mod, ok := t.pipeline.Registry.Get(item.UUID)
	if !ok {
		t.Diags.Errorf(diagnostic.Import, n.Span(), "module %q is not loaded", modName)
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
	}
	if sym, ok := mod.Exports[last]; ok && sym.Function != nil {
		return t.Builder.VarRef(n.Span(), sym.Function.Return, sym.Function.Mangle)
	}
	t.Diags.Errorf(diagnostic.Variable, n.Span(), "%s::%s is not exported", modName, last)
	return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
}

// lowerPseudoVar handles `#self` and the `unary_<op>` markers the parser
// emits for prefix operators (SPEC_FULL.md §5, grounded on the teacher's
// pseudo-variable-as-callee pattern for builtin shader variables).
func (t *Transformer) lowerPseudoVar(n *ast.PseudoVar) ir.Value {
	if n.Name == "self" {
		if item, ok := t.Scope.Lookup("self"); ok {
			return item.Value
		}
		t.Diags.Errorf(diagnostic.Variable, n.Span(), "#self used outside a method")
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
	}
	// Unary-operator pseudo-vars are only ever used as a Call's Callee;
	// lowerCall recognizes them directly, so reaching here as a bare
	// value means the AST is malformed.
	t.Diags.Errorf(diagnostic.CompilerBug, n.Span(), "unexpected pseudo-variable %q", n.Name)
	return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
}

// lowerBinaryOp rewrites every non-assignment binary operator into a
// call to its operator method, and keeps assignment forms (`=`, `+=`,
// ...) as ir.BinaryOp (spec.md §4.5.1 "Binary operator").
func (t *Transformer) lowerBinaryOp(n *ast.BinaryOp) ir.Value {
	if isAssignOp(n.Op) {
		left := t.lowerExpr(n.Left)
		right := t.lowerExpr(n.Right)
		if n.Op != "=" {
			plainOp := strings.TrimSuffix(n.Op, "=")
			right = t.callOperatorMethod(plainOp, left, right, n.Span())
		}
		return t.Builder.BinaryOp(n.Span(), left.Type(), "=", left, right)
	}
	left := t.lowerExpr(n.Left)
	right := t.lowerExpr(n.Right)
	return t.callOperatorMethod(n.Op, left, right, n.Span())
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	default:
		return false
	}
}

func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=":
		return true
	default:
		return false
	}
}

// callOperatorMethod resolves `left op right` as a call to left's type's
// operator method (spec.md §4.5.1: "binary operators lower to a call to
// the left operand's operator-method overload set").
func (t *Transformer) callOperatorMethod(op string, left, right ir.Value, span source.Span) ir.Value {
	canonical, ok := operatorMangle(op)
	if !ok {
		t.Diags.Errorf(diagnostic.Type, span, "unknown operator %q", op)
		return right
	}
	owner, ok := types.Unalias(left.Type()).(*types.Defined)
	if !ok {
		// Primitive arithmetic/comparison: represented directly, no method
		// dispatch. Comparison operators always yield bool (spec.md §4.5.6
		// "condition must lower to bool"); every other primitive operator
		// keeps the left operand's type.
		resultType := left.Type()
		if isComparisonOp(op) {
			resultType = types.NewPrimitive(types.Bool)
		}
		return t.Builder.Call(span, resultType, t.Builder.VarRef(span, types.NewPrimitive(types.Void), canonical), []ir.Value{left, right})
	}
	methods := t.methodsOf(owner)
	var target *ir.Function
	for _, m := range methods {
		if m.Name == canonical {
			target = m
			break
		}
	}
	if target == nil {
		t.Diags.Errorf(diagnostic.Type, span, "%s has no operator %q", owner.Pretty(), op)
		return left
	}
	callee := t.Builder.VarRef(span, types.NewPrimitive(types.Void), target.Mangle)
	return t.Builder.Call(span, target.Return, callee, []ir.Value{left, right})
}

// getFromIndex implements spec.md §4.5.2: dot access resolves a field
// (with a privacy check against the current class-or-descendant), and
// bracket access lowers to the `[]` operator method. Static (`::`) access
// on an expression is reported as unsupported; `Name::member` paths are
// lowered by lowerQualifiedIdentifier instead, which resolves exported
// functions of imported modules only (not static members or nested types
// of a type).
func (t *Transformer) getFromIndex(n *ast.Index) ir.Value {
	base := t.lowerExpr(n.Base)

	switch n.Kind {
	case ast.IndexDot:
		owner, ok := types.Unalias(types.Dereference(base.Type())).(*types.Defined)
		if !ok {
			t.Diags.Errorf(diagnostic.Type, n.Span(), "%s has no field %q", base.Type().Pretty(), n.Name)
			return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
		}
		fields := owner.AllFields()
		for i, f := range fields {
			if f.Name != n.Name {
				continue
			}
			if f.Privacy == int(ast.Private) && !t.sameOrDescendantClass(owner) {
				t.Diags.Errorf(diagnostic.Type, n.Span(), "field %q of %s is private", n.Name, owner.Pretty())
			}
			return t.Builder.IndexExtract(n.Span(), f.Type, base, owner.FieldSlot(i), n.Name)
		}
		// Not a field: maybe a zero-arg method access used as a value.
		for _, m := range t.methodsOf(owner) {
			if m.Name == n.Name {
				callee := t.Builder.VarRef(n.Span(), types.NewPrimitive(types.Void), m.Mangle)
				return t.Builder.Call(n.Span(), m.Return, callee, []ir.Value{base})
			}
		}
		t.Diags.Errorf(diagnostic.Type, n.Span(), "%s has no member %q", owner.Pretty(), n.Name)
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))

	case ast.IndexStatic:
		// Static index on a module/type namespace value is not lowered.
		t.Diags.Errorf(diagnostic.Type, n.Span(), "static member access on %s is not supported here", base.Type().Pretty())
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))

	case ast.IndexBracket:
		arg := t.lowerExpr(n.Arg)
		return t.callOperatorMethod("[", base, arg, n.Span())

	default:
		diagnostic.Unreachable("transform: unhandled index kind")
		return nil
	}
}

func (t *Transformer) sameOrDescendantClass(owner *types.Defined) bool {
	cur := t.Scope.CurrentDefinedType
	for cur != nil {
		if cur.UUID == owner.UUID {
			return true
		}
		cur = cur.Parent
	}
	return false
}

// lowerCall lowers a function call, handling the unary-operator
// pseudo-var callee form the parser produces for prefix operators.
func (t *Transformer) lowerCall(n *ast.Call) ir.Value {
	if pv, ok := n.Callee.(*ast.PseudoVar); ok && strings.HasPrefix(pv.Name, "unary_") {
		operand := t.lowerExpr(n.Args[0])
		return t.callUnaryOperator(strings.TrimPrefix(pv.Name, "unary_"), operand, n.Span())
	}

	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = t.lowerExpr(a)
	}

	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		if len(callee.Path) == 1 {
			if item, ok := t.Scope.Lookup(callee.Path[0]); ok && item.Kind == scope.ItemFunctionSet {
				generics := t.resolveGenericRefs(callee.Generics)
				argTypes := valueTypes(args)
				fn := t.resolveCallTarget(item.UUID, argTypes, generics, n.Span())
				if fn == nil {
					return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
				}
				return t.Builder.Call(n.Span(), fn.Return, t.Builder.VarRef(n.Span(), types.NewPrimitive(types.Void), fn.Mangle), args)
			}
		}
	case *ast.Index:
		if callee.Kind == ast.IndexDot {
			base := t.lowerExpr(callee.Base)
			owner, ok := types.Unalias(types.Dereference(base.Type())).(*types.Defined)
			if ok {
				m := t.resolveMethodCall(owner, callee.Name, valueTypes(args), n.Span())
				if m == nil {
					return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
				}
				allArgs := append([]ir.Value{base}, args...)
				return t.Builder.Call(n.Span(), m.Return, t.Builder.VarRef(n.Span(), types.NewPrimitive(types.Void), m.Mangle), allArgs)
			}
		}
	}

	fnVal := t.lowerExpr(n.Callee)
	return t.Builder.Call(n.Span(), fnVal.Type(), fnVal, args)
}

func (t *Transformer) callUnaryOperator(op string, operand ir.Value, span source.Span) ir.Value {
	canonical, ok := operatorMangle("unary_" + op)
	if !ok {
		t.Diags.Errorf(diagnostic.Type, span, "unknown unary operator %q", op)
		return operand
	}
	owner, ok := types.Unalias(operand.Type()).(*types.Defined)
	if !ok {
		return t.Builder.Call(span, operand.Type(), t.Builder.VarRef(span, types.NewPrimitive(types.Void), canonical), []ir.Value{operand})
	}
	for _, m := range t.methodsOf(owner) {
		if m.Name == canonical {
			return t.Builder.Call(span, m.Return, t.Builder.VarRef(span, types.NewPrimitive(types.Void), m.Mangle), []ir.Value{operand})
		}
	}
	t.Diags.Errorf(diagnostic.Type, span, "%s has no unary operator %q", owner.Pretty(), op)
	return operand
}

func (t *Transformer) resolveGenericRefs(refs []*ast.TypeRef) []types.Type {
	out := make([]types.Type, len(refs))
	for i, r := range refs {
		out[i] = t.resolveTypeRef(r)
	}
	return out
}

func valueTypes(vs []ir.Value) []types.Type {
	out := make([]types.Type, len(vs))
	for i, v := range vs {
		out[i] = v.Type()
	}
	return out
}

// lowerNewInstance lowers `new T(args)` (spec.md §4.5.1 "New-instance"):
// resolve T (instantiating generics as needed), resolve its constructor
// overload, and wrap the constructor call in an ObjectInit.
func (t *Transformer) lowerNewInstance(n *ast.NewInstance) ir.Value {
	ty := types.Unalias(t.resolveTypeRef(n.Type))
	def, ok := ty.(*types.Defined)
	if !ok {
		t.Diags.Errorf(diagnostic.Type, n.Span(), "%s is not constructible", ty.Pretty())
		return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
	}
	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = t.lowerExpr(a)
	}
	for _, m := range t.methodsOf(def) {
		if m.Name == "constructor" && len(m.Args) == len(args) {
			call := t.Builder.Call(n.Span(), def, t.Builder.VarRef(n.Span(), types.NewPrimitive(types.Void), m.Mangle), args)
			return t.Builder.ObjectInit(n.Span(), def, call)
		}
	}
	t.Diags.Errorf(diagnostic.Type, n.Span(), "%s has no constructor matching %d argument(s)", def.Pretty(), len(args))
	return t.Builder.ZeroInit(n.Span(), types.NewPrimitive(types.Void))
}

// lowerLambda lowers an anonymous function literal into a standalone
// ir.Function mangled with the `.$LmbdF` suffix (spec.md §4.5.5), added
// to the enclosing module and referenced here by a VarRef to its mangled
// name.
func (t *Transformer) lowerLambda(n *ast.Lambda) ir.Value {
	fn := &ir.Function{Anonymous: true, VTableIndex: -1}
	parent := t.Scope.CurrentFunction
	fn.ParentScope = parent

	t.Scope.WithScope(func() {
		for i, p := range n.Parameters {
			var pt types.Type = types.NewPrimitive(types.Void)
			if p.Type != nil {
				pt = t.resolveTypeRef(p.Type)
			}
			fn.Args = append(fn.Args, ir.Param{Name: p.Name, Type: pt})
			t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: p.Name, Value: t.Builder.Argument(p.Loc, pt, p.Name, i)})
		}
		if n.ReturnType != nil {
			fn.Return = t.resolveTypeRef(n.ReturnType)
		} else {
			fn.Return = types.NewPrimitive(types.Void)
		}
		t.Scope.WithFunction(fn, func() {
			fn.Body = t.lowerFunctionBody(n.Body, fn.Return)
		})
	})

	base := "lambda"
	fn.Name = lambdaMangle(base)
	fn.Mangle = mangleIRFunction(fn, nil, t.Module.UniqueName)
	t.Module.Functions = append(t.Module.Functions, fn)
	return t.Builder.VarRef(n.Span(), fn.Return, fn.Mangle)
}

func (t *Transformer) lowerCast(n *ast.Cast) ir.Value {
	v := t.lowerExpr(n.Value)
	target := t.resolveTypeRef(n.Type)
	return t.Builder.Cast(n.Span(), target, v)
}
