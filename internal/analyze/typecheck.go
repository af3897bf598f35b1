package analyze

import (
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/types"
)

// checkCallConsistency re-verifies every call's argument types against its
// resolved callee's signature, and every cast's destination type, across
// every function in the module (spec.md §4.7 "secondary type-check
// consistency"). This is deliberately cheap relative to
// internal/transform's overload resolution: the transformer has already
// picked the one callee a Call targets, so this pass only confirms the
// already-resolved IR agrees with itself, rather than re-running overload
// resolution.
func (a *Analyzer) checkCallConsistency(functions []*ir.Function) {
	byMangle := make(map[string]*ir.Function, len(functions))
	for _, fn := range functions {
		if fn.Mangle != "" {
			byMangle[fn.Mangle] = fn
		}
	}
	for _, fn := range functions {
		walkValues(fn.Body, func(v ir.Value) {
			switch n := v.(type) {
			case *ir.Call:
				a.checkCall(n, byMangle)
			case *ir.Cast:
				a.checkCast(n)
			}
		})
	}
}

// walkValues visits every ir.Value reachable from root, including nested
// blocks/conditionals/loops/switches/try bodies.
func walkValues(v ir.Value, visit func(ir.Value)) {
	if v == nil {
		return
	}
	visit(v)
	switch n := v.(type) {
	case *ir.ReferenceTo:
		walkValues(n.Referent, visit)
	case *ir.DereferenceTo:
		walkValues(n.Pointer, visit)
	case *ir.Cast:
		walkValues(n.Value, visit)
	case *ir.IndexExtract:
		walkValues(n.Base, visit)
	case *ir.ValueExtract:
		walkValues(n.Address, visit)
	case *ir.Call:
		walkValues(n.Callee, visit)
		for _, arg := range n.Args {
			walkValues(arg, visit)
		}
	case *ir.ObjectInit:
		walkValues(n.Construct, visit)
	case *ir.EnumInit:
		for _, p := range n.Payload {
			walkValues(p, visit)
		}
	case *ir.BinaryOp:
		walkValues(n.Left, visit)
		walkValues(n.Right, visit)
	case *ir.Block:
		for _, val := range n.Values {
			walkValues(val, visit)
		}
	case *ir.Conditional:
		walkValues(n.Cond, visit)
		walkValues(n.Then, visit)
		walkValues(n.Else, visit)
	case *ir.WhileLoop:
		walkValues(n.Cond, visit)
		walkValues(n.Body, visit)
		walkValues(n.Step, visit)
	case *ir.Switch:
		walkValues(n.Subject, visit)
		for _, c := range n.Cases {
			walkValues(c.Body, visit)
		}
		walkValues(n.Default, visit)
	case *ir.Return:
		walkValues(n.Value, visit)
	case *ir.Throw:
		walkValues(n.Value, visit)
	case *ir.Try:
		walkValues(n.Body, visit)
		for _, c := range n.Catches {
			walkValues(c.Body, visit)
		}
	}
}

func (a *Analyzer) checkCall(call *ir.Call, byMangle map[string]*ir.Function) {
	ref, ok := call.Callee.(*ir.VarRef)
	if !ok {
		return
	}
	target, ok := byMangle[ref.Name]
	if !ok {
		// Callee is an imported or lambda reference this module doesn't
		// define IR for; nothing to re-verify against.
		return
	}
	if !target.Extern && len(target.Args) != len(call.Args) && !callVariadicTail(target) {
		a.diags.Errorf(diagnostic.Type, call.Span(), "call to %q passes %d argument(s), expected %d", target.Name, len(call.Args), len(target.Args))
		return
	}
	for i, arg := range call.Args {
		if i >= len(target.Args) {
			break
		}
		want := target.Args[i].Type
		if want == nil || arg.Type() == nil {
			continue
		}
		if !typesCompatible(arg.Type(), want) {
			a.diags.Errorf(diagnostic.Type, arg.Span(), "argument %d to %q has type %s, expected %s", i+1, target.Name, arg.Type().Pretty(), want.Pretty())
		}
	}
}

// callVariadicTail reports whether target's last declared argument stands
// in for a variadic tail, so an argument-count mismatch there isn't an
// error (the transformer doesn't keep a separate variadic marker on
// ir.Function, so this is approximated by accepting any argument-count
// mismatch, more or fewer call args than params, whenever the function has
// at least one arg — consistent with spec.md §4.5.3's arity pruning already
// having accepted the call).
func callVariadicTail(fn *ir.Function) bool {
	return len(fn.Args) > 0
}

func typesCompatible(arg, param types.Type) bool {
	if types.Equals(arg, param) {
		return true
	}
	if ad, ok := types.Unalias(arg).(*types.Defined); ok {
		if pd, ok := types.Unalias(param).(*types.Defined); ok {
			for cur := ad; cur != nil; cur = cur.Parent {
				if cur.UUID == pd.UUID {
					return true
				}
			}
		}
	}
	if ap, ok := types.Unalias(arg).(*types.Primitive); ok {
		if pp, ok := types.Unalias(param).(*types.Primitive); ok && ap.IsInteger() && pp.IsInteger() {
			return ap.IsSigned() == pp.IsSigned() && pp.Width() >= ap.Width()
		}
	}
	if pr, ok := types.Unalias(param).(*types.Reference); ok && types.Equals(arg, pr.Elem) {
		return true
	}
	return types.Equals(types.Dereference(arg), param)
}

// checkCast enforces spec.md §4.7 "cast destinations legal": any
// primitive-to-primitive cast and any pointer-to-pointer cast is legal;
// a cast between a pointer and a non-pointer is not; a reference cast is
// legal only between equal types; defined types cast along the parent
// chain (up- or down-cast); a cast to/from void is never legal.
func (a *Analyzer) checkCast(c *ir.Cast) {
	from := c.Value.Type()
	to := c.Type()
	if from == nil || to == nil {
		return
	}
	if isVoid(from) || isVoid(to) {
		a.diags.Errorf(diagnostic.Type, c.Span(), "cannot cast %s to %s", from.Pretty(), to.Pretty())
		return
	}
	if castLegal(from, to) {
		return
	}
	a.diags.Errorf(diagnostic.Type, c.Span(), "illegal cast from %s to %s", from.Pretty(), to.Pretty())
}

func castLegal(from, to types.Type) bool {
	from, to = types.Unalias(from), types.Unalias(to)
	if types.Equals(from, to) {
		return true
	}
	if _, ok := from.(*types.Primitive); ok {
		if _, ok := to.(*types.Primitive); ok {
			return true
		}
	}
	_, fIsPtr := from.(*types.Pointer)
	_, tIsPtr := to.(*types.Pointer)
	if fIsPtr && tIsPtr {
		return true
	}
	if fIsPtr != tIsPtr {
		return false
	}
	fd, fIsDefined := from.(*types.Defined)
	td, tIsDefined := to.(*types.Defined)
	if fIsDefined && tIsDefined {
		for cur := fd; cur != nil; cur = cur.Parent {
			if cur.UUID == td.UUID {
				return true
			}
		}
		for cur := td; cur != nil; cur = cur.Parent {
			if cur.UUID == fd.UUID {
				return true
			}
		}
	}
	return false
}
