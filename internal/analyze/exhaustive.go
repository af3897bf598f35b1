package analyze

import (
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/types"
)

func isVoid(t types.Type) bool {
	p, ok := types.Unalias(t).(*types.Primitive)
	return ok && p.Kind == types.Void
}

// checkExhaustiveReturn enforces spec.md §4.7 "exhaustive return for
// non-void non-constructor functions": every path through the body must
// reach a return (or a throw, which also never falls through).
func (a *Analyzer) checkExhaustiveReturn(fn *ir.Function) {
	if fn.Body == nil || fn.Extern || fn.Name == "constructor" {
		return
	}
	if isVoid(fn.Return) {
		return
	}
	if !terminates(fn.Body) {
		a.diags.Errorf(diagnostic.Type, fn.Body.Span(), "function %q does not return a value on every path", fn.Name)
	}
}

// terminates reports whether v is guaranteed to transfer control away
// (return or throw) rather than fall through.
func terminates(v ir.Value) bool {
	switch n := v.(type) {
	case *ir.Return:
		return true
	case *ir.Throw:
		return true
	case *ir.Block:
		if len(n.Values) == 0 {
			return false
		}
		return terminates(n.Values[len(n.Values)-1])
	case *ir.Conditional:
		if n.Else == nil {
			return false
		}
		return terminates(n.Then) && terminates(n.Else)
	case *ir.Switch:
		if n.Default == nil {
			return false
		}
		for _, c := range n.Cases {
			if !terminates(c.Body) {
				return false
			}
		}
		return terminates(n.Default)
	case *ir.Try:
		if !terminates(n.Body) {
			return false
		}
		for _, c := range n.Catches {
			if !terminates(c.Body) {
				return false
			}
		}
		return true
	default:
		// WhileLoop and everything else: a loop that might execute zero
		// times (or terminate via a bare break) can fall through, so it is
		// conservatively treated as non-terminating (spec.md §4.7 leaves
		// loop-exhaustiveness unspecified; Nova errs toward requiring an
		// explicit trailing return rather than proving loop termination).
		return false
	}
}
