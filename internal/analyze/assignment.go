package analyze

import (
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
)

// assignState tracks, for every local this pass has seen declared without
// an initializer, whether it has been assigned on the path reaching the
// current point. Names not present in the map are either parameters (always
// assigned) or not yet declared; both read as "fine to reference".
type assignState map[string]bool

func cloneState(s assignState) assignState {
	out := make(assignState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// mergeBranches intersects a set of branch-end states into dst: a name is
// assigned after the branch point only if every branch assigned it (spec.md
// §4.7 "every read of a local dominated by an assignment on every path").
func mergeBranches(dst assignState, branches ...assignState) {
	for name := range dst {
		all := true
		for _, b := range branches {
			if !b[name] {
				all = false
				break
			}
		}
		dst[name] = all
	}
	for _, b := range branches {
		for name, assigned := range b {
			if _, known := dst[name]; known {
				continue
			}
			all := assigned
			for _, other := range branches {
				if !other[name] {
					all = false
					break
				}
			}
			dst[name] = all
		}
	}
}

// checkDefiniteAssignment walks fn's body enforcing that every read of a
// local is dominated by an assignment on every path reaching it (spec.md
// §4.7).
func (a *Analyzer) checkDefiniteAssignment(fn *ir.Function) {
	if fn.Body == nil {
		return
	}
	state := make(assignState)
	for _, p := range fn.Args {
		state[p.Name] = true
	}
	a.walkAssign(fn.Body, state)
}

func (a *Analyzer) walkAssign(v ir.Value, state assignState) {
	if v == nil {
		return
	}
	switch n := v.(type) {
	case *ir.VarDecl:
		if n.Init != nil {
			a.walkAssign(n.Init, state)
		}
		state[n.Name] = n.Init != nil

	case *ir.VarRef:
		if assigned, declared := state[n.Name]; declared && !assigned {
			a.diags.Errorf(diagnostic.Variable, n.Span(), "%q is read before it is assigned on every path", n.Name)
			state[n.Name] = true
		}

	case *ir.BinaryOp:
		if n.Op == "=" {
			if target, ok := n.Left.(*ir.VarRef); ok {
				a.walkAssign(n.Right, state)
				state[target.Name] = true
				return
			}
			a.walkAssign(n.Left, state)
			a.walkAssign(n.Right, state)
			return
		}
		a.walkAssign(n.Left, state)
		a.walkAssign(n.Right, state)

	case *ir.ReferenceTo:
		a.walkAssign(n.Referent, state)
	case *ir.DereferenceTo:
		a.walkAssign(n.Pointer, state)
	case *ir.Cast:
		a.walkAssign(n.Value, state)
	case *ir.IndexExtract:
		a.walkAssign(n.Base, state)
	case *ir.ValueExtract:
		a.walkAssign(n.Address, state)

	case *ir.Call:
		a.walkAssign(n.Callee, state)
		for _, arg := range n.Args {
			a.walkAssign(arg, state)
		}
	case *ir.ObjectInit:
		a.walkAssign(n.Construct, state)
	case *ir.EnumInit:
		for _, p := range n.Payload {
			a.walkAssign(p, state)
		}

	case *ir.Block:
		for _, val := range n.Values {
			a.walkAssign(val, state)
		}

	case *ir.Conditional:
		a.walkAssign(n.Cond, state)
		thenState := cloneState(state)
		a.walkAssign(n.Then, thenState)
		if n.Else != nil {
			elseState := cloneState(state)
			a.walkAssign(n.Else, elseState)
			mergeBranches(state, thenState, elseState)
		}

	case *ir.WhileLoop:
		a.walkAssign(n.Cond, state)
		bodyState := cloneState(state)
		a.walkAssign(n.Body, bodyState)
		if n.Step != nil {
			a.walkAssign(n.Step, bodyState)
		}
		if n.DoWhile {
			for name, assigned := range bodyState {
				state[name] = assigned
			}
		}

	case *ir.Switch:
		a.walkAssign(n.Subject, state)
		var branches []assignState
		for _, c := range n.Cases {
			cs := cloneState(state)
			a.walkAssign(c.Body, cs)
			branches = append(branches, cs)
		}
		if n.Default != nil {
			ds := cloneState(state)
			a.walkAssign(n.Default, ds)
			branches = append(branches, ds)
			mergeBranches(state, branches...)
		}

	case *ir.Return:
		a.walkAssign(n.Value, state)
	case *ir.Throw:
		a.walkAssign(n.Value, state)

	case *ir.Try:
		a.walkAssign(n.Body, state)
		for _, c := range n.Catches {
			cs := cloneState(state)
			cs[c.VarName] = true
			a.walkAssign(c.Body, cs)
		}

	case *ir.LoopFlow, *ir.Constant, *ir.Argument, *ir.ZeroInit:
		// leaves: nothing to track
	}
}
