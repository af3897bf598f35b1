package transform

import (
	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/types"
)

// paramRank classifies how closely an argument type matches a parameter
// type (spec.md §4.5.3: "rank by: exact match > widening > reference
// addition > variadic match"). Lower is better.
const (
	rankExact = iota
	rankSupertype
	rankWidening
	rankReference
	rankVariadic
	rankNone = -1
)

func argCompatible(arg, param types.Type) int {
	if types.Equals(arg, param) {
		return rankExact
	}
	if ad, ok := types.Unalias(arg).(*types.Defined); ok {
		if pd, ok := types.Unalias(param).(*types.Defined); ok {
			for cur := ad.Parent; cur != nil; cur = cur.Parent {
				if cur.UUID == pd.UUID {
					return rankSupertype
				}
			}
		}
	}
	if ap, ok := types.Unalias(arg).(*types.Primitive); ok {
		if pp, ok := types.Unalias(param).(*types.Primitive); ok && ap.IsInteger() && pp.IsInteger() {
			if ap.IsSigned() == pp.IsSigned() && pp.Width() >= ap.Width() {
				return rankWidening
			}
		}
	}
	if pr, ok := types.Unalias(param).(*types.Reference); ok && types.Equals(arg, pr.Elem) {
		return rankReference
	}
	if types.Equals(types.Dereference(arg), param) {
		return rankReference
	}
	return rankNone
}

// overloadCandidate pairs a declared overload with the arity/rank
// bookkeeping needed to pick a winner.
type overloadCandidate struct {
	entryIdx int
	decl     *ast.FunctionDecl
	rank     int
}

// resolveOverload implements spec.md §4.5.3: prune by arity, prune by
// type compatibility, rank survivors, and instantiate generics on the
// winner. argTypes already includes an implicit receiver type as its
// first element for method calls.
func (t *Transformer) resolveOverload(storeUUID string, argTypes []types.Type, explicitGenerics []types.Type, span source.Span) *ast.FunctionDecl {
	store := t.pipeline.Cache.Functions(storeUUID)
	if store == nil {
		t.Diags.Errorf(diagnostic.Type, span, "no overloads registered")
		return nil
	}

	var candidates []overloadCandidate
	for i, entry := range store.Overloads {
		decl := entry.AST
		rank, ok := t.rankOverload(decl, argTypes)
		if !ok {
			continue
		}
		candidates = append(candidates, overloadCandidate{entryIdx: i, decl: decl, rank: rank})
	}
	if len(candidates) == 0 {
		t.Diags.Errorf(diagnostic.Type, span, "no matching overload for %d argument(s)", len(argTypes))
		return nil
	}

	best := candidates[0]
	ambiguous := false
	for _, c := range candidates[1:] {
		if c.rank < best.rank {
			best = c
			ambiguous = false
		} else if c.rank == best.rank {
			ambiguous = true
		}
	}
	if ambiguous {
		t.Diags.Errorf(diagnostic.Type, span, "ambiguous call: more than one overload matches equally well")
		return nil
	}
	return best.decl
}

// rankOverload reports whether decl's parameter list can accept argTypes
// (spec.md §4.5.3 "arity pruning": defaults, variadics, implicit self
// already folded into argTypes by the caller), and the resulting rank.
func (t *Transformer) rankOverload(decl *ast.FunctionDecl, argTypes []types.Type) (int, bool) {
	required := 0
	variadic := false
	for _, p := range decl.Parameters {
		if p.Variadic {
			variadic = true
			break
		}
		if p.Default == nil {
			required++
		}
	}
	if len(argTypes) < required {
		return 0, false
	}
	if !variadic && len(argTypes) > len(decl.Parameters) {
		return 0, false
	}

	worst := rankExact
	for i, argT := range argTypes {
		if i >= len(decl.Parameters) {
			worst = max(worst, rankVariadic)
			continue
		}
		p := decl.Parameters[i]
		if p.Variadic {
			worst = max(worst, rankVariadic)
			continue
		}
		if p.Type == nil {
			continue
		}
		paramT := t.resolveTypeRef(p.Type)
		r := argCompatible(argT, paramT)
		if r == rankNone {
			return 0, false
		}
		worst = max(worst, r)
	}
	return worst, true
}

// resolveCallTarget resolves a call's callee to a concrete *ir.Function,
// instantiating a generic winner if necessary (spec.md §4.5.3 step 4).
func (t *Transformer) resolveCallTarget(storeUUID string, argTypes []types.Type, explicitGenerics []types.Type, span source.Span) *ir.Function {
	decl := t.resolveOverload(storeUUID, argTypes, explicitGenerics, span)
	if decl == nil {
		return nil
	}
	if len(decl.Generics) == 0 {
		return t.ensureFunctionGenerated(decl, storeUUID, nil)
	}

	generics := make([]types.Type, len(decl.Generics))
	copy(generics, explicitGenerics)
	for i, gp := range decl.Generics {
		if i < len(explicitGenerics) {
			continue
		}
		inferred := t.inferGenericFromParams(decl, gp.Name, argTypes)
		if inferred != nil {
			generics[i] = inferred
		} else if gp.Default != nil {
			generics[i] = t.resolveTypeRef(gp.Default)
		} else {
			t.Diags.Errorf(diagnostic.Type, span, "cannot infer generic argument %q", gp.Name)
			generics[i] = types.NewPrimitive(types.Void)
		}
	}
	return t.ensureFunctionGenerated(decl, storeUUID, generics)
}

// inferGenericFromParams does simple structural unification: the first
// bare-identifier parameter type matching genericName takes the
// corresponding argument's type (spec.md §4.5.3 step 4 "unified from
// argument types" — a deliberate simplification recorded in DESIGN.md,
// not full bidirectional unification).
func (t *Transformer) inferGenericFromParams(decl *ast.FunctionDecl, genericName string, argTypes []types.Type) types.Type {
	for i, p := range decl.Parameters {
		if i >= len(argTypes) {
			break
		}
		if p.Type != nil && len(p.Type.Path) == 1 && p.Type.Path[0] == genericName && p.Type.Pointer == nil && p.Type.Reference == nil {
			return argTypes[i]
		}
	}
	return nil
}

// ensureFunctionGenerated builds (and caches) the IR for one top-level
// function instantiation.
func (t *Transformer) ensureFunctionGenerated(decl *ast.FunctionDecl, storeUUID string, generics []types.Type) *ir.Function {
	argsKey := argsKeyOf(generics)
	idx, ok := t.pipeline.genericFuncInstances[storeUUID]
	if !ok {
		idx = make(map[string]int)
		t.pipeline.genericFuncInstances[storeUUID] = idx
	}
	if _, exists := idx[argsKey]; !exists {
		idx[argsKey] = len(idx)
	}
	instanceKey := storeUUID + "#" + argsKey
	if t.pipeline.bodiesGenerated(instanceKey) {
		for _, fn := range t.Module.Functions {
			if fn.Name == decl.Name && argsKeyMatches(fn, generics) {
				return fn
			}
		}
	}
	t.pipeline.markBodiesGenerated(instanceKey)
	fn := t.generateFreeFunction(decl, generics, storeUUID)
	t.Module.Functions = append(t.Module.Functions, fn)
	return fn
}

// resolveMethodCall picks the best-matching method overload of owner by
// name and per-argument type compatibility (spec.md §4.5.3's "prune by
// type compatibility, rank survivors"), mirroring resolveOverload's
// scheme for methods — whose overloads are already-generated *ir.Function
// values rather than a cached AST overload set, since generateClassMethods
// builds every declared method eagerly.
func (t *Transformer) resolveMethodCall(owner *types.Defined, name string, argTypes []types.Type, span source.Span) *ir.Function {
	var best *ir.Function
	bestRank := rankNone
	ambiguous := false
	for _, m := range t.methodsOf(owner) {
		if m.Name != name {
			continue
		}
		rank, ok := rankMethodOverload(m, argTypes)
		if !ok {
			continue
		}
		switch {
		case best == nil || rank < bestRank:
			best, bestRank, ambiguous = m, rank, false
		case rank == bestRank:
			ambiguous = true
		}
	}
	if best == nil {
		t.Diags.Errorf(diagnostic.Type, span, "%s has no method %q matching this call", owner.Pretty(), name)
		return nil
	}
	if ambiguous {
		t.Diags.Errorf(diagnostic.Type, span, "ambiguous call to %s.%s: more than one overload matches equally well", owner.Pretty(), name)
		return nil
	}
	return best
}

// rankMethodOverload reports whether m's parameter list accepts argTypes,
// and the resulting rank (spec.md §4.5.3). Methods declare no variadics or
// defaults here, so arity must match exactly.
func rankMethodOverload(m *ir.Function, argTypes []types.Type) (int, bool) {
	if len(argTypes) != len(m.Args) {
		return 0, false
	}
	worst := rankExact
	for i, argT := range argTypes {
		r := argCompatible(argT, m.Args[i].Type)
		if r == rankNone {
			return 0, false
		}
		worst = max(worst, r)
	}
	return worst, true
}

func argsKeyMatches(fn *ir.Function, generics []types.Type) bool {
	if len(fn.Generics) != len(generics) {
		return false
	}
	for i := range generics {
		if !types.Equals(fn.Generics[i], generics[i]) {
			return false
		}
	}
	return true
}
