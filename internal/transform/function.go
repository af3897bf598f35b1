package transform

import (
	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/scope"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/symtab"
	"github.com/novalang/novac/internal/types"
)

// declareOrGenerateFunction handles one top-level *ast.FunctionDecl.
// Phase A registers the overload in the symbol cache and binds its name
// once per UUID (multiple overloads share one ItemFunctionSet binding,
// spec.md §4.3 "Function store"); Phase B generates the body immediately
// for non-generic functions, and lazily on first call otherwise (spec.md
// §4.5.3 step 4).
func (t *Transformer) declareOrGenerateFunction(decl *ast.FunctionDecl) {
	uuid := symtab.BuildUUID(t.Module.UniqueName, decl.Name)

	if !t.Scope.GenerateFunction {
		t.pipeline.Cache.DeclareFunction(uuid, &symtab.FunctionEntry{
			AST: decl, DeclModule: t.Module.UniqueName, DeclScopeMarker: t.Scope.Depth(),
		})
		if item, ok := t.Scope.Lookup(decl.Name); !ok {
			if err := t.Scope.Define(scope.Item{Kind: scope.ItemFunctionSet, Name: decl.Name, UUID: uuid}); err != nil {
				t.Diags.Errorf(diagnostic.Type, decl.Span(), "%s", err.Error())
			}
		} else if item.Kind != scope.ItemFunctionSet || item.UUID != uuid {
			t.Diags.Errorf(diagnostic.Type, decl.Span(), "%q is already defined", decl.Name)
		}
		if decl.Privacy == ast.Public {
			t.Module.Exports[decl.Name] = ir.ExportedSymbol{Name: decl.Name}
		}
		return
	}

	if len(decl.Generics) > 0 {
		return // instantiated lazily by overload resolution at the call site
	}
	argsKey := "" // no generic args
	idx, ok := t.pipeline.genericFuncInstances[uuid]
	if !ok {
		idx = make(map[string]int)
		t.pipeline.genericFuncInstances[uuid] = idx
	}
	if _, exists := idx[argsKey]; exists {
		return
	}
	idx[argsKey] = 0
	fn := t.generateFreeFunction(decl, nil, uuid)
	t.Module.Functions = append(t.Module.Functions, fn)
	if sym, ok := t.Module.Exports[decl.Name]; ok {
		sym.Function = fn
		t.Module.Exports[decl.Name] = sym
	}
}

// generateFreeFunction builds the IR for one (possibly generic,
// already-bound) top-level function.
func (t *Transformer) generateFreeFunction(decl *ast.FunctionDecl, generics []types.Type, uuid string) *ir.Function {
	fn := &ir.Function{
		Name: decl.Name, Privacy: int(decl.Privacy), Static: decl.Static,
		Extern: decl.BodyKind == ast.BodyExtern, Generics: generics, VTableIndex: -1,
	}

	t.Scope.WithScope(func() {
		for i, gp := range decl.Generics {
			var bound types.Type
			if i < len(generics) {
				bound = generics[i]
			} else if gp.Default != nil {
				bound = t.resolveTypeRef(gp.Default)
			} else {
				bound = types.NewPrimitive(types.Void)
			}
			t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: gp.Name, Type: bound})
		}
		for i, p := range decl.Parameters {
			var pt types.Type = types.NewPrimitive(types.Void)
			if p.Type != nil {
				pt = t.resolveTypeRef(p.Type)
			}
			fn.Args = append(fn.Args, ir.Param{Name: p.Name, Type: pt})
			t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: p.Name, Value: t.Builder.Argument(p.Loc, pt, p.Name, i)})
		}
		if decl.ReturnType != nil {
			fn.Return = t.resolveTypeRef(decl.ReturnType)
		} else {
			fn.Return = types.NewPrimitive(types.Void)
		}

		t.Scope.WithFunction(fn, func() {
			switch decl.BodyKind {
			case ast.BodyBlock:
				fn.Body = t.lowerFunctionBody(decl.Body, fn.Return)
			case ast.BodyInlineIR:
				fn.InlineIR = t.lowerInlineIR(decl.InlineIR)
			case ast.BodyExtern:
				// no body to lower
			}
		})
	})

	fn.Mangle = mangleFunction(decl, nil, t.Module.UniqueName, argTypesOf(fn.Args))
	return fn
}

// generateMethod builds the IR for one class method, called from
// generateClassMethods with Self/generics already bound in the enclosing
// scope.
func (t *Transformer) generateMethod(decl *ast.FunctionDecl, owner *types.Defined) *ir.Function {
	fn := &ir.Function{
		Name: methodName(decl), Parent: owner, Privacy: int(decl.Privacy), Static: decl.Static,
		Extern: decl.BodyKind == ast.BodyExtern, VTableIndex: -1,
	}
	if decl.Virtual || decl.Override {
		fn.VTableIndex = t.vtableSlot(owner, fn.Name)
	}

	t.Scope.WithScope(func() {
		if !decl.Static {
			selfType := types.Type(types.ReferenceTo(owner, true))
			t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: "self", Value: t.Builder.Argument(decl.Span(), selfType, "self", 0)})
		}
		argBase := 0
		if !decl.Static {
			argBase = 1
		}
		for i, p := range decl.Parameters {
			var pt types.Type = types.NewPrimitive(types.Void)
			if p.Type != nil {
				pt = t.resolveTypeRef(p.Type)
			}
			fn.Args = append(fn.Args, ir.Param{Name: p.Name, Type: pt})
			t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: p.Name, Value: t.Builder.Argument(p.Loc, pt, p.Name, i+argBase)})
		}
		if decl.Name == "constructor" {
			fn.Return = owner
		} else if decl.ReturnType != nil {
			fn.Return = t.resolveTypeRef(decl.ReturnType)
		} else {
			fn.Return = types.NewPrimitive(types.Void)
		}

		t.Scope.WithFunction(fn, func() {
			switch decl.BodyKind {
			case ast.BodyBlock:
				fn.Body = t.lowerFunctionBody(decl.Body, fn.Return)
				if decl.Name == "constructor" {
					fn.Body = t.ensureSelfReturn(fn.Body, owner)
				}
			case ast.BodyInlineIR:
				fn.InlineIR = t.lowerInlineIR(decl.InlineIR)
			case ast.BodyExtern:
			}
		})
	})

	fn.Mangle = mangleFunction(decl, owner, t.Module.UniqueName, argTypesOf(fn.Args))
	return fn
}

// vtableSlot assigns a stable slot for a virtual method name: an override
// whose name matches an already-assigned virtual method — inherited from
// an ancestor, or an earlier sibling declared in this same class — reuses
// that method's slot; any other newly-declared virtual method takes the
// next slot index not already in use (spec.md §4.5.4 step 9, "vtable slot
// assignment").
func (t *Transformer) vtableSlot(owner *types.Defined, name string) int {
	next := -1
	for _, m := range t.methodsOf(owner) {
		if m.VTableIndex < 0 {
			continue
		}
		if m.Name == name {
			return m.VTableIndex
		}
		if m.VTableIndex > next {
			next = m.VTableIndex
		}
	}
	return next + 1
}

// ensureSelfReturn appends `return self;` to a constructor body lacking
// an explicit terminal return (spec.md §4.5.7 "constructors implicitly
// return self").
func (t *Transformer) ensureSelfReturn(body *ir.Block, owner *types.Defined) *ir.Block {
	if body == nil {
		body = t.Builder.Block(source.NoSpan, nil)
	}
	if n := len(body.Values); n > 0 {
		if _, ok := body.Values[n-1].(*ir.Return); ok {
			return body
		}
	}
	selfRef := t.Builder.VarRef(source.NoSpan, types.ReferenceTo(owner, true), "self")
	ret := t.Builder.Return(source.NoSpan, selfRef)
	values := append(append([]ir.Value{}, body.Values...), ret)
	return t.Builder.Block(body.Span(), values)
}

func argTypesOf(params []ir.Param) []types.Type {
	out := make([]types.Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}
