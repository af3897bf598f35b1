package transform

import (
	"strings"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/scope"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/symtab"
	"github.com/novalang/novac/internal/types"
)

// declareOrGenerateClass handles one *ast.ClassDecl at top level: Phase A
// registers the declaration (and, for non-generic classes, eagerly builds
// the structural layout, since there is exactly one instantiation to
// build); Phase B generates method bodies for a non-generic class's single
// instantiation only (spec.md §4.5.4). Instantiations of a generic class
// are not revisited here, so one created only during Phase A gets no
// method bodies.
func (t *Transformer) declareOrGenerateClass(decl *ast.ClassDecl) {
	uuid := symtab.BuildUUID(t.Module.UniqueName, decl.Name)

	if !t.Scope.GenerateFunction {
		t.pipeline.Cache.DeclareType(uuid, &symtab.TypeStore{
			UUID: uuid, AST: decl, DeclModule: t.Module.UniqueName, DeclScopeMarker: t.Scope.Depth(),
		})

		if decl.Kind == ast.KindInterface {
			iface := t.buildInterface(decl, uuid)
			if err := t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: decl.Name, Type: iface}); err != nil {
				t.Diags.Errorf(diagnostic.Type, decl.Span(), "%s", err.Error())
			}
			return
		}

		if len(decl.Generics) == 0 {
			item := scope.Item{Kind: scope.ItemType, Name: decl.Name, UUID: uuid}
			if err := t.Scope.Define(item); err != nil {
				t.Diags.Errorf(diagnostic.Type, decl.Span(), "%s", err.Error())
				return
			}
			t.instantiateClass(decl, uuid, t.Module.UniqueName, nil)
			return
		}

		// Generic class: only the store is registered; resolveTypeRef
		// instantiates on first request with explicit generic arguments.
		if err := t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: decl.Name, UUID: uuid}); err != nil {
			t.Diags.Errorf(diagnostic.Type, decl.Span(), "%s", err.Error())
		}
		return
	}

	// Phase B: generate bodies for the single instantiation of a
	// non-generic class; generic classes are skipped.
	if decl.Kind == ast.KindInterface {
		return
	}
	if len(decl.Generics) == 0 {
		t.instantiateClass(decl, uuid, t.Module.UniqueName, nil)
	}
}

func (t *Transformer) buildInterface(decl *ast.ClassDecl, uuid string) *types.Interface {
	iface := &types.Interface{UUID: newDefinedUUID(), ModuleName: t.Module.UniqueName, Name: decl.Name}
	for _, f := range decl.Fields {
		if f.Type == nil {
			t.Diags.Errorf(diagnostic.Type, decl.Span(), "interface field %q requires an explicit type", f.Name)
			continue
		}
		iface.Members = append(iface.Members, types.InterfaceMember{Name: f.Name, Type: t.resolveTypeRef(f.Type), Kind: types.MemberField})
	}
	for _, m := range decl.Methods {
		sig := t.methodSignatureType(m)
		iface.Members = append(iface.Members, types.InterfaceMember{Name: methodName(m), Type: sig, Kind: types.MemberMethod})
	}
	t.Module.TypeInfo[iface.UUID.String()] = iface
	return iface
}

func (t *Transformer) methodSignatureType(m *ast.FunctionDecl) *types.Function {
	fn := &types.Function{}
	for _, p := range m.Parameters {
		if p.Type != nil {
			fn.Args = append(fn.Args, t.resolveTypeRef(p.Type))
		}
	}
	if m.ReturnType != nil {
		fn.Return = t.resolveTypeRef(m.ReturnType)
	} else {
		fn.Return = types.NewPrimitive(types.Void)
	}
	return fn
}

// argsKeyOf builds the instantiation-cache key for a generic argument
// list: the mangled form of each argument, joined, which is stable
// across repeated requests for the same argument list (spec.md §8
// property 3 "cache idempotence").
func argsKeyOf(generics []types.Type) string {
	parts := make([]string, len(generics))
	for i, g := range generics {
		parts[i] = types.Mangle(g)
	}
	return strings.Join(parts, ",")
}

// instantiateClass builds (or reuses) the Defined type for decl bound to
// generics, and — if Phase B is running — generates its method bodies
// (spec.md §4.5.4). This is the single "on first request" entry point
// both resolveTypeRef (for explicit `A<T>` identifiers) and NewInstance
// lowering (for `new A<T>(...)`) call through.
func (t *Transformer) instantiateClass(decl *ast.ClassDecl, storeUUID, declModule string, generics []types.Type) *types.Defined {
	argsKey := argsKeyOf(generics)
	idx, ok := t.pipeline.genericInstances[storeUUID]
	if !ok {
		idx = make(map[string]int)
		t.pipeline.genericInstances[storeUUID] = idx
	}

	count, exists := idx[argsKey]
	var def *types.Defined
	var instanceKey string
	if exists {
		instanceKey = symtab.InstantiationUUID(storeUUID, count)
		if cached, ok := t.pipeline.Cache.Instantiation(storeUUID, instanceKey); ok {
			def = cached.(*types.Defined)
		}
	}
	if def == nil {
		count = len(idx)
		idx[argsKey] = count
		instanceKey = symtab.InstantiationUUID(storeUUID, count)
		def = t.buildClassLayout(decl, declModule, generics, count)
		t.pipeline.Cache.CacheInstantiation(storeUUID, instanceKey, def)
		t.Module.TypeInfo[def.UUID.String()] = def
	}

	if t.Scope.GenerateFunction && !t.pipeline.bodiesGenerated(instanceKey) {
		t.pipeline.markBodiesGenerated(instanceKey)
		t.generateClassMethods(decl, def, generics)
	}
	return def
}

// buildClassLayout performs spec.md §4.5.4 steps 1-5 and 8-9: binding
// Self and generics, transforming the parent and fields, determining the
// constructor/vtable state, and implementing declared interfaces. It
// never synthesizes bodies — that's generateClassMethods's job, run only
// once Phase B reaches this instantiation.
func (t *Transformer) buildClassLayout(decl *ast.ClassDecl, declModule string, generics []types.Type, count int) *types.Defined {
	def := &types.Defined{
		UUID: newDefinedUUID(), ModuleName: declModule, Name: decl.Name,
		Generics: generics, IsStruct: decl.Kind == ast.KindStruct, InstantiationCount: count,
	}

	t.Scope.WithScope(func() {
		t.bindSelfAndGenerics(decl, def, generics)

		if decl.Parent != nil {
			parentType := types.Unalias(t.resolveTypeRef(decl.Parent))
			parentDef, ok := parentType.(*types.Defined)
			if !ok {
				t.Diags.Errorf(diagnostic.Type, decl.Span(), "parent of %q must be a sized defined type, got %s", decl.Name, parentType.Pretty())
			} else if !types.IsSized(parentDef) {
				t.Diags.Errorf(diagnostic.Type, decl.Span(), "parent type %s is not sized", parentDef.Pretty())
			} else {
				def.Parent = parentDef
			}
		}

		for _, f := range decl.Fields {
			if f.Type == nil {
				t.Diags.Errorf(diagnostic.Type, f.Loc, "field %q requires an explicit type", f.Name)
				continue
			}
			ft := t.resolveTypeRef(f.Type)
			if !types.IsSized(ft) {
				t.Diags.Errorf(diagnostic.Type, f.Loc, "field %q has unsized type %s", f.Name, ft.Pretty())
			}
			def.Fields = append(def.Fields, types.Field{
				Name: f.Name, Type: ft, Privacy: int(f.Privacy), DefaultAST: f.Default, Mutable: f.Mutable,
			})
		}

		hasOwnCtor := t.hasMethod(decl, "constructor")
		inheritsCtor := def.Parent != nil && def.Parent.HasConstructor
		switch {
		case hasOwnCtor, inheritsCtor:
			def.HasConstructor = true
		case len(decl.Fields) == 0:
			// spec.md §4.5.4 step 5: synthesize a default constructor.
			def.HasConstructor = true
		default:
			t.Diags.Errorf(diagnostic.Type, decl.Span(), "class %q has fields but declares no constructor", decl.Name)
		}

		hasVirtual := false
		for _, m := range decl.Methods {
			if m.Virtual {
				hasVirtual = true
			}
		}
		def.HasVtable = hasVirtual || (def.Parent != nil && def.Parent.HasVtable)

		for _, implRef := range decl.Implements {
			ifaceType := types.Unalias(t.resolveTypeRef(implRef))
			iface, ok := ifaceType.(*types.Interface)
			if !ok {
				t.Diags.Errorf(diagnostic.Type, implRef.Loc, "%s is not an interface", ifaceType.Pretty())
				continue
			}
			for _, member := range iface.Members {
				if member.Kind == types.MemberMethod && !t.hasMethod(decl, member.Name) {
					t.Diags.Errorf(diagnostic.Type, decl.Span(), "%q does not implement %q required by interface %s", decl.Name, member.Name, iface.Name)
				}
			}
			iface.Implementors = append(iface.Implementors, def)
			def.Interfaces = append(def.Interfaces, iface)
			def.HasVtable = true
		}
	})

	return def
}

// bindSelfAndGenerics implements spec.md §4.5.4 steps 1-2: Self is bound
// before generics so a where-clause predicate or a generic default value
// may reference it, and each generic's where-clause runs immediately
// after that generic is bound (SPEC_FULL.md §5 "Generic where-clause
// execution order") rather than as a separate pass.
func (t *Transformer) bindSelfAndGenerics(decl *ast.ClassDecl, def *types.Defined, generics []types.Type) {
	if err := t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: "Self", Type: def}); err != nil {
		t.Diags.Errorf(diagnostic.Type, decl.Span(), "%s", err.Error())
	}
	for i, gp := range decl.Generics {
		var bound types.Type
		switch {
		case i < len(generics):
			bound = generics[i]
		case gp.Default != nil:
			bound = t.resolveTypeRef(gp.Default)
		default:
			t.Diags.Errorf(diagnostic.Type, gp.Loc, "missing generic argument %q for %s", gp.Name, decl.Name)
			bound = types.NewPrimitive(types.Void)
		}
		if err := t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: gp.Name, Type: bound}); err != nil {
			t.Diags.Errorf(diagnostic.Type, gp.Loc, "%s", err.Error())
		}
		t.checkWhereClause(gp, bound)
	}
}

// checkWhereClause runs a generic parameter's bound predicates: each
// bound naming an interface requires the bound type to implement it
// (spec.md §4.5.4 step 2 "execute each where-clause predicate").
func (t *Transformer) checkWhereClause(gp ast.GenericParam, bound types.Type) {
	for _, w := range gp.WhereClause {
		boundIface := types.Unalias(t.resolveTypeRef(w))
		iface, ok := boundIface.(*types.Interface)
		if !ok {
			continue // non-interface bounds (e.g. a base class) are checked structurally elsewhere
		}
		d, ok := types.Unalias(bound).(*types.Defined)
		if !ok || !implementsInterface(d, iface) {
			t.Diags.Errorf(diagnostic.Type, gp.Loc, "%s does not satisfy bound %s", bound.Pretty(), iface.Name)
		}
	}
}

func implementsInterface(d *types.Defined, iface *types.Interface) bool {
	for cur := d; cur != nil; cur = cur.Parent {
		for _, im := range cur.Interfaces {
			if im.UUID == iface.UUID {
				return true
			}
		}
	}
	return false
}

// hasMethod reports whether decl declares (not inherits) a method named
// name, after operator-mangle normalization.
func (t *Transformer) hasMethod(decl *ast.ClassDecl, name string) bool {
	for _, m := range decl.Methods {
		if methodName(m) == name {
			return true
		}
	}
	return false
}

// generateClassMethods builds IR for every declared method of one class
// instantiation, plus the synthesized default constructor (only when no
// constructor is declared, the class declares no fields, and none is
// inherited from the parent) and the synthesized assignment operator
// (spec.md §4.5.4 steps 5-6), re-entering a scope bound exactly like
// buildClassLayout's so method bodies can resolve Self/generics/fields.
func (t *Transformer) generateClassMethods(decl *ast.ClassDecl, def *types.Defined, generics []types.Type) {
	t.Scope.WithScope(func() {
		t.bindSelfAndGenericsQuiet(decl, def, generics)
		t.Scope.WithDefinedType(def, func() {
			hasOwnCtor := false
			for _, m := range decl.Methods {
				fn := t.generateMethod(m, def)
				t.Module.Functions = append(t.Module.Functions, fn)
				t.registerMethod(def, fn)
				if m.Name == "constructor" {
					hasOwnCtor = true
				}
			}
			inheritsCtor := def.Parent != nil && def.Parent.HasConstructor
			if !hasOwnCtor && len(decl.Fields) == 0 && !inheritsCtor {
				fn := t.synthesizeDefaultConstructor(def)
				t.Module.Functions = append(t.Module.Functions, fn)
				t.registerMethod(def, fn)
			}
			if !def.IsPointerOrIntImpl() {
				for _, fn := range t.synthesizeAssignOperator(def) {
					t.Module.Functions = append(t.Module.Functions, fn)
					t.registerMethod(def, fn)
				}
			}
		})
	})
}

// bindSelfAndGenericsQuiet re-applies the Self/generics bindings without
// re-running where-clause diagnostics (already reported during layout).
func (t *Transformer) bindSelfAndGenericsQuiet(decl *ast.ClassDecl, def *types.Defined, generics []types.Type) {
	t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: "Self", Type: def})
	for i, gp := range decl.Generics {
		var bound types.Type
		switch {
		case i < len(generics):
			bound = generics[i]
		case gp.Default != nil:
			bound = t.resolveTypeRef(gp.Default)
		default:
			bound = types.NewPrimitive(types.Void)
		}
		t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: gp.Name, Type: bound})
	}
}

func (t *Transformer) registerMethod(def *types.Defined, fn *ir.Function) {
	key := def.InstanceKey()
	t.pipeline.methodsByInstance[key] = append(t.pipeline.methodsByInstance[key], fn)
}

// methodsOf returns every generated method for def's own instantiation,
// walking up the parent chain so inherited methods are visible too.
func (t *Transformer) methodsOf(def *types.Defined) []*ir.Function {
	var out []*ir.Function
	for cur := def; cur != nil; cur = cur.Parent {
		out = append(out, t.pipeline.methodsByInstance[cur.InstanceKey()]...)
	}
	return out
}

func (t *Transformer) synthesizeDefaultConstructor(def *types.Defined) *ir.Function {
	fn := &ir.Function{Name: "constructor", Parent: def, Return: def, VTableIndex: -1}
	ret := t.Builder.Return(source.Span{}, t.Builder.VarRef(source.Span{}, types.ReferenceTo(def, true), "self"))
	fn.Body = t.Builder.Block(source.Span{}, []ir.Value{ret})
	fn.Mangle = mangleIRFunction(fn, def, t.Module.UniqueName)
	return fn
}

// synthesizeAssignOperator builds the default `=` operator's value- and
// reference-taking overloads (spec.md §4.5.4 step 6), skipped for the
// compiler's own pointer/int-impl primitive representations.
func (t *Transformer) synthesizeAssignOperator(def *types.Defined) []*ir.Function {
	name, _ := operatorMangle("=")
	byValue := &ir.Function{
		Name: name, Parent: def, Return: types.NewPrimitive(types.Void), VTableIndex: -1,
		Args: []ir.Param{{Name: "other", Type: def}},
	}
	byValue.Body = t.Builder.Block(source.Span{}, nil)
	byValue.Mangle = mangleIRFunction(byValue, def, t.Module.UniqueName)

	byRef := &ir.Function{
		Name: name, Parent: def, Return: types.NewPrimitive(types.Void), VTableIndex: -1,
		Args: []ir.Param{{Name: "other", Type: types.ReferenceTo(def, false)}},
	}
	byRef.Body = t.Builder.Block(source.Span{}, nil)
	byRef.Mangle = mangleIRFunction(byRef, def, t.Module.UniqueName)
	return []*ir.Function{byValue, byRef}
}
