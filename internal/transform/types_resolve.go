package transform

import (
	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/scope"
	"github.com/novalang/novac/internal/types"
)

var primitiveByName = map[string]types.PrimitiveKind{
	"i8": types.Int8, "i16": types.Int16, "i32": types.Int32, "i64": types.Int64,
	"u8": types.UInt8, "u16": types.UInt16, "u32": types.UInt32, "u64": types.UInt64,
	"f32": types.Float32, "f64": types.Float64, "bool": types.Bool, "char": types.Char, "void": types.Void,
}

// resolveTypeRef resolves an *ast.TypeRef written in source to a
// types.Type (spec.md §4.5 type resolution used throughout alias/enum/
// field/parameter/return-type transformation).
func (t *Transformer) resolveTypeRef(ref *ast.TypeRef) types.Type {
	if ref == nil {
		return types.NewPrimitive(types.Void)
	}
	if ref.Pointer != nil {
		return types.PointerTo(t.resolveTypeRef(ref.Pointer), ref.Mutable)
	}
	if ref.Reference != nil {
		return types.ReferenceTo(t.resolveTypeRef(ref.Reference), ref.Mutable)
	}

	name := ref.Name
	if len(ref.Path) > 0 {
		name = ref.Path[len(ref.Path)-1]
	}
	if kind, ok := primitiveByName[name]; ok && len(ref.Path) <= 1 {
		return types.NewPrimitive(kind)
	}

	if len(ref.Path) > 1 {
		return t.resolveQualifiedTypeRef(ref)
	}

	item, ok := t.Scope.Lookup(name)
	if !ok {
		t.Diags.Errorf(diagnostic.Type, ref.Loc, "undefined type %q", name)
		return types.NewPrimitive(types.Void)
	}
	if item.Kind != scope.ItemType {
		t.Diags.Errorf(diagnostic.Type, ref.Loc, "%q is not a type", name)
		return types.NewPrimitive(types.Void)
	}
	if item.Type != nil {
		if len(ref.Generics) > 0 {
			t.Diags.Errorf(diagnostic.Type, ref.Loc, "%q does not take generic arguments", name)
		}
		return item.Type
	}

	// item.Type == nil: a generic class base store, resolved by UUID on
	// first request (spec.md §4.5.4 step 1 "generic instantiation cache").
	generics := make([]types.Type, len(ref.Generics))
	for i, g := range ref.Generics {
		generics[i] = t.resolveTypeRef(g)
	}
	store := t.pipeline.Cache.Types(item.UUID)
	if store == nil {
		t.Diags.Errorf(diagnostic.Type, ref.Loc, "undefined type %q", name)
		return types.NewPrimitive(types.Void)
	}
	decl, ok := store.AST.(*ast.ClassDecl)
	if !ok {
		t.Diags.Errorf(diagnostic.Type, ref.Loc, "%q is not a generic class", name)
		return types.NewPrimitive(types.Void)
	}
	return t.instantiateClass(decl, item.UUID, store.DeclModule, generics)
}

// resolveQualifiedTypeRef resolves a "Module::Type" reference (spec.md
// §4.4 lookup order: the module segment resolves through the ordinary
// scope chain, then the type is looked up among that module's exports).
// Only one level of qualification is supported — a deliberate
// simplification recorded in DESIGN.md.
func (t *Transformer) resolveQualifiedTypeRef(ref *ast.TypeRef) types.Type {
	modName := ref.Path[0]
	typeName := ref.Path[len(ref.Path)-1]

	item, ok := t.Scope.Lookup(modName)
	if !ok || item.Kind != scope.ItemModule {
		t.Diags.Errorf(diagnostic.Type, ref.Loc, "undefined module %q", modName)
		return types.NewPrimitive(types.Void)
	}
	entry, ok := t.pipeline.Registry.Get(item.UUID)
	if !ok {
		t.Diags.Errorf(diagnostic.Import, ref.Loc, "module %q is not loaded", modName)
		return types.NewPrimitive(types.Void)
	}
	if sym, ok := entry.Exports[typeName]; ok && sym.Type != nil {
		if len(ref.Generics) == 0 {
			return sym.Type
		}
	}
	for _, ty := range entry.TypeInfo {
		if ty.Pretty() == typeName {
			return ty
		}
	}
	t.Diags.Errorf(diagnostic.Type, ref.Loc, "%s::%s is not exported", modName, typeName)
	return types.NewPrimitive(types.Void)
}
