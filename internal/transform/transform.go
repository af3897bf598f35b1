// Package transform implements the semantic-analysis transformer
// (spec.md §4.5): the two-phase AST walker that resolves symbols, infers
// types, performs overload resolution, instantiates generics, builds
// class layouts, and lowers every expression/statement form into
// internal/ir values. It is the hub that every other package (scope,
// symtab, types, ir, importer, modreg, diagnostic) is built to serve.
package transform

import (
	"fmt"

	"github.com/novalang/novac/internal/analyze"
	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/importer"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/modreg"
	"github.com/novalang/novac/internal/parser"
	"github.com/novalang/novac/internal/scope"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/symtab"
	"github.com/novalang/novac/internal/types"
)

// Pipeline owns the state shared across every module a compilation
// transforms: the symbol cache and module registry spec.md §5 says are
// "single-writer per compilation", the import driver, and the
// supporting side tables the transformer needs but that don't belong on
// internal/types' minimal Defined type (instantiation bookkeeping,
// per-instance method tables).
type Pipeline struct {
	Cache    *symtab.Cache
	Registry *modreg.Registry
	Importer *importer.Driver
	Roots    importer.Roots

	// ReadSource loads the text for a resolved file path. Injected so the
	// core never touches the filesystem directly (spec.md §1: file I/O is
	// an external collaborator's concern via the command-line driver).
	ReadSource func(path string) (string, error)

	// genericInstances maps a type-store UUID to the per-argument-list
	// instantiation count already assigned, giving cache idempotence
	// (spec.md §8 property 3) without requiring Defined.UUID itself to be
	// deterministic.
	genericInstances map[string]map[string]int

	// methodsByInstance indexes every generated method IR by the owning
	// instantiation's InstanceKey, since internal/types.Defined
	// deliberately carries no back-reference to its methods (spec.md
	// "Design notes": "avoid owning back-references").
	methodsByInstance map[string][]*ir.Function

	// genericFuncInstances mirrors genericInstances for top-level generic
	// functions (spec.md §4.5.3 step 4).
	genericFuncInstances map[string]map[string]int

	// generated tracks instance keys (class instantiations or
	// "<uuid>:<argsKey>" function instantiations) whose bodies have
	// already been generated, so Phase B visiting the same declaration
	// from two different import paths never double-emits a body.
	generated map[string]bool

	// ErrorBudget overrides diagnostic.DefaultErrorBudget (spec.md §7) for
	// every module this pipeline compiles. Zero means "use the default";
	// set by the command-line driver before CompileFile is called.
	ErrorBudget int

	// stdString is the canonical placeholder for std::String, the implicit
	// return type of the call an unprefixed string literal lowers to
	// (spec.md §4.5.1). Built lazily and shared across every module this
	// pipeline compiles, so two string literals' lowered types compare
	// equal instead of minting a fresh UUID per literal.
	stdString *types.Defined
}

// stdStringType returns the canonical std::String placeholder type,
// creating it on first use.
func (p *Pipeline) stdStringType() *types.Defined {
	if p.stdString == nil {
		p.stdString = &types.Defined{
			UUID: newDefinedUUID(), ModuleName: "std", Name: "String", HasConstructor: true,
		}
	}
	return p.stdString
}

func (p *Pipeline) bodiesGenerated(instanceKey string) bool { return p.generated[instanceKey] }

func (p *Pipeline) markBodiesGenerated(instanceKey string) { p.generated[instanceKey] = true }

// NewPipeline creates a pipeline ready to compile an entry module and any
// modules it imports.
func NewPipeline(roots importer.Roots, readSource func(path string) (string, error)) *Pipeline {
	p := &Pipeline{
		Cache:                 symtab.New(),
		Registry:              modreg.New(),
		Roots:                 roots,
		ReadSource:            readSource,
		genericInstances:      make(map[string]map[string]int),
		methodsByInstance:     make(map[string][]*ir.Function),
		genericFuncInstances:  make(map[string]map[string]int),
		generated:             make(map[string]bool),
	}
	p.Importer = importer.New(roots, p.Cache, p.Registry)
	p.Importer.Compile = p.compileForImport
	return p
}

// CompileFile is the public entry point (spec.md §6, driven by the
// command-line driver): lex, parse, transform Phase A + Phase B, and run
// the analyzer passes for a single top-level source file.
func (p *Pipeline) CompileFile(resolvedPath string) (*ir.Module, *diagnostic.List, error) {
	text, err := p.ReadSource(resolvedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", resolvedPath, err)
	}
	buf := source.NewBuffer(resolvedPath, text)
	diags := diagnostic.NewList(buf)
	if p.ErrorBudget > 0 {
		diags.SetErrorBudget(p.ErrorBudget)
	}
	m, err := p.compileForImport(resolvedPath, buf, diags)
	return m, diags, err
}

// compileForImport matches the signature internal/importer.Driver.Compile
// expects, letting the import driver recurse into dependencies without
// this package depending back on importer for anything but that type.
func (p *Pipeline) compileForImport(resolvedPath string, buf *source.Buffer, diags *diagnostic.List) (*ir.Module, error) {
	prs := parser.New(buf)
	file, perrs := prs.Parse()
	for _, pe := range perrs {
		diags.Errorf(diagnostic.Syntax, pe.Span, "%s", pe.Message)
	}

	uniqueName := mangleModuleName(resolvedPath)
	mod := ir.NewModule(uniqueName, displayName(resolvedPath), resolvedPath)

	tr := &Transformer{
		pipeline: p,
		Scope:    scope.New(),
		Builder:  ir.NewBuilder(),
		Diags:    diags,
		Buf:      buf,
		Module:   mod,
	}
	tr.Scope.CurrentModule = mod

	// Phase A: declare (spec.md §4.5 "generate_function = false").
	tr.Scope.GenerateFunction = false
	for _, d := range file.Declarations {
		if diags.Halted() {
			break
		}
		tr.transformTopDecl(d)
	}

	// Phase B: generate (spec.md §4.5 "generate_function = true").
	tr.Scope.GenerateFunction = true
	for _, d := range file.Declarations {
		if diags.Halted() {
			break
		}
		tr.transformTopDecl(d)
	}

	// Analyzer passes (spec.md §4.7): run once the module's IR is fully
	// built, even if earlier diagnostics were raised, so a single bad
	// declaration doesn't hide unrelated analyzer findings elsewhere in
	// the same module.
	if !diags.Halted() {
		analyze.New(mod, diags, analyze.Options{}).Run()
	}

	return mod, nil
}

// displayName turns a resolved file path into a human-readable module
// name for diagnostics (e.g. "std/io.nova" -> "std::io").
func displayName(resolvedPath string) string {
	return moduleDisplayFromPath(resolvedPath)
}

// Transformer is the per-module AST walker (spec.md §4.5). It holds the
// scope stack/context, the IR builder, this module's diagnostic list, and
// a back-reference to the pipeline-wide shared state.
type Transformer struct {
	pipeline *Pipeline
	Scope    *scope.Stack
	Builder  *ir.Builder
	Diags    *diagnostic.List
	Buf      *source.Buffer
	Module   *ir.Module
}

// sub creates a child Transformer for a generic instantiation or nested
// namespace that needs its own scope but shares every pipeline-wide
// table (spec.md "Design notes": encapsulate global state in a context
// value passed by exclusive reference).
func (t *Transformer) sub() *Transformer {
	child := *t
	return &child
}

// ----------------------------------------------------------------------------
// Top-level declaration dispatch
// ----------------------------------------------------------------------------

func (t *Transformer) transformTopDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.Import:
		if !t.Scope.GenerateFunction {
			t.transformImport(n)
		}
	case *ast.Namespace:
		t.transformNamespace(n)
	case *ast.ClassDecl:
		t.declareOrGenerateClass(n)
	case *ast.FunctionDecl:
		t.declareOrGenerateFunction(n)
	case *ast.AliasDecl:
		if !t.Scope.GenerateFunction {
			t.transformAlias(n)
		}
	case *ast.EnumDecl:
		if !t.Scope.GenerateFunction {
			t.transformEnum(n)
		}
	case *ast.MacroDecl:
		if !t.Scope.GenerateFunction {
			t.transformMacro(n)
		}
	default:
		diagnostic.Unreachable(fmt.Sprintf("transform: unhandled top-level decl %T", d))
	}
}

func (t *Transformer) transformNamespace(n *ast.Namespace) {
	// A namespace is a nested module whose uniqueness derives from the
	// enclosing module's UUID plus the namespace name (spec.md §4.5
	// "Namespaces recursively enter a nested module").
	child := t.sub()
	nested := ir.NewModule(t.Module.UniqueName+"."+n.Name, t.Module.DisplayName+"::"+n.Name, t.Module.SourcePath)
	if !t.Scope.GenerateFunction {
		item := scope.Item{Kind: scope.ItemModule, Name: n.Name, UUID: nested.UniqueName}
		if err := t.Scope.Define(item); err != nil {
			t.Diags.Errorf(diagnostic.Import, n.Span(), "%s", err.Error())
		}
	}
	child.Module = nested
	child.Scope = t.Scope
	child.Scope.WithModule(nested, func() {
		child.Scope.WithScope(func() {
			for _, decl := range n.Body {
				child.transformTopDecl(decl)
			}
		})
	})
}

func (t *Transformer) transformAlias(n *ast.AliasDecl) {
	base := t.resolveTypeRef(n.Type)
	alias := &types.Alias{Name: n.Name, Base: base}
	uuid := symtab.BuildUUID(t.Module.UniqueName, n.Name)
	t.pipeline.Cache.DeclareAlias(uuid, &symtab.AliasEntry{UUID: uuid, Type: alias})
	if err := t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: n.Name, Type: alias}); err != nil {
		t.Diags.Errorf(diagnostic.Type, n.Span(), "%s", err.Error())
	}
}

func (t *Transformer) transformEnum(n *ast.EnumDecl) {
	e := &types.Enum{UUID: newDefinedUUID(), ModuleName: t.Module.UniqueName, Name: n.Name}
	for _, v := range n.Variants {
		var payload []types.Type
		for _, p := range v.Payload {
			payload = append(payload, t.resolveTypeRef(p))
		}
		e.Variants = append(e.Variants, types.EnumVariant{Name: v.Name, Payload: payload})
	}
	t.Module.TypeInfo[e.UUID.String()] = e
	if err := t.Scope.Define(scope.Item{Kind: scope.ItemType, Name: n.Name, Type: e}); err != nil {
		t.Diags.Errorf(diagnostic.Type, n.Span(), "%s", err.Error())
	}
}

func (t *Transformer) transformMacro(n *ast.MacroDecl) {
	uuid := symtab.BuildUUID(t.Module.UniqueName, n.Name)
	t.pipeline.Cache.DeclareMacro(uuid, &symtab.MacroEntry{UUID: uuid, AST: n})
	if err := t.Scope.Define(scope.Item{Kind: scope.ItemMacro, Name: n.Name, UUID: uuid}); err != nil {
		t.Diags.Errorf(diagnostic.Attribute, n.Span(), "%s", err.Error())
	}
	if ast.Has(n.Attributes, ast.AttrExport) {
		t.Module.ExportedMacros = append(t.Module.ExportedMacros, n.Name)
	}
}

// ----------------------------------------------------------------------------
// Imports (spec.md §4.6)
// ----------------------------------------------------------------------------

func (t *Transformer) transformImport(n *ast.Import) {
	exportName := importer.ExportName(n.Components, n.Alias)
	if _, exists := t.Scope.Lookup(exportName); exists {
		t.Diags.Errorf(diagnostic.Import, n.Span(), "%q is already defined", exportName)
		return
	}

	mod, moduleUUID, err := t.pipeline.Importer.Import(n.Package, n.Components, t.pipeline.ReadSource)
	if err != nil {
		if _, ok := err.(*importer.CycleError); ok {
			t.Diags.Errorf(diagnostic.Import, n.Span(), "%s", err.Error())
		} else {
			t.Diags.Errorf(diagnostic.IO, n.Span(), "%s", err.Error())
		}
		return
	}

	if err := t.Scope.Define(scope.Item{Kind: scope.ItemModule, Name: exportName, UUID: moduleUUID}); err != nil {
		t.Diags.Errorf(diagnostic.Import, n.Span(), "%s", err.Error())
		return
	}
	t.pipeline.Registry.Put(moduleUUID, mod)

	if macroAttr, ok := ast.Find(n.Attributes, ast.AttrMacros); ok {
		var names []string
		for _, a := range macroAttr.Args {
			names = append(names, a.Value)
		}
		err := importer.ReexportMacros(mod, names, func(name string) error {
			return t.Scope.Define(scope.Item{Kind: scope.ItemMacro, Name: name, UUID: symtab.BuildUUID(mod.UniqueName, name)})
		})
		if err != nil {
			t.Diags.Errorf(diagnostic.Import, n.Span(), "%s", err.Error())
		}
	}
}
