// Package analyze implements the post-transform analyzer passes of
// spec.md §4.7: definite assignment, exhaustive return, and secondary
// type-check consistency. It walks internal/ir rather than internal/ast —
// the transformer has already resolved every name and call by the time
// these passes run, so an analyzer only has to confirm the IR it produced
// is internally consistent, not re-derive meaning from source.
//
// The shape (a stateful walker with an Options/Result pair) is grounded on
// the teacher's internal/validator.Validator: a single struct carrying the
// module, diagnostics sink, and current-function context, driven by a
// top-level Analyze/Run method.
package analyze

import (
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
)

// Options controls analyzer behavior.
type Options struct {
	// StrictMode treats warnings raised by these passes as errors (unused
	// today — every diagnostic these passes raise is already an error —
	// kept for parity with the teacher's Options shape and future passes
	// that may want to warn instead of error).
	StrictMode bool
}

// Result summarizes one analyzer run.
type Result struct {
	Valid       bool
	Diagnostics *diagnostic.List
}

// Analyzer walks a compiled module's functions and runs every analyzer
// pass over each one.
type Analyzer struct {
	module  *ir.Module
	diags   *diagnostic.List
	options Options
}

// New creates an Analyzer for one module's functions, reporting through
// diags (the same diagnostic.List the transformer already populated, so
// analyzer errors share the module's error budget, spec.md §7).
func New(module *ir.Module, diags *diagnostic.List, options Options) *Analyzer {
	return &Analyzer{module: module, diags: diags, options: options}
}

// Run executes every analyzer pass over every function in the module and
// reports whether the module is still valid afterward.
func (a *Analyzer) Run() Result {
	functions := make([]*ir.Function, 0, len(a.module.Functions))
	functions = append(functions, a.module.Functions...)
	if a.module.GlobalCtor != nil {
		functions = append(functions, a.module.GlobalCtor)
	}

	for _, fn := range functions {
		a.checkDefiniteAssignment(fn)
		a.checkExhaustiveReturn(fn)
	}

	a.checkCallConsistency(functions)

	return Result{Valid: !a.diags.HasErrors(), Diagnostics: a.diags}
}
