package transform

import (
	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/ir"
)

// lowerInlineIR splices resolved types into an inline low-level IR body
// (spec.md §4.5.8): literal text chunks pass through verbatim, and
// type-access markers are resolved to their mangled form at this point
// so the emitter never has to re-enter the transformer.
func (t *Transformer) lowerInlineIR(chunks []ast.InlineIRChunk) []ir.InlineIRChunk {
	out := make([]ir.InlineIRChunk, len(chunks))
	for i, c := range chunks {
		if c.IsTypeAccess {
			out[i] = ir.InlineIRChunk{IsTypeAccess: true, TypeAccess: t.resolveTypeRef(c.TypeAccess)}
		} else {
			out[i] = ir.InlineIRChunk{Literal: c.Literal}
		}
	}
	return out
}
