package transform

import (
	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/scope"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/types"
)

func isVoidType(t types.Type) bool {
	p, ok := types.Unalias(t).(*types.Primitive)
	return ok && p.Kind == types.Void
}

// lowerFunctionBody lowers a function's block, pushing one lexical scope
// for its locals and synthesizing an implicit `return;` for void
// functions that don't already end in one (spec.md §4.5.7).
func (t *Transformer) lowerFunctionBody(body *ast.Block, retType types.Type) *ir.Block {
	if body == nil {
		return t.Builder.Block(source.NoSpan, nil)
	}
	var values []ir.Value
	t.Scope.WithScope(func() {
		for _, s := range body.Stmts {
			values = append(values, t.lowerStmt(s))
		}
	})

	if isVoidType(retType) {
		if n := len(values); n == 0 {
			values = append(values, t.Builder.Return(body.Span(), nil))
		} else if _, ok := values[n-1].(*ir.Return); !ok {
			values = append(values, t.Builder.Return(body.Span(), nil))
		}
	}
	return t.Builder.Block(body.Span(), values)
}

// lowerStmt lowers one ast.Stmt to an ir.Value (spec.md §4.5.6); every
// statement form produces a value so a block is simply an ordered list
// of ir.Value.
func (t *Transformer) lowerStmt(s ast.Stmt) ir.Value {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return t.lowerExpr(n.Value)
	case *ast.Block:
		var values []ir.Value
		t.Scope.WithScope(func() {
			for _, inner := range n.Stmts {
				values = append(values, t.lowerStmt(inner))
			}
		})
		return t.Builder.Block(n.Span(), values)
	case *ast.VariableDecl:
		return t.lowerVariableDecl(n)
	case *ast.Conditional:
		return t.lowerConditional(n)
	case *ast.WhileLoop:
		return t.lowerWhileLoop(n)
	case *ast.Return:
		var v ir.Value
		if n.Value != nil {
			v = t.lowerExpr(n.Value)
		}
		return t.Builder.Return(n.Span(), v)
	case *ast.Throw:
		return t.Builder.Throw(n.Span(), t.lowerExpr(n.Value))
	case *ast.Try:
		return t.lowerTry(n)
	case *ast.Switch:
		return t.lowerSwitch(n)
	case *ast.LoopFlow:
		kind := ir.FlowBreak
		if n.Kind == ast.FlowContinue {
			kind = ir.FlowContinue
		}
		return t.Builder.LoopFlow(n.Span(), kind)
	default:
		diagnostic.Unreachable("transform: unhandled stmt node")
		return nil
	}
}

// lowerVariableDecl implements spec.md §4.5.6's type-inference rule: the
// variable's type comes from the initializer if present, else the
// declared type; the builder itself performs this rule (ir.Builder.VarDecl).
func (t *Transformer) lowerVariableDecl(n *ast.VariableDecl) ir.Value {
	var init ir.Value
	if n.Init != nil {
		init = t.lowerExpr(n.Init)
	}
	var declared types.Type
	if n.Type != nil {
		declared = t.resolveTypeRef(n.Type)
	} else if init == nil {
		t.Diags.Errorf(diagnostic.Type, n.Span(), "variable %q needs a type or an initializer", n.Name)
		declared = types.NewPrimitive(types.Void)
	}
	decl := t.Builder.VarDecl(n.Span(), declared, n.Name, init, n.Mutable)
	t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: n.Name, Value: t.Builder.VarRef(n.Span(), decl.Type(), n.Name)})
	return decl
}

func (t *Transformer) lowerConditional(n *ast.Conditional) ir.Value {
	cond := t.lowerExpr(n.Cond)
	var then *ir.Block
	t.Scope.WithScope(func() {
		var values []ir.Value
		for _, s := range n.Then.Stmts {
			values = append(values, t.lowerStmt(s))
		}
		then = t.Builder.Block(n.Then.Span(), values)
	})
	var els ir.Value
	if n.Else != nil {
		els = t.lowerStmt(n.Else)
	}
	return t.Builder.Conditional(n.Span(), cond, then, els)
}

// lowerWhileLoop covers while/do-while/lowered-for, which the parser has
// already normalized onto one ast.WhileLoop shape (spec.md §4.5.6).
func (t *Transformer) lowerWhileLoop(n *ast.WhileLoop) ir.Value {
	cond := t.lowerExpr(n.Cond)
	var body *ir.Block
	t.Scope.WithScope(func() {
		var values []ir.Value
		for _, s := range n.Body.Stmts {
			values = append(values, t.lowerStmt(s))
		}
		body = t.Builder.Block(n.Body.Span(), values)
	})
	var step ir.Value
	if n.Step != nil {
		step = t.lowerExpr(n.Step)
	}
	return t.Builder.WhileLoop(n.Span(), cond, body, step, n.DoWhile)
}

func (t *Transformer) lowerTry(n *ast.Try) ir.Value {
	var body *ir.Block
	t.Scope.WithScope(func() {
		var values []ir.Value
		for _, s := range n.Body.Stmts {
			values = append(values, t.lowerStmt(s))
		}
		body = t.Builder.Block(n.Body.Span(), values)
	})
	catches := make([]ir.CatchArm, len(n.Catches))
	for i, c := range n.Catches {
		var catchBody *ir.Block
		t.Scope.WithScope(func() {
			varType := t.resolveTypeRef(c.Type)
			t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: c.Name, Value: t.Builder.VarRef(c.Loc, varType, c.Name)})
			var values []ir.Value
			for _, s := range c.Body.Stmts {
				values = append(values, t.lowerStmt(s))
			}
			catchBody = t.Builder.Block(c.Body.Span(), values)
			catches[i] = ir.CatchArm{VarName: c.Name, VarType: varType, Body: catchBody}
		})
	}
	return t.Builder.Try(n.Span(), body, catches)
}

// lowerSwitch lowers both pattern-matching and C-style switches (spec.md
// §4.5.6); a pattern switch's case binds its payload name into the case
// block's scope.
func (t *Transformer) lowerSwitch(n *ast.Switch) ir.Value {
	subject := t.lowerExpr(n.Subject)
	kind := ir.SwitchPattern
	if n.Kind == ast.SwitchCStyle {
		kind = ir.SwitchCStyle
	}
	cases := make([]ir.SwitchCase, len(n.Cases))
	for i, c := range n.Cases {
		var variantOrConst string
		if ident, ok := c.Pattern.(*ast.Identifier); ok {
			variantOrConst = ident.Path[len(ident.Path)-1]
		}
		var body *ir.Block
		t.Scope.WithScope(func() {
			if c.Binding != "" {
				t.Scope.Define(scope.Item{Kind: scope.ItemValue, Name: c.Binding, Value: t.Builder.VarRef(c.Loc, types.NewPrimitive(types.Void), c.Binding)})
			}
			var values []ir.Value
			for _, s := range c.Body.Stmts {
				values = append(values, t.lowerStmt(s))
			}
			body = t.Builder.Block(c.Body.Span(), values)
		})
		cases[i] = ir.SwitchCase{VariantOrConst: variantOrConst, Binding: c.Binding, Body: body}
	}
	var def *ir.Block
	if n.Default != nil {
		t.Scope.WithScope(func() {
			var values []ir.Value
			for _, s := range n.Default.Stmts {
				values = append(values, t.lowerStmt(s))
			}
			def = t.Builder.Block(n.Default.Span(), values)
		})
	} else if n.Kind == ast.SwitchPattern {
		t.Diags.Errorf(diagnostic.Type, n.Span(), "pattern switch is not exhaustive: missing default case")
	}
	return t.Builder.Switch(n.Span(), kind, subject, cases, def)
}
