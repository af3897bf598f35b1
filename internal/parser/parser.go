// Package parser implements a minimal reference parser (spec.md §6
// "Parser (upstream)"): it consumes the token stream produced by
// internal/lexer and builds the AST node set internal/ast defines. It is
// "minimal" in the sense spec.md uses the word for this collaborator —
// enough syntax to drive every construct internal/transform consumes,
// not a full error-recovery production parser.
package parser

import (
	"fmt"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/lexer"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/token"
)

// ParseError is one syntax diagnostic raised while parsing.
type ParseError struct {
	Message string
	Span    source.Span
}

func (e ParseError) Error() string { return e.Message }

// Parser turns a token stream into an ast.File.
type Parser struct {
	buf    *source.Buffer
	tokens []lexer.Token
	pos    int

	scope   *ast.Scope
	symbols []ast.Symbol

	errors []ParseError
}

// New creates a parser for the given source buffer, lexing it eagerly.
func New(buf *source.Buffer) *Parser {
	toks := lexer.New(buf.Text).Tokenize()
	return &Parser{
		buf:     buf,
		tokens:  toks,
		scope:   ast.NewScope(nil),
		symbols: make([]ast.Symbol, 0),
	}
}

// Parse runs the parser to completion and returns the file plus any
// syntax errors collected along the way.
func (p *Parser) Parse() (*ast.File, []ParseError) {
	file := &ast.File{Buf: p.buf, Scope: p.scope}
	for !p.at(token.EOF) {
		if d := p.parseDecl(); d != nil {
			file.Declarations = append(file.Declarations, d)
		} else {
			p.advance() // skip the offending token to make forward progress
		}
	}
	file.Symbols = p.symbols
	return file, p.errors
}

// ----------------------------------------------------------------------------
// Token helpers
// ----------------------------------------------------------------------------

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return lexer.Token{Kind: token.EOF}
	}
	return p.tokens[i]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) span() source.Span {
	t := p.cur()
	return source.Span{Start: t.Start, End: t.End}
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) accept(k token.Kind) (lexer.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(k token.Kind) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf("expected %s, got %s", k, p.cur().Kind)
	return p.cur()
}

func (p *Parser) errorf(format string, args ...any) {
	t := p.cur()
	p.errors = append(p.errors, ParseError{
		Message: fmt.Sprintf(format, args...),
		Span:    source.Span{Start: t.Start, End: t.End},
	})
}

func (p *Parser) text(t lexer.Token) string { return t.Text(p.buf.Text) }

// declare records name in the innermost parser-time scope, for the
// symbol table the AST carries (spec.md §3 "symbols").
func (p *Parser) declare(name string, kind ast.SymbolKind, loc source.Span) ast.Ref {
	ref := ast.Ref{ModuleIndex: 0, SymbolIndex: uint32(len(p.symbols))}
	p.symbols = append(p.symbols, ast.Symbol{OriginalName: name, Loc: loc, Kind: kind})
	p.scope.Members[name] = ast.ScopeMember{Ref: ref, Loc: loc.Start}
	return ref
}

func (p *Parser) pushScope() {
	child := ast.NewScope(p.scope)
	p.scope.Children = append(p.scope.Children, child)
	p.scope = child
}

func (p *Parser) popScope() {
	if p.scope.Parent != nil {
		p.scope = p.scope.Parent
	}
}

// ----------------------------------------------------------------------------
// Attributes
// ----------------------------------------------------------------------------

func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.at(token.At) {
		start := p.span()
		p.advance()
		name := p.text(p.expect(token.Ident))
		var args []ast.AttributeArg
		if _, ok := p.accept(token.LParen); ok {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				first := p.text(p.expect(token.Ident))
				if _, ok := p.accept(token.Eq); ok {
					val := p.text(p.advance())
					args = append(args, ast.AttributeArg{Key: first, Value: val})
				} else {
					args = append(args, ast.AttributeArg{Value: first})
				}
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			p.expect(token.RParen)
		}
		attrs = append(attrs, ast.Attribute{Loc: start, Name: ast.AttributeName(name), Args: args})
	}
	return attrs
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func (p *Parser) parseDecl() ast.Decl {
	attrs := p.parseAttributes()

	switch p.cur().Kind {
	case token.KwImport:
		return p.parseImport()
	case token.KwNamespace, token.KwModule:
		return p.parseNamespace()
	case token.KwClass, token.KwStruct, token.KwInterface:
		return p.parseClassLike(attrs)
	case token.KwFunc:
		return p.parseFunction(attrs, false)
	case token.Ident:
		if p.text(p.cur()) == "type" {
			return p.parseAlias()
		}
		if p.text(p.cur()) == "enum" {
			return p.parseEnum()
		}
	case token.KwMacro:
		return p.parseMacro(attrs)
	}

	if len(attrs) > 0 {
		p.errorf("attributes must be followed by a declaration")
	}
	p.errorf("expected a declaration, got %s", p.cur().Kind)
	return nil
}

func (p *Parser) parseImport() *ast.Import {
	start := p.span()
	p.advance() // import

	pkg := p.text(p.expect(token.Ident))
	var components []string
	for {
		if _, ok := p.accept(token.ColonColon); !ok {
			break
		}
		components = append(components, p.text(p.expect(token.Ident)))
	}

	alias := ""
	if t, ok := p.accept(token.Ident); ok {
		if p.text(t) == "as" {
			alias = p.text(p.expect(token.Ident))
		} else {
			p.pos-- // not an "as" clause, put the token back
		}
	}

	attrs := p.parseAttributes()
	p.accept(token.Semicolon)

	end := p.span()
	return &ast.Import{
		BaseDecl:   ast.BaseDecl{Loc: start.Merge(end)},
		Package:    pkg,
		Components: components,
		Alias:      alias,
		Attributes: attrs,
	}
}

func (p *Parser) parseNamespace() *ast.Namespace {
	start := p.span()
	p.advance()
	name := p.text(p.expect(token.Ident))
	p.expect(token.LBrace)
	p.pushScope()
	var body []ast.Decl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if d := p.parseDecl(); d != nil {
			body = append(body, d)
		} else {
			p.advance()
		}
	}
	p.popScope()
	end := p.span()
	p.expect(token.RBrace)
	return &ast.Namespace{BaseDecl: ast.BaseDecl{Loc: start.Merge(end)}, Name: name, Body: body}
}

func (p *Parser) parseTypeRef() *ast.TypeRef {
	start := p.span()
	if _, ok := p.accept(token.Star); ok {
		mutable := false
		if _, ok := p.accept(token.KwMut); ok {
			mutable = true
		}
		elem := p.parseTypeRef()
		return &ast.TypeRef{Loc: start.Merge(elem.Loc), Pointer: elem, Mutable: mutable}
	}
	if _, ok := p.accept(token.Amp); ok {
		mutable := false
		if _, ok := p.accept(token.KwMut); ok {
			mutable = true
		}
		elem := p.parseTypeRef()
		return &ast.TypeRef{Loc: start.Merge(elem.Loc), Reference: elem, Mutable: mutable}
	}

	var path []string
	path = append(path, p.text(p.expect(token.Ident)))
	for {
		if _, ok := p.accept(token.ColonColon); !ok {
			break
		}
		path = append(path, p.text(p.expect(token.Ident)))
	}

	var generics []*ast.TypeRef
	if _, ok := p.accept(token.Lt); ok {
		for !p.at(token.Gt) && !p.at(token.EOF) {
			generics = append(generics, p.parseTypeRef())
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.expect(token.Gt)
	}

	end := p.span()
	return &ast.TypeRef{
		Loc:      start.Merge(end),
		Name:     path[len(path)-1],
		Path:     path,
		Generics: generics,
	}
}

func (p *Parser) parseGenericParams() []ast.GenericParam {
	var params []ast.GenericParam
	if _, ok := p.accept(token.Lt); !ok {
		return nil
	}
	for !p.at(token.Gt) && !p.at(token.EOF) {
		start := p.span()
		name := p.text(p.expect(token.Ident))
		var where []*ast.TypeRef
		if _, ok := p.accept(token.Colon); ok {
			where = append(where, p.parseTypeRef())
			for {
				if _, ok := p.accept(token.Plus); !ok {
					break
				}
				where = append(where, p.parseTypeRef())
			}
		}
		var def *ast.TypeRef
		if _, ok := p.accept(token.Eq); ok {
			def = p.parseTypeRef()
		}
		params = append(params, ast.GenericParam{Loc: start, Name: name, WhereClause: where, Default: def})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.Gt)
	return params
}

func (p *Parser) parseClassLike(attrs []ast.Attribute) *ast.ClassDecl {
	start := p.span()
	kind := ast.KindClass
	switch p.cur().Kind {
	case token.KwStruct:
		kind = ast.KindStruct
	case token.KwInterface:
		kind = ast.KindInterface
	}
	p.advance()

	name := p.text(p.expect(token.Ident))
	generics := p.parseGenericParams()

	var parent *ast.TypeRef
	if _, ok := p.accept(token.KwExtends); ok {
		parent = p.parseTypeRef()
	}
	var implements []*ast.TypeRef
	if _, ok := p.accept(token.KwImplements); ok {
		implements = append(implements, p.parseTypeRef())
		for {
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
			implements = append(implements, p.parseTypeRef())
		}
	}

	selfRef := p.declare(name, ast.SymbolClass, start)

	p.expect(token.LBrace)
	p.pushScope()
	decl := &ast.ClassDecl{
		BaseDecl:   ast.BaseDecl{Loc: start},
		Attributes: attrs,
		Kind:       kind,
		Name:       name,
		Generics:   generics,
		Parent:     parent,
		Implements: implements,
		SelfRef:    selfRef,
	}

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		memberAttrs := p.parseAttributes()
		privacy := p.parsePrivacy()
		mods := map[token.Kind]bool{}
		for p.at(token.KwStatic) || p.at(token.KwVirtual) || p.at(token.KwOverride) {
			mods[p.advance().Kind] = true
		}

		switch {
		case p.at(token.KwFunc):
			fn := p.parseFunction(memberAttrs, true)
			fn.Privacy = privacy
			fn.Static = fn.Static || mods[token.KwStatic]
			fn.Virtual = fn.Virtual || mods[token.KwVirtual]
			fn.Override = fn.Override || mods[token.KwOverride]
			decl.Methods = append(decl.Methods, fn)
		case p.at(token.Ident) && p.text(p.cur()) == "type":
			decl.Aliases = append(decl.Aliases, p.parseAlias())
		default:
			decl.Fields = append(decl.Fields, p.parseField(privacy))
		}
	}
	p.popScope()
	end := p.span()
	p.expect(token.RBrace)
	decl.Loc = start.Merge(end)
	return decl
}

func (p *Parser) parsePrivacy() ast.Privacy {
	switch p.cur().Kind {
	case token.KwPublic:
		p.advance()
		return ast.Public
	case token.KwPrivate:
		p.advance()
		return ast.Private
	case token.KwProtected:
		p.advance()
		return ast.Protected
	default:
		return ast.Public
	}
}

func (p *Parser) parseField(privacy ast.Privacy) ast.FieldDecl {
	start := p.span()
	mutable := false
	switch p.cur().Kind {
	case token.KwLet:
		p.advance()
	case token.KwVar:
		mutable = true
		p.advance()
	}
	name := p.text(p.expect(token.Ident))
	var typ *ast.TypeRef
	if _, ok := p.accept(token.Colon); ok {
		typ = p.parseTypeRef()
	}
	var def ast.Expr
	if _, ok := p.accept(token.Eq); ok {
		def = p.parseExpr()
	}
	p.accept(token.Semicolon)
	return ast.FieldDecl{Loc: start, Name: name, Type: typ, Default: def, Privacy: privacy, Mutable: mutable}
}

func (p *Parser) parseAlias() *ast.AliasDecl {
	start := p.span()
	p.advance() // "type"
	name := p.text(p.expect(token.Ident))
	p.expect(token.Eq)
	typ := p.parseTypeRef()
	p.accept(token.Semicolon)
	return &ast.AliasDecl{BaseDecl: ast.BaseDecl{Loc: start.Merge(typ.Loc)}, Name: name, Type: typ}
}

func (p *Parser) parseEnum() *ast.EnumDecl {
	start := p.span()
	p.advance() // "enum"
	name := p.text(p.expect(token.Ident))
	selfRef := p.declare(name, ast.SymbolEnum, start)
	p.expect(token.LBrace)
	var variants []ast.EnumVariant
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		vstart := p.span()
		vname := p.text(p.expect(token.Ident))
		var payload []*ast.TypeRef
		if _, ok := p.accept(token.LParen); ok {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				payload = append(payload, p.parseTypeRef())
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			p.expect(token.RParen)
		}
		variants = append(variants, ast.EnumVariant{Loc: vstart, Name: vname, Payload: payload})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	end := p.span()
	p.expect(token.RBrace)
	return &ast.EnumDecl{BaseDecl: ast.BaseDecl{Loc: start.Merge(end)}, Name: name, Variants: variants, SelfRef: selfRef}
}

func (p *Parser) parseMacro(attrs []ast.Attribute) *ast.MacroDecl {
	start := p.span()
	p.advance() // macro
	name := p.text(p.expect(token.Ident))
	var params []string
	p.expect(token.LParen)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		params = append(params, p.text(p.expect(token.Ident)))
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)
	body := p.parseBlock()
	end := p.span()
	return &ast.MacroDecl{
		BaseDecl: ast.BaseDecl{Loc: start.Merge(end)},
		Attributes: attrs, Name: name, Params: params, Body: body.Stmts,
	}
}

func (p *Parser) parseFunction(attrs []ast.Attribute, isMethod bool) *ast.FunctionDecl {
	start := p.span()
	p.advance() // func

	static := false
	virtual := false
	override := false
	for {
		switch p.cur().Kind {
		case token.KwStatic:
			static = true
			p.advance()
			continue
		case token.KwVirtual:
			virtual = true
			p.advance()
			continue
		case token.KwOverride:
			override = true
			p.advance()
			continue
		}
		break
	}

	name := p.parseFunctionName()
	generics := p.parseGenericParams()

	p.expect(token.LParen)
	p.pushScope()
	var params []ast.Parameter
	for !p.at(token.RParen) && !p.at(token.EOF) {
		params = append(params, p.parseParameter())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)

	var ret *ast.TypeRef
	if !p.at(token.LBrace) && !p.at(token.Semicolon) {
		ret = p.parseTypeRef()
	}

	decl := &ast.FunctionDecl{
		BaseDecl:   ast.BaseDecl{Loc: start},
		Attributes: attrs,
		Name:       name,
		Generics:   generics,
		Parameters: params,
		ReturnType: ret,
		Static:     static,
		Virtual:    virtual,
		Override:   override,
	}

	if ast.Has(attrs, ast.AttrLLVMFunc) {
		decl.BodyKind = ast.BodyInlineIR
		decl.InlineIR = p.parseInlineIR()
	} else if _, ok := p.accept(token.Semicolon); ok {
		decl.BodyKind = ast.BodyExtern
	} else {
		decl.BodyKind = ast.BodyBlock
		decl.Body = p.parseBlock()
	}

	if exp, ok := ast.Find(attrs, ast.AttrExport); ok {
		if n, ok := exp.Get("name"); ok {
			decl.ExternalName = n
		}
	}

	p.popScope()
	decl.Loc = start.Merge(decl.Loc)
	if !isMethod {
		decl.SelfRef = p.declare(name, ast.SymbolFunction, start)
	}
	return decl
}

// parseFunctionName accepts a plain identifier or `#<operator>` /
// `#name` pseudo-variable spelling for operator-overload declarations
// (spec.md §6 "operator identifiers ... encoded as `#<symbol>` tokens").
func (p *Parser) parseFunctionName() string {
	if p.at(token.PseudoVar) {
		t := p.advance()
		return p.text(t)[1:] // strip the leading '#'
	}
	return p.text(p.expect(token.Ident))
}

func (p *Parser) parseParameter() ast.Parameter {
	start := p.span()
	variadic := false
	if _, ok := p.accept(token.DotDot); ok {
		variadic = true
	}
	name := p.text(p.expect(token.Ident))
	var typ *ast.TypeRef
	if _, ok := p.accept(token.Colon); ok {
		typ = p.parseTypeRef()
	}
	var def ast.Expr
	if _, ok := p.accept(token.Eq); ok {
		def = p.parseExpr()
	}
	if typ != nil {
		p.declare(name, ast.SymbolValue, start)
	}
	return ast.Parameter{Loc: start, Name: name, Type: typ, Default: def, Variadic: variadic}
}

// parseInlineIR scans a `llvm_func` body: a brace-delimited sequence of
// chunks, where `${T}` substitutes a type's mangled name at emission
// time (spec.md §4.5.8 "chunk sequence with type-access substitution" —
// the evolution form per spec.md §9's open question).
func (p *Parser) parseInlineIR() []ast.InlineIRChunk {
	p.expect(token.LBrace)
	var chunks []ast.InlineIRChunk
	depth := 1
	var literal []byte
	flush := func() {
		if len(literal) > 0 {
			chunks = append(chunks, ast.InlineIRChunk{Literal: string(literal)})
			literal = nil
		}
	}
	for depth > 0 && !p.at(token.EOF) {
		if p.at(token.Dollar) {
			p.advance()
			if _, ok := p.accept(token.LBrace); ok {
				flush()
				typ := p.parseTypeRef()
				p.expect(token.RBrace)
				chunks = append(chunks, ast.InlineIRChunk{IsTypeAccess: true, TypeAccess: typ})
				continue
			}
			literal = append(literal, '$')
			continue
		}
		if p.at(token.LBrace) {
			depth++
		}
		if p.at(token.RBrace) {
			depth--
			if depth == 0 {
				break
			}
		}
		t := p.advance()
		literal = append(literal, []byte(p.text(t))...)
		literal = append(literal, ' ')
	}
	flush()
	p.expect(token.RBrace)
	return chunks
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseBlock() *ast.Block {
	start := p.span()
	p.expect(token.LBrace)
	p.pushScope()
	var stmts []ast.Stmt
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	p.popScope()
	end := p.span()
	p.expect(token.RBrace)
	return &ast.Block{BaseStmt: ast.BaseStmt{Loc: start.Merge(end)}, Stmts: stmts}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwLet, token.KwVar:
		return p.parseVariableDecl()
	case token.KwIf:
		return p.parseConditional()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwFor:
		return p.parseForLowered()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwThrow:
		return p.parseThrow()
	case token.KwTry:
		return p.parseTry()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwBreak:
		start := p.span()
		p.advance()
		p.accept(token.Semicolon)
		return &ast.LoopFlow{BaseStmt: ast.BaseStmt{Loc: start}, Kind: ast.FlowBreak}
	case token.KwContinue:
		start := p.span()
		p.advance()
		p.accept(token.Semicolon)
		return &ast.LoopFlow{BaseStmt: ast.BaseStmt{Loc: start}, Kind: ast.FlowContinue}
	default:
		start := p.span()
		e := p.parseExpr()
		p.accept(token.Semicolon)
		return &ast.ExprStmt{BaseStmt: ast.BaseStmt{Loc: start.Merge(e.Span())}, Value: e}
	}
}

func (p *Parser) parseVariableDecl() *ast.VariableDecl {
	start := p.span()
	mutable := p.cur().Kind == token.KwVar
	p.advance()
	name := p.text(p.expect(token.Ident))
	var typ *ast.TypeRef
	if _, ok := p.accept(token.Colon); ok {
		typ = p.parseTypeRef()
	}
	var init ast.Expr
	if _, ok := p.accept(token.Eq); ok {
		init = p.parseExpr()
	}
	p.accept(token.Semicolon)
	selfRef := p.declare(name, ast.SymbolValue, start)
	return &ast.VariableDecl{BaseStmt: ast.BaseStmt{Loc: start}, Name: name, Type: typ, Init: init, Mutable: mutable, SelfRef: selfRef}
}

func (p *Parser) parseConditional() *ast.Conditional {
	start := p.span()
	p.advance() // if
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseBlock()
	var els ast.Stmt
	if _, ok := p.accept(token.KwElse); ok {
		if p.at(token.KwIf) {
			els = p.parseConditional()
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.Conditional{BaseStmt: ast.BaseStmt{Loc: start}, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() *ast.WhileLoop {
	start := p.span()
	p.advance()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.WhileLoop{BaseStmt: ast.BaseStmt{Loc: start}, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() *ast.WhileLoop {
	start := p.span()
	p.advance() // do
	body := p.parseBlock()
	p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	p.accept(token.Semicolon)
	return &ast.WhileLoop{BaseStmt: ast.BaseStmt{Loc: start}, Cond: cond, Body: body, DoWhile: true}
}

// parseForLowered lowers `for(init; cond; step) body` straight to a
// While with Step set (spec.md §4.5.6: "a for-loop becomes a While with
// Step set to the loop's trailing expression").
func (p *Parser) parseForLowered() ast.Stmt {
	start := p.span()
	p.advance() // for
	p.expect(token.LParen)
	p.pushScope()
	var init ast.Stmt
	if !p.at(token.Semicolon) {
		if p.at(token.KwLet) || p.at(token.KwVar) {
			init = p.parseVariableDecl()
		} else {
			e := p.parseExpr()
			init = &ast.ExprStmt{BaseStmt: ast.BaseStmt{Loc: start}, Value: e}
			p.accept(token.Semicolon)
		}
	} else {
		p.accept(token.Semicolon)
	}
	var cond ast.Expr
	if !p.at(token.Semicolon) {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon)
	var step ast.Expr
	if !p.at(token.RParen) {
		step = p.parseExpr()
	}
	p.expect(token.RParen)
	body := p.parseBlock()
	p.popScope()

	loop := &ast.WhileLoop{BaseStmt: ast.BaseStmt{Loc: start}, Cond: cond, Body: body, Step: step}
	if init == nil {
		return loop
	}
	return &ast.Block{BaseStmt: ast.BaseStmt{Loc: start}, Stmts: []ast.Stmt{init, loop}}
}

func (p *Parser) parseReturn() *ast.Return {
	start := p.span()
	p.advance()
	var val ast.Expr
	if !p.at(token.Semicolon) && !p.at(token.RBrace) {
		val = p.parseExpr()
	}
	p.accept(token.Semicolon)
	return &ast.Return{BaseStmt: ast.BaseStmt{Loc: start}, Value: val}
}

func (p *Parser) parseThrow() *ast.Throw {
	start := p.span()
	p.advance()
	val := p.parseExpr()
	p.accept(token.Semicolon)
	return &ast.Throw{BaseStmt: ast.BaseStmt{Loc: start}, Value: val}
}

func (p *Parser) parseTry() *ast.Try {
	start := p.span()
	p.advance()
	body := p.parseBlock()
	var catches []ast.CatchClause
	for p.at(token.KwCatch) {
		cstart := p.span()
		p.advance()
		p.expect(token.LParen)
		name := p.text(p.expect(token.Ident))
		p.expect(token.Colon)
		typ := p.parseTypeRef()
		p.expect(token.RParen)
		cbody := p.parseBlock()
		catches = append(catches, ast.CatchClause{Loc: cstart, Name: name, Type: typ, Body: cbody})
	}
	return &ast.Try{BaseStmt: ast.BaseStmt{Loc: start}, Body: body, Catches: catches}
}

func (p *Parser) parseSwitch() *ast.Switch {
	start := p.span()
	p.advance()
	p.expect(token.LParen)
	subject := p.parseExpr()
	p.expect(token.RParen)
	p.expect(token.LBrace)

	kind := ast.SwitchCStyle
	var cases []ast.SwitchCase
	var defaultBlock *ast.Block
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		cstart := p.span()
		if _, ok := p.accept(token.KwDefault); ok {
			p.expect(token.Colon)
			defaultBlock = p.parseCaseBody()
			continue
		}
		p.expect(token.KwCase)
		var binding string
		pattern := p.parsePrimary()
		if id, ok := pattern.(*ast.Identifier); ok && len(id.Path) == 1 {
			if _, ok := p.accept(token.LParen); ok {
				kind = ast.SwitchPattern
				binding = p.text(p.expect(token.Ident))
				p.expect(token.RParen)
			}
		}
		p.expect(token.Colon)
		body := p.parseCaseBody()
		cases = append(cases, ast.SwitchCase{Loc: cstart, Pattern: pattern, Binding: binding, Body: body})
	}
	end := p.span()
	p.expect(token.RBrace)
	return &ast.Switch{
		BaseStmt: ast.BaseStmt{Loc: start.Merge(end)},
		Kind:     kind, Subject: subject, Cases: cases, Default: defaultBlock,
	}
}

// parseCaseBody consumes statements until the next case/default/closing
// brace, without requiring an explicit nested block.
func (p *Parser) parseCaseBody() *ast.Block {
	start := p.span()
	var stmts []ast.Stmt
	for !p.at(token.KwCase) && !p.at(token.KwDefault) && !p.at(token.RBrace) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	return &ast.Block{BaseStmt: ast.BaseStmt{Loc: start}, Stmts: stmts}
}

// ----------------------------------------------------------------------------
// Expressions (precedence climbing, grounded on the teacher's
// token-cursor style but retargeted to Nova's expression grammar)
// ----------------------------------------------------------------------------

var binaryPrecedence = map[token.Kind]int{
	token.PipePipe: 1,
	token.AmpAmp:   2,
	token.Pipe:     3,
	token.Caret:    4,
	token.Amp:      5,
	token.EqEq:     6, token.BangEq: 6,
	token.Lt: 7, token.Gt: 7, token.LtEq: 7, token.GtEq: 7,
	token.Plus: 8, token.Minus: 8,
	token.Star: 9, token.Slash: 9, token.Percent: 9,
}

var assignOps = map[token.Kind]bool{
	token.Eq: true, token.PlusEq: true, token.MinusEq: true,
	token.StarEq: true, token.SlashEq: true,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseBinary(0)
	if assignOps[p.cur().Kind] {
		op := p.text(p.cur())
		p.advance()
		right := p.parseAssignment()
		return &ast.BinaryOp{BaseExpr: ast.BaseExpr{Loc: left.Span()}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrecedence[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := p.text(p.cur())
		p.advance()
		right := p.parseBinary(prec + 1)
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.Minus, token.Bang, token.Tilde, token.Amp, token.Star:
		op := p.text(p.cur())
		start := p.span()
		p.advance()
		operand := p.parseUnary()
		return &ast.Call{
			BaseExpr: ast.BaseExpr{Loc: start},
			Callee:   &ast.PseudoVar{Name: "unary_" + op},
			Args:     []ast.Expr{operand},
		}
	case token.KwNew:
		return p.parseNewInstance()
	}
	return p.parsePostfix()
}

func (p *Parser) parseNewInstance() ast.Expr {
	start := p.span()
	p.advance() // new
	typ := p.parseTypeRef()
	p.expect(token.LParen)
	args := p.parseArgs()
	end := p.span()
	p.expect(token.RParen)
	return &ast.NewInstance{BaseExpr: ast.BaseExpr{Loc: start.Merge(end)}, Type: typ, Args: args}
}

func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	return args
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.Dot:
			p.advance()
			name := p.text(p.expect(token.Ident))
			expr = &ast.Index{Kind: ast.IndexDot, Base: expr, Name: name}
		case token.ColonColon:
			p.advance()
			name := p.text(p.expect(token.Ident))
			expr = &ast.Index{Kind: ast.IndexStatic, Base: expr, Name: name}
		case token.LBracket:
			p.advance()
			arg := p.parseExpr()
			p.expect(token.RBracket)
			expr = &ast.Index{Kind: ast.IndexBracket, Base: expr, Arg: arg}
		case token.LParen:
			p.advance()
			args := p.parseArgs()
			p.expect(token.RParen)
			expr = &ast.Call{Callee: expr, Args: args}
		case token.Colon:
			// `expr: T` cast form (spec.md §6 "cast").
			if _, isAssign := p.peekCastAhead(); !isAssign {
				break
			}
			p.advance()
			typ := p.parseTypeRef()
			expr = &ast.Cast{Value: expr, Type: typ}
		default:
			return expr
		}
	}
}

// peekCastAhead disambiguates the `:` cast suffix from statement-level
// uses of `:` (field/parameter type annotations), which never reach
// parsePostfix because those contexts parse their own colon explicitly.
func (p *Parser) peekCastAhead() (lexer.Token, bool) {
	return p.cur(), p.cur().Kind == token.Colon
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.span()
	switch p.cur().Kind {
	case token.IntLiteral:
		t := p.advance()
		return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstInt, Text: p.text(t), Int: parseIntLiteral(p.text(t))}
	case token.FloatLiteral:
		t := p.advance()
		return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstFloat, Text: p.text(t), Float: parseFloatLiteral(p.text(t))}
	case token.StringLiteral:
		t := p.advance()
		return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstString, Text: t.Value}
	case token.ByteStringLiteral:
		t := p.advance()
		return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstByteString, Text: t.Value}
	case token.CharLiteral:
		t := p.advance()
		c := &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstChar, Text: p.text(t)}
		if r := []rune(t.Value); len(r) > 0 {
			c.Int = int64(r[0])
		}
		return c
	case token.KwTrue:
		p.advance()
		return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstBool, Bool: true}
	case token.KwFalse:
		p.advance()
		return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstBool, Bool: false}
	case token.PseudoVar:
		t := p.advance()
		return &ast.PseudoVar{BaseExpr: ast.BaseExpr{Loc: start}, Name: p.text(t)[1:]}
	case token.KwSelf:
		p.advance()
		return &ast.Identifier{BaseExpr: ast.BaseExpr{Loc: start}, Path: []string{"self"}}
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.LBrace:
		block := p.parseBlock()
		return &ast.Lambda{BaseExpr: ast.BaseExpr{Loc: block.Loc}, Body: block}
	case token.Ident:
		return p.parseIdentifier()
	}
	p.errorf("unexpected token %s in expression", p.cur().Kind)
	p.advance()
	return &ast.ConstantValue{BaseExpr: ast.BaseExpr{Loc: start}, Kind: ast.ConstInt}
}

func (p *Parser) parseIdentifier() ast.Expr {
	start := p.span()
	var path []string
	path = append(path, p.text(p.expect(token.Ident)))
	for p.at(token.ColonColon) && p.peekAt(1).Kind == token.Ident {
		p.advance()
		path = append(path, p.text(p.expect(token.Ident)))
	}
	var generics []*ast.TypeRef
	if p.at(token.Lt) && p.looksLikeGenericArgs() {
		p.advance()
		for !p.at(token.Gt) && !p.at(token.EOF) {
			generics = append(generics, p.parseTypeRef())
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.expect(token.Gt)
	}
	end := p.span()
	return &ast.Identifier{BaseExpr: ast.BaseExpr{Loc: start.Merge(end)}, Path: path, Generics: generics, Ref: ast.InvalidRef}
}

// looksLikeGenericArgs is a lightweight lookahead distinguishing
// `f<T>(...)` generic call syntax from a `<` comparison: generic
// argument lists are only attempted directly before a call's `(`.
func (p *Parser) looksLikeGenericArgs() bool {
	depth := 0
	for i := 0; ; i++ {
		t := p.peekAt(i)
		switch t.Kind {
		case token.Lt:
			depth++
		case token.Gt:
			depth--
			if depth == 0 {
				return p.peekAt(i + 1).Kind == token.LParen
			}
		case token.Semicolon, token.LBrace, token.RBrace, token.EOF:
			return false
		}
		if i > 32 {
			return false
		}
	}
}

func parseIntLiteral(text string) int64 {
	var n int64
	var base int64 = 10
	i := 0
	if len(text) > 1 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base, i = 16, 2
		case 'b', 'B':
			base, i = 2, 2
		case 'o', 'O':
			base, i = 8, 2
		}
	}
	for ; i < len(text); i++ {
		c := text[i]
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		case c == '_':
			continue
		default:
			return n // literal suffix (u/l/f) reached
		}
		if d >= base {
			return n
		}
		n = n*base + d
	}
	return n
}

func parseFloatLiteral(text string) float64 {
	var n float64
	i := 0
	for ; i < len(text) && (text[i] >= '0' && text[i] <= '9'); i++ {
		n = n*10 + float64(text[i]-'0')
	}
	if i < len(text) && text[i] == '.' {
		i++
		frac := 0.1
		for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
			n += float64(text[i]-'0') * frac
			frac /= 10
		}
	}
	return n
}
