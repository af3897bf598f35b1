// Package token defines the lexical token kinds produced by the Nova
// lexer (internal/lexer), the external collaborator specified at its
// interface only (see spec.md §6 "External Interfaces").
package token

// Kind identifies the lexical category of a token.
type Kind uint8

const (
	Error Kind = iota
	EOF

	// Literals
	IntLiteral
	FloatLiteral
	StringLiteral
	ByteStringLiteral
	CharLiteral
	True
	False

	Ident
	PseudoVar // #name, e.g. #self, #+ (operator identifiers)

	// Keywords
	KwClass
	KwStruct
	KwInterface
	KwImplements
	KwExtends
	KwFunc
	KwLet
	KwVar
	KwConst
	KwStatic
	KwPublic
	KwPrivate
	KwProtected
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwSwitch
	KwCase
	KwDefault
	KwBreak
	KwContinue
	KwReturn
	KwThrow
	KwTry
	KwCatch
	KwNew
	KwImport
	KwNamespace
	KwModule
	KwVirtual
	KwOverride
	KwMacro
	KwTrue
	KwFalse
	KwSelf
	KwNull
	KwMut
	KwUnsafe

	// Operators / punctuation
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	AmpAmp
	Pipe
	PipePipe
	Caret
	Tilde
	Bang
	Lt
	Gt
	LtEq
	GtEq
	EqEq
	BangEq
	Eq
	PlusEq
	MinusEq
	StarEq
	SlashEq
	Arrow    // ->
	FatArrow // =>
	Dot
	DotDot
	ColonColon // ::
	Colon
	Comma
	Semicolon
	Question
	At // @attribute

	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

var names = map[Kind]string{
	Error: "error", EOF: "EOF",
	IntLiteral: "int", FloatLiteral: "float", StringLiteral: "string",
	ByteStringLiteral: "bytestring", CharLiteral: "char",
	True: "true", False: "false", Ident: "identifier", PseudoVar: "pseudo-variable",
	KwClass: "class", KwStruct: "struct", KwInterface: "interface",
	KwImplements: "implements", KwExtends: "extends", KwFunc: "func",
	KwLet: "let", KwVar: "var", KwConst: "const", KwStatic: "static",
	KwPublic: "public", KwPrivate: "private", KwProtected: "protected",
	KwIf: "if", KwElse: "else", KwWhile: "while", KwDo: "do", KwFor: "for",
	KwSwitch: "switch", KwCase: "case", KwDefault: "default",
	KwBreak: "break", KwContinue: "continue", KwReturn: "return",
	KwThrow: "throw", KwTry: "try", KwCatch: "catch", KwNew: "new",
	KwImport: "import", KwNamespace: "namespace", KwModule: "module",
	KwVirtual: "virtual", KwOverride: "override", KwMacro: "macro",
	KwSelf: "self", KwNull: "null", KwMut: "mut", KwUnsafe: "unsafe",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Amp: "&", AmpAmp: "&&", Pipe: "|", PipePipe: "||", Caret: "^",
	Tilde: "~", Bang: "!", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	EqEq: "==", BangEq: "!=", Eq: "=", PlusEq: "+=", MinusEq: "-=",
	StarEq: "*=", SlashEq: "/=", Arrow: "->", FatArrow: "=>", Dot: ".",
	DotDot: "..", ColonColon: "::", Colon: ":", Comma: ",",
	Semicolon: ";", Question: "?", At: "@",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Keywords maps reserved identifier text to its keyword kind.
var Keywords = map[string]Kind{
	"class": KwClass, "struct": KwStruct, "interface": KwInterface,
	"implements": KwImplements, "extends": KwExtends, "func": KwFunc,
	"let": KwLet, "var": KwVar, "const": KwConst, "static": KwStatic,
	"public": KwPublic, "private": KwPrivate, "protected": KwProtected,
	"if": KwIf, "else": KwElse, "while": KwWhile, "do": KwDo, "for": KwFor,
	"switch": KwSwitch, "case": KwCase, "default": KwDefault,
	"break": KwBreak, "continue": KwContinue, "return": KwReturn,
	"throw": KwThrow, "try": KwTry, "catch": KwCatch, "new": KwNew,
	"import": KwImport, "namespace": KwNamespace, "module": KwModule,
	"virtual": KwVirtual, "override": KwOverride, "macro": KwMacro,
	"true": KwTrue, "false": KwFalse, "self": KwSelf, "null": KwNull,
	"mut": KwMut, "unsafe": KwUnsafe,
}

// OperatorTokenToName maps an operator token kind to the canonical method
// name used when it appears after a `#` pseudo-variable sigil in an
// operator-overload declaration (spec.md §6: "operator identifiers are
// encoded as `#<symbol>` tokens and resolved via an operator table").
var OperatorTokenToName = map[Kind]string{
	Plus: "op_add", Minus: "op_sub", Star: "op_mul", Slash: "op_div",
	Percent: "op_mod", Amp: "op_band", Pipe: "op_bor", Caret: "op_bxor",
	EqEq: "op_eq", BangEq: "op_ne", Lt: "op_lt", Gt: "op_gt",
	LtEq: "op_le", GtEq: "op_ge", Bang: "op_not", Tilde: "op_bnot",
	Eq: "op_assign", LBracket: "op_index",
}
