package transform

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/novalang/novac/internal/ast"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/token"
	"github.com/novalang/novac/internal/types"
)

// newDefinedUUID assigns a fresh random identity to a just-constructed
// defined/interface/enum type (spec.md §3 "canonical UUID"; SPEC_FULL.md
// §4 "Defined-type identity").
func newDefinedUUID() uuid.UUID { return uuid.New() }

// mangleModuleName derives a stable mangling prefix from a resolved file
// path: short enough to read in diagnostics, deterministic across runs
// for the same path (spec.md §3 "Modules": "unique name (mangling
// prefix)").
func mangleModuleName(resolvedPath string) string {
	sum := sha1.Sum([]byte(resolvedPath))
	return "m" + hex.EncodeToString(sum[:6])
}

// moduleDisplayFromPath turns "std/io.nova" into "std::io" for
// human-readable diagnostics.
func moduleDisplayFromPath(resolvedPath string) string {
	p := strings.TrimSuffix(resolvedPath, ".nova")
	p = strings.Trim(p, "/")
	return strings.ReplaceAll(p, "/", "::")
}

// operatorMangleTable maps the raw operator text a `#<symbol>` function
// name carries (internal/parser strips the leading '#' but keeps the
// symbol text verbatim) to the canonical method name operator overloads
// mangle to (SPEC_FULL.md §5 "Operator-identifier mangle table"): this
// keeps operator methods inside ordinary overload resolution instead of
// requiring a separate operator-call code path.
var operatorMangleTable = buildOperatorMangleTable()

func buildOperatorMangleTable() map[string]string {
	table := make(map[string]string, len(token.OperatorTokenToName))
	text := map[token.Kind]string{
		token.Plus: "+", token.Minus: "-", token.Star: "*", token.Slash: "/",
		token.Percent: "%", token.Amp: "&", token.Pipe: "|", token.Caret: "^",
		token.EqEq: "==", token.BangEq: "!=", token.Lt: "<", token.Gt: ">",
		token.LtEq: "<=", token.GtEq: ">=", token.Bang: "!", token.Tilde: "~",
		token.Eq: "=", token.LBracket: "[",
	}
	for kind, name := range token.OperatorTokenToName {
		if sym, ok := text[kind]; ok {
			table[sym] = "__" + name + "__"
		}
	}
	table["unary_-"] = "__op_neg__"
	table["unary_!"] = "__op_not__"
	table["unary_~"] = "__op_bnot__"
	table["unary_&"] = "__op_addr__"
	table["unary_*"] = "__op_deref__"
	return table
}

// operatorMangle returns the canonical method name for a raw operator
// symbol (the text stored in FunctionDecl.Name once internal/parser has
// stripped the leading '#'), or ("", false) if name isn't an operator.
func operatorMangle(name string) (string, bool) {
	n, ok := operatorMangleTable[name]
	return n, ok
}

// methodName resolves a FunctionDecl's effective name: operator methods
// mangle through operatorMangleTable, everything else uses the bare
// identifier.
func methodName(decl *ast.FunctionDecl) string {
	if n, ok := operatorMangle(decl.Name); ok {
		return n
	}
	return decl.Name
}

// mangleFunction computes a function's external symbol per spec.md
// §4.5.5, trying each override in priority order before falling back to
// the structured mangle.
func mangleFunction(decl *ast.FunctionDecl, owner *types.Defined, moduleMangle string, args []types.Type) string {
	if decl.ExternalName != "" {
		return decl.ExternalName
	}
	if ast.Has(decl.Attributes, ast.AttrNoMangle) {
		return decl.Name
	}
	name := methodName(decl)

	var sb strings.Builder
	sb.WriteString("_ZN$SN")
	if owner != nil {
		sb.WriteString(types.Mangle(owner))
	} else {
		sb.WriteString(moduleMangle)
	}
	fmt.Fprintf(&sb, "&%d%s", len(name), name)
	sb.WriteString("Cv0Sa")
	for i, a := range args {
		fmt.Fprintf(&sb, "A%d%s", i, types.Mangle(a))
	}
	sb.WriteString("FnE")
	return sb.String()
}

// lambdaMangle rewrites a lambda's identifier suffix before mangling
// (spec.md §4.5.5: "Lambdas' identifier suffix is rewritten to
// `.$LmbdF` before mangling").
func lambdaMangle(base string) string { return base + ".$LmbdF" }

// mangleIRFunction is mangleFunction's counterpart operating on an
// already-built ir.Function (used once the argument list is final IR
// Param data rather than resolved types.Type arguments).
func mangleIRFunction(f *ir.Function, owner *types.Defined, moduleMangle string) string {
	args := make([]types.Type, len(f.Args))
	for i, p := range f.Args {
		args[i] = p.Type
	}
	var sb strings.Builder
	sb.WriteString("_ZN$SN")
	if owner != nil {
		sb.WriteString(types.Mangle(owner))
	} else {
		sb.WriteString(moduleMangle)
	}
	name := f.Name
	fmt.Fprintf(&sb, "&%d%s", len(name), name)
	sb.WriteString("Cv0Sa")
	for i, a := range args {
		fmt.Fprintf(&sb, "A%d%s", i, types.Mangle(a))
	}
	sb.WriteString("FnE")
	return sb.String()
}
