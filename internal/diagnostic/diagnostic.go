// Package diagnostic implements the core's structured error-reporting
// channel (spec.md §4.8, §7). Diagnostics are values, never Go errors used
// for control flow: the transformer records them in a shared list and
// recovers structurally (skip the declaration, continue with the next).
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/novalang/novac/internal/source"
)

// Severity represents how a diagnostic should be treated.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Info
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Category is the diagnostic category enumeration from spec.md §7.
type Category string

const (
	Syntax       Category = "syntax"
	Type         Category = "type"
	Variable     Category = "variable" // unresolved name
	Import       Category = "import"
	Attribute    Category = "attribute"
	IO           Category = "io"
	CompilerBug  Category = "compiler-bug"
	LLVMInternal Category = "llvm-internal" // inline-IR assembly failure
)

// fatal reports whether a category halts transformation of the current
// declaration (spec.md §7: "fatal categories halt transformation ...").
// Info/Note-severity diagnostics in any category are never fatal.
func (c Category) fatal() bool {
	switch c {
	case Syntax, Type, Variable, Import, Attribute, IO, CompilerBug, LLVMInternal:
		return true
	default:
		return false
	}
}

// Position is a 1-indexed line/column pair resolved from a source.Span.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Range is a pair of Positions.
type Range struct {
	Start Position
	End   Position
}

// Related carries an additional location attached to a diagnostic, used
// for "note" annotations that point at a second, relevant span.
type Related struct {
	Range   Range
	Message string
}

// Fix is a suggested structural fix a tool can offer to apply.
type Fix struct {
	Description string
	Replacement string
	Range       Range
}

// Diagnostic is a single structured message.
type Diagnostic struct {
	Severity Severity
	Category Category
	Code     string // short stable code, e.g. "type/mismatch"
	Message  string
	Range    Range
	Info     string
	Note     string
	Help     string
	Related  []Related
	Fix      *Fix
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s[%s]: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Category, d.Message)
}

// IsFatal reports whether this diagnostic halts the current declaration.
func (d *Diagnostic) IsFatal() bool {
	return d.Severity == Error && d.Category.fatal()
}

// List accumulates diagnostics produced while transforming a single module.
// It honors an error budget (spec.md §7: "until a configurable error
// budget"): once ErrorBudget fatal diagnostics have been recorded, Halted
// becomes true and callers should stop driving further top-level
// declarations for this module.
type List struct {
	buf         *source.Buffer
	diagnostics []Diagnostic
	hasErrors   bool
	errorBudget int
	fatalCount  int
	halted      bool
}

// DefaultErrorBudget matches the teacher's "stop after a handful of errors
// rather than flooding the terminal" convention.
const DefaultErrorBudget = 50

// NewList creates a diagnostic list bound to a source buffer.
func NewList(buf *source.Buffer) *List {
	return &List{buf: buf, errorBudget: DefaultErrorBudget}
}

// SetErrorBudget overrides the default error budget (see internal/config).
func (l *List) SetErrorBudget(n int) {
	if n > 0 {
		l.errorBudget = n
	}
}

// Halted reports whether the error budget has been exhausted.
func (l *List) Halted() bool { return l.halted }

// Add records a diagnostic, updating the fatal/halt bookkeeping.
func (l *List) Add(d Diagnostic) {
	l.diagnostics = append(l.diagnostics, d)
	if d.Severity == Error {
		l.hasErrors = true
	}
	if d.IsFatal() {
		l.fatalCount++
		if l.fatalCount >= l.errorBudget {
			l.halted = true
		}
	}
}

func (l *List) pos(s source.Span) Position {
	line, col := l.buf.Position(s)
	return Position{Offset: s.Start, Line: line, Column: col}
}

func (l *List) rng(s source.Span) Range {
	return Range{Start: l.pos(s), End: l.pos(source.Span{Start: s.End, End: s.End})}
}

// Errorf records a fatal diagnostic in the given category at span s.
func (l *List) Errorf(cat Category, s source.Span, format string, args ...any) {
	l.Add(Diagnostic{Severity: Error, Category: cat, Message: fmt.Sprintf(format, args...), Range: l.rng(s)})
}

// Warnf records a non-fatal warning diagnostic.
func (l *List) Warnf(cat Category, s source.Span, format string, args ...any) {
	l.Add(Diagnostic{Severity: Warning, Category: cat, Message: fmt.Sprintf(format, args...), Range: l.rng(s)})
}

// WithHints records a fatal diagnostic annotated with info/note/help text.
func (l *List) WithHints(cat Category, s source.Span, message, info, note, help string) {
	l.Add(Diagnostic{
		Severity: Error, Category: cat, Message: message, Range: l.rng(s),
		Info: info, Note: note, Help: help,
	})
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (l *List) HasErrors() bool { return l.hasErrors }

// All returns every diagnostic recorded so far, in recording order.
func (l *List) All() []Diagnostic { return l.diagnostics }

// Count returns the total number of diagnostics recorded.
func (l *List) Count() int { return len(l.diagnostics) }

// Format renders every diagnostic as a human-readable report. Formatting
// itself is not part of the core's external contract (spec.md §4.8: "the
// core emits diagnostics but does not format them; formatting is
// external") — this method exists only so `cmd/novac` has something
// reasonable to print without a separate formatter package.
func (l *List) Format() string {
	var sb strings.Builder
	for i := range l.diagnostics {
		sb.WriteString(l.formatOne(&l.diagnostics[i]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l *List) formatOne(d *Diagnostic) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%d: %s[%s]: %s\n", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Category, d.Message)
	if d.Info != "" {
		fmt.Fprintf(&sb, "  info: %s\n", d.Info)
	}
	if d.Note != "" {
		fmt.Fprintf(&sb, "  note: %s\n", d.Note)
	}
	if d.Help != "" {
		fmt.Fprintf(&sb, "  help: %s\n", d.Help)
	}
	for _, rel := range d.Related {
		fmt.Fprintf(&sb, "  %d:%d: related: %s\n", rel.Range.Start.Line, rel.Range.Start.Column, rel.Message)
	}
	return sb.String()
}

// Unreachable panics with a message identifying an invariant the
// implementer believes cannot be violated (spec.md §7 "UNREACHABLE
// marker"). It is reserved for internal invariants, never for user input.
func Unreachable(where string) {
	panic("UNREACHABLE: " + where)
}
