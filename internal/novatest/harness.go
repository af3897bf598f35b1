// Package novatest provides shared test infrastructure for compiling Nova
// source through the whole pipeline (lex, parse, transform, analyze) in a
// single call, plus annotation-driven fixture files for expressing a
// compile's expected diagnostics declaratively.
//
// Grounded on the teacher's internal/validator_tests/harness.go (annotation
// parsing, expected-diagnostic matching) and internal/test/test.go (the
// assertion-helper/Suite shape), regrounded on internal/transform's
// Pipeline instead of the teacher's pkg/api.Validate.
package novatest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/importer"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/transform"
)

// Compile runs source through a fresh Pipeline rooted at a scratch
// directory and returns the resulting module and diagnostics. path is a
// synthetic file name (".nova" suffix) used for mangling and module
// identity; it need not exist on disk.
func Compile(path, source string) (*ir.Module, *diagnostic.List, error) {
	roots := importer.Roots{Current: filepath.Dir(path)}
	pipeline := transform.NewPipeline(roots, func(p string) (string, error) {
		if p == path {
			return source, nil
		}
		return "", fmt.Errorf("novatest: no fixture registered for %s", p)
	})
	return pipeline.CompileFile(path)
}

// MustCompile is Compile with t.Fatalf on an unexpected Go-level error
// (as opposed to diagnostics, which are returned for the caller to assert
// on).
func MustCompile(t *testing.T, path, source string) (*ir.Module, *diagnostic.List) {
	t.Helper()
	mod, diags, err := Compile(path, source)
	require.NoError(t, err)
	return mod, diags
}

// ----------------------------------------------------------------------------
// Annotation-driven fixtures
// ----------------------------------------------------------------------------

// ExpectedDiagnostic describes one diagnostic a fixture expects to see.
type ExpectedDiagnostic struct {
	Category string // e.g. "type", "variable" — matches diagnostic.Category
	Pattern  string // substring expected in the message
}

// Fixture is one parsed ".nova" test source file with its expectations.
type Fixture struct {
	Name     string
	Path     string
	Source   string
	Valid    bool
	Errors   []ExpectedDiagnostic
	Warnings []ExpectedDiagnostic
}

var (
	expectValidRe   = regexp.MustCompile(`//\s*@expect-valid`)
	expectErrorRe   = regexp.MustCompile(`//\s*@expect-error\s+(\S+)(?:\s+"([^"]*)")?`)
	expectWarningRe = regexp.MustCompile(`//\s*@expect-warning\s+(\S+)(?:\s+"([^"]*)")?`)
	testNameRe      = regexp.MustCompile(`//\s*@test:\s*(.+)`)
)

// ParseFixture reads a ".nova" file and extracts its @expect-* annotations.
func ParseFixture(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src := string(content)
	fx := &Fixture{Path: path, Source: src, Name: filepath.Base(path)}

	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		if m := testNameRe.FindStringSubmatch(line); m != nil {
			fx.Name = strings.TrimSpace(m[1])
		}
		if expectValidRe.MatchString(line) {
			fx.Valid = true
		}
		if m := expectErrorRe.FindStringSubmatch(line); m != nil {
			fx.Errors = append(fx.Errors, ExpectedDiagnostic{Category: m[1], Pattern: m[2]})
		}
		if m := expectWarningRe.FindStringSubmatch(line); m != nil {
			fx.Warnings = append(fx.Warnings, ExpectedDiagnostic{Category: m[1], Pattern: m[2]})
		}
	}
	if !fx.Valid && len(fx.Errors) == 0 {
		fx.Valid = true
	}
	return fx, nil
}

// Run compiles the fixture's source and asserts its diagnostics match its
// annotations.
func (fx *Fixture) Run(t *testing.T) {
	t.Helper()
	_, diags := MustCompile(t, fx.Path, fx.Source)

	if fx.Valid {
		if diags.HasErrors() {
			t.Errorf("%s: expected a clean compile, got:\n%s", fx.Name, diags.Format())
		}
	} else {
		if !diags.HasErrors() {
			t.Fatalf("%s: expected errors, compile succeeded", fx.Name)
		}
		for _, want := range fx.Errors {
			if !hasDiagnostic(diags, diagnostic.Error, want) {
				t.Errorf("%s: expected error category=%s pattern=%q, not found in:\n%s", fx.Name, want.Category, want.Pattern, diags.Format())
			}
		}
	}
	for _, want := range fx.Warnings {
		if !hasDiagnostic(diags, diagnostic.Warning, want) {
			t.Errorf("%s: expected warning category=%s pattern=%q, not found in:\n%s", fx.Name, want.Category, want.Pattern, diags.Format())
		}
	}
}

func hasDiagnostic(diags *diagnostic.List, sev diagnostic.Severity, want ExpectedDiagnostic) bool {
	for _, d := range diags.All() {
		if d.Severity != sev {
			continue
		}
		if want.Category != "" && string(d.Category) != want.Category {
			continue
		}
		if want.Pattern != "" && !strings.Contains(d.Message, want.Pattern) {
			continue
		}
		return true
	}
	return false
}

// RunFixtureDir runs every ".nova" fixture found (recursively) under dir as
// its own subtest.
func RunFixtureDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			t.Run(entry.Name(), func(t *testing.T) {
				RunFixtureDir(t, full)
			})
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".nova") {
			continue
		}
		fx, err := ParseFixture(full)
		require.NoError(t, err)
		t.Run(fx.Name, fx.Run)
	}
}
