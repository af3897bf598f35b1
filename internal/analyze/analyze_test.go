package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/novatest"
)

// These exercise spec.md §4.7's analyzer passes through the whole
// pipeline (internal/novatest), grounded on the teacher's
// internal/validator_tests fixture style: compile a small source, assert
// on the resulting diagnostics rather than calling the analyzer directly,
// since its only public entry point is internal/transform.Pipeline.

func TestExhaustiveReturn_MissingOnOnePath(t *testing.T) {
	_, diags := novatest.MustCompile(t, "exhaustive_missing.nova", `
func abs(x: i32) i32 {
	if (x < 0) {
		return 0 - x;
	}
}
`)
	require.True(t, diags.HasErrors())
	assert.True(t, hasCategory(diags, diagnostic.Type), diags.Format())
}

func TestExhaustiveReturn_BothBranchesReturn(t *testing.T) {
	_, diags := novatest.MustCompile(t, "exhaustive_ok.nova", `
func abs(x: i32) i32 {
	if (x < 0) {
		return 0 - x;
	} else {
		return x;
	}
}
`)
	assert.False(t, diags.HasErrors(), diags.Format())
}

func TestExhaustiveReturn_VoidFunctionNeverFlagged(t *testing.T) {
	_, diags := novatest.MustCompile(t, "exhaustive_void.nova", `
func log(x: i32) {
	if (x < 0) {
		return;
	}
}
`)
	assert.False(t, diags.HasErrors(), diags.Format())
}

func TestDefiniteAssignment_ReadBeforeAssignOnOnePath(t *testing.T) {
	_, diags := novatest.MustCompile(t, "definite_assign_missing.nova", `
func f(cond: bool) i32 {
	var x: i32;
	if (cond) {
		x = 1;
	}
	return x;
}
`)
	require.True(t, diags.HasErrors())
	assert.True(t, hasCategory(diags, diagnostic.Variable), diags.Format())
}

func TestDefiniteAssignment_AssignedOnBothBranches(t *testing.T) {
	_, diags := novatest.MustCompile(t, "definite_assign_ok.nova", `
func f(cond: bool) i32 {
	var x: i32;
	if (cond) {
		x = 1;
	} else {
		x = 2;
	}
	return x;
}
`)
	assert.False(t, diags.HasErrors(), diags.Format())
}

func hasCategory(diags *diagnostic.List, cat diagnostic.Category) bool {
	for _, d := range diags.All() {
		if d.Category == cat {
			return true
		}
	}
	return false
}
