package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	content := `
packageRoot: ./src
externalPackageDir: ./vendor
stdLibRoot: /opt/nova/std
errorBudget: 10
disabledCategories: ["style", "unused"]
debugMap: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "./src", cfg.PackageRoot)
	assert.Equal(t, "./vendor", cfg.ExternalPackageDir)
	assert.Equal(t, "/opt/nova/std", cfg.StdLibRoot)
	require.NotNil(t, cfg.ErrorBudget)
	assert.Equal(t, 10, *cfg.ErrorBudget)
	assert.Equal(t, []string{"style", "unused"}, cfg.DisabledCategories)
	require.NotNil(t, cfg.DebugMap)
	assert.True(t, *cfg.DebugMap)
}

func TestLoadWalksUpToParentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "cmd")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	configPath := filepath.Join(tmpDir, "project", "nova.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("stdLibRoot: /opt/nova/std\n"), 0644))

	cfg, foundPath, err := Load(subDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, configPath, foundPath)
	assert.Equal(t, "/opt/nova/std", cfg.StdLibRoot)
}

func TestLoadNoConfig(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, path, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Empty(t, path)
}

func TestFileNamesPriority(t *testing.T) {
	tmpDir := t.TempDir()

	rcPath := filepath.Join(tmpDir, ".novarc")
	require.NoError(t, os.WriteFile(rcPath, []byte("stdLibRoot: rc-root\n"), 0644))

	cfg, foundPath, err := Load(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ".novarc", filepath.Base(foundPath))

	yamlPath := filepath.Join(tmpDir, "nova.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("stdLibRoot: yaml-root\n"), 0644))

	cfg, foundPath, err = Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "nova.yaml", filepath.Base(foundPath))
	assert.Equal(t, "yaml-root", cfg.StdLibRoot)
}

func TestRootsMergesCLIOverConfig(t *testing.T) {
	cfg := &Config{
		PackageRoot:        "src",
		ExternalPackageDir: "vendor",
		StdLibRoot:         "std",
	}

	roots := cfg.Roots("/work", MergeOptions{ExternalPackageDir: "other-vendor"})

	assert.Equal(t, filepath.Join("/work", "src"), roots.Current)
	assert.Equal(t, filepath.Join("/work", "other-vendor"), roots.External)
	assert.Equal(t, filepath.Join("/work", "std"), roots.Std)
}

func TestRootsDefaultsCurrentToWorkDir(t *testing.T) {
	roots := (*Config)(nil).Roots("/work", MergeOptions{})
	assert.Equal(t, "/work", roots.Current)
}

func TestErrorBudgetOrPrecedence(t *testing.T) {
	budget := 5
	cfg := &Config{ErrorBudget: &budget}

	assert.Equal(t, 5, cfg.ErrorBudgetOr(MergeOptions{}, 50))

	cliBudget := 99
	assert.Equal(t, 99, cfg.ErrorBudgetOr(MergeOptions{ErrorBudget: &cliBudget}, 50))

	assert.Equal(t, 50, (*Config)(nil).ErrorBudgetOr(MergeOptions{}, 50))
}

func TestDebugMapEnabled(t *testing.T) {
	on := true
	cfg := &Config{DebugMap: &on}
	assert.True(t, cfg.DebugMapEnabled(MergeOptions{}))

	off := false
	assert.False(t, cfg.DebugMapEnabled(MergeOptions{DebugMap: &off}))

	assert.False(t, (*Config)(nil).DebugMapEnabled(MergeOptions{}))
}
