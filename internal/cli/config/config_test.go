package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("target", "t", "", "")
	flags.StringP("output", "o", "", "")
	flags.BoolP("watch", "w", false, "")
	flags.BoolP("verbose", "v", false, "")
	flags.Bool("no-color", false, "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("", newFlags())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Target)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.NoColor)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlweave.yaml"),
		[]byte("target: go-pgx\nverbose: true\n"), 0o644))
	chdir(t, dir)

	cfg, err := Load("", newFlags())
	require.NoError(t, err)
	assert.Equal(t, "go-pgx", cfg.Target)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "sqlweave.yaml", GetConfigFileUsed())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlweave.yaml"),
		[]byte("target: go-pgx\n"), 0o644))
	chdir(t, dir)
	t.Setenv("SQLWEAVE_TARGET", "debug")

	cfg, err := Load("", newFlags())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Target)
}

func TestFlagsOverrideEverything(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlweave.yaml"),
		[]byte("target: go-pgx\n"), 0o644))
	chdir(t, dir)
	t.Setenv("SQLWEAVE_TARGET", "debug")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--target", "python-sqlite3", "--no-color"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "python-sqlite3", cfg.Target)
	assert.True(t, cfg.NoColor)
}

func TestExplicitMissingConfigFileIsError(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("nope.yaml", newFlags())
	require.Error(t, err)
}
