package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTargetHelpListsTargets(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--target", "help")
	require.NoError(t, err)
	for _, name := range []string{"debug", "go-pgx", "go-sqlite3", "python-psycopg2", "python-sqlite3"} {
		assert.Contains(t, stdout, name)
	}
}

func TestGenerateFromFile(t *testing.T) {
	path := writeInput(t, "-- @query f(id: i64) ->1 i64\nselect id /* :i64 */ from t where id = :id;\n")
	stdout, stderr, err := runCLI(t, "", "--target", "go-pgx", path)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "func F(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {")
}

func TestGenerateFromStdin(t *testing.T) {
	input := "-- @query f() ->1 i64\nselect n from t;\n"
	stdout, _, err := runCLI(t, input, "--target", "debug", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "-- input: <stdin>")
	assert.Contains(t, stdout, "query f() -> i64 [ExactlyOne]")
}

func TestDiagnosticGoesToStderrOnly(t *testing.T) {
	path := writeInput(t, "-- @query bad() ->? User\nselect name, email from t;\n")
	stdout, stderr, err := runCLI(t, "", "--no-color", "--target", "go-pgx", path)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "error:")
	assert.Contains(t, stderr, "->? User")
	assert.Contains(t, stderr, "hint:")
}

func TestUnknownTarget(t *testing.T) {
	path := writeInput(t, "-- @query f() ->1 i64\nselect n from t;\n")
	stdout, stderr, err := runCLI(t, "", "--no-color", "--target", "rust-sqlite", path)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Unknown target 'rust-sqlite'")
}

func TestNoTargetIsError(t *testing.T) {
	path := writeInput(t, "select 1;\n")
	_, _, err := runCLI(t, "", path)
	require.Error(t, err)
}

func TestMultipleFilesShareOnePreamble(t *testing.T) {
	a := writeInput(t, "-- @query a() ->1 i64\nselect 1;\n")
	b := writeInput(t, "-- @query b() ->1 i64\nselect 2;\n")
	stdout, _, err := runCLI(t, "", "--target", "go-pgx", a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count([]byte(stdout), []byte("package queries")))
	aIdx := bytes.Index([]byte(stdout), []byte("func A("))
	bIdx := bytes.Index([]byte(stdout), []byte("func B("))
	require.GreaterOrEqual(t, aIdx, 0)
	require.GreaterOrEqual(t, bIdx, 0)
	assert.Less(t, aIdx, bIdx)
}

func TestOutputFlagWritesFile(t *testing.T) {
	path := writeInput(t, "-- @query f() ->1 i64\nselect n from t;\n")
	outPath := filepath.Join(t.TempDir(), "queries.py")
	stdout, _, err := runCLI(t, "", "--target", "python-sqlite3", "--output", outPath, path)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "def f(tx: Transaction) -> int:")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sqlweave v")
}
