package gosqlite

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/parser"
	"github.com/sqlweave/sqlweave/pkg/source"
	"github.com/sqlweave/sqlweave/pkg/target"
	"github.com/sqlweave/sqlweave/pkg/typecheck"
)

func generate(t *testing.T, input string) string {
	t.Helper()
	f := source.NewFile("test.sql", []byte(input))
	doc, derr := parser.Parse(f)
	require.Nil(t, derr, "parse: %v", derr)
	require.Nil(t, typecheck.Check(doc))

	tgt, terr := target.Get("go-sqlite3")
	require.Nil(t, terr)
	var buf bytes.Buffer
	require.NoError(t, target.Generate(&buf, tgt, []*ast.Document{doc}))
	return buf.String()
}

func TestNumberedPlaceholders(t *testing.T) {
	out := generate(t, "-- @query f(x: str) ->* i64\nselect id /* :i64 */ from t where a = :x or b = :x;")
	// The same name binds once under the ?NNN syntax.
	assert.Contains(t, out, "a = ?1 or b = ?1")
	assert.Contains(t, out, "func F(ctx context.Context, tx *sql.Tx, x string) ([]int64, error) {")
}

func TestZeroOrOneUsesSQLErrNoRows(t *testing.T) {
	out := generate(t, "-- @query q() ->? str\nselect name /* :str */ from t limit 1;")
	assert.Contains(t, out, "errors.Is(err, sql.ErrNoRows)")
	assert.Contains(t, out, "(*string, error)")
}
