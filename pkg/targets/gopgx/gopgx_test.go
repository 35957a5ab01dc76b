package gopgx

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

	tgt, terr := target.Get("go-pgx")
	require.Nil(t, terr)
	var buf bytes.Buffer
	require.NoError(t, target.Generate(&buf, tgt, []*ast.Document{doc}))
	return buf.String()
}

func TestMinimalLookup(t *testing.T) {
	out := generate(t, "-- @query f(id: i64) ->1 i64\nselect id /* :i64 */ from t where id = :id;")

	assert.Contains(t, out, "func F(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {")
	assert.Contains(t, out, "where id = $1")
	assert.Contains(t, out, ".Scan(&result)")
	assert.Contains(t, out, "package queries")
}

func TestStructResult(t *testing.T) {
	out := generate(t, "-- @query g() ->* User\nselect id /* :i64 */, name /* :str */ from users;")

	// The struct fields appear in annotation order.
	idIdx := bytes.Index([]byte(out), []byte("Id int64"))
	nameIdx := bytes.Index([]byte(out), []byte("Name string"))
	assert.Contains(t, out, "type User struct {")
	require.GreaterOrEqual(t, idIdx, 0)
	require.GreaterOrEqual(t, nameIdx, 0)
	assert.Less(t, idIdx, nameIdx)

	assert.Contains(t, out, "func G(ctx context.Context, tx pgx.Tx) ([]User, error) {")
	assert.Contains(t, out, "rows.Scan(&result.Id, &result.Name)")
}

func TestStructArgument(t *testing.T) {
	out := generate(t, "-- @query h(u: NewUser) ->1 i64\ninsert into users(a,b) values(:a /* :str */, :b /* :str */) returning id;")

	assert.Contains(t, out, "type NewUser struct {")
	assert.Contains(t, out, "A string")
	assert.Contains(t, out, "B string")
	assert.Contains(t, out, "func H(ctx context.Context, tx pgx.Tx, u NewUser) (int64, error) {")
	// Bound in declaration order.
	assert.Contains(t, out, ", u.A, u.B).Scan(")
	assert.Contains(t, out, "values($1 , $2 )")
}

func TestMultiStatement(t *testing.T) {
	out := generate(t, "-- @begin init()\ncreate table a (x integer);\ncreate table b (y integer);\n-- @end init\n")

	assert.Contains(t, out, "func Init(ctx context.Context, tx pgx.Tx) error {")
	first := bytes.Index([]byte(out), []byte("create table a"))
	second := bytes.Index([]byte(out), []byte("create table b"))
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
	// No result decoding anywhere.
	assert.NotContains(t, out, "Scan(")
}

func TestOptionalI64BothSpellings(t *testing.T) {
	nullable := generate(t, "-- @query a() ->1 i64?\nselect max(length(email)) /* :i64 */ from t;")
	zeroOrOne := generate(t, "-- @query b() ->? i64\nselect length(email) /* :i64 */ from t order by length(email) desc limit 1;")

	assert.Contains(t, nullable, "(*int64, error)")
	assert.Contains(t, zeroOrOne, "(*int64, error)")
}

func TestTupleResultRowStruct(t *testing.T) {
	out := generate(t, "-- @query q() ->* (i64, str)\nselect a /* :i64 */, b /* :str */ from t;")
	assert.Contains(t, out, "type QRow struct {")
	assert.Contains(t, out, "F0 int64")
	assert.Contains(t, out, "F1 string")
	assert.Contains(t, out, "([]QRow, error)")
}

func TestInstantImportsTime(t *testing.T) {
	out := generate(t, "-- @query q() ->* instant\nselect created_at /* :instant */ from t;")
	assert.Contains(t, out, "\"time\"")
	assert.Contains(t, out, "[]time.Time")
}

func TestDocCommentsCarryOver(t *testing.T) {
	out := generate(t, "-- Fetch one row.\n-- @query f() ->1 i64\nselect n from t;")
	assert.Contains(t, out, "// Fetch one row.\nfunc F(")
}
