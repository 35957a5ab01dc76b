package pypsycopg2

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

	tgt, terr := target.Get("python-psycopg2")
	require.Nil(t, terr)
	var buf bytes.Buffer
	require.NoError(t, target.Generate(&buf, tgt, []*ast.Document{doc}))
	return buf.String()
}

func TestMinimalLookup(t *testing.T) {
	out := generate(t, "-- @query f(id: i64) ->1 i64\nselect id /* :i64 */ from t where id = :id;")

	assert.Contains(t, out, "def f(tx: Transaction, id: int) -> int:")
	assert.Contains(t, out, "where id = %(id)s")
	assert.Contains(t, out, `cur.execute(sql, {"id": id})`)
	assert.Contains(t, out, "class Transaction:")
}

func TestStructResult(t *testing.T) {
	out := generate(t, "-- @query g() ->* User\nselect id /* :i64 */, name /* :str */ from users;")

	assert.Contains(t, out, "class User(NamedTuple):")
	idIdx := bytes.Index([]byte(out), []byte("    id: int"))
	nameIdx := bytes.Index([]byte(out), []byte("    name: str"))
	require.GreaterOrEqual(t, idIdx, 0)
	require.GreaterOrEqual(t, nameIdx, 0)
	assert.Less(t, idIdx, nameIdx)

	assert.Contains(t, out, "def g(tx: Transaction) -> Iterator[User]:")
	assert.Contains(t, out, "yield User(*row)")
}

func TestStructArgument(t *testing.T) {
	out := generate(t, "-- @query h(u: NewUser) ->1 i64\ninsert into users(a,b) values(:a /* :str */, :b /* :str */) returning id;")

	assert.Contains(t, out, "class NewUser(NamedTuple):")
	assert.Contains(t, out, "def h(tx: Transaction, u: NewUser) -> int:")
	assert.Contains(t, out, `{"a": u.a, "b": u.b}`)
	assert.Contains(t, out, "%(a)s")
}

func TestZeroOrOne(t *testing.T) {
	out := generate(t, "-- @query q() ->? i64\nselect n /* :i64 */ from t limit 1;")
	assert.Contains(t, out, "def q(tx: Transaction) -> Optional[int]:")
	assert.Contains(t, out, "if row is None:")
	assert.Contains(t, out, "return row[0]")
}

func TestMultiStatementExecutesInOrder(t *testing.T) {
	out := generate(t, "-- @begin init()\ncreate table a (x integer);\ncreate table b (y integer);\n-- @end init\n")
	assert.Contains(t, out, "def init(tx: Transaction) -> None:")
	first := bytes.Index([]byte(out), []byte("create table a"))
	second := bytes.Index([]byte(out), []byte("create table b"))
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
	assert.Contains(t, out, "return None")
}

func TestDocstring(t *testing.T) {
	out := generate(t, "-- Fetch one.\n-- @query f() ->1 i64\nselect n from t;")
	assert.Contains(t, out, `"""`)
	assert.Contains(t, out, "Fetch one.")
}
