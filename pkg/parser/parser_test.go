package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/source"
)

func parseDoc(t *testing.T, input string) *ast.Document {
	t.Helper()
	f := source.NewFile("test.sql", []byte(input))
	doc, err := Parse(f)
	require.Nil(t, err, "unexpected parse error: %v", err)
	return doc
}

func parseErr(t *testing.T, input string) *diag.Diagnostic {
	t.Helper()
	f := source.NewFile("test.sql", []byte(input))
	_, err := Parse(f)
	require.NotNil(t, err, "expected a parse error")
	return err
}

func TestParseMinimalQuery(t *testing.T) {
	input := "-- @query f(id: i64) ->1 i64\nselect id /* :i64 */ from t where id = :id;"
	doc := parseDoc(t, input)
	data := []byte(input)

	require.Len(t, doc.Queries, 1)
	q := doc.Queries[0]
	assert.Equal(t, "f", q.Signature.Name.Text(data))
	assert.False(t, q.Multi)
	assert.Equal(t, ast.ExactlyOne, q.Signature.Cardinality)

	require.Len(t, q.Signature.Params, 1)
	assert.Equal(t, "id", q.Signature.Params[0].Name.Text(data))
	assert.Equal(t, ast.KindPrimitive, q.Signature.Params[0].Type.Kind)
	assert.Equal(t, "i64", q.Signature.Params[0].Type.Name.Text(data))

	require.NotNil(t, q.Signature.Result)
	assert.Equal(t, ast.KindPrimitive, q.Signature.Result.Kind)

	require.Len(t, q.Body.Statements, 1)
	frags := q.Body.Statements[0].Fragments
	require.Len(t, frags, 5)
	assert.Equal(t, ast.FragRaw, frags[0].Kind)
	assert.Equal(t, "select id ", frags[0].Span.Text(data))
	assert.Equal(t, ast.FragHint, frags[1].Kind)
	assert.Equal(t, "id", frags[1].Name.Text(data))
	assert.Equal(t, ast.FragRaw, frags[2].Kind)
	assert.Equal(t, ast.FragParam, frags[3].Kind)
	assert.Equal(t, "id", frags[3].Name.Text(data))
	assert.Equal(t, ast.FragRaw, frags[4].Kind)
	assert.Equal(t, ";", frags[4].Span.Text(data))
}

// Fragment spans plus the gaps between them must reproduce the
// statement bytes exactly.
func TestParseSpanCoverage(t *testing.T) {
	inputs := []string{
		"-- @query f(id: i64) ->1 i64\nselect id /* :i64 */ from t where id = :id;",
		"-- @query g() ->* User\nselect id /* :i64 */, name /* :str */ from users;",
		"-- @query h(u: NewUser) ->1 i64\ninsert into users(a,b) values(:a /* :str */, :b /* :str */) returning id;",
	}
	for _, input := range inputs {
		doc := parseDoc(t, input)
		data := []byte(input)
		for _, q := range doc.Queries {
			for _, stmt := range q.Body.Statements {
				rebuilt := ""
				pos := stmt.Span.Start
				for _, frag := range stmt.Fragments {
					require.LessOrEqual(t, pos, frag.Span.Start)
					rebuilt += string(data[pos:frag.Span.Start])
					rebuilt += frag.Span.Text(data)
					pos = frag.Span.End
				}
				rebuilt += string(data[pos:stmt.Span.End])
				assert.Equal(t, stmt.Span.Text(data), rebuilt)
			}
		}
	}
}

func TestParseMultilineSignature(t *testing.T) {
	input := "-- @query multiline_signature(\n--   key: str,\n--   value: str,\n-- ) ->* i64\nSELECT * FROM kv;"
	doc := parseDoc(t, input)
	data := []byte(input)

	require.Len(t, doc.Queries, 1)
	q := doc.Queries[0]
	assert.Equal(t, "multiline_signature", q.Signature.Name.Text(data))
	assert.Equal(t, ast.Many, q.Signature.Cardinality)
	require.Len(t, q.Signature.Params, 2)
	assert.Equal(t, "key", q.Signature.Params[0].Name.Text(data))
	assert.Equal(t, "value", q.Signature.Params[1].Name.Text(data))
}

func TestParseMultiStatementBlock(t *testing.T) {
	input := "-- @begin drop_schema()\nDROP TABLE albums;\nDROP TABLE artists;\n-- @end drop_schema\n"
	doc := parseDoc(t, input)
	data := []byte(input)

	require.Len(t, doc.Queries, 1)
	q := doc.Queries[0]
	assert.True(t, q.Multi)
	assert.Nil(t, q.Signature.Result)
	require.Len(t, q.Body.Statements, 2)
	assert.Equal(t, "DROP TABLE albums;", q.Body.Statements[0].Span.Text(data))
	assert.Equal(t, "DROP TABLE artists;", q.Body.Statements[1].Span.Text(data))
}

func TestParseEndMarkerNameMismatch(t *testing.T) {
	input := "-- @begin init()\nselect 1;\n-- @end other\n"
	err := parseErr(t, input)
	assert.Equal(t, diag.MissingEndMarker, err.Kind)
}

func TestParseMissingEndMarker(t *testing.T) {
	input := "-- @begin init()\nselect 1;\n"
	err := parseErr(t, input)
	assert.Equal(t, diag.MissingEndMarker, err.Kind)
}

func TestParseMissingSemicolon(t *testing.T) {
	input := "-- @query q()\nselect 1"
	err := parseErr(t, input)
	assert.Equal(t, diag.MissingSemicolon, err.Kind)
}

func TestParseDocComments(t *testing.T) {
	input := "-- Fetch a user by id.\n-- Returns nothing when absent.\n-- @query get_user(id: i64) ->? str\nselect name /* :str */ from users where id = :id;"
	doc := parseDoc(t, input)
	data := []byte(input)

	require.Len(t, doc.Queries, 1)
	docs := doc.Queries[0].DocComments
	require.Len(t, docs, 2)
	assert.Equal(t, "-- Fetch a user by id.", docs[0].Text(data))
	assert.Equal(t, "-- Returns nothing when absent.", docs[1].Text(data))
}

func TestParseBlankLineResetsDocComments(t *testing.T) {
	input := "-- Not a doc comment.\n\n-- @query q() ->1 i64\nselect n;"
	doc := parseDoc(t, input)
	require.Len(t, doc.Queries, 1)
	assert.Empty(t, doc.Queries[0].DocComments)
}

func TestParseLeadingContent(t *testing.T) {
	input := "create table t (id integer);\n\n-- @query q() ->1 i64\nselect id from t;"
	doc := parseDoc(t, input)
	data := []byte(input)

	require.Len(t, doc.LeadingContent, 1)
	leading := doc.LeadingContent[0].Text(data)
	assert.Contains(t, leading, "create table t")

	// A document with no queries is all leading content.
	doc = parseDoc(t, "select 1;\n")
	require.Len(t, doc.LeadingContent, 1)
	assert.Equal(t, "select 1;\n", doc.LeadingContent[0].Text([]byte("select 1;\n")))
}

func TestParseLegacyArrowForms(t *testing.T) {
	input := "-- @query q() -> Option<i64>\nselect 1;"
	doc := parseDoc(t, input)
	q := doc.Queries[0]
	assert.Equal(t, ast.ZeroOrOne, q.Signature.Cardinality)
	require.NotNil(t, q.Signature.Result)
	assert.Equal(t, ast.KindPrimitive, q.Signature.Result.Kind)

	input = "-- @query q() -> Iterator<User>\nselect id /* :i64 */ from t;"
	doc = parseDoc(t, input)
	q = doc.Queries[0]
	assert.Equal(t, ast.Many, q.Signature.Cardinality)
	assert.Equal(t, ast.KindStruct, q.Signature.Result.Kind)
}

func TestParseBareArrowWithoutCardinality(t *testing.T) {
	err := parseErr(t, "-- @query q() -> i64\nselect 1;")
	assert.Equal(t, diag.MissingArrow, err.Kind)

	// A '?' suffix is nullability, not cardinality.
	err = parseErr(t, "-- @query q() -> i64?\nselect 1;")
	assert.Equal(t, diag.MissingArrow, err.Kind)
}

func TestParseTupleResult(t *testing.T) {
	input := "-- @query q() ->1 (i64, str?)\nselect a /* :i64 */, b /* :str */ from t;"
	doc := parseDoc(t, input)
	q := doc.Queries[0]
	require.Equal(t, ast.KindTuple, q.Signature.Result.Kind)
	require.Len(t, q.Signature.Result.Elems, 2)
	assert.Equal(t, ast.KindPrimitive, q.Signature.Result.Elems[0].Kind)
	assert.Equal(t, ast.KindOption, q.Signature.Result.Elems[1].Kind)
}

func TestParseTupleInParamsIsError(t *testing.T) {
	err := parseErr(t, "-- @query q(x: (i64, str)) ->1 i64\nselect 1;")
	assert.Equal(t, diag.UnexpectedToken, err.Kind)
}

func TestParseUnknownAnnotation(t *testing.T) {
	// Inside annotation continuation, an unknown marker is an error.
	err := parseErr(t, "-- @query q()\n-- @frobnicate\nselect 1;")
	if err.Kind != diag.MissingSemicolon && err.Kind != diag.UnknownAnnotation {
		t.Errorf("got kind %s", err.Kind)
	}
}

func TestParseStrayEndMarker(t *testing.T) {
	err := parseErr(t, "-- @end q\n")
	assert.Equal(t, diag.UnexpectedToken, err.Kind)
}

func TestParseUnmatchedBrackets(t *testing.T) {
	err := parseErr(t, "-- @query q()\nselect ( from t;")
	assert.Equal(t, diag.ExpectedToken, err.Kind)
	require.NotNil(t, err.Note)

	err = parseErr(t, "-- @query q()\nselect ) from t;")
	assert.Equal(t, diag.UnexpectedToken, err.Kind)

	err = parseErr(t, "-- @query q()\nselect (a]) from t;")
	assert.Equal(t, diag.ExpectedToken, err.Kind)
}

func TestParseSemicolonInsideParensDoesNotTerminate(t *testing.T) {
	// The inner semicolon is a string literal inside the call
	// parentheses; the parser must not cut the statement there.
	input := "-- @query q()\nselect f(';') from t;"
	doc := parseDoc(t, input)
	data := []byte(input)
	require.Len(t, doc.Queries[0].Body.Statements, 1)
	assert.Equal(t, "select f(';') from t;", doc.Queries[0].Body.Statements[0].Span.Text(data))
}

func TestParseHintWithoutPrecedingIdentIsError(t *testing.T) {
	err := parseErr(t, "-- @query q() ->1 i64\nselect , /* :i64 */ from t;")
	assert.Equal(t, diag.UnexpectedToken, err.Kind)
}

func TestParseEmptyHintIsError(t *testing.T) {
	err := parseErr(t, "-- @query q()\nselect id /* : */ from t;")
	assert.Equal(t, diag.ExpectedToken, err.Kind)
}

func TestParseHintSkipsFunctionCallParens(t *testing.T) {
	input := "-- @query q() ->* User\nselect count(*) /* :i64 */ from t;"
	doc := parseDoc(t, input)
	data := []byte(input)
	frags := doc.Queries[0].Body.Statements[0].Fragments
	var hint *ast.Fragment
	for i := range frags {
		if frags[i].Kind == ast.FragHint {
			hint = &frags[i]
		}
	}
	require.NotNil(t, hint)
	assert.Equal(t, "count", hint.Name.Text(data))
}

func TestParseHintAfterAlias(t *testing.T) {
	input := "-- @query q() ->* Row\nselect max(len) as max_len /* :i64 */ from t;"
	doc := parseDoc(t, input)
	data := []byte(input)
	frags := doc.Queries[0].Body.Statements[0].Fragments
	var hint *ast.Fragment
	for i := range frags {
		if frags[i].Kind == ast.FragHint {
			hint = &frags[i]
		}
	}
	require.NotNil(t, hint)
	assert.Equal(t, "max_len", hint.Name.Text(data))
}

func TestParseParamHintHasNoName(t *testing.T) {
	input := "-- @query q(u: U) ->1 i64\nselect :a /* :str */;"
	doc := parseDoc(t, input)
	frags := doc.Queries[0].Body.Statements[0].Fragments
	var hint *ast.Fragment
	for i := range frags {
		if frags[i].Kind == ast.FragHint {
			hint = &frags[i]
		}
	}
	require.NotNil(t, hint)
	assert.True(t, hint.Name.IsZero())
}

func TestParseInlineBlockAnnotation(t *testing.T) {
	input := "/* @query q() */ SELECT a from b where c = :c /* :str */;"
	doc := parseDoc(t, input)
	data := []byte(input)
	require.Len(t, doc.Queries, 1)
	q := doc.Queries[0]
	assert.Equal(t, "q", q.Signature.Name.Text(data))
	require.Len(t, q.Body.Statements, 1)
}

func TestParseMultipleQueriesInOrder(t *testing.T) {
	input := "-- @query a() ->1 i64\nselect 1;\n\n-- @query b() ->1 i64\nselect 2;\n"
	doc := parseDoc(t, input)
	data := []byte(input)
	require.Len(t, doc.Queries, 2)
	assert.Equal(t, "a", doc.Queries[0].Signature.Name.Text(data))
	assert.Equal(t, "b", doc.Queries[1].Signature.Name.Text(data))
}

func TestParseErrorSpansAreStable(t *testing.T) {
	// The primary span's start offset is part of the contract.
	cases := []struct {
		input string
		start int
	}{
		{"-- @query q()\nselect 1", len("-- @query q()\nselect 1")},
		{"an 'unclosed", 3},
	}
	for _, tc := range cases {
		f := source.NewFile("test.sql", []byte(tc.input))
		_, err := Parse(f)
		require.NotNil(t, err, "input %q", tc.input)
		assert.Equal(t, tc.start, err.Span.Start, "input %q", tc.input)
	}
}
