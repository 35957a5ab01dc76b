package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlweave/sqlweave/pkg/source"
)

func TestRenderPointsAtSpan(t *testing.T) {
	input := "select id /* :i65 */ from t;"
	f := source.NewFile("queries.sql", []byte(input))
	start := strings.Index(input, ":i65") + 1
	d := New(UnknownPrimitive, source.Span{Start: start, End: start + 3}, "Unknown type 'i65'.").
		WithHint("Did you mean 'i64'?")

	var out strings.Builder
	Render(&out, f, d, NewStyles(false))
	got := out.String()

	assert.Contains(t, got, "queries.sql:1:15: error: Unknown type 'i65'.")
	assert.Contains(t, got, "select id /* :i65 */ from t;")
	assert.Contains(t, got, "hint: Did you mean 'i64'?")

	// The underline is aligned under the span and sized to it.
	lines := strings.Split(got, "\n")
	var caret string
	for _, line := range lines {
		if strings.Contains(line, "^") {
			caret = line
		}
	}
	assert.Equal(t, "  "+strings.Repeat(" ", 14)+"^~~", caret)
}

func TestRenderMultiLineSpanUnderlinesFirstLine(t *testing.T) {
	input := "select 'abc\ndef';"
	f := source.NewFile("x.sql", []byte(input))
	d := New(UnterminatedString, source.Span{Start: 7, End: len(input)}, "msg")

	var out strings.Builder
	Render(&out, f, d, nil)
	got := out.String()
	assert.Contains(t, got, "select 'abc")
	assert.NotContains(t, got, "def';\n  ^")
}

func TestRenderNote(t *testing.T) {
	input := "select (a from t;"
	f := source.NewFile("x.sql", []byte(input))
	d := New(ExpectedToken, source.Span{Start: 16, End: 17}, "Expected ')' here.").
		WithNote(source.Span{Start: 7, End: 8}, "Unmatched '(' opened here.")

	var out strings.Builder
	Render(&out, f, d, nil)
	got := out.String()
	assert.Contains(t, got, "x.sql:1:17: error: Expected ')' here.")
	assert.Contains(t, got, "x.sql:1:8: note: Unmatched '(' opened here.")
}

func TestRenderBare(t *testing.T) {
	d := New(UnknownTarget, source.Span{}, "Unknown target 'nope'.").
		WithHint("Use '--target help' to list the supported targets.")
	var out strings.Builder
	RenderBare(&out, d, nil)
	assert.Contains(t, out.String(), "error: Unknown target 'nope'.")
	assert.Contains(t, out.String(), "hint:")
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "EmptyStructResult", EmptyStructResult.String())
	assert.Equal(t, "UnterminatedString", UnterminatedString.String())
}
