// Package diag defines the span-anchored error type shared by every
// pipeline stage, and renders it against the source file.
//
// The pipeline stops at the first diagnostic. Nothing is written to
// stdout on error; the CLI renders the diagnostic to stderr and exits 1.
package diag

import (
	"fmt"

	"github.com/sqlweave/sqlweave/pkg/source"
)

// Kind identifies the diagnostic in the fixed taxonomy.
type Kind int

const (
	// Lexer diagnostics.
	UnterminatedString Kind = iota
	UnterminatedBlockComment
	UnrecognisedByte

	// Parser diagnostics.
	ExpectedToken
	UnexpectedToken
	UnknownAnnotation
	MissingArrow
	MissingSemicolon
	MissingEndMarker

	// Resolver diagnostics.
	EmptyStructResult
	UntypedStructParameter
	ConflictingParameterType
	UnknownPrimitive
	NullableStructOrTuple
	MultiArgStruct
	UnknownTarget
)

var kindNames = map[Kind]string{
	UnterminatedString:       "UnterminatedString",
	UnterminatedBlockComment: "UnterminatedBlockComment",
	UnrecognisedByte:         "UnrecognisedByte",
	ExpectedToken:            "ExpectedToken",
	UnexpectedToken:          "UnexpectedToken",
	UnknownAnnotation:        "UnknownAnnotation",
	MissingArrow:             "MissingArrow",
	MissingSemicolon:         "MissingSemicolon",
	MissingEndMarker:         "MissingEndMarker",
	EmptyStructResult:        "EmptyStructResult",
	UntypedStructParameter:   "UntypedStructParameter",
	ConflictingParameterType: "ConflictingParameterType",
	UnknownPrimitive:         "UnknownPrimitive",
	NullableStructOrTuple:    "NullableStructOrTuple",
	MultiArgStruct:           "MultiArgStruct",
	UnknownTarget:            "UnknownTarget",
}

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Note points at a secondary location, e.g. the unmatched opening bracket
// for a bracket mismatch at the primary span.
type Note struct {
	Span    source.Span
	Message string
}

// Diagnostic is a single error with one primary span and an optional hint.
type Diagnostic struct {
	Kind    Kind
	Span    source.Span
	Message string
	Hint    string
	Note    *Note
}

// New builds a diagnostic without a hint.
func New(kind Kind, span source.Span, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Span: span, Message: message}
}

// WithHint attaches a hint line and returns the diagnostic.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

// WithNote attaches a secondary location and returns the diagnostic.
func (d *Diagnostic) WithNote(span source.Span, message string) *Diagnostic {
	d.Note = &Note{Span: span, Message: message}
	return d
}

// Error implements the error interface with a location-free summary.
// Use Render for the full source-anchored form.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}
