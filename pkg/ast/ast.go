// Package ast defines the annotated-query syntax tree.
//
// Nodes hold byte spans into the source buffer, never copies of source
// bytes. The parser produces the tree, the typecheck package resolves
// it in place, and emitters read it; after emission the tree is
// read-only.
package ast

import (
	"github.com/sqlweave/sqlweave/pkg/source"
)

// Ident is a name in the source, referenced by span.
type Ident struct {
	Span source.Span
}

// Text resolves the identifier against the input buffer.
func (i Ident) Text(data []byte) string {
	return i.Span.Text(data)
}

// IsZero reports whether the identifier is absent.
func (i Ident) IsZero() bool {
	return i.Span == source.Span{}
}

// Primitive is one of the fixed primitive types. The zero value means
// the name has not been resolved yet.
type Primitive int

const (
	PrimitiveUnresolved Primitive = iota
	PrimitiveI32
	PrimitiveI64
	PrimitiveF32
	PrimitiveF64
	PrimitiveStr
	PrimitiveBytes
	PrimitiveBool
	PrimitiveInstant
)

var primitiveNames = map[Primitive]string{
	PrimitiveUnresolved: "unresolved",
	PrimitiveI32:        "i32",
	PrimitiveI64:        "i64",
	PrimitiveF32:        "f32",
	PrimitiveF64:        "f64",
	PrimitiveStr:        "str",
	PrimitiveBytes:      "bytes",
	PrimitiveBool:       "bool",
	PrimitiveInstant:    "instant",
}

// String returns the canonical source spelling of the primitive.
func (p Primitive) String() string {
	return primitiveNames[p]
}

// TypeKind tags the Type sum.
type TypeKind int

const (
	// KindPrimitive is a named scalar type, e.g. i64 or str.
	KindPrimitive TypeKind = iota
	// KindOption wraps a type that may be absent, written T? in source.
	KindOption
	// KindTuple is an ordered aggregate of primitives, results only.
	KindTuple
	// KindStruct is a named aggregate; its fields are filled in by the
	// resolver from the query body, not listed in the annotation.
	KindStruct
	// KindIterator marks a zero-or-more result element.
	KindIterator
)

// Type is a tagged sum; which payload fields are meaningful depends on
// Kind. The sum is closed and small, so walks dispatch on the tag.
type Type struct {
	Kind TypeKind
	Span source.Span

	// Name is the head identifier for KindPrimitive and KindStruct.
	Name Ident

	// Primitive is filled by the resolver for KindPrimitive.
	Primitive Primitive

	// Elem is the element for KindOption and KindIterator.
	Elem *Type

	// Elems are the elements for KindTuple.
	Elems []*Type

	// Fields are filled by the resolver for KindStruct.
	Fields []Field
}

// Field is a named, typed member of a struct type.
type Field struct {
	Name Ident
	Type *Type
}

// Inner returns the innermost type through Option and Iterator
// wrappers. Structs and tuples are returned as-is.
func (t *Type) Inner() *Type {
	switch t.Kind {
	case KindOption, KindIterator:
		return t.Elem.Inner()
	default:
		return t
	}
}

// Cardinality says how many rows a query returns.
type Cardinality int

const (
	// ExactlyOne decodes a single row. Queries without a result type
	// also use ExactlyOne: they execute once and decode nothing.
	ExactlyOne Cardinality = iota
	// ZeroOrOne decodes at most one row.
	ZeroOrOne
	// Many decodes any number of rows.
	Many
)

var cardinalityNames = map[Cardinality]string{
	ExactlyOne: "ExactlyOne",
	ZeroOrOne:  "ZeroOrOne",
	Many:       "Many",
}

func (c Cardinality) String() string {
	return cardinalityNames[c]
}

// Param is a named, typed query parameter from the signature.
type Param struct {
	Name Ident
	Type *Type
}

// Signature is the typed function head of an annotated query.
type Signature struct {
	Name        Ident
	Params      []Param
	Cardinality Cardinality

	// Result is nil for queries that return nothing.
	Result *Type

	// ArrowSpan covers the arrow token, or is zero when the annotation
	// has no arrow. Diagnostics about the result anchor here.
	ArrowSpan source.Span
}

// FragmentKind tags a query body fragment.
type FragmentKind int

const (
	// FragRaw is verbatim SQL.
	FragRaw FragmentKind = iota
	// FragParam is a :name parameter reference, colon included.
	FragParam
	// FragHint is an inline type comment, delimiters included.
	FragHint
)

var fragmentNames = map[FragmentKind]string{
	FragRaw:   "Raw",
	FragParam: "Param",
	FragHint:  "Hint",
}

func (k FragmentKind) String() string {
	return fragmentNames[k]
}

// Fragment is an atom of a query body. The ordered fragments of a
// statement cover its bytes exactly; re-serializing them reproduces the
// original SQL, parameter-syntax substitution aside.
type Fragment struct {
	Kind FragmentKind
	Span source.Span

	// Name is the parameter name without the ':' for FragParam, or the
	// annotated column identifier for FragHint (absent when the hint
	// annotates a parameter).
	Name Ident

	// Type is the hinted type for FragHint: a primitive, possibly
	// wrapped in an option.
	Type *Type
}

// Statement is one ';'-terminated piece of a query body.
type Statement struct {
	Span      source.Span
	Fragments []Fragment
}

// Params returns the statement's parameter fragments.
func (s *Statement) Params() []Fragment {
	var out []Fragment
	for _, f := range s.Fragments {
		if f.Kind == FragParam {
			out = append(out, f)
		}
	}
	return out
}

// Body is the SQL of a query: one statement for @query, one or more for
// @begin blocks.
type Body struct {
	Span       source.Span
	Statements []Statement
}

// Query is one annotated query.
type Query struct {
	// DocComments are the comment spans directly above the annotation,
	// delimiters included.
	DocComments []source.Span
	Signature   Signature
	Body        Body
	Span        source.Span

	// Multi is set for @begin blocks.
	Multi bool
}

// Document is one parsed source file.
type Document struct {
	File *source.File

	// LeadingContent preserves any content before the first annotated
	// query; emitters may echo it.
	LeadingContent []source.Span

	Queries []*Query

	// Resolved is set by the typecheck pass; resolving again is a no-op.
	Resolved bool
}
