// Package target defines the emitter framework: the function record
// every code-generation target fills in, the registry that maps target
// names to records, and the walk that feeds resolved documents to a
// target.
//
// A target is a bundle of pure functions, not a type hierarchy: the
// framework wires parameter-syntax rewriting and declaration collection,
// and the record's hooks assemble the output text.
package target

import (
	"io"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/source"
)

// Field is a named, typed member of a struct declaration, with names
// and types resolved to plain values for the emitter.
type Field struct {
	Name string
	Type *ast.Type
}

// StructDecl is a struct type collected from the signatures, in first
// appearance order.
type StructDecl struct {
	Name   string
	Fields []Field

	// IsArgument is set when the struct is a query argument rather
	// than a result row; targets may render the two differently.
	IsArgument bool
}

// Param is a resolved signature parameter.
type Param struct {
	Name string
	// Type is the parameter type; KindStruct for a struct argument,
	// with fields populated.
	Type *ast.Type
}

// Bind is one distinct query parameter in bind order.
type Bind struct {
	Name    string
	Ordinal int // includes the target's ordinal base
}

// FuncDecl is everything a target needs to render one query function.
type FuncDecl struct {
	Name string

	// File is the source the query came from; type names in Result and
	// Params are spans into it.
	File *source.File

	// Docs are the doc comment lines above the annotation, with the
	// comment delimiters stripped and whitespace trimmed.
	Docs []string

	Params      []Param
	Cardinality ast.Cardinality

	// Result is the resolved result type with the cardinality folded
	// in, or nil for queries that return nothing.
	Result *ast.Type

	// Statements hold the rewritten SQL, one entry per ';'-separated
	// statement. Ordinals restart for every statement, because each
	// statement is prepared and executed on its own.
	Statements []Statement
}

// Statement is one executable piece of a query: the SQL with the
// target's parameter syntax substituted and hint comments stripped,
// plus the distinct parameters it binds in first-occurrence order.
type Statement struct {
	SQL   string
	Binds []Bind
}

// Target is the function record one emission target fills in.
type Target struct {
	// Name is "<lang>-<driver>", all lowercase.
	Name        string
	Description string

	// ParamSyntax renders one parameter reference in the SQL text.
	ParamSyntax func(name string, ordinal int) string
	// OrdinalBase is the first ordinal passed to ParamSyntax.
	OrdinalBase int

	Preamble  func(w io.Writer, docs []*ast.Document) error
	Struct    func(w io.Writer, decl *StructDecl) error
	Function  func(w io.Writer, fn *FuncDecl) error
	Postamble func(w io.Writer) error
}
