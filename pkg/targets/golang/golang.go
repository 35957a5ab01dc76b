// Package golang holds the rendering shared by the Go emission targets.
package golang

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/target"
)

// ExportedName converts a snake_case source identifier to an exported
// Go name.
func ExportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ArgName converts a snake_case source identifier to a Go argument name.
func ArgName(name string) string {
	exported := ExportedName(name)
	if exported == "" {
		return name
	}
	return strings.ToLower(exported[:1]) + exported[1:]
}

var primitiveTypes = map[ast.Primitive]string{
	ast.PrimitiveI32:     "int32",
	ast.PrimitiveI64:     "int64",
	ast.PrimitiveF32:     "float32",
	ast.PrimitiveF64:     "float64",
	ast.PrimitiveStr:     "string",
	ast.PrimitiveBytes:   "[]byte",
	ast.PrimitiveBool:    "bool",
	ast.PrimitiveInstant: "time.Time",
}

// TypeExpr renders a resolved type as a Go type. Nullable values are
// pointers, except bytes, whose nil slice already encodes NULL.
func TypeExpr(data []byte, ty *ast.Type) string {
	switch ty.Kind {
	case ast.KindPrimitive:
		return primitiveTypes[ty.Primitive]
	case ast.KindOption:
		inner := TypeExpr(data, ty.Elem)
		if ty.Elem.Kind == ast.KindPrimitive && ty.Elem.Primitive == ast.PrimitiveBytes {
			return inner
		}
		return "*" + inner
	case ast.KindStruct:
		return ExportedName(ty.Name.Text(data))
	default:
		// Tuples and iterators are shaped by the caller: tuples become
		// a row struct, iterators a slice.
		return ""
	}
}

// UsesInstant reports whether any query mentions the instant primitive,
// which decides the time import.
func UsesInstant(docs []*ast.Document) bool {
	for _, doc := range docs {
		for _, query := range doc.Queries {
			for _, param := range query.Signature.Params {
				if typeUsesInstant(param.Type) {
					return true
				}
			}
			if typeUsesInstant(query.Signature.Result) {
				return true
			}
		}
	}
	return false
}

func typeUsesInstant(ty *ast.Type) bool {
	if ty == nil {
		return false
	}
	switch ty.Kind {
	case ast.KindPrimitive:
		return ty.Primitive == ast.PrimitiveInstant
	case ast.KindOption, ast.KindIterator:
		return typeUsesInstant(ty.Elem)
	case ast.KindTuple:
		for _, elem := range ty.Elems {
			if typeUsesInstant(elem) {
				return true
			}
		}
	case ast.KindStruct:
		for _, field := range ty.Fields {
			if typeUsesInstant(field.Type) {
				return true
			}
		}
	}
	return false
}

// Header writes the generated-file comment naming the inputs.
func Header(w io.Writer, docs []*ast.Document) {
	fmt.Fprintln(w, "// Code generated by sqlweave. DO NOT EDIT.")
	fmt.Fprintln(w, "// Input files:")
	for _, doc := range docs {
		fmt.Fprintf(w, "//   %s\n", doc.File.Name)
	}
}

// WriteStruct renders a struct declaration.
func WriteStruct(w io.Writer, decl *target.StructDecl) {
	fmt.Fprintf(w, "\ntype %s struct {\n", ExportedName(decl.Name))
	for _, field := range decl.Fields {
		fmt.Fprintf(w, "\t%s %s\n", ExportedName(field.Name), TypeExpr(nil, field.Type))
	}
	fmt.Fprintln(w, "}")
}

// QuoteSQL renders the statement as a Go raw string literal, falling
// back to an interpreted literal when the SQL contains a backtick.
func QuoteSQL(sql string) string {
	if !strings.Contains(sql, "`") {
		return "`" + sql + "`"
	}
	return fmt.Sprintf("%q", sql)
}

// RowShape describes how one decoded row looks in Go.
type RowShape struct {
	// TypeExpr is the Go type of one row.
	TypeExpr string
	// RowDecl declares a synthetic row struct for tuple results, or is
	// empty.
	RowDecl string
	// ScanDests lists the scan destinations for a variable "result".
	ScanDests string
	// Bytes is set when the row type is []byte, whose nil slice already
	// encodes absence.
	Bytes bool
}

// ShapeOf computes the row shape for the element type of a result.
// Tuple rows get a synthetic struct named after the function.
func ShapeOf(data []byte, fnName string, ty *ast.Type) RowShape {
	switch ty.Kind {
	case ast.KindStruct:
		name := ExportedName(ty.Name.Text(data))
		var dests []string
		for _, field := range ty.Fields {
			dests = append(dests, "&result."+ExportedName(field.Name.Text(data)))
		}
		return RowShape{TypeExpr: name, ScanDests: strings.Join(dests, ", ")}

	case ast.KindTuple:
		// Go has no tuples; a synthetic row struct stands in.
		name := fnName + "Row"
		var decl strings.Builder
		fmt.Fprintf(&decl, "\ntype %s struct {\n", name)
		var dests []string
		for i, elem := range ty.Elems {
			fmt.Fprintf(&decl, "\tF%d %s\n", i, TypeExpr(data, elem))
			dests = append(dests, fmt.Sprintf("&result.F%d", i))
		}
		decl.WriteString("}\n")
		return RowShape{TypeExpr: name, RowDecl: decl.String(), ScanDests: strings.Join(dests, ", ")}

	default:
		expr := TypeExpr(data, ty)
		return RowShape{TypeExpr: expr, ScanDests: "&result", Bytes: expr == "[]byte"}
	}
}

// WriteDocs renders doc comment lines.
func WriteDocs(w io.Writer, docs []string) {
	for _, line := range docs {
		if line == "" {
			fmt.Fprintln(w, "//")
			continue
		}
		fmt.Fprintf(w, "// %s\n", line)
	}
}
