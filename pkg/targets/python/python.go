// Package python holds the rendering shared by the Python emission
// targets.
package python

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/target"
)

var primitiveTypes = map[ast.Primitive]string{
	ast.PrimitiveI32:     "int",
	ast.PrimitiveI64:     "int",
	ast.PrimitiveF32:     "float",
	ast.PrimitiveF64:     "float",
	ast.PrimitiveStr:     "str",
	ast.PrimitiveBytes:   "bytes",
	ast.PrimitiveBool:    "bool",
	ast.PrimitiveInstant: "datetime.datetime",
}

// TypeExpr renders a resolved type as a Python annotation.
func TypeExpr(data []byte, ty *ast.Type) string {
	switch ty.Kind {
	case ast.KindPrimitive:
		return primitiveTypes[ty.Primitive]
	case ast.KindOption:
		return "Optional[" + TypeExpr(data, ty.Elem) + "]"
	case ast.KindIterator:
		return "Iterator[" + TypeExpr(data, ty.Elem) + "]"
	case ast.KindTuple:
		var parts []string
		for _, elem := range ty.Elems {
			parts = append(parts, TypeExpr(data, elem))
		}
		return "Tuple[" + strings.Join(parts, ", ") + "]"
	case ast.KindStruct:
		return ty.Name.Text(data)
	}
	return ""
}

// Header writes the generated-file comment naming the inputs.
func Header(w io.Writer, docs []*ast.Document) {
	fmt.Fprintln(w, "# This file was generated by sqlweave. Do not edit it by hand.")
	fmt.Fprintln(w, "# Input files:")
	for _, doc := range docs {
		fmt.Fprintf(w, "#   %s\n", doc.File.Name)
	}
}

// WriteStruct renders a struct as a NamedTuple class.
func WriteStruct(w io.Writer, decl *target.StructDecl) {
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "class %s(NamedTuple):\n", decl.Name)
	for _, field := range decl.Fields {
		fmt.Fprintf(w, "    %s: %s\n", field.Name, TypeExpr(nil, field.Type))
	}
}

// WriteDocstring renders the doc comment lines as a docstring, indented
// one function level.
func WriteDocstring(w io.Writer, docs []string) {
	if len(docs) == 0 {
		return
	}
	fmt.Fprintln(w, `    """`)
	for _, line := range docs {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintln(w, `    """`)
}

// WriteSQL renders the statement as a triple-quoted assignment.
func WriteSQL(w io.Writer, sql string) {
	fmt.Fprintln(w, `    sql = """`)
	for _, line := range strings.Split(sql, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintln(w, `    """`)
}

// ParamsDict renders the dict literal that supplies the named bind
// parameters, dereferencing the struct argument's fields when the query
// takes a struct.
func ParamsDict(fn *target.FuncDecl, stmt target.Statement) string {
	if len(stmt.Binds) == 0 {
		return "{}"
	}
	prefix := ""
	if len(fn.Params) == 1 && fn.Params[0].Type.Kind == ast.KindStruct {
		prefix = fn.Params[0].Name + "."
	}
	var parts []string
	for _, bind := range stmt.Binds {
		parts = append(parts, fmt.Sprintf("%q: %s%s", bind.Name, prefix, bind.Name))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Signature renders the def line: the transaction, the arguments with
// their types, and the return annotation.
func Signature(fn *target.FuncDecl) string {
	data := fn.File.Data
	parts := []string{"tx: Transaction"}
	for _, param := range fn.Params {
		parts = append(parts, param.Name+": "+TypeExpr(data, param.Type))
	}
	ret := "None"
	if fn.Result != nil {
		ret = TypeExpr(data, fn.Result)
	}
	return fmt.Sprintf("def %s(%s) -> %s:", fn.Name, strings.Join(parts, ", "), ret)
}

// RowExpr renders the expression that decodes one fetched row.
func RowExpr(data []byte, ty *ast.Type) string {
	switch ty.Kind {
	case ast.KindStruct:
		return ty.Name.Text(data) + "(*row)"
	case ast.KindTuple:
		return "tuple(row)"
	default:
		return "row[0]"
	}
}

// UsesInstant reports whether the datetime import is needed.
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

// WriteFunction renders one query function. The cursor construction is
// the only driver-specific piece, injected via cursorExpr.
func WriteFunction(w io.Writer, fn *target.FuncDecl, cursorExpr string) {
	data := fn.File.Data

	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, Signature(fn))
	WriteDocstring(w, fn.Docs)

	final := fn.Statements[len(fn.Statements)-1]
	intermediate := fn.Statements[:len(fn.Statements)-1]

	fmt.Fprintf(w, "    cur = %s\n", cursorExpr)
	for _, stmt := range intermediate {
		WriteSQL(w, stmt.SQL)
		fmt.Fprintf(w, "    cur.execute(sql, %s)\n", ParamsDict(fn, stmt))
	}

	WriteSQL(w, final.SQL)
	fmt.Fprintf(w, "    cur.execute(sql, %s)\n", ParamsDict(fn, final))

	if fn.Result == nil {
		fmt.Fprintln(w, "    return None")
		return
	}

	switch fn.Cardinality {
	case ast.ExactlyOne:
		fmt.Fprintln(w, "    row = cur.fetchone()")
		fmt.Fprintf(w, "    assert row is not None, %q\n", "Query '"+fn.Name+"' should return exactly one row.")
		fmt.Fprintf(w, "    return %s\n", RowExpr(data, fn.Result))
	case ast.ZeroOrOne:
		fmt.Fprintln(w, "    row = cur.fetchone()")
		fmt.Fprintln(w, "    if row is None:")
		fmt.Fprintln(w, "        return None")
		fmt.Fprintf(w, "    return %s\n", RowExpr(data, fn.Result.Elem))
	case ast.Many:
		fmt.Fprintln(w, "    for row in cur:")
		fmt.Fprintf(w, "        yield %s\n", RowExpr(data, fn.Result.Elem))
	}
}
