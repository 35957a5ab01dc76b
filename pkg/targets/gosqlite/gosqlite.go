// Package gosqlite emits Go code over database/sql for SQLite drivers
// such as mattn/go-sqlite3. Parameters use the ?NNN numbered syntax so
// that a name referenced twice binds once.
package gosqlite

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/target"
	"github.com/sqlweave/sqlweave/pkg/targets/golang"
)

func init() {
	target.Register(&target.Target{
		Name:        "go-sqlite3",
		Description: "Go functions over a database/sql Tx (SQLite)",
		OrdinalBase: 1,
		ParamSyntax: func(_ string, ordinal int) string {
			return fmt.Sprintf("?%d", ordinal)
		},
		Preamble:  preamble,
		Struct:    writeStruct,
		Function:  writeFunction,
		Postamble: postamble,
	})
}

func preamble(w io.Writer, docs []*ast.Document) error {
	golang.Header(w, docs)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "package queries")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "import (")
	fmt.Fprintln(w, "\t\"context\"")
	fmt.Fprintln(w, "\t\"database/sql\"")
	if usesZeroOrOne(docs) {
		fmt.Fprintln(w, "\t\"errors\"")
	}
	if golang.UsesInstant(docs) {
		fmt.Fprintln(w, "\t\"time\"")
	}
	fmt.Fprintln(w, ")")
	return nil
}

func postamble(io.Writer) error { return nil }

func usesZeroOrOne(docs []*ast.Document) bool {
	for _, doc := range docs {
		for _, query := range doc.Queries {
			if query.Signature.Result != nil && query.Signature.Cardinality == ast.ZeroOrOne {
				return true
			}
		}
	}
	return false
}

func writeStruct(w io.Writer, decl *target.StructDecl) error {
	golang.WriteStruct(w, decl)
	return nil
}

func bindExpr(fn *target.FuncDecl, name string) string {
	if len(fn.Params) == 1 && fn.Params[0].Type.Kind == ast.KindStruct {
		return golang.ArgName(fn.Params[0].Name) + "." + golang.ExportedName(name)
	}
	return golang.ArgName(name)
}

func bindArgs(fn *target.FuncDecl, stmt target.Statement) string {
	var parts []string
	for _, bind := range stmt.Binds {
		parts = append(parts, bindExpr(fn, bind.Name))
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func paramList(fn *target.FuncDecl) string {
	data := fn.File.Data
	parts := []string{"ctx context.Context", "tx *sql.Tx"}
	for _, param := range fn.Params {
		parts = append(parts, golang.ArgName(param.Name)+" "+golang.TypeExpr(data, param.Type))
	}
	return strings.Join(parts, ", ")
}

func writeExec(w io.Writer, fn *target.FuncDecl, stmt target.Statement, errReturn string) {
	fmt.Fprintf(w, "\tif _, err := tx.ExecContext(ctx, %s%s); err != nil {\n", golang.QuoteSQL(stmt.SQL), bindArgs(fn, stmt))
	fmt.Fprintf(w, "\t\treturn %s\n", errReturn)
	fmt.Fprintln(w, "\t}")
}

func writeFunction(w io.Writer, fn *target.FuncDecl) error {
	name := golang.ExportedName(fn.Name)
	data := fn.File.Data

	if fn.Result == nil {
		fmt.Fprintln(w)
		golang.WriteDocs(w, fn.Docs)
		fmt.Fprintf(w, "func %s(%s) error {\n", name, paramList(fn))
		for _, stmt := range fn.Statements {
			writeExec(w, fn, stmt, "err")
		}
		fmt.Fprintln(w, "\treturn nil")
		fmt.Fprintln(w, "}")
		return nil
	}

	final := fn.Statements[len(fn.Statements)-1]
	intermediate := fn.Statements[:len(fn.Statements)-1]

	elem := fn.Result
	if fn.Cardinality != ast.ExactlyOne {
		elem = fn.Result.Elem
	}
	shape := golang.ShapeOf(data, name, elem)
	if shape.RowDecl != "" {
		fmt.Fprint(w, shape.RowDecl)
	}

	fmt.Fprintln(w)
	golang.WriteDocs(w, fn.Docs)

	switch fn.Cardinality {
	case ast.ExactlyOne:
		fmt.Fprintf(w, "func %s(%s) (%s, error) {\n", name, paramList(fn), shape.TypeExpr)
		fmt.Fprintf(w, "\tvar result %s\n", shape.TypeExpr)
		for _, stmt := range intermediate {
			writeExec(w, fn, stmt, "result, err")
		}
		fmt.Fprintf(w, "\terr := tx.QueryRowContext(ctx, %s%s).Scan(%s)\n", golang.QuoteSQL(final.SQL), bindArgs(fn, final), shape.ScanDests)
		fmt.Fprintln(w, "\treturn result, err")
		fmt.Fprintln(w, "}")

	case ast.ZeroOrOne:
		retType := "*" + shape.TypeExpr
		retExpr := "&result"
		if shape.Bytes {
			retType = shape.TypeExpr
			retExpr = "result"
		}
		fmt.Fprintf(w, "func %s(%s) (%s, error) {\n", name, paramList(fn), retType)
		for _, stmt := range intermediate {
			writeExec(w, fn, stmt, "nil, err")
		}
		fmt.Fprintf(w, "\tvar result %s\n", shape.TypeExpr)
		fmt.Fprintf(w, "\terr := tx.QueryRowContext(ctx, %s%s).Scan(%s)\n", golang.QuoteSQL(final.SQL), bindArgs(fn, final), shape.ScanDests)
		fmt.Fprintln(w, "\tif errors.Is(err, sql.ErrNoRows) {")
		fmt.Fprintln(w, "\t\treturn nil, nil")
		fmt.Fprintln(w, "\t}")
		fmt.Fprintln(w, "\tif err != nil {")
		fmt.Fprintln(w, "\t\treturn nil, err")
		fmt.Fprintln(w, "\t}")
		fmt.Fprintf(w, "\treturn %s, nil\n", retExpr)
		fmt.Fprintln(w, "}")

	case ast.Many:
		fmt.Fprintf(w, "func %s(%s) ([]%s, error) {\n", name, paramList(fn), shape.TypeExpr)
		for _, stmt := range intermediate {
			writeExec(w, fn, stmt, "nil, err")
		}
		fmt.Fprintf(w, "\trows, err := tx.QueryContext(ctx, %s%s)\n", golang.QuoteSQL(final.SQL), bindArgs(fn, final))
		fmt.Fprintln(w, "\tif err != nil {")
		fmt.Fprintln(w, "\t\treturn nil, err")
		fmt.Fprintln(w, "\t}")
		fmt.Fprintln(w, "\tdefer rows.Close()")
		fmt.Fprintf(w, "\tvar out []%s\n", shape.TypeExpr)
		fmt.Fprintln(w, "\tfor rows.Next() {")
		fmt.Fprintf(w, "\t\tvar result %s\n", shape.TypeExpr)
		fmt.Fprintf(w, "\t\tif err := rows.Scan(%s); err != nil {\n", shape.ScanDests)
		fmt.Fprintln(w, "\t\t\treturn nil, err")
		fmt.Fprintln(w, "\t\t}")
		fmt.Fprintln(w, "\t\tout = append(out, result)")
		fmt.Fprintln(w, "\t}")
		fmt.Fprintln(w, "\treturn out, rows.Err()")
		fmt.Fprintln(w, "}")
	}
	return nil
}
