// Package debug is the pseudo-target that prints the resolved document
// structure. It exists for inspecting the front end and for tests; the
// output is stable and line-oriented.
package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/target"
)

func init() {
	target.Register(&target.Target{
		Name:        "debug",
		Description: "print the resolved document structure",
		OrdinalBase: 0,
		ParamSyntax: func(name string, _ int) string {
			return ":" + name
		},
		Preamble:  preamble,
		Struct:    writeStruct,
		Function:  writeFunction,
		Postamble: postamble,
	})
}

func preamble(w io.Writer, docs []*ast.Document) error {
	fmt.Fprintln(w, "-- sqlweave debug target")
	for _, doc := range docs {
		fmt.Fprintf(w, "-- input: %s\n", doc.File.Name)
	}
	return nil
}

func postamble(io.Writer) error { return nil }

func writeStruct(w io.Writer, decl *target.StructDecl) error {
	role := "result"
	if decl.IsArgument {
		role = "argument"
	}
	fmt.Fprintf(w, "\nstruct %s (%s) {\n", decl.Name, role)
	for _, field := range decl.Fields {
		fmt.Fprintf(w, "  %s: %s\n", field.Name, typeExpr(nil, field.Type))
	}
	fmt.Fprintln(w, "}")
	return nil
}

func typeExpr(data []byte, ty *ast.Type) string {
	switch ty.Kind {
	case ast.KindPrimitive:
		return ty.Primitive.String()
	case ast.KindOption:
		return "Option<" + typeExpr(data, ty.Elem) + ">"
	case ast.KindIterator:
		return "Iterator<" + typeExpr(data, ty.Elem) + ">"
	case ast.KindTuple:
		var parts []string
		for _, elem := range ty.Elems {
			parts = append(parts, typeExpr(data, elem))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ast.KindStruct:
		return ty.Name.Text(data)
	}
	return "?"
}

func writeFunction(w io.Writer, fn *target.FuncDecl) error {
	data := fn.File.Data

	fmt.Fprintln(w)
	for _, line := range fn.Docs {
		fmt.Fprintf(w, "-- %s\n", line)
	}

	var params []string
	for _, param := range fn.Params {
		params = append(params, param.Name+": "+typeExpr(data, param.Type))
	}
	result := "()"
	if fn.Result != nil {
		result = typeExpr(data, fn.Result)
	}
	fmt.Fprintf(w, "query %s(%s) -> %s [%s]\n", fn.Name, strings.Join(params, ", "), result, fn.Cardinality)

	for i, stmt := range fn.Statements {
		fmt.Fprintf(w, "  statement %d:\n", i)
		for _, line := range strings.Split(stmt.SQL, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		for _, bind := range stmt.Binds {
			fmt.Fprintf(w, "    bind %d: %s\n", bind.Ordinal, bind.Name)
		}
	}
	return nil
}
