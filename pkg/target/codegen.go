package target

import (
	"io"
	"strings"

	"github.com/sqlweave/sqlweave/pkg/ast"
)

// Generate walks the resolved documents and drives the target's hooks:
// preamble, struct declarations in first-appearance order, one function
// per query in source order, postamble.
func Generate(w io.Writer, t *Target, docs []*ast.Document) error {
	if err := t.Preamble(w, docs); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, doc := range docs {
		for _, query := range doc.Queries {
			for _, decl := range structDecls(doc, query) {
				if seen[decl.Name] {
					continue
				}
				seen[decl.Name] = true
				if err := t.Struct(w, decl); err != nil {
					return err
				}
			}
		}
	}

	for _, doc := range docs {
		for _, query := range doc.Queries {
			if err := t.Function(w, buildFunc(t, doc, query)); err != nil {
				return err
			}
		}
	}

	return t.Postamble(w)
}

// structDecls collects the struct types one query mentions: the
// argument struct first, then the result struct.
func structDecls(doc *ast.Document, query *ast.Query) []*StructDecl {
	var decls []*StructDecl
	data := doc.File.Data

	for _, param := range query.Signature.Params {
		if param.Type.Kind != ast.KindStruct {
			continue
		}
		decls = append(decls, &StructDecl{
			Name:       param.Type.Name.Text(data),
			Fields:     fieldsOf(data, param.Type),
			IsArgument: true,
		})
	}

	if result := query.Signature.Result; result != nil {
		if inner := result.Inner(); inner.Kind == ast.KindStruct {
			decls = append(decls, &StructDecl{
				Name:   inner.Name.Text(data),
				Fields: fieldsOf(data, inner),
			})
		}
	}
	return decls
}

func fieldsOf(data []byte, st *ast.Type) []Field {
	fields := make([]Field, len(st.Fields))
	for i, f := range st.Fields {
		fields[i] = Field{Name: f.Name.Text(data), Type: f.Type}
	}
	return fields
}

// buildFunc assembles the per-query payload: resolved names, the bind
// list, and the SQL with the target's parameter syntax substituted and
// hint comments stripped.
func buildFunc(t *Target, doc *ast.Document, query *ast.Query) *FuncDecl {
	data := doc.File.Data
	sig := &query.Signature

	fn := &FuncDecl{
		Name:        sig.Name.Text(data),
		File:        doc.File,
		Cardinality: sig.Cardinality,
		Result:      sig.Result,
	}

	for _, span := range query.DocComments {
		fn.Docs = append(fn.Docs, commentText(span.Text(data)))
	}

	for _, param := range sig.Params {
		fn.Params = append(fn.Params, Param{Name: param.Name.Text(data), Type: param.Type})
	}

	for _, stmt := range query.Body.Statements {
		var out Statement
		ordinals := make(map[string]int)
		for _, frag := range stmt.Params() {
			name := frag.Name.Text(data)
			if _, ok := ordinals[name]; ok {
				continue
			}
			ordinal := t.OrdinalBase + len(out.Binds)
			ordinals[name] = ordinal
			out.Binds = append(out.Binds, Bind{Name: name, Ordinal: ordinal})
		}

		var sql strings.Builder
		for _, frag := range stmt.Fragments {
			switch frag.Kind {
			case ast.FragRaw:
				sql.WriteString(frag.Span.Text(data))
			case ast.FragParam:
				name := frag.Name.Text(data)
				sql.WriteString(t.ParamSyntax(name, ordinals[name]))
			case ast.FragHint:
				// Hint comments are dropped from the emitted SQL; the
				// annotated identifier stays in the surrounding raw
				// fragments.
			}
		}
		out.SQL = strings.TrimSpace(sql.String())
		fn.Statements = append(fn.Statements, out)
	}

	return fn
}

// commentText strips the comment delimiters from a doc comment.
func commentText(text string) string {
	if strings.HasPrefix(text, "--") {
		return strings.TrimSpace(text[2:])
	}
	if strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/") {
		return strings.TrimSpace(text[2 : len(text)-2])
	}
	return strings.TrimSpace(text)
}
