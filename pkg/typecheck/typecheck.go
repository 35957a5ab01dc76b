// Package typecheck resolves a parsed document in place.
//
// There is not much to typecheck in the classic sense: the pass
// validates primitive type names, populates struct types from the query
// body (result structs from the inline type hints, argument structs
// from the annotated parameters), and folds the arrow cardinality into
// the result type. Resolution is idempotent; resolving an already
// resolved document is a no-op.
package typecheck

import (
	"strings"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/source"
)

// The fixed primitive set. 'int' is an alias for i32.
var primitives = map[string]ast.Primitive{
	"i32":     ast.PrimitiveI32,
	"i64":     ast.PrimitiveI64,
	"f32":     ast.PrimitiveF32,
	"f64":     ast.PrimitiveF64,
	"str":     ast.PrimitiveStr,
	"bytes":   ast.PrimitiveBytes,
	"bool":    ast.PrimitiveBool,
	"instant": ast.PrimitiveInstant,
	"int":     ast.PrimitiveI32,
}

// Alternative spellings people reasonably try, mapped to the suggestion
// we give them.
var suggestions = map[string]string{
	"string":    "str",
	"text":      "str",
	"varchar":   "str",
	"i8":        "i32",
	"i16":       "i32",
	"u8":        "i32",
	"u16":       "i32",
	"u32":       "i32",
	"u64":       "i64",
	"uint":      "i64",
	"int4":      "i32",
	"int8":      "i64",
	"integer":   "i32",
	"smallint":  "i32",
	"bigint":    "i64",
	"float":     "f64",
	"double":    "f64",
	"real":      "f32",
	"float4":    "f32",
	"float8":    "f64",
	"boolean":   "bool",
	"bit":       "bool",
	"blob":      "bytes",
	"bytea":     "bytes",
	"binary":    "bytes",
	"timestamp": "instant",
	"datetime":  "instant",
	"date":      "instant",
}

// Check resolves every query of the document in place.
func Check(doc *ast.Document) *diag.Diagnostic {
	if doc.Resolved {
		return nil
	}
	for _, query := range doc.Queries {
		if err := resolveQuery(doc.File, query); err != nil {
			return err
		}
	}
	doc.Resolved = true
	return nil
}

func resolveQuery(f *source.File, q *ast.Query) *diag.Diagnostic {
	// Hint types first: every inline annotation must name a primitive.
	for si := range q.Body.Statements {
		stmt := &q.Body.Statements[si]
		for fi := range stmt.Fragments {
			frag := &stmt.Fragments[fi]
			if frag.Kind != ast.FragHint {
				continue
			}
			if err := resolveSimple(f, frag.Type); err != nil {
				return err
			}
		}
	}

	if err := resolveParams(f, q); err != nil {
		return err
	}
	return resolveResult(f, q)
}

func resolveParams(f *source.File, q *ast.Query) *diag.Diagnostic {
	var structParam *ast.Type
	for _, param := range q.Signature.Params {
		switch param.Type.Kind {
		case ast.KindStruct:
			structParam = param.Type
		default:
			if err := resolveSimple(f, param.Type); err != nil {
				return err
			}
		}
	}
	if structParam == nil {
		return nil
	}

	if len(q.Signature.Params) > 1 {
		return diag.New(diag.MultiArgStruct, structParam.Span,
			"A struct parameter must be the only parameter of the query.")
	}
	return populateStructParam(f, q, structParam)
}

// populateStructParam fills the argument struct's fields from the
// annotated parameter references in the body, one field per distinct
// name in first-occurrence order. Every statement participates.
func populateStructParam(f *source.File, q *ast.Query, st *ast.Type) *diag.Diagnostic {
	type fieldInfo struct {
		index int
		ty    *ast.Type
	}
	var order []ast.Ident
	byName := make(map[string]*fieldInfo)

	for si := range q.Body.Statements {
		stmt := &q.Body.Statements[si]
		for fi, frag := range stmt.Fragments {
			if frag.Kind != ast.FragParam {
				continue
			}
			name := frag.Name.Text(f.Data)
			info := byName[name]
			if info == nil {
				info = &fieldInfo{index: len(order)}
				byName[name] = info
				order = append(order, frag.Name)
			}

			hint := adjacentHint(f.Data, stmt.Fragments, fi)
			if hint == nil {
				continue
			}
			if info.ty == nil {
				info.ty = hint.Type
				continue
			}
			if !sameSimpleType(info.ty, hint.Type) {
				return diag.New(diag.ConflictingParameterType, hint.Span,
					"The parameter ':"+name+"' is annotated with a different type elsewhere.").
					WithNote(info.ty.Span, "First annotated here.")
			}
		}
	}

	fields := make([]ast.Field, len(order))
	for _, ident := range order {
		name := ident.Text(f.Data)
		info := byName[name]
		if info.ty == nil {
			return diag.New(diag.UntypedStructParameter, ident.Span,
				"The parameter ':"+name+"' has no type annotation, so the fields of '"+
					st.Name.Text(f.Data)+"' cannot be inferred.").
				WithHint("Add a type comment after the parameter, e.g. ':" + name + " /* :str */'.")
		}
		fields[info.index] = ast.Field{Name: ident, Type: info.ty}
	}
	st.Fields = fields
	return nil
}

// adjacentHint returns the hint fragment that annotates the parameter
// fragment at index i, if the next non-raw fragment is a hint separated
// from the parameter by whitespace only.
func adjacentHint(data []byte, frags []ast.Fragment, i int) *ast.Fragment {
	j := i + 1
	for j < len(frags) && frags[j].Kind == ast.FragRaw {
		j++
	}
	if j >= len(frags) {
		return nil
	}
	next := &frags[j]
	if next.Kind != ast.FragHint || !next.Name.IsZero() {
		return nil
	}
	for _, ch := range data[frags[i].Span.End:next.Span.Start] {
		switch ch {
		case ' ', '\t', '\r', '\n', '\v', '\f':
		default:
			return nil
		}
	}
	return next
}

func resolveResult(f *source.File, q *ast.Query) *diag.Diagnostic {
	sig := &q.Signature
	if sig.Result == nil {
		return nil
	}
	if err := resolveType(f, q, sig.Result); err != nil {
		return err
	}

	// Fold the arrow cardinality into the result type. The parser has
	// already removed the legacy Option<T>/Iterator<T> wrappers; a result
	// that still carries the matching wrapper (e.g. '->? i64?' or
	// '->* Iterator<i64>') is not wrapped a second time.
	switch sig.Cardinality {
	case ast.ZeroOrOne:
		if sig.Result.Kind != ast.KindOption {
			sig.Result = &ast.Type{Kind: ast.KindOption, Span: sig.Result.Span, Elem: sig.Result}
		}
	case ast.Many:
		if sig.Result.Kind != ast.KindIterator {
			sig.Result = &ast.Type{Kind: ast.KindIterator, Span: sig.Result.Span, Elem: sig.Result}
		}
	}
	return nil
}

// resolveType resolves a result-position type.
func resolveType(f *source.File, q *ast.Query, ty *ast.Type) *diag.Diagnostic {
	switch ty.Kind {
	case ast.KindPrimitive:
		return resolvePrimitive(f, ty)

	case ast.KindOption:
		if inner := ty.Elem; inner.Kind == ast.KindStruct || inner.Kind == ast.KindTuple || inner.Kind == ast.KindOption {
			return diag.New(diag.NullableStructOrTuple, ty.Span,
				"The '?' marker can only be applied to primitive types.")
		}
		return resolveType(f, q, ty.Elem)

	case ast.KindIterator:
		return resolveType(f, q, ty.Elem)

	case ast.KindTuple:
		for _, elem := range ty.Elems {
			if err := resolveSimple(f, elem); err != nil {
				return err
			}
		}
		return nil

	case ast.KindStruct:
		return populateStructResult(f, q, ty)
	}
	return nil
}

// populateStructResult fills a result struct's fields from the inline
// type hints of the final statement, in body order.
func populateStructResult(f *source.File, q *ast.Query, st *ast.Type) *diag.Diagnostic {
	if len(st.Fields) > 0 {
		return nil
	}
	final := &q.Body.Statements[len(q.Body.Statements)-1]
	var fields []ast.Field
	for _, frag := range final.Fragments {
		if frag.Kind != ast.FragHint || frag.Name.IsZero() {
			continue
		}
		fields = append(fields, ast.Field{Name: frag.Name, Type: frag.Type})
	}
	if len(fields) == 0 {
		span := st.Span
		if q.Signature.ArrowSpan != (source.Span{}) {
			span = q.Signature.ArrowSpan.Join(st.Span)
		}
		return diag.New(diag.EmptyStructResult, span,
			"The result type '"+st.Name.Text(f.Data)+"' is a struct, but no selected column is annotated.").
			WithHint("Annotate the selected columns with type comments like '/* :i64 */' to define the fields of '" +
				st.Name.Text(f.Data) + "'.")
	}
	st.Fields = fields
	return nil
}

// resolveSimple resolves a primitive or nullable-primitive type, the
// only shapes hints, tuple elements and non-struct parameters may have.
func resolveSimple(f *source.File, ty *ast.Type) *diag.Diagnostic {
	switch ty.Kind {
	case ast.KindPrimitive:
		return resolvePrimitive(f, ty)
	case ast.KindOption:
		if ty.Elem.Kind != ast.KindPrimitive {
			return diag.New(diag.NullableStructOrTuple, ty.Span,
				"The '?' marker can only be applied to primitive types.")
		}
		return resolvePrimitive(f, ty.Elem)
	case ast.KindStruct:
		return diag.New(diag.UnknownPrimitive, ty.Span,
			"Unknown type '"+ty.Name.Text(f.Data)+"', expected a primitive type here.").
			WithHint("Struct types cannot be used here; the primitive types are i32, i64, f32, f64, str, bytes, bool and instant.")
	default:
		return diag.New(diag.UnknownPrimitive, ty.Span, "Expected a primitive type here.")
	}
}

func resolvePrimitive(f *source.File, ty *ast.Type) *diag.Diagnostic {
	if ty.Primitive != ast.PrimitiveUnresolved {
		return nil
	}
	name := ty.Name.Text(f.Data)
	prim, ok := primitives[name]
	if !ok {
		d := diag.New(diag.UnknownPrimitive, ty.Span, "Unknown type '"+name+"'.")
		if hint, ok := suggestions[strings.ToLower(name)]; ok {
			return d.WithHint("Did you mean '" + hint + "'?")
		}
		return d.WithHint("The primitive types are i32, i64, f32, f64, str, bytes, bool and instant.")
	}
	ty.Primitive = prim
	return nil
}

// sameSimpleType compares two hint types for agreement: same canonical
// primitive and same nullability.
func sameSimpleType(a, b *ast.Type) bool {
	if (a.Kind == ast.KindOption) != (b.Kind == ast.KindOption) {
		return false
	}
	return a.Inner().Primitive == b.Inner().Primitive
}
