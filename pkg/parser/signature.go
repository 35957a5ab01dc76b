package parser

import (
	"strings"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/lexer"
	"github.com/sqlweave/sqlweave/pkg/source"
	"github.com/sqlweave/sqlweave/pkg/token"
)

// skipSpace advances past whitespace tokens. Annotation-mode tokens from
// consecutive comment lines are separated by whitespace tokens in the
// stream; the annotation grammar is whitespace-insensitive.
func (p *Parser) skipSpace() {
	for p.cur().Kind == token.Whitespace {
		p.consume()
	}
}

// peekSig returns the current token kind with whitespace skipped.
func (p *Parser) peekSig() token.Kind {
	p.skipSpace()
	return p.cur().Kind
}

// expectSig consumes a token of the given kind or fails.
func (p *Parser) expectSig(kind token.Kind, message string) (source.Span, *diag.Diagnostic) {
	if p.peekSig() != kind {
		return source.Span{}, p.errHere(diag.ExpectedToken, message)
	}
	return p.consume(), nil
}

// parseSignature parses an annotation head, starting at the At token.
// It returns the signature and whether the query is a @begin block.
func (p *Parser) parseSignature() (ast.Signature, bool, *diag.Diagnostic) {
	var sig ast.Signature

	atSpan := p.consume() // At
	if p.cur().Kind != token.Ident {
		return sig, false, p.errHere(diag.UnknownAnnotation, "Expected an annotation name after '@'.")
	}
	marker := p.cur().Text(p.file.Data)
	markerSpan := p.consume()

	var multi bool
	switch marker {
	case "query":
		multi = false
	case "begin":
		multi = true
	case "end":
		return sig, false, diag.New(diag.UnexpectedToken, atSpan.Join(markerSpan),
			"Found '@end' without a matching '@begin'.")
	default:
		return sig, false, diag.New(diag.UnknownAnnotation, atSpan.Join(markerSpan),
			"Unknown annotation '@"+marker+"'.").
			WithHint("Annotated queries start with '@query' or '@begin'.")
	}

	nameSpan, err := p.expectSig(token.Ident, "Expected a name for the query here.")
	if err != nil {
		return sig, false, err
	}
	sig.Name = ast.Ident{Span: nameSpan}

	if _, err := p.expectSig(token.LParen, "Expected '(' to start the query parameters."); err != nil {
		return sig, false, err
	}

	for {
		if p.peekSig() == token.RParen {
			p.consume()
			break
		}
		pname, err := p.expectSig(token.Ident, "Expected a parameter name here.")
		if err != nil {
			return sig, false, err
		}
		if _, err := p.expectSig(token.Colon, "Expected ':' between the parameter name and its type."); err != nil {
			return sig, false, err
		}
		ty, err := p.parseType(true)
		if err != nil {
			return sig, false, err
		}
		sig.Params = append(sig.Params, ast.Param{Name: ast.Ident{Span: pname}, Type: ty})

		switch p.peekSig() {
		case token.RParen:
			// Closed on the next loop iteration; a trailing comma is
			// also accepted below.
		case token.Comma:
			p.consume()
		default:
			return sig, false, p.errHere(diag.ExpectedToken, "Expected ',' or ')' in the parameter list.")
		}
	}

	sig.Cardinality = ast.ExactlyOne

	switch p.peekSig() {
	case token.ArrowOpt:
		sig.ArrowSpan = p.consume()
		sig.Cardinality = ast.ZeroOrOne
		if sig.Result, err = p.parseType(false); err != nil {
			return sig, false, err
		}
	case token.ArrowOne:
		sig.ArrowSpan = p.consume()
		sig.Cardinality = ast.ExactlyOne
		if sig.Result, err = p.parseType(false); err != nil {
			return sig, false, err
		}
	case token.ArrowStar:
		sig.ArrowSpan = p.consume()
		sig.Cardinality = ast.Many
		if sig.Result, err = p.parseType(false); err != nil {
			return sig, false, err
		}
	case token.Arrow:
		// The legacy bare arrow carries its cardinality in the type:
		// Option<T> for zero-or-one, Iterator<T> for zero-or-more.
		sig.ArrowSpan = p.consume()
		result, err := p.parseType(false)
		if err != nil {
			return sig, false, err
		}
		// Only the explicit Option<T> / Iterator<T> heads are accepted
		// after a bare arrow; a '?' suffix is nullability, not
		// cardinality, and does not count.
		head := result.Span.Text(p.file.Data)
		switch {
		case result.Kind == ast.KindOption && strings.HasPrefix(head, "Option"):
			sig.Cardinality = ast.ZeroOrOne
			result = result.Elem
		case result.Kind == ast.KindIterator:
			sig.Cardinality = ast.Many
			result = result.Elem
		default:
			return sig, false, diag.New(diag.MissingArrow, sig.ArrowSpan,
				"A bare '->' does not say how many rows the query returns.").
				WithHint("Write '->?' for zero or one, '->1' for exactly one, '->*' for zero or more, or use '-> Option<T>' / '-> Iterator<T>'.")
		}
		sig.Result = result
	default:
		// No arrow: the query returns nothing.
	}

	return sig, multi, nil
}

// parseType parses a type expression from the annotation tokens.
func (p *Parser) parseType(inParam bool) (*ast.Type, *diag.Diagnostic) {
	var ty *ast.Type

	switch p.peekSig() {
	case token.LParen:
		lparen := p.consume()
		tuple := &ast.Type{Kind: ast.KindTuple}
		for {
			if p.peekSig() == token.RParen {
				rparen := p.consume()
				tuple.Span = lparen.Join(rparen)
				break
			}
			elem, err := p.parseTupleElem()
			if err != nil {
				return nil, err
			}
			tuple.Elems = append(tuple.Elems, elem)
			switch p.peekSig() {
			case token.RParen:
				// Closed on the next loop iteration.
			case token.Comma:
				p.consume()
			default:
				return nil, p.errHere(diag.ExpectedToken, "Expected ',' or ')' inside the tuple.")
			}
		}
		if inParam {
			return nil, diag.New(diag.UnexpectedToken, tuple.Span,
				"Tuples can only be used in result types, not in parameters.")
		}
		ty = tuple

	case token.Ident:
		head := p.consume()
		name := head.Text(p.file.Data)
		if (name == "Option" || name == "Iterator") && p.peekSig() == token.Less {
			p.consume() // Less
			inner, err := p.parseType(inParam)
			if err != nil {
				return nil, err
			}
			gt, err := p.expectSig(token.Greater, "Expected '>' to close the type argument.")
			if err != nil {
				return nil, err
			}
			kind := ast.KindOption
			if name == "Iterator" {
				kind = ast.KindIterator
				if inParam {
					return nil, diag.New(diag.UnexpectedToken, head.Join(gt),
						"Iterator types can only be used in result types.")
				}
			}
			ty = &ast.Type{Kind: kind, Span: head.Join(gt), Elem: inner}
		} else {
			ty = typeFromIdent(p.file.Data, head)
		}

	default:
		return nil, p.errHere(diag.ExpectedToken, "Expected a type here.")
	}

	if p.peekSig() == token.Question {
		q := p.consume()
		ty = &ast.Type{Kind: ast.KindOption, Span: ty.Span.Join(q), Elem: ty}
	}
	return ty, nil
}

// parseTupleElem parses one tuple element: a primitive name, optionally
// nullable. Aggregates do not nest.
func (p *Parser) parseTupleElem() (*ast.Type, *diag.Diagnostic) {
	if p.peekSig() != token.Ident {
		return nil, p.errHere(diag.ExpectedToken, "Expected a primitive type here.")
	}
	head := p.consume()
	ty := typeFromIdent(p.file.Data, head)
	if ty.Kind == ast.KindStruct {
		return nil, diag.New(diag.UnexpectedToken, head,
			"Expected a primitive type here, tuples cannot contain structs.")
	}
	if p.peekSig() == token.Question {
		q := p.consume()
		ty = &ast.Type{Kind: ast.KindOption, Span: ty.Span.Join(q), Elem: ty}
	}
	return ty, nil
}

// typeFromIdent builds a head type from a bare identifier. The case of
// the first byte decides: uppercase names are structs, lowercase names
// are primitives. The primitive set is validated by the resolver.
func typeFromIdent(data []byte, span source.Span) *ast.Type {
	kind := ast.KindPrimitive
	if first := data[span.Start]; first >= 'A' && first <= 'Z' {
		kind = ast.KindStruct
	}
	return &ast.Type{Kind: kind, Span: span, Name: ast.Ident{Span: span}}
}

// parseHintType parses the interior of a TypedHint comment: a ':'
// followed by a primitive type, optionally nullable, and nothing else.
func parseHintType(f *source.File, interior source.Span) (*ast.Type, *diag.Diagnostic) {
	tokens := lexer.ScanAnnotation(f, interior)
	if len(tokens) == 0 || tokens[0].Kind != token.Colon {
		return nil, diag.New(diag.UnexpectedToken, interior, "Invalid type annotation, expected ':' followed by a type.")
	}
	if len(tokens) == 1 {
		return nil, diag.New(diag.ExpectedToken, tokens[0].Span, "Empty type annotation, expected a type after the ':'.")
	}
	if tokens[1].Kind != token.Ident {
		return nil, diag.New(diag.ExpectedToken, tokens[1].Span, "Expected a type name after the ':'.")
	}
	ty := typeFromIdent(f.Data, tokens[1].Span)
	rest := tokens[2:]
	if len(rest) > 0 && rest[0].Kind == token.Question {
		ty = &ast.Type{Kind: ast.KindOption, Span: ty.Span.Join(rest[0].Span), Elem: ty}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return nil, diag.New(diag.UnexpectedToken, rest[0].Span, "Unexpected content in type annotation.")
	}
	return ty, nil
}
