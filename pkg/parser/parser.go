// Package parser builds the annotated-query AST from a token stream.
//
// The parser is recursive-descent. Most of a document is uninterpreted
// SQL that is preserved verbatim as raw spans; structure only exists
// inside annotation comments and around parameter references and type
// hints. Parsing is all-or-nothing: the first error fails the document.
package parser

import (
	"bytes"

	"github.com/sqlweave/sqlweave/pkg/ast"
	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/lexer"
	"github.com/sqlweave/sqlweave/pkg/source"
	"github.com/sqlweave/sqlweave/pkg/token"
)

// Parser consumes the token stream of one file.
type Parser struct {
	file   *source.File
	tokens []token.Token
	cursor int
}

// New returns a parser over the given tokens, which must end with EOF.
func New(f *source.File, tokens []token.Token) *Parser {
	return &Parser{file: f, tokens: tokens}
}

// Parse lexes and parses f in one step.
func Parse(f *source.File) (*ast.Document, *diag.Diagnostic) {
	tokens, err := lexer.New(f).Run()
	if err != nil {
		return nil, err
	}
	return New(f, tokens).ParseDocument()
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.cursor]
}

// consume advances past the current token and returns its span.
func (p *Parser) consume() source.Span {
	span := p.tokens[p.cursor].Span
	if p.cursor < len(p.tokens)-1 {
		p.cursor++
	}
	return span
}

// errHere builds a diagnostic at the current token. At EOF the span is
// the zero-width position past the last byte.
func (p *Parser) errHere(kind diag.Kind, message string) *diag.Diagnostic {
	tok := p.cur()
	span := tok.Span
	if tok.Kind == token.EOF {
		span = source.Span{Start: len(p.file.Data), End: len(p.file.Data)}
	}
	return diag.New(kind, span, message)
}

// isBlank reports whether a whitespace token contains a blank line.
func (p *Parser) isBlank(tok token.Token) bool {
	return bytes.Count(p.file.Data[tok.Span.Start:tok.Span.End], []byte{'\n'}) >= 2
}

// ParseDocument parses the whole token stream into a document.
func (p *Parser) ParseDocument() (*ast.Document, *diag.Diagnostic) {
	doc := &ast.Document{File: p.file}
	var pendingDocs []source.Span

	for {
		tok := p.cur()
		switch tok.Kind {
		case token.EOF:
			if len(doc.Queries) == 0 && len(p.file.Data) > 0 {
				doc.LeadingContent = []source.Span{{Start: 0, End: len(p.file.Data)}}
			}
			return doc, nil

		case token.Whitespace:
			if p.isBlank(tok) {
				pendingDocs = nil
			}
			p.consume()

		case token.LineComment, token.BlockComment:
			pendingDocs = append(pendingDocs, tok.Span)
			p.consume()

		case token.At:
			query, err := p.parseQuery(pendingDocs)
			if err != nil {
				return nil, err
			}
			if len(doc.Queries) == 0 && query.Span.Start > 0 {
				doc.LeadingContent = []source.Span{{Start: 0, End: query.Span.Start}}
			}
			doc.Queries = append(doc.Queries, query)
			pendingDocs = nil

		default:
			// Plain SQL outside any annotated query is preserved via
			// LeadingContent; it also separates a comment run from a
			// later annotation.
			pendingDocs = nil
			p.consume()
		}
	}
}

// parseQuery parses one annotated query, starting at the At token.
func (p *Parser) parseQuery(docs []source.Span) (*ast.Query, *diag.Diagnostic) {
	start := p.cur().Span.Start
	if len(docs) > 0 {
		start = docs[0].Start
	}

	sig, multi, err := p.parseSignature()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBody(multi, sig.Name)
	if err != nil {
		return nil, err
	}

	query := &ast.Query{
		DocComments: docs,
		Signature:   sig,
		Body:        body,
		Multi:       multi,
		Span:        source.Span{Start: start, End: body.Span.End},
	}
	return query, nil
}

// parseBody parses the SQL of a query: a single statement for @query,
// statements until the @end marker for @begin.
func (p *Parser) parseBody(multi bool, name ast.Ident) (ast.Body, *diag.Diagnostic) {
	var body ast.Body

	if !multi {
		stmt, err := p.parseStatement()
		if err != nil {
			return body, err
		}
		body.Statements = []ast.Statement{stmt}
		body.Span = stmt.Span
		return body, nil
	}

	for {
		ended, err := p.tryEndMarker(name)
		if err != nil {
			return body, err
		}
		if ended {
			break
		}
		if p.cur().Kind == token.EOF {
			return body, p.errHere(diag.MissingEndMarker,
				"Unexpected end of input, the '@begin' block is not closed.").
				WithHint("Close the block with a '-- @end' comment.")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return body, err
		}
		body.Statements = append(body.Statements, stmt)
	}

	if len(body.Statements) == 0 {
		return body, p.errHere(diag.UnexpectedToken, "Expected at least one SQL statement in the '@begin' block.")
	}
	body.Span = body.Statements[0].Span.Join(body.Statements[len(body.Statements)-1].Span)
	return body, nil
}

// tryEndMarker consumes an '@end' marker comment if the next
// non-whitespace, non-comment tokens form one. A marker that names a
// different query is an error; an annotation other than @end before the
// block is closed is an error too.
func (p *Parser) tryEndMarker(name ast.Ident) (bool, *diag.Diagnostic) {
	backtrack := p.cursor

	for {
		switch p.cur().Kind {
		case token.Whitespace, token.LineComment, token.BlockComment:
			p.consume()
			continue
		case token.At:
			atSpan := p.consume()
			if p.cur().Kind != token.Ident {
				return false, p.errHere(diag.UnknownAnnotation, "Expected an annotation name after '@'.")
			}
			marker := p.cur().Text(p.file.Data)
			markerSpan := p.consume()
			if marker != "end" {
				return false, diag.New(diag.MissingEndMarker, atSpan.Join(markerSpan),
					"Expected '-- @end' to close the '@begin' block before the next annotation.").
					WithNote(name.Span, "The block was opened here.")
			}
			// Optional name after @end; when present it must match.
			if p.cur().Kind == token.Ident {
				endName := p.cur().Text(p.file.Data)
				endSpan := p.consume()
				if endName != name.Text(p.file.Data) {
					return false, diag.New(diag.MissingEndMarker, endSpan,
						"The name after '@end' does not match the query.").
						WithNote(name.Span, "The block was opened here.")
				}
			}
			return true, nil
		case token.EOF:
			// Stay at EOF so that the caller reports the unclosed block.
			return false, nil
		default:
			p.cursor = backtrack
			return false, nil
		}
	}
}

// parseStatement parses SQL tokens up to and including the closing
// top-level ';'. Parameter references and type hints become fragments;
// everything else coalesces into raw fragments.
func (p *Parser) parseStatement() (ast.Statement, *diag.Diagnostic) {
	var stmt ast.Statement

	// Leading whitespace belongs between statements, not to the SQL.
	// Stray annotation tokens after a complete signature are skipped
	// too; they live inside the annotation comment, not in the SQL.
	for {
		switch p.cur().Kind {
		case token.Whitespace, token.Ident, token.Colon, token.Question,
			token.Arrow, token.ArrowOpt, token.ArrowOne, token.ArrowStar,
			token.Less, token.Greater:
			p.consume()
			continue
		}
		break
	}
	if p.cur().Kind == token.EOF {
		return stmt, p.errHere(diag.UnexpectedToken, "Unexpected end of input, expected a SQL statement after the annotation.")
	}

	start := p.cur().Span.Start
	rawStart := start
	var brackets []token.Token

	flushRaw := func(end int) {
		if end > rawStart {
			stmt.Fragments = append(stmt.Fragments, ast.Fragment{
				Kind: ast.FragRaw,
				Span: source.Span{Start: rawStart, End: end},
			})
		}
	}

	for {
		tok := p.cur()
		switch tok.Kind {
		case token.EOF:
			return stmt, p.errHere(diag.MissingSemicolon, "Unexpected end of input, the annotated query does not end with ';'.")

		case token.At:
			return stmt, p.errHere(diag.MissingSemicolon, "Expected ';' to end the query before the next annotation.")

		case token.LParen, token.LBracket, token.LBrace:
			brackets = append(brackets, tok)
			p.consume()

		case token.RParen, token.RBracket, token.RBrace:
			if err := p.popBracket(&brackets, tok); err != nil {
				return stmt, err
			}
			p.consume()

		case token.Semicolon:
			if len(brackets) > 0 {
				top := brackets[len(brackets)-1]
				return stmt, p.errHere(diag.ExpectedToken, "Expected '"+closerFor(top.Kind)+"' before the end of the statement.").
					WithNote(top.Span, "Unmatched '"+openerFor(top.Kind)+"' opened here.")
			}
			span := p.consume()
			flushRaw(span.End)
			stmt.Span = source.Span{Start: start, End: span.End}
			return stmt, nil

		case token.Param:
			flushRaw(tok.Span.Start)
			stmt.Fragments = append(stmt.Fragments, ast.Fragment{
				Kind: ast.FragParam,
				Span: tok.Span,
				Name: ast.Ident{Span: source.Span{Start: tok.Span.Start + 1, End: tok.Span.End}},
			})
			rawStart = tok.Span.End
			p.consume()

		case token.TypedHint:
			frag, err := p.parseHintFragment(tok)
			if err != nil {
				return stmt, err
			}
			flushRaw(tok.Span.Start)
			stmt.Fragments = append(stmt.Fragments, frag)
			rawStart = tok.Span.End
			p.consume()

		default:
			p.consume()
		}
	}
}

func openerFor(kind token.Kind) string {
	switch kind {
	case token.LParen, token.RParen:
		return "("
	case token.LBracket, token.RBracket:
		return "["
	default:
		return "{"
	}
}

func closerFor(kind token.Kind) string {
	switch kind {
	case token.LParen, token.RParen:
		return ")"
	case token.LBracket, token.RBracket:
		return "]"
	default:
		return "}"
	}
}

func matches(open, close token.Kind) bool {
	switch open {
	case token.LParen:
		return close == token.RParen
	case token.LBracket:
		return close == token.RBracket
	case token.LBrace:
		return close == token.RBrace
	}
	return false
}

func (p *Parser) popBracket(brackets *[]token.Token, tok token.Token) *diag.Diagnostic {
	if len(*brackets) == 0 {
		return p.errHere(diag.UnexpectedToken, "Found unmatched '"+tok.Text(p.file.Data)+"'.")
	}
	top := (*brackets)[len(*brackets)-1]
	if !matches(top.Kind, tok.Kind) {
		return p.errHere(diag.ExpectedToken, "Expected '"+closerFor(top.Kind)+"' here.").
			WithNote(top.Span, "Unmatched '"+openerFor(top.Kind)+"' opened here.")
	}
	*brackets = (*brackets)[:len(*brackets)-1]
	return nil
}

// parseHintFragment parses a TypedHint token into a fragment, pairing it
// with the identifier or parameter it annotates.
func (p *Parser) parseHintFragment(tok token.Token) (ast.Fragment, *diag.Diagnostic) {
	interior := hintInterior(p.file.Data, tok.Span)
	ty, err := parseHintType(p.file, interior)
	if err != nil {
		return ast.Fragment{}, err
	}

	frag := ast.Fragment{Kind: ast.FragHint, Span: tok.Span, Type: ty}

	// A hint directly after a parameter (whitespace only in between)
	// annotates that parameter.
	i := p.cursor - 1
	for i >= 0 && p.tokens[i].Kind == token.Whitespace {
		i--
	}
	if i >= 0 && p.tokens[i].Kind == token.Param {
		return frag, nil
	}

	// Otherwise it annotates a select item: pair with the nearest
	// preceding identifier, skipping whitespace, punctuation and
	// function-call parentheses, but never crossing into the previous
	// comma-separated item.
	for ; i >= 0; i-- {
		switch p.tokens[i].Kind {
		case token.Whitespace, token.LParen, token.RParen, token.Star,
			token.Dot, token.Punct, token.Number, token.String:
			continue
		case token.Word:
			frag.Name = ast.Ident{Span: p.tokens[i].Span}
			return frag, nil
		default:
			i = -1
		}
	}
	return ast.Fragment{}, diag.New(diag.UnexpectedToken, tok.Span,
		"Invalid type annotation, expected an identifier or parameter before it.")
}

// hintInterior strips the comment delimiters from a hint span.
func hintInterior(data []byte, span source.Span) source.Span {
	if bytes.HasPrefix(data[span.Start:], []byte("/*")) {
		return source.Span{Start: span.Start + 2, End: span.End - 2}
	}
	return source.Span{Start: span.Start + 2, End: span.End}
}
