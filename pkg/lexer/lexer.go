// Package lexer turns a source file into a token stream.
//
// The lexer is a single-pass byte-oriented state machine with two modes.
// In SQL mode everything is transparent: words, literals, punctuation,
// whitespace and comments each become one token, and nothing is
// interpreted. A comment whose body opens with @query, @begin or @end
// switches the lexer into annotation mode, in which the comment body is
// delivered as annotation-grammar tokens instead of a comment token.
// After a @query or @begin comment, annotation mode persists across
// directly consecutive comments until the first SQL token, so a
// signature may be spread over several comment lines.
//
// A comment whose trimmed body starts with ':' is delivered as a single
// TypedHint token covering the whole comment including delimiters.
package lexer

import (
	"bytes"

	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/source"
	"github.com/sqlweave/sqlweave/pkg/token"
)

// Markers that switch the lexer into annotation mode.
var markers = map[string]bool{
	"query": true,
	"begin": true,
	"end":   true,
}

// Lexer tokenizes one source file.
type Lexer struct {
	file   *source.File
	pos    int
	tokens []token.Token

	// annotation is set while a @query/@begin signature may continue
	// into the next comment.
	annotation bool
}

// New returns a lexer over f.
func New(f *source.File) *Lexer {
	return &Lexer{file: f}
}

// Run lexes the whole file. On error it returns the tokens produced so
// far together with the diagnostic; the token slice always ends with an
// EOF token.
func (l *Lexer) Run() ([]token.Token, *diag.Diagnostic) {
	data := l.file.Data
	for l.pos < len(data) {
		ch := data[l.pos]
		var err *diag.Diagnostic
		switch {
		case hasPrefix(data, l.pos, "--"):
			err = l.lexLineComment()
		case hasPrefix(data, l.pos, "/*"):
			err = l.lexBlockComment()
		case ch == '\'' || ch == '"':
			err = l.lexString(ch)
		case isSpace(ch):
			l.lexWhitespace()
		case ch == ':' && l.pos+1 < len(data) && isIdentStart(data[l.pos+1]):
			l.lexParam()
		case isIdentStart(ch):
			l.lexWord()
		case ch >= '0' && ch <= '9':
			l.lexNumber()
		case ch < 0x20 || ch == 0x7f:
			err = l.errorRun(func(b byte) bool { return b < 0x20 && !isSpace(b) || b == 0x7f },
				"Control characters are not supported here.")
		case ch > 0x7f:
			err = l.errorRun(func(b byte) bool { return b > 0x7f },
				"Non-ASCII characters are not supported outside strings and comments.")
		default:
			l.lexPunct()
		}
		if err != nil {
			l.push(token.EOF, l.pos, l.pos)
			return l.tokens, err
		}
	}
	l.push(token.EOF, l.pos, l.pos)
	return l.tokens, nil
}

func (l *Lexer) push(kind token.Kind, start, end int) {
	l.tokens = append(l.tokens, token.Token{Kind: kind, Span: source.Span{Start: start, End: end}})
}

// errorRun builds a lexer diagnostic covering the run of bytes matched
// by include, starting at the current position.
func (l *Lexer) errorRun(include func(byte) bool, message string) *diag.Diagnostic {
	end := l.pos
	for end < len(l.file.Data) && include(l.file.Data[end]) {
		end++
	}
	span := source.Span{Start: l.pos, End: end}
	return diag.New(diag.UnrecognisedByte, span, message)
}

func (l *Lexer) lexWhitespace() {
	start := l.pos
	data := l.file.Data
	for l.pos < len(data) && isSpace(data[l.pos]) {
		l.pos++
	}
	// A blank line ends a multi-line annotation signature.
	if l.annotation && bytes.Count(data[start:l.pos], []byte{'\n'}) >= 2 {
		l.annotation = false
	}
	l.push(token.Whitespace, start, l.pos)
}

func (l *Lexer) lexWord() {
	start := l.pos
	data := l.file.Data
	for l.pos < len(data) && isIdent(data[l.pos]) {
		l.pos++
	}
	l.annotation = false
	l.push(token.Word, start, l.pos)
}

func (l *Lexer) lexNumber() {
	start := l.pos
	data := l.file.Data
	for l.pos < len(data) && data[l.pos] >= '0' && data[l.pos] <= '9' {
		l.pos++
	}
	if l.pos+1 < len(data) && data[l.pos] == '.' && data[l.pos+1] >= '0' && data[l.pos+1] <= '9' {
		l.pos++
		for l.pos < len(data) && data[l.pos] >= '0' && data[l.pos] <= '9' {
			l.pos++
		}
	}
	l.annotation = false
	l.push(token.Number, start, l.pos)
}

// lexParam lexes a :name parameter reference, colon included.
func (l *Lexer) lexParam() {
	start := l.pos
	data := l.file.Data
	l.pos++
	for l.pos < len(data) && isIdent(data[l.pos]) {
		l.pos++
	}
	l.annotation = false
	l.push(token.Param, start, l.pos)
}

// lexString lexes a quoted literal with the SQL doubled-quote escape.
// The interior bytes are not processed.
func (l *Lexer) lexString(quote byte) *diag.Diagnostic {
	start := l.pos
	data := l.file.Data
	l.pos++
	for l.pos < len(data) {
		if data[l.pos] != quote {
			l.pos++
			continue
		}
		if l.pos+1 < len(data) && data[l.pos+1] == quote {
			l.pos += 2
			continue
		}
		l.pos++
		l.annotation = false
		l.push(token.String, start, l.pos)
		return nil
	}
	span := source.Span{Start: start, End: len(data)}
	return diag.New(diag.UnterminatedString, span, "Unexpected end of input, string literal is not closed.")
}

// Single-character punctuation with a dedicated kind.
var punctKinds = map[byte]token.Kind{
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
	'{': token.LBrace,
	'}': token.RBrace,
	',': token.Comma,
	';': token.Semicolon,
	'.': token.Dot,
	'*': token.Star,
}

func (l *Lexer) lexPunct() {
	start := l.pos
	data := l.file.Data
	l.annotation = false

	if kind, ok := punctKinds[data[l.pos]]; ok {
		l.pos++
		l.push(kind, start, l.pos)
		return
	}

	// '-' and '/' may start a comment, so they never join a punctuation
	// run; everything else coalesces until a dedicated character.
	if data[l.pos] == '-' || data[l.pos] == '/' {
		l.pos++
		l.push(token.Punct, start, l.pos)
		return
	}
	for l.pos < len(data) && isPlainPunct(data[l.pos]) {
		l.pos++
	}
	l.push(token.Punct, start, l.pos)
}

func isPlainPunct(ch byte) bool {
	if !isASCIIPunct(ch) {
		return false
	}
	switch ch {
	case '\'', '"', '(', ')', '[', ']', '{', '}', ',', ';', '.', '*', '-', '/':
		return false
	}
	return true
}

func isASCIIPunct(ch byte) bool {
	return (ch >= '!' && ch <= '/') || (ch >= ':' && ch <= '@') ||
		(ch >= '[' && ch <= '`') || (ch >= '{' && ch <= '~')
}

// lexLineComment handles '--' comments: annotation head, annotation
// continuation, typed hint, or plain comment.
func (l *Lexer) lexLineComment() *diag.Diagnostic {
	start := l.pos
	data := l.file.Data
	end := bytes.IndexByte(data[start:], '\n')
	if end < 0 {
		end = len(data)
	} else {
		end += start
	}
	body := source.Span{Start: start + 2, End: end}
	l.classifyComment(token.LineComment, source.Span{Start: start, End: end}, body)
	l.pos = end
	return nil
}

// lexBlockComment handles '/* ... */' comments, non-nesting.
func (l *Lexer) lexBlockComment() *diag.Diagnostic {
	start := l.pos
	data := l.file.Data
	close := bytes.Index(data[start+2:], []byte("*/"))
	if close < 0 {
		span := source.Span{Start: start, End: len(data)}
		return diag.New(diag.UnterminatedBlockComment, span, "Unclosed /* */ comment.")
	}
	bodyEnd := start + 2 + close
	end := bodyEnd + 2
	body := source.Span{Start: start + 2, End: bodyEnd}
	l.classifyComment(token.BlockComment, source.Span{Start: start, End: end}, body)
	l.pos = end
	return nil
}

// classifyComment decides what a comment is and emits its tokens. The
// full span includes the comment delimiters; body excludes them.
func (l *Lexer) classifyComment(kind token.Kind, full, body source.Span) {
	data := l.file.Data
	trim := body.Start
	for trim < body.End && isSpace(data[trim]) {
		trim++
	}

	if trim < body.End && data[trim] == '@' {
		word := trim + 1
		for word < body.End && isIdent(data[word]) {
			word++
		}
		if markers[string(data[trim+1:word])] {
			marker := string(data[trim+1 : word])
			l.tokens = append(l.tokens, ScanAnnotation(l.file, source.Span{Start: trim, End: body.End})...)
			// @end is complete in its own comment; a signature may
			// continue into following comments.
			l.annotation = marker != "end"
			return
		}
	}

	if l.annotation {
		l.tokens = append(l.tokens, ScanAnnotation(l.file, source.Span{Start: trim, End: body.End})...)
		return
	}

	if trim < body.End && data[trim] == ':' {
		l.push(token.TypedHint, full.Start, full.End)
		return
	}

	l.push(kind, full.Start, full.End)
}

func hasPrefix(data []byte, pos int, s string) bool {
	return pos+len(s) <= len(data) && string(data[pos:pos+len(s)]) == s
}
