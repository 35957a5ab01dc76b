package lexer

import (
	"github.com/sqlweave/sqlweave/pkg/source"
	"github.com/sqlweave/sqlweave/pkg/token"
)

// ScanAnnotation lexes the given span of f with the annotation grammar
// and returns the tokens. Whitespace is skipped, not tokenized: the
// annotation grammar is whitespace-insensitive.
//
// The lexer calls this for the body of every comment that opens with an
// annotation marker; the parser calls it for the interior of TypedHint
// tokens, whose type expression uses the same grammar.
func ScanAnnotation(f *source.File, span source.Span) []token.Token {
	var tokens []token.Token
	push := func(kind token.Kind, start, end int) {
		tokens = append(tokens, token.Token{Kind: kind, Span: source.Span{Start: start, End: end}})
	}

	data := f.Data
	pos := span.Start
	for pos < span.End {
		ch := data[pos]
		switch {
		case isSpace(ch):
			pos++
		case ch == '@':
			push(token.At, pos, pos+1)
			pos++
		case ch == '(':
			push(token.LParen, pos, pos+1)
			pos++
		case ch == ')':
			push(token.RParen, pos, pos+1)
			pos++
		case ch == ':':
			push(token.Colon, pos, pos+1)
			pos++
		case ch == ',':
			push(token.Comma, pos, pos+1)
			pos++
		case ch == '?':
			push(token.Question, pos, pos+1)
			pos++
		case ch == '<':
			push(token.Less, pos, pos+1)
			pos++
		case ch == '>':
			push(token.Greater, pos, pos+1)
			pos++
		case ch == ';':
			// A trailing ';' in a signature comment is tolerated and
			// dropped; emitting it would collide with the SQL statement
			// terminator in the shared token stream.
			pos++
		case ch == '-':
			// The arrow variants share the '-' prefix; the longest
			// match wins so that '->?' is not lexed as '->' '?'.
			rest := data[pos:min(span.End, pos+3)]
			switch {
			case len(rest) >= 3 && rest[1] == '>' && rest[2] == '?':
				push(token.ArrowOpt, pos, pos+3)
				pos += 3
			case len(rest) >= 3 && rest[1] == '>' && rest[2] == '1':
				push(token.ArrowOne, pos, pos+3)
				pos += 3
			case len(rest) >= 3 && rest[1] == '>' && rest[2] == '*':
				push(token.ArrowStar, pos, pos+3)
				pos += 3
			case len(rest) >= 2 && rest[1] == '>':
				push(token.Arrow, pos, pos+2)
				pos += 2
			default:
				push(token.Punct, pos, pos+1)
				pos++
			}
		case isIdentStart(ch):
			end := pos + 1
			for end < span.End && isIdent(data[end]) {
				end++
			}
			push(token.Ident, pos, end)
			pos = end
		default:
			// Anything unrecognized becomes a one-byte Punct token; the
			// parser reports it with its exact span.
			push(token.Punct, pos, pos+1)
			pos++
		}
	}
	return tokens
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\v' || ch == '\f'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdent(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
