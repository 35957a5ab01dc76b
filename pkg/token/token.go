// Package token defines the token kinds produced by the sqlweave lexer.
//
// The lexer is context-sensitive: most of the input is uninterpreted SQL
// and produces the SQL-transparent kinds, while comments that open with
// an @query, @begin or @end marker switch the lexer into annotation mode
// and produce the annotation kinds. Comments whose trimmed body starts
// with a ':' are delivered as a single TypedHint token.
package token

import (
	"fmt"

	"github.com/sqlweave/sqlweave/pkg/source"
)

// Kind is the type of a lexical token.
type Kind int

const (
	// EOF terminates every token stream.
	EOF Kind = iota

	// SQL-transparent kinds.
	Word         // unquoted identifier or keyword run
	String       // '...' or "..." literal, quotes included
	Number       // numeric literal
	Whitespace   // a run of ASCII whitespace
	LineComment  // -- to end of line, delimiters included
	BlockComment // /* ... */, delimiters included
	LParen       // (
	RParen       // )
	LBracket     // [
	RBracket     // ]
	LBrace       // {
	RBrace       // }
	Comma        // ,
	Semicolon    // ;
	Dot          // .
	Star         // *
	Punct        // any other punctuation run

	// Param is a :name occurrence in the SQL body, colon included.
	Param

	// TypedHint is a comment of the form /* :T */ or -- :T, spanning the
	// whole comment including its delimiters.
	TypedHint

	// Annotation-mode kinds.
	At        // the @ that introduces a marker
	Ident     // identifier inside an annotation
	Colon     // :
	Question  // ?
	Arrow     // ->
	ArrowOpt  // ->?
	ArrowOne  // ->1
	ArrowStar // ->*
	Less      // <
	Greater   // >
)

var kindNames = map[Kind]string{
	EOF:          "EOF",
	Word:         "Word",
	String:       "String",
	Number:       "Number",
	Whitespace:   "Whitespace",
	LineComment:  "LineComment",
	BlockComment: "BlockComment",
	LParen:       "LParen",
	RParen:       "RParen",
	LBracket:     "LBracket",
	RBracket:     "RBracket",
	LBrace:       "LBrace",
	RBrace:       "RBrace",
	Comma:        "Comma",
	Semicolon:    "Semicolon",
	Dot:          "Dot",
	Star:         "Star",
	Punct:        "Punct",
	Param:        "Param",
	TypedHint:    "TypedHint",
	At:           "At",
	Ident:        "Ident",
	Colon:        "Colon",
	Question:     "Question",
	Arrow:        "Arrow",
	ArrowOpt:     "ArrowOpt",
	ArrowOne:     "ArrowOne",
	ArrowStar:    "ArrowStar",
	Less:         "Less",
	Greater:      "Greater",
}

// String returns the kind's name for debugging and test failure output.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a tagged span. Tokens never own source bytes.
type Token struct {
	Kind Kind
	Span source.Span
}

// Text resolves the token's span against the input buffer.
func (t Token) Text(data []byte) string {
	return t.Span.Text(data)
}
