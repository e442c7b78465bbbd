package lexer

import "fmt"

type Kind int

const (
	EOF Kind = iota
	Assign
	Decimal
	Plus
	Minus
	Mul
	Div
	LParen
	RParen
	Ident
	Function
	Comma
	Semi
	LBrace
	RBrace
	For
	Foreach
	In
	GreaterThan
	LessThan
	Quote
	Return
	If
	True
	False
	Not
	Modulo
	DoubleSlash
	LBlockComment
	RBlockComment
	Newline
	Dot
	Await
	Async
	Import
	New
	While
	Break
	Else
	Condition
)

var kindNames = [...]string{
	EOF:           "EOF",
	Assign:        "ASSIGN",
	Decimal:       "DECIMAL",
	Plus:          "PLUS",
	Minus:         "MINUS",
	Mul:           "MUL",
	Div:           "DIV",
	LParen:        "LPAREN",
	RParen:        "RPAREN",
	Ident:         "IDENT",
	Function:      "FUNCTION",
	Comma:         "COMMA",
	Semi:          "SEMI",
	LBrace:        "LBRACE",
	RBrace:        "RBRACE",
	For:           "FOR",
	Foreach:       "FOREACH",
	In:            "IN",
	GreaterThan:   "GT",
	LessThan:      "LT",
	Quote:         "QUOTE",
	Return:        "RETURN",
	If:            "IF",
	True:          "TRUE",
	False:         "FALSE",
	Not:           "NOT",
	Modulo:        "MOD",
	DoubleSlash:   "LINE_COMMENT",
	LBlockComment: "BLOCK_COMMENT_START",
	RBlockComment: "BLOCK_COMMENT_END",
	Newline:       "NEWLINE",
	Dot:           "DOT",
	Await:         "AWAIT",
	Async:         "ASYNC",
	Import:        "IMPORT",
	New:           "NEW",
	While:         "WHILE",
	Break:         "BREAK",
	Else:          "ELSE",
	Condition:     "CONDITION",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"function": Function,
	"for":      For,
	"foreach":  Foreach,
	"in":       In,
	"return":   Return,
	"if":       If,
	"else":     Else,
	"true":     True,
	"false":    False,
	"not":      Not,
	"await":    Await,
	"async":    Async,
	"import":   Import,
	"new":      New,
	"while":    While,
	"break":    Break,
}

// Token is a single lexeme. Pos is the rune offset of its first character
// within the lexer's text.
type Token struct {
	Kind Kind
	Text string
	Pos  int
	Line int
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Decimal:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}
