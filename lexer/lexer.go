package lexer

import (
	"unicode"
)

var punctuation = map[rune]Kind{
	'\n': Newline,
	'!':  Not,
	'.':  Dot,
	'%':  Modulo,
	'>':  GreaterThan,
	'<':  LessThan,
	'=':  Assign,
	';':  Semi,
	'+':  Plus,
	'-':  Minus,
	'(':  LParen,
	')':  RParen,
	',':  Comma,
	'{':  LBrace,
	'}':  RBrace,
}

// Lexer produces tokens lazily over one source region. The only state
// carried between tokens is the cursor, the line counter and whether the
// cursor sits inside a single-quoted string.
type Lexer struct {
	file      string
	text      []rune
	pos       int
	line      int
	startLine int
	quoted    bool

	lead     *Token
	leadDone bool
}

// NewText builds a lexer over text that is not tied to a file.
func NewText(text string) *Lexer {
	return NewAt("", text, 1)
}

// NewAt builds a lexer over a region of file whose first character sits on
// line.
func NewAt(file, text string, line int) *Lexer {
	l := &Lexer{
		file:      file,
		text:      []rune(text),
		startLine: line,
	}
	l.Reset()
	return l
}

// NewCondition builds a lexer whose first token is the synthetic Condition
// keyword, followed by the tokens of text.
func NewCondition(file, text string, line int) *Lexer {
	l := NewAt(file, text, line)
	l.lead = &Token{Kind: Condition, Line: line}
	return l
}

func (l *Lexer) File() string { return l.file }
func (l *Lexer) Line() int    { return l.line }
func (l *Lexer) Text() string { return string(l.text) }

// SetLine moves the region's first line. The cursor line follows.
func (l *Lexer) SetLine(line int) {
	l.startLine = line
	l.Reset()
}

// Reset rewinds to the start of the region.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = l.startLine
	l.quoted = false
	l.leadDone = false
}

// Slice returns the raw text between two token positions.
func (l *Lexer) Slice(from, to int) string {
	from = max(0, min(from, len(l.text)))
	to = max(from, min(to, len(l.text)))
	return string(l.text[from:to])
}

func (l *Lexer) advance() {
	if l.text[l.pos] == '\n' {
		l.line++
	}
	l.pos++
}

func (l *Lexer) at(c rune) bool {
	return l.pos < len(l.text) && l.text[l.pos] == c
}

func isLetter(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func (l *Lexer) identifier() string {
	start := l.pos
	for l.pos < len(l.text) && (isLetter(l.text[l.pos]) || unicode.IsDigit(l.text[l.pos])) {
		l.advance()
	}
	return string(l.text[start:l.pos])
}

func (l *Lexer) decimal() string {
	start := l.pos
	for l.pos < len(l.text) && (unicode.IsDigit(l.text[l.pos]) || l.text[l.pos] == '.') {
		l.advance()
	}
	return string(l.text[start:l.pos])
}

// quotedRun reads everything up to the closing quote.
func (l *Lexer) quotedRun() string {
	start := l.pos
	for l.pos < len(l.text) && l.text[l.pos] != '\'' {
		l.advance()
	}
	return string(l.text[start:l.pos])
}

func (l *Lexer) Next() (Token, error) {
	if l.lead != nil && !l.leadDone {
		l.leadDone = true
		return *l.lead, nil
	}
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if !l.quoted && c != '\n' && unicode.IsSpace(c) {
			l.advance()
			continue
		}
		start, line := l.pos, l.line
		tok := func(k Kind, text string) (Token, error) {
			return Token{Kind: k, Text: text, Pos: start, Line: line}, nil
		}
		switch {
		case l.quoted && c != '\'':
			return tok(Ident, l.quotedRun())
		case unicode.IsDigit(c):
			return tok(Decimal, l.decimal())
		case isLetter(c):
			word := l.identifier()
			if k, ok := keywords[word]; ok {
				return tok(k, word)
			}
			return tok(Ident, word)
		}
		if k, ok := punctuation[c]; ok {
			l.advance()
			return tok(k, string(c))
		}
		switch c {
		case '\'':
			l.quoted = !l.quoted
			l.advance()
			return tok(Quote, "'")
		case '/':
			l.advance()
			if l.at('/') {
				l.advance()
				return tok(DoubleSlash, "//")
			}
			if l.at('*') {
				l.advance()
				return tok(LBlockComment, "/*")
			}
			return tok(Div, "/")
		case '*':
			l.advance()
			if l.at('/') {
				l.advance()
				return tok(RBlockComment, "*/")
			}
			return tok(Mul, "*")
		}
		return Token{}, l.errorf("Invalid character %c", c)
	}
	return Token{Kind: EOF, Pos: l.pos, Line: l.line}, nil
}

// PeekIs reports whether the next non-whitespace character is c, without
// moving the cursor.
func (l *Lexer) PeekIs(c rune) bool {
	i := l.pos
	for i < len(l.text) && unicode.IsSpace(l.text[i]) {
		i++
	}
	return i < len(l.text) && l.text[i] == c
}

// SkipLine moves the cursor to the next newline without consuming it.
func (l *Lexer) SkipLine() {
	for l.pos < len(l.text) && l.text[l.pos] != '\n' {
		l.advance()
	}
}

// SkipBlockComment moves the cursor past the next "*/", or to the end of
// the region when there is none.
func (l *Lexer) SkipBlockComment() {
	for l.pos < len(l.text) {
		if l.text[l.pos] == '*' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

// ReadBody extracts the raw text of a compound body. With hasBrace, seed is
// the opening brace and the body is everything up to its matching close
// brace; the cursor is left just past that brace. Without a brace, seed is
// the first token of a single-statement body which runs to the end of the
// line. The returned line is the line the body's first character sits on.
func (l *Lexer) ReadBody(seed Token, hasBrace bool) (string, int, error) {
	start, line := seed.Pos, seed.Line
	if hasBrace {
		start++
	}
	l.pos, l.line, l.quoted = start, line, false
	if !hasBrace {
		l.SkipLine()
		return string(l.text[start:l.pos]), line, nil
	}

	depth := 1
	quoted := false
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		switch {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '/' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '/':
			l.SkipLine()
			continue
		case c == '/' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '*':
			l.advance()
			l.advance()
			l.SkipBlockComment()
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				body := string(l.text[start:l.pos])
				l.advance()
				return body, line, nil
			}
		}
		l.advance()
	}
	return "", line, &SyntaxError{File: l.file, Line: seed.Line, Msg: "unterminated block", Err: ErrUnterminated}
}

// All returns every token up to and including EOF, skipping comment text.
func (l *Lexer) All() ([]Token, error) {
	var out []Token
	for {
		t, err := l.Next()
		if err != nil {
			return out, err
		}
		out = append(out, t)
		switch t.Kind {
		case EOF:
			return out, nil
		case DoubleSlash:
			l.SkipLine()
		case LBlockComment:
			l.SkipBlockComment()
		}
	}
}
