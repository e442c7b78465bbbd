package lexer

import (
	"errors"
	"fmt"
)

var ErrUnterminated = errors.New("unterminated block")

// SyntaxError is the single fault kind raised while lexing or running a
// script. Err holds the underlying cause when the fault came from outside
// the lexer, such as a failed native call.
type SyntaxError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line : %d %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &SyntaxError{
		File: l.file,
		Line: l.line,
		Msg:  fmt.Sprintf(format, args...),
	}
}
