package parse

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the base class of all parse failures.
	ErrParse = errors.New("parse error")

	// ErrParseIndent reports a de-indent matching no open level, or a
	// tab used for structural indentation.
	ErrParseIndent = fmt.Errorf("%w: invalid indentation", ErrParse)

	// ErrParseUnterminated reports an unterminated quoted scalar or
	// flow collection.
	ErrParseUnterminated = fmt.Errorf("%w: unterminated construct", ErrParse)

	// ErrParseEscape reports an invalid escape sequence in a
	// double-quoted scalar.
	ErrParseEscape = fmt.Errorf("%w: invalid escape", ErrParse)

	// ErrParseUTF8 reports non-UTF-8 input.
	ErrParseUTF8 = fmt.Errorf("%w: invalid UTF-8", ErrParse)
)

// ParseErr decorates a parse failure with its position. Parsing stops
// at the first fatal error; there is no recovery or continuation.
type ParseErr struct {
	Err  error
	Pos  Pos
	File string
}

func (e *ParseErr) Unwrap() error { return e.Err }

func (e *ParseErr) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s at %s:%s", e.Err.Error(), e.File, e.Pos)
	}
	return fmt.Sprintf("%s at %s", e.Err.Error(), e.Pos)
}
