package script

import (
	"errors"
	"fmt"

	"prun/internal/value"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrSymbolUnknown = errors.New("unknown symbol")
	ErrInvalidValue  = errors.New("invalid value")
	ErrOutOfRange    = errors.New("out of range")
	ErrDuplicateID   = errors.New("duplicate identifier")
)

// SyntaxError carries the offending LineInfo along with a message, matching
// §7's "every parse error carries LineInfo" policy.
type SyntaxError struct {
	Line    value.LineInfo
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Line.String(), e.Message)
}

func newSyntaxError(li value.LineInfo, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: li, Message: fmt.Sprintf(format, args...)}
}

// ScriptError is the user-issued `@error "message"` pragma outcome (§7,
// error kind Script).
type ScriptError struct {
	Line    value.LineInfo
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Line.String(), e.Message)
}
