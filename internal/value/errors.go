package value

import "errors"

var (
	// ErrUnknownVariable names the case of a non-dynamic variable with no
	// binding in any active scope. ReplaceVars does not return it; it
	// reports that case through its ok and unknown results.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrUnknownFunction is returned when a Var part names a transformation
	// function outside the fixed set in §4.1.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrBadFunctionArgs is returned when a function's argument list does
	// not match its arity (e.g. a regex-replace with a missing separator).
	ErrBadFunctionArgs = errors.New("bad function arguments")
)

// VariableChecking selects the behaviour on a missing non-dynamic variable.
type VariableChecking int

const (
	CheckOff VariableChecking = iota
	CheckWarn
	CheckError
)
