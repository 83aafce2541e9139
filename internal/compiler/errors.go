package compiler

import "fmt"

// ParseError reports an expression tree the compiler cannot lower: a
// non-call on the left of "$", an unknown operator, or an unrecognized
// expression node (the compiler itself never tokenizes text; malformed
// mini-notation strings come back as the mininotation package's own
// ParseError).
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("compiler: parse error at %d: %s", e.Pos, e.Msg) }

// UnknownIdentifierError is returned when a BusRef names a bus that was
// never assigned earlier in the statement list.
type UnknownIdentifierError struct {
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("compiler: unknown bus %q", e.Name)
}

// UnknownFunctionError is returned when a Call names a builtin the
// compiler has no entry for.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("compiler: unknown function %q", e.Name)
}

// BadArityError is returned when a Call supplies the wrong number of
// arguments for its builtin.
type BadArityError struct {
	Fn        string
	Want, Got int
}

func (e *BadArityError) Error() string {
	return fmt.Sprintf("compiler: %s wants %d args, got %d", e.Fn, e.Want, e.Got)
}

// BadTypeError is returned when an argument's static kind (audio-rate
// signal vs. trigger-rate pattern vs. plain number) doesn't match what the
// builtin's parameter table expects at that position.
type BadTypeError struct {
	Fn       string
	Arg      int
	Expected string
	Got      string
}

func (e *BadTypeError) Error() string {
	return fmt.Sprintf("compiler: %s arg %d expected %s, got %s", e.Fn, e.Arg, e.Expected, e.Got)
}
