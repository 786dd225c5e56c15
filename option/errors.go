package option

import (
	"fmt"
	"strings"
)

// TypeError reports a value that cannot become a Token.
type TypeError struct {
	Value any
	// Index is the position of Value in a list, or -1 outside of one.
	Index int
}

func (e *TypeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("option: item %d: unsupported token type %T (%v)", e.Index, e.Value, e.Value)
	}
	return fmt.Sprintf("option: unsupported token type %T (%v)", e.Value, e.Value)
}

// ValueError reports a value rejected by an option's checker.
type ValueError struct {
	Option string
	Value  any
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("option: %s: invalid value %v: %s", e.Option, e.Value, e.Reason)
}

// IncompleteError lists the mandatory children a group is still missing.
type IncompleteError struct {
	Group   string
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("option: %s: missing %s", e.Group, strings.Join(e.Missing, ", "))
}
