package tree

import (
	"errors"
	"fmt"
)

// Caller contract errors. Operations returning them leave the tree untouched.
var (
	ErrOrderMismatch    = errors.New("node order may not be updated because the children differ")
	ErrUnexpectedParent = errors.New("unexpected parent")
	ErrUnknownParent    = errors.New("parent is not part of this tree")
	ErrNotInTree        = errors.New("node is not part of this tree")
	ErrDuplicateID      = errors.New("duplicate node id")
	ErrEmptyID          = errors.New("node id must not be empty")
)

// InvariantError reports a broken internal consistency rule. The tree
// panics with it; it is a bug, never a runtime condition.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tree invariant violated in %s: %s", e.Op, e.Msg)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
