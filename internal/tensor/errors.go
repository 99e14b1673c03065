package tensor

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrIndexOutOfRange = errors.New("slice index out of range")
)

// ShapeMismatchError reports a tensor whose rank does not support the
// requested projection, or whose value buffer disagrees with its shape.
type ShapeMismatchError struct {
	Op      string // projection that was requested
	Shape   []int
	Want    int // required rank, 0 when the rank was fine
	Details string
}

func (e *ShapeMismatchError) Error() string {
	if e.Want > 0 {
		return fmt.Sprintf("%s: %s: need rank %d, got shape %v", ErrShapeMismatch, e.Op, e.Want, e.Shape)
	}
	return fmt.Sprintf("%s: %s: shape %v: %s", ErrShapeMismatch, e.Op, e.Shape, e.Details)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// IndexError reports a slice index outside [0, Bound).
type IndexError struct {
	Op    string
	Index int
	Bound int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %s: index %d not in [0, %d)", ErrIndexOutOfRange, e.Op, e.Index, e.Bound)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
