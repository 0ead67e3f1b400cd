package patch

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateConnection = errors.New("input jack already has a connection")
	ErrMissingJack         = errors.New("jack not found")
	ErrForeignModule       = errors.New("module does not belong to this patch")
	ErrUnknownKind         = errors.New("unknown module type")
	ErrMissingParameter    = errors.New("parameter not found")
	ErrDuplicateModule     = errors.New("module name already in use")

	// ErrNoRoute reports that a slot cannot serve an allocation request.
	// It is not structural: callers move on to the next slot.
	ErrNoRoute = errors.New("matrix slot cannot route")
)

// StructuralError is raised for malformed graph construction. It is fatal
// to any conversion that hits it.
type StructuralError struct {
	Op     string
	Module string
	Jack   string
	Err    error
}

func (e *StructuralError) Error() string {
	switch {
	case e.Module != "" && e.Jack != "":
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Module, e.Jack, e.Err)
	case e.Module != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Module, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *StructuralError) Unwrap() error { return e.Err }

func structural(op string, m *Module, jack string, err error) *StructuralError {
	name := ""
	if m != nil {
		name = m.name
	}
	return &StructuralError{Op: op, Module: name, Jack: jack, Err: err}
}
