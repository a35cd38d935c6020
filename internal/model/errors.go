package model

import "fmt"

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// ConflictError reports an operation that would break a uniqueness or
// referential constraint.
type ConflictError struct {
	Entity string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Detail)
}

// InvalidMarkError reports a key mark outside A..E and N.
type InvalidMarkError struct {
	Value string
}

func (e *InvalidMarkError) Error() string {
	return fmt.Sprintf("invalid mark %q: want one of A, B, C, D, E, N", e.Value)
}

// RangeError reports a numeric argument outside [Min, Max).
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d)", e.Field, e.Value, e.Min, e.Max)
}

// StorageError wraps a failure of the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
