package depreg

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for resolution.
var (
	// ErrNotRegistered indicates no registration exists for a capability.
	ErrNotRegistered = errors.New("capability not registered")

	// ErrTypeMismatch indicates a factory produced a value that is not
	// assignable to the capability it was registered under.
	ErrTypeMismatch = errors.New("instance does not conform to capability")
)

// NotRegisteredError reports which capability was missing.
type NotRegisteredError struct {
	// Key is the capability that was requested.
	Key Key
}

// Error implements the error interface.
func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("capability %s not registered", e.Key)
}

// Unwrap returns ErrNotRegistered for errors.Is support.
func (e *NotRegisteredError) Unwrap() error {
	return ErrNotRegistered
}

// TypeMismatchError reports a factory result of the wrong type.
// The value is never cached, so every resolution fails the same way until
// the capability is registered again.
type TypeMismatchError struct {
	// Key is the capability that was requested.
	Key Key
	// Got is the dynamic type of the produced value (nil for a nil value).
	Got reflect.Type
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	got := "nil"
	if e.Got != nil {
		got = e.Got.String()
	}
	return fmt.Sprintf("capability %s: factory produced %s", e.Key, got)
}

// Unwrap returns ErrTypeMismatch for errors.Is support.
func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
