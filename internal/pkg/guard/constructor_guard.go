// Package guard provides a small defensive-programming helper that ensures
// value objects and entities are only created through their designated
// constructor functions. Embedding a ConstructorGuard in a struct makes the
// zero value detectable, so domain objects are always either constructed and
// valid, or fail validation loudly.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error
// is provided and the object was not properly constructed.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks an object as having passed through its constructor.
// The zero value fails validation; NewConstructorGuard produces a passing one.
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard that marks an object as properly
// constructed. Call it inside constructors only.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for constructed objects and validationError (or
// ErrDefaultConstructorGuard when nil) for zero values.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
