// Package errs provides the standardized error types used across the
// conversation core. It implements a consistent pattern for error creation,
// formatting, and unwrapping.
//
// Two kinds of errors live here:
//
//   - Typed structural errors (ValueIsRequiredError, ValueIsInvalidError,
//     ValueIsOutOfRangeError, ObjectNotFoundError, BackendUnavailableError).
//     Each follows the same shape: a sentinel error variable, a struct with
//     detail fields, constructors with and without a cause, Error() for
//     formatting, and Unwrap() so errors.Is matches the sentinel.
//
//   - Bare domain sentinels (ErrIllegalTransition, ErrInsufficientStock,
//     ErrValidationFailed). These describe expected business outcomes, not
//     infrastructure failures, and carry no extra structure.
//
// The conversation engine classifies handler failures against these
// sentinels to decide whether to re-prompt, notify transiently, or hold the
// session state unchanged.
package errs
