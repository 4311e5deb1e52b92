// Package kernel contains the shared value objects of the domain model:
// geographic points with great-circle distance and UUID identifiers.
//
// All types here are immutable value objects created through validating
// constructors; zero values fail Validate(). This keeps coordinates and
// identifiers trustworthy everywhere downstream without re-validation.
package kernel
