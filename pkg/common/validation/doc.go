// Package validation provides common validation utilities for configuration
// parameters across the poolflow library.
//
// Every helper returns a *errors.ValidationError so constructors report
// misconfiguration the same way regardless of which package rejected it.
package validation
