// Package errors provides foundational, type-safe error primitives used across SiteBuilder.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, hooks, factory, compile, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryHooks, "hook dispatch failed").
//		WithSeverity(errors.SeverityFatal).
//		WithContext("hook", hookName).
//		Build()
package errors
