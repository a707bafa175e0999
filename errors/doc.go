// Package errors provides the structured error type shared by the service.
// Errors carry a machine-readable code, a retryable flag and free-form
// details, and wrap their cause so errors.Is/As keep working.
package errors
