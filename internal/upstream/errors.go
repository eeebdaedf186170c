// Package upstream defines the error types shared by the provider clients.
// The route layer inspects these with errors.As to decide what to report.
package upstream

import "fmt"

// Error reports a non-success HTTP status or transport failure from a
// provider API. Body carries the raw response body for logging; StatusCode is
// zero for transport failures.
type Error struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: API returned %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ContractViolation reports a success response missing a field the provider's
// documented contract promises.
type ContractViolation struct {
	Provider string
	Field    string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("%s: response missing %s", e.Provider, e.Field)
}
