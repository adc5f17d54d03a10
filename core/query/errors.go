package query

import (
	"errors"
	"fmt"
)

// ContractViolationError reports view parameters that break a basic type
// constraint. It signals a programming error in the caller, never a data
// condition.
type ContractViolationError struct {
	Field   string
	Message string
}

// Error returns the error message for a ContractViolationError.
func (ve ContractViolationError) Error() string {
	return fmt.Sprintf("contract violation in %s: %s", ve.Field, ve.Message)
}

// ValidationResult contains the results of a parameter validation.
type ValidationResult struct {
	IsValid bool
	Errors  []ContractViolationError
}

// Err joins every violation into a single error, or returns nil when the
// parameters are valid. Each violation stays reachable through errors.As.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// IsContractViolation reports whether err carries a ContractViolationError.
func IsContractViolation(err error) bool {
	var cv ContractViolationError
	return errors.As(err, &cv)
}
