// Package businessflow contains the core business logic and use cases for the signup funnel
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants. Field-format rules live in validator tags on
// the request DTOs; these sentinels cover the cross-field and lifecycle rules
// the flows enforce themselves.
var (
	// Session-related errors
	ErrSessionNotFound  = errors.New("signup session not found")
	ErrSubmissionActive = errors.New("a submission is already in flight")

	// Step rule errors
	ErrCompanyNameRequired = errors.New("company name is required for company profiles")
	ErrPlanRequired        = errors.New("a subscription plan is required")
	ErrPlanUnknown         = errors.New("unknown subscription plan")
	ErrBillingInvalid      = errors.New("billing cycle is invalid")
	ErrSeatsInvalid        = errors.New("seat count is invalid")
	ErrPaymentTypeRequired = errors.New("a payment method must be selected first")
	ErrExpiryInvalid       = errors.New("expiry must be a valid month")

	// Submission errors
	ErrRegistrationIncomplete = errors.New("registration record is incomplete")
	ErrSubmissionFailed       = errors.New("registration submission failed")
)

// BusinessError represents a business logic error with context
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsSubmissionActive(err error) bool {
	return errors.Is(err, ErrSubmissionActive)
}

func IsCompanyNameRequired(err error) bool {
	return errors.Is(err, ErrCompanyNameRequired)
}

func IsPlanUnknown(err error) bool {
	return errors.Is(err, ErrPlanUnknown)
}

func IsSeatsInvalid(err error) bool {
	return errors.Is(err, ErrSeatsInvalid)
}

func IsRegistrationIncomplete(err error) bool {
	return errors.Is(err, ErrRegistrationIncomplete)
}

func IsSubmissionFailed(err error) bool {
	return errors.Is(err, ErrSubmissionFailed)
}

func IsPaymentTypeRequired(err error) bool {
	return errors.Is(err, ErrPaymentTypeRequired)
}
