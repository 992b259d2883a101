// Package apperror provides the application's error types and utilities to
// handle and map custom validation errors.
package apperror

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// AuthenticityError reports a webhook payload whose signature failed
// verification. It is the only error class that turns into a 400.
type AuthenticityError struct {
	Cause error
}

func (e *AuthenticityError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Cause)
}

func (e *AuthenticityError) Unwrap() error { return e.Cause }

// EnrichmentLookupError reports a failed subscription or customer lookup
// during invoice handling. The dispatcher recovers from it locally.
type EnrichmentLookupError struct {
	Kind  string
	ID    string
	Cause error
}

func (e *EnrichmentLookupError) Error() string {
	return fmt.Sprintf("%s lookup for %s failed: %v", e.Kind, e.ID, e.Cause)
}

func (e *EnrichmentLookupError) Unwrap() error { return e.Cause }

// NotificationSendError reports an email transport failure for one message.
type NotificationSendError struct {
	StatusCode int
	Cause      error
}

func (e *NotificationSendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("notification send failed with status %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("notification send failed: %v", e.Cause)
}

func (e *NotificationSendError) Unwrap() error { return e.Cause }

// GatewayError reports a processor rejection of a creation request. Message
// is safe to surface to the caller.
type GatewayError struct {
	Op      string
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

var (
	errRequired         = errors.New("is required")
	errMustBePositive   = errors.New("must be a positive number")
	errInvalidEmail     = errors.New("must be a valid email address")
	errInvalidFrequency = errors.New("must be one_time or monthly")
	errInvalidInterval  = errors.New("must be month or year")
)

var customErrors = map[string]error{
	"CheckoutSessionRequest.Amount.required":       errRequired,
	"CheckoutSessionRequest.Amount.gt":             errMustBePositive,
	"CheckoutSessionRequest.Frequency.frequency":   errInvalidFrequency,
	"PaymentIntentRequest.AmountCents.gt":          errMustBePositive,
	"PaymentIntentRequest.DonorEmail.email":        errInvalidEmail,
	"SetupIntentRequest.DonorEmail.required":       errRequired,
	"SetupIntentRequest.DonorEmail.email":          errInvalidEmail,
	"SubscriptionRequest.CustomerID.required":      errRequired,
	"SubscriptionRequest.PaymentMethodID.required": errRequired,
	"SubscriptionRequest.AmountCents.required":     errRequired,
	"SubscriptionRequest.AmountCents.gt":           errMustBePositive,
	"SubscriptionRequest.Interval.oneof":           errInvalidInterval,
}

// CustomValidationError converts validator errors into a standardized format.
func CustomValidationError(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors

	switch {
	case errors.As(err, &validationErr):
		for _, e := range validationErr {
			field := e.StructNamespace()
			key := field + "." + e.Tag()

			errMsg := fmt.Sprintf("%s is invalid", field)
			if v, ok := customErrors[key]; ok {
				errMsg = v.Error()
			}

			errList = append(errList, map[string]string{e.Field(): errMsg})
		}
	}
	return errList
}
