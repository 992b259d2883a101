package apperror

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		err    error
		expect string
	}{
		{
			name:   "authenticity",
			err:    &AuthenticityError{Cause: cause},
			expect: "webhook signature verification failed: boom",
		},
		{
			name:   "enrichment lookup",
			err:    &EnrichmentLookupError{Kind: "subscription", ID: "sub_1", Cause: cause},
			expect: "subscription lookup for sub_1 failed: boom",
		},
		{
			name:   "notification send without status",
			err:    &NotificationSendError{Cause: cause},
			expect: "notification send failed: boom",
		},
		{
			name:   "notification send with status",
			err:    &NotificationSendError{StatusCode: 429, Cause: cause},
			expect: "notification send failed with status 429: boom",
		},
		{
			name:   "gateway",
			err:    &GatewayError{Op: "create customer", Message: "No such token", Cause: cause},
			expect: "create customer: No such token",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.err.Error())
			assert.ErrorIs(t, tc.err, cause)
		})
	}
}

func TestCustomValidationError(t *testing.T) {
	type SetupIntentRequest struct {
		DonorEmail string `validate:"required,email"`
	}

	validate := validator.New()

	err := validate.Struct(SetupIntentRequest{})
	assert.Equal(t, []map[string]string{{"DonorEmail": "is required"}}, CustomValidationError(err))

	err = validate.Struct(SetupIntentRequest{DonorEmail: "not-an-email"})
	assert.Equal(t, []map[string]string{{"DonorEmail": "must be a valid email address"}}, CustomValidationError(err))
}

func TestCustomValidationError_UnknownField(t *testing.T) {
	type Unmapped struct {
		Other string `validate:"required"`
	}

	err := validator.New().Struct(Unmapped{})
	assert.Equal(t, []map[string]string{{"Other": "Unmapped.Other is invalid"}}, CustomValidationError(err))
}

func TestCustomValidationError_NonValidatorError(t *testing.T) {
	assert.Empty(t, CustomValidationError(errors.New("plain error")))
}
