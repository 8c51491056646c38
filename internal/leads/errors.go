package leads

import "errors"

// ErrValidation is the root of all capture validation failures. Every
// specific validation error unwraps to it.
var ErrValidation = errors.New("invalid capture request")

var (
	ErrMissingUserID     = validationError("user_id is required")
	ErrInvalidEmail      = validationError("parent_email must be a valid email address")
	ErrInvalidChildAge   = validationError("child_age must be between 1 and 17")
	ErrMissingDiagnosis  = validationError("diagnosis is required")
	ErrInvalidUsage      = validationError("usage_duration_days must not be negative")
	ErrInvalidEngagement = validationError("app_engagement must be between 0 and 100")
	ErrInvalidLocation   = validationError("location coordinates are out of range")
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrLeadUnavailable is returned when a lead is inactive, expired, or
	// has reached its purchaser cap
	ErrLeadUnavailable = errors.New("lead no longer available")

	// ErrAlreadyPurchased is returned when a provider buys the same lead twice
	ErrAlreadyPurchased = errors.New("lead already purchased by this provider")
)

type wrappedValidation struct {
	msg string
}

func (e *wrappedValidation) Error() string { return e.msg }

func (e *wrappedValidation) Unwrap() error { return ErrValidation }

func validationError(msg string) error {
	return &wrappedValidation{msg: msg}
}
