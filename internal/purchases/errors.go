package purchases

import "errors"

var (
	// ErrPurchaseNotFound is returned when a purchase id is unknown
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrUnknownMilestone is returned for an unrecognized funnel stage
	ErrUnknownMilestone = errors.New("unknown conversion milestone")
)
