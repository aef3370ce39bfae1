package inventory

import "errors"

var (
	// ErrFeedUnavailable is returned when the order feed cannot be read
	ErrFeedUnavailable = errors.New("order feed unavailable")

	// ErrBatchCallFailed is returned when the batch stock update call fails as a whole
	ErrBatchCallFailed = errors.New("batch stock update call failed")

	// ErrItemApplyFailed marks an individual adjustment rejected by the inventory service
	ErrItemApplyFailed = errors.New("stock adjustment rejected")

	// ErrResultCountMismatch is returned when the batch response does not line up with the request
	ErrResultCountMismatch = errors.New("batch result count does not match submitted adjustments")
)
