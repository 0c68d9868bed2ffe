package domain

import "strings"

// Conventional sample status vocabulary. The column is free text.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusOnHold     = "on_hold"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusDelivered  = "delivered"
)

// IsTerminalStatus reports whether a sample with this status expects no further
// stage transition. Any status mentioning "deliver" is terminal.
func IsTerminalStatus(status string) bool {
	return strings.Contains(strings.ToLower(status), "deliver")
}
