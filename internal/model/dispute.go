package model

import "time"

// DisputeStatus tracks where a dispute is in its review lifecycle.
type DisputeStatus string

// Dispute status constants.
const (
	StatusOpen     DisputeStatus = "OPEN"
	StatusInReview DisputeStatus = "IN_REVIEW"
	StatusResolved DisputeStatus = "RESOLVED"
	StatusClosed   DisputeStatus = "CLOSED"
)

// Valid reports whether the status is a known lifecycle state.
func (s DisputeStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInReview, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// DisputeRecord is a classified dispute case. The prediction fields
// (PredictedCategory, Confidence, Explanation, SuggestedAction,
// Justification) are set together by one pipeline run and never partially
// populated. Only Status is mutable after creation.
type DisputeRecord struct {
	CreatedAt         time.Time     `json:"created_at"`
	DisputeID         string        `json:"dispute_id"`
	CustomerID        string        `json:"customer_id"`
	TxnID             string        `json:"txn_id"`
	Description       string        `json:"description"`
	PredictedCategory Category      `json:"predicted_category"`
	Explanation       string        `json:"explanation"`
	SuggestedAction   string        `json:"suggested_action"`
	Justification     string        `json:"justification"`
	Status            DisputeStatus `json:"status"`
	Confidence        float64       `json:"confidence"`
	// Degraded marks records whose explanation fields came from the
	// category's template stub because the generative service was
	// unavailable after retries.
	Degraded bool `json:"degraded,omitempty"`
}

// HistoryEntry is an append-only audit record of a field change on a
// dispute. Entries are created exactly once per mutation and never updated.
type HistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	DisputeID    string    `json:"dispute_id"`
	FieldChanged string    `json:"field_changed"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	ID           int64     `json:"id"`
}
