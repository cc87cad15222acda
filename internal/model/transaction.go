package model

import "time"

// TransactionRecord is a single payment transaction as provided by the
// transaction data source. It is the input to the duplicate detector.
type TransactionRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	TxnID      string    `json:"txn_id"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"`
	Channel    string    `json:"channel"`
	Merchant   string    `json:"merchant"`
	Amount     float64   `json:"amount"`
}

// DuplicateCandidatePair flags two transactions likely to be the same
// charge applied twice. Pairs are recomputed on every scan and never
// persisted.
type DuplicateCandidatePair struct {
	OriginalTxnID   string  `json:"original_txn_id"`
	DuplicateTxnID  string  `json:"duplicate_txn_id"`
	CustomerID      string  `json:"customer_id"`
	Merchant        string  `json:"merchant"`
	Amount          float64 `json:"amount"`
	TimeDiffSeconds float64 `json:"time_diff_seconds"`
}
