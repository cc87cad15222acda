// Package dedupe flags transaction pairs likely to represent the same
// charge applied twice: identical customer, amount, and merchant, within a
// short time window.
package dedupe

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/disputekit/disputekit/internal/model"
)

// DefaultWindow is the maximum gap between two transactions for them to be
// considered a duplicate candidate.
const DefaultWindow = 5 * time.Minute

// Detector scans transaction sets for duplicate candidates. It is pure and
// stateless; a zero-window detector uses DefaultWindow.
type Detector struct {
	logger *slog.Logger
	Window time.Duration
}

// NewDetector creates a detector with the given window. A non-positive
// window falls back to DefaultWindow.
func NewDetector(window time.Duration, logger *slog.Logger) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{Window: window, logger: logger}
}

// groupKey is the exact-match portion of the fuzzy match: same customer,
// same amount, same merchant ignoring case.
type groupKey struct {
	customerID string
	merchant   string
	amount     float64
}

// Scan returns duplicate candidate pairs and the count of malformed records
// skipped. Within each (customer, amount, merchant) group, transactions are
// sorted by timestamp and only adjacent pairs inside the window are flagged,
// so a chain of three close charges yields two overlapping pairs, not three.
// Empty input yields an empty, non-nil result.
func (d *Detector) Scan(transactions []model.TransactionRecord) ([]model.DuplicateCandidatePair, int) {
	pairs := []model.DuplicateCandidatePair{}
	if len(transactions) == 0 {
		return pairs, 0
	}

	groups := make(map[groupKey][]model.TransactionRecord)
	order := []groupKey{}
	skipped := 0

	for _, txn := range transactions {
		if err := validate(txn); err != nil {
			skipped++
			d.logger.Debug("skipping malformed transaction record",
				"txn_id", txn.TxnID,
				"error", err)
			continue
		}

		key := groupKey{
			customerID: txn.CustomerID,
			merchant:   strings.ToLower(strings.TrimSpace(txn.Merchant)),
			amount:     txn.Amount,
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], txn)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		for i := 1; i < len(group); i++ {
			gap := group[i].Timestamp.Sub(group[i-1].Timestamp)
			if gap > d.window() {
				continue
			}
			pairs = append(pairs, model.DuplicateCandidatePair{
				OriginalTxnID:   group[i-1].TxnID,
				DuplicateTxnID:  group[i].TxnID,
				CustomerID:      group[i-1].CustomerID,
				Amount:          group[i-1].Amount,
				Merchant:        group[i-1].Merchant,
				TimeDiffSeconds: gap.Seconds(),
			})
		}
	}

	if skipped > 0 {
		d.logger.Info("duplicate scan skipped malformed records", "skipped", skipped)
	}

	return pairs, skipped
}

func (d *Detector) window() time.Duration {
	if d.Window <= 0 {
		return DefaultWindow
	}
	return d.Window
}

func validate(txn model.TransactionRecord) error {
	switch {
	case txn.TxnID == "":
		return fmt.Errorf("missing txn_id")
	case txn.CustomerID == "":
		return fmt.Errorf("missing customer_id")
	case strings.TrimSpace(txn.Merchant) == "":
		return fmt.Errorf("missing merchant")
	case txn.Amount <= 0:
		return fmt.Errorf("non-positive amount")
	case txn.Timestamp.IsZero():
		return fmt.Errorf("missing timestamp")
	}
	return nil
}
