// Package csvio reads the dispute and transaction CSV inputs consumed by
// the CLI.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/service"
)

// timestampLayouts are tried in order when parsing CSV timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadDisputes parses a dispute input CSV. Required columns: dispute_id,
// description. Optional: customer_id, txn_id, created_at.
func ReadDisputes(path string) ([]service.ClassifyInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open disputes CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read disputes CSV header: %w", err)
	}

	cols := columnIndex(header)
	if _, ok := cols["dispute_id"]; !ok {
		return nil, fmt.Errorf("disputes CSV is missing a dispute_id column")
	}
	if _, ok := cols["description"]; !ok {
		return nil, fmt.Errorf("disputes CSV is missing a description column")
	}

	inputs := []service.ClassifyInput{}
	for line := 2; ; line++ {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read disputes CSV line %d: %w", line, readErr)
		}

		input := service.ClassifyInput{
			DisputeID:   field(row, cols, "dispute_id"),
			CustomerID:  field(row, cols, "customer_id"),
			TxnID:       field(row, cols, "txn_id"),
			Description: field(row, cols, "description"),
		}
		if raw := field(row, cols, "created_at"); raw != "" {
			ts, parseErr := parseTimestamp(raw)
			if parseErr != nil {
				return nil, fmt.Errorf("disputes CSV line %d: %w", line, parseErr)
			}
			input.CreatedAt = ts
		}
		inputs = append(inputs, input)
	}

	return inputs, nil
}

// ReadTransactions parses a transaction CSV with columns txn_id,
// customer_id, amount, status, timestamp, channel, merchant.
func ReadTransactions(path string) ([]model.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions CSV header: %w", err)
	}

	cols := columnIndex(header)
	for _, required := range []string{"txn_id", "customer_id", "amount", "timestamp", "merchant"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("transactions CSV is missing a %s column", required)
		}
	}

	records := []model.TransactionRecord{}
	for line := 2; ; line++ {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read transactions CSV line %d: %w", line, readErr)
		}

		amount, parseErr := strconv.ParseFloat(field(row, cols, "amount"), 64)
		if parseErr != nil {
			return nil, fmt.Errorf("transactions CSV line %d: invalid amount: %w", line, parseErr)
		}

		ts, parseErr := parseTimestamp(field(row, cols, "timestamp"))
		if parseErr != nil {
			return nil, fmt.Errorf("transactions CSV line %d: %w", line, parseErr)
		}

		records = append(records, model.TransactionRecord{
			TxnID:      field(row, cols, "txn_id"),
			CustomerID: field(row, cols, "customer_id"),
			Amount:     amount,
			Status:     field(row, cols, "status"),
			Timestamp:  ts,
			Channel:    field(row, cols, "channel"),
			Merchant:   field(row, cols, "merchant"),
		})
	}

	return records, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
