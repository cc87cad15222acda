package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/disputekit/disputekit/internal/model"
)

// SaveTransactions upserts transaction records by txn_id.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.TransactionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (txn_id, customer_id, amount, status, timestamp, channel, merchant)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(txn_id) DO UPDATE SET
			customer_id = excluded.customer_id,
			amount = excluded.amount,
			status = excluded.status,
			timestamp = excluded.timestamp,
			channel = excluded.channel,
			merchant = excluded.merchant`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range transactions {
		if record.TxnID == "" {
			return fmt.Errorf("%w: transaction txn_id", ErrEmptyString)
		}
		if _, err := stmt.ExecContext(ctx,
			record.TxnID, record.CustomerID, record.Amount, record.Status,
			record.Timestamp.UTC(), record.Channel, record.Merchant); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", record.TxnID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns all stored transactions ordered by timestamp.
func (s *SQLiteStorage) ListTransactions(ctx context.Context) ([]model.TransactionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT txn_id, customer_id, amount, status, timestamp, channel, merchant
		FROM transactions ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.TransactionRecord{}
	for rows.Next() {
		var record model.TransactionRecord
		var status, channel sql.NullString
		if err := rows.Scan(&record.TxnID, &record.CustomerID, &record.Amount,
			&status, &record.Timestamp, &channel, &record.Merchant); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		record.Status = status.String
		record.Channel = channel.String
		record.Timestamp = record.Timestamp.UTC()
		transactions = append(transactions, record)
	}
	return transactions, rows.Err()
}
