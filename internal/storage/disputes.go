package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/service"
)

const disputeColumns = `dispute_id, customer_id, txn_id, description,
	predicted_category, confidence, explanation, suggested_action,
	justification, status, degraded, created_at`

// SaveDispute persists a complete dispute record. Partially populated
// records are rejected; the pipeline only emits complete ones.
func (s *SQLiteStorage) SaveDispute(ctx context.Context, record *model.DisputeRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDispute(record); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disputes (`+disputeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.DisputeID, record.CustomerID, record.TxnID, record.Description,
		string(record.PredictedCategory), record.Confidence, record.Explanation,
		record.SuggestedAction, record.Justification, string(record.Status),
		record.Degraded, record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save dispute %s: %w", record.DisputeID, err)
	}
	return nil
}

// GetDispute fetches one dispute by its stable identifier.
func (s *SQLiteStorage) GetDispute(ctx context.Context, disputeID string) (*model.DisputeRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(disputeID, "disputeID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+disputeColumns+` FROM disputes WHERE dispute_id = ?`, disputeID)

	record, err := scanDispute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: dispute %s", common.ErrNotFound, disputeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispute %s: %w", disputeID, err)
	}
	return record, nil
}

// ListDisputes returns disputes ordered by creation date, newest first.
func (s *SQLiteStorage) ListDisputes(ctx context.Context, filter service.DisputeFilter) ([]model.DisputeRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + disputeColumns + ` FROM disputes`
	args := []any{}
	where := ""

	if filter.Category != nil {
		where = " WHERE predicted_category = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.Status != nil {
		if where == "" {
			where = " WHERE status = ?"
		} else {
			where += " AND status = ?"
		}
		args = append(args, string(*filter.Status))
	}

	query += where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	disputes := []model.DisputeRecord{}
	for rows.Next() {
		record, scanErr := scanDispute(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan dispute: %w", scanErr)
		}
		disputes = append(disputes, *record)
	}
	return disputes, rows.Err()
}

// UpdateDisputeStatus changes a dispute's status and appends the matching
// history entry in the same transaction, so the audit trail can never miss
// a mutation.
func (s *SQLiteStorage) UpdateDisputeStatus(ctx context.Context, disputeID string, status model.DisputeStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(disputeID, "disputeID"); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM disputes WHERE dispute_id = ?`, disputeID).Scan(&oldStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: dispute %s", common.ErrNotFound, disputeID)
	}
	if err != nil {
		return fmt.Errorf("failed to read current status: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE disputes SET status = ? WHERE dispute_id = ?`,
		string(status), disputeID); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO dispute_history (dispute_id, field_changed, old_value, new_value)
		VALUES (?, 'status', ?, ?)`,
		disputeID, oldStatus, string(status)); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	return tx.Commit()
}

// GetDisputeHistory returns the audit trail for one dispute, oldest first.
func (s *SQLiteStorage) GetDisputeHistory(ctx context.Context, disputeID string) ([]model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(disputeID, "disputeID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dispute_id, field_changed, old_value, new_value, timestamp
		FROM dispute_history WHERE dispute_id = ? ORDER BY timestamp ASC, id ASC`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", disputeID, err)
	}
	defer func() { _ = rows.Close() }()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		var old, newVal sql.NullString
		if err := rows.Scan(&entry.ID, &entry.DisputeID, &entry.FieldChanged, &old, &newVal, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.OldValue = old.String
		entry.NewValue = newVal.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CategoryTrends returns per-day, per-category dispute counts ordered by day.
func (s *SQLiteStorage) CategoryTrends(ctx context.Context) ([]service.TrendPoint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at) AS day, predicted_category, COUNT(*) AS count
		FROM disputes
		GROUP BY day, predicted_category
		ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	points := []service.TrendPoint{}
	for rows.Next() {
		var p service.TrendPoint
		var category string
		if err := rows.Scan(&p.Day, &category, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		p.Category = model.Category(category)
		points = append(points, p)
	}
	return points, rows.Err()
}

// CountsByCategory returns the number of disputes per category.
func (s *SQLiteStorage) CountsByCategory(ctx context.Context) (map[model.Category]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT predicted_category, COUNT(*) FROM disputes GROUP BY predicted_category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[model.Category(category)] = count
	}
	return counts, rows.Err()
}

// CountsByStatus returns the number of disputes per lifecycle status.
func (s *SQLiteStorage) CountsByStatus(ctx context.Context) (map[model.DisputeStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM disputes GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.DisputeStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.DisputeStatus(status)] = count
	}
	return counts, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (*model.DisputeRecord, error) {
	var record model.DisputeRecord
	var category, status string
	var customerID, txnID sql.NullString
	var createdAt time.Time

	err := row.Scan(&record.DisputeID, &customerID, &txnID, &record.Description,
		&category, &record.Confidence, &record.Explanation, &record.SuggestedAction,
		&record.Justification, &status, &record.Degraded, &createdAt)
	if err != nil {
		return nil, err
	}

	record.CustomerID = customerID.String
	record.TxnID = txnID.String
	record.PredictedCategory = model.Category(category)
	record.Status = model.DisputeStatus(status)
	record.CreatedAt = createdAt.UTC()
	return &record, nil
}
