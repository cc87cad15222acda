// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/disputekit/disputekit/internal/model"
)

// DisputeFilter defines filtering options for dispute queries.
type DisputeFilter struct {
	Category *model.Category
	Status   *model.DisputeStatus
	Limit    int
	Offset   int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Dispute operations
	SaveDispute(ctx context.Context, record *model.DisputeRecord) error
	GetDispute(ctx context.Context, disputeID string) (*model.DisputeRecord, error)
	ListDisputes(ctx context.Context, filter DisputeFilter) ([]model.DisputeRecord, error)
	UpdateDisputeStatus(ctx context.Context, disputeID string, status model.DisputeStatus) error
	GetDisputeHistory(ctx context.Context, disputeID string) ([]model.HistoryEntry, error)
	CategoryTrends(ctx context.Context) ([]TrendPoint, error)
	CountsByCategory(ctx context.Context) (map[model.Category]int, error)
	CountsByStatus(ctx context.Context) (map[model.DisputeStatus]int, error)

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.TransactionRecord) error
	ListTransactions(ctx context.Context) ([]model.TransactionRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TrendPoint is a per-day, per-category dispute count used by the trends
// dashboard.
type TrendPoint struct {
	Day      string         `json:"day"`
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ClassifyInput is one dispute awaiting classification.
type ClassifyInput struct {
	CreatedAt   time.Time
	DisputeID   string
	CustomerID  string
	TxnID       string
	Description string
}

// CompletionStats shows the results of a batch classification run.
type CompletionStats struct {
	Duration   time.Duration
	Total      int
	Classified int
	Degraded   int
	Failed     int
}
