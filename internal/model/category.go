// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// Category is a dispute classification label.
type Category string

// Dispute categories, in fixed ordinal order. The classifier's class
// coefficients are stored in this order, and equal top probabilities
// resolve to the lower ordinal index.
const (
	CategoryDuplicateCharge   Category = "DUPLICATE_CHARGE"
	CategoryFailedTransaction Category = "FAILED_TRANSACTION"
	CategoryFraud             Category = "FRAUD"
	CategoryOthers            Category = "OTHERS"
	CategoryRefundPending     Category = "REFUND_PENDING"
)

// Categories returns all categories in their fixed ordinal order.
func Categories() []Category {
	return []Category{
		CategoryDuplicateCharge,
		CategoryFailedTransaction,
		CategoryFraud,
		CategoryOthers,
		CategoryRefundPending,
	}
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// Valid reports whether the category is one of the five known labels.
func (c Category) Valid() bool {
	switch c {
	case CategoryDuplicateCharge, CategoryFailedTransaction, CategoryFraud,
		CategoryOthers, CategoryRefundPending:
		return true
	}
	return false
}

// CategoryMeta holds the fixed presentation and resolution metadata for a
// category. Keeping this as a per-variant struct (instead of a string-keyed
// map) means a missing variant is a compile-visible gap, not a runtime nil.
type CategoryMeta struct {
	Label                 string
	Color                 string
	SuggestedAction       string
	FallbackJustification string
}

// Meta returns the metadata for the category. Unknown categories get the
// OTHERS metadata.
func (c Category) Meta() CategoryMeta {
	switch c {
	case CategoryDuplicateCharge:
		return CategoryMeta{
			Label:                 "Duplicate Charge",
			Color:                 "orange",
			SuggestedAction:       "Auto-refund",
			FallbackJustification: "System detected a duplicate charge, qualifying for an automatic refund.",
		}
	case CategoryFailedTransaction:
		return CategoryMeta{
			Label:                 "Failed Transaction",
			Color:                 "yellow",
			SuggestedAction:       "Manual review",
			FallbackJustification: "Transaction failed but the customer was debited. This requires manual investigation.",
		}
	case CategoryFraud:
		return CategoryMeta{
			Label:                 "Fraud",
			Color:                 "red",
			SuggestedAction:       "Mark as potential fraud",
			FallbackJustification: "The transaction was flagged as fraudulent by the customer and must be reviewed by the fraud team.",
		}
	case CategoryRefundPending:
		return CategoryMeta{
			Label:                 "Refund Pending",
			Color:                 "blue",
			SuggestedAction:       "Ask for more info",
			FallbackJustification: "Customer is waiting for a refund. An agent needs to check the status and provide an update.",
		}
	default:
		return CategoryMeta{
			Label:                 "Others",
			Color:                 "gray",
			SuggestedAction:       "Manual review",
			FallbackJustification: "The dispute does not fit a standard category and requires a manual agent review.",
		}
	}
}
