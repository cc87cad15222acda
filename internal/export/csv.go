// Package export writes classification output CSVs for downstream review.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disputekit/disputekit/internal/model"
)

// ClassifiedFileName holds the classification output per dispute.
const ClassifiedFileName = "classified_disputes.csv"

// ResolutionsFileName holds the suggested action and justification per dispute.
const ResolutionsFileName = "resolutions.csv"

// WriteClassified writes dispute_id, predicted_category, confidence, and
// explanation rows. Confidence is formatted to two decimal places.
func WriteClassified(dir string, records []model.DisputeRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"dispute_id", "predicted_category", "confidence", "explanation"})
	for _, record := range records {
		rows = append(rows, []string{
			record.DisputeID,
			string(record.PredictedCategory),
			fmt.Sprintf("%.2f", record.Confidence),
			record.Explanation,
		})
	}
	return writeCSV(filepath.Join(dir, ClassifiedFileName), rows)
}

// WriteResolutions writes dispute_id, suggested_action, and justification rows.
func WriteResolutions(dir string, records []model.DisputeRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"dispute_id", "suggested_action", "justification"})
	for _, record := range records {
		rows = append(rows, []string{
			record.DisputeID,
			record.SuggestedAction,
			record.Justification,
		})
	}
	return writeCSV(filepath.Join(dir, ResolutionsFileName), rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	writer.Flush()
	return writer.Error()
}
