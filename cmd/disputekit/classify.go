package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/csvio"
	"github.com/disputekit/disputekit/internal/export"
	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/pipeline"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Classify dispute descriptions",
		Long: `Classify a single dispute description given as an argument, or a batch
of disputes from a CSV file with --input. Batch results can be exported as
CSV files with --output-dir and persisted with --store.`,
		RunE: runClassify,
	}

	cmd.Flags().String("input", "", "disputes CSV file to classify in batch")
	cmd.Flags().String("output-dir", "", "directory for classified_disputes.csv and resolutions.csv")
	cmd.Flags().Bool("store", false, "persist classified disputes to the database")
	cmd.Flags().String("customer-id", "", "customer reference for single classification")
	cmd.Flags().String("txn-id", "", "transaction reference for single classification")
	cmd.Flags().Int("workers", pipeline.DefaultBatchWorkers, "concurrent classification workers for batch mode")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	p, err := loadPipeline(logger)
	if err != nil {
		return err
	}

	inputPath, _ := cmd.Flags().GetString("input")
	if inputPath == "" {
		if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
			return fmt.Errorf("provide a dispute description argument or --input CSV file")
		}
		return classifyOne(cmd, p, args[0])
	}

	return classifyBatch(cmd, p, inputPath)
}

func classifyOne(cmd *cobra.Command, p *pipeline.Pipeline, description string) error {
	customerID, _ := cmd.Flags().GetString("customer-id")
	txnID, _ := cmd.Flags().GetString("txn-id")

	record, err := p.Classify(cmd.Context(), description, customerID, txnID)
	if err != nil {
		return err
	}

	printRecord(record)

	if store, _ := cmd.Flags().GetBool("store"); store {
		return persistRecords(cmd, []model.DisputeRecord{*record})
	}
	return nil
}

func classifyBatch(cmd *cobra.Command, p *pipeline.Pipeline, inputPath string) error {
	inputs, err := csvio.ReadDisputes(inputPath)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Println("No disputes found in input file.")
		return nil
	}

	workers, _ := cmd.Flags().GetInt("workers")

	bar := progressbar.NewOptions(len(inputs),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results, stats := p.ClassifyBatch(cmd.Context(), inputs, workers, func() {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	records := make([]model.DisputeRecord, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			common.LogError(result.Err, "classification failed",
				common.Fields{"dispute_id": result.Input.DisputeID})
			continue
		}
		records = append(records, *result.Record)
	}

	fmt.Printf("Classified %d/%d disputes (%d degraded, %d failed) in %s\n",
		stats.Classified, stats.Total, stats.Degraded, stats.Failed,
		stats.Duration.Round(time.Millisecond))

	if outputDir, _ := cmd.Flags().GetString("output-dir"); outputDir != "" {
		if err := export.WriteClassified(outputDir, records); err != nil {
			return err
		}
		if err := export.WriteResolutions(outputDir, records); err != nil {
			return err
		}
		fmt.Printf("Wrote %s and %s to %s\n", export.ClassifiedFileName, export.ResolutionsFileName, outputDir)
	}

	if store, _ := cmd.Flags().GetBool("store"); store {
		return persistRecords(cmd, records)
	}
	return nil
}

func persistRecords(cmd *cobra.Command, records []model.DisputeRecord) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}

	for i := range records {
		if err := store.SaveDispute(cmd.Context(), &records[i]); err != nil {
			return err
		}
	}

	fmt.Printf("Stored %d disputes in %s\n", len(records), viper.GetString("database.path"))
	return nil
}

func printRecord(record *model.DisputeRecord) {
	fmt.Printf("Dispute:     %s\n", record.DisputeID)
	fmt.Printf("Category:    %s (confidence %.2f)\n", record.PredictedCategory, record.Confidence)
	fmt.Printf("Explanation: %s\n", record.Explanation)
	fmt.Printf("Action:      %s\n", record.SuggestedAction)
	fmt.Printf("Why:         %s\n", record.Justification)
	if record.Degraded {
		fmt.Println("Note: explanation service was unavailable; template text used.")
	}
}
