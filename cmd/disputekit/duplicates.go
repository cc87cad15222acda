package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/disputekit/disputekit/internal/csvio"
	"github.com/disputekit/disputekit/internal/dedupe"
	"github.com/disputekit/disputekit/internal/model"
)

func duplicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Scan transactions for likely duplicate charges",
		Long: `Scan a transaction set for pairs likely to be the same charge applied
twice: identical customer, amount, and merchant within the time window.
Reads from --input CSV or, with --from-db, from the stored transactions.`,
		RunE: runDuplicates,
	}

	cmd.Flags().String("input", "", "transactions CSV file to scan")
	cmd.Flags().Bool("from-db", false, "scan transactions stored in the database")
	cmd.Flags().Duration("window", 0, "duplicate time window (default 5m)")
	cmd.Flags().Bool("json", false, "emit results as JSON")

	return cmd
}

func runDuplicates(cmd *cobra.Command, _ []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	fromDB, _ := cmd.Flags().GetBool("from-db")

	var transactions []model.TransactionRecord
	var err error

	switch {
	case inputPath != "" && fromDB:
		return fmt.Errorf("--input and --from-db are mutually exclusive")
	case inputPath != "":
		transactions, err = csvio.ReadTransactions(inputPath)
		if err != nil {
			return err
		}
	case fromDB:
		store, openErr := openStorage()
		if openErr != nil {
			return openErr
		}
		defer func() { _ = store.Close() }()
		transactions, err = store.ListTransactions(cmd.Context())
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("provide --input CSV file or --from-db")
	}

	window, _ := cmd.Flags().GetDuration("window")
	if window == 0 {
		window = viper.GetDuration("dedupe.window")
	}

	detector := dedupe.NewDetector(window, slog.Default())
	pairs, skipped := detector.Scan(transactions)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return json.NewEncoder(os.Stdout).Encode(pairs)
	}

	if len(pairs) == 0 {
		fmt.Printf("No duplicate candidates found in %d transactions.\n", len(transactions))
	}
	for _, pair := range pairs {
		fmt.Printf("%s -> %s  customer=%s merchant=%s amount=%.2f gap=%s\n",
			pair.OriginalTxnID, pair.DuplicateTxnID, pair.CustomerID,
			pair.Merchant, pair.Amount,
			time.Duration(pair.TimeDiffSeconds*float64(time.Second)).Round(time.Second))
	}
	if skipped > 0 {
		fmt.Printf("Skipped %d malformed records.\n", skipped)
	}

	return nil
}
