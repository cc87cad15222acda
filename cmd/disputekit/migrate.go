package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/disputekit/disputekit/internal/csvio"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Create or upgrade the dispute database schema. With
--seed-transactions, also load a transaction CSV for duplicate scanning.`,
		RunE: runMigrate,
	}

	cmd.Flags().String("seed-transactions", "", "transactions CSV to load after migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Database schema is up to date.")

	seedPath, _ := cmd.Flags().GetString("seed-transactions")
	if seedPath == "" {
		return nil
	}

	transactions, err := csvio.ReadTransactions(seedPath)
	if err != nil {
		return err
	}
	if err := store.SaveTransactions(cmd.Context(), transactions); err != nil {
		return err
	}
	fmt.Printf("Loaded %d transactions from %s\n", len(transactions), seedPath)

	return nil
}
