package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/disputekit/disputekit/internal/dedupe"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dispute assistant HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	p, err := loadPipeline(logger)
	if err != nil {
		return err
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}

	// The chat endpoint reuses the same generative service as the pipeline.
	llmCfg, err := llmConfig()
	if err != nil {
		return err
	}
	chatClient, err := llm.NewClient(llmCfg)
	if err != nil {
		return err
	}

	detector := dedupe.NewDetector(viper.GetDuration("dedupe.window"), logger)

	srv := server.New(server.Config{
		Addr:           viper.GetString("server.addr"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		RequestTimeout: viper.GetDuration("server.request_timeout"),
	}, store, p, detector, chatClient, logger)

	return srv.ListenAndServe(cmd.Context())
}
