package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:           "seed-db",
		Short:         "Upsert the product catalog into MongoDB",
		Long:          "Reads a YAML product catalog (the embedded default unless --file is set) and upserts every product by name.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.URI == "" {
				// A missing .env is fine; the variables may already be set.
				_ = godotenv.Load()
				opts.URI = firstEnv("MONGO_URI", "MONGO_DETAILS")
			}
			if opts.URI == "" {
				return errors.New("mongo URI is required: set --uri, MONGO_URI or MONGO_DETAILS")
			}

			lg, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()

			return run(cmd.Context(), lg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.URI, "uri", "", "MongoDB connection string (or MONGO_URI / MONGO_DETAILS env)")
	cmd.Flags().StringVar(&opts.Database, "database", "ecommerce", "Database name")
	cmd.Flags().StringVar(&opts.File, "file", "", "Path to a YAML catalog, optionally gzipped (.gz); the embedded catalog is used when empty")

	return cmd
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
