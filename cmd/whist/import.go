package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/varoOP/whist/internal/app"
)

var importCmd = &cobra.Command{
	Use:   "import <watched-shows.json>",
	Short: "Import watch history from a Trakt export",
	Long: `Import reads a Trakt "watched shows" export and replays it into
the library:
1. Tracks every show that has a TMDB id
2. Fetches its episode list from TMDB
3. Marks the exported episodes as watched

Running the import again is safe; already-watched episodes are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := application.Import(ctx, args[0]); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
