package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
	"github.com/aretw0/pinboard/internal/platform"
	"github.com/aretw0/pinboard/pkg/adapters/lifecycle"
)

var (
	watchPattern string
	watchKeys    []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the board by any process",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := pinboard.OpenStore(ctx, platform.ResolveDir(dir),
			pinboard.WithLogger(slog.Default()),
			pinboard.WithWatcherErrorHandler(func(err error) {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}),
		)
		if err != nil {
			fatal("Failed to open workspace", err)
		}

		events, err := store.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Failed to watch workspace", err)
		}

		source := lifecycle.NewSource(events, watchKeys...)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", store.Dir())
		for event := range source.Events() {
			fmt.Println(event)
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "*", "Key pattern to watch (doublestar glob)")
	watchCmd.Flags().StringSliceVar(&watchKeys, "key", nil, "Only report these keys (e.g. appStateV1)")
	rootCmd.AddCommand(watchCmd)
}
