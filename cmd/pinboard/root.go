package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
	"github.com/aretw0/pinboard/internal/platform"
)

var (
	verbose bool
	dir     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pinboard",
	Short: "A freeform board of sticky notes and drawings with undo",
	Long: `Pinboard keeps sticky notes, a freehand drawing, a background and a theme
as one workspace. Every change can be undone, the board is saved under .pinboard/
and can be exported to and imported from XML.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "Workspace directory (default $PINBOARD_DIR or .)")
}

// withBoard opens the workspace, runs fn and closes it, persisting state and history.
func withBoard(fn func(ctx context.Context, board *pinboard.Session) error) {
	ctx := context.Background()
	board, err := pinboard.Open(ctx, platform.ResolveDir(dir),
		pinboard.WithLogger(slog.Default()),
		pinboard.WithPersistentHistory(true),
	)
	if err != nil {
		fatal("Failed to open workspace", err)
	}

	runErr := fn(ctx, board)
	if err := board.Close(ctx); err != nil {
		fatal("Failed to save workspace", err)
	}
	if runErr != nil {
		fatal("Error", runErr)
	}
}

// noteID resolves a 1-based note number as shown by `pinboard show`.
func noteID(board *pinboard.Session, arg string) (string, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return "", fmt.Errorf("invalid note number %q", arg)
	}
	note, err := board.NoteAt(n)
	if err != nil {
		return "", err
	}
	return note.ID, nil
}

// parsePair parses "a,b" or "aXb" into two integers.
func parsePair(s string) (int, int, error) {
	a, b, ok := strings.Cut(strings.ToLower(s), ",")
	if !ok {
		a, b, ok = strings.Cut(strings.ToLower(s), "x")
	}
	if !ok {
		return 0, 0, fmt.Errorf("expected two numbers in %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number in %q: %w", s, err)
	}
	return x, y, nil
}

func atoiArgs(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
