package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
)

var transferFormat string

// formatFor picks the codec name from --format, then the file extension, then xml.
func formatFor(path string) string {
	if transferFormat != "" {
		return transferFormat
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" && path != "-" {
		return ext
	}
	return "xml"
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the board (xml, json or yaml); stdout by default",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}

		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			var out io.Writer = os.Stdout
			if path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := board.Export(out, formatFor(path)); err != nil {
				return err
			}
			if path != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d notes to %s.\n", len(board.Notes()), path)
			}
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the board with an exported file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			var in io.Reader = os.Stdin
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			if err := board.Import(ctx, in, formatFor(path)); err != nil {
				return err
			}
			fmt.Printf("Workspace imported (%d notes).\n", len(board.Notes()))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&transferFormat, "format", "", "xml, json or yaml (default from extension, else xml)")
	importCmd.Flags().StringVar(&transferFormat, "format", "", "xml, json or yaml (default from extension, else xml)")
	rootCmd.AddCommand(exportCmd, importCmd)
}
