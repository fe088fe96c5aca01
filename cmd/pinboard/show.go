package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
)

var (
	showJSON  bool
	showState bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List the notes on the board",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			if showState {
				return printJSON(board.State())
			}
			snap := board.Capture()
			if showJSON {
				return printJSON(snap)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPOS\tSIZE\tZ\tCOLOR\tTEXT")
			for i, n := range snap.Draggables {
				fmt.Fprintf(w, "%d\t%d,%d\t%dx%d\t%d\t%s\t%q\n",
					i+1, n.Left, n.Top, n.Width, n.Height, n.Z, n.BackgroundColor, n.Texts())
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\ndark mode: %t, background: %t, drawing: %t\n",
				snap.DarkMode, snap.BackgroundImage != "", snap.Drawing != "")
			return nil
		})
	},
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output the snapshot as JSON")
	showCmd.Flags().BoolVar(&showState, "state", false, "Output internal component state")
	rootCmd.AddCommand(showCmd)
}
