package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last change",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			return board.Undo(ctx)
		})
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone change",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			return board.Redo(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(undoCmd, redoCmd)
}
