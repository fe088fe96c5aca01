package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
	"github.com/aretw0/pinboard/pkg/workspace"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Toggle dark mode",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			dark, err := board.ToggleTheme()
			if err != nil {
				return err
			}
			if dark {
				fmt.Println("Dark mode on.")
			} else {
				fmt.Println("Dark mode off.")
			}
			return nil
		})
	},
}

var bgCmd = &cobra.Command{
	Use:   "bg [image-file | url]",
	Short: "Set the background image (max 3 MiB)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := args[0]
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				return board.SetBackgroundURL(src)
			}
			data, err := os.ReadFile(src)
			if err != nil {
				return err
			}
			return board.SetBackground(ctx, data, mime.TypeByExtension(filepath.Ext(src)))
		})
	},
}

var eraseCmd = &cobra.Command{
	Use:   "erase [drawing|notes|background|all]",
	Short: "Erase part of the board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scope, err := workspace.ParseEraseScope(args[0])
		if err != nil {
			fatal("Invalid scope", err)
		}
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			if err := board.Erase(scope); err != nil {
				return err
			}
			fmt.Printf("Erased %s.\n", scope)
			return nil
		})
	},
}

var drawColor string

var drawCmd = &cobra.Command{
	Use:   "draw [x,y] [x,y]...",
	Short: "Draw one pen stroke through the given points",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		points := make([][2]int, len(args))
		for i, a := range args {
			x, y, err := parsePair(a)
			if err != nil {
				fatal("Invalid point", err)
			}
			points[i] = [2]int{x, y}
		}

		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			if drawColor != "" {
				if err := board.SetColor(drawColor); err != nil {
					return err
				}
			}
			if !board.PenEnabled() {
				board.TogglePen()
			}
			if _, err := board.BeginStroke(points[0][0], points[0][1]); err != nil {
				return err
			}
			defer board.EndStroke()

			rest := points[1:]
			if len(rest) == 0 {
				// A click without movement still leaves a dot.
				rest = points[:1]
			}
			for _, p := range rest {
				if err := board.ContinueStroke(p[0], p[1]); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	drawCmd.Flags().StringVar(&drawColor, "color", "", "Pen colour as #rrggbb")
	rootCmd.AddCommand(themeCmd, bgCmd, eraseCmd, drawCmd)
}
