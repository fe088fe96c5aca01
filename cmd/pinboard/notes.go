package main

import (
	"context"
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/aretw0/pinboard"
)

var (
	addAt    string
	addSize  string
	addColor string
)

var addCmd = &cobra.Command{
	Use:   "add [text1] [text2] [text3] [text4]",
	Short: "Add a sticky note",
	Args:  cobra.MaximumNArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		spec := pinboard.NoteSpec{Color: addColor}
		copy(spec.Text[:], args)
		if addAt != "" {
			x, y, err := parsePair(addAt)
			if err != nil {
				fatal("Invalid --at", err)
			}
			spec.Position = &image.Point{X: x, Y: y}
		}
		if addSize != "" {
			w, h, err := parsePair(addSize)
			if err != nil {
				fatal("Invalid --size", err)
			}
			spec.Width, spec.Height = w, h
		}

		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			if _, err := board.AddNote(spec); err != nil {
				return err
			}
			fmt.Printf("Added note #%d.\n", len(board.Notes()))
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [note]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			id, err := noteID(board, args[0])
			if err != nil {
				return err
			}
			return board.DeleteNote(id)
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move [note] [left] [top]",
	Short: "Move a note (snapped to the grid)",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		pos, err := atoiArgs(args[1:]...)
		if err != nil {
			fatal("Invalid position", err)
		}
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			id, err := noteID(board, args[0])
			if err != nil {
				return err
			}
			if err := board.BeginDrag(id); err != nil {
				return err
			}
			defer board.EndGesture()
			return board.DragTo(ctx, id, pos[0], pos[1])
		})
	},
}

var resizeCmd = &cobra.Command{
	Use:   "resize [note] [width] [height]",
	Short: "Resize a note",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		size, err := atoiArgs(args[1:]...)
		if err != nil {
			fatal("Invalid size", err)
		}
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			id, err := noteID(board, args[0])
			if err != nil {
				return err
			}
			if err := board.BeginResize(id); err != nil {
				return err
			}
			defer board.EndGesture()
			return board.ResizeTo(ctx, id, size[0], size[1])
		})
	},
}

var textCmd = &cobra.Command{
	Use:   "text [note] [field 1-4] [value]",
	Short: "Set a text field of a note",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		field, err := atoiArgs(args[1])
		if err != nil {
			fatal("Invalid field", err)
		}
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			id, err := noteID(board, args[0])
			if err != nil {
				return err
			}
			// One command is one undoable edit.
			if err := board.BeginEdit(id); err != nil {
				return err
			}
			return board.EditText(id, field[0], args[2])
		})
	},
}

var colorNote string

var colorCmd = &cobra.Command{
	Use:   "color [#rrggbb]",
	Short: "Set the pen colour, and the background of --note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withBoard(func(ctx context.Context, board *pinboard.Session) error {
			if colorNote != "" {
				id, err := noteID(board, colorNote)
				if err != nil {
					return err
				}
				if err := board.Select(id); err != nil {
					return err
				}
				if err := board.BeginEdit(id); err != nil {
					return err
				}
			}
			return board.SetColor(args[0])
		})
	},
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "Position as left,top (random near the corner by default)")
	addCmd.Flags().StringVar(&addSize, "size", "", "Size as WIDTHxHEIGHT (default 250x105)")
	addCmd.Flags().StringVar(&addColor, "color", "", "Background colour (default #f6e58d)")
	colorCmd.Flags().StringVar(&colorNote, "note", "", "Note number to recolour")

	rootCmd.AddCommand(addCmd, rmCmd, moveCmd, resizeCmd, textCmd, colorCmd)
}
