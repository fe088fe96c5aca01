package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pinboard"
)

func run(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
}

func TestParsePair(t *testing.T) {
	x, y, err := parsePair("10,20")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, []int{x, y})

	x, y, err = parsePair("250x105")
	require.NoError(t, err)
	assert.Equal(t, []int{250, 105}, []int{x, y})

	for _, bad := range []string{"10", "a,b", "1,2,3"} {
		_, _, err := parsePair(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatFor(t *testing.T) {
	transferFormat = ""
	assert.Equal(t, "xml", formatFor("-"))
	assert.Equal(t, "json", formatFor("board.json"))
	assert.Equal(t, "xml", formatFor("board"))

	transferFormat = "yaml"
	defer func() { transferFormat = "" }()
	assert.Equal(t, "yaml", formatFor("board.json"))
}

func TestCLI_Workflow(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	export := filepath.Join(dir, "board.xml")

	run(t, "--dir", dir, "add", "abc]]>def", "--at", "80,80")
	run(t, "--dir", dir, "add", "second", "--at", "0,0")
	run(t, "--dir", dir, "move", "2", "33", "47")
	run(t, "--dir", dir, "text", "1", "2", "more")
	run(t, "--dir", dir, "draw", "5,5", "40,40", "--color", "#ff0000")
	run(t, "--dir", dir, "export", export)

	board, err := pinboard.Open(ctx, dir)
	require.NoError(t, err)
	notes := board.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, "abc]]>def", notes[0].Text1)
	assert.Equal(t, "more", notes[0].Text2)
	assert.Equal(t, 40, notes[1].Left)
	assert.NotEmpty(t, board.Capture().Drawing)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<workspace>")

	run(t, "--dir", dir, "erase", "all")
	run(t, "--dir", dir, "undo")

	board, err = pinboard.Open(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, board.Notes(), 2, "undo survives across invocations")

	run(t, "--dir", dir, "erase", "notes")
	run(t, "--dir", dir, "import", export)

	board, err = pinboard.Open(ctx, dir)
	require.NoError(t, err)
	require.Len(t, board.Notes(), 2)
	assert.Equal(t, "abc]]>def", board.Notes()[0].Text1)
}
