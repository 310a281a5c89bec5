package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/storage"
	"github.com/poiesic/lakechain/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = io.Discard
	return app, out
}

func findCommand(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func findFlag(cmd *cli.Command, name string) cli.Flag {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return f
			}
		}
	}
	return nil
}

func seedLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ledger, err := badger.OpenLedger(dir, 0)
	require.NoError(t, err)

	ctx := context.Background()
	handled := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*storage.Entry{
		{Key: core.FingerprintOf([]byte("a")), ChainID: "c1", Service: "pdftext", Outputs: 3, HandledAt: handled},
		{Key: core.FingerprintOf([]byte("b")), ChainID: "c2", Service: "pdftext", Outputs: 1, HandledAt: handled.Add(time.Hour)},
		{Key: core.FingerprintOf([]byte("c")), ChainID: "c3", Service: "feed", Outputs: 0, HandledAt: handled.Add(2 * time.Hour)},
	}
	for _, entry := range entries {
		require.NoError(t, ledger.Mark(ctx, entry))
	}
	require.NoError(t, ledger.Close())
	return dir
}

func TestProcessorCommands(t *testing.T) {
	app, _ := testApp(t)

	names := []string{
		"embedding", "textgen", "summarize", "keywords", "textsplit",
		"pdftext", "markdown", "feed", "article", "imagehash",
		"laplacian", "layers", "mediainfo", "transcribe", "synthesize",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(app, name)
			require.NotNil(t, cmd)
			assert.NotNil(t, findFlag(cmd, "input-queue"))
			assert.NotNil(t, findFlag(cmd, "service"))
			assert.NotNil(t, findFlag(cmd, "target-topic"))
		})
	}
}

func TestModelFlagsAreNotDuplicated(t *testing.T) {
	app, _ := testApp(t)
	cmd := findCommand(app, "transcribe")
	require.NotNil(t, cmd)

	count := 0
	for _, f := range cmd.Flags {
		if f.Names()[0] == "api-key" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestInputQueueIsRequired(t *testing.T) {
	app, _ := testApp(t)

	err := app.Run([]string{"lakechain", "feed", "--service", "feed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input-queue")
}

func TestLayersFiltersAreRequired(t *testing.T) {
	app, _ := testApp(t)

	err := app.Run([]string{"lakechain", "layers", "--service", "layers", "--input-queue", "http://localhost/q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filters")
}

func TestDefaults(t *testing.T) {
	app, _ := testApp(t)

	pdf := findCommand(app, "pdftext")
	require.NotNil(t, pdf)
	segmentation, ok := findFlag(pdf, "segmentation").(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "document", segmentation.Value)
	output, ok := findFlag(pdf, "output").(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "text", output.Value)
	_, ok = findFlag(pdf, "layout").(*cli.BoolFlag)
	assert.True(t, ok)

	lap := findCommand(app, "laplacian")
	require.NotNil(t, lap)
	kernel, ok := findFlag(lap, "kernel-size").(*cli.IntFlag)
	require.True(t, ok)
	assert.Equal(t, 3, kernel.Value)

	ttl, ok := findFlag(pdf, "ledger-ttl").(*cli.DurationFlag)
	require.True(t, ok)
	assert.Equal(t, badger.DefaultTTL, ttl.Value)
}

func TestInvalidLogLevel(t *testing.T) {
	app, _ := testApp(t)
	dir := t.TempDir()

	err := app.Run([]string{"lakechain", "--log-level", "verbose", "ledger", "stats", "--ledger", dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLedgerStats(t *testing.T) {
	dir := seedLedger(t)

	t.Run("text", func(t *testing.T) {
		app, out := testApp(t)
		require.NoError(t, app.Run([]string{"lakechain", "ledger", "stats", "--ledger", dir}))

		text := out.String()
		assert.Contains(t, text, "entries: 3")
		assert.Contains(t, text, "outputs: 4")
		assert.Contains(t, text, "oldest:  2025-03-01T12:00:00Z")
		assert.Contains(t, text, "newest:  2025-03-01T14:00:00Z")
		assert.Contains(t, text, "  pdftext: 2")
		assert.Contains(t, text, "  feed: 1")
	})

	t.Run("json", func(t *testing.T) {
		app, out := testApp(t)
		require.NoError(t, app.Run([]string{"lakechain", "ledger", "stats", "--ledger", dir, "--json"}))

		var stats storage.LedgerStats
		require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
		assert.Equal(t, 3, stats.Entries)
		assert.Equal(t, 4, stats.Outputs)
		assert.Equal(t, map[string]int{"pdftext": 2, "feed": 1}, stats.Service)
	})
}

func TestLedgerGC(t *testing.T) {
	dir := seedLedger(t)
	app, out := testApp(t)

	require.NoError(t, app.Run([]string{"lakechain", "ledger", "gc", "--ledger", dir}))
	assert.Contains(t, out.String(), "value log gc runs:")
}
