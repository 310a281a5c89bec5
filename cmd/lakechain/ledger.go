// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/poiesic/lakechain/storage/badger"
	"github.com/urfave/cli/v2"
)

func ledgerCommand() *cli.Command {
	pathFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "ledger",
			Aliases:  []string{"d"},
			Usage:    "Path to the BadgerDB ledger directory",
			EnvVars:  []string{"LEDGER_PATH"},
			Required: true,
		}
	}
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect and maintain a message ledger",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Print ledger statistics",
				Flags: []cli.Flag{
					pathFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Print statistics as JSON"},
				},
				Action: ledgerStats,
			},
			{
				Name:  "gc",
				Usage: "Reclaim space held by expired entries",
				Flags: []cli.Flag{
					pathFlag(),
					&cli.Float64Flag{Name: "discard-ratio", Usage: "Value log discard ratio", Value: 0.5},
				},
				Action: ledgerGC,
			},
		},
	}
}

func ledgerStats(c *cli.Context) error {
	ledger, err := badger.OpenLedger(c.String("ledger"), 0)
	if err != nil {
		return err
	}
	defer ledger.Close()

	stats, err := ledger.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read ledger stats: %w", err)
	}

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(out, "entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "outputs: %d\n", stats.Outputs)
	if stats.Entries > 0 {
		fmt.Fprintf(out, "oldest:  %s\n", stats.Oldest.Format(time.RFC3339))
		fmt.Fprintf(out, "newest:  %s\n", stats.Newest.Format(time.RFC3339))
	}
	for _, service := range slices.Sorted(maps.Keys(stats.Service)) {
		fmt.Fprintf(out, "  %s: %d\n", service, stats.Service[service])
	}
	return nil
}

func ledgerGC(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("ledger"), false)
	if err != nil {
		return err
	}
	defer backend.Close()

	runs := backend.RunGC(c.Float64("discard-ratio"))
	fmt.Fprintf(c.App.Writer, "value log gc runs: %d\n", runs)
	return nil
}
