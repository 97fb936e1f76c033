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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/threadseek"
	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum/export"
	"github.com/poiesic/threadseek/search"
)

func main() {
	app := &cli.App{
		Name:  "threadseek",
		Usage: "Boolean search over forum thread exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "search",
				Usage:  "Search a JSON Lines thread export",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "export",
						Aliases:  []string{"e"},
						Usage:    "Path to the thread export file (one JSON object per line)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Boolean query string (see the syntax command)",
					},
					&cli.StringSliceFlag{
						Name:    "tag",
						Aliases: []string{"t"},
						Usage:   "Require at least one of these tags",
					},
					&cli.StringSliceFlag{
						Name:  "exclude-tag",
						Usage: "Reject threads carrying this tag",
					},
					&cli.StringFlag{
						Name:  "exclude-words",
						Usage: "Comma-separated hard-veto keywords",
					},
					&cli.Uint64Flag{
						Name:  "author",
						Usage: "Only threads by this author id",
					},
					&cli.Uint64Flag{
						Name:  "exclude-author",
						Usage: "Reject threads by this author id",
					},
					&cli.StringFlag{
						Name:  "after",
						Usage: "Only threads created on or after this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "before",
						Usage: "Only threads created on or before this date (YYYY-MM-DD)",
					},
					&cli.IntFlag{
						Name:  "min-reactions",
						Usage: "Minimum reaction count on the starter message",
					},
					&cli.IntFlag{
						Name:  "min-replies",
						Usage: "Minimum reply count",
					},
					&cli.StringFlag{
						Name:  "order",
						Usage: "Result order (newest, oldest, most-replies, fewest-replies, most-reactions, fewest-reactions, title-az, title-za, recently-active, least-recently-active)",
						Value: "newest",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum results to display",
						Value:   25,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Concurrent thread evaluations",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Optional BadgerDB directory for the secondary cache tier",
					},
					&cli.StringFlag{
						Name:  "history",
						Usage: "Optional path to the search history snapshot file",
					},
					&cli.Uint64Flag{
						Name:  "user",
						Usage: "User id recorded in the search history",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Wall-clock limit for the whole search",
						Value: 2 * time.Minute,
					},
				},
			},
			{
				Name:   "syntax",
				Usage:  "Print the boolean query syntax reference",
				Action: syntaxCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func searchCommand(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	src, err := export.Load(c.String("export"))
	if err != nil {
		return fmt.Errorf("failed to load export: %w", err)
	}

	engineOpts := []threadseek.EngineOption{
		threadseek.WithConcurrency(c.Int("concurrency")),
	}
	if dir := c.String("cache-dir"); dir != "" {
		engineOpts = append(engineOpts, threadseek.WithCachePath(dir))
	}
	if path := c.String("history"); path != "" {
		engineOpts = append(engineOpts, threadseek.WithHistoryPath(path))
	}

	engine, err := threadseek.NewEngine(engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	req := search.Request{
		UserID:          core.ID(c.Uint64("user")),
		Forum:           c.String("export"),
		Query:           c.String("query"),
		ExcludeWords:    c.String("exclude-words"),
		Tags:            c.StringSlice("tag"),
		ExcludeTags:     c.StringSlice("exclude-tag"),
		AuthorID:        core.ID(c.Uint64("author")),
		ExcludeAuthorID: core.ID(c.Uint64("exclude-author")),
		After:           c.String("after"),
		Before:          c.String("before"),
		MinReactions:    c.Int("min-reactions"),
		MinReplies:      c.Int("min-replies"),
		Order:           c.String("order"),
	}

	fmt.Fprintf(os.Stderr, "Export: %s (%d threads)\n\n", c.String("export"), src.Len())

	results, err := engine.Search(ctx, src, req, &progressPrinter{})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	limit := c.Int("limit")
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	if len(results) == 0 {
		fmt.Println("No matching threads.")
		return nil
	}

	for i, rec := range results {
		fmt.Printf("%3d. %s\n", i+1, rec.Title)
		fmt.Printf("     by %s on %s | %d reactions, %d replies\n",
			rec.AuthorName, rec.CreatedAt.Format("2006-01-02"),
			rec.Stats.ReactionCount, rec.Stats.ReplyCount)
		if len(rec.Tags) > 0 {
			fmt.Printf("     tags: %s\n", strings.Join(rec.Tags, ", "))
		}
		if rec.JumpURL != "" {
			fmt.Printf("     %s\n", rec.JumpURL)
		}
	}
	return nil
}

func syntaxCommand(c *cli.Context) error {
	fmt.Println(search.SyntaxHelp())
	return nil
}

// progressPrinter reports pipeline progress on stderr. Emission rate is
// already bounded by the pipeline.
type progressPrinter struct{}

var _ search.Monitor = (*progressPrinter)(nil)

func (p *progressPrinter) Start(_ *search.Run, _ *search.Condition) {}

func (p *progressPrinter) ActiveDone(snap search.Snapshot) {
	fmt.Fprintf(os.Stderr, "Active threads done: %d processed, %d matched\n",
		snap.Processed, snap.Matched)
}

func (p *progressPrinter) Progress(snap search.Snapshot) {
	fmt.Fprintf(os.Stderr, "Progress: %d processed, %d matched, %d pages (%.1fs)\n",
		snap.Processed, snap.Matched, snap.Pages, snap.Elapsed.Seconds())
}

func (p *progressPrinter) Finish(snap search.Snapshot, results []*core.ThreadRecord) {
	fmt.Fprintf(os.Stderr, "Done: %d processed, %d matched in %.1fs\n\n",
		snap.Processed, len(results), snap.Elapsed.Seconds())
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
