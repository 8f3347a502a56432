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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/bubbl"
	"github.com/poiesic/bubbl/ai"
	"github.com/poiesic/bubbl/ai/openai"
	"github.com/poiesic/bubbl/core"
	"github.com/poiesic/bubbl/query"
	"github.com/poiesic/bubbl/reembed"
	"github.com/poiesic/bubbl/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "bubbl",
		Usage:  "Semantic bubble store with user-affinity ranking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "post",
				Usage:     "Post a new bubble",
				ArgsUsage: "CONTENT...",
				Action:    postCommand,
				Flags: append(append(storeFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "author",
						Aliases:  []string{"u"},
						Usage:    "Posting user name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Optional category label",
					},
				),
			},
			{
				Name:   "remove",
				Usage:  "Remove one of your own bubbles by ID",
				Action: removeCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "actor",
						Aliases:  []string{"u"},
						Usage:    "Acting user name",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Bubble ID to remove",
						Required: true,
					},
				),
			},
			{
				Name:   "search",
				Usage:  "Search bubbles by text, author or category",
				Action: searchCommand,
				Flags: append(append(storeFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "Free-text query (semantic search)",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Only bubbles by this author",
					},
					&cli.StringFlag{
						Name:  "exclude-author",
						Usage: "Skip bubbles by this author",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only bubbles in this category",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Page size",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of matches to skip",
						Value: 0,
					},
				),
			},
			{
				Name:   "profile",
				Usage:  "Show a user's bubbles, newest first",
				Action: profileCommand,
				Flags: append(append(storeFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "author",
						Aliases:  []string{"u"},
						Usage:    "User name to profile",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only bubbles in this category",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Page size",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of bubbles to skip",
						Value: 0,
					},
				),
			},
			{
				Name:   "match",
				Usage:  "Rank other users by affinity to a user's writing",
				Action: matchCommand,
				Flags: append(append(storeFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "actor",
						Aliases:  []string{"u"},
						Usage:    "Reference user name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only consider bubbles in this category",
					},
					&cli.IntFlag{
						Name:  "candidate-cap",
						Usage: "Maximum candidate bubbles to consider",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "reference-cap",
						Usage: "Maximum of the actor's own bubbles to consider",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for summarization and embedding",
					},
				),
			},
			{
				Name:   "seed",
				Usage:  "Bulk-load bubbles from a JSON file",
				Action: seedCommand,
				Flags: append(append(storeFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "src",
						Aliases:  []string{"s"},
						Usage:    "JSON file of bubbles to load",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of bubbles to embed and insert per batch",
						Value: 100,
					},
				),
			},
			{
				Name:   "purge",
				Usage:  "Delete every bubble in the store",
				Action: purgeCommand,
				Flags: append(storeFlags(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm deletion without prompting",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all bubbles with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of bubbles to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N bubbles",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "summary-model",
			Usage: "Summarization model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "API token for the AI service",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithSummaryModel(c.String("summary-model")),
		ai.WithToken(c.String("token")),
	)
}

func openEngine(c *cli.Context, opts ...bubbl.EngineOption) (*bubbl.Engine, error) {
	opts = append([]bubbl.EngineOption{bubbl.WithAIConfig(aiConfigFromFlags(c))}, opts...)
	engine, err := bubbl.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return engine, nil
}

func postCommand(c *cli.Context) error {
	content := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	inserted, err := engine.Create(context.Background(), &core.Bubble{
		Content:  content,
		Author:   c.String("author"),
		Category: c.String("category"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("posted bubble %d\n", inserted[0].Id)
	return nil
}

func removeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	id := core.ID(c.Uint64("id"))
	if err := engine.Remove(context.Background(), c.String("actor"), id); err != nil {
		return err
	}

	fmt.Printf("removed bubble %d\n", id)
	return nil
}

func searchCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	f := query.Filter{
		Author:        c.String("author"),
		ExcludeAuthor: c.String("exclude-author"),
		Category:      c.String("category"),
		Text:          c.String("text"),
	}

	page, hasMore, err := engine.Search(context.Background(), f, c.Int("limit"), c.Int("offset"))
	if err != nil {
		return err
	}

	for _, b := range page {
		printBubble(b)
	}
	if hasMore {
		fmt.Printf("more results available (try --offset %d)\n", c.Int("offset")+len(page))
	}
	return nil
}

func profileCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	f := query.Filter{Category: c.String("category")}
	profile, err := engine.Profile(context.Background(), c.String("author"), f, c.Int("limit"), c.Int("offset"))
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d bubble(s) on this page\n", profile.Author, profile.TotalCount)
	for _, b := range profile.Bubbles {
		printBubble(b)
	}
	return nil
}

func matchCommand(c *cli.Context) error {
	var opts []bubbl.EngineOption
	if c.Int("pool-size") > 0 {
		opts = append(opts, bubbl.WithPoolSize(c.Int("pool-size")))
	}

	engine, err := openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	f := query.Filter{Category: c.String("category")}
	ranked, err := engine.RankAuthors(context.Background(), c.String("actor"), f,
		c.Int("candidate-cap"), c.Int("reference-cap"))
	if err != nil {
		return err
	}

	for i, r := range ranked {
		fmt.Printf("%3d. %-24s %.4f\n", i+1, r.Author, r.Score)
	}
	return nil
}

// seedBubble mirrors the JSON shape of seed files.
type seedBubble struct {
	Content  string `json:"content"`
	Author   string `json:"user_name"`
	Category string `json:"category"`
}

func seedCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("src"))
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seeds []seedBubble
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	bubbles := make([]*core.Bubble, len(seeds))
	for i, s := range seeds {
		bubbles[i] = &core.Bubble{
			Content:  s.Content,
			Author:   s.Author,
			Category: s.Category,
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	imported, err := engine.Import(context.Background(), bubbles, c.Int("batch-size"))
	if err != nil {
		return fmt.Errorf("imported %d bubble(s) before failing: %w", imported, err)
	}

	fmt.Printf("imported %d bubble(s)\n", imported)
	return nil
}

func purgeCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("refusing to purge without --yes")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewBubbleRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	if err := repo.Purge(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	fmt.Println("store purged")
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewBubbleRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func printBubble(b *core.Bubble) {
	label := ""
	if b.Category != "" {
		label = fmt.Sprintf(" [%s]", b.Category)
	}
	fmt.Printf("#%d %s%s (%s)\n    %s\n", b.Id, b.Author, label, humanize.Time(b.CreatedAt), b.Content)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
