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
	"os/signal"
	"strings"

	"github.com/poiesic/critique"
	"github.com/poiesic/critique/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// openEngine is replaced in tests.
var openEngine = func(cfg *config.Config) (*critique.Engine, error) {
	return critique.Open(cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "critique",
		Usage: "Embedding-backed feedback for interview answers and resumes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config (default ./critique.yaml, then ~/.config/critique/config.yaml)",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "completion-host",
				Usage: "Completion service host URL",
			},
			&cli.StringFlag{
				Name:  "completion-model",
				Usage: "Completion model name",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Directory for the persistent embedding cache",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity below which a reference chunk counts as missing",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadConfig(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Score interview answers and generate feedback",
				ArgsUsage: " ",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "JSON file with an array of {\"question\", \"response\"} objects (- for stdin)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "no-context",
						Usage: "Prompt without cross-question interview context",
					},
				},
			},
			{
				Name:   "match",
				Usage:  "Rewrite a resume toward a job description",
				Action: matchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "resume",
						Aliases:  []string{"r"},
						Usage:    "Plain text resume file (- for stdin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "jd",
						Aliases:  []string{"j"},
						Usage:    "Plain text job description file",
						Required: true,
					},
				},
			},
			{
				Name:   "retrieve",
				Usage:  "Rank chunks of a document against a target text",
				Action: retrieveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Plain text document to chunk (- for stdin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "Plain text file to rank against",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Target text given inline",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results (0 uses the configured default)",
					},
				},
			},
			{
				Name:   "gaps",
				Usage:  "List reference chunks a candidate text does not cover",
				Action: gapsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "candidate",
						Usage:    "Plain text candidate file (- for stdin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "reference",
						Usage:    "Plain text reference file",
						Required: true,
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Pre-compute chunk embeddings into the persistent cache",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Plain text files to chunk and embed",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N texts",
						Value: 100,
					},
				},
			},
		},
	}
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig layers .env files, the config file, CRITIQUE_* variables and
// finally command line flags.
func loadConfig(c *cli.Context) error {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return err
	}

	var (
		cfg  *config.Config
		path = c.String("config")
		err  error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("completion-host") {
		cfg.AI.CompletionHost = c.String("completion-host")
	}
	if c.IsSet("completion-model") {
		cfg.AI.CompletionModel = c.String("completion-model")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Dir = c.String("cache-dir")
	}
	if c.IsSet("threshold") {
		cfg.Retrieval.SimilarityThreshold = float32(c.Float64("threshold"))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if path != "" {
		slog.Debug("loaded config", "path", path)
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}
