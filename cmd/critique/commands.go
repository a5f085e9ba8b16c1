package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/critique/analysis"
	"github.com/poiesic/critique/embedcache"
	"github.com/urfave/cli/v2"
)

func analyzeCommand(c *cli.Context) error {
	data, err := readInput(c, c.String("input"))
	if err != nil {
		return err
	}
	var items []analysis.Input
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return fmt.Errorf("input must be a JSON array of question/response objects: %w", err)
	}

	cfg := configFrom(c)
	if c.Bool("no-context") {
		cfg.Analysis.ContextAware = false
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	results := engine.AnalyzeBatch(c.Context, items)
	return writeJSON(c.App.Writer, results)
}

func matchCommand(c *cli.Context) error {
	resumeText, err := readInput(c, c.String("resume"))
	if err != nil {
		return err
	}
	jd, err := readInput(c, c.String("jd"))
	if err != nil {
		return err
	}

	engine, err := openEngine(configFrom(c))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	report, err := engine.OptimizeResume(c.Context, resumeText, jd)
	if err != nil {
		return fmt.Errorf("resume optimization failed: %w", err)
	}
	return writeJSON(c.App.Writer, report)
}

func retrieveCommand(c *cli.Context) error {
	source, err := readInput(c, c.String("source"))
	if err != nil {
		return err
	}
	target := c.String("query")
	if path := c.String("target"); path != "" {
		if target, err = readInput(c, path); err != nil {
			return err
		}
	}
	if strings.TrimSpace(target) == "" {
		return errors.New("one of --target or --query is required")
	}

	engine, err := openEngine(configFrom(c))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	results, err := engine.RetrieveRelevantChunks(c.Context, engine.Chunk(source), target, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	return writeJSON(c.App.Writer, results)
}

func gapsCommand(c *cli.Context) error {
	candidate, err := readInput(c, c.String("candidate"))
	if err != nil {
		return err
	}
	reference, err := readInput(c, c.String("reference"))
	if err != nil {
		return err
	}

	engine, err := openEngine(configFrom(c))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	missing, err := engine.MissingChunks(c.Context, candidate, reference)
	if err != nil {
		return fmt.Errorf("gap analysis failed: %w", err)
	}
	return writeJSON(c.App.Writer, map[string]any{
		"threshold":      engine.Config().Retrieval.SimilarityThreshold,
		"missing_chunks": missing,
	})
}

func warmCommand(c *cli.Context) error {
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	cfg := configFrom(c)
	if cfg.Cache.Dir == "" {
		return errors.New("warm needs a persistent cache: set --cache-dir or cache.dir")
	}

	engine, err := openEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	var texts []string
	for _, path := range c.StringSlice("input") {
		text, err := readInput(c, path)
		if err != nil {
			return err
		}
		for _, chunk := range engine.Chunk(text) {
			texts = append(texts, chunk.Content)
		}
	}

	fmt.Fprintf(c.App.ErrWriter, "Cache: %s\n", cfg.Cache.Dir)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	tracker := embedcache.NewProgressTracker(c.App.ErrWriter, len(texts), c.Int("report-interval"))
	if _, err := engine.Warm(c.Context, texts, tracker); err != nil {
		return fmt.Errorf("warming failed: %w", err)
	}
	return writeJSON(c.App.Writer, engine.CacheStats())
}

// readInput returns the contents of path, or of stdin for "-".
func readInput(c *cli.Context, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
