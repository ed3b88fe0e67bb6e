// Command direct is the interactive diagnostic-reasoning assistant: it
// retrieves similar clinical notes for a query, synthesizes an assessment
// with the generation model and scores the answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"clinicalrag/internal/app"
	"clinicalrag/internal/config"
	"clinicalrag/internal/evaluator"
	"clinicalrag/internal/generator"
	"clinicalrag/internal/pipeline"
	"clinicalrag/internal/retriever"
	"clinicalrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var topK int
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/clinicalrag/config.yaml if not provided)")
	flag.IntVar(&topK, "k", 0, "Number of documents to retrieve (overrides config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if topK > 0 {
		cfg.Retrieval.TopK = topK
	}

	// log to a file; stderr belongs to the TUI
	logger, err := app.BuildLogger(cfg.LogLevel, "clinicalrag.log")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	emb, err := app.BuildEmbedder(cfg.Embedder)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	store, err := app.BuildStore(context.Background(), cfg.VectorStore, emb)
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}
	defer store.Close()

	gen, err := generator.New(generator.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	ret := retriever.New(emb, store)
	eval := evaluator.New(emb)
	pipe := pipeline.New(ret, gen, eval, cfg.Generator.MaxContextChars, logger)

	count, err := store.Count(context.Background())
	if err != nil {
		log.Fatalf("failed to read index: %v", err)
	}
	header := fmt.Sprintf("Collection %q: %d notes indexed (embedder: %s, k=%d)",
		cfg.VectorStore.Collection, count, emb.Name(), cfg.Retrieval.TopK)

	m := tui.New(pipe, cfg.Retrieval.TopK, header)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
