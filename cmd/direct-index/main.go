// Command direct-index ingests a corpus of clinical notes into the vector
// index. It can also export the full index as JSON for migration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"clinicalrag/internal/app"
	"clinicalrag/internal/config"
	"clinicalrag/internal/indexer"
	"clinicalrag/internal/ingest"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dataPath, exportPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
	flag.StringVar(&dataPath, "data", "", "Path to the clinical notes corpus (directory of JSON files)")
	flag.StringVar(&exportPath, "export", "", "Write the full index to this JSON file instead of ingesting")
	flag.Parse()
	if dataPath == "" && exportPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: direct-index [--config=config.yaml] --data=path/to/corpus")
		fmt.Fprintln(os.Stderr, "       direct-index [--config=config.yaml] --export=index.json")
		os.Exit(1)
	}

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

	logger, err := app.BuildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	emb, err := app.BuildEmbedder(cfg.Embedder)
	if err != nil {
		logger.Fatal("embedder init failed", zap.Error(err))
	}
	ctx := context.Background()
	store, err := app.BuildStore(ctx, cfg.VectorStore, emb)
	if err != nil {
		logger.Fatal("vector store init failed", zap.Error(err))
	}
	defer store.Close()

	if exportPath != "" {
		entries, err := store.All(ctx)
		if err != nil {
			logger.Fatal("index enumeration failed", zap.Error(err))
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			logger.Fatal("marshal index", zap.Error(err))
		}
		if err := os.WriteFile(exportPath, data, 0o644); err != nil {
			logger.Fatal("write export", zap.Error(err))
		}
		logger.Info("index exported", zap.String("path", exportPath), zap.Int("entries", len(entries)))
		return
	}

	docs, err := ingest.LoadClinicalNotes(dataPath, logger)
	if err != nil {
		logger.Fatal("corpus load failed", zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Fatal("no notes found in corpus", zap.String("path", dataPath))
	}

	ix := indexer.New(emb, store, logger)
	if err := ix.Insert(ctx, docs); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}

	count, err := store.Count(ctx)
	if err != nil {
		logger.Fatal("failed to read index", zap.Error(err))
	}
	logger.Info("ingest complete",
		zap.Int("ingested", len(docs)),
		zap.Int("total_entries", count),
		zap.String("collection", cfg.VectorStore.Collection),
	)
}
