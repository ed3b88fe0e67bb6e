// Package app assembles configured components. It is the shared composition
// root of the binaries: every process-wide resource (logger, embedder,
// store) is constructed here once at startup and injected downward.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clinicalrag/internal/config"
	"clinicalrag/internal/domain"
	"clinicalrag/internal/embedding/hash"
	"clinicalrag/internal/embedding/openai"
	"clinicalrag/internal/vectorstore/file"
	"clinicalrag/internal/vectorstore/postgres"
	"clinicalrag/internal/vectorstore/qdrant"
)

// BuildLogger constructs a zap logger at the configured level. outputPaths
// overrides the destination; the TUI binary redirects to a file so log lines
// do not tear the interface.
func BuildLogger(level string, outputPaths ...string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q: %v", domain.ErrConfiguration, level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
		cfg.ErrorOutputPaths = outputPaths
	}
	return cfg.Build()
}

// BuildEmbedder constructs the configured embedder.
func BuildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hash", "":
		dim := 0
		if cfg.Hash != nil {
			dim = cfg.Hash.Dimension
		}
		return hash.New(dim), nil
	case "openai":
		oc := cfg.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{}
		}
		return openai.New(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedder type %q", domain.ErrConfiguration, cfg.Type)
	}
}

// BuildStore constructs the configured vector store. Qdrant needs the
// embedding dimension up front; for remote embedders that only learn it
// from the API, a probe embedding is issued.
func BuildStore(ctx context.Context, cfg config.VectorStoreConfig, embedder domain.Embedder) (domain.VectorStore, error) {
	switch cfg.Type {
	case "file", "":
		return file.Open(cfg.Path, cfg.Collection)
	case "qdrant":
		qc := cfg.Qdrant
		if qc == nil {
			return nil, fmt.Errorf("%w: qdrant store selected but not configured", domain.ErrConfiguration)
		}
		dim := embedder.Dimension()
		if dim == 0 {
			probe, err := embedder.Embed(ctx, "dimension probe")
			if err != nil {
				return nil, fmt.Errorf("probe embedding dimension: %w", err)
			}
			dim = len(probe)
		}
		return qdrant.Open(qdrant.Config{
			URL:        qc.URL,
			APIKey:     qc.APIKey,
			Collection: cfg.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		}, dim)
	case "postgres":
		pc := cfg.Postgres
		if pc == nil {
			return nil, fmt.Errorf("%w: postgres store selected but not configured", domain.ErrConfiguration)
		}
		return postgres.Open(pc.DSN, cfg.Collection)
	default:
		return nil, fmt.Errorf("%w: unknown vector store type %q", domain.ErrConfiguration, cfg.Type)
	}
}
