// Package qdrant is a minimal REST client for a Qdrant-backed collection.
// The collection is created with cosine distance, so scores come back as
// similarities and match the convention of the local backends.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"clinicalrag/internal/domain"
)

// Config contains connection details for a Qdrant server.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store talks to one Qdrant collection.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Open connects to Qdrant and ensures the collection exists with the given
// embedding dimension.
func Open(cfg Config, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid embedding dimension %d", domain.ErrConfiguration, dimension)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
	}
	body := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	// 200 also when the collection already exists with the same schema
	if err := s.do(context.Background(), http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Insert upserts entries as points. Point IDs are the document IDs, payloads
// carry the content, metadata and insertion sequence.
func (s *Store) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension %d does not match collection dimension %d",
				domain.ErrConfiguration, len(e.Vector), s.dimension)
		}
		points[i] = map[string]any{
			"id":     e.Document.ID,
			"vector": e.Vector,
			"payload": map[string]any{
				"seq":             e.Seq,
				"content":         e.Document.Content,
				"condition":       e.Document.Metadata.Condition,
				"sub_diagnosis":   e.Document.Metadata.SubDiagnosis,
				"source":          e.Document.Metadata.Source,
				"reasoning_chain": e.Document.Metadata.ReasoningChain,
			},
		}
	}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
}

// Search runs a k-NN query. Qdrant's cosine score is a similarity, returned
// descending. The server does not guarantee a tie order, so equal scores are
// re-sorted here by insertion sequence to match the local backends.
func (s *Store) Search(ctx context.Context, vector []float64, topK int) ([]domain.ScoredResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be >= 1, got %d", domain.ErrInvalidInput, topK)
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector dimension %d does not match collection dimension %d",
			domain.ErrConfiguration, len(vector), s.dimension)
	}
	req := map[string]any{"vector": vector, "limit": topK, "with_payload": true}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	type hit struct {
		result domain.ScoredResult
		seq    int
	}
	hits := make([]hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		seq := 0
		if v, ok := r.Payload["seq"].(float64); ok {
			seq = int(v)
		}
		hits = append(hits, hit{
			result: domain.ScoredResult{
				Content:  str(r.Payload, "content"),
				Metadata: payloadMetadata(r.Payload),
				Score:    r.Score,
			},
			seq: seq,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].result.Score != hits[j].result.Score {
			return hits[i].result.Score > hits[j].result.Score
		}
		return hits[i].seq < hits[j].seq
	})
	results := make([]domain.ScoredResult, len(hits))
	for i, h := range hits {
		results[i] = h.result
	}
	return results, nil
}

// All scrolls the full collection for export and migration.
func (s *Store) All(ctx context.Context) ([]domain.IndexEntry, error) {
	var entries []domain.IndexEntry
	var offset any
	for {
		req := map[string]any{"limit": 256, "with_payload": true, "with_vector": true}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					ID      any            `json:"id"`
					Vector  []float64      `json:"vector"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			seq := 0
			if v, ok := p.Payload["seq"].(float64); ok {
				seq = int(v)
			}
			entries = append(entries, domain.IndexEntry{
				Seq:    seq,
				Vector: p.Vector,
				Document: domain.Document{
					ID:       fmt.Sprint(p.ID),
					Content:  str(p.Payload, "content"),
					Metadata: payloadMetadata(p.Payload),
				},
			})
		}
		if resp.Result.NextPageOffset == nil {
			return entries, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close is a no-op; the HTTP client holds no per-collection state.
func (s *Store) Close() error { return nil }

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func payloadMetadata(payload map[string]any) domain.Metadata {
	return domain.Metadata{
		Condition:      str(payload, "condition"),
		SubDiagnosis:   str(payload, "sub_diagnosis"),
		Source:         str(payload, "source"),
		ReasoningChain: str(payload, "reasoning_chain"),
	}
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
