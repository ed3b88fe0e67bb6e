package domain

// Metadata carries the clinical provenance of a note. ReasoningChain is the
// " || "-joined list of diagnosis keys encountered while harvesting the note.
type Metadata struct {
	Condition      string `json:"condition"`
	SubDiagnosis   string `json:"sub_diagnosis"`
	Source         string `json:"source"`
	ReasoningChain string `json:"reasoning_chain"`
}

// Document is a single clinical note prepared for indexing. Content is the
// cleaned note text; documents are immutable once inserted.
type Document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// IndexEntry is a stored (embedding, document) pair. Seq is the insertion
// sequence within its collection and breaks score ties (first-inserted first).
type IndexEntry struct {
	Seq      int       `json:"seq"`
	Vector   []float64 `json:"vector"`
	Document Document  `json:"document"`
}

// ScoredResult is one retrieval hit. Score follows the store's similarity
// convention: higher is better, and it is only comparable to other scores
// from the same query.
type ScoredResult struct {
	Content  string
	Metadata Metadata
	Score    float64
}

// Metrics holds the two-sided evaluation of a generated answer.
// Relevance compares the answer against the query, Faithfulness compares it
// against the retrieved context. Both are cosine similarities in [-1, 1];
// values are unrounded, display layers round to 4 digits.
type Metrics struct {
	Relevance    float64
	Faithfulness float64
}
