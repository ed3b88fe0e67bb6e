// Package ingest loads a corpus of diagnostic-reasoning notes from disk.
//
// The corpus is a directory tree of JSON files laid out as
// <base>/<Condition>/<SubDiagnosis>/<note>.json (the sub-diagnosis level is
// optional). Each file nests free text under keys prefixed "input"
// (input1, Input6, ...) at arbitrary depth; every other key is a diagnosis
// or reasoning step and becomes part of the note's reasoning chain.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/preprocess"
)

// ReasoningChainSeparator joins the reasoning keys of one note; chosen to
// never collide with key text.
const ReasoningChainSeparator = " || "

// Object is a JSON object with its key order preserved. encoding/json's map
// decoding would lose the order, and fragment order matters: the note text
// is reassembled in document order.
type Object []Member

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// ParseTree decodes JSON into nested Object / []any / scalar values,
// preserving object key order.
func ParseTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		var obj Object
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return obj, nil
	case '[':
		var arr []any
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

// ExtractFragments walks a parsed tree and returns, in document order, the
// string values held under "input"-prefixed keys plus the non-input keys
// met along the way.
func ExtractFragments(node any) (texts []string, tags []string) {
	switch v := node.(type) {
	case Object:
		for _, m := range v {
			if strings.HasPrefix(strings.ToLower(m.Key), "input") {
				if s, ok := m.Value.(string); ok {
					texts = append(texts, s)
					continue
				}
				t, g := ExtractFragments(m.Value)
				texts = append(texts, t...)
				tags = append(tags, g...)
				continue
			}
			tags = append(tags, m.Key)
			t, g := ExtractFragments(m.Value)
			texts = append(texts, t...)
			tags = append(tags, g...)
		}
	case []any:
		for _, item := range v {
			t, g := ExtractFragments(item)
			texts = append(texts, t...)
			tags = append(tags, g...)
		}
	}
	return texts, tags
}

// LoadClinicalNotes walks basePath and parses every .json note into a
// Document with cleaned content and path-derived metadata. Unparseable
// files are logged and skipped so one bad export does not abort a bulk
// ingest; a missing basePath is an error.
func LoadClinicalNotes(basePath string, logger *zap.Logger) ([]domain.Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("%w: corpus path %s: %v", domain.ErrConfiguration, basePath, err)
	}

	var documents []domain.Document
	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		doc, perr := parseNote(basePath, path)
		if perr != nil {
			logger.Warn("skipping note", zap.String("path", path), zap.Error(perr))
			return nil
		}
		documents = append(documents, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("loaded clinical notes", zap.String("path", basePath), zap.Int("count", len(documents)))
	return documents, nil
}

func parseNote(basePath, path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	tree, err := ParseTree(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse json: %w", err)
	}
	texts, tags := ExtractFragments(tree)
	content := preprocess.CleanText(strings.Join(texts, "\n"))
	if content == "" {
		return domain.Document{}, fmt.Errorf("no input text found")
	}

	condition, subDiagnosis := classifyPath(basePath, path)
	return domain.Document{
		ID:      uuid.NewString(),
		Content: content,
		Metadata: domain.Metadata{
			Condition:      condition,
			SubDiagnosis:   subDiagnosis,
			Source:         filepath.Base(path),
			ReasoningChain: strings.Join(tags, ReasoningChainSeparator),
		},
	}, nil
}

// classifyPath derives condition and sub-diagnosis from the note's location
// relative to the corpus root: base/Condition/SubDiagnosis/note.json or
// base/Condition/note.json.
func classifyPath(basePath, path string) (condition, subDiagnosis string) {
	rel, err := filepath.Rel(basePath, filepath.Dir(path))
	if err != nil || rel == "." {
		return "Unknown", "None"
	}
	parts := strings.Split(rel, string(filepath.Separator))
	condition = parts[0]
	subDiagnosis = "None"
	if len(parts) > 1 {
		subDiagnosis = parts[1]
	}
	return condition, subDiagnosis
}
