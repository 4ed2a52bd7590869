// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package corpus matches incoming queries against the static curated
// question/answer corpus.
//
// The similarity method is lexical BM25 over the curated questions. At this
// corpus size (dozens of entries) an embedded inverted index answers in
// microseconds with no network dependency; approximate-nearest-neighbor
// vector search earns its complexity only at orders of magnitude more
// documents. A match's confidence is its normalized BM25 score scaled by
// the entry's curated confidence, so a weak lexical match against a
// high-confidence entry still ranks below a strong match.
package corpus

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// SourceName identifies the corpus in AnswerCandidate.Sources.
const SourceName = "curated-corpus"

//go:embed corpus.yaml
var defaultCorpusYAML []byte

// Match is one ranked curated result.
type Match struct {
	Entry      datatypes.CuratedEntry
	Confidence float64
}

// Matcher searches the curated corpus.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Matcher struct {
	entries []datatypes.CuratedEntry
	index   *bm25Index
	logger  *slog.Logger
}

// NewMatcher builds a Matcher over the given entries.
func NewMatcher(entries []datatypes.CuratedEntry, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	questions := make([]string, len(entries))
	for i, e := range entries {
		questions[i] = e.Question
	}
	return &Matcher{
		entries: entries,
		index:   buildBM25Index(questions),
		logger:  logger,
	}
}

// NewDefaultMatcher builds a Matcher over the embedded corpus.
func NewDefaultMatcher(logger *slog.Logger) (*Matcher, error) {
	entries, err := ParseCorpus(defaultCorpusYAML)
	if err != nil {
		return nil, err
	}
	return NewMatcher(entries, logger), nil
}

// ParseCorpus decodes a YAML corpus document. Entries without a curated
// confidence default to 0.8.
func ParseCorpus(raw []byte) ([]datatypes.CuratedEntry, error) {
	var doc struct {
		Entries []datatypes.CuratedEntry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("corpus: parsing YAML: %w", err)
	}
	for i := range doc.Entries {
		if doc.Entries[i].Confidence <= 0 {
			doc.Entries[i].Confidence = 0.8
		}
	}
	return doc.Entries, nil
}

// Search returns up to topK matches ordered by descending confidence.
//
// Never fails: an empty or unmatchable query returns an empty slice, which
// the resolver treats the same as a search backend being unavailable.
func (m *Matcher) Search(query string, topK int) []Match {
	if topK <= 0 {
		topK = 3
	}
	scores := m.index.score(query)
	if len(scores) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(scores))
	for idx, s := range scores {
		entry := m.entries[idx]
		matches = append(matches, Match{
			Entry:      entry,
			Confidence: s * entry.Confidence,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		// Stable order for equal confidence: corpus position.
		return matches[i].Entry.Question < matches[j].Entry.Question
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Len reports the number of corpus entries. Used by the readiness handler.
func (m *Matcher) Len() int {
	return len(m.entries)
}
