// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package corpus

import "math"

// BM25 tuning constants. Standard values recommended by Robertson et al.
const (
	// bm25K1 controls term frequency saturation. Higher = slower saturation.
	// Range [1.2, 2.0] is typical. 1.5 is a robust middle ground.
	bm25K1 = 1.5

	// bm25B controls document length normalization.
	// 0 = no normalization, 1 = full normalization. 0.75 is the standard default.
	bm25B = 0.75
)

// bm25Doc holds the BM25 representation of one curated entry's question.
type bm25Doc struct {
	// idx is the entry's position in the corpus slice.
	idx int

	// tf maps each term to its frequency within the question document.
	// The tokenizer deduplicates, so tf is binary presence; with a corpus
	// of short questions, IDF dominates and binary TF is sufficient.
	tf map[string]int

	// len is the unique-term count of the question.
	len int
}

// bm25Index is an inverted index over the curated questions.
//
// Immutable after construction; safe for concurrent use without additional
// synchronization.
type bm25Index struct {
	docs []bm25Doc

	// idf maps each term to its inverse document frequency score,
	// computed at build time as log((N+1)/(df+1)) + 1 (Lucene-style
	// smoothing: never zero, never a division by zero).
	idf map[string]float64

	// avgLen is the average question length across the corpus.
	avgLen float64
}

// buildBM25Index constructs the index from the corpus questions. An empty
// corpus yields a valid index that scores everything zero.
func buildBM25Index(questions []string) *bm25Index {
	if len(questions) == 0 {
		return &bm25Index{idf: make(map[string]float64)}
	}

	docs := make([]bm25Doc, 0, len(questions))
	totalLen := 0
	df := make(map[string]int)

	for i, q := range questions {
		termSet := ExtractTerms(q)
		tf := make(map[string]int, len(termSet))
		for term := range termSet {
			tf[term] = 1
			df[term]++
		}
		docs = append(docs, bm25Doc{idx: i, tf: tf, len: len(tf)})
		totalLen += len(tf)
	}

	n := len(docs)
	idf := make(map[string]float64, len(df))
	for term, docFreq := range df {
		idf[term] = math.Log(float64(n+1)/float64(docFreq+1)) + 1.0
	}

	return &bm25Index{
		docs:   docs,
		idf:    idf,
		avgLen: float64(totalLen) / float64(n),
	}
}

// score computes per-entry BM25 scores for a query, normalized to [0,1]
// against the query's maximum achievable score: the score of a hypothetical
// average-length document containing every query term. Query terms absent
// from the corpus vocabulary count toward that ceiling at their smoothed
// IDF, so "what is a good area" scoring one shared term against a long
// curated question lands well below 1.0 instead of being rescaled to the
// top. Entries with zero score are omitted.
func (idx *bm25Index) score(query string) map[int]float64 {
	scores := make(map[int]float64)
	if len(idx.docs) == 0 {
		return scores
	}
	queryTerms := ExtractTerms(query)
	if len(queryTerms) == 0 {
		return scores
	}

	ceiling := idx.maxAchievable(queryTerms)
	if ceiling <= 0 {
		return scores
	}
	for _, doc := range idx.docs {
		s := idx.docScore(queryTerms, doc)
		if s <= 0 {
			continue
		}
		s /= ceiling
		// A short exact-match document can edge past the average-length
		// ceiling; clamp so downstream confidence stays in [0,1].
		if s > 1 {
			s = 1
		}
		scores[doc.idx] = s
	}
	return scores
}

// maxAchievable is the BM25 score of an ideal average-length document that
// contains every query term once. At doc length == avgLen the length
// normalization is exactly 1, so each term contributes its IDF. Unknown
// terms use the df=0 smoothed IDF, the highest in the index.
func (idx *bm25Index) maxAchievable(queryTerms map[string]bool) float64 {
	unknownIDF := math.Log(float64(len(idx.docs)+1)) + 1.0
	var sum float64
	for term := range queryTerms {
		if idf, ok := idx.idf[term]; ok {
			sum += idf
		} else {
			sum += unknownIDF
		}
	}
	return sum
}

func (idx *bm25Index) docScore(queryTerms map[string]bool, doc bm25Doc) float64 {
	if doc.len == 0 {
		return 0
	}
	lenNorm := 1 - bm25B + bm25B*float64(doc.len)/idx.avgLen

	var score float64
	for term := range queryTerms {
		tf, ok := doc.tf[term]
		if !ok {
			continue
		}
		idf := idx.idf[term]
		score += idf * (float64(tf) * (bm25K1 + 1)) / (float64(tf) + bm25K1*lenNorm)
	}
	return score
}
