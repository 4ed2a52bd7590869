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

import "strings"

// noiseWords are dropped during tokenization: they carry no signal for
// matching a question against the curated corpus.
var noiseWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"had": true, "i": true, "me": true, "my": true, "we": true,
	"you": true, "your": true, "it": true, "its": true, "of": true,
	"in": true, "on": true, "to": true, "for": true, "with": true,
	"at": true, "by": true, "from": true, "and": true, "or": true,
	"what": true, "whats": true, "how": true, "can": true, "should": true,
	"would": true, "could": true, "about": true, "tell": true, "please": true,
}

// ExtractTerms tokenizes free text into a deduplicated term set: lowercase,
// split on any non-alphanumeric rune, noise words removed. The set form
// (term → true) matches how the BM25 index consumes it.
func ExtractTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		term := b.String()
		b.Reset()
		if len(term) < 2 || noiseWords[term] {
			return
		}
		terms[term] = true
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return terms
}
