// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dialogue

import "strings"

// typoFixes maps common misspellings seen in chat input to their intended
// form. Applied to the text the rules match against only; the stored turn
// keeps the user's original wording.
var typoFixes = map[string]string{
	"i sm":     "i am",
	"i'm":      "i am",
	"teh":      "the",
	"abuot":    "about",
	"aobut":    "about",
	"waht":     "what",
	"hwo":      "how",
	"hosue":    "house",
	"buidl":    "build",
	"bulid":    "build",
	"porperty": "property",
}

// normalize lowercases, trims, collapses whitespace, and applies typo fixes
// for rule matching. Fixes are word-bounded so "whitehall" is not mangled by
// the "teh" fix.
func normalize(text string) string {
	out := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
	padded := " " + out + " "
	for typo, fixed := range typoFixes {
		padded = strings.ReplaceAll(padded, " "+typo+" ", " "+fixed+" ")
	}
	return strings.TrimSpace(padded)
}

// stripFiller removes surrounding punctuation from a bare utterance so
// "Yes!" and "yes." both read as "yes".
func stripFiller(text string) string {
	return strings.Trim(text, " \t.!?,;:")
}
