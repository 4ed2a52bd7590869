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

import (
	"regexp"
	"strconv"
	"strings"
)

// budgetRe finds a monetary mention: either a $-prefixed amount, or a bare
// amount with a k/m suffix. A bare number without either marker is NOT a
// budget: "tell me about 1960" must not set the slot.
var budgetRe = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*([km])?|\b(\d[\d,]*(?:\.\d+)?)\s*([km])\b`)

// ParseBudget extracts the first monetary mention from normalized text.
//
// Outputs:
//
//	float64 - The amount in whole currency units ("$150k" → 150000).
//	bool    - False when no parsable mention exists. An unparsable
//	          candidate leaves the slot untouched, no error surfaces.
func ParseBudget(text string) (float64, bool) {
	m := budgetRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	digits, suffix := m[1], m[2]
	if digits == "" {
		digits, suffix = m[3], m[4]
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	switch suffix {
	case "k":
		amount *= 1_000
	case "m":
		amount *= 1_000_000
	}
	return amount, true
}

// FormatUSD renders a whole-dollar amount with comma separators: 150000 →
// "$150,000".
func FormatUSD(amount float64) string {
	n := int64(amount)
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
