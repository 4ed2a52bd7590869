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
	"sort"
	"strings"
)

// areaInsights is the canned per-area response table, keyed by the
// lowercased area name. Unknown areas fall through to a generic prompt.
//
// These are conversational openers, not data answers; the data-backed
// stages own numeric answers. Keep each entry to two or three sentences.
var areaInsights = map[string]string{
	"katy": "Katy is one of the strongest family markets west of the city: lot pricing " +
		"still runs 15-25% under comparable inner-loop neighborhoods, and the school " +
		"quality is the main driver of demand. The trade-off is the commute - plan on " +
		"45 minutes or more to downtown at peak. Want rental numbers or school zones first?",

	"cypress": "Cypress pairs newer construction with some of the best price-per-square-foot " +
		"value in the northwest corridor. Builder activity is heavy, so resale competes " +
		"with new inventory. Are you thinking resale or new build?",

	"sugar land": "Sugar Land is a mature, master-planned market: stable prices, strong schools, " +
		"and limited new supply, which keeps resale values firm. Entry pricing is higher " +
		"than the outer suburbs. Is this a primary-home or investment question?",

	"the woodlands": "The Woodlands trades at a premium for its employers, amenities, and tree " +
		"cover - appreciation has been steady rather than explosive. North-side job " +
		"growth supports demand. What price range are you exploring there?",

	"pearland": "Pearland gives you medical-center access at suburb pricing, and the east side " +
		"still has genuinely affordable stock. Drainage history varies block to block, " +
		"so inspection matters. Buying to live or to rent out?",

	"spring": "Spring is a value-and-yield market: entry prices are low enough that rental " +
		"returns regularly clear 8%, but appreciate slower than the planned communities. " +
		"Good fit for cash-flow investors. Want the rental numbers?",

	"richmond": "Richmond is where the new-construction wave is right now - permits and new " +
		"communities keep coming, which holds prices down but also caps short-term " +
		"appreciation. Strong pick if you want maximum house for the money.",

	"conroe": "Conroe is the budget play on the north side: lake access, active builders, and " +
		"some of the lowest lot costs in the metro. It's further out, and resale demand " +
		"is thinner. How far north are you willing to go?",

	"tomball": "Tomball keeps a small-town core with new development around the edges. Land " +
		"parcels big enough to build on still come up regularly, which is rare this " +
		"close in. Are you looking at existing homes or land?",

	"heights": "The Heights is an inner-loop premium market - walkability and character drive " +
		"prices well above the city average, and lots trade at teardown value. Budget " +
		"sensitivity matters a lot here. What range are you working with?",
}

// KnownAreas returns the lowercased names of every area the assistant has
// local knowledge of, sorted for deterministic scanning.
func KnownAreas() []string {
	names := make([]string, 0, len(areaInsights))
	for name := range areaInsights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupAreaInsight returns the canned insight for an area, matching on the
// normalized name and tolerating a leading "the".
func lookupAreaInsight(area string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(area))
	if insight, ok := areaInsights[key]; ok {
		return insight, true
	}
	if trimmed := strings.TrimPrefix(key, "the "); trimmed != key {
		if insight, ok := areaInsights[trimmed]; ok {
			return insight, true
		}
	}
	return "", false
}
