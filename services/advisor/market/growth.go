// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package market

import "github.com/AleutianAI/Harborview/services/advisor/datatypes"

// Growth-potential bounds and base. The index starts at the base and each
// market signal adds a capped bonus; the clamp keeps the result meaningful
// for arbitrary (including zero or negative) inputs.
const (
	growthBase = 100.0
	growthMin  = 50.0
	growthMax  = 200.0

	salesBonusCap = 30.0
	ppsfBonusCap  = 25.0
)

// GrowthPotential computes the per-area growth index from a market record.
//
// Formula, additive from base 100:
//
//	+ min(totalSales / 10, 30)
//	+ min(pricePerSqft / 10, 25)
//	+ max(0, (6 − monthsInventory) × 5)
//	+ max(0, (60 − avgDaysOnMarket) / 2)
//
// clamped to [50, 200]. A nil record yields the neutral base 100.
//
// Pure function: no I/O, no mutation, identical inputs give identical output.
func GrowthPotential(m *datatypes.MarketMetrics) float64 {
	if m == nil {
		return growthBase
	}
	score := growthBase

	sales := float64(m.TotalSales) / 10
	if sales > salesBonusCap {
		sales = salesBonusCap
	}
	score += sales

	ppsf := m.PricePerSqft / 10
	if ppsf > ppsfBonusCap {
		ppsf = ppsfBonusCap
	}
	score += ppsf

	if inv := (6 - m.MonthsInventory) * 5; inv > 0 {
		score += inv
	}
	if dom := (60 - m.AvgDaysOnMarket) / 2; dom > 0 {
		score += dom
	}

	if score < growthMin {
		return growthMin
	}
	if score > growthMax {
		return growthMax
	}
	return score
}
