// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring computes the multi-factor investment assessment of a
// composite area profile.
//
// Every function here is pure: no I/O, no clocks, no mutation of the input
// profile. Identical inputs always yield identical output. Component scores
// live in [0,100]; the weighted total therefore does too.
//
// A component whose underlying domain records are missing stays at its
// neutral base (50) rather than rewarding or penalizing absent data. That is
// what makes the all-nil profile score out at exactly 50.
package scoring

import (
	"fmt"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// Competitive-analysis flag values recognized on MarketMetrics.
const (
	FlagOversupply = "oversupply"
	FlagDecline    = "decline"
)

const componentBase = 50.0

// Median-price bands for the market-dynamics component. Empirical cutoffs
// for the covered metro; tune with care.
const (
	affordableBandMax = 300_000.0
	luxuryBandMin     = 1_000_000.0
)

// ScoreArea computes the investment assessment for a profile.
//
// Inputs:
//
//	profile - The composite profile. Must not be nil; nil domain records on
//	          it are fine and leave their components at the neutral base.
//	weights - Component weights. Callers pass config.Default().Scoring or a
//	          tuned set; weights are assumed to sum to 1.0 (validated at
//	          config load).
//
// Outputs:
//
//	datatypes.Assessment - Total in [0,100], components, recommendations,
//	                       and risk factors. Never nil slices dereferenced.
func ScoreArea(profile *datatypes.CompositeAreaProfile, weights config.ScoringWeights) datatypes.Assessment {
	c := datatypes.ScoreComponents{
		Growth:         growthScore(profile),
		Affordability:  affordabilityScore(profile),
		Infrastructure: infrastructureScore(profile),
		Risk:           riskScore(profile),
		MarketDynamics: marketDynamicsScore(profile),
	}

	total := c.Growth*weights.Growth +
		c.Affordability*weights.Affordability +
		c.Infrastructure*weights.Infrastructure +
		(100-c.Risk)*weights.Risk +
		c.MarketDynamics*weights.MarketDynamics

	return datatypes.Assessment{
		Total:           clamp(total),
		Components:      c,
		Recommendations: recommendations(clamp(total), c),
		RiskFactors:     riskFactors(profile),
	}
}

// growthScore reflects price momentum, construction volume, and sales pace.
func growthScore(p *datatypes.CompositeAreaProfile) float64 {
	score := componentBase

	if m := p.Market; m != nil {
		switch {
		case m.YoYPriceChange > 10:
			score += 20
		case m.YoYPriceChange > 5:
			score += 10
		case m.YoYPriceChange < 0:
			score -= 10
		}
		switch {
		case m.AvgDaysOnMarket > 0 && m.AvgDaysOnMarket < 30:
			score += 15
		case m.AvgDaysOnMarket > 90:
			score -= 10
		}
	}
	if c := p.Construction; c != nil {
		switch {
		case c.NewUnits > 100:
			score += 15
		case c.NewUnits > 50:
			score += 10
		case c.NewUnits < 10:
			score -= 5
		}
	}
	return clamp(score)
}

// affordabilityScore compares price levels with the city average and folds
// in rental return.
func affordabilityScore(p *datatypes.CompositeAreaProfile) float64 {
	score := componentBase

	if m := p.Market; m != nil && m.CityAvgPPSF > 0 {
		ratio := m.PricePerSqft / m.CityAvgPPSF
		switch {
		case ratio < 0.8:
			score += 20
		case ratio < 1.0:
			score += 10
		case ratio > 1.5:
			score -= 20
		case ratio > 1.2:
			score -= 10
		}
	}
	if r := p.Rental; r != nil {
		switch {
		case r.AvgROI > 20:
			score += 20
		case r.AvgROI > 15:
			score += 10
		case r.AvgROI < 10:
			score -= 10
		}
	}
	return clamp(score)
}

// infrastructureScore reflects permit volume, mixed-use development, and
// builder activity.
func infrastructureScore(p *datatypes.CompositeAreaProfile) float64 {
	score := componentBase

	if c := p.Construction; c != nil {
		switch {
		case c.PermitCount > 100:
			score += 20
		case c.PermitCount > 50:
			score += 10
		case c.PermitCount < 10:
			score -= 10
		}
		switch {
		case c.ActiveBuilders > 10:
			score += 15
		case c.ActiveBuilders > 5:
			score += 10
		case c.ActiveBuilders < 3:
			score -= 10
		}
	}
	if d := p.Development; d != nil {
		switch {
		case d.MixedUseCount > 5:
			score += 15
		case d.MixedUseCount > 0:
			score += 10
		}
	}
	return clamp(score)
}

// riskScore accumulates penalties; higher is worse. With no market data it
// stays at the neutral base so missing data is not mistaken for safety.
func riskScore(p *datatypes.CompositeAreaProfile) float64 {
	m := p.Market
	if m == nil {
		return componentBase
	}
	score := 0.0

	if m.MonthsInventory > 6 {
		score += 20
	}
	if m.AvgDaysOnMarket > 90 {
		score += 15
	}
	if m.HasFlag(FlagOversupply) {
		score += 15
	}
	if m.HasFlag(FlagDecline) {
		score += 10
	}
	switch {
	case m.YoYPriceChange < -5:
		score += 20
	case m.YoYPriceChange < 0:
		score += 10
	}
	return clamp(score)
}

// marketDynamicsScore reflects inventory tightness, negotiation leverage,
// and price band.
func marketDynamicsScore(p *datatypes.CompositeAreaProfile) float64 {
	m := p.Market
	if m == nil {
		return componentBase
	}
	score := componentBase

	switch {
	case m.MonthsInventory > 0 && m.MonthsInventory < 3:
		score += 20
	case m.MonthsInventory > 0 && m.MonthsInventory < 4:
		score += 10
	case m.MonthsInventory > 6:
		score -= 15
	}
	switch {
	case m.ListToSaleRatio > 98:
		score += 15
	case m.ListToSaleRatio > 95:
		score += 10
	case m.ListToSaleRatio > 0 && m.ListToSaleRatio < 90:
		score -= 10
	}
	switch {
	case m.MedianPrice > 0 && m.MedianPrice < affordableBandMax:
		score += 15
	case m.MedianPrice > luxuryBandMin:
		score += 10
	}
	return clamp(score)
}

// recommendations renders guidance from the total band and from each
// component individually.
func recommendations(total float64, c datatypes.ScoreComponents) []string {
	var out []string

	switch {
	case total > 80:
		out = append(out, "Strong overall outlook: fundamentals support both owner-occupant purchases and investment entries.")
	case total > 60:
		out = append(out, "Solid outlook with some trade-offs: favor properties with below-area pricing or value-add potential.")
	default:
		out = append(out, "Mixed signals: negotiate aggressively and underwrite conservatively before committing.")
	}

	if c.Growth > 70 {
		out = append(out, "Price and construction momentum are strong; act before appreciation compounds.")
	}
	if c.Affordability > 70 {
		out = append(out, fmt.Sprintf("Pricing sits well below comparable areas (affordability %.0f/100); entry cost risk is low.", c.Affordability))
	}
	if c.Infrastructure > 70 {
		out = append(out, "Permit and development activity is running ahead of demand; infrastructure is a tailwind.")
	}
	if c.MarketDynamics > 70 {
		out = append(out, "Tight inventory and strong list-to-sale ratios favor sellers; expect competitive offers.")
	}
	if c.Risk > 50 {
		out = append(out, "Elevated risk signals; keep contingencies and avoid stretching the budget.")
	}
	return out
}

// riskFactors mirrors the signals that raised riskScore, phrased for humans.
func riskFactors(p *datatypes.CompositeAreaProfile) []string {
	m := p.Market
	if m == nil {
		return nil
	}
	var out []string
	if m.MonthsInventory > 6 {
		out = append(out, fmt.Sprintf("High inventory (%.1f months of supply); buyers hold leverage.", m.MonthsInventory))
	}
	if m.AvgDaysOnMarket > 90 {
		out = append(out, fmt.Sprintf("Slow absorption: average %.0f days on market.", m.AvgDaysOnMarket))
	}
	if m.HasFlag(FlagOversupply) {
		out = append(out, "Competitive analysis flags oversupply in the pipeline.")
	}
	if m.HasFlag(FlagDecline) {
		out = append(out, "Competitive analysis flags declining demand.")
	}
	if m.YoYPriceChange < 0 {
		out = append(out, fmt.Sprintf("Prices are down %.1f%% year over year.", -m.YoYPriceChange))
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
