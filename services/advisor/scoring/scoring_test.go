// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"math"
	"reflect"
	"testing"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

func weights() config.ScoringWeights {
	return config.Default().Scoring
}

// =============================================================================
// Baseline Tests
// =============================================================================

func TestScoreArea_AllNilRecordsScoresBaseline50(t *testing.T) {
	profile := &datatypes.CompositeAreaProfile{Area: "nowhere"}
	a := ScoreArea(profile, weights())

	if a.Total != 50 {
		t.Errorf("all-nil total = %v, want exactly 50", a.Total)
	}
	c := a.Components
	for name, v := range map[string]float64{
		"growth":          c.Growth,
		"affordability":   c.Affordability,
		"infrastructure":  c.Infrastructure,
		"risk":            c.Risk,
		"market_dynamics": c.MarketDynamics,
	} {
		if v != 50 {
			t.Errorf("all-nil %s component = %v, want 50", name, v)
		}
	}
	if len(a.RiskFactors) != 0 {
		t.Errorf("all-nil profile produced risk factors: %v", a.RiskFactors)
	}
}

func TestScoreArea_Pure(t *testing.T) {
	profile := &datatypes.CompositeAreaProfile{
		Area: "katy",
		Market: &datatypes.MarketMetrics{
			PricePerSqft: 158, CityAvgPPSF: 172, AvgDaysOnMarket: 34,
			MonthsInventory: 2.8, YoYPriceChange: 6.2, ListToSaleRatio: 97.4,
			MedianPrice: 385_000,
		},
		Rental:       &datatypes.RentalMarket{AvgROI: 12.4},
		Construction: &datatypes.Construction{PermitCount: 134, NewUnits: 210, ActiveBuilders: 14},
	}

	first := ScoreArea(profile, weights())
	second := ScoreArea(profile, weights())
	if !reflect.DeepEqual(first, second) {
		t.Error("ScoreArea is not idempotent for identical input")
	}
}

func TestScoreArea_DoesNotMutateProfile(t *testing.T) {
	m := datatypes.MarketMetrics{YoYPriceChange: 12, MonthsInventory: 2}
	profile := &datatypes.CompositeAreaProfile{Area: "x", Market: &m}
	before := m

	ScoreArea(profile, weights())
	if !reflect.DeepEqual(m, before) {
		t.Error("ScoreArea mutated the input profile")
	}
}

// =============================================================================
// Component Tests
// =============================================================================

func TestGrowthScore_Bands(t *testing.T) {
	cases := []struct {
		name    string
		profile datatypes.CompositeAreaProfile
		want    float64
	}{
		{
			name: "hot market",
			profile: datatypes.CompositeAreaProfile{
				Market:       &datatypes.MarketMetrics{YoYPriceChange: 12, AvgDaysOnMarket: 25},
				Construction: &datatypes.Construction{NewUnits: 150},
			},
			// 50 + 20 (YoY>10) + 15 (DOM<30) + 15 (units>100)
			want: 100,
		},
		{
			name: "declining market",
			profile: datatypes.CompositeAreaProfile{
				Market:       &datatypes.MarketMetrics{YoYPriceChange: -2, AvgDaysOnMarket: 120},
				Construction: &datatypes.Construction{NewUnits: 4},
			},
			// 50 - 10 (YoY<0) - 10 (DOM>90) - 5 (units<10)
			want: 25,
		},
		{
			name: "moderate",
			profile: datatypes.CompositeAreaProfile{
				Market:       &datatypes.MarketMetrics{YoYPriceChange: 6.2, AvgDaysOnMarket: 34},
				Construction: &datatypes.Construction{NewUnits: 60},
			},
			// 50 + 10 (YoY>5) + 10 (units>50)
			want: 70,
		},
	}
	for _, tc := range cases {
		if got := growthScore(&tc.profile); got != tc.want {
			t.Errorf("%s: growth = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAffordabilityScore_RatioBands(t *testing.T) {
	mk := func(ppsf float64) *datatypes.CompositeAreaProfile {
		return &datatypes.CompositeAreaProfile{
			Market: &datatypes.MarketMetrics{PricePerSqft: ppsf, CityAvgPPSF: 100},
		}
	}
	cases := []struct {
		ppsf float64
		want float64
	}{
		{70, 70},  // ratio 0.7 < 0.8: +20
		{90, 60},  // ratio 0.9 < 1.0: +10
		{110, 50}, // neutral band
		{130, 40}, // ratio 1.3 > 1.2: -10
		{160, 30}, // ratio 1.6 > 1.5: -20
	}
	for _, tc := range cases {
		if got := affordabilityScore(mk(tc.ppsf)); got != tc.want {
			t.Errorf("ppsf %v: affordability = %v, want %v", tc.ppsf, got, tc.want)
		}
	}
}

func TestRiskScore_AccumulatesAndClamps(t *testing.T) {
	profile := &datatypes.CompositeAreaProfile{
		Market: &datatypes.MarketMetrics{
			MonthsInventory:  8,
			AvgDaysOnMarket:  120,
			YoYPriceChange:   -7,
			CompetitiveFlags: []string{FlagOversupply, FlagDecline},
		},
	}
	// 20 (inventory) + 15 (DOM) + 15 (oversupply) + 10 (decline) + 20 (YoY<-5)
	if got := riskScore(profile); got != 80 {
		t.Errorf("risk = %v, want 80", got)
	}
}

func TestRiskScore_NilMarketStaysNeutral(t *testing.T) {
	if got := riskScore(&datatypes.CompositeAreaProfile{}); got != 50 {
		t.Errorf("risk with nil market = %v, want neutral 50", got)
	}
}

func TestMarketDynamicsScore_AffordableBand(t *testing.T) {
	profile := &datatypes.CompositeAreaProfile{
		Market: &datatypes.MarketMetrics{
			MonthsInventory: 2.5, ListToSaleRatio: 98.5, MedianPrice: 250_000,
		},
	}
	// 50 + 20 (inventory<3) + 15 (ratio>98) + 15 (affordable band)
	if got := marketDynamicsScore(profile); got != 100 {
		t.Errorf("market dynamics = %v, want 100", got)
	}
}

// =============================================================================
// Range Property Tests
// =============================================================================

func TestScoreArea_TotalAlwaysInRange(t *testing.T) {
	extremes := []*datatypes.CompositeAreaProfile{
		{},
		{Market: &datatypes.MarketMetrics{
			YoYPriceChange: 500, AvgDaysOnMarket: 1, MonthsInventory: 0.1,
			ListToSaleRatio: 110, MedianPrice: 100_000, PricePerSqft: 10, CityAvgPPSF: 1000,
		}},
		{Market: &datatypes.MarketMetrics{
			YoYPriceChange: -80, AvgDaysOnMarket: 400, MonthsInventory: 24,
			ListToSaleRatio: 40, PricePerSqft: 900, CityAvgPPSF: 100,
			CompetitiveFlags: []string{FlagOversupply, FlagDecline},
		}},
		{Market: &datatypes.MarketMetrics{
			YoYPriceChange: math.Inf(1),
		}},
	}
	for i, p := range extremes {
		a := ScoreArea(p, weights())
		if a.Total < 0 || a.Total > 100 {
			t.Errorf("profile %d: total = %v outside [0,100]", i, a.Total)
		}
		for _, v := range []float64{
			a.Components.Growth, a.Components.Affordability,
			a.Components.Infrastructure, a.Components.Risk,
			a.Components.MarketDynamics,
		} {
			if v < 0 || v > 100 {
				t.Errorf("profile %d: component %v outside [0,100]", i, v)
			}
		}
	}
}

// =============================================================================
// Recommendation / Risk-Factor Tests
// =============================================================================

func TestRecommendations_BandText(t *testing.T) {
	low := recommendations(40, datatypes.ScoreComponents{})
	if len(low) == 0 || low[0][:5] != "Mixed" {
		t.Errorf("expected the conservative band for total 40, got %v", low)
	}
	mid := recommendations(65, datatypes.ScoreComponents{})
	if len(mid) == 0 || mid[0][:5] != "Solid" {
		t.Errorf("expected the middle band for total 65, got %v", mid)
	}
	high := recommendations(85, datatypes.ScoreComponents{})
	if len(high) == 0 || high[0][:6] != "Strong" {
		t.Errorf("expected the strong band for total 85, got %v", high)
	}
}

func TestRiskFactors_MirrorRiskSignals(t *testing.T) {
	profile := &datatypes.CompositeAreaProfile{
		Market: &datatypes.MarketMetrics{
			MonthsInventory:  8,
			YoYPriceChange:   -3,
			CompetitiveFlags: []string{FlagOversupply},
		},
	}
	factors := riskFactors(profile)
	if len(factors) != 3 {
		t.Fatalf("expected 3 risk factors, got %d: %v", len(factors), factors)
	}
}
