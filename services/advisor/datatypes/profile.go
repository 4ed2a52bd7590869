// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// =============================================================================
// Domain Metric Records
// =============================================================================
//
// One record type per domain dataset. Every record is independently nullable
// on a CompositeAreaProfile: a missing dataset is represented by a nil
// pointer, never by a zero-valued struct, so downstream scoring can tell
// "no data" apart from "measured zero".

// MarketMetrics is the core resale-market record for an area.
type MarketMetrics struct {
	Area             string   `json:"area"`
	TotalSales       int      `json:"total_sales"`
	MedianPrice      float64  `json:"median_price"`
	PricePerSqft     float64  `json:"price_per_sqft"`
	CityAvgPPSF      float64  `json:"city_avg_ppsf"`
	AvgDaysOnMarket  float64  `json:"avg_days_on_market"`
	MonthsInventory  float64  `json:"months_inventory"`
	YoYPriceChange   float64  `json:"yoy_price_change"`
	ListToSaleRatio  float64  `json:"list_to_sale_ratio"`
	CompetitiveFlags []string `json:"competitive_flags,omitempty"`
}

// HasFlag reports whether a competitive-analysis flag (e.g. "oversupply",
// "decline") is present on the record.
func (m *MarketMetrics) HasFlag(flag string) bool {
	if m == nil {
		return false
	}
	for _, f := range m.CompetitiveFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// RentalMarket covers long-term rental performance for an area.
type RentalMarket struct {
	Area          string  `json:"area"`
	MedianRent    float64 `json:"median_rent"`
	AvgRent       float64 `json:"avg_rent"`
	OccupancyRate float64 `json:"occupancy_rate"`
	YoYRentChange float64 `json:"yoy_rent_change"`
	AvgROI        float64 `json:"avg_roi"`
}

// ShortTermRental covers the STR (nightly rental) market for an area.
type ShortTermRental struct {
	Area           string  `json:"area"`
	ActiveListings int     `json:"active_listings"`
	AvgDailyRate   float64 `json:"avg_daily_rate"`
	OccupancyRate  float64 `json:"occupancy_rate"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
}

// Employer is one major employer near an area.
type Employer struct {
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	Employees int    `json:"employees"`
}

// Employment covers the labor market around an area.
type Employment struct {
	Area             string     `json:"area"`
	MajorEmployers   []Employer `json:"major_employers,omitempty"`
	UnemploymentRate float64    `json:"unemployment_rate"`
	JobGrowthYoY     float64    `json:"job_growth_yoy"`
}

// Demographics covers population and income for an area.
type Demographics struct {
	Area                  string  `json:"area"`
	Population            int     `json:"population"`
	PopulationGrowth      float64 `json:"population_growth"`
	MedianHouseholdIncome float64 `json:"median_household_income"`
	MedianAge             float64 `json:"median_age"`
}

// Construction covers permit activity and build costs for an area.
type Construction struct {
	Area               string  `json:"area"`
	PermitCount        int     `json:"permit_count"`
	NewUnits           int     `json:"new_units"`
	ActiveBuilders     int     `json:"active_builders"`
	AvgCostPerSqft     float64 `json:"avg_cost_per_sqft"`
	AvgUnitPrice       float64 `json:"avg_unit_price"`
	AvgConstructionUSD float64 `json:"avg_construction_usd"`
}

// Development covers announced/active development projects for an area.
type Development struct {
	Area             string  `json:"area"`
	ProjectCount     int     `json:"project_count"`
	MixedUseCount    int     `json:"mixed_use_count"`
	ResidentialCount int     `json:"residential_count"`
	CommercialCount  int     `json:"commercial_count"`
	TotalInvestment  float64 `json:"total_investment"`
}

// =============================================================================
// Composite Area Profile
// =============================================================================

// ScoreComponents are the individual sub-scores behind an investment
// assessment, each within [0, 100]. Risk is the raw risk score where higher
// is worse; the total inverts it.
type ScoreComponents struct {
	Growth         float64 `json:"growth"`
	Affordability  float64 `json:"affordability"`
	Infrastructure float64 `json:"infrastructure"`
	Risk           float64 `json:"risk"`
	MarketDynamics float64 `json:"market_dynamics"`
}

// Assessment is the derived investment view of an area: the weighted total
// score, its components, and human-readable guidance.
type Assessment struct {
	Total           float64         `json:"total"`
	Components      ScoreComponents `json:"components"`
	Recommendations []string        `json:"recommendations,omitempty"`
	RiskFactors     []string        `json:"risk_factors,omitempty"`
}

// CompositeAreaProfile is the merge of all domain records for one area.
//
// Invariant: constructible even when every record is nil; callers must
// always get a profile back, never an error, for any area string.
type CompositeAreaProfile struct {
	Area string `json:"area"`

	Market       *MarketMetrics   `json:"market,omitempty"`
	Rental       *RentalMarket    `json:"rental,omitempty"`
	ShortTerm    *ShortTermRental `json:"short_term,omitempty"`
	Employment   *Employment      `json:"employment,omitempty"`
	Demographics *Demographics    `json:"demographics,omitempty"`
	Construction *Construction    `json:"construction,omitempty"`
	Development  *Development     `json:"development,omitempty"`

	// MissingDomains names the domains whose reads returned no data.
	MissingDomains []string `json:"missing_domains,omitempty"`

	// GrowthPotential is the per-area growth index in [50, 200],
	// computed from Market. 100 when Market is nil.
	GrowthPotential float64 `json:"growth_potential"`

	// Investment is the derived multi-factor assessment.
	Investment *Assessment `json:"investment,omitempty"`
}

// DomainsPresent counts the non-nil domain records on the profile.
func (p *CompositeAreaProfile) DomainsPresent() int {
	n := 0
	for _, present := range []bool{
		p.Market != nil, p.Rental != nil, p.ShortTerm != nil,
		p.Employment != nil, p.Demographics != nil,
		p.Construction != nil, p.Development != nil,
	} {
		if present {
			n++
		}
	}
	return n
}
