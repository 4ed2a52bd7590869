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

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestDataStore(t *testing.T) *DataStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.db")
	s, err := NewDataStore(path, nil)
	if err != nil {
		t.Fatalf("NewDataStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return s
}

func seed(t *testing.T, s *DataStore, stmt string, args ...any) {
	t.Helper()
	if _, err := s.db.ExecContext(context.Background(), stmt, args...); err != nil {
		t.Fatalf("seeding: %v", err)
	}
}

func TestDataStore_MissingRowsAreNilNotError(t *testing.T) {
	s := newTestDataStore(t)
	ctx := context.Background()

	m, err := s.MarketMetrics(ctx, "katy")
	if err != nil {
		t.Fatalf("MarketMetrics() error = %v", err)
	}
	if m != nil {
		t.Errorf("empty table returned a record: %+v", m)
	}

	r, err := s.RentalMarket(ctx, "katy")
	if err != nil || r != nil {
		t.Errorf("RentalMarket() = (%+v, %v), want (nil, nil)", r, err)
	}
}

func TestDataStore_MarketMetricsRoundTrip(t *testing.T) {
	s := newTestDataStore(t)
	ctx := context.Background()

	seed(t, s, `INSERT INTO market_metrics
		(area, total_sales, median_price, price_per_sqft, city_avg_ppsf,
		 avg_days_on_market, months_inventory, yoy_price_change,
		 list_to_sale_ratio, competitive_flags)
		VALUES ('katy', 412, 385000, 158, 172, 34, 2.8, 6.2, 97.4, 'oversupply,price_cuts')`)

	m, err := s.MarketMetrics(ctx, "  KATY ")
	if err != nil {
		t.Fatalf("MarketMetrics() error = %v", err)
	}
	if m == nil {
		t.Fatal("record not found after normalization")
	}
	if m.MedianPrice != 385000 || m.TotalSales != 412 {
		t.Errorf("record = %+v", m)
	}
	if len(m.CompetitiveFlags) != 2 || m.CompetitiveFlags[0] != "oversupply" {
		t.Errorf("CompetitiveFlags = %v", m.CompetitiveFlags)
	}
}

func TestDataStore_EmptyFlagsStayNil(t *testing.T) {
	s := newTestDataStore(t)

	seed(t, s, `INSERT INTO market_metrics (area, median_price) VALUES ('spring', 268000)`)

	m, err := s.MarketMetrics(context.Background(), "spring")
	if err != nil {
		t.Fatalf("MarketMetrics() error = %v", err)
	}
	if m.CompetitiveFlags != nil {
		t.Errorf("empty flags column produced %v", m.CompetitiveFlags)
	}
}

func TestDataStore_EmploymentJoinsEmployers(t *testing.T) {
	s := newTestDataStore(t)
	ctx := context.Background()

	seed(t, s, `INSERT INTO employment (area, unemployment_rate, job_growth_yoy)
		VALUES ('katy', 3.7, 2.8)`)
	seed(t, s, `INSERT INTO employers (area, name, sector, employees) VALUES
		('katy', 'Katy ISD', 'education', 12400),
		('katy', 'Igloo Products', 'manufacturing', 1200),
		('katy', 'Memorial Hermann Katy', 'healthcare', 2100)`)

	e, err := s.Employment(ctx, "katy")
	if err != nil {
		t.Fatalf("Employment() error = %v", err)
	}
	if e == nil || e.UnemploymentRate != 3.7 {
		t.Fatalf("record = %+v", e)
	}
	if len(e.MajorEmployers) != 3 {
		t.Fatalf("employers = %d, want 3", len(e.MajorEmployers))
	}
	// Ordered by headcount descending.
	if e.MajorEmployers[0].Name != "Katy ISD" || e.MajorEmployers[2].Name != "Igloo Products" {
		t.Errorf("employer order = %v", e.MajorEmployers)
	}
}

func TestDataStore_EmploymentWithoutEmployers(t *testing.T) {
	s := newTestDataStore(t)

	seed(t, s, `INSERT INTO employment (area, unemployment_rate, job_growth_yoy)
		VALUES ('conroe', 4.6, 1.2)`)

	e, err := s.Employment(context.Background(), "conroe")
	if err != nil {
		t.Fatalf("Employment() error = %v", err)
	}
	if e == nil || len(e.MajorEmployers) != 0 {
		t.Errorf("record = %+v", e)
	}
}

// The aggregator composes a DataStore the same way it composes a
// StaticSource: missing tables become missing domains, not failures.
func TestDataStore_ThroughAggregator(t *testing.T) {
	s := newTestDataStore(t)

	seed(t, s, `INSERT INTO market_metrics (area, median_price, price_per_sqft, city_avg_ppsf,
		avg_days_on_market, months_inventory, yoy_price_change)
		VALUES ('katy', 385000, 158, 172, 34, 2.8, 6.2)`)
	seed(t, s, `INSERT INTO rental_market (area, median_rent, occupancy_rate, avg_roi)
		VALUES ('katy', 2150, 94.2, 12.4)`)

	agg := newTestAggregator(s)
	profile := agg.GetAreaProfile(context.Background(), "katy")

	if profile.Market == nil || profile.Rental == nil {
		t.Fatalf("seeded domains missing: %+v", profile)
	}
	if got := profile.DomainsPresent(); got != 2 {
		t.Errorf("DomainsPresent() = %d, want 2", got)
	}
	if len(profile.MissingDomains) != len(AllDomains)-2 {
		t.Errorf("MissingDomains = %v", profile.MissingDomains)
	}
	if profile.Investment == nil {
		t.Errorf("investment assessment missing")
	}
}
