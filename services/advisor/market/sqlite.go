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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DataStore implements Source over a SQLite database populated by the
// external import jobs. The advisor only reads; refresh and import are out
// of scope and owned by the batch tooling.
//
// Thread Safety: Safe for concurrent use; database/sql pools connections.
type DataStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDataStore opens the domain database at path.
//
// Inputs:
//
//	path   - SQLite file path. ":memory:" is accepted for tests.
//	logger - May be nil.
//
// Outputs:
//
//	*DataStore - The opened store.
//	error      - Non-nil if the database cannot be opened or pinged.
func NewDataStore(path string, logger *slog.Logger) (*DataStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("market: opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("market: pinging %s: %w", path, err)
	}
	return &DataStore{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *DataStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the domain tables when absent. The import tooling
// calls this before a first load; tests use it to build fixtures.
func (s *DataStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("market: creating schema: %w", err)
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS market_metrics (
	area TEXT PRIMARY KEY,
	total_sales INTEGER NOT NULL DEFAULT 0,
	median_price REAL NOT NULL DEFAULT 0,
	price_per_sqft REAL NOT NULL DEFAULT 0,
	city_avg_ppsf REAL NOT NULL DEFAULT 0,
	avg_days_on_market REAL NOT NULL DEFAULT 0,
	months_inventory REAL NOT NULL DEFAULT 0,
	yoy_price_change REAL NOT NULL DEFAULT 0,
	list_to_sale_ratio REAL NOT NULL DEFAULT 0,
	competitive_flags TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS rental_market (
	area TEXT PRIMARY KEY,
	median_rent REAL NOT NULL DEFAULT 0,
	avg_rent REAL NOT NULL DEFAULT 0,
	occupancy_rate REAL NOT NULL DEFAULT 0,
	yoy_rent_change REAL NOT NULL DEFAULT 0,
	avg_roi REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS short_term_rental (
	area TEXT PRIMARY KEY,
	active_listings INTEGER NOT NULL DEFAULT 0,
	avg_daily_rate REAL NOT NULL DEFAULT 0,
	occupancy_rate REAL NOT NULL DEFAULT 0,
	monthly_revenue REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS employment (
	area TEXT PRIMARY KEY,
	unemployment_rate REAL NOT NULL DEFAULT 0,
	job_growth_yoy REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS employers (
	area TEXT NOT NULL,
	name TEXT NOT NULL,
	sector TEXT NOT NULL DEFAULT '',
	employees INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (area, name)
);
CREATE TABLE IF NOT EXISTS demographics (
	area TEXT PRIMARY KEY,
	population INTEGER NOT NULL DEFAULT 0,
	population_growth REAL NOT NULL DEFAULT 0,
	median_household_income REAL NOT NULL DEFAULT 0,
	median_age REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS construction (
	area TEXT PRIMARY KEY,
	permit_count INTEGER NOT NULL DEFAULT 0,
	new_units INTEGER NOT NULL DEFAULT 0,
	active_builders INTEGER NOT NULL DEFAULT 0,
	avg_cost_per_sqft REAL NOT NULL DEFAULT 0,
	avg_unit_price REAL NOT NULL DEFAULT 0,
	avg_construction_usd REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS development (
	area TEXT PRIMARY KEY,
	project_count INTEGER NOT NULL DEFAULT 0,
	mixed_use_count INTEGER NOT NULL DEFAULT 0,
	residential_count INTEGER NOT NULL DEFAULT 0,
	commercial_count INTEGER NOT NULL DEFAULT 0,
	total_investment REAL NOT NULL DEFAULT 0
);
`

// MarketMetrics implements Source.
func (s *DataStore) MarketMetrics(ctx context.Context, area string) (*datatypes.MarketMetrics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area, total_sales, median_price, price_per_sqft, city_avg_ppsf,
		       avg_days_on_market, months_inventory, yoy_price_change,
		       list_to_sale_ratio, competitive_flags
		FROM market_metrics WHERE area = ?`, NormalizeArea(area))

	var m datatypes.MarketMetrics
	var flags string
	err := row.Scan(&m.Area, &m.TotalSales, &m.MedianPrice, &m.PricePerSqft,
		&m.CityAvgPPSF, &m.AvgDaysOnMarket, &m.MonthsInventory,
		&m.YoYPriceChange, &m.ListToSaleRatio, &flags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying market_metrics: %w", err)
	}
	if flags != "" {
		m.CompetitiveFlags = strings.Split(flags, ",")
	}
	return &m, nil
}

// RentalMarket implements Source.
func (s *DataStore) RentalMarket(ctx context.Context, area string) (*datatypes.RentalMarket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area, median_rent, avg_rent, occupancy_rate, yoy_rent_change, avg_roi
		FROM rental_market WHERE area = ?`, NormalizeArea(area))

	var r datatypes.RentalMarket
	err := row.Scan(&r.Area, &r.MedianRent, &r.AvgRent, &r.OccupancyRate,
		&r.YoYRentChange, &r.AvgROI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying rental_market: %w", err)
	}
	return &r, nil
}

// ShortTermRental implements Source.
func (s *DataStore) ShortTermRental(ctx context.Context, area string) (*datatypes.ShortTermRental, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area, active_listings, avg_daily_rate, occupancy_rate, monthly_revenue
		FROM short_term_rental WHERE area = ?`, NormalizeArea(area))

	var r datatypes.ShortTermRental
	err := row.Scan(&r.Area, &r.ActiveListings, &r.AvgDailyRate, &r.OccupancyRate,
		&r.MonthlyRevenue)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying short_term_rental: %w", err)
	}
	return &r, nil
}

// Employment implements Source. The employer list is a second query; a
// failure there degrades to an employment record without employers rather
// than dropping the whole domain.
func (s *DataStore) Employment(ctx context.Context, area string) (*datatypes.Employment, error) {
	norm := NormalizeArea(area)
	row := s.db.QueryRowContext(ctx, `
		SELECT area, unemployment_rate, job_growth_yoy
		FROM employment WHERE area = ?`, norm)

	var e datatypes.Employment
	err := row.Scan(&e.Area, &e.UnemploymentRate, &e.JobGrowthYoY)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying employment: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sector, employees FROM employers
		WHERE area = ? ORDER BY employees DESC`, norm)
	if err != nil {
		s.logger.Warn("employer list query failed, returning employment without employers",
			slog.String("area", norm),
			slog.String("error", err.Error()),
		)
		return &e, nil
	}
	defer rows.Close()
	for rows.Next() {
		var emp datatypes.Employer
		if err := rows.Scan(&emp.Name, &emp.Sector, &emp.Employees); err != nil {
			return nil, fmt.Errorf("market: scanning employer: %w", err)
		}
		e.MajorEmployers = append(e.MajorEmployers, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("market: iterating employers: %w", err)
	}
	return &e, nil
}

// Demographics implements Source.
func (s *DataStore) Demographics(ctx context.Context, area string) (*datatypes.Demographics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area, population, population_growth, median_household_income, median_age
		FROM demographics WHERE area = ?`, NormalizeArea(area))

	var d datatypes.Demographics
	err := row.Scan(&d.Area, &d.Population, &d.PopulationGrowth,
		&d.MedianHouseholdIncome, &d.MedianAge)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying demographics: %w", err)
	}
	return &d, nil
}

// Construction implements Source.
func (s *DataStore) Construction(ctx context.Context, area string) (*datatypes.Construction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area, permit_count, new_units, active_builders,
		       avg_cost_per_sqft, avg_unit_price, avg_construction_usd
		FROM construction WHERE area = ?`, NormalizeArea(area))

	var c datatypes.Construction
	err := row.Scan(&c.Area, &c.PermitCount, &c.NewUnits, &c.ActiveBuilders,
		&c.AvgCostPerSqft, &c.AvgUnitPrice, &c.AvgConstructionUSD)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying construction: %w", err)
	}
	return &c, nil
}

// Development implements Source.
func (s *DataStore) Development(ctx context.Context, area string) (*datatypes.Development, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area, project_count, mixed_use_count, residential_count,
		       commercial_count, total_investment
		FROM development WHERE area = ?`, NormalizeArea(area))

	var d datatypes.Development
	err := row.Scan(&d.Area, &d.ProjectCount, &d.MixedUseCount,
		&d.ResidentialCount, &d.CommercialCount, &d.TotalInvestment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market: querying development: %w", err)
	}
	return &d, nil
}
