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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	"github.com/AleutianAI/Harborview/services/advisor/scoring"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	domainReadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "market",
		Name:      "domain_read_failures_total",
		Help:      "Domain reads that returned an error, by domain",
	}, []string{"domain"})

	domainReadEmpty = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "market",
		Name:      "domain_read_empty_total",
		Help:      "Domain reads that returned no record, by domain",
	}, []string{"domain"})

	profilesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "market",
		Name:      "profiles_built_total",
		Help:      "Composite area profiles assembled",
	})
)

var aggregatorTracer = otel.Tracer("harborview.advisor.market")

// =============================================================================
// Aggregator
// =============================================================================

// Aggregator fans out to the domain source and merges the results into a
// CompositeAreaProfile with the derived scores attached.
//
// Partial-failure isolation: each of the seven domain reads runs in its own
// goroutine; a read that fails or comes back empty contributes a nil record
// and never cancels or blocks its siblings. There is no retry; a failed
// read is a missing record for this request.
//
// Thread Safety: Safe for concurrent use.
type Aggregator struct {
	source  Source
	weights config.ScoringWeights
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator.
//
// Inputs:
//
//	source  - The domain data source. Must not be nil.
//	weights - Scoring weights attached to every profile.
//	logger  - May be nil.
func NewAggregator(source Source, weights config.ScoringWeights, logger *slog.Logger) *Aggregator {
	if source == nil {
		panic("NewAggregator: source must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{source: source, weights: weights, logger: logger}
}

// GetAreaProfile builds the composite profile for an area.
//
// The profile is always constructible: an area unknown to every domain
// yields a profile with all records nil, growth potential at the neutral
// base, and a baseline investment score of 50. This method never returns an
// error; data problems surface as missing domains, not failures.
func (a *Aggregator) GetAreaProfile(ctx context.Context, area string) *datatypes.CompositeAreaProfile {
	ctx, span := aggregatorTracer.Start(ctx, "market.Aggregator.GetAreaProfile",
		trace.WithAttributes(attribute.String("area", area)))
	defer span.End()

	area = NormalizeArea(area)
	profile := &datatypes.CompositeAreaProfile{Area: area}

	// All seven reads dispatch concurrently and the group waits for every
	// one to settle (all-complete barrier). Read goroutines never return an
	// error to the group; that would cancel siblings, which is exactly
	// what partial-failure isolation forbids.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		profile.Market = readDomain(gctx, a.logger, DomainMarket, area, a.source.MarketMetrics)
		return nil
	})
	g.Go(func() error {
		profile.Rental = readDomain(gctx, a.logger, DomainRental, area, a.source.RentalMarket)
		return nil
	})
	g.Go(func() error {
		profile.ShortTerm = readDomain(gctx, a.logger, DomainShortTerm, area, a.source.ShortTermRental)
		return nil
	})
	g.Go(func() error {
		profile.Employment = readDomain(gctx, a.logger, DomainEmployment, area, a.source.Employment)
		return nil
	})
	g.Go(func() error {
		profile.Demographics = readDomain(gctx, a.logger, DomainDemographics, area, a.source.Demographics)
		return nil
	})
	g.Go(func() error {
		profile.Construction = readDomain(gctx, a.logger, DomainConstruction, area, a.source.Construction)
		return nil
	})
	g.Go(func() error {
		profile.Development = readDomain(gctx, a.logger, DomainDevelopment, area, a.source.Development)
		return nil
	})

	// Goroutines only ever return nil; Wait is purely the barrier.
	_ = g.Wait()

	profile.MissingDomains = missingDomains(profile)
	profile.GrowthPotential = GrowthPotential(profile.Market)
	assessment := scoring.ScoreArea(profile, a.weights)
	profile.Investment = &assessment

	profilesBuilt.Inc()
	span.SetAttributes(
		attribute.Int("domains_present", profile.DomainsPresent()),
		attribute.Float64("investment_total", assessment.Total),
	)
	a.logger.Debug("composite profile built",
		slog.String("area", area),
		slog.Int("domains_present", profile.DomainsPresent()),
		slog.Float64("growth_potential", profile.GrowthPotential),
		slog.Float64("investment_total", assessment.Total),
	)
	return profile
}

// readDomain performs one isolated domain read. Errors and empty results
// both collapse to nil; errors are additionally counted and logged.
func readDomain[T any](ctx context.Context, logger *slog.Logger, domain, area string,
	read func(context.Context, string) (*T, error)) *T {

	rec, err := read(ctx, area)
	if err != nil {
		domainReadFailures.WithLabelValues(domain).Inc()
		logger.Warn("domain read failed, continuing without it",
			slog.String("domain", domain),
			slog.String("area", area),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if rec == nil {
		domainReadEmpty.WithLabelValues(domain).Inc()
	}
	return rec
}

// missingDomains reports absent domains in AllDomains order so the result
// is deterministic for a given profile.
func missingDomains(p *datatypes.CompositeAreaProfile) []string {
	present := map[string]bool{
		DomainMarket:       p.Market != nil,
		DomainRental:       p.Rental != nil,
		DomainShortTerm:    p.ShortTerm != nil,
		DomainEmployment:   p.Employment != nil,
		DomainDemographics: p.Demographics != nil,
		DomainConstruction: p.Construction != nil,
		DomainDevelopment:  p.Development != nil,
	}
	var missing []string
	for _, domain := range AllDomains {
		if !present[domain] {
			missing = append(missing, domain)
		}
	}
	return missing
}
