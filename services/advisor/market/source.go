// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package market aggregates the independent domain datasets for an area into
// one composite profile and computes the derived growth-potential index.
package market

import (
	"context"
	"strings"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// Domain names, used for metrics labels and MissingDomains entries.
const (
	DomainMarket       = "market_metrics"
	DomainRental       = "rental_market"
	DomainShortTerm    = "short_term_rental"
	DomainEmployment   = "employment"
	DomainDemographics = "demographics"
	DomainConstruction = "construction"
	DomainDevelopment  = "development"
)

// AllDomains lists every domain in fan-out order.
var AllDomains = []string{
	DomainMarket, DomainRental, DomainShortTerm, DomainEmployment,
	DomainDemographics, DomainConstruction, DomainDevelopment,
}

// Source is the read-only domain data store the aggregator fans out to.
//
// Every method returns (nil, nil) when the area has no record for that
// domain; nil records are data, not errors. A non-nil error means the read
// itself failed; the aggregator treats that the same as no data and never
// retries.
//
// Thread Safety: Implementations must be safe for concurrent use; the
// aggregator calls all seven methods concurrently.
type Source interface {
	MarketMetrics(ctx context.Context, area string) (*datatypes.MarketMetrics, error)
	RentalMarket(ctx context.Context, area string) (*datatypes.RentalMarket, error)
	ShortTermRental(ctx context.Context, area string) (*datatypes.ShortTermRental, error)
	Employment(ctx context.Context, area string) (*datatypes.Employment, error)
	Demographics(ctx context.Context, area string) (*datatypes.Demographics, error)
	Construction(ctx context.Context, area string) (*datatypes.Construction, error)
	Development(ctx context.Context, area string) (*datatypes.Development, error)
}

// NormalizeArea canonicalizes an area name for lookups: lowercase, trimmed,
// inner whitespace collapsed.
func NormalizeArea(area string) string {
	return strings.Join(strings.Fields(strings.ToLower(area)), " ")
}
