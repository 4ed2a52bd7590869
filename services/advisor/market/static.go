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

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// StaticSource is an in-memory Source for tests and for running the advisor
// without a domain database. Maps are keyed by normalized area name; a
// missing key is a nil record, matching the Source contract.
//
// Err, when set, is returned by every read; used by tests to exercise
// partial and total failure paths.
//
// Thread Safety: Safe for concurrent reads after construction. Not safe to
// mutate while in use.
type StaticSource struct {
	Markets       map[string]*datatypes.MarketMetrics
	Rentals       map[string]*datatypes.RentalMarket
	ShortTerms    map[string]*datatypes.ShortTermRental
	Employments   map[string]*datatypes.Employment
	Demographic   map[string]*datatypes.Demographics
	Constructions map[string]*datatypes.Construction
	Developments  map[string]*datatypes.Development

	Err error
}

func staticRead[T any](s *StaticSource, m map[string]*T, area string) (*T, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return m[NormalizeArea(area)], nil
}

func (s *StaticSource) MarketMetrics(_ context.Context, area string) (*datatypes.MarketMetrics, error) {
	return staticRead(s, s.Markets, area)
}

func (s *StaticSource) RentalMarket(_ context.Context, area string) (*datatypes.RentalMarket, error) {
	return staticRead(s, s.Rentals, area)
}

func (s *StaticSource) ShortTermRental(_ context.Context, area string) (*datatypes.ShortTermRental, error) {
	return staticRead(s, s.ShortTerms, area)
}

func (s *StaticSource) Employment(_ context.Context, area string) (*datatypes.Employment, error) {
	return staticRead(s, s.Employments, area)
}

func (s *StaticSource) Demographics(_ context.Context, area string) (*datatypes.Demographics, error) {
	return staticRead(s, s.Demographic, area)
}

func (s *StaticSource) Construction(_ context.Context, area string) (*datatypes.Construction, error) {
	return staticRead(s, s.Constructions, area)
}

func (s *StaticSource) Development(_ context.Context, area string) (*datatypes.Development, error) {
	return staticRead(s, s.Developments, area)
}
