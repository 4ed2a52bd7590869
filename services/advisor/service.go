// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package advisor

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/corpus"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	"github.com/AleutianAI/Harborview/services/advisor/dialogue"
	"github.com/AleutianAI/Harborview/services/advisor/generate"
	"github.com/AleutianAI/Harborview/services/advisor/market"
	"github.com/AleutianAI/Harborview/services/advisor/session"
	"github.com/AleutianAI/Harborview/services/llm"
)

// Service bundles the advisor's components behind one construction point.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	cfg        *config.Config
	resolver   *Resolver
	matcher    *corpus.Matcher
	aggregator *market.Aggregator
	store      session.Store
	logger     *slog.Logger
}

// NewService wires the advisor together.
//
// Inputs:
//
//	cfg    - Full advisor configuration. Must not be nil.
//	source - Domain data source for the aggregator. Must not be nil.
//	store  - Session memory store. Must not be nil.
//	gen    - Generative backend. Nil disables the generative stage; the
//	         advisor still answers from the corpus, dialogue rules, and
//	         domain data.
//	logger - May be nil.
//
// Outputs:
//
//	*Service - The wired service. Never nil.
//	error    - Non-nil only when the embedded curated corpus fails to parse.
func NewService(cfg *config.Config, source market.Source, store session.Store, gen llm.Client, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	matcher, err := corpus.NewDefaultMatcher(logger)
	if err != nil {
		return nil, err
	}
	aggregator := market.NewAggregator(source, cfg.Scoring, logger)

	var delegate *generate.Delegate
	if gen != nil {
		delegate = generate.NewDelegate(gen, aggregator, cfg.Generation, cfg.Stages.HistoryWindow, logger)
	} else {
		logger.Info("no generative backend configured, generative stage disabled")
	}

	resolver := NewResolver(cfg.Stages, matcher, delegate, dialogue.NewEngine(), aggregator, store, logger)
	return &Service{
		cfg:        cfg,
		resolver:   resolver,
		matcher:    matcher,
		aggregator: aggregator,
		store:      store,
		logger:     logger,
	}, nil
}

// Resolve answers one query. See Resolver.Resolve.
func (s *Service) Resolve(ctx context.Context, queryText, sessionID, userID string) datatypes.AnswerCandidate {
	return s.resolver.Resolve(ctx, queryText, sessionID, userID)
}

// SessionContext returns the turn history and slots for a session. Unknown
// ids yield an empty context.
func (s *Service) SessionContext(ctx context.Context, sessionID string) (*session.Context, error) {
	return s.store.Get(ctx, sessionID)
}

// AreaProfile builds the composite profile for an area on demand.
func (s *Service) AreaProfile(ctx context.Context, area string) *datatypes.CompositeAreaProfile {
	return s.aggregator.GetAreaProfile(ctx, area)
}

// Ready reports whether the service can answer: the curated corpus must be
// loaded. Everything else degrades gracefully.
func (s *Service) Ready() bool {
	return s.matcher.Len() > 0
}
