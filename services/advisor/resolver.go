// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package advisor is the resolution orchestrator: it runs each query through
// an ordered cascade of answer strategies and always returns exactly one
// answer candidate.
//
// The cascade is a declarative stage list, not a conditional chain: each
// stage is {name, predicate-and-run} and the first stage to produce a
// candidate wins. Thresholds are stage-local: a 0.5 curated threshold and
// a 0.8 generative threshold are not comparable numbers, they gate different
// scales.
//
// Nothing escapes Resolve: every component failure is absorbed at its own
// boundary and converted into "no candidate from this stage" or a
// lower-confidence candidate. The caller never sees an error.
package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/corpus"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	"github.com/AleutianAI/Harborview/services/advisor/dialogue"
	"github.com/AleutianAI/Harborview/services/advisor/generate"
	"github.com/AleutianAI/Harborview/services/advisor/market"
	"github.com/AleutianAI/Harborview/services/advisor/session"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Resolution passes by winning stage",
	}, []string{"stage"})

	resolutionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "harborview",
		Subsystem: "resolver",
		Name:      "latency_seconds",
		Help:      "End-to-end resolution latency",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

var resolverTracer = otel.Tracer("harborview.advisor.resolver")

// =============================================================================
// Stage Names
// =============================================================================

const (
	StageCurated    = "curated"
	StageGenerative = "generative"
	StageDialogue   = "dialogue"
	StageDomainData = "domain_data"
	StageAggregate  = "smart_aggregate"
	StageFallback   = "fallback"
)

// =============================================================================
// Resolver
// =============================================================================

// pass carries the per-query state threaded through the stage list.
type pass struct {
	query     string // trimmed raw text
	lower     string // lowercased, for intent matching
	sessionID string
	userID    string

	sctx *session.Context

	// updatedSlots is set by a stage that extracted slot values; the
	// resolver persists it after the pass, under the session guard.
	updatedSlots *datatypes.SlotMemory
}

// stage is one strategy in the cascade. run returns nil when the stage
// declines the query or its stage-local threshold was not cleared.
type stage struct {
	name string
	run  func(ctx context.Context, p *pass) *datatypes.AnswerCandidate
}

// Resolver cascades a query through the answer strategies.
//
// Thread Safety: Safe for concurrent use. Passes for the same session id
// are serialized by the guard; passes for different sessions run
// independently.
type Resolver struct {
	cfg        config.StageConfig
	matcher    *corpus.Matcher
	delegate   *generate.Delegate // nil when no generative service is configured
	engine     *dialogue.Engine
	aggregator *market.Aggregator
	store      session.Store
	guard      *session.Guard
	logger     *slog.Logger

	stages []stage
}

// NewResolver creates a Resolver.
//
// Inputs:
//
//	cfg        - Stage thresholds and the history window.
//	matcher    - Curated corpus matcher. Must not be nil.
//	delegate   - Generative delegate. Nil disables the generative stage.
//	engine     - Heuristic dialogue engine. Must not be nil.
//	aggregator - Domain data aggregator. Must not be nil.
//	store      - Session memory. Must not be nil.
//	logger     - May be nil.
func NewResolver(cfg config.StageConfig, matcher *corpus.Matcher, delegate *generate.Delegate,
	engine *dialogue.Engine, aggregator *market.Aggregator, store session.Store, logger *slog.Logger) *Resolver {

	if matcher == nil || engine == nil || aggregator == nil || store == nil {
		panic("NewResolver: matcher, engine, aggregator, and store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		cfg:        cfg,
		matcher:    matcher,
		delegate:   delegate,
		engine:     engine,
		aggregator: aggregator,
		store:      store,
		guard:      session.NewGuard(),
		logger:     logger,
	}
	// Stage order IS the priority. Earlier stage wins whenever its
	// stage-local threshold is cleared.
	r.stages = []stage{
		{name: StageCurated, run: r.tryCurated},
		{name: StageGenerative, run: r.tryGenerative},
		{name: StageDialogue, run: r.tryDialogue},
		{name: StageDomainData, run: r.tryDomainData},
		{name: StageAggregate, run: r.trySmartAggregate},
		{name: StageFallback, run: r.genericFallback},
	}
	return r
}

// Resolve runs one resolution pass and returns exactly one candidate.
//
// Never returns an error: session-store trouble degrades to stateless mode,
// component failures fall through to later stages, and the terminal fallback
// always matches. On completion the (user, assistant) turn pair and any slot
// updates are persisted.
func (r *Resolver) Resolve(ctx context.Context, queryText, sessionID, userID string) datatypes.AnswerCandidate {
	start := time.Now()
	ctx, span := resolverTracer.Start(ctx, "advisor.Resolver.Resolve",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()
	defer func() { resolutionLatency.Observe(time.Since(start).Seconds()) }()

	p := &pass{
		query:     strings.TrimSpace(queryText),
		sessionID: sessionID,
		userID:    userID,
	}
	p.lower = strings.ToLower(p.query)

	// Empty input gets the clarifying fallback without a stored turn pair;
	// there is no utterance worth remembering.
	if p.query == "" {
		resolutionsTotal.WithLabelValues(StageFallback).Inc()
		span.SetAttributes(attribute.String("stage", StageFallback))
		cand := r.genericFallback(ctx, p)
		return *cand
	}

	release := r.guard.Acquire(sessionID)
	defer release()

	p.sctx = r.loadContext(ctx, sessionID)

	var winner *datatypes.AnswerCandidate
	winnerStage := StageFallback
	for _, s := range r.stages {
		if cand := s.run(ctx, p); cand != nil {
			winner = cand
			winnerStage = s.name
			break
		}
	}
	// Unreachable nil: the fallback stage always returns a candidate.

	resolutionsTotal.WithLabelValues(winnerStage).Inc()
	span.SetAttributes(
		attribute.String("stage", winnerStage),
		attribute.Float64("confidence", winner.Confidence),
	)
	r.logger.Debug("query resolved",
		slog.String("session_id", sessionID),
		slog.String("stage", winnerStage),
		slog.Float64("confidence", winner.Confidence),
	)

	r.persist(ctx, p, winner.Text)
	return *winner
}

// loadContext fetches session state, degrading to an empty context when the
// store is unavailable.
func (r *Resolver) loadContext(ctx context.Context, sessionID string) *session.Context {
	sctx, err := r.store.Get(ctx, sessionID)
	if err != nil {
		r.logger.Warn("session load failed, resolving statelessly",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return &session.Context{}
	}
	return sctx
}

// persist appends the turn pair and applies slot updates. Failures are
// logged and swallowed; the candidate has already been chosen.
func (r *Resolver) persist(ctx context.Context, p *pass, assistantText string) {
	if err := r.store.Append(ctx, p.sessionID, p.query, assistantText); err != nil {
		r.logger.Warn("turn append failed",
			slog.String("session_id", p.sessionID),
			slog.String("error", err.Error()),
		)
	}
	if p.updatedSlots == nil {
		return
	}
	updated := *p.updatedSlots
	err := r.store.UpdateSlots(ctx, p.sessionID, func(s *datatypes.SlotMemory) {
		*s = updated.Clone()
	})
	if err != nil {
		r.logger.Warn("slot update failed",
			slog.String("session_id", p.sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// =============================================================================
// Stage 1: curated corpus match
// =============================================================================

func (r *Resolver) tryCurated(_ context.Context, p *pass) *datatypes.AnswerCandidate {
	matches := r.matcher.Search(p.query, 3)
	if len(matches) == 0 {
		return nil
	}
	best := matches[0]
	if best.Confidence <= r.cfg.CuratedThreshold {
		return nil
	}
	return &datatypes.AnswerCandidate{
		Text:       best.Entry.Answer,
		Confidence: best.Confidence,
		Sources:    []string{corpus.SourceName},
	}
}

// =============================================================================
// Stage 2: generative delegate
// =============================================================================

// tryGenerative calls the external service for substantive questions. It
// declines conversational utterances; slot extraction and follow-up
// branching belong to the dialogue engine, and sending "yes" to a language
// model would answer the turn while silently dropping the session's slot
// state.
func (r *Resolver) tryGenerative(ctx context.Context, p *pass) *datatypes.AnswerCandidate {
	if r.delegate == nil {
		return nil
	}
	if dialogue.IsConversational(p.query) {
		return nil
	}
	areas := r.relevantAreas(p)
	cand, kind := r.delegate.Generate(ctx, p.query, areas,
		p.sctx.LastTurns(r.cfg.HistoryWindow),
		r.cfg.GenerativeConfidence, r.cfg.FallbackConfidence)
	if kind != generate.FailureNone {
		// The delegate's apology is below the generative threshold; let the
		// data-backed stages try before any fallback is surfaced.
		return nil
	}
	if cand.Confidence <= r.cfg.GenerativeThreshold {
		return nil
	}
	return &cand
}

// relevantAreas resolves which areas the prompt should carry data for:
// areas named in the query first, then the session's last mentioned area.
func (r *Resolver) relevantAreas(p *pass) []string {
	areas := areasInText(p.lower)
	if len(areas) == 0 && p.sctx != nil {
		if last := p.sctx.Slots.LastMentionedArea(); last != "" {
			areas = append(areas, last)
		}
	}
	return areas
}

// =============================================================================
// Stage 3: heuristic dialogue
// =============================================================================

func (r *Resolver) tryDialogue(_ context.Context, p *pass) *datatypes.AnswerCandidate {
	if !dialogue.IsConversational(p.query) {
		return nil
	}
	var slots datatypes.SlotMemory
	if p.sctx != nil {
		slots = p.sctx.Slots
	}
	text, updated := r.engine.Respond(p.query, slots)
	p.updatedSlots = &updated
	return &datatypes.AnswerCandidate{
		Text:       text,
		Confidence: r.cfg.DialogueConfidence,
		Sources:    []string{dialogue.SourceName},
	}
}

// =============================================================================
// Stage 6: terminal fallback
// =============================================================================

func (r *Resolver) genericFallback(_ context.Context, p *pass) *datatypes.AnswerCandidate {
	text := "I can help with area comparisons, market pricing, rental returns, building " +
		"costs, and investment analysis. What would you like to look into? A target " +
		"area or a budget is a great starting point."
	if p.sctx != nil {
		if area := p.sctx.Slots.LastMentionedArea(); area != "" {
			text = "I can dig into " + displayArea(area) + " further - pricing, rentals, construction, or " +
				"jobs - or compare it with another area. What would be most useful?"
		}
	}
	return &datatypes.AnswerCandidate{
		Text:       text,
		Confidence: r.cfg.FallbackConfidence,
		Sources:    []string{"fallback"},
		SuggestedActions: []datatypes.SuggestedAction{
			{Label: "Compare areas", ActionToken: "compare_areas"},
			{Label: "Building costs", ActionToken: "building_costs"},
			{Label: "Investment scores", ActionToken: "investment_scores"},
		},
	}
}
