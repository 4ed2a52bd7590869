// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generate is the generative delegate: it assembles a data-rich
// prompt from the composite area profiles and the session history, calls
// the external text-generation service, and converts every possible
// failure into a typed kind plus a low-confidence fallback candidate.
//
// Nothing in this package ever returns a raw error to the resolver. The
// failure kind exists so tests can assert WHICH failure path ran instead of
// inferring it from log output.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	"github.com/AleutianAI/Harborview/services/advisor/market"
	"github.com/AleutianAI/Harborview/services/llm"
)

// DatasetName identifies the domain dataset in candidate sources.
const DatasetName = "harborview-market-data"

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	generationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "generate",
		Name:      "outcomes_total",
		Help:      "Generative calls by outcome: success, timeout, canceled, unavailable, bad_response",
	}, []string{"outcome"})

	generationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "harborview",
		Subsystem: "generate",
		Name:      "latency_seconds",
		Help:      "Latency of external generative calls",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20},
	})
)

var delegateTracer = otel.Tracer("harborview.advisor.generate")

// =============================================================================
// Failure Kinds
// =============================================================================

// FailureKind classifies why a generative call produced the fallback
// candidate instead of a completion.
type FailureKind string

const (
	// FailureNone means the call succeeded.
	FailureNone FailureKind = ""

	// FailureTimeout: the call exceeded its deadline.
	FailureTimeout FailureKind = "timeout"

	// FailureCanceled: the caller canceled mid-flight.
	FailureCanceled FailureKind = "canceled"

	// FailureUnavailable: transport or API error from the service.
	FailureUnavailable FailureKind = "unavailable"

	// FailureBadResponse: the service answered but the completion was
	// unusable (empty text).
	FailureBadResponse FailureKind = "bad_response"
)

// outcomeLabel maps a kind to its metrics label.
func (k FailureKind) outcomeLabel() string {
	if k == FailureNone {
		return "success"
	}
	return string(k)
}

// =============================================================================
// Delegate
// =============================================================================

// persona is the fixed system persona. The serialized area data and style
// guidelines are appended per request.
const persona = `You are Harborview, a knowledgeable and candid regional real-estate advisor.
You ground every claim in the market data provided below and say plainly when the data does not cover a question.

Response style:
- Be concise: three to five sentences.
- Lead with the number that answers the question.
- End with exactly one short follow-up question.`

// Delegate builds prompts and calls the generative service.
//
// Thread Safety: Safe for concurrent use.
type Delegate struct {
	client     llm.Client
	aggregator *market.Aggregator
	cfg        config.GenerationConfig
	history    int
	logger     *slog.Logger
}

// NewDelegate creates a Delegate.
//
// Inputs:
//
//	client     - Generative backend. Must not be nil (a nil backend means
//	             the generative stage is not configured, and the resolver
//	             skips it entirely rather than constructing a Delegate).
//	aggregator - Used to serialize relevant area profiles into the prompt.
//	cfg        - Decoding parameters and timeout.
//	historyWindow - Trailing turns forwarded to the backend.
//	logger     - May be nil.
func NewDelegate(client llm.Client, aggregator *market.Aggregator, cfg config.GenerationConfig, historyWindow int, logger *slog.Logger) *Delegate {
	if client == nil {
		panic("NewDelegate: client must not be nil")
	}
	if aggregator == nil {
		panic("NewDelegate: aggregator must not be nil")
	}
	if historyWindow <= 0 {
		historyWindow = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Delegate{
		client:     client,
		aggregator: aggregator,
		cfg:        cfg,
		history:    historyWindow,
		logger:     logger,
	}
}

// Generate produces an answer candidate for the query.
//
// On success the candidate carries the configured generative confidence and
// sources {backend name, dataset name}. On ANY failure it returns an
// apologetic fallback candidate at fallbackConfidence plus the failure
// kind; the resolver decides whether to surface it or continue the
// cascade. Cancellation never corrupts session state because this method
// touches none.
func (d *Delegate) Generate(ctx context.Context, queryText string, areas []string, history []datatypes.Turn,
	successConfidence, fallbackConfidence float64) (datatypes.AnswerCandidate, FailureKind) {

	ctx, span := delegateTracer.Start(ctx, "generate.Delegate.Generate",
		trace.WithAttributes(
			attribute.Int("history_turns", len(history)),
			attribute.Int("areas", len(areas)),
		),
	)
	defer span.End()

	timeout := time.Duration(d.cfg.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	systemPrompt := d.buildSystemPrompt(ctx, areas)
	messages := historyMessages(history, d.history)

	params := llm.GenerationParams{
		Temperature:   d.cfg.Temperature,
		MaxTokens:     d.cfg.MaxTokens,
		RepeatPenalty: d.cfg.RepeatPenalty,
	}

	start := time.Now()
	text, err := d.client.Complete(ctx, systemPrompt, messages, queryText, params)
	generationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := classifyFailure(ctx, err)
		generationOutcomes.WithLabelValues(kind.outcomeLabel()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		d.logger.Warn("generative call failed",
			slog.String("kind", string(kind)),
			slog.String("backend", d.client.Name()),
			slog.String("error", err.Error()),
		)
		return fallbackCandidate(fallbackConfidence), kind
	}

	generationOutcomes.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("response_len", len(text)))
	return datatypes.AnswerCandidate{
		Text:       text,
		Confidence: successConfidence,
		Sources:    []string{d.client.Name(), DatasetName},
		SuggestedActions: []datatypes.SuggestedAction{
			{Label: "Compare another area", ActionToken: "compare_area"},
			{Label: "See investment score", ActionToken: "investment_score"},
		},
	}, FailureNone
}

// classifyFailure maps an error (plus the context state) to a kind.
func classifyFailure(ctx context.Context, err error) FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return FailureCanceled
	case strings.Contains(err.Error(), "returned empty completion"),
		strings.Contains(err.Error(), "returned no choices"):
		return FailureBadResponse
	default:
		return FailureUnavailable
	}
}

// fallbackCandidate is the apology the user sees when generation fails.
func fallbackCandidate(confidence float64) datatypes.AnswerCandidate {
	return datatypes.AnswerCandidate{
		Text: "I'm having trouble reaching my full analysis right now. I can still help " +
			"with market data, area comparisons, and building costs directly - could you " +
			"tell me which area or price range you're interested in?",
		Confidence: confidence,
		Sources:    []string{"fallback"},
	}
}

// buildSystemPrompt renders persona + serialized profiles + guidelines.
// Profile aggregation failures are impossible by contract (the aggregator
// never fails), so the prompt always assembles.
func (d *Delegate) buildSystemPrompt(ctx context.Context, areas []string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nMarket data snapshot:\n")

	if len(areas) == 0 {
		b.WriteString("(no specific area identified in this conversation yet)\n")
	}
	for _, area := range areas {
		profile := d.aggregator.GetAreaProfile(ctx, area)
		writeProfile(&b, profile)
	}
	return b.String()
}

// writeProfile serializes one composite profile into compact prompt lines.
// Only present domains are written; the model should never see invented
// zeros for missing data.
func writeProfile(b *strings.Builder, p *datatypes.CompositeAreaProfile) {
	fmt.Fprintf(b, "\n## %s\n", titleCase(p.Area))
	if m := p.Market; m != nil {
		fmt.Fprintf(b, "- Market: median price $%.0f, $%.0f/sqft, %.0f days on market, %.1f months inventory, %+.1f%% YoY\n",
			m.MedianPrice, m.PricePerSqft, m.AvgDaysOnMarket, m.MonthsInventory, m.YoYPriceChange)
	}
	if r := p.Rental; r != nil {
		fmt.Fprintf(b, "- Rental: median rent $%.0f, occupancy %.1f%%, avg ROI %.1f%%\n",
			r.MedianRent, r.OccupancyRate, r.AvgROI)
	}
	if s := p.ShortTerm; s != nil {
		fmt.Fprintf(b, "- Short-term rental: %d active listings, $%.0f/night, occupancy %.1f%%\n",
			s.ActiveListings, s.AvgDailyRate, s.OccupancyRate)
	}
	if e := p.Employment; e != nil {
		fmt.Fprintf(b, "- Employment: %.1f%% unemployment, %+.1f%% job growth, %d major employers tracked\n",
			e.UnemploymentRate, e.JobGrowthYoY, len(e.MajorEmployers))
	}
	if dg := p.Demographics; dg != nil {
		fmt.Fprintf(b, "- Demographics: population %d, median household income $%.0f\n",
			dg.Population, dg.MedianHouseholdIncome)
	}
	if c := p.Construction; c != nil {
		fmt.Fprintf(b, "- Construction: %d permits, %d new units, %d active builders, $%.0f/sqft build cost\n",
			c.PermitCount, c.NewUnits, c.ActiveBuilders, c.AvgCostPerSqft)
	}
	if dv := p.Development; dv != nil {
		fmt.Fprintf(b, "- Development: %d projects (%d mixed-use), $%.0fM announced investment\n",
			dv.ProjectCount, dv.MixedUseCount, dv.TotalInvestment/1e6)
	}
	if inv := p.Investment; inv != nil {
		fmt.Fprintf(b, "- Derived: growth potential %.0f/200, investment score %.0f/100\n",
			p.GrowthPotential, inv.Total)
	}
	if len(p.MissingDomains) > 0 {
		fmt.Fprintf(b, "- No data for: %s\n", strings.Join(p.MissingDomains, ", "))
	}
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// historyMessages converts the trailing window of turns to wire messages.
func historyMessages(history []datatypes.Turn, window int) []datatypes.Message {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	out := make([]datatypes.Message, 0, len(history))
	for _, t := range history {
		out = append(out, datatypes.Message{Role: string(t.Role), Content: t.Text})
	}
	return out
}
