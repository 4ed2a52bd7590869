// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dialogue is the stateful trigger-based conversational responder.
//
// The engine is an ordered table of {predicate, handler} rules evaluated
// top to bottom; the first matching rule wins. Rule order IS the priority;
// reordering the table changes behavior, so each rule carries a name that
// shows up in metrics and tests.
//
// Slot discipline: handlers receive a copy of the session's slot memory and
// return the updated copy. A handler only writes slots it has an explicit
// extraction for; absence of a match never clears an existing value, and
// MentionedAreas is append-only.
package dialogue

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// SourceName identifies the engine in AnswerCandidate.Sources.
const SourceName = "dialogue-engine"

// =============================================================================
// Prometheus Metrics
// =============================================================================

var ruleHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "harborview",
	Subsystem: "dialogue",
	Name:      "rule_hits_total",
	Help:      "Dialogue rule firings by rule name",
}, []string{"rule"})

// =============================================================================
// Rule Table
// =============================================================================

// LastTopic values the engine writes and branches on.
const (
	topicBuilding  = "building"
	topicLowBudget = "low-budget"
	topicBudget    = "budget"
	topicPermits   = "permits"
	topicArea      = "area"
)

// lowBudgetCeiling separates the "low-budget" follow-up branch from the
// generic budget branch.
const lowBudgetCeiling = 200_000.0

// areaAskRe captures the area phrase in "tell me about X" style questions.
var areaAskRe = regexp.MustCompile(`(?:tell me about|what about|how is|info on)\s+(.+)`)

// rule is one entry in the ordered dialogue table.
type rule struct {
	name string

	// match reports whether this rule handles the (normalized) query.
	match func(q string, s datatypes.SlotMemory) bool

	// handle produces the response and the updated slots. It receives a
	// private copy of the slots and may mutate it freely.
	handle func(q string, s datatypes.SlotMemory) (string, datatypes.SlotMemory)
}

// Engine evaluates the rule table against incoming conversational queries.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Engine struct {
	rules []rule
}

// NewEngine builds the engine with the standard rule table.
func NewEngine() *Engine {
	e := &Engine{}
	e.rules = []rule{
		{name: "budget_mention", match: matchBudgetMention, handle: handleBudgetMention},
		{name: "budget_followup", match: matchBudgetFollowup, handle: handleBudgetFollowup},
		{name: "what_else", match: matchWhatElse, handle: handleWhatElse},
		{name: "build", match: matchBuild, handle: handleBuild},
		{name: "area_ask", match: matchAreaAsk, handle: handleAreaAsk},
		{name: "bare_yes", match: matchBareYes, handle: handleBareYes},
		{name: "buy_intent", match: matchBuyIntent, handle: handleBuyIntent},
		{name: "greeting", match: matchGreeting, handle: handleGreeting},
		{name: "fallback", match: func(string, datatypes.SlotMemory) bool { return true }, handle: handleFallback},
	}
	return e
}

// Respond runs the query through the rule table.
//
// Inputs:
//
//	queryText - Raw user text; typo normalization is applied for matching
//	            only and never persisted.
//	slots     - The session's current slot memory.
//
// Outputs:
//
//	string                - The response text.
//	datatypes.SlotMemory  - The updated slot memory for the caller to
//	                        persist.
func (e *Engine) Respond(queryText string, slots datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	q := normalize(queryText)
	for _, r := range e.rules {
		if !r.match(q, slots) {
			continue
		}
		ruleHits.WithLabelValues(r.name).Inc()
		return r.handle(q, slots.Clone())
	}
	// Unreachable: the fallback rule always matches.
	return "", slots
}

// IsConversational classifies a query as one the dialogue engine should
// handle: budget/build/advice-seeking keywords, a short utterance, or a
// bare yes/no.
func IsConversational(queryText string) bool {
	q := normalize(queryText)
	bare := stripFiller(q)
	if bare == "yes" || bare == "no" || bare == "sure" || bare == "yeah" || bare == "nope" {
		return true
	}
	if len(strings.Fields(q)) <= 3 && q != "" {
		return true
	}
	// A monetary mention always routes here so the budget rule can run;
	// otherwise the extraction would be lost to a later stage.
	if _, ok := ParseBudget(q); ok {
		return true
	}
	for _, kw := range []string{
		"budget", "afford", "only have", "build", "construct",
		"should i", "advice", "recommend", "what else", "other options",
		"buy a", "looking to buy", "hello", "hi ", "hey",
		"tell me about", "what about", "info on",
	} {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// =============================================================================
// Rule 1: numeric budget mention
// =============================================================================

func matchBudgetMention(q string, _ datatypes.SlotMemory) bool {
	_, ok := ParseBudget(q)
	return ok
}

func handleBudgetMention(q string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	amount, ok := ParseBudget(q)
	if !ok {
		// Matched but unparsable on re-extract; leave the slot alone.
		return handleFallback(q, s)
	}
	s.Budget = amount
	if amount < lowBudgetCeiling {
		s.LastTopic = topicLowBudget
	} else {
		s.LastTopic = topicBudget
	}
	return tieredBudgetResponse(amount), s
}

// tieredBudgetResponse lays out the three realistic lanes for a budget,
// always echoing the exact figure.
func tieredBudgetResponse(amount float64) string {
	figure := FormatUSD(amount)
	switch {
	case amount < lowBudgetCeiling:
		return fmt.Sprintf("With %s to work with, here's how the market breaks down: "+
			"under %s you're looking at condos, older townhomes, and homes in the outer suburbs; "+
			"%s-%s opens up solid resale homes in Spring, Conroe, and east Pearland; "+
			"above %s you'd need financing room beyond your stated budget. "+
			"Several of those areas also rent well if this is an investment. Which direction interests you?",
			figure, FormatUSD(amount*0.7), FormatUSD(amount*0.7), figure, figure)
	case amount < 450_000:
		return fmt.Sprintf("%s is a workable mid-market budget: under %s gets you newer construction "+
			"in Richmond or Conroe; %s-%s covers most of Katy, Cypress, and Pearland resale; "+
			"stretching toward %s reaches entry pricing in Sugar Land. "+
			"Do you want to optimize for schools, commute, or yield?",
			figure, FormatUSD(amount*0.6), FormatUSD(amount*0.6), figure, FormatUSD(amount*1.15))
	default:
		return fmt.Sprintf("With %s you have the full metro in range: under %s covers nearly every "+
			"suburb including new builds; %s-%s reaches The Woodlands and Sugar Land comfortably; "+
			"above %s puts inner-loop neighborhoods like the Heights on the table. "+
			"What matters most - location, lot size, or new construction?",
			figure, FormatUSD(amount*0.6), FormatUSD(amount*0.6), figure, figure)
	}
}

// =============================================================================
// Rule 2: budget follow-up without a new figure
// =============================================================================

func matchBudgetFollowup(q string, s datatypes.SlotMemory) bool {
	if s.Budget <= 0 {
		return false
	}
	return strings.Contains(q, "only have") || strings.Contains(q, "budget")
}

func handleBudgetFollowup(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	if s.Budget < lowBudgetCeiling {
		s.LastTopic = topicLowBudget
	} else {
		s.LastTopic = topicBudget
	}
	return tieredBudgetResponse(s.Budget), s
}

// =============================================================================
// Rule 3: "what else", keyed off LastTopic
// =============================================================================

func matchWhatElse(q string, _ datatypes.SlotMemory) bool {
	return strings.Contains(q, "what else") || strings.Contains(q, "other options")
}

func handleWhatElse(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	switch s.LastTopic {
	case topicBuilding:
		return "Beyond a ground-up build, you could look at a teardown-rebuild on an " +
			"established lot, a heavy remodel of a dated home, or buying into a community " +
			"where a builder carries the construction loan. Each trades cost for control. " +
			"Want rough numbers for any of these?", s
	case topicLowBudget:
		return "A few other routes at your price point: FHA with 3.5% down stretches what " +
			"the cash covers, townhomes and condos cut entry cost by a third, and the " +
			"outer-ring suburbs still have resale homes under market. There are also " +
			"down-payment assistance programs worth checking. Want details on any of these?", s
	default:
		return "I can go a few directions: compare specific areas, run rental-yield numbers, " +
			"look at new-construction options, or walk through financing approaches. " +
			"What would help most?", s
	}
}

// =============================================================================
// Rule 4: build / construct
// =============================================================================

func matchBuild(q string, _ datatypes.SlotMemory) bool {
	return strings.Contains(q, "build") || strings.Contains(q, "construct")
}

func handleBuild(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	s.LastTopic = topicBuilding
	s.Goal = datatypes.GoalBuild
	return "Building here currently runs about $140-$180 per square foot for standard " +
		"finishes, before land. A 2,500 sqft home is roughly $350,000-$450,000 in " +
		"construction alone, plus the lot, site work, and 10-12 months of carrying " +
		"costs. Do you already own land, or is finding a lot part of the project?", s
}

// =============================================================================
// Rule 5: area question, appends MentionedAreas
// =============================================================================

func matchAreaAsk(q string, _ datatypes.SlotMemory) bool {
	m := areaAskRe.FindStringSubmatch(q)
	return m != nil && strings.TrimSpace(m[1]) != ""
}

func handleAreaAsk(q string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	m := areaAskRe.FindStringSubmatch(q)
	area := canonicalArea(m[1])
	s.MentionedAreas = append(s.MentionedAreas, area)
	s.LastTopic = topicArea

	if insight, ok := lookupAreaInsight(area); ok {
		return insight, s
	}
	return fmt.Sprintf("I don't have a quick take on %s, but I can pull the market data: "+
		"pricing, rental yields, construction activity, or school-adjacent demand. "+
		"Which would be most useful?", area), s
}

// canonicalArea cleans a captured area phrase: trailing punctuation and
// question filler removed, title-cased for storage.
func canonicalArea(phrase string) string {
	area := stripFiller(phrase)
	for _, cut := range []string{" please", " right now", " these days"} {
		area = strings.TrimSuffix(area, cut)
	}
	words := strings.Fields(area)
	for i, w := range words {
		if w == "the" && i > 0 {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// =============================================================================
// Rule 6: bare yes, branches on LastTopic
// =============================================================================

func matchBareYes(q string, _ datatypes.SlotMemory) bool {
	bare := stripFiller(q)
	return bare == "yes" || bare == "sure" || bare == "yeah" || bare == "yep"
}

func handleBareYes(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	switch s.LastTopic {
	case topicPermits:
		return "Permit activity is a leading indicator: rising single-family permits in an " +
			"area usually precede price appreciation by 12-18 months. I can pull permit " +
			"counts for a specific area - which one?", s
	case topicBuilding:
		return "Great - the next question is the land. Do you already own a lot, are you " +
			"considering a teardown in an established neighborhood, or would you be " +
			"buying raw land further out? The answer changes the budget by six figures.", s
	default:
		if area := s.LastMentionedArea(); area != "" {
			return fmt.Sprintf("Happy to go deeper on %s. I can cover current pricing, rental "+
				"performance, new construction, or who's hiring nearby. Pick one and "+
				"I'll pull the numbers.", area), s
		}
		return "Which part should I expand on - areas, pricing, building costs, or " +
			"investment numbers?", s
	}
}

// =============================================================================
// Rule 7: buy intent
// =============================================================================

func matchBuyIntent(q string, _ datatypes.SlotMemory) bool {
	if !strings.Contains(q, "buy") {
		return false
	}
	return strings.Contains(q, "home") || strings.Contains(q, "house") || strings.Contains(q, "property")
}

func handleBuyIntent(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	s.Goal = datatypes.GoalBuy
	return "Let's narrow it down. Three questions: what budget are you working with, " +
		"do you want an existing home or new construction, and are any areas already " +
		"on your list? Answer any of them and I'll start pulling real numbers.", s
}

// =============================================================================
// Rule 8: greeting
// =============================================================================

func matchGreeting(q string, _ datatypes.SlotMemory) bool {
	bare := stripFiller(q)
	for _, g := range []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "howdy"} {
		if bare == g {
			return true
		}
	}
	return false
}

func handleGreeting(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	return "Hi! I'm your local real-estate assistant. I can compare areas, pull market " +
		"and rental data, estimate building costs, or help you plan a purchase. " +
		"What are you working on?", s
}

// =============================================================================
// Rule 9: fallback, avoids re-asking known slots
// =============================================================================

func handleFallback(_ string, s datatypes.SlotMemory) (string, datatypes.SlotMemory) {
	known := []string{}
	if s.Budget > 0 {
		known = append(known, fmt.Sprintf("your %s budget", FormatUSD(s.Budget)))
	}
	if s.Goal != datatypes.GoalUnset {
		known = append(known, fmt.Sprintf("your goal to %s", s.Goal))
	}
	if area := s.LastMentionedArea(); area != "" {
		known = append(known, fmt.Sprintf("your interest in %s", area))
	}
	if len(known) > 0 {
		return fmt.Sprintf("I want to make sure I point you the right way. Keeping %s in mind - "+
			"are you asking about pricing, a specific area, building, or investment returns?",
			strings.Join(known, " and ")), s
	}
	return "I can help with area comparisons, pricing, rental returns, and building costs. " +
		"Could you tell me a bit more about what you're looking for? A budget or a " +
		"target area is enough to get specific.", s
}
