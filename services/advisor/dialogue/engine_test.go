// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dialogue

import (
	"strings"
	"testing"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// =============================================================================
// Budget Rule Tests
// =============================================================================

func TestRespond_BudgetMention_SetsSlot(t *testing.T) {
	e := NewEngine()
	text, slots := e.Respond("I only have $150k", datatypes.SlotMemory{})

	if slots.Budget != 150_000 {
		t.Errorf("budget slot = %v, want 150000", slots.Budget)
	}
	if slots.LastTopic != topicLowBudget {
		t.Errorf("last topic = %q, want %q", slots.LastTopic, topicLowBudget)
	}
	if !strings.Contains(text, "$150,000") {
		t.Errorf("response must echo the exact formatted budget, got: %s", text)
	}
}

func TestRespond_BudgetMention_HighBudgetTopic(t *testing.T) {
	e := NewEngine()
	_, slots := e.Respond("my budget is $600k", datatypes.SlotMemory{})

	if slots.Budget != 600_000 {
		t.Errorf("budget slot = %v, want 600000", slots.Budget)
	}
	if slots.LastTopic != topicBudget {
		t.Errorf("last topic = %q, want %q for a budget above the low ceiling", slots.LastTopic, topicBudget)
	}
}

func TestRespond_BareNumberIsNotABudget(t *testing.T) {
	e := NewEngine()
	_, slots := e.Respond("tell me about 1960", datatypes.SlotMemory{})
	if slots.Budget != 0 {
		t.Errorf("bare number set budget slot to %v", slots.Budget)
	}
}

func TestRespond_BudgetFollowup_ReusesStoredBudget(t *testing.T) {
	e := NewEngine()
	text, slots := e.Respond("what fits my budget?", datatypes.SlotMemory{Budget: 150_000})

	if slots.Budget != 150_000 {
		t.Errorf("follow-up overwrote budget to %v", slots.Budget)
	}
	if !strings.Contains(text, "$150,000") {
		t.Errorf("follow-up must reference the stored budget, got: %s", text)
	}
}

// =============================================================================
// Slot Persistence Tests
// =============================================================================

func TestRespond_SlotsPersistAcrossTurns(t *testing.T) {
	e := NewEngine()
	_, slots := e.Respond("I only have $150k", datatypes.SlotMemory{})
	_, slots = e.Respond("what else", slots)

	if slots.Budget != 150_000 {
		t.Errorf("budget slot lost on a later turn: %v", slots.Budget)
	}
}

func TestRespond_AbsenceOfMatchNeverClearsSlots(t *testing.T) {
	e := NewEngine()
	in := datatypes.SlotMemory{
		Budget:         250_000,
		Goal:           datatypes.GoalBuy,
		MentionedAreas: []string{"Katy"},
		LastTopic:      topicArea,
	}
	_, out := e.Respond("hmm interesting stuff", in)

	if out.Budget != in.Budget || out.Goal != in.Goal {
		t.Error("unmatched turn cleared budget or goal")
	}
	if len(out.MentionedAreas) != 1 || out.MentionedAreas[0] != "Katy" {
		t.Errorf("unmatched turn changed mentioned areas: %v", out.MentionedAreas)
	}
}

func TestRespond_HandlerGetsSlotCopy(t *testing.T) {
	e := NewEngine()
	in := datatypes.SlotMemory{MentionedAreas: []string{"Katy"}}
	_, out := e.Respond("tell me about cypress", in)

	if len(in.MentionedAreas) != 1 {
		t.Errorf("input slots mutated: %v", in.MentionedAreas)
	}
	if len(out.MentionedAreas) != 2 {
		t.Errorf("expected appended area list, got %v", out.MentionedAreas)
	}
}

// =============================================================================
// "What Else" Branch Tests
// =============================================================================

func TestRespond_WhatElse_LowBudgetBranch(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("what else", datatypes.SlotMemory{Budget: 150_000, LastTopic: topicLowBudget})
	if !strings.Contains(text, "FHA") {
		t.Errorf("expected the low-budget branch, got: %s", text)
	}
}

func TestRespond_WhatElse_BuildingBranch(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("what else", datatypes.SlotMemory{LastTopic: topicBuilding})
	if !strings.Contains(text, "teardown") {
		t.Errorf("expected the building branch, got: %s", text)
	}
}

func TestRespond_WhatElse_GenericBranch(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("what else", datatypes.SlotMemory{})
	if !strings.Contains(text, "compare") {
		t.Errorf("expected the generic branch, got: %s", text)
	}
}

// =============================================================================
// Build Rule Tests
// =============================================================================

func TestRespond_Build_SetsTopicAndGoal(t *testing.T) {
	e := NewEngine()
	text, slots := e.Respond("I want to build a house", datatypes.SlotMemory{})

	if slots.LastTopic != topicBuilding {
		t.Errorf("last topic = %q, want %q", slots.LastTopic, topicBuilding)
	}
	if slots.Goal != datatypes.GoalBuild {
		t.Errorf("goal = %q, want build", slots.Goal)
	}
	if !strings.Contains(text, "per square foot") {
		t.Errorf("build response must anchor on construction cost, got: %s", text)
	}
}

// =============================================================================
// Area Rule Tests
// =============================================================================

func TestRespond_AreaAsk_Katy(t *testing.T) {
	e := NewEngine()
	text, slots := e.Respond("tell me about Katy", datatypes.SlotMemory{})

	if len(slots.MentionedAreas) != 1 || slots.MentionedAreas[0] != "Katy" {
		t.Fatalf("mentioned areas = %v, want [Katy]", slots.MentionedAreas)
	}
	// The canned Katy insight covers lot pricing, schools, and the commute.
	for _, want := range []string{"lot pricing", "school", "commute"} {
		if !strings.Contains(text, want) {
			t.Errorf("Katy insight missing %q: %s", want, text)
		}
	}
}

func TestRespond_AreaAsk_UnknownAreaGenericPrompt(t *testing.T) {
	e := NewEngine()
	text, slots := e.Respond("what about Brookshire", datatypes.SlotMemory{})

	if len(slots.MentionedAreas) != 1 || slots.MentionedAreas[0] != "Brookshire" {
		t.Errorf("mentioned areas = %v, want [Brookshire]", slots.MentionedAreas)
	}
	if !strings.Contains(text, "Brookshire") {
		t.Errorf("generic area prompt must name the area, got: %s", text)
	}
}

func TestRespond_AreaAsk_AppendsInOrder(t *testing.T) {
	e := NewEngine()
	_, slots := e.Respond("tell me about Katy", datatypes.SlotMemory{})
	_, slots = e.Respond("what about Cypress", slots)

	want := []string{"Katy", "Cypress"}
	if len(slots.MentionedAreas) != 2 {
		t.Fatalf("mentioned areas = %v, want %v", slots.MentionedAreas, want)
	}
	for i := range want {
		if slots.MentionedAreas[i] != want[i] {
			t.Errorf("mentioned areas = %v, want %v", slots.MentionedAreas, want)
			break
		}
	}
}

// =============================================================================
// Bare-Yes Branch Tests
// =============================================================================

func TestRespond_YesAfterBuild_TakesBuildingBranch(t *testing.T) {
	e := NewEngine()
	_, slots := e.Respond("I want to build", datatypes.SlotMemory{})
	text, _ := e.Respond("yes", slots)

	for _, want := range []string{"lot", "teardown", "raw land"} {
		if !strings.Contains(text, want) {
			t.Errorf("yes-after-build must ask about land ownership, missing %q: %s", want, text)
		}
	}
	if strings.Contains(text, "Permit activity") {
		t.Errorf("yes-after-build took the permits branch: %s", text)
	}
}

func TestRespond_YesAfterPermitsTopic(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("yes", datatypes.SlotMemory{LastTopic: topicPermits})
	if !strings.Contains(text, "Permit activity") {
		t.Errorf("expected the permits branch, got: %s", text)
	}
}

func TestRespond_YesWithMentionedArea(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("sure", datatypes.SlotMemory{MentionedAreas: []string{"Katy"}})
	if !strings.Contains(text, "Katy") {
		t.Errorf("bare yes should follow up on the last mentioned area, got: %s", text)
	}
}

// =============================================================================
// Buy / Greeting / Fallback Tests
// =============================================================================

func TestRespond_BuyIntent_SetsGoal(t *testing.T) {
	e := NewEngine()
	_, slots := e.Respond("I'm looking to buy a house", datatypes.SlotMemory{})
	if slots.Goal != datatypes.GoalBuy {
		t.Errorf("goal = %q, want buy", slots.Goal)
	}
}

func TestRespond_Greeting(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("hello", datatypes.SlotMemory{})
	if !strings.Contains(text, "real-estate assistant") {
		t.Errorf("expected the greeting, got: %s", text)
	}
}

func TestRespond_Fallback_AvoidsReaskingKnownSlots(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("something unrelated entirely", datatypes.SlotMemory{Budget: 300_000})
	if !strings.Contains(text, "$300,000") {
		t.Errorf("fallback should acknowledge the known budget, got: %s", text)
	}
}

func TestRespond_Fallback_NoSlots(t *testing.T) {
	e := NewEngine()
	text, _ := e.Respond("something unrelated entirely", datatypes.SlotMemory{})
	if !strings.Contains(text, "budget") {
		t.Errorf("bare fallback should invite a budget or area, got: %s", text)
	}
}

// =============================================================================
// Normalization Tests
// =============================================================================

func TestRespond_TypoNormalizationIsNotPersisted(t *testing.T) {
	e := NewEngine()
	// "i sm" normalizes to "i am" for matching; the raw text is never
	// stored by the engine, so nothing to assert beyond not crashing and
	// the rule still matching.
	text, _ := e.Respond("i sm looking to buy a house", datatypes.SlotMemory{})
	if !strings.Contains(text, "budget") {
		t.Errorf("typo input should still reach the buy-intent rule, got: %s", text)
	}
}

func TestNormalize_WordBounded(t *testing.T) {
	// "teh" inside a longer word must not be rewritten.
	got := normalize("Whitehall is teh best")
	if !strings.Contains(got, "whitehall") {
		t.Errorf("normalization corrupted an embedded word: %q", got)
	}
	if !strings.Contains(got, " the best") {
		t.Errorf("standalone typo not fixed: %q", got)
	}
}

// =============================================================================
// Classifier Tests
// =============================================================================

func TestIsConversational(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"yes", true},
		{"nope", true},
		{"hello", true},
		{"I only have $150k", true},
		{"I have $150k, what can I do?", true},
		{"we could spend around 450k on the right property", true},
		{"I want to build a house", true},
		{"tell me about Katy", true},
		{"what else", true},
		{"Summarize the municipal bond issuance trends across the county over the last decade", false},
	}
	for _, tc := range cases {
		if got := IsConversational(tc.query); got != tc.want {
			t.Errorf("IsConversational(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

// =============================================================================
// KnownAreas Tests
// =============================================================================

func TestKnownAreas_SortedAndComplete(t *testing.T) {
	areas := KnownAreas()
	if len(areas) != len(areaInsights) {
		t.Fatalf("KnownAreas returned %d names, want %d", len(areas), len(areaInsights))
	}
	for i := 1; i < len(areas); i++ {
		if areas[i-1] >= areas[i] {
			t.Fatalf("KnownAreas not sorted: %v", areas)
		}
	}
}

func TestLookupAreaInsight_LeadingThe(t *testing.T) {
	if _, ok := lookupAreaInsight("The Heights"); !ok {
		t.Error("expected a leading-the lookup to resolve heights")
	}
}
