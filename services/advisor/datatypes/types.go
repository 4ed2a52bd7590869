// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the shared value types exchanged between the
// advisor pipeline stages. It must not import any other advisor package.
package datatypes

import "time"

// =============================================================================
// Conversation Types
// =============================================================================

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single utterance in a session. Immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is the provider-agnostic chat message sent to a generative backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Goal is the user's stated real-estate objective, extracted from dialogue.
type Goal string

const (
	GoalUnset  Goal = ""
	GoalBuy    Goal = "buy"
	GoalBuild  Goal = "build"
	GoalInvest Goal = "invest"
	GoalSell   Goal = "sell"
)

// SlotMemory holds the named context fields extracted from a session's
// utterances.
//
// Invariant: a slot is only overwritten by an explicit extraction for that
// slot. The absence of a match on a later turn never clears an existing
// value. MentionedAreas is append-only.
type SlotMemory struct {
	// Budget is the user's stated budget in whole currency units.
	// Zero means "not yet mentioned".
	Budget float64 `json:"budget,omitempty"`

	// Goal is the extracted objective (buy/build/invest/sell).
	Goal Goal `json:"goal,omitempty"`

	// MentionedAreas lists area names the user has asked about, in order.
	MentionedAreas []string `json:"mentioned_areas,omitempty"`

	// LastTopic is a free-form label set by the last handled intent,
	// e.g. "building" or "low-budget". Used to resolve bare follow-ups.
	LastTopic string `json:"last_topic,omitempty"`
}

// Clone returns a deep copy. Callers that hand slots to rule handlers use
// this so a handler can never alias the stored slice.
func (s SlotMemory) Clone() SlotMemory {
	out := s
	if len(s.MentionedAreas) > 0 {
		out.MentionedAreas = append([]string(nil), s.MentionedAreas...)
	}
	return out
}

// LastMentionedArea returns the most recently mentioned area, or "".
func (s SlotMemory) LastMentionedArea() string {
	if len(s.MentionedAreas) == 0 {
		return ""
	}
	return s.MentionedAreas[len(s.MentionedAreas)-1]
}

// Session is one conversation: an ordered turn history plus slot memory.
type Session struct {
	ID        string     `json:"id"`
	Turns     []Turn     `json:"turns"`
	Slots     SlotMemory `json:"slots"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// =============================================================================
// Answer Types
// =============================================================================

// SuggestedAction is a follow-up the caller can render as a button or chip.
type SuggestedAction struct {
	Label       string `json:"label"`
	ActionToken string `json:"action_token"`
}

// AnswerCandidate is the caller-facing response contract. Exactly one is
// returned per query; Confidence is always within [0, 1].
type AnswerCandidate struct {
	Text             string            `json:"text"`
	Confidence       float64           `json:"confidence"`
	Sources          []string          `json:"sources,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

// CuratedEntry is one question/answer pair in the static curated corpus.
// Read-only at query time.
type CuratedEntry struct {
	Question   string  `yaml:"question" json:"question"`
	Answer     string  `yaml:"answer" json:"answer"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}
