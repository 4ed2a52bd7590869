// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(time.Hour, 0, nil)
	t.Cleanup(s.Close)
	return s
}

// =============================================================================
// Get / Append
// =============================================================================

func TestMemoryStore_GetUnknownIDReturnsEmptyContext(t *testing.T) {
	s := newTestStore(t)

	sctx, err := s.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(sctx.Turns) != 0 {
		t.Errorf("expected no turns, got %d", len(sctx.Turns))
	}
	if sctx.Slots.Budget != 0 || sctx.Slots.Goal != "" {
		t.Errorf("expected zero-value slots, got %+v", sctx.Slots)
	}
	if s.Len() != 0 {
		t.Errorf("Get must not create sessions; Len() = %d", s.Len())
	}
}

func TestMemoryStore_AppendCreatesSessionAndOrdersTurns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "s1", "hello", "hi there"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, "s1", "my budget is $150k", "noted"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	sctx, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(sctx.Turns) != 4 {
		t.Fatalf("expected 4 turns (2 pairs), got %d", len(sctx.Turns))
	}
	wantRoles := []datatypes.Role{
		datatypes.RoleUser, datatypes.RoleAssistant,
		datatypes.RoleUser, datatypes.RoleAssistant,
	}
	for i, want := range wantRoles {
		if sctx.Turns[i].Role != want {
			t.Errorf("turn %d role = %q, want %q", i, sctx.Turns[i].Role, want)
		}
	}
	if sctx.Turns[2].Text != "my budget is $150k" {
		t.Errorf("turn 2 text = %q", sctx.Turns[2].Text)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStore_MaxTurnsTrimsOldestFirst(t *testing.T) {
	s := NewMemoryStore(time.Hour, 4, nil)
	defer s.Close()
	ctx := context.Background()

	if err := s.Append(ctx, "s1", "first", "a1"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, "s1", "second", "a2"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, "s1", "third", "a3"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	sctx, _ := s.Get(ctx, "s1")
	if len(sctx.Turns) != 4 {
		t.Fatalf("expected trim to 4 turns, got %d", len(sctx.Turns))
	}
	if sctx.Turns[0].Text != "second" {
		t.Errorf("oldest surviving turn = %q, want %q", sctx.Turns[0].Text, "second")
	}
	if sctx.Turns[2].Text != "third" {
		t.Errorf("turn 2 = %q, want %q", sctx.Turns[2].Text, "third")
	}
}

// Get hands out copies; mutating a returned context must not leak into the
// store.
func TestMemoryStore_GetReturnsIndependentCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "s1", "hello", "hi"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.UpdateSlots(ctx, "s1", func(m *datatypes.SlotMemory) {
		m.MentionedAreas = append(m.MentionedAreas, "katy")
	}); err != nil {
		t.Fatalf("UpdateSlots() error = %v", err)
	}

	first, _ := s.Get(ctx, "s1")
	first.Turns[0].Text = "tampered"
	first.Slots.MentionedAreas[0] = "tampered"
	first.Slots.Budget = 999

	second, _ := s.Get(ctx, "s1")
	if second.Turns[0].Text != "hello" {
		t.Errorf("turn text mutated through returned copy: %q", second.Turns[0].Text)
	}
	if second.Slots.MentionedAreas[0] != "katy" {
		t.Errorf("slot slice mutated through returned copy: %v", second.Slots.MentionedAreas)
	}
	if second.Slots.Budget != 0 {
		t.Errorf("budget mutated through returned copy: %v", second.Slots.Budget)
	}
}

// =============================================================================
// UpdateSlots
// =============================================================================

func TestMemoryStore_UpdateSlotsCreatesSessionOnFirstUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateSlots(ctx, "fresh", func(m *datatypes.SlotMemory) {
		m.Budget = 150000
		m.Goal = datatypes.GoalBuy
	})
	if err != nil {
		t.Fatalf("UpdateSlots() error = %v", err)
	}

	sctx, _ := s.Get(ctx, "fresh")
	if sctx.Slots.Budget != 150000 {
		t.Errorf("Budget = %v, want 150000", sctx.Slots.Budget)
	}
	if sctx.Slots.Goal != datatypes.GoalBuy {
		t.Errorf("Goal = %q, want %q", sctx.Slots.Goal, datatypes.GoalBuy)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

// A slot update that sets nothing must leave previously extracted slots
// intact. This is the store-level half of the never-clear guarantee; the
// extraction rules hold up the other half.
func TestMemoryStore_UpdateSlotsNoOpPreservesExistingSlots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpdateSlots(ctx, "s1", func(m *datatypes.SlotMemory) {
		m.Budget = 150000
		m.Goal = datatypes.GoalBuild
		m.MentionedAreas = []string{"katy"}
		m.LastTopic = "building"
	}); err != nil {
		t.Fatalf("UpdateSlots() error = %v", err)
	}

	// Later pass with nothing to extract.
	if err := s.UpdateSlots(ctx, "s1", func(m *datatypes.SlotMemory) {}); err != nil {
		t.Fatalf("UpdateSlots() error = %v", err)
	}

	sctx, _ := s.Get(ctx, "s1")
	if sctx.Slots.Budget != 150000 {
		t.Errorf("Budget cleared: %v", sctx.Slots.Budget)
	}
	if sctx.Slots.Goal != datatypes.GoalBuild {
		t.Errorf("Goal cleared: %q", sctx.Slots.Goal)
	}
	if sctx.Slots.LastMentionedArea() != "katy" {
		t.Errorf("MentionedAreas cleared: %v", sctx.Slots.MentionedAreas)
	}
	if sctx.Slots.LastTopic != "building" {
		t.Errorf("LastTopic cleared: %q", sctx.Slots.LastTopic)
	}
}

// =============================================================================
// Eviction Sweep
// =============================================================================

func TestMemoryStore_SweepEvictsIdleSessionsOnly(t *testing.T) {
	s := NewMemoryStore(time.Minute, 0, nil)
	defer s.Close()
	ctx := context.Background()

	if err := s.Append(ctx, "stale", "hello", "hi"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, "fresh", "hello", "hi"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Backdate the stale session past the TTL.
	s.mu.Lock()
	s.sessions["stale"].UpdatedAt = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	s.sweep(time.Now())

	if s.Len() != 1 {
		t.Fatalf("Len() after sweep = %d, want 1", s.Len())
	}
	sctx, _ := s.Get(ctx, "stale")
	if len(sctx.Turns) != 0 {
		t.Errorf("stale session survived sweep")
	}
	sctx, _ = s.Get(ctx, "fresh")
	if len(sctx.Turns) != 2 {
		t.Errorf("fresh session evicted")
	}
}

func TestMemoryStore_ActivityResetsIdleClock(t *testing.T) {
	s := NewMemoryStore(time.Minute, 0, nil)
	defer s.Close()
	ctx := context.Background()

	if err := s.Append(ctx, "s1", "hello", "hi"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	s.mu.Lock()
	s.sessions["s1"].UpdatedAt = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	// A new turn before the sweep refreshes UpdatedAt.
	if err := s.Append(ctx, "s1", "still here", "good"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	s.sweep(time.Now())

	if s.Len() != 1 {
		t.Errorf("active session evicted; Len() = %d", s.Len())
	}
}

// =============================================================================
// Concurrency
// =============================================================================

func TestMemoryStore_ConcurrentAppendAcrossSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if err := s.Append(ctx, id, "q", "a"); err != nil {
					t.Errorf("Append(%s) error = %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		sctx, _ := s.Get(ctx, id)
		if len(sctx.Turns) != 50 {
			t.Errorf("session %s has %d turns, want 50", id, len(sctx.Turns))
		}
	}
}

func TestGuard_SerializesSameSession(t *testing.T) {
	g := NewGuard()

	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := g.Acquire("same-id")
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Errorf("guard admitted %d goroutines for one session id", maxInCritical)
	}
}

// =============================================================================
// Context Helpers
// =============================================================================

func TestContext_LastTurns(t *testing.T) {
	c := &Context{Turns: []datatypes.Turn{
		{Text: "t0"}, {Text: "t1"}, {Text: "t2"}, {Text: "t3"},
	}}

	got := c.LastTurns(2)
	if len(got) != 2 || got[0].Text != "t2" || got[1].Text != "t3" {
		t.Errorf("LastTurns(2) = %v", got)
	}
	if got := c.LastTurns(10); len(got) != 4 {
		t.Errorf("LastTurns(10) returned %d turns, want all 4", len(got))
	}
	if got := c.LastTurns(0); len(got) != 4 {
		t.Errorf("LastTurns(0) returned %d turns, want all 4", len(got))
	}
}
