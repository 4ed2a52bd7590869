// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session holds per-session conversational memory: the ordered turn
// history and the slot memory extracted from it.
//
// Stores are deliberately forgiving: a failed read degrades to an empty
// context (stateless mode) at the caller, and turn/slot writes for the same
// session are serialized by the resolver via Guard, so implementations may
// assume a single writer per session id.
package session

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "session",
		Name:      "created_total",
		Help:      "Sessions created on first turn",
	})

	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "session",
		Name:      "evicted_total",
		Help:      "Sessions evicted by the idle-TTL sweeper",
	})

	storeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harborview",
		Subsystem: "session",
		Name:      "store_failures_total",
		Help:      "Session store operation failures by operation: get, append, update_slots",
	}, []string{"op"})
)

// =============================================================================
// Store Interface
// =============================================================================

// Context is the conversational state handed to the resolver: the turn
// history and a copy of the slot memory. Mutating it does not affect the
// store.
type Context struct {
	Turns []datatypes.Turn
	Slots datatypes.SlotMemory
}

// LastTurns returns at most n trailing turns.
func (c *Context) LastTurns(n int) []datatypes.Turn {
	if n <= 0 || len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// Store persists session state keyed by session id.
//
// Implementations must treat an unknown session id as an empty session, not
// an error. All methods may assume the caller holds the session's Guard
// slot for the duration of a resolution pass.
//
// Thread Safety: Implementations must be safe for concurrent use across
// different session ids.
type Store interface {
	// Get returns the session's context. Unknown ids yield an empty
	// context. A non-nil error means the backing store is unavailable;
	// the caller degrades to stateless mode.
	Get(ctx context.Context, sessionID string) (*Context, error)

	// Append adds a (user, assistant) turn pair, creating the session on
	// first use.
	Append(ctx context.Context, sessionID, userText, assistantText string) error

	// UpdateSlots applies fn to the session's slot memory in place,
	// creating the session on first use. fn must only set slots it has an
	// explicit extraction for; absence of a match never clears a slot.
	UpdateSlots(ctx context.Context, sessionID string, fn func(*datatypes.SlotMemory)) error
}

// =============================================================================
// Per-Session Serialization
// =============================================================================

// guardStripes is the number of mutex stripes. Sessions hash onto stripes,
// so two distinct ids may share a stripe; that only costs unneeded
// serialization, never a correctness problem.
const guardStripes = 64

// Guard serializes resolution passes per session id. Concurrent turns for
// the same session race on slot writes; the resolver acquires the guard for
// the whole pass so only one resolution per session is in flight. Turns for
// different sessions proceed independently.
//
// Thread Safety: Safe for concurrent use.
type Guard struct {
	stripes [guardStripes]sync.Mutex
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Acquire locks the stripe for sessionID and returns the release function.
// Callers must release exactly once, typically via defer.
func (g *Guard) Acquire(sessionID string) func() {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	m := &g.stripes[h.Sum32()%guardStripes]
	m.Lock()
	return m.Unlock
}
