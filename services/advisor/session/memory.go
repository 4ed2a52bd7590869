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
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// sweepInterval is how often the idle sweeper scans for expired sessions.
const sweepInterval = 5 * time.Minute

// MemoryStore is the in-process session store: a map guarded by a mutex with
// an idle-TTL eviction sweeper. Session memory is volatile within the
// process lifetime; durable persistence is the BadgerStore's job.
//
// Thread Safety: Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*datatypes.Session

	idleTTL  time.Duration
	maxTurns int
	logger   *slog.Logger

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its eviction sweeper.
//
// Inputs:
//
//	idleTTL  - Sessions idle longer than this are evicted. Zero or negative
//	           defaults to 24h.
//	maxTurns - Per-session turn cap; oldest turns drop first. Zero means
//	           unbounded.
//	logger   - Logger for eviction diagnostics. May be nil.
func NewMemoryStore(idleTTL time.Duration, maxTurns int, logger *slog.Logger) *MemoryStore {
	if idleTTL <= 0 {
		idleTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &MemoryStore{
		sessions:  make(map[string]*datatypes.Session),
		idleTTL:   idleTTL,
		maxTurns:  maxTurns,
		logger:    logger,
		stopSweep: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Close stops the eviction sweeper. The store remains usable afterwards but
// no longer evicts.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopSweep) })
}

// Get implements Store. Never returns an error: an in-process map cannot be
// unavailable.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return &Context{}, nil
	}
	return &Context{
		Turns: append([]datatypes.Turn(nil), sess.Turns...),
		Slots: sess.Slots.Clone(),
	}, nil
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, sessionID, userText, assistantText string) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(sessionID, now)
	sess.Turns = append(sess.Turns,
		datatypes.Turn{Role: datatypes.RoleUser, Text: userText, Timestamp: now},
		datatypes.Turn{Role: datatypes.RoleAssistant, Text: assistantText, Timestamp: now},
	)
	if s.maxTurns > 0 && len(sess.Turns) > s.maxTurns {
		sess.Turns = append([]datatypes.Turn(nil), sess.Turns[len(sess.Turns)-s.maxTurns:]...)
	}
	sess.UpdatedAt = now
	return nil
}

// UpdateSlots implements Store.
func (s *MemoryStore) UpdateSlots(_ context.Context, sessionID string, fn func(*datatypes.SlotMemory)) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(sessionID, now)
	fn(&sess.Slots)
	sess.UpdatedAt = now
	return nil
}

// Len reports the number of live sessions. Used by tests and the readiness
// handler.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) getOrCreateLocked(sessionID string, now time.Time) *datatypes.Session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &datatypes.Session{ID: sessionID, CreatedAt: now, UpdatedAt: now}
		s.sessions[sessionID] = sess
		sessionsCreated.Inc()
	}
	return sess
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep evicts sessions idle past the TTL. Exported to tests via sweep_test
// helpers only; production callers rely on the loop.
func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.idleTTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		sessionsEvicted.Add(float64(evicted))
		s.logger.Debug("evicted idle sessions",
			slog.Int("evicted", evicted),
			slog.Int("remaining", len(s.sessions)),
		)
	}
}
