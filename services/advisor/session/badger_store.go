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

// =============================================================================
// BadgerStore: Durable Session Persistence
// =============================================================================
//
// Sessions survive process restarts when a badger directory is configured.
// Design choices:
//
//	1. Gob encoding: sessions are small (a few KB of turns and slots) and
//	   only this process reads them back, so a compact self-describing Go
//	   encoding beats JSON here.
//
//	2. Badger native TTL as the eviction lifecycle: every write refreshes
//	   the entry TTL, so the idle clock restarts on activity and expired
//	   sessions disappear via Badger's GC with no sweeper of our own.
//
//	3. Read-modify-write without a transaction loop: the resolver holds the
//	   per-session Guard for the whole pass, so there is exactly one writer
//	   per session id and no write conflict to retry.

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
	badgerstore "github.com/AleutianAI/Harborview/services/advisor/storage/badger"
)

// sessionKeyPrefix is prepended to the session id to form the badger key.
// Versioned (v1) to allow future format changes without collision.
const sessionKeyPrefix = "session/v1/"

// BadgerStore implements Store backed by a shared BadgerDB instance.
//
// The DB is opened by the caller (typically in main) and must outlive the
// store; the store does not own the DB lifecycle.
//
// Thread Safety: Safe for concurrent use across session ids. Same-id calls
// are serialized by the resolver's Guard.
type BadgerStore struct {
	db      *badgerstore.DB
	idleTTL time.Duration
	logger  *slog.Logger
}

// NewBadgerStore creates a BadgerStore.
//
// Inputs:
//
//	db      - Opened badger wrapper. Must not be nil.
//	idleTTL - Entry lifetime, refreshed on every write. Zero or negative
//	          defaults to 24h.
//	logger  - May be nil.
func NewBadgerStore(db *badgerstore.DB, idleTTL time.Duration, logger *slog.Logger) *BadgerStore {
	if db == nil {
		panic("NewBadgerStore: db must not be nil")
	}
	if idleTTL <= 0 {
		idleTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, idleTTL: idleTTL, logger: logger}
}

// Get implements Store. A missing or expired key yields an empty context;
// only a storage or decode failure returns an error.
func (b *BadgerStore) Get(_ context.Context, sessionID string) (*Context, error) {
	sess, found, err := b.load(sessionID)
	if err != nil {
		storeFailures.WithLabelValues("get").Inc()
		return nil, err
	}
	if !found {
		return &Context{}, nil
	}
	return &Context{Turns: sess.Turns, Slots: sess.Slots.Clone()}, nil
}

// Append implements Store.
func (b *BadgerStore) Append(_ context.Context, sessionID, userText, assistantText string) error {
	now := time.Now()
	sess, found, err := b.load(sessionID)
	if err != nil {
		storeFailures.WithLabelValues("append").Inc()
		return err
	}
	if !found {
		sess = &datatypes.Session{ID: sessionID, CreatedAt: now}
		sessionsCreated.Inc()
	}
	sess.Turns = append(sess.Turns,
		datatypes.Turn{Role: datatypes.RoleUser, Text: userText, Timestamp: now},
		datatypes.Turn{Role: datatypes.RoleAssistant, Text: assistantText, Timestamp: now},
	)
	sess.UpdatedAt = now
	if err := b.save(sess); err != nil {
		storeFailures.WithLabelValues("append").Inc()
		return err
	}
	return nil
}

// UpdateSlots implements Store.
func (b *BadgerStore) UpdateSlots(_ context.Context, sessionID string, fn func(*datatypes.SlotMemory)) error {
	now := time.Now()
	sess, found, err := b.load(sessionID)
	if err != nil {
		storeFailures.WithLabelValues("update_slots").Inc()
		return err
	}
	if !found {
		sess = &datatypes.Session{ID: sessionID, CreatedAt: now}
		sessionsCreated.Inc()
	}
	fn(&sess.Slots)
	sess.UpdatedAt = now
	if err := b.save(sess); err != nil {
		storeFailures.WithLabelValues("update_slots").Inc()
		return err
	}
	return nil
}

func (b *BadgerStore) load(sessionID string) (*datatypes.Session, bool, error) {
	raw, found, err := b.db.Get([]byte(sessionKeyPrefix + sessionID))
	if err != nil {
		return nil, false, fmt.Errorf("session: loading %s: %w", sessionID, err)
	}
	if !found {
		return nil, false, nil
	}
	var sess datatypes.Session
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&sess); err != nil {
		// A corrupt entry is unrecoverable; treat it as absent so the
		// session restarts cleanly rather than failing every turn.
		b.logger.Warn("discarding corrupt session entry",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, false, nil
	}
	return &sess, true, nil
}

func (b *BadgerStore) save(sess *datatypes.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sess); err != nil {
		return fmt.Errorf("session: encoding %s: %w", sess.ID, err)
	}
	if err := b.db.SetWithTTL([]byte(sessionKeyPrefix+sess.ID), buf.Bytes(), b.idleTTL); err != nil {
		return fmt.Errorf("session: saving %s: %w", sess.ID, err)
	}
	return nil
}
