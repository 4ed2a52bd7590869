// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger wraps a BadgerDB instance behind the small key/value
// surface the advisor needs: byte get/set with native TTL and periodic
// value-log GC. The DB is a service-global singleton opened at startup;
// callers share it and must not close it before shutdown.
package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// gcInterval is how often the background value-log GC runs. BadgerDB
// recommends periodic GC from exactly one goroutine per DB.
const gcInterval = 10 * time.Minute

// gcDiscardRatio reclaims a value-log file when at least this fraction of
// it is stale. 0.5 is the value recommended by the BadgerDB docs.
const gcDiscardRatio = 0.5

// DB wraps a BadgerDB handle with a logger and a GC loop.
//
// Thread Safety: Safe for concurrent use. BadgerDB transactions are
// per-goroutine.
type DB struct {
	db     *dgbadger.DB
	logger *slog.Logger
	stopGC chan struct{}
}

// Open opens (or creates) a BadgerDB at dir and starts the GC loop.
//
// Inputs:
//
//	dir    - Directory for the database files. Created if absent.
//	logger - Logger for GC diagnostics. May be nil.
//
// Outputs:
//
//	*DB   - The opened database. Never nil on success.
//	error - Non-nil if the directory cannot be opened or locked.
func Open(dir string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := dgbadger.DefaultOptions(dir)
	// Badger's own logger is chatty at INFO; route everything through slog
	// at debug level instead.
	opts = opts.WithLogger(nil)

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: opening %s: %w", dir, err)
	}

	d := &DB{db: db, logger: logger, stopGC: make(chan struct{})}
	go d.gcLoop()
	return d, nil
}

// Close stops the GC loop and closes the underlying database.
func (d *DB) Close() error {
	close(d.stopGC)
	return d.db.Close()
}

// Get retrieves the value stored under key.
//
// Outputs:
//
//	[]byte - A copy of the stored value. Nil when absent.
//	bool   - False when the key is absent or its TTL has expired.
//	error  - Non-nil only on storage failure, never on a plain miss.
func (d *DB) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := d.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger: get %q: %w", key, err)
	}
	return out, true, nil
}

// SetWithTTL stores value under key with the given lifetime. A zero ttl
// stores the entry without expiry.
func (d *DB) SetWithTTL(key, value []byte, ttl time.Duration) error {
	err := d.db.Update(func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(key, value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (d *DB) Delete(key []byte) error {
	err := d.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("badger: delete %q: %w", key, err)
	}
	return nil
}

// gcLoop periodically runs value-log GC until Close is called.
// ErrNoRewrite means there was nothing to reclaim and is not logged.
func (d *DB) gcLoop() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopGC:
			return
		case <-ticker.C:
			for {
				err := d.db.RunValueLogGC(gcDiscardRatio)
				if err == nil {
					continue
				}
				if !errors.Is(err, dgbadger.ErrNoRewrite) {
					d.logger.Debug("badger value-log GC", slog.String("error", err.Error()))
				}
				break
			}
		}
	}
}
