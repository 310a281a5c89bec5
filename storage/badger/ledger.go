// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/storage"
)

// DefaultTTL is how long handled messages are remembered. It comfortably
// exceeds the maximum SQS retention period of 14 days.
const DefaultTTL = 15 * 24 * time.Hour

// Ledger implements storage.Ledger for BadgerDB. Entries expire after ttl.
type Ledger struct {
	backend *Backend
	ttl     time.Duration
	owned   bool
}

var _ storage.Ledger = (*Ledger)(nil)

// NewLedger creates a Ledger on an existing backend. A ttl of zero disables expiry.
// The backend is not closed by Close.
func NewLedger(backend *Backend, ttl time.Duration) *Ledger {
	return &Ledger{
		backend: backend,
		ttl:     ttl,
	}
}

// OpenLedger opens a ledger stored at path. The returned ledger owns its backend.
func OpenLedger(path string, ttl time.Duration) (*Ledger, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening ledger at %s: %w", path, err)
	}
	ledger := NewLedger(backend, ttl)
	ledger.owned = true
	return ledger, nil
}

// Seen reports whether a live entry exists for key.
func (l *Ledger) Seen(ctx context.Context, key core.Fingerprint) (bool, error) {
	if l.backend.IsClosed() {
		return false, storage.ErrStorageClosed
	}
	seen := false
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeEntryKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		seen = true
		return nil
	}, false)
	return seen, err
}

// Mark records entry. HandledAt is set to the current time if zero.
func (l *Ledger) Mark(ctx context.Context, entry *storage.Entry) error {
	if l.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if entry.HandledAt.IsZero() {
		entry.HandledAt = time.Now().UTC()
	}
	value, err := storage.MarshalEntry(entry)
	if err != nil {
		return err
	}

	return l.backend.WithTx(func(tx *badger.Txn) error {
		e := badger.NewEntry(makeEntryKey(entry.Key), value)
		if l.ttl > 0 {
			e = e.WithTTL(l.ttl)
		}
		if err := tx.SetEntry(e); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Get returns the live entry for key.
func (l *Ledger) Get(ctx context.Context, key core.Fingerprint) (*storage.Entry, error) {
	if l.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var entry *storage.Entry
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalEntry(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Stats iterates the live entries and summarizes them.
func (l *Ledger) Stats(ctx context.Context) (*storage.LedgerStats, error) {
	if l.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	stats := &storage.LedgerStats{Service: map[string]int{}}

	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ledgerEntryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *storage.Entry
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				entry, unmarshalErr = storage.UnmarshalEntry(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}

			stats.Entries++
			stats.Outputs += entry.Outputs
			stats.Service[entry.Service]++
			if stats.Oldest.IsZero() || entry.HandledAt.Before(stats.Oldest) {
				stats.Oldest = entry.HandledAt
			}
			if entry.HandledAt.After(stats.Newest) {
				stats.Newest = entry.HandledAt
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close closes the backend if the ledger opened it.
func (l *Ledger) Close() error {
	if !l.owned || l.backend.IsClosed() {
		return nil
	}
	return l.backend.Close()
}
