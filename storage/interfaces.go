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

package storage

import (
	"context"
	"time"

	"github.com/poiesic/lakechain/core"
)

// BlobStore reads and writes documents in object storage.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Get returns the content of the object referenced by url.
	// Returns ErrNotFound if the object does not exist.
	Get(ctx context.Context, url string) ([]byte, error)

	// Put uploads data to bucket/key and returns the resulting document.
	// The returned ETag has its surrounding quotes stripped and Size is len(data).
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (core.Document, error)

	// SignedURL returns a time-limited URL that can be fetched without credentials.
	// URLs that are not object storage references are returned unchanged.
	SignedURL(ctx context.Context, url string, ttl time.Duration) (string, error)
}

// Ledger records messages that were fully handled so redelivered duplicates
// can be acknowledged without being processed twice.
type Ledger interface {
	// Seen reports whether an entry for key exists and has not expired.
	Seen(ctx context.Context, key core.Fingerprint) (bool, error)

	// Mark records a handled message. Entry.HandledAt is set if zero.
	Mark(ctx context.Context, entry *Entry) error

	// Get returns the entry for key.
	// Returns ErrNotFound if there is no live entry.
	Get(ctx context.Context, key core.Fingerprint) (*Entry, error)

	// Stats summarizes the live entries.
	Stats(ctx context.Context) (*LedgerStats, error)

	// Close releases the underlying resources.
	Close() error
}

// Entry is a ledger record for one handled message.
type Entry struct {
	Key       core.Fingerprint `json:"key"`
	MessageID string           `json:"messageId,omitempty"`
	ChainID   string           `json:"chainId"`
	Service   string           `json:"service"`
	Outputs   int              `json:"outputs"`
	HandledAt time.Time        `json:"handledAt"`
}

// LedgerStats describes the contents of a ledger.
type LedgerStats struct {
	Entries int            `json:"entries"`
	Outputs int            `json:"outputs"`
	Oldest  time.Time      `json:"oldest"`
	Newest  time.Time      `json:"newest"`
	Service map[string]int `json:"services"`
}
