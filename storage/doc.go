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

// Package storage provides the storage abstractions used by the middlewares.
//
// # BlobStore
//
// Documents travel between middlewares as URLs. A BlobStore resolves s3://
// URLs to bytes and uploads derived documents:
//
//	store, err := s3.New(ctx, &awsconfig.Config{Region: "us-east-1"})
//	data, err := store.Get(ctx, event.Document().URL)
//	doc, err := store.Put(ctx, bucket, key, out, "text/plain")
//
// The memory package provides an in-process implementation for tests and
// local runs. Fetch reads s3:// URLs through a BlobStore and http(s) URLs
// directly.
//
// # Ledger
//
// Queues deliver at least once. A Ledger remembers the fingerprint of every
// message that was processed and published, so a redelivered copy is deleted
// without emitting duplicate events downstream. The badger package provides
// a ledger with per-entry TTL.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use by multiple goroutines.
package storage
