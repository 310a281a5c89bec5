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

package processors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/storage"
)

// Env carries the dependencies every processor shares.
type Env struct {
	// Service is the deployed service name. Some processors use it as an
	// output key prefix.
	Service string

	// Store reads input documents and stores derived ones.
	Store storage.BlobStore

	// HTTPClient downloads documents referenced by http(s) URLs.
	// http.DefaultClient is used when nil.
	HTTPClient *http.Client

	// TargetBucket receives derived documents.
	TargetBucket string

	// CacheBucket receives intermediate artifacts such as embedding vectors.
	CacheBucket string

	Logger *slog.Logger
}

// Validate checks the fields every processor needs.
func (e *Env) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: env is nil", ErrInvalidEnv)
	}
	if e.Service == "" {
		return fmt.Errorf("%w: service name is required", ErrInvalidEnv)
	}
	if e.Store == nil {
		return fmt.Errorf("%w: blob store is required", ErrInvalidEnv)
	}
	return nil
}

// RequireTarget validates the env for processors that write to the target bucket.
func (e *Env) RequireTarget() error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.TargetBucket == "" {
		return fmt.Errorf("%w: target bucket is required", ErrInvalidEnv)
	}
	return nil
}

// RequireCache validates the env for processors that write to the cache bucket.
func (e *Env) RequireCache() error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.CacheBucket == "" {
		return fmt.Errorf("%w: cache bucket is required", ErrInvalidEnv)
	}
	return nil
}

// Log returns the env logger tagged with the processor name.
func (e *Env) Log(processor string) *slog.Logger {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "processor", "processor", processor, "service", e.Service)
}

// Load returns the content of doc.
func (e *Env) Load(ctx context.Context, doc core.Document) ([]byte, error) {
	data, err := storage.Fetch(ctx, e.Store, e.HTTPClient, doc.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", doc.URL, err)
	}
	return data, nil
}

// LoadText returns the content of doc as a string.
func (e *Env) LoadText(ctx context.Context, doc core.Document) (string, error) {
	data, err := e.Load(ctx, doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Put stores data in the target bucket.
func (e *Env) Put(ctx context.Context, key string, data []byte, contentType string) (core.Document, error) {
	doc, err := e.Store.Put(ctx, e.TargetBucket, key, data, contentType)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	return doc, nil
}

// PutCache stores data in the cache bucket.
func (e *Env) PutCache(ctx context.Context, key string, data []byte, contentType string) (core.Document, error) {
	doc, err := e.Store.Put(ctx, e.CacheBucket, key, data, contentType)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return doc, nil
}

// Unsupported returns an ErrUnsupportedType error for doc.
func Unsupported(doc core.Document) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedType, doc.Type)
}

// Require returns an ErrUnsupportedType error unless one of accept matches
// the document type.
func Require(doc core.Document, accept ...func(string) bool) error {
	for _, ok := range accept {
		if ok(doc.Type) {
			return nil
		}
	}
	return Unsupported(doc)
}
