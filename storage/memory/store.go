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

// Package memory provides an in-process storage.BlobStore for tests and
// local runs.
package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/storage"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
	ETag        string
}

// Store keeps objects in memory, keyed by bucket and key. It also implements
// http.Handler, serving GET /{bucket}/{key}, so that signed URLs can be
// fetched when BaseURL points at a server wrapping the store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object

	// BaseURL is the prefix of the URLs returned by SignedURL.
	BaseURL string
}

var (
	_ storage.BlobStore = (*Store)(nil)
	_ http.Handler      = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{
		objects: make(map[string]Object),
		BaseURL: "http://localhost",
	}
}

// Get returns a copy of the object referenced by an s3:// URL.
func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	bucket, key, err := core.ParseS3URL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnsupportedURL, err)
	}
	obj, ok := s.Object(bucket, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, url)
	}
	return obj.Data, nil
}

// Put stores a copy of data. The ETag is the hex MD5 of the content.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string) (core.Document, error) {
	sum := md5.Sum(data)
	etag := hex.EncodeToString(sum[:])

	s.mu.Lock()
	s.objects[bucket+"/"+key] = Object{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		ETag:        etag,
	}
	s.mu.Unlock()

	return core.Document{
		URL:  core.S3URL(bucket, key),
		Type: contentType,
		Size: int64(len(data)),
		ETag: etag,
	}, nil
}

// SignedURL maps s3://bucket/key to {BaseURL}/bucket/key. The ttl is ignored.
func (s *Store) SignedURL(ctx context.Context, url string, ttl time.Duration) (string, error) {
	if !strings.HasPrefix(url, "s3://") {
		return url, nil
	}
	bucket, key, err := core.ParseS3URL(url)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + bucket + "/" + key, nil
}

// Object returns a copy of the stored object.
func (s *Store) Object(bucket, key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[bucket+"/"+key]
	if !ok {
		return Object{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

// Keys lists stored objects as bucket/key.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// ServeHTTP serves stored objects at /{bucket}/{key}.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	obj, found := s.Object(bucket, key)
	if !found {
		http.NotFound(w, r)
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	_, _ = w.Write(obj.Data)
}
