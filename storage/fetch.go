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
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxFetchSize bounds documents downloaded over http(s).
var maxFetchSize int64 = 256 << 20

// Fetch returns the content referenced by url. s3:// URLs are read through
// store; http and https URLs are downloaded with client (http.DefaultClient
// when nil).
func Fetch(ctx context.Context, store BlobStore, client *http.Client, url string) ([]byte, error) {
	switch {
	case strings.HasPrefix(url, "s3://"):
		if store == nil {
			return nil, fmt.Errorf("%w: no blob store for %s", ErrUnsupportedURL, url)
		}
		return store.Get(ctx, url)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return fetchHTTP(ctx, client, url)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	}
}

func fetchHTTP(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailed, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if int64(len(data)) > maxFetchSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, maxFetchSize)
	}
	return data, nil
}
