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

package core

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Document points at one object in storage.
type Document struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
	ETag string `json:"etag,omitempty"`
}

// S3URL builds an s3:// URL for the given bucket and key.
func S3URL(bucket, key string) string {
	return "s3://" + bucket + "/" + strings.TrimPrefix(key, "/")
}

// Location splits an s3://bucket/key URL into its unescaped bucket and key.
func (d Document) Location() (bucket, key string, err error) {
	return ParseS3URL(d.URL)
}

// Bucket returns the bucket of an s3 document, or "" for other schemes.
func (d Document) Bucket() string {
	bucket, _, err := d.Location()
	if err != nil {
		return ""
	}
	return bucket
}

// Key returns the object key of an s3 document, or "" for other schemes.
func (d Document) Key() string {
	_, key, err := d.Location()
	if err != nil {
		return ""
	}
	return key
}

// ParseS3URL splits an s3://bucket/key URL into its unescaped bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s", ErrNotS3URL, raw)
	}
	bucket, err = url.PathUnescape(u.Host)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	return bucket, key, nil
}

// Filename returns the last path segment of the document URL.
func (d Document) Filename() string {
	u, err := url.Parse(d.URL)
	if err != nil {
		return path.Base(d.URL)
	}
	return path.Base(u.Path)
}

// IsS3 reports whether the document lives in S3.
func (d Document) IsS3() bool {
	return strings.HasPrefix(d.URL, "s3://")
}
