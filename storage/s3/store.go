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

// Package s3 implements storage.BlobStore on Amazon S3 and S3-compatible
// object stores.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/poiesic/lakechain/awsconfig"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/storage"
)

// DefaultSignedURLTTL is used when SignedURL is called with a zero ttl.
const DefaultSignedURLTTL = 60 * time.Minute

// Store is an S3-backed storage.BlobStore.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	logger  *slog.Logger
}

var _ storage.BlobStore = (*Store)(nil)

// New creates a Store from AWS connection settings.
func New(ctx context.Context, cfg *awsconfig.Config) (*Store, error) {
	awsCfg, err := awsconfig.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg != nil {
			o.UsePathStyle = cfg.UsePathStyle
			if endpoint := cfg.BaseEndpoint(); endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}
	})
	return NewFromClient(client), nil
}

// NewFromClient wraps an existing S3 client.
func NewFromClient(client *s3.Client) *Store {
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  slog.Default().With("component", "s3-store"),
	}
}

// Get downloads the object referenced by an s3:// URL.
func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	bucket, key, err := core.ParseS3URL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnsupportedURL, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		var notFound *s3types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, url)
		}
		return nil, fmt.Errorf("getting %s: %w", url, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	s.logger.Debug("downloaded object", "bucket", bucket, "key", key, "size", len(data))
	return data, nil
}

// Put uploads data and returns the resulting document.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string) (core.Document, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return core.Document{}, fmt.Errorf("putting s3://%s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("uploaded object", "bucket", bucket, "key", key, "size", len(data))
	return core.Document{
		URL:  core.S3URL(bucket, key),
		Type: contentType,
		Size: int64(len(data)),
		ETag: strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

// SignedURL presigns a GET request for an s3:// URL. Other URLs are returned as is.
func (s *Store) SignedURL(ctx context.Context, url string, ttl time.Duration) (string, error) {
	if !strings.HasPrefix(url, "s3://") {
		return url, nil
	}
	bucket, key, err := core.ParseS3URL(url)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(options *s3.PresignOptions) {
		options.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", url, err)
	}
	return request.URL, nil
}
