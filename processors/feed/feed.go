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

// Package feed expands RSS, Atom and JSON feeds into one document per item.
package feed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

const (
	// MaxDescription is the rune limit of item descriptions.
	MaxDescription = 1024

	signedURLTTL = 5 * time.Minute
)

var feedTypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/feed+json": true,
	"application/xml":       true,
	"text/xml":              true,
}

// IsFeed reports whether mimeType is a feed content type.
func IsFeed(mimeType string) bool {
	return feedTypes[mimeType]
}

// Processor emits one text/html document per feed item.
type Processor struct {
	env    *processors.Env
	logger *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a feed processor.
func New(env *processors.Env) (*Processor, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &Processor{env: env, logger: env.Log("feed")}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, IsFeed); err != nil {
		return err
	}
	feed, err := p.parse(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to parse feed %s: %w", doc.URL, err)
	}
	language := Language(feed.Language)

	emitted := 0
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		out, err := event.Clone()
		if err != nil {
			return err
		}
		out.WithDocument(core.Document{
			URL:  item.Link,
			Type: "text/html",
			ETag: ItemID(item),
		})
		if err := out.Data.Metadata.Merge(ItemMetadata(item, language)); err != nil {
			return err
		}
		if err := emit.Emit(ctx, out); err != nil {
			return err
		}
		emitted++
	}
	p.logger.Debug("feed expanded", "url", doc.URL, "items", emitted)
	return nil
}

// parse fetches the feed through a short-lived signed URL for s3 documents.
func (p *Processor) parse(ctx context.Context, doc core.Document) (*gofeed.Feed, error) {
	url := doc.URL
	if doc.IsS3() {
		signed, err := p.env.Store.SignedURL(ctx, doc.URL, signedURLTTL)
		if err != nil {
			return nil, err
		}
		url = signed
	}
	parser := gofeed.NewParser()
	if p.env.HTTPClient != nil {
		parser.Client = p.env.HTTPClient
	}
	return parser.ParseURLWithContext(url, ctx)
}

// ItemID returns the sha1 hex digest of the item GUID, or of its link when
// the feed has no GUIDs.
func ItemID(item *gofeed.Item) string {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	sum := sha1.Sum([]byte(id))
	return hex.EncodeToString(sum[:])
}

// ItemMetadata builds the metadata of one feed item.
func ItemMetadata(item *gofeed.Item, language string) core.Metadata {
	meta := core.Properties(core.KindText, nil)
	if title := strings.TrimSpace(item.Title); title != "" {
		meta["title"] = title
	}
	if desc := processors.NormalizeSpace(processors.HTMLToText(item.Description)); desc != "" {
		meta["description"] = processors.Truncate(desc, MaxDescription)
	}
	if item.PublishedParsed != nil {
		meta["createdAt"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		meta["updatedAt"] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	var authors []string
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			authors = append(authors, author.Name)
		}
	}
	if len(authors) > 0 {
		meta["authors"] = authors
	}
	if len(item.Categories) > 0 {
		meta["keywords"] = item.Categories
	}
	if language != "" {
		meta["language"] = language
	}
	return meta
}

// Language reduces a feed language tag such as en-US to its primary subtag.
func Language(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	primary, _, _ := strings.Cut(strings.ReplaceAll(tag, "_", "-"), "-")
	return primary
}
