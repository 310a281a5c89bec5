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

// Package article extracts the main article text from HTML pages.
package article

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// Processor replaces an HTML document with its readable text.
type Processor struct {
	env    *processors.Env
	logger *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates an article extraction processor.
func New(env *processors.Env) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	return &Processor{env: env, logger: env.Log("article")}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if doc.Type != "text/html" {
		return processors.Unsupported(doc)
	}
	data, err := p.env.Load(ctx, doc)
	if err != nil {
		return err
	}
	pageURL, err := url.Parse(doc.URL)
	if err != nil {
		return fmt.Errorf("invalid document url %s: %w", doc.URL, err)
	}
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return fmt.Errorf("failed to extract article from %s: %w", doc.URL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return fmt.Errorf("%w: no article found in %s", processors.ErrEmptyDocument, doc.URL)
	}
	key := path.Join(event.Data.ChainID, doc.ETag+".txt")
	stored, err := p.env.Put(ctx, key, []byte(text), "text/plain")
	if err != nil {
		return err
	}
	if err := event.Data.Metadata.MergeMissing(Metadata(article)); err != nil {
		return err
	}
	p.logger.Debug("article extracted", "url", doc.URL, "title", article.Title)
	return emit.Emit(ctx, event.WithDocument(stored))
}

// Metadata maps the fields readability found to document metadata.
func Metadata(article readability.Article) core.Metadata {
	meta := core.Metadata{}
	if byline := strings.TrimSpace(article.Byline); byline != "" {
		meta["authors"] = []string{byline}
	}
	if excerpt := processors.NormalizeSpace(article.Excerpt); excerpt != "" {
		meta["description"] = excerpt
	}
	if title := strings.TrimSpace(article.Title); title != "" {
		meta["title"] = title
	}
	if isAbsolute(article.Image) {
		meta["image"] = article.Image
	}
	if lang := strings.TrimSpace(article.Language); lang != "" {
		meta["language"] = lang
	}
	if article.PublishedTime != nil {
		meta["createdAt"] = article.PublishedTime.UTC().Format(time.RFC3339)
	}
	return meta
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
