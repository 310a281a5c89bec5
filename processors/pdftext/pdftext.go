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

// Package pdftext extracts text and document metadata from PDF files.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// Segmentation selects how a PDF is split into output documents.
type Segmentation string

const (
	// SegmentDocument emits one text document for the whole file.
	SegmentDocument Segmentation = "document"
	// SegmentPage emits one text document per page.
	SegmentPage Segmentation = "page"
)

// ParseSegmentation parses a segmentation name. The empty string selects
// SegmentDocument.
func ParseSegmentation(s string) (Segmentation, error) {
	switch Segmentation(strings.ToLower(strings.TrimSpace(s))) {
	case "", SegmentDocument:
		return SegmentDocument, nil
	case SegmentPage:
		return SegmentPage, nil
	}
	return "", fmt.Errorf("%w: unknown segmentation %q", processors.ErrInvalidEnv, s)
}

// OutputType selects what is written for each segment.
type OutputType string

const (
	// OutputText writes the extracted plain text.
	OutputText OutputType = "text"
	// OutputPDF writes each page as a standalone PDF. Page segmentation only.
	OutputPDF OutputType = "pdf"
)

// ParseOutputType parses an output type name. The empty string selects
// OutputText.
func ParseOutputType(s string) (OutputType, error) {
	switch OutputType(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputPDF:
		return OutputPDF, nil
	}
	return "", fmt.Errorf("%w: unknown output type %q", processors.ErrInvalidEnv, s)
}

// Config controls how PDF documents are split and what is emitted.
type Config struct {
	Segmentation Segmentation
	Output       OutputType
	// Layout adds attrs.layout with image and table counts.
	Layout bool
}

// Validate fills defaults and rejects unknown or unsupported combinations.
func (c *Config) Validate() error {
	if c.Segmentation == "" {
		c.Segmentation = SegmentDocument
	}
	if c.Output == "" {
		c.Output = OutputText
	}
	if c.Segmentation != SegmentDocument && c.Segmentation != SegmentPage {
		return fmt.Errorf("%w: unknown segmentation %q", processors.ErrInvalidEnv, c.Segmentation)
	}
	if c.Output != OutputText && c.Output != OutputPDF {
		return fmt.Errorf("%w: unknown output type %q", processors.ErrInvalidEnv, c.Output)
	}
	if c.Output == OutputPDF && c.Segmentation != SegmentPage {
		return fmt.Errorf("%w: pdf output requires page segmentation", processors.ErrInvalidEnv)
	}
	return nil
}

const pdfDateLayout = "20060102150405"

// minParagraph is the shortest paragraph kept in extracted text.
const minParagraph = 6

// Processor converts PDF documents to text or single page PDFs.
type Processor struct {
	env    *processors.Env
	config Config
	logger *slog.Logger
	newID  func() string
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a PDF processor.
func New(env *processors.Env, config Config) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		env:    env,
		config: config,
		logger: env.Log("pdftext"),
		newID:  uuid.NewString,
	}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if doc.Type != "application/pdf" {
		return processors.Unsupported(doc)
	}
	data, err := p.env.Load(ctx, doc)
	if err != nil {
		return err
	}
	file, err := Open(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", doc.URL, err)
	}

	if p.config.Segmentation == SegmentPage {
		return p.emitPages(ctx, event, data, file, emit)
	}
	return p.emitDocument(ctx, event, file, emit)
}

func (p *Processor) emitDocument(ctx context.Context, event *core.Event, file *File, emit middleware.Emitter) error {
	text, err := file.Text()
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s-%s-output", event.Document().ETag, event.Data.ChainID, p.newID())
	stored, err := p.env.Put(ctx, key, []byte(text), "text/plain")
	if err != nil {
		return err
	}
	if !event.Metadata().HasAttr("pages") {
		if err := event.Data.Metadata.Merge(file.Metadata()); err != nil {
			return err
		}
	}
	if p.config.Layout && !event.Metadata().HasAttr("layout") {
		if err := event.Data.Metadata.Merge(file.Layout().Metadata()); err != nil {
			return err
		}
	}
	return emit.Emit(ctx, event.WithDocument(stored))
}

func (p *Processor) emitPages(ctx context.Context, event *core.Event, data []byte, file *File, emit middleware.Emitter) error {
	merge := !event.Metadata().HasAttr("pages")
	layout := p.config.Layout && !event.Metadata().HasAttr("layout")
	meta := file.Metadata()
	for n := 1; n <= file.Pages(); n++ {
		body, mimeType, err := p.renderPage(data, file, n)
		if err != nil {
			return err
		}
		out, err := event.Clone()
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%s/%s-page-%d", event.Document().ETag, p.newID(), n)
		stored, err := p.env.Put(ctx, key, body, mimeType)
		if err != nil {
			return err
		}
		out.WithDocument(stored)
		if merge {
			if err := out.Data.Metadata.Merge(meta); err != nil {
				return err
			}
		}
		if !out.Metadata().HasAttr("page") {
			if err := out.Data.Metadata.SetAttr(core.KindText, "page", n); err != nil {
				return err
			}
		}
		if layout {
			if err := out.Data.Metadata.Merge(file.PageLayout(n).Metadata()); err != nil {
				return err
			}
		}
		if err := emit.Emit(ctx, out); err != nil {
			return err
		}
	}
	p.logger.Debug("pages extracted", "url", event.Document().URL, "pages", file.Pages(), "output", p.config.Output)
	return nil
}

func (p *Processor) renderPage(data []byte, file *File, n int) ([]byte, string, error) {
	if p.config.Output == OutputPDF {
		page, err := ExtractPage(data, n)
		if err != nil {
			return nil, "", err
		}
		return page, "application/pdf", nil
	}
	text, err := file.PageText(n)
	if err != nil {
		return nil, "", err
	}
	return []byte(text), "text/plain", nil
}

// File is a parsed PDF document.
type File struct {
	reader *pdf.Reader
	fonts  map[string]*pdf.Font
}

// Open parses a PDF held in memory.
func Open(data []byte) (file *File, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &File{reader: reader, fonts: map[string]*pdf.Font{}}, nil
}

// Pages returns the page count.
func (f *File) Pages() int {
	return f.reader.NumPage()
}

// PageText returns the cleaned text of page n, counted from 1.
func (f *File) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page %d: %v", n, r)
		}
	}()
	page := f.reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d not found", n)
	}
	for _, name := range page.Fonts() {
		if _, ok := f.fonts[name]; !ok {
			font := page.Font(name)
			f.fonts[name] = &font
		}
	}
	raw, err := page.GetPlainText(f.fonts)
	if err != nil {
		return "", fmt.Errorf("failed to extract page %d: %w", n, err)
	}
	return Clean(raw), nil
}

// Text returns the cleaned text of every page.
func (f *File) Text() (string, error) {
	pages := make([]string, 0, f.Pages())
	for n := 1; n <= f.Pages(); n++ {
		text, err := f.PageText(n)
		if err != nil {
			return "", err
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// Metadata returns the document information dictionary as document metadata.
func (f *File) Metadata() core.Metadata {
	meta := core.Properties(core.KindText, map[string]any{"pages": f.Pages()})
	info := f.reader.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}

	if title := strings.TrimSpace(info.Key("Title").Text()); title != "" {
		meta["title"] = title
	}
	if authors := splitList(info.Key("Author").Text(), ";"); len(authors) > 0 {
		meta["authors"] = authors
	}
	if keywords := splitList(info.Key("Keywords").Text(), ","); len(keywords) > 0 {
		meta["keywords"] = keywords
	}
	if t, ok := ParseDate(info.Key("CreationDate").Text()); ok {
		meta["createdAt"] = t.Format(time.RFC3339)
	}
	if t, ok := ParseDate(info.Key("ModDate").Text()); ok {
		meta["updatedAt"] = t.Format(time.RFC3339)
	}
	return meta
}

// ParseDate parses the D:YYYYMMDDHHmmSS prefix of a PDF date string.
// Time zone suffixes are ignored and the result is in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "D:") || len(s) < 2+len(pdfDateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(pdfDateLayout, s[2:2+len(pdfDateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clean drops paragraphs shorter than six characters and trims the rest.
func Clean(text string) string {
	var kept []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if len(para) >= minParagraph {
			kept = append(kept, para)
		}
	}
	return strings.Join(kept, "\n\n")
}

func splitList(s, sep string) []string {
	var out []string
	for _, item := range strings.Split(s, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
