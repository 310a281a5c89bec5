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

// Package markdown converts markdown, HTML and Word documents into other
// text formats.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Format names a document format.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
	Plain    Format = "plain"
	// Docx is accepted as an input format only.
	Docx Format = "docx"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// MimeType returns the content type of documents in format f.
func (f Format) MimeType() string {
	switch f {
	case Markdown:
		return "text/markdown"
	case HTML:
		return "text/html"
	case Docx:
		return docxMimeType
	default:
		return "text/plain"
	}
}

// Extension returns the file extension of documents in format f.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return "md"
	case HTML:
		return "html"
	case Docx:
		return "docx"
	default:
		return "txt"
	}
}

// FormatOf maps a MIME type to an input format.
func FormatOf(mimeType string) (Format, bool) {
	switch mimeType {
	case "text/markdown", "text/x-markdown":
		return Markdown, true
	case "text/html", "application/xhtml+xml":
		return HTML, true
	case docxMimeType:
		return Docx, true
	}
	return "", false
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Markdown, HTML, Plain, Docx:
		return f, nil
	case "text", "txt":
		return Plain, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", processors.ErrInvalidEnv, s)
}

// Mapping lists the output formats produced for each input format.
// Input formats missing from the mapping are converted to Plain.
type Mapping map[Format][]Format

// ParseMapping parses entries of the form input=output[,output...]. Docx is
// rejected as an output.
func ParseMapping(entries []string) (Mapping, error) {
	m := Mapping{}
	for _, entry := range entries {
		in, outs, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed mapping %q", processors.ErrInvalidEnv, entry)
		}
		from, err := ParseFormat(in)
		if err != nil {
			return nil, err
		}
		for _, out := range strings.Split(outs, ",") {
			to, err := ParseFormat(out)
			if err != nil {
				return nil, err
			}
			if to == Docx {
				return nil, fmt.Errorf("%w: %s is an input format only", processors.ErrInvalidEnv, to)
			}
			m[from] = append(m[from], to)
		}
	}
	return m, nil
}

func (m Mapping) outputs(in Format) []Format {
	if outs := m[in]; len(outs) > 0 {
		return outs
	}
	return []Format{Plain}
}

// Processor converts documents and emits one event per output format.
type Processor struct {
	env     *processors.Env
	mapping Mapping
	md      goldmark.Markdown
	html    *converter.Converter
	logger  *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a converter.
func New(env *processors.Env, mapping Mapping) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	for _, outs := range mapping {
		for _, out := range outs {
			if out == Docx {
				return nil, fmt.Errorf("%w: %s is an input format only", processors.ErrInvalidEnv, out)
			}
		}
	}
	return &Processor{
		env:     env,
		mapping: mapping,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		html: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		logger: env.Log("markdown"),
	}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	in, ok := FormatOf(doc.Type)
	if !ok {
		return processors.Unsupported(doc)
	}
	src, err := p.env.Load(ctx, doc)
	if err != nil {
		return err
	}

	for _, out := range p.mapping.outputs(in) {
		converted, err := p.Convert(src, in, out)
		if err != nil {
			return fmt.Errorf("failed to convert %s to %s: %w", doc.URL, out, err)
		}
		next, err := event.Clone()
		if err != nil {
			return err
		}
		key := path.Join(event.Data.ChainID, doc.ETag+"."+out.Extension())
		stored, err := p.env.Put(ctx, key, converted, out.MimeType())
		if err != nil {
			return err
		}
		if err := emit.Emit(ctx, next.WithDocument(stored)); err != nil {
			return err
		}
	}
	return nil
}

// Convert converts src from one format to another.
func (p *Processor) Convert(src []byte, from, to Format) ([]byte, error) {
	if from == Docx {
		return p.convertDocx(src, to)
	}
	switch {
	case from == to:
		return src, nil
	case from == Markdown && to == HTML:
		return p.markdownToHTML(src)
	case from == Markdown && to == Plain:
		return []byte(p.plainText(src)), nil
	case from == HTML && to == Markdown:
		out, err := p.html.ConvertString(string(src))
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case from == HTML && to == Plain:
		return []byte(processors.HTMLToText(string(src))), nil
	}
	return nil, fmt.Errorf("%w: %s to %s", processors.ErrUnsupportedType, from, to)
}

func (p *Processor) convertDocx(src []byte, to Format) ([]byte, error) {
	doc, err := parseDocx(src)
	if err != nil {
		return nil, err
	}
	switch to {
	case Markdown:
		return []byte(doc.markdown()), nil
	case HTML:
		return p.markdownToHTML([]byte(doc.markdown()))
	case Plain:
		return []byte(doc.plain()), nil
	}
	return nil, fmt.Errorf("%w: %s to %s", processors.ErrUnsupportedType, Docx, to)
}

func (p *Processor) markdownToHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.md.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Processor) plainText(src []byte) string {
	root := p.md.Parser().Parse(text.NewReader(src))
	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.String:
			sb.Write(node.Value)
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(src))
			}
		case *ast.AutoLink:
			sb.Write(node.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return cleanBlankLines(sb.String())
}

func cleanBlankLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimRight(line, " \t"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
