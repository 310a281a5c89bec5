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

package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gonfva/docxlib"
)

// docxSpan is a run of paragraph text, optionally linked.
type docxSpan struct {
	text string
	href string
}

// docxDocument is the text content of a Word document, one slice of spans
// per paragraph.
type docxDocument struct {
	paragraphs [][]docxSpan
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
)

func parseDocx(src []byte) (*docxDocument, error) {
	file, err := docxlib.Parse(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse docx: %w", err)
	}
	doc := &docxDocument{}
	for _, para := range file.Paragraphs() {
		var spans []docxSpan
		for _, child := range para.Children() {
			switch {
			case child.Link != nil:
				span := docxSpan{text: runText(child.Link.Run.Text, child.Link.Run.InstrText)}
				// A link without a relationship keeps its text.
				if href, err := file.References(child.Link.ID); err == nil {
					span.href = href
				}
				spans = append(spans, span)
			case child.Run != nil:
				spans = append(spans, docxSpan{text: runText(child.Run.Text, child.Run.InstrText)})
			}
		}
		doc.paragraphs = append(doc.paragraphs, spans)
	}
	return doc, nil
}

func runText(text *docxlib.Text, instr string) string {
	if text != nil {
		return text.Text
	}
	return instr
}

// markdown renders paragraphs separated by blank lines with links inline.
func (d *docxDocument) markdown() string {
	var paragraphs []string
	for _, spans := range d.paragraphs {
		var sb strings.Builder
		for _, span := range spans {
			text := markdownEscaper.Replace(span.text)
			if span.href != "" && text != "" {
				fmt.Fprintf(&sb, "[%s](%s)", text, span.href)
				continue
			}
			sb.WriteString(text)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// plain renders one line per non-empty paragraph.
func (d *docxDocument) plain() string {
	var lines []string
	for _, spans := range d.paragraphs {
		var sb strings.Builder
		for _, span := range spans {
			sb.WriteString(span.text)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
