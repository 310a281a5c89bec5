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

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// DefaultJSONAttempts is the number of generations GenerateJSON tries
// before giving up on a malformed answer.
const DefaultJSONAttempts = 3

// StripCodeFences removes a surrounding markdown code fence from a model answer.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseJSONResponse decodes a structured model answer into v.
// Code fences are stripped and missing opening quotes on keys are repaired.
func ParseJSONResponse(text string, v any) error {
	cleaned := repairJSON(StripCodeFences(text))
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return nil
}

// GenerateJSON runs req in JSON mode and decodes the answer into v,
// regenerating up to attempts times while the answer is malformed.
// Generation errors are returned immediately.
func GenerateJSON(ctx context.Context, g Generator, req GenerateRequest, v any, attempts int) error {
	if attempts < 1 {
		attempts = DefaultJSONAttempts
	}
	req.JSON = true

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := g.Generate(ctx, req)
		if err != nil {
			return err
		}
		if lastErr = ParseJSONResponse(text, v); lastErr == nil {
			return nil
		}
		slog.Default().Warn("error parsing structured response",
			"attempt", attempt,
			"response", text,
			"err", lastErr)
	}
	return lastErr
}

// repairJSON adds the opening quote that small models sometimes drop
// before object keys, e.g. `{ type": 1}` becomes `{ "type": 1}`.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(in) && unicode.IsSpace(in[i]) {
			out = append(out, in[i])
			i++
		}
		if i >= len(in) || !unicode.IsLetter(in[i]) {
			continue
		}

		start := i
		for i < len(in) && (unicode.IsLetter(in[i]) || unicode.IsDigit(in[i]) || in[i] == '_') {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[start:i]...)
	}

	return string(out)
}
