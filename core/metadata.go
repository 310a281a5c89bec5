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
	"encoding/json"
	"fmt"

	"github.com/imdario/mergo"
)

// Document kinds stored under metadata.properties.kind.
const (
	KindText  = "text"
	KindImage = "image"
	KindAudio = "audio"
	KindVideo = "video"
)

// Metadata is the open JSON object attached to a document.
//
// Well-known top-level keys are title, description, authors, keywords,
// language, createdAt and updatedAt. Kind-specific values live under
// properties.attrs.
type Metadata map[string]any

// Merge recursively merges src into m. Nested objects are merged key by key,
// any other value in src replaces the value in m.
func (m *Metadata) Merge(src Metadata) error {
	normalized, err := normalize(src)
	if err != nil {
		return err
	}
	if *m == nil {
		*m = Metadata{}
	}
	dst := map[string]any(*m)
	if err := mergo.Merge(&dst, normalized, mergo.WithOverride); err != nil {
		return fmt.Errorf("%w: %w", ErrMetadataMerge, err)
	}
	*m = Metadata(dst)
	return nil
}

// MergeMissing recursively copies the keys of src that are absent from m.
// A key present in m is kept whatever its value, including "", 0, false and
// null. When both sides hold an object at the same key, the objects are
// merged by the same rule.
func (m *Metadata) MergeMissing(src Metadata) error {
	normalized, err := normalize(src)
	if err != nil {
		return err
	}
	if *m == nil {
		*m = Metadata{}
	}
	addMissing(*m, normalized)
	return nil
}

func addMissing(dst, src map[string]any) {
	for key, value := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}
		srcObj, ok := value.(map[string]any)
		if !ok {
			continue
		}
		switch dstObj := existing.(type) {
		case map[string]any:
			addMissing(dstObj, srcObj)
		case Metadata:
			addMissing(dstObj, srcObj)
		}
	}
}

// normalize converts src to plain JSON values so nested maps share one type
// and the merged result never aliases the caller's maps.
func normalize(src Metadata) (map[string]any, error) {
	body, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataMerge, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataMerge, err)
	}
	return out, nil
}

// Properties returns metadata.properties, or an empty map when absent.
func (m Metadata) Properties() map[string]any {
	if props, ok := m["properties"].(map[string]any); ok {
		return props
	}
	return map[string]any{}
}

// Kind returns metadata.properties.kind.
func (m Metadata) Kind() string {
	kind, _ := m.Properties()["kind"].(string)
	return kind
}

// Attrs returns metadata.properties.attrs, or an empty map when absent.
// The returned map must be treated as read-only; use SetAttr to write.
func (m Metadata) Attrs() map[string]any {
	if attrs, ok := m.Properties()["attrs"].(map[string]any); ok {
		return attrs
	}
	return map[string]any{}
}

// HasAttr reports whether properties.attrs contains key.
func (m Metadata) HasAttr(key string) bool {
	_, ok := m.Attrs()[key]
	return ok
}

// AttrString returns a string attribute, or "" when missing or not a string.
func (m Metadata) AttrString(key string) string {
	s, _ := m.Attrs()[key].(string)
	return s
}

// SetAttr sets properties.kind and properties.attrs[key], replacing any
// previous value of the attribute.
func (m *Metadata) SetAttr(kind, key string, value any) error {
	return m.Merge(Properties(kind, map[string]any{key: value}))
}

// String returns a top-level string value.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Language returns the document language, if known.
func (m Metadata) Language() string {
	return m.String("language")
}

// Properties builds the {properties: {kind, attrs}} fragment processors
// merge into document metadata.
func Properties(kind string, attrs map[string]any) Metadata {
	if attrs == nil {
		attrs = map[string]any{}
	}
	props := map[string]any{"attrs": attrs}
	if kind != "" {
		props["kind"] = kind
	}
	return Metadata{"properties": props}
}

// SetKind records the document kind without touching its attributes.
func (m *Metadata) SetKind(kind string) error {
	return m.Merge(Metadata{"properties": map[string]any{"kind": kind}})
}
