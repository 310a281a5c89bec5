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
)

const (
	// SpecVersion is the CloudEvents version carried by every envelope.
	SpecVersion = "1.0"

	// DocumentCreated is the event type emitted for new or derived documents.
	DocumentCreated = "document-created"
)

// Event is the envelope exchanged between middlewares.
type Event struct {
	SpecVersion string     `json:"specversion"`
	Type        string     `json:"type"`
	Data        *EventData `json:"data"`
}

// EventData carries the document being processed along the chain.
type EventData struct {
	ChainID   string   `json:"chainId"`
	Source    Document `json:"source"`
	Document  Document `json:"document"`
	Metadata  Metadata `json:"metadata"`
	CallStack []string `json:"callStack"`
}

// NewEvent creates a document-created event whose source and current
// document are the same object.
func NewEvent(chainID string, doc Document) *Event {
	return &Event{
		SpecVersion: SpecVersion,
		Type:        DocumentCreated,
		Data: &EventData{
			ChainID:   chainID,
			Source:    doc,
			Document:  doc,
			Metadata:  Metadata{},
			CallStack: []string{},
		},
	}
}

// ParseEvent decodes an envelope from its JSON representation.
// It does not validate the result; see ValidateEvent.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if event.Data != nil {
		if event.Data.Metadata == nil {
			event.Data.Metadata = Metadata{}
		}
		if event.Data.CallStack == nil {
			event.Data.CallStack = []string{}
		}
	}
	return &event, nil
}

// Marshal encodes the envelope as JSON.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Clone returns a deep copy of the event. Fan-out processors clone the
// input once per output so outputs never share metadata maps.
func (e *Event) Clone() (*Event, error) {
	body, err := e.Marshal()
	if err != nil {
		return nil, err
	}
	return ParseEvent(body)
}

// PushCallStack records that the named service handled the event.
// The most recent service is first.
func (e *Event) PushCallStack(service string) {
	if e.Data == nil || service == "" {
		return
	}
	e.Data.CallStack = append([]string{service}, e.Data.CallStack...)
}

// WithDocument replaces the current document.
func (e *Event) WithDocument(doc Document) *Event {
	e.Data.Document = doc
	return e
}

// Document returns the current document of the event.
func (e *Event) Document() Document {
	if e.Data == nil {
		return Document{}
	}
	return e.Data.Document
}

// Metadata returns the metadata of the event.
func (e *Event) Metadata() Metadata {
	if e.Data == nil {
		return nil
	}
	return e.Data.Metadata
}
