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
	"strings"
)

// ValidateEvent validates an Event before it is handed to a processor.
//
// Validation rules:
//   - Data must be present
//   - ChainID must not be empty
//   - the current Document must be valid
//
// NOT validated:
//   - Source (informational, preserved as received)
//   - Metadata (open schema, owned by the processors)
//   - CallStack (may be empty for the first middleware)
func ValidateEvent(event *Event) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidEvent)
	}

	if event.Data == nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrMissingData)
	}

	if strings.TrimSpace(event.Data.ChainID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrMissingChainID)
	}

	if err := ValidateDocument(event.Data.Document); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	return nil
}

// ValidateDocument validates a Document.
//
// Validation rules:
//   - URL must not be empty
//   - Type must not be empty
func ValidateDocument(doc Document) error {
	if doc.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingURL)
	}

	if doc.Type == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingType)
	}

	return nil
}

// IsText reports whether a MIME type is plain text.
func IsText(mimeType string) bool {
	return mimeType == "text/plain"
}

// IsImage reports whether a MIME type is an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// IsAudio reports whether a MIME type is audio.
func IsAudio(mimeType string) bool {
	return strings.HasPrefix(mimeType, "audio/")
}

// IsVideo reports whether a MIME type is video.
func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/")
}
