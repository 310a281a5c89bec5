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
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("ai config")

	// ErrEmptyResponse is returned when a model answers with no content.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrUnsupportedFormat is returned for unknown transcript or audio formats.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrModelUnavailable is returned when a model can neither be found nor pulled.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedJSON is returned when a structured response cannot be parsed.
	ErrMalformedJSON = errors.New("malformed JSON response")
)

func unsupportedFormat(name string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
