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

import "errors"

// Envelope validation errors
var (
	// ErrInvalidEvent indicates an Event failed validation.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrMissingData indicates the event has no data section.
	ErrMissingData = errors.New("event data is missing")

	// ErrMissingChainID indicates the chain identifier is empty.
	ErrMissingChainID = errors.New("chain id cannot be empty")

	// ErrMissingURL indicates a document has no URL.
	ErrMissingURL = errors.New("document url cannot be empty")

	// ErrMissingType indicates a document has no MIME type.
	ErrMissingType = errors.New("document type cannot be empty")

	// ErrNotS3URL indicates a document URL does not use the s3 scheme.
	ErrNotS3URL = errors.New("not an s3 url")

	// ErrMetadataMerge indicates metadata could not be merged.
	ErrMetadataMerge = errors.New("metadata merge failed")
)
