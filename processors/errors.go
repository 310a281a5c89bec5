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

package processors

import "errors"

var (
	// ErrUnsupportedType indicates the document MIME type is not handled by a processor.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrInvalidEnv indicates the processor environment is incomplete.
	ErrInvalidEnv = errors.New("invalid processor environment")

	// ErrEmptyDocument indicates a document has no usable content.
	ErrEmptyDocument = errors.New("document is empty")
)
