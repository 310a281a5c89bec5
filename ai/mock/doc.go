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

// Package mock provides deterministic test doubles for the ai interfaces.
//
// Every mock exposes a Func field for custom behavior and records calls
// so tests can assert on what processors sent:
//
//	gen := mock.NewMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
//	    return `{"keywords": ["go"]}`, nil
//	}
//	...
//	assert.Equal(t, 1, gen.CallCount())
//
// # Default Behavior
//
//   - MockEmbedder: deterministic vectors derived from an FNV hash of the text
//   - MockGenerator: echoes the prompt
//   - MockTranscriber: a one-cue transcript in the requested format
//   - MockSynthesizer: the voice name and text as audio bytes
package mock
