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

// Package ai defines the model services used by lakechain processors.
//
// Processors depend on four small interfaces rather than on concrete
// backends:
//
//   - Embedder: vector embeddings for text
//   - Generator: text generation from a prompt and optional images
//   - Transcriber: speech to text
//   - Synthesizer: text to speech
//
// # Implementation Packages
//
//   - ai/openai: embeddings and generation on any OpenAI-compatible host
//   - ai/ollama: the native Ollama API, including model pulls
//   - ai/speech: transcription and speech synthesis via the OpenAI API
//   - ai/mock: deterministic test doubles
//
// Public constructors return interface types. Mock constructors return
// concrete types so tests can inject behavior and inspect call counts.
//
// # Structured Output
//
// Small local models often wrap JSON in code fences or drop quotes.
// ParseJSONResponse cleans such answers and GenerateJSON regenerates
// until the answer parses:
//
//	var out struct{ Keywords []string `json:"keywords"` }
//	err := ai.GenerateJSON(ctx, gen, ai.GenerateRequest{Prompt: p}, &out, ai.DefaultJSONAttempts)
package ai
