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

// Package ollama implements the ai interfaces on the native Ollama API.
//
// Unlike the OpenAI-compatible endpoints, the native API can pull missing
// models. A Client makes sure a model exists before first use and bounds
// the number of in-flight requests with a weighted semaphore, so a pool of
// message workers cannot overload a single Ollama server.
//
//	client, err := ollama.NewClient(ai.NativeHost(cfg.GenerationHost), cfg.MaxConcurrency)
//	gen := ollama.NewGenerator(client, "llava")
//	text, err := gen.Generate(ctx, ai.GenerateRequest{Prompt: "Describe the image", Images: images})
package ollama
