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

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Image is an inline image attached to a generation request.
type Image struct {
	Data     []byte
	MimeType string
}

// GenerateRequest describes a single prompt sent to a text generation model.
type GenerateRequest struct {
	// System is an optional system prompt.
	System string

	// Prompt is the user prompt.
	Prompt string

	// Images are sent alongside the prompt to multimodal models.
	Images []Image

	// JSON asks the model to answer with a JSON document.
	JSON bool

	// Temperature is the sampling temperature. Zero means deterministic.
	Temperature float64

	// MaxTokens caps the response length. Zero leaves the model default.
	MaxTokens int
}

// Generator produces text from a prompt and optional images.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// TranscribeRequest describes an audio file to transcribe.
type TranscribeRequest struct {
	Audio    []byte
	Filename string

	// Language is an optional ISO-639-1 hint.
	Language string

	// Prompt optionally guides the transcription style.
	Prompt string

	Format TranscriptFormat
}

// Transcriber converts speech audio into a transcript.
type Transcriber interface {
	// Transcribe returns the transcript encoded in req.Format.
	Transcribe(ctx context.Context, req TranscribeRequest) ([]byte, error)
}

// SynthesizeRequest describes a text to speak.
type SynthesizeRequest struct {
	Text   string
	Voice  string
	Format AudioFormat

	// Speed is the playback speed multiplier. Zero leaves the model default.
	Speed float64
}

// Synthesizer converts text into speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error)
}

// Provider aggregates the text services of a single backend.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
