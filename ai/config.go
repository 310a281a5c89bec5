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
	"fmt"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GenerationHost is the base URL for the text generation service API.
	GenerationHost string

	// SpeechHost is the base URL for the transcription and speech APIs.
	// Example: "https://api.openai.com/v1"
	SpeechHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// GenerationModel is the model identifier for prompts, summaries and captions.
	// Example: "qwen2.5:3b", "llava", "gpt-4o-mini"
	GenerationModel string

	// TranscriptionModel is the speech to text model.
	TranscriptionModel string

	// SpeechModel is the text to speech model.
	SpeechModel string

	// APIKey authenticates against hosted services. Local servers accept "none".
	APIKey string

	// MaxConcurrency bounds in-flight model calls per provider.
	// Default: 4
	MaxConcurrency int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithSpeechHost sets the speech service host URL.
func WithSpeechHost(host string) ConfigOption {
	return func(c *Config) {
		c.SpeechHost = host
	}
}

// WithHost sets the embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithTranscriptionModel sets the speech to text model.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithSpeechModel sets the text to speech model.
func WithSpeechModel(model string) ConfigOption {
	return func(c *Config) {
		c.SpeechModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithMaxConcurrency sets the number of concurrent model calls.
func WithMaxConcurrency(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrency = n
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama server.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		GenerationHost:     defaultHost,
		SpeechHost:         "https://api.openai.com/v1",
		EmbeddingModel:     "embeddinggemma",
		GenerationModel:    "qwen2.5:3b",
		TranscriptionModel: "whisper-1",
		SpeechModel:        "tts-1",
		APIKey:             "none",
		MaxConcurrency:     4,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithGenerationModel("llava"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize adds the /v1 suffix to OpenAI-compatible hosts and fills an empty API key.
func (c *Config) Normalize() {
	c.EmbeddingHost = withVersionSuffix(c.EmbeddingHost)
	c.GenerationHost = withVersionSuffix(c.GenerationHost)
	c.SpeechHost = withVersionSuffix(c.SpeechHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
	}
	if c.GenerationHost == "" {
		return fmt.Errorf("%w: GenerationHost is required", ErrInvalidConfig)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	if c.GenerationModel == "" {
		return fmt.Errorf("%w: GenerationModel is required", ErrInvalidConfig)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("%w: MaxConcurrency must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// ValidateSpeech checks the fields used by the speech services.
func (c *Config) ValidateSpeech() error {
	c.Normalize()

	if c.SpeechHost == "" {
		return fmt.Errorf("%w: SpeechHost is required", ErrInvalidConfig)
	}
	if c.TranscriptionModel == "" && c.SpeechModel == "" {
		return fmt.Errorf("%w: a transcription or speech model is required", ErrInvalidConfig)
	}
	return nil
}

// NativeHost strips the OpenAI compatibility suffix so native APIs
// (such as Ollama's /api endpoints) can be reached on the same server.
func NativeHost(host string) string {
	host = strings.TrimSuffix(host, "/")
	return strings.TrimSuffix(host, "/v1")
}

func withVersionSuffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}
