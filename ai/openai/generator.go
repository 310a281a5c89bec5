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

package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lakechain/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
// Images are sent inline as base64 data URLs.
type Generator struct {
	client llms.Model
	limit  *semaphore.Weighted
	logger *slog.Logger
}

func newGenerator(config *ai.Config, limit *semaphore.Weighted) (*Generator, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		limit:  limit,
		logger: slog.Default().With("component", "openai-generator", "model", config.GenerationModel),
	}, nil
}

// NewGenerator creates a standalone generator limited to
// config.MaxConcurrency concurrent requests.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newGenerator(config, semaphore.NewWeighted(int64(config.MaxConcurrency)))
}

// Generate sends the request as a chat completion and returns the first choice.
func (g *Generator) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}

	parts := make([]llms.ContentPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, llms.ImageURLPart(dataURL(img)))
	}
	parts = append(parts, llms.TextPart(req.Prompt))
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: parts,
	})

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	if err := g.limit.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.limit.Release(1)

	g.logger.Debug("generating content", "prompt_length", len(req.Prompt), "images", len(req.Images))
	response, err := g.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

func dataURL(img ai.Image) string {
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
