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

package ollama

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/lakechain/ai"
)

// Generator implements ai.Generator with the Ollama generate endpoint.
// Images are passed to multimodal models such as llava.
type Generator struct {
	client *Client
	model  string
	logger *slog.Logger
}

// NewGenerator returns a generator for model served by client.
func NewGenerator(client *Client, model string) *Generator {
	return &Generator{
		client: client,
		model:  model,
		logger: client.logger.With("model", model),
	}
}

// Generate runs a single non-streaming completion.
func (g *Generator) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	if err := g.client.EnsureModel(ctx, g.model); err != nil {
		return "", err
	}

	release, err := g.client.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	stream := false
	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	genReq := &api.GenerateRequest{
		Model:   g.model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  &stream,
		Options: options,
	}
	if req.JSON {
		genReq.Format = json.RawMessage(`"json"`)
	}
	for _, img := range req.Images {
		genReq.Images = append(genReq.Images, api.ImageData(img.Data))
	}

	g.logger.Debug("generating content", "prompt_length", len(req.Prompt), "images", len(req.Images))

	var sb strings.Builder
	err = g.client.api.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ai.ErrEmptyResponse
	}
	return out, nil
}

var _ ai.Generator = (*Generator)(nil)
