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

// Package speech implements ai.Transcriber and ai.Synthesizer with the
// OpenAI audio API (Whisper transcription and text to speech).
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/poiesic/lakechain/ai"
)

// DefaultVoice is used when a request names no voice.
const DefaultVoice = "alloy"

// Client talks to an OpenAI-compatible audio API.
type Client struct {
	client             openai.Client
	transcriptionModel string
	speechModel        string
	logger             *slog.Logger
}

// New creates a speech client from config. Extra request options are
// appended after the host and API key, which makes them useful for tests.
func New(config *ai.Config, opts ...option.RequestOption) (*Client, error) {
	if err := config.ValidateSpeech(); err != nil {
		return nil, err
	}

	base := []option.RequestOption{
		option.WithBaseURL(config.SpeechHost),
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(2),
	}
	return &Client{
		client:             openai.NewClient(append(base, opts...)...),
		transcriptionModel: config.TranscriptionModel,
		speechModel:        config.SpeechModel,
		logger:             slog.Default().With("component", "speech"),
	}, nil
}

// Transcribe uploads the audio and returns the transcript in req.Format.
func (c *Client) Transcribe(ctx context.Context, req ai.TranscribeRequest) ([]byte, error) {
	format := req.Format
	if format == "" {
		format = ai.TranscriptVTT
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(req.Audio), path.Base(req.Filename), ""),
		Model:          c.transcriptionModel,
		ResponseFormat: openai.AudioResponseFormat(format),
	}
	if req.Language != "" {
		params.Language = openai.String(req.Language)
	}
	if req.Prompt != "" {
		params.Prompt = openai.String(req.Prompt)
	}

	c.logger.Debug("transcribing audio", "file", req.Filename, "bytes", len(req.Audio), "format", format)

	// vtt, srt and text answers are not JSON, so the raw body is kept as is.
	var raw []byte
	if _, err := c.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&raw)); err != nil {
		return nil, fmt.Errorf("transcribing %s: %w", req.Filename, err)
	}
	if len(raw) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	return raw, nil
}

// Synthesize converts req.Text to speech audio.
func (c *Client) Synthesize(ctx context.Context, req ai.SynthesizeRequest) ([]byte, error) {
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	format := req.Format
	if format == "" {
		format = ai.AudioMP3
	}

	params := openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          c.speechModel,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(format),
	}
	if req.Speed > 0 {
		params.Speed = openai.Float(req.Speed)
	}

	c.logger.Debug("synthesizing speech", "chars", len(req.Text), "voice", voice, "format", format)

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	return audio, nil
}

var (
	_ ai.Transcriber = (*Client)(nil)
	_ ai.Synthesizer = (*Client)(nil)
)
