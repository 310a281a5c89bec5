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

package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/lakechain/ai"
)

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, req ai.TranscribeRequest) ([]byte, error)

	mu       sync.Mutex
	requests []ai.TranscribeRequest
}

// NewMockTranscriber creates a mock transcriber.
// The default transcript names the file and its size in the requested format.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe records the request and returns a canned transcript.
func (m *MockTranscriber) Transcribe(ctx context.Context, req ai.TranscribeRequest) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, req)
	}
	text := fmt.Sprintf("%s (%d bytes)", req.Filename, len(req.Audio))
	switch req.Format {
	case ai.TranscriptVTT, "":
		return []byte("WEBVTT\n\n00:00:00.000 --> 00:00:01.000\n" + text + "\n"), nil
	case ai.TranscriptSRT:
		return []byte("1\n00:00:00,000 --> 00:00:01,000\n" + text + "\n"), nil
	case ai.TranscriptJSON:
		return []byte(fmt.Sprintf("{\"text\":%q}", text)), nil
	default:
		return []byte(text), nil
	}
}

// Requests returns a copy of the recorded requests.
func (m *MockTranscriber) Requests() []ai.TranscribeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.TranscribeRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// MockSynthesizer is a test double for ai.Synthesizer.
type MockSynthesizer struct {
	SynthesizeFunc func(ctx context.Context, req ai.SynthesizeRequest) ([]byte, error)

	mu       sync.Mutex
	requests []ai.SynthesizeRequest
}

// NewMockSynthesizer creates a mock synthesizer.
// The default audio is the voice name followed by the text.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize records the request and returns fake audio bytes.
func (m *MockSynthesizer) Synthesize(ctx context.Context, req ai.SynthesizeRequest) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, req)
	}
	return []byte(req.Voice + ":" + req.Text), nil
}

// Requests returns a copy of the recorded requests.
func (m *MockSynthesizer) Requests() []ai.SynthesizeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.SynthesizeRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
