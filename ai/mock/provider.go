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

import "github.com/poiesic/lakechain/ai"

// MockProvider is an ai.Provider backed by the mock embedder and generator.
// It also serves offline pipeline runs where no model host is reachable.
type MockProvider struct {
	Embed *MockEmbedder
	Gen   *MockGenerator
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{Embed: NewMockEmbedder(), Gen: NewMockGenerator()}
}

// Embedder implements ai.Provider.
func (p *MockProvider) Embedder() ai.Embedder { return p.Embed }

// Generator implements ai.Provider.
func (p *MockProvider) Generator() ai.Generator { return p.Gen }

// Close implements ai.Provider.
func (p *MockProvider) Close() error { return nil }
