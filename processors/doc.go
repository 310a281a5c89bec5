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

// Package processors holds the pieces shared by the document processors in
// its subpackages.
//
// Each subpackage implements middleware.Processor for one transformation
// step. Processors receive an Env describing where documents are read from
// and where derived documents go:
//
//	env := &processors.Env{
//		Service:      "text-splitter",
//		Store:        store,
//		TargetBucket: "processed-files",
//	}
//	p, err := textsplit.New(env, textsplit.DefaultConfig())
//
// Processors never publish on their own. They hand output events to the
// middleware.Emitter and the runtime publishes them once the processor
// returns without error.
package processors
