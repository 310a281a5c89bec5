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

package middleware

import (
	"context"

	"github.com/poiesic/lakechain/core"
)

// Processor performs one transformation step on a document event.
// It may emit zero, one or many output events.
type Processor interface {
	Process(ctx context.Context, event *core.Event, emit Emitter) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, event *core.Event, emit Emitter) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, event *core.Event, emit Emitter) error {
	return f(ctx, event, emit)
}

// Emitter forwards an output event. Emit stores a deep copy, so callers may
// keep mutating the event afterwards.
type Emitter interface {
	Emit(ctx context.Context, event *core.Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, event *core.Event) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, event *core.Event) error {
	return f(ctx, event)
}

// collector buffers emitted events until processing completes.
type collector struct {
	events []*core.Event
}

func (c *collector) Emit(ctx context.Context, event *core.Event) error {
	clone, err := event.Clone()
	if err != nil {
		return err
	}
	c.events = append(c.events, clone)
	return nil
}

// Collect runs p on event and returns the emitted events. It is used by tests
// and by callers that publish on their own.
func Collect(ctx context.Context, p Processor, event *core.Event) ([]*core.Event, error) {
	c := &collector{}
	if err := p.Process(ctx, event, c); err != nil {
		return nil, err
	}
	return c.events, nil
}
