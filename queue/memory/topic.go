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

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/queue"
)

type subscription struct {
	queue *Queue
	raw   bool
}

// Topic is an in-memory queue.Publisher. It records every published event
// and fans them out to subscribed queues.
type Topic struct {
	mu     sync.Mutex
	arn    string
	events []*core.Event
	subs   []subscription

	// FailNext makes the next n calls to Publish fail.
	FailNext int
}

var _ queue.Publisher = (*Topic)(nil)

// NewTopic creates a Topic identified by arn.
func NewTopic(arn string) *Topic {
	return &Topic{arn: arn}
}

// Subscribe delivers future events to q. Unless raw is set, deliveries are
// wrapped in an SNS notification envelope.
func (t *Topic) Subscribe(q *Queue, raw bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, subscription{queue: q, raw: raw})
}

// Publish records a copy of event and delivers it to subscribers.
func (t *Topic) Publish(ctx context.Context, event *core.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailNext > 0 {
		t.FailNext--
		return fmt.Errorf("%w: injected failure", queue.ErrPublishFailed)
	}

	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", queue.ErrPublishFailed, err)
	}
	clone, err := core.ParseEvent(body)
	if err != nil {
		return fmt.Errorf("%w: %w", queue.ErrPublishFailed, err)
	}
	t.events = append(t.events, clone)

	for _, sub := range t.subs {
		delivery := body
		if !sub.raw {
			if delivery, err = queue.Wrap(t.arn, body); err != nil {
				return fmt.Errorf("%w: %w", queue.ErrPublishFailed, err)
			}
		}
		sub.queue.Send(delivery)
	}
	return nil
}

// Events returns the published events in order.
func (t *Topic) Events() []*core.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*core.Event(nil), t.events...)
}

// Len returns the number of published events.
func (t *Topic) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}
