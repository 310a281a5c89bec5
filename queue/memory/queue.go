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

// Package memory provides in-process queue and topic implementations used
// by tests and local chains.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/queue"
)

// pollInterval is how often Receive re-checks an empty queue while waiting.
const pollInterval = 10 * time.Millisecond

// Queue is an in-memory queue.Consumer with SQS-like semantics: received
// messages stay in flight until deleted or requeued.
type Queue struct {
	mu       sync.Mutex
	seq      int
	pending  []queue.Message
	inflight map[string]queue.Message
	deleted  []queue.Message
	receives map[string]int
}

var _ queue.Consumer = (*Queue)(nil)

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		inflight: make(map[string]queue.Message),
		receives: make(map[string]int),
	}
}

// Send enqueues body and returns the message id.
func (q *Queue) Send(body []byte) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	id := "msg-" + strconv.Itoa(q.seq)
	q.pending = append(q.pending, queue.Message{
		ID:   id,
		Body: append([]byte(nil), body...),
	})
	return id
}

// SendEvent serializes and enqueues event.
func (q *Queue) SendEvent(event *core.Event) (string, error) {
	body, err := event.Marshal()
	if err != nil {
		return "", err
	}
	return q.Send(body), nil
}

// Receive moves up to maxMessages pending messages in flight. When the queue is
// empty it polls until a message arrives, wait elapses or ctx is done.
func (q *Queue) Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]queue.Message, error) {
	deadline := time.Now().Add(wait)
	for {
		if messages := q.take(max(maxMessages, 1)); len(messages) > 0 {
			return messages, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (q *Queue) take(n int) []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	n = min(n, len(q.pending))
	if n == 0 {
		return nil
	}
	messages := make([]queue.Message, 0, n)
	for _, msg := range q.pending[:n] {
		q.seq++
		msg.ReceiptHandle = msg.ID + "-" + strconv.Itoa(q.seq)
		q.receives[msg.ID]++
		msg.ReceiveCount = q.receives[msg.ID]
		q.inflight[msg.ReceiptHandle] = msg
		messages = append(messages, msg)
	}
	q.pending = q.pending[n:]
	return messages
}

// Delete acknowledges an in-flight message.
func (q *Queue) Delete(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, ok := q.inflight[msg.ReceiptHandle]
	if !ok {
		return queue.ErrUnknownReceipt
	}
	delete(q.inflight, msg.ReceiptHandle)
	q.deleted = append(q.deleted, m)
	return nil
}

// Requeue returns every in-flight message to the queue, as an expired
// visibility timeout would. It returns the number of messages requeued.
func (q *Queue) Requeue() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for handle, msg := range q.inflight {
		msg.ReceiptHandle = ""
		q.pending = append(q.pending, msg)
		delete(q.inflight, handle)
		n++
	}
	return n
}

// Pending returns the number of messages waiting to be received.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight returns the number of received, unacknowledged messages.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// Deleted returns the acknowledged messages in deletion order.
func (q *Queue) Deleted() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.deleted...)
}
