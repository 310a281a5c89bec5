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

// Package queue defines the transport between middlewares: a consumer for
// the input queue and a publisher for the output topic.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poiesic/lakechain/core"
)

// Message is a message received from an input queue.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          []byte
	// ReceiveCount is the approximate number of deliveries, when known.
	ReceiveCount int
}

// Consumer receives and acknowledges messages.
type Consumer interface {
	// Receive returns up to maxMessages messages, waiting at most wait for the first one.
	// An empty result is not an error.
	Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]Message, error)

	// Delete acknowledges a message so it is not redelivered.
	Delete(ctx context.Context, msg Message) error
}

// Publisher forwards events to the next stage.
type Publisher interface {
	Publish(ctx context.Context, event *core.Event) error
}

// NopPublisher discards events. It is used by terminal stages that have no
// target topic.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, *core.Event) error {
	return nil
}

// snsNotification is the envelope SNS wraps around messages delivered to an
// SQS subscription without raw message delivery.
type snsNotification struct {
	Type     string `json:"Type"`
	Message  string `json:"Message"`
	TopicArn string `json:"TopicArn,omitempty"`
}

// Unwrap returns the inner message of an SNS notification, or body unchanged
// when it is not one.
func Unwrap(body []byte) []byte {
	var n snsNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return body
	}
	if n.Type != "Notification" || n.Message == "" {
		return body
	}
	return []byte(n.Message)
}

// Wrap encloses body in an SNS notification envelope.
func Wrap(topicArn string, body []byte) ([]byte, error) {
	return json.Marshal(snsNotification{
		Type:     "Notification",
		Message:  string(body),
		TopicArn: topicArn,
	})
}
