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

// Package sqs implements queue.Consumer on Amazon SQS.
package sqs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/poiesic/lakechain/awsconfig"
	"github.com/poiesic/lakechain/queue"
)

const (
	// MaxBatchSize is the SQS limit on messages per ReceiveMessage call.
	MaxBatchSize = 10

	// MaxWaitTime is the SQS limit on long polling.
	MaxWaitTime = 20 * time.Second
)

// Consumer receives messages from an SQS queue.
type Consumer struct {
	client            *sqs.Client
	queueURL          string
	visibilityTimeout int32
	logger            *slog.Logger
}

var _ queue.Consumer = (*Consumer)(nil)

// Option configures a Consumer.
type Option func(*Consumer)

// WithVisibilityTimeout overrides the queue's visibility timeout for received messages.
func WithVisibilityTimeout(d time.Duration) Option {
	return func(c *Consumer) {
		c.visibilityTimeout = int32(d / time.Second)
	}
}

// New creates a Consumer for queueURL.
func New(ctx context.Context, cfg *awsconfig.Config, queueURL string, opts ...Option) (*Consumer, error) {
	if queueURL == "" {
		return nil, queue.ErrMissingQueueURL
	}
	awsCfg, err := awsconfig.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint := cfg.BaseEndpoint(); endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	return NewFromClient(client, queueURL, opts...), nil
}

// NewFromClient wraps an existing SQS client.
func NewFromClient(client *sqs.Client, queueURL string, opts ...Option) *Consumer {
	c := &Consumer{
		client:   client,
		queueURL: queueURL,
		logger:   slog.Default().With("component", "sqs-consumer", "queue", queueURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Receive long-polls the queue. maxMessages is clamped to 1..10 and wait to 0..20s.
func (c *Consumer) Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]queue.Message, error) {
	maxMessages = min(max(maxMessages, 1), MaxBatchSize)
	wait = min(max(wait, 0), MaxWaitTime)

	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(wait / time.Second),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	}
	if c.visibilityTimeout > 0 {
		input.VisibilityTimeout = c.visibilityTimeout
	}

	output, err := c.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("receiving from %s: %w", c.queueURL, err)
	}

	messages := make([]queue.Message, 0, len(output.Messages))
	for _, m := range output.Messages {
		msg := queue.Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          []byte(aws.ToString(m.Body)),
		}
		if n, err := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]); err == nil {
			msg.ReceiveCount = n
		}
		messages = append(messages, msg)
	}
	c.logger.Debug("received messages", "count", len(messages))
	return messages, nil
}

// Delete removes a message from the queue.
func (c *Consumer) Delete(ctx context.Context, msg queue.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(msg.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("deleting message %s: %w", msg.ID, err)
	}
	return nil
}
