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

// Package sns implements queue.Publisher on Amazon SNS.
package sns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/poiesic/lakechain/awsconfig"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/queue"
)

// Publisher publishes events as JSON messages to an SNS topic.
type Publisher struct {
	client   *sns.Client
	topicArn string
	logger   *slog.Logger
}

var _ queue.Publisher = (*Publisher)(nil)

// New creates a Publisher for topicArn.
func New(ctx context.Context, cfg *awsconfig.Config, topicArn string) (*Publisher, error) {
	if topicArn == "" {
		return nil, queue.ErrMissingTopicARN
	}
	awsCfg, err := awsconfig.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpoint := cfg.BaseEndpoint(); endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	return NewFromClient(client, topicArn), nil
}

// NewFromClient wraps an existing SNS client.
func NewFromClient(client *sns.Client, topicArn string) *Publisher {
	return &Publisher{
		client:   client,
		topicArn: topicArn,
		logger:   slog.Default().With("component", "sns-publisher", "topic", topicArn),
	}
}

// Publish serializes event and publishes it to the topic.
func (p *Publisher) Publish(ctx context.Context, event *core.Event) error {
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", queue.ErrPublishFailed, err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", queue.ErrPublishFailed, err)
	}
	p.logger.Debug("published event", "messageId", aws.ToString(out.MessageId), "chainId", event.Data.ChainID)
	return nil
}
