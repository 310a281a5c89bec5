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
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/queue"
	"github.com/poiesic/lakechain/storage"
)

const (
	defaultBatchSize      = 10
	defaultWaitTime       = 20 * time.Second
	defaultPublishRetries = 3
	defaultPublishDelay   = 200 * time.Millisecond
	defaultErrorDelay     = 5 * time.Second
)

// Runtime consumes messages from a queue, runs a Processor on each and
// publishes the resulting events.
type Runtime struct {
	service    string
	consumer   queue.Consumer
	publisher  queue.Publisher
	processor  Processor
	ledger     storage.Ledger
	pool       *ants.Pool
	batchSize  int
	waitTime   time.Duration
	drain      bool
	retries    int
	retryDelay time.Duration
	errorDelay time.Duration
	stats      Stats
	logger     *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime) error

// WithPoolSize sets the worker pool size for concurrent message handling.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Runtime) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if r.pool != nil {
			r.pool.Release()
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithLedger enables duplicate suppression.
func WithLedger(ledger storage.Ledger) Option {
	return func(r *Runtime) error {
		r.ledger = ledger
		return nil
	}
}

// WithBatchSize sets the maximum number of messages per receive.
// Default is 10.
func WithBatchSize(n int) Option {
	return func(r *Runtime) error {
		if n < 1 {
			n = 1
		}
		r.batchSize = n
		return nil
	}
}

// WithWaitTime sets the long polling duration of each receive.
// Default is 20 seconds.
func WithWaitTime(d time.Duration) Option {
	return func(r *Runtime) error {
		if d < 0 {
			d = 0
		}
		r.waitTime = d
		return nil
	}
}

// WithDrain makes Run return once a receive comes back empty.
func WithDrain(drain bool) Option {
	return func(r *Runtime) error {
		r.drain = drain
		return nil
	}
}

// WithPublishRetry sets how publishing is retried.
// Default is 3 attempts starting at 200ms.
func WithPublishRetry(attempts int, baseDelay time.Duration) Option {
	return func(r *Runtime) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		r.retries = attempts
		r.retryDelay = baseDelay
		return nil
	}
}

// WithErrorDelay sets how long Run pauses after a failed receive.
// Default is 5 seconds.
func WithErrorDelay(d time.Duration) Option {
	return func(r *Runtime) error {
		r.errorDelay = d
		return nil
	}
}

// NewRuntime creates a Runtime for the named service.
func NewRuntime(
	service string,
	consumer queue.Consumer,
	publisher queue.Publisher,
	processor Processor,
	opts ...Option,
) (*Runtime, error) {
	if service == "" {
		return nil, ErrServiceNameRequired
	}
	if consumer == nil {
		return nil, ErrConsumerRequired
	}
	if publisher == nil {
		return nil, ErrPublisherRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		service:    service,
		consumer:   consumer,
		publisher:  publisher,
		processor:  processor,
		pool:       pool,
		batchSize:  defaultBatchSize,
		waitTime:   defaultWaitTime,
		retries:    defaultPublishRetries,
		retryDelay: defaultPublishDelay,
		errorDelay: defaultErrorDelay,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}
	r.logger = r.logger.With("service", service)

	return r, nil
}

// Stats returns a snapshot of the message counters.
func (r *Runtime) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

// Run receives and handles messages until ctx is cancelled or, in drain
// mode, until the queue is empty.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("starting consumer", "batchSize", r.batchSize, "waitTime", r.waitTime, "drain", r.drain)
	for {
		n, err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			r.logger.Info("consumer stopped", "stats", r.Stats())
			return nil
		}
		if err != nil {
			r.logger.Error("receive failed", "err", err)
			if !sleep(ctx, r.errorDelay) {
				return nil
			}
			continue
		}
		if n == 0 && r.drain {
			r.logger.Info("queue drained", "stats", r.Stats())
			return nil
		}
	}
}

// RunOnce performs one receive and handles the batch on the worker pool.
// It returns the number of messages received.
func (r *Runtime) RunOnce(ctx context.Context) (int, error) {
	messages, err := r.consumer.Receive(ctx, r.batchSize, r.waitTime)
	if err != nil {
		return 0, err
	}
	r.stats.received.Add(int64(len(messages)))

	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()
			if err := r.HandleMessage(ctx, msg); err != nil {
				r.logger.Error("error handling message", "messageId", msg.ID, "err", err)
			}
		})
		if submitErr != nil {
			wg.Done()
			r.stats.failed.Add(1)
			r.logger.Error("error submitting message", "messageId", msg.ID, "err", submitErr)
		}
	}
	wg.Wait()

	return len(messages), nil
}

// HandleMessage processes a single message. The message is deleted from the
// queue only when nil is returned. Each message counts once: malformed
// messages as Malformed, other errors as Failed.
func (r *Runtime) HandleMessage(ctx context.Context, msg queue.Message) error {
	err := r.handle(ctx, msg)
	if err != nil && !errors.Is(err, ErrMalformedMessage) {
		r.stats.failed.Add(1)
	}
	return err
}

func (r *Runtime) handle(ctx context.Context, msg queue.Message) error {
	body := queue.Unwrap(msg.Body)

	event, err := core.ParseEvent(body)
	if err != nil {
		r.stats.malformed.Add(1)
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := core.ValidateEvent(event); err != nil {
		r.stats.malformed.Add(1)
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	logger := r.logger.With("messageId", msg.ID, "chainId", event.Data.ChainID)
	key := core.FingerprintOf([]byte(r.service), body)

	if r.ledger != nil {
		seen, err := r.ledger.Seen(ctx, key)
		if err != nil {
			logger.Warn("ledger lookup failed", "err", err)
		} else if seen {
			r.stats.duplicates.Add(1)
			logger.Info("skipping duplicate message", "key", key)
			return r.consumer.Delete(ctx, msg)
		}
	}

	events, err := Collect(ctx, r.processor, event)
	if err != nil {
		return fmt.Errorf("processing %s: %w", event.Document().URL, err)
	}

	if err := r.publish(ctx, events); err != nil {
		return err
	}

	if r.ledger != nil {
		entry := &storage.Entry{
			Key:       key,
			MessageID: msg.ID,
			ChainID:   event.Data.ChainID,
			Service:   r.service,
			Outputs:   len(events),
		}
		if err := r.ledger.Mark(ctx, entry); err != nil {
			logger.Warn("ledger update failed", "err", err)
		}
	}

	if err := r.consumer.Delete(ctx, msg); err != nil {
		return err
	}
	r.stats.processed.Add(1)
	logger.Debug("message handled", "outputs", len(events))
	return nil
}

func (r *Runtime) publish(ctx context.Context, events []*core.Event) error {
	var errs []error
	for _, event := range events {
		event.PushCallStack(r.service)
		err := RetryWithBackoff(ctx, func() error {
			return r.publisher.Publish(ctx, event)
		}, r.retries, r.retryDelay)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.stats.published.Add(1)
	}
	return errors.Join(errs...)
}

// Release releases the worker pool. The runtime should not be used after
// calling Release.
func (r *Runtime) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
