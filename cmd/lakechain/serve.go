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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/ai/mock"
	"github.com/poiesic/lakechain/ai/ollama"
	"github.com/poiesic/lakechain/ai/openai"
	"github.com/poiesic/lakechain/ai/speech"
	"github.com/poiesic/lakechain/awsconfig"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/queue"
	"github.com/poiesic/lakechain/queue/sns"
	"github.com/poiesic/lakechain/queue/sqs"
	"github.com/poiesic/lakechain/storage/badger"
	s3store "github.com/poiesic/lakechain/storage/s3"
	"github.com/urfave/cli/v2"
)

const ledgerGCInterval = 10 * time.Minute

// buildFunc creates the processor of a command. Returned closers are
// closed after the runtime stops.
type buildFunc func(ctx context.Context, c *cli.Context, env *processors.Env) (middleware.Processor, []io.Closer, error)

func awsConfig(c *cli.Context) *awsconfig.Config {
	return &awsconfig.Config{
		Region:       c.String("aws-region"),
		Endpoint:     c.String("aws-endpoint"),
		UsePathStyle: c.Bool("aws-path-style"),
	}
}

// serve wires the AWS services, the ledger and the processor into a
// middleware runtime and runs it until interrupted.
func serve(c *cli.Context, build buildFunc) (err error) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := c.String("service")
	logger := slog.Default().With("service", service)
	awsCfg := awsConfig(c)

	store, err := s3store.New(ctx, awsCfg)
	if err != nil {
		return fmt.Errorf("failed to create S3 store: %w", err)
	}
	env := &processors.Env{
		Service:      service,
		Store:        store,
		HTTPClient:   &http.Client{Timeout: 5 * time.Minute},
		TargetBucket: c.String("target-bucket"),
		CacheBucket:  c.String("cache-bucket"),
		Logger:       logger,
	}

	processor, closers, err := build(ctx, c, env)
	if err != nil {
		return err
	}
	defer func() {
		for _, closer := range closers {
			err = errors.Join(err, closer.Close())
		}
	}()

	consumer, err := sqs.New(ctx, awsCfg, c.String("input-queue"))
	if err != nil {
		return fmt.Errorf("failed to create SQS consumer: %w", err)
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if topic := c.String("target-topic"); topic != "" {
		publisher, err = sns.New(ctx, awsCfg, topic)
		if err != nil {
			return fmt.Errorf("failed to create SNS publisher: %w", err)
		}
	} else {
		logger.Info("no target topic configured, output events are dropped")
	}

	opts := []middleware.Option{
		middleware.WithLogger(logger),
		middleware.WithBatchSize(c.Int("batch-size")),
		middleware.WithWaitTime(c.Duration("wait-time")),
		middleware.WithDrain(c.Bool("drain")),
	}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, middleware.WithPoolSize(size))
	}
	if path := c.String("ledger"); path != "" {
		backend, openErr := badger.OpenBackend(path, false)
		if openErr != nil {
			return fmt.Errorf("failed to open ledger at %s: %w", path, openErr)
		}
		defer backend.Close()
		gcStop := make(chan struct{})
		defer close(gcStop)
		backend.StartGC(ledgerGCInterval, gcStop)
		opts = append(opts, middleware.WithLedger(badger.NewLedger(backend, c.Duration("ledger-ttl"))))
	}

	runtime, err := middleware.NewRuntime(service, consumer, publisher, processor, opts...)
	if err != nil {
		return err
	}
	defer runtime.Release()

	return runtime.Run(ctx)
}

// modelConfig builds an ai.Config from the model and speech flags.
func modelConfig(c *cli.Context) *ai.Config {
	defaults := ai.DefaultConfig()
	str := func(name, fallback string) string {
		if v := c.String(name); v != "" {
			return v
		}
		return fallback
	}
	config := ai.NewConfig(
		ai.WithEmbeddingHost(str("embedding-host", defaults.EmbeddingHost)),
		ai.WithEmbeddingModel(str("embedding-model", defaults.EmbeddingModel)),
		ai.WithGenerationHost(str("generation-host", defaults.GenerationHost)),
		ai.WithGenerationModel(str("generation-model", defaults.GenerationModel)),
		ai.WithSpeechHost(str("speech-host", defaults.SpeechHost)),
		ai.WithTranscriptionModel(str("transcription-model", defaults.TranscriptionModel)),
		ai.WithSpeechModel(str("speech-model", defaults.SpeechModel)),
		ai.WithAPIKey(c.String("api-key")),
	)
	if n := c.Int("max-concurrency"); n > 0 {
		config.MaxConcurrency = n
	}
	return config
}

// newProvider creates the embedding and generation provider selected by
// --ai-provider.
func newProvider(ctx context.Context, c *cli.Context, env *processors.Env) (ai.Provider, error) {
	config := modelConfig(c)
	switch name := c.String("ai-provider"); name {
	case "", "openai":
		return openai.NewProvider(config)
	case "mock":
		env.Log("mock").Warn("using deterministic mock models")
		return mock.NewMockProvider(), nil
	case "ollama":
		return ollama.NewProvider(ctx, config,
			ollama.WithHTTPClient(env.HTTPClient),
			ollama.WithLogger(env.Log("ollama")),
		)
	default:
		return nil, fmt.Errorf("unknown ai provider %q: must be openai, ollama or mock", name)
	}
}

func newSpeechClient(c *cli.Context) (*speech.Client, error) {
	return speech.New(modelConfig(c))
}
