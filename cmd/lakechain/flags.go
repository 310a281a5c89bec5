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
	"time"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/storage/badger"
	"github.com/urfave/cli/v2"
)

// runtimeFlags are shared by every processor command. Environment variable
// names match the container contract of the deployed middlewares.
func runtimeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "service",
			Usage:    "Service name used in logs, call stacks and ledger entries",
			EnvVars:  []string{"POWERTOOLS_SERVICE_NAME"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "input-queue",
			Usage:    "SQS queue URL to consume",
			EnvVars:  []string{"INPUT_QUEUE_URL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "target-topic",
			Usage:   "SNS topic ARN receiving output events (none for a terminal stage)",
			EnvVars: []string{"SNS_TARGET_TOPIC"},
		},
		&cli.StringFlag{
			Name:    "target-bucket",
			Usage:   "Bucket receiving derived documents",
			EnvVars: []string{"PROCESSED_FILES_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "cache-bucket",
			Usage:   "Bucket receiving intermediate artifacts",
			EnvVars: []string{"LAKECHAIN_CACHE_STORAGE"},
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Messages received per poll (1-10)",
			EnvVars: []string{"BATCH_SIZE"},
			Value:   10,
		},
		&cli.DurationFlag{
			Name:    "wait-time",
			Usage:   "Long polling wait time",
			EnvVars: []string{"WAIT_TIME"},
			Value:   20 * time.Second,
		},
		&cli.IntFlag{
			Name:    "pool-size",
			Usage:   "Concurrent message handlers (0 uses half the CPUs)",
			EnvVars: []string{"POOL_SIZE"},
		},
		&cli.BoolFlag{
			Name:    "drain",
			Usage:   "Exit once a poll returns no messages",
			EnvVars: []string{"DRAIN"},
		},
		&cli.StringFlag{
			Name:    "ledger",
			Usage:   "Path to the BadgerDB ledger used to skip redelivered messages",
			EnvVars: []string{"LEDGER_PATH"},
		},
		&cli.DurationFlag{
			Name:    "ledger-ttl",
			Usage:   "How long handled messages are remembered",
			EnvVars: []string{"LEDGER_TTL"},
			Value:   badger.DefaultTTL,
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "aws-endpoint",
			Usage:   "Endpoint override for S3, SQS and SNS (localstack, minio)",
			EnvVars: []string{"AWS_ENDPOINT_URL"},
		},
		&cli.BoolFlag{
			Name:    "aws-path-style",
			Usage:   "Use path-style S3 addressing",
			EnvVars: []string{"AWS_S3_PATH_STYLE"},
		},
	}
}

// modelFlags configure the embedding and generation backend.
func modelFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "ai-provider",
			Usage:   "Model backend (openai, ollama, mock)",
			EnvVars: []string{"AI_PROVIDER"},
			Value:   "openai",
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			EnvVars: []string{"EMBEDDING_HOST"},
			Value:   defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"EMBEDDING_MODEL"},
			Value:   defaults.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:    "generation-host",
			Usage:   "Text generation service host URL",
			EnvVars: []string{"GENERATION_HOST"},
			Value:   defaults.GenerationHost,
		},
		&cli.StringFlag{
			Name:    "generation-model",
			Usage:   "Text generation model name",
			EnvVars: []string{"GENERATION_MODEL", "MODEL_ID"},
			Value:   defaults.GenerationModel,
		},
		apiKeyFlag(),
		&cli.IntFlag{
			Name:    "max-concurrency",
			Usage:   "Maximum in-flight model calls",
			EnvVars: []string{"MAX_CONCURRENCY"},
			Value:   defaults.MaxConcurrency,
		},
	}
}

// speechFlags configure the transcription and speech synthesis backend.
func speechFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "speech-host",
			Usage:   "OpenAI-compatible audio API host URL",
			EnvVars: []string{"SPEECH_HOST"},
			Value:   defaults.SpeechHost,
		},
		&cli.StringFlag{
			Name:    "transcription-model",
			Usage:   "Speech to text model",
			EnvVars: []string{"TRANSCRIPTION_MODEL"},
			Value:   defaults.TranscriptionModel,
		},
		&cli.StringFlag{
			Name:    "speech-model",
			Usage:   "Text to speech model",
			EnvVars: []string{"SPEECH_MODEL"},
			Value:   defaults.SpeechModel,
		},
		apiKeyFlag(),
	}
}

func apiKeyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "api-key",
		Usage:   "API key for hosted model services",
		EnvVars: []string{"OPENAI_API_KEY"},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	seen := map[string]bool{}
	for _, group := range groups {
		for _, f := range group {
			name := f.Names()[0]
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, f)
		}
	}
	return out
}
