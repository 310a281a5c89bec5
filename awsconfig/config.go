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

// Package awsconfig loads the shared AWS configuration used by the S3, SQS
// and SNS clients.
package awsconfig

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Config holds connection settings for AWS services. Empty fields fall back
// to the SDK's default resolution (environment, shared config, instance role).
type Config struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken"`
	// Endpoint overrides the service endpoint (localstack, minio).
	Endpoint string `json:"endpoint"`
	// UsePathStyle forces path-style S3 addressing.
	UsePathStyle bool `json:"usePathStyle"`
}

// Load resolves an aws.Config from cfg.
func Load(ctx context.Context, cfg *Config) (aws.Config, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	loadOptions := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	return config.LoadDefaultConfig(ctx, loadOptions...)
}

// BaseEndpoint returns the endpoint override, or nil when unset.
func (c *Config) BaseEndpoint() *string {
	if c == nil || c.Endpoint == "" {
		return nil
	}
	return aws.String(c.Endpoint)
}
