/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package awsclient builds the backing-service clients, optionally under an
// assumed role whose credentials renew one minute before expiry.
package awsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const renewalWindow = time.Minute

// Options configure the shared AWS session.
type Options struct {
	Region string

	// RoleARN, when set, routes every call through assumed-role credentials.
	RoleARN string

	// SessionDuration bounds each assumed-role session.
	SessionDuration time.Duration
}

// Clients holds the store client handles shared by the engine.
type Clients struct {
	Dynamo *dynamodb.Client
	S3     *s3.Client
}

// New builds the client set. With a role configured, credentials come from a
// cache that reassumes the role transparently once the remaining lifetime
// drops under the renewal window; the token-vending call may block the
// operation that triggers it.
func New(ctx context.Context, opts Options) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	if opts.RoleARN != "" {
		stsClient := sts.NewFromConfig(cfg)

		provider := stscreds.NewAssumeRoleProvider(stsClient, opts.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if opts.SessionDuration > 0 {
				o.Duration = opts.SessionDuration
			}
		})

		cfg.Credentials = aws.NewCredentialsCache(provider, func(o *aws.CredentialsCacheOptions) {
			o.ExpiryWindow = renewalWindow
		})
	}

	return &Clients{
		Dynamo: dynamodb.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
	}, nil
}
