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

package index

import (
	"context"
	"errors"
	"time"

	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
)

const maxRetryElapsed = 30 * time.Second

// withRetry runs op with exponential backoff on transient store failures.
// Conditional-check failures and other client errors are returned
// immediately; they are semantic, not transient.
func withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxRetryElapsed

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if isThrottle(err) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
}

func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "ProvisionedThroughputExceededException",
		"ThrottlingException",
		"RequestLimitExceeded",
		"InternalServerError",
		"ServiceUnavailable",
		"SlowDown":
		return true
	default:
		return false
	}
}

func isConditionalCheckFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.ErrorCode() == "ConditionalCheckFailedException"
}
