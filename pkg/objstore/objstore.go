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

//go:generate mockgen -destination=mock_objstore.go -package=objstore github.com/carverauto/feedwarehouse/pkg/objstore S3API

// Package objstore adapts the object store holding file bodies. Objects are
// keyed by the derived names in pkg/keys; a small metadata header rides along
// for auditability but the index store stays authoritative.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/carverauto/feedwarehouse/pkg/logger"
)

// ErrNotFound reports that no object exists under a key. The engine
// translates it into an absent result.
var ErrNotFound = errors.New("object not found")

// S3API is the slice of the S3 client the adapter uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store is the object store adapter.
type Store struct {
	client S3API
	log    logger.Logger
}

// NewStore builds an object store adapter.
func NewStore(client S3API, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}

	return &Store{client: client, log: log}
}

// Object is a retrieved body plus its audit header.
type Object struct {
	Body   io.ReadCloser
	Header map[string]string
}

// Put uploads a body under the given key with the encoded metadata header.
func (s *Store) Put(ctx context.Context, bucket, key string, body io.Reader, header map[string]string) error {
	err := s.retry(ctx, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:   aws.String(bucket),
			Key:      aws.String(key),
			Body:     body,
			Metadata: header,
		})

		return err
	})
	if err != nil {
		return fmt.Errorf("uploading object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// Get downloads the object under a key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket, key string) (*Object, error) {
	var out *s3.GetObjectOutput

	err := s.retry(ctx, func() error {
		var err error

		out, err = s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})

		return err
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
		}

		return nil, fmt.Errorf("downloading object %s/%s: %w", bucket, key, err)
	}

	return &Object{Body: out.Body, Header: out.Metadata}, nil
}

// Delete removes the object under a key. Deleting a missing key is not an
// error.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	err := s.retry(ctx, func() error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})

		return err
	})
	if err != nil {
		return fmt.Errorf("deleting object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// ListKeys returns every key under a prefix, following pagination.
func (s *Store) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string

	var token *string

	for {
		var out *s3.ListObjectsV2Output

		err := s.retry(ctx, func() error {
			var err error

			out, err = s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: token,
			})

			return err
		})
		if err != nil {
			return nil, fmt.Errorf("listing objects %s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}

		token = out.NextContinuationToken
	}

	return keys, nil
}

func (s *Store) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if isTransient(err) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
}

func isTransient(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout":
		return true
	default:
		return false
	}
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	code := apiErr.ErrorCode()

	return code == "NoSuchKey" || code == "NotFound"
}
