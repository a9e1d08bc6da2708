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

// Package stream provides the seekable file abstraction handed to and
// returned by the warehouse. A stream couples a rewindable body with the
// file's metadata map and remembers whether the body is binary or text.
package stream

import (
	"bytes"
	"crypto/md5" //nolint:gosec // content identity digest, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
)

// SeekableStream is a rewindable file body plus its metadata.
type SeekableStream struct {
	Metadata map[string]any

	body    io.ReadSeeker
	isBytes bool
}

// NewString wraps text content.
func NewString(content string, metadata map[string]any) *SeekableStream {
	return &SeekableStream{
		Metadata: cloneMetadata(metadata),
		body:     bytes.NewReader([]byte(content)),
		isBytes:  false,
	}
}

// NewBytes wraps binary content.
func NewBytes(content []byte, metadata map[string]any) *SeekableStream {
	return &SeekableStream{
		Metadata: cloneMetadata(metadata),
		body:     bytes.NewReader(content),
		isBytes:  true,
	}
}

// New wraps an arbitrary rewindable body.
func New(body io.ReadSeeker, isBytes bool, metadata map[string]any) *SeekableStream {
	return &SeekableStream{
		Metadata: cloneMetadata(metadata),
		body:     body,
		isBytes:  isBytes,
	}
}

// IsBytes reports whether the body is binary rather than text.
func (s *SeekableStream) IsBytes() bool {
	return s.isBytes
}

func (s *SeekableStream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

func (s *SeekableStream) Seek(offset int64, whence int) (int64, error) {
	return s.body.Seek(offset, whence)
}

// ReadAll drains the remaining body.
func (s *SeekableStream) ReadAll() ([]byte, error) {
	return io.ReadAll(s.body)
}

// Rewind seeks back to the start of the body.
func (s *SeekableStream) Rewind() error {
	_, err := s.body.Seek(0, io.SeekStart)
	return err
}

// MD5 computes the content digest from the start of the body and restores the
// prior read position afterwards.
func (s *SeekableStream) MD5() (string, error) {
	pos, err := s.body.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", fmt.Errorf("saving stream position: %w", err)
	}

	if _, err := s.body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding stream: %w", err)
	}

	hash := md5.New() //nolint:gosec // content identity digest
	if _, err := io.Copy(hash, s.body); err != nil {
		return "", fmt.Errorf("hashing stream: %w", err)
	}

	if _, err := s.body.Seek(pos, io.SeekStart); err != nil {
		return "", fmt.Errorf("restoring stream position: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func cloneMetadata(metadata map[string]any) map[string]any {
	cloned := make(map[string]any, len(metadata))
	for k, v := range metadata {
		cloned[k] = v
	}

	return cloned
}
