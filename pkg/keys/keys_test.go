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

package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectionID(t *testing.T) {
	require.Equal(t, "miso_load", CollectionID("miso", "load"))
}

func TestSerializePrimaryKey(t *testing.T) {
	dt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	serialized, err := SerializePrimaryKey([]any{dt, int64(123456), "file.txt"})
	require.NoError(t, err)
	require.Equal(t, "1577836800_123456_file.txt", serialized)

	_, err = SerializePrimaryKey([]any{[]byte("nope")})
	require.Error(t, err)
}

func TestFileKey(t *testing.T) {
	fileKey, err := FileKey("miso", "load", []any{"http://url-1"})
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("http://url-1"))
	want := "miso/load/" + hex.EncodeToString(digest[:])
	require.Equal(t, want, fileKey)

	require.Equal(t, hex.EncodeToString(digest[:]), HashSegment(fileKey))

	// Same primary key, same file key.
	again, err := FileKey("miso", "load", []any{"http://url-1"})
	require.NoError(t, err)
	require.Equal(t, fileKey, again)
}

func TestNewSourceVersion(t *testing.T) {
	retrieved := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

	version := NewSourceVersion(retrieved)
	require.Regexp(t, regexp.MustCompile(`^\d+_[0-9a-f]{8}$`), version)

	prefix, _, _ := strings.Cut(version, "_")
	require.Equal(t, strconv.FormatInt(retrieved.Unix(), 10), prefix)

	epoch, err := VersionEpoch(version)
	require.NoError(t, err)
	require.Equal(t, retrieved.Unix(), epoch)

	// The random suffix makes same-second versions unique.
	require.NotEqual(t, version, NewSourceVersion(retrieved))

	_, err = VersionEpoch("no-separator")
	require.Error(t, err)
}

func TestObjectKeys(t *testing.T) {
	fileKey := "miso/load/abc123"

	require.Equal(t,
		"miso/load/111_deadbeef_abc123",
		SourceObjectKey("", "miso", "load", "111_deadbeef", fileKey))

	require.Equal(t,
		"pfx/miso/load/111_deadbeef_abc123",
		SourceObjectKey("pfx", "miso", "load", "111_deadbeef", fileKey))

	require.Equal(t,
		"pfx/miso/load/111_deadbeef_abc123",
		SourceObjectKey("pfx/", "miso", "load", "111_deadbeef", fileKey))

	require.Equal(t,
		"miso/load/csv/111_deadbeef_abc123",
		ParsedObjectKey("", "miso", "load", "csv", "111_deadbeef", fileKey))

	require.Equal(t,
		"pfx/miso/load/csv/",
		ParsedScopePrefix("pfx", "miso", "load", "csv"))
}
