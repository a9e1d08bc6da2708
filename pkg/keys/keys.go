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

// Package keys derives every identifier the warehouse writes: collection ids,
// file hash keys, source version ids, and object-store keys. Derivations are
// deterministic so that independent writers agree on names.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/feedwarehouse/pkg/types"
)

// CollectionID is the process-global identifier for a (database, collection)
// pair.
func CollectionID(database, collection string) string {
	return database + "_" + collection
}

// SerializePrimaryKey joins primary-key values with "_". Datetimes serialize
// as decimal epoch seconds; all other values through the type codec.
func SerializePrimaryKey(values []any) (string, error) {
	parts := make([]string, 0, len(values))

	for _, value := range values {
		if t, ok := value.(time.Time); ok {
			parts = append(parts, types.EpochString(t))
			continue
		}

		encoded, err := types.Encode(value)
		if err != nil {
			return "", fmt.Errorf("serializing primary key: %w", err)
		}

		parts = append(parts, encoded.Str)
	}

	return strings.Join(parts, "_"), nil
}

// FileKey derives the hash key for a logical source file:
// db/coll/hex(sha256(serialized primary key)).
func FileKey(database, collection string, pkValues []any) (string, error) {
	serialized, err := SerializePrimaryKey(pkValues)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(serialized))

	return database + "/" + collection + "/" + hex.EncodeToString(digest[:]), nil
}

// HashSegment extracts the digest segment of a file key.
func HashSegment(fileKey string) string {
	idx := strings.LastIndex(fileKey, "/")
	if idx < 0 {
		return fileKey
	}

	return fileKey[idx+1:]
}

// NewSourceVersion generates a version id for a retrieval. The epoch prefix
// collates versions chronologically; the random suffix only breaks ties
// within the same second.
func NewSourceVersion(retrieved time.Time) string {
	id := uuid.New()
	suffix := hex.EncodeToString(id[:])[:8]

	return strconv.FormatInt(retrieved.Unix(), 10) + "_" + suffix
}

// VersionEpoch parses the epoch prefix of a source version id.
func VersionEpoch(sourceVersion string) (int64, error) {
	prefix, _, found := strings.Cut(sourceVersion, "_")
	if !found {
		return 0, fmt.Errorf("malformed source version %q", sourceVersion)
	}

	return strconv.ParseInt(prefix, 10, 64)
}

// SourceObjectKey is the object-store key for a source file body.
func SourceObjectKey(prefix, database, collection, sourceVersion, fileKey string) string {
	key := database + "/" + collection + "/" + sourceVersion + "_" + HashSegment(fileKey)
	return withPrefix(prefix, key)
}

// ParsedObjectKey is the object-store key for a parsed file body, scoped
// under its parser.
func ParsedObjectKey(prefix, database, collection, parser, sourceVersion, fileKey string) string {
	key := database + "/" + collection + "/" + parser + "/" + sourceVersion + "_" + HashSegment(fileKey)
	return withPrefix(prefix, key)
}

// ParsedScopePrefix is the key prefix under which every parsed object for a
// parser lives; used when cascading deletes.
func ParsedScopePrefix(prefix, database, collection, parser string) string {
	return withPrefix(prefix, database+"/"+collection+"/"+parser+"/")
}

func withPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return strings.TrimSuffix(prefix, "/") + "/" + key
}
