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

//go:generate mockgen -destination=mock_registry.go -package=registry github.com/carverauto/feedwarehouse/pkg/registry DynamoAPI

package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/logger"
)

// ErrNotFound reports that no registry entry exists for a collection.
var ErrNotFound = errors.New("collection is not registered")

// DynamoAPI is the slice of the DynamoDB client the registry store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type cacheEntry struct {
	entry    *CollectionSchema
	storedAt time.Time
}

// Store reads and writes registry entries, keeping a per-process cache whose
// entries expire after the configured TTL. Entries are deep-copied both into
// and out of the cache so callers can never alias cached state.
type Store struct {
	client DynamoAPI
	table  string
	ttl    time.Duration
	log    logger.Logger

	mu       sync.Mutex
	cache    map[string]cacheEntry
	lastScan time.Time
	scanned  bool

	now func() time.Time
}

// NewStore builds a registry store over the given table.
func NewStore(client DynamoAPI, table string, ttl time.Duration, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}

	return &Store{
		client: client,
		table:  table,
		ttl:    ttl,
		log:    log,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}
}

// Get fetches one collection's entry. With useCached, an unexpired cache
// entry is served without touching the table; otherwise a single-key read is
// issued and the cache refreshed.
func (s *Store) Get(ctx context.Context, database, collection string, useCached bool) (*CollectionSchema, error) {
	id := keys.CollectionID(database, collection)

	if useCached {
		if entry := s.getCached(id); entry != nil {
			return entry, nil
		}
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			FieldID: &ddbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading registry entry: %w", err)
	}

	if out.Item == nil {
		return nil, fmt.Errorf("%w: collection %q in database %q", ErrNotFound, collection, database)
	}

	entry, err := decodeEntry(out.Item)
	if err != nil {
		return nil, err
	}

	s.updateCache(entry)

	return entry, nil
}

// IterAll returns every registry entry. With useCached and an unexpired
// previous full scan, the cache is replayed in feed-id order; otherwise a
// paginated table scan repopulates the cache and stamps the scan time.
func (s *Store) IterAll(ctx context.Context, useCached bool) ([]*CollectionSchema, error) {
	if useCached && s.scanStillValid() {
		return s.cachedEntries(), nil
	}

	var entries []*CollectionSchema

	var startKey map[string]ddbtypes.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scanning registry: %w", err)
		}

		for _, item := range out.Items {
			entry, err := decodeEntry(item)
			if err != nil {
				return nil, err
			}

			s.updateCache(entry)
			entries = append(entries, entry)
		}

		if out.LastEvaluatedKey == nil {
			break
		}

		startKey = out.LastEvaluatedKey
	}

	s.mu.Lock()
	s.lastScan = s.now()
	s.scanned = true
	s.mu.Unlock()

	s.log.Debug().Int("entries", len(entries)).Msg("registry scan complete")

	return entries, nil
}

// Upsert writes a full entry and refreshes the cache.
func (s *Store) Upsert(ctx context.Context, entry *CollectionSchema) error {
	encoded, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      encoded,
	}); err != nil {
		return fmt.Errorf("writing registry entry: %w", err)
	}

	s.updateCache(entry)

	return nil
}

func (s *Store) updateCache(entry *CollectionSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[entry.FeedID()] = cacheEntry{entry: entry.Clone(), storedAt: s.now()}
}

func (s *Store) getCached(id string) *CollectionSchema {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.cache[id]
	if !ok {
		return nil
	}

	if s.now().Sub(cached.storedAt) >= s.ttl {
		delete(s.cache, id)
		return nil
	}

	return cached.entry.Clone()
}

func (s *Store) scanStillValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scanned && s.now().Sub(s.lastScan) < s.ttl
}

func (s *Store) cachedEntries() []*CollectionSchema {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.cache))
	for id := range s.cache {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	entries := make([]*CollectionSchema, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.cache[id].entry.Clone())
	}

	return entries
}
