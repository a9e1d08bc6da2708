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

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/feedwarehouse/pkg/types"
)

func testEntry() *CollectionSchema {
	chi, _ := time.LoadLocation("America/Chicago")

	return &CollectionSchema{
		Database:               "miso",
		Collection:             "load",
		PrimaryKeyFields:       []string{"key1"},
		RequiredMetadataFields: []string{"key2"},
		MetadataTypeMap: map[string]types.Kind{
			"key1": types.KindDatetime,
			"key2": types.KindInt,
		},
		Parsers: map[string]*ParserSchema{
			"csv": {
				PrimaryKeyFields: []string{"key1"},
				RowTypeMap:       map[string]types.Kind{"key1": types.KindDatetime},
				Timezone:         chi,
				Default:          true,
			},
		},
	}
}

func TestEntryCodecRoundTrip(t *testing.T) {
	entry := testEntry()

	item, err := encodeEntry(entry)
	require.NoError(t, err)

	// Every cell is a string.
	for field, value := range item {
		_, ok := value.(*ddbtypes.AttributeValueMemberS)
		require.True(t, ok, field)
	}

	require.Equal(t, "miso_load",
		item[FieldID].(*ddbtypes.AttributeValueMemberS).Value)

	decoded, err := decodeEntry(item)
	require.NoError(t, err)

	require.Equal(t, entry.Database, decoded.Database)
	require.Equal(t, entry.Collection, decoded.Collection)
	require.Equal(t, entry.PrimaryKeyFields, decoded.PrimaryKeyFields)
	require.Equal(t, entry.RequiredMetadataFields, decoded.RequiredMetadataFields)
	require.Equal(t, entry.MetadataTypeMap, decoded.MetadataTypeMap)
	require.Len(t, decoded.Parsers, 1)

	parser := decoded.Parsers["csv"]
	require.Equal(t, []string{"key1"}, parser.PrimaryKeyFields)
	require.True(t, parser.Default)
	require.Equal(t, "America/Chicago", parser.Timezone.String())
}

func TestAllRequiredFields(t *testing.T) {
	entry := testEntry()
	require.Equal(t, []string{"key1", "key2"}, entry.AllRequiredFields())

	// Overlapping keys are not duplicated.
	entry.RequiredMetadataFields = []string{"key1", "key2"}
	require.Equal(t, []string{"key1", "key2"}, entry.AllRequiredFields())
}

func TestCloneIsDeep(t *testing.T) {
	entry := testEntry()
	cloned := entry.Clone()

	cloned.MetadataTypeMap["key3"] = types.KindStr
	cloned.Parsers["csv"].Default = false
	cloned.PrimaryKeyFields[0] = "changed"

	require.NotContains(t, entry.MetadataTypeMap, "key3")
	require.True(t, entry.Parsers["csv"].Default)
	require.Equal(t, "key1", entry.PrimaryKeyFields[0])
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *MockDynamoAPI) {
	ctrl := gomock.NewController(t)
	client := NewMockDynamoAPI(ctrl)

	return NewStore(client, "registry-table", ttl, nil), client
}

func TestGetMissAndHit(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore(t, 300*time.Second)

	// Miss.
	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{}, nil)

	_, err := store.Get(ctx, "miso", "load", false)
	require.ErrorIs(t, err, ErrNotFound)

	// Hit populates the cache.
	item, err := encodeEntry(testEntry())
	require.NoError(t, err)

	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{Item: item}, nil)

	entry, err := store.Get(ctx, "miso", "load", false)
	require.NoError(t, err)
	require.Equal(t, "miso_load", entry.FeedID())

	// Cached read issues no further table calls.
	cached, err := store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)
	require.Equal(t, entry.FeedID(), cached.FeedID())

	// Mutating the returned entry does not poison the cache.
	cached.PrimaryKeyFields[0] = "mutated"

	fresh, err := store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)
	require.Equal(t, "key1", fresh.PrimaryKeyFields[0])
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore(t, 300*time.Second)

	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	item, err := encodeEntry(testEntry())
	require.NoError(t, err)

	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{Item: item}, nil).
		Times(2)

	_, err = store.Get(ctx, "miso", "load", false)
	require.NoError(t, err)

	// Half the TTL: still cached.
	now = now.Add(150 * time.Second)
	_, err = store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)

	// Past the TTL: the entry is refetched.
	now = now.Add(300 * time.Second)
	_, err = store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore(t, 0)

	item, err := encodeEntry(testEntry())
	require.NoError(t, err)

	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{Item: item}, nil).
		Times(2)

	_, err = store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)
	_, err = store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)
}

func TestIterAllScansAndReplaysCache(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore(t, 300*time.Second)

	first, err := encodeEntry(testEntry())
	require.NoError(t, err)

	second := testEntry()
	second.Collection = "realtime"

	secondItem, err := encodeEntry(second)
	require.NoError(t, err)

	// Two pages.
	lastKey := map[string]ddbtypes.AttributeValue{
		FieldID: &ddbtypes.AttributeValueMemberS{Value: "miso_load"},
	}

	client.EXPECT().
		Scan(gomock.Any(), gomock.Any()).
		Return(&dynamodb.ScanOutput{
			Items:            []map[string]ddbtypes.AttributeValue{first},
			LastEvaluatedKey: lastKey,
		}, nil)
	client.EXPECT().
		Scan(gomock.Any(), gomock.Any()).
		Return(&dynamodb.ScanOutput{
			Items: []map[string]ddbtypes.AttributeValue{secondItem},
		}, nil)

	entries, err := store.IterAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Replay from cache in feed-id order, no second scan.
	replayed, err := store.IterAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, replayed, 2)
	require.Equal(t, "miso_load", replayed[0].FeedID())
	require.Equal(t, "miso_realtime", replayed[1].FeedID())

	// Bypassing the cache scans again.
	client.EXPECT().
		Scan(gomock.Any(), gomock.Any()).
		Return(&dynamodb.ScanOutput{}, nil)

	entries, err = store.IterAll(ctx, false)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpsertWritesAndCaches(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore(t, 300*time.Second)

	entry := testEntry()

	client.EXPECT().
		PutItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			require.Equal(t, "registry-table", *in.TableName)
			require.Equal(t, "miso_load", in.Item[FieldID].(*ddbtypes.AttributeValueMemberS).Value)
			return &dynamodb.PutItemOutput{}, nil
		})

	require.NoError(t, store.Upsert(ctx, entry))

	// The upserted entry is served from cache.
	cached, err := store.Get(ctx, "miso", "load", true)
	require.NoError(t, err)
	require.Equal(t, entry.FeedID(), cached.FeedID())
}
