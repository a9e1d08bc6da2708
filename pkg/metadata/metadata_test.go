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

package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/types"
)

func testSchema() *registry.CollectionSchema {
	return &registry.CollectionSchema{
		Database:               "miso",
		Collection:             "load",
		PrimaryKeyFields:       []string{"url"},
		RequiredMetadataFields: []string{"last-modified"},
		MetadataTypeMap: map[string]types.Kind{
			"url":           types.KindStr,
			"last-modified": types.KindDatetime,
			"count":         types.KindInt,
		},
		Parsers: map[string]*registry.ParserSchema{},
	}
}

func fullMeta() map[string]any {
	dt := time.Date(2020, 1, 2, 3, 0, 0, 0, time.UTC)

	return map[string]any{
		"url":            "http://url-1",
		"last-modified":  dt,
		"retrieved_date": dt,
		"release_date":   dt,
		"collection_id":  "miso_load",
		"md5":            "abc123",
		"bytes":          false,
		"source_version": "1577934000_deadbeef",
		"file_key":       "miso/load/abc",
		"s3_key":         "miso/load/1577934000_deadbeef_abc",
		"content_start":  dt,
		"content_end":    dt.Add(24 * time.Hour),
	}
}

func TestValidate(t *testing.T) {
	codec := NewCodec(testSchema(), nil)

	require.NoError(t, codec.Validate(fullMeta(), false))
	require.NoError(t, codec.Validate(fullMeta(), true))

	// Each required field missing fails.
	for _, field := range []string{"url", "last-modified", "retrieved_date", "release_date", "collection_id", "md5", "bytes"} {
		meta := fullMeta()
		delete(meta, field)
		require.ErrorIs(t, codec.Validate(meta, false), ErrMissingField, field)

		meta = fullMeta()
		meta[field] = nil
		require.ErrorIs(t, codec.Validate(meta, false), ErrNilField, field)
	}

	// content_start is only required for parsed files.
	meta := fullMeta()
	delete(meta, "content_start")
	require.NoError(t, codec.Validate(meta, false))
	require.ErrorIs(t, codec.Validate(meta, true), ErrMissingField)

	// Nil is fine for an optional field with a type map entry.
	meta = fullMeta()
	meta["count"] = nil
	require.NoError(t, codec.Validate(meta, false))

	// Nil with no type map entry is not.
	meta = fullMeta()
	meta["mystery"] = nil
	require.ErrorIs(t, codec.Validate(meta, false), ErrNilField)
}

func TestEncodeRow(t *testing.T) {
	codec := NewCodec(testSchema(), nil)
	meta := fullMeta()
	meta["count"] = int64(42)
	meta["extra"] = "kept"
	meta["dropped"] = 1.5 // no type map entry, not a string

	row, err := codec.EncodeRow(meta)
	require.NoError(t, err)

	// Datetimes become numeric epoch cells.
	require.Equal(t, Cell{Value: "1577934000", Numeric: true}, row["retrieved_date"])
	require.Equal(t, Cell{Value: "1577934000", Numeric: true}, row["last-modified"])
	require.Equal(t, Cell{Value: "1578020400", Numeric: true}, row["content_end"])

	// Ints are numeric, bools and strings are not.
	require.Equal(t, Cell{Value: "42", Numeric: true}, row["count"])
	require.Equal(t, Cell{Value: "0"}, row["bytes"])
	require.Equal(t, Cell{Value: "http://url-1"}, row["url"])

	// collection_id is stored under the physical feed_id attribute.
	_, ok := row["collection_id"]
	require.False(t, ok)
	require.Equal(t, Cell{Value: "miso_load"}, row[PhysicalFeedID])

	// Untyped strings survive; untyped non-strings are dropped.
	require.Equal(t, Cell{Value: "kept"}, row["extra"])
	_, ok = row["dropped"]
	require.False(t, ok)

	// A declared type mismatch fails.
	meta = fullMeta()
	meta["count"] = "not-an-int"
	_, err = codec.EncodeRow(meta)
	require.ErrorIs(t, err, ErrTypeMismatch)

	// Nil optional values are omitted, not encoded.
	meta = fullMeta()
	meta["count"] = nil
	row, err = codec.EncodeRow(meta)
	require.NoError(t, err)
	_, ok = row["count"]
	require.False(t, ok)
}

func TestDecodeRowRoundTrip(t *testing.T) {
	codec := NewCodec(testSchema(), nil)
	meta := fullMeta()
	meta["count"] = int64(42)

	row, err := codec.EncodeRow(meta)
	require.NoError(t, err)

	decoded, err := codec.DecodeRow(row)
	require.NoError(t, err)

	require.Equal(t, meta["url"], decoded["url"])
	require.Equal(t, meta["md5"], decoded["md5"])
	require.Equal(t, meta["bytes"], decoded["bytes"])
	require.Equal(t, meta["count"], decoded["count"])
	require.Equal(t, meta["collection_id"], decoded["collection_id"])
	require.Equal(t, meta["source_version"], decoded["source_version"])

	for _, field := range []string{"retrieved_date", "release_date", "last-modified", "content_start", "content_end"} {
		require.True(t, meta[field].(time.Time).Equal(decoded[field].(time.Time)), field)
	}
}

func TestDecodeRowTimezone(t *testing.T) {
	chi, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	schema := testSchema()
	schema.Parsers["csv"] = &registry.ParserSchema{
		PrimaryKeyFields: []string{"url"},
		RowTypeMap:       map[string]types.Kind{"url": types.KindStr},
		Timezone:         chi,
		Default:          true,
	}

	codec := NewCodec(schema, nil)

	row := Row{"retrieved_date": Cell{Value: "1577934000", Numeric: true}}

	decoded, err := codec.DecodeRow(row)
	require.NoError(t, err)

	dt := decoded["retrieved_date"].(time.Time)
	require.Equal(t, chi, dt.Location())
	require.Equal(t, int64(1577934000), dt.Unix())

	// Without a default parser the zone falls back to UTC.
	decoded, err = NewCodec(testSchema(), nil).DecodeRow(row)
	require.NoError(t, err)
	require.Equal(t, time.UTC, decoded["retrieved_date"].(time.Time).Location())
}

func TestUnknownFieldsDecodeAsStrings(t *testing.T) {
	codec := NewCodec(testSchema(), nil)

	decoded, err := codec.DecodeRow(Row{"mystery": Cell{Value: "plain"}})
	require.NoError(t, err)
	require.Equal(t, "plain", decoded["mystery"])
}
