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

// Package metadata encodes source-file metadata records into index-store rows
// and back, applying each collection's type map. Datetimes become numeric
// epoch cells so the secondary indexes can range over them; ints are numeric
// cells too, and everything else is stored as strings.
package metadata

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/feedwarehouse/pkg/logger"
	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/types"
)

// Well-known metadata fields.
const (
	FieldRetrievedDate     = "retrieved_date"
	FieldReleaseDate       = "release_date"
	FieldCollectionID      = "collection_id"
	FieldSourceVersion     = "source_version"
	FieldFileKey           = "file_key"
	FieldMD5               = "md5"
	FieldBytes             = "bytes"
	FieldS3Key             = "s3_key"
	FieldLastModified      = "last-modified"
	FieldContentStart      = "content_start"
	FieldContentEnd        = "content_end"
	FieldContentResolution = "content_resolution"
)

// PhysicalFeedID is the attribute name under which collection_id is stored in
// the source table; the secondary indexes partition on it.
const PhysicalFeedID = "feed_id"

var (
	ErrMissingField = errors.New("required metadata field missing")
	ErrNilField     = errors.New("metadata field may not be nil")
	ErrTypeMismatch = errors.New("metadata field has the wrong type")
)

// engineTypeMap types the fields the engine itself writes or interprets.
// Collection type maps take precedence over it.
var engineTypeMap = map[string]types.Kind{
	FieldRetrievedDate:     types.KindDatetime,
	FieldReleaseDate:       types.KindDatetime,
	FieldLastModified:      types.KindDatetime,
	FieldContentStart:      types.KindDatetime,
	FieldContentEnd:        types.KindDatetime,
	FieldContentResolution: types.KindTimedelta,
	FieldCollectionID:      types.KindStr,
	FieldSourceVersion:     types.KindStr,
	FieldFileKey:           types.KindStr,
	FieldMD5:               types.KindStr,
	FieldS3Key:             types.KindStr,
	FieldBytes:             types.KindBool,
}

// fixedRequired are present on every stored source record regardless of the
// collection schema.
var fixedRequired = []string{
	FieldRetrievedDate,
	FieldReleaseDate,
	FieldCollectionID,
	FieldMD5,
	FieldBytes,
}

// Cell is one index-store cell: a flattened value plus whether it is stored
// numerically.
type Cell struct {
	Value   string
	Numeric bool
}

// Row is an encoded metadata record keyed by physical attribute name.
type Row map[string]Cell

// Codec encodes and decodes metadata records for one collection.
type Codec struct {
	schema *registry.CollectionSchema
	log    logger.Logger
}

// NewCodec builds a codec bound to a collection schema.
func NewCodec(schema *registry.CollectionSchema, log logger.Logger) *Codec {
	if log == nil {
		log = logger.Default()
	}

	return &Codec{schema: schema, log: log}
}

// FieldKind resolves the kind for a field: the collection's type map first,
// then the engine's fixed extensions.
func (c *Codec) FieldKind(field string) (types.Kind, bool) {
	if kind, ok := c.schema.MetadataTypeMap[field]; ok {
		return kind, true
	}

	kind, ok := engineTypeMap[field]

	return kind, ok
}

// Validate checks a metadata record against the collection schema. The union
// of the collection's required fields, the fixed engine fields, and
// content_start for parsed files must be present with non-nil values. Nil is
// permitted only for optional fields covered by a type map.
func (c *Codec) Validate(meta map[string]any, parsed bool) error {
	required := append([]string(nil), c.schema.AllRequiredFields()...)
	required = append(required, fixedRequired...)

	if parsed {
		required = append(required, FieldContentStart)
	}

	requiredSet := make(map[string]struct{}, len(required))

	for _, field := range required {
		requiredSet[field] = struct{}{}

		value, ok := meta[field]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingField, field)
		}

		if value == nil {
			return fmt.Errorf("%w: %q", ErrNilField, field)
		}
	}

	for field, value := range meta {
		if value != nil {
			continue
		}

		if _, ok := c.FieldKind(field); !ok {
			return fmt.Errorf("%w: %q has no type map entry", ErrNilField, field)
		}

		if _, ok := requiredSet[field]; ok {
			return fmt.Errorf("%w: %q", ErrNilField, field)
		}
	}

	return nil
}

// EncodeRow flattens a metadata record into index-store cells. Fields without
// a type map entry are stored as strings when they already are strings and
// dropped with a warning otherwise. A declared-type mismatch fails unless the
// value is nil and the field optional, in which case the cell is omitted.
func (c *Codec) EncodeRow(meta map[string]any) (Row, error) {
	row := make(Row, len(meta))

	for field, value := range meta {
		kind, declared := c.FieldKind(field)

		if !declared {
			s, ok := value.(string)
			if !ok {
				c.log.Warn().
					Str("field", field).
					Str("collection", c.schema.FeedID()).
					Msgf("dropping metadata field with no type map entry and non-string value of type %T", value)

				continue
			}

			row[physicalName(field)] = Cell{Value: s}

			continue
		}

		if value == nil {
			required := append(append([]string(nil), c.schema.AllRequiredFields()...), fixedRequired...)
			for _, name := range required {
				if name == field {
					return nil, fmt.Errorf("%w: %q", ErrNilField, field)
				}
			}

			continue
		}

		cell, err := encodeCell(field, value, kind)
		if err != nil {
			return nil, err
		}

		row[physicalName(field)] = cell
	}

	return row, nil
}

func encodeCell(field string, value any, kind types.Kind) (Cell, error) {
	actual, err := types.GetKind(value)
	if err != nil {
		return Cell{}, fmt.Errorf("field %q: %w", field, err)
	}

	if actual != kind {
		return Cell{}, fmt.Errorf("%w: %q declared %v, got %v", ErrTypeMismatch, field, kind, actual)
	}

	switch kind {
	case types.KindDatetime:
		return Cell{Value: types.EpochString(value.(time.Time)), Numeric: true}, nil
	case types.KindInt:
		encoded, err := types.Encode(value)
		if err != nil {
			return Cell{}, err
		}

		return Cell{Value: encoded.Str, Numeric: true}, nil
	default:
		encoded, err := types.Encode(value)
		if err != nil {
			return Cell{}, err
		}

		return Cell{Value: encoded.Str}, nil
	}
}

// DecodeRow inverts EncodeRow. Epoch cells re-localise into the collection's
// default parser timezone, falling back to UTC when no parser is registered.
// Unknown fields decode as strings.
func (c *Codec) DecodeRow(row Row) (map[string]any, error) {
	tz := c.schema.DefaultTimezone()
	meta := make(map[string]any, len(row))

	for physical, cell := range row {
		field := logicalName(physical)

		kind, declared := c.FieldKind(field)
		if !declared {
			meta[field] = cell.Value
			continue
		}

		value, err := decodeCell(cell, kind, tz)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}

		meta[field] = value
	}

	return meta, nil
}

func decodeCell(cell Cell, kind types.Kind, tz *time.Location) (any, error) {
	switch kind {
	case types.KindDatetime:
		return types.FromEpochString(cell.Value, tz)
	default:
		return types.Decode(types.Encoded{Str: cell.Value, Kind: kind})
	}
}

func physicalName(field string) string {
	if field == FieldCollectionID {
		return PhysicalFeedID
	}

	return field
}

func logicalName(attr string) string {
	if attr == PhysicalFeedID {
		return FieldCollectionID
	}

	return attr
}
