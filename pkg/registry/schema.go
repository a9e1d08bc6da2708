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

// Package registry stores collection and parser schemas in the registry
// table and fronts them with a TTL-bounded local cache.
package registry

import (
	"time"

	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/types"
)

// Registry table cells.
const (
	FieldID             = "feed_id"
	FieldDatabase       = "database"
	FieldCollection     = "collection"
	FieldPrimaryKeys    = "primary_key_fields"
	FieldRequiredFields = "required_metadata_fields"
	FieldTypeMap        = "metadata_type_map"
	FieldParsers        = "parsers"
)

// Parser cells nested inside the parsers column.
const (
	ParserFieldPrimaryKeys = "primary_key_fields"
	ParserFieldRowTypeMap  = "row_type_map"
	ParserFieldTimezone    = "timezone"
	ParserFieldDefault     = "default"
)

// ParserSchema describes one registered parser of a collection.
type ParserSchema struct {
	PrimaryKeyFields []string
	RowTypeMap       map[string]types.Kind
	Timezone         *time.Location
	Default          bool
}

// CollectionSchema is one registry entry: the schema of a collection plus its
// parsers.
type CollectionSchema struct {
	Database               string
	Collection             string
	PrimaryKeyFields       []string
	RequiredMetadataFields []string
	MetadataTypeMap        map[string]types.Kind
	Parsers                map[string]*ParserSchema
}

// FeedID is the entry's hash key in the registry table.
func (c *CollectionSchema) FeedID() string {
	return keys.CollectionID(c.Database, c.Collection)
}

// DefaultParser returns the parser marked default, if any.
func (c *CollectionSchema) DefaultParser() (string, *ParserSchema, bool) {
	for name, parser := range c.Parsers {
		if parser.Default {
			return name, parser, true
		}
	}

	return "", nil, false
}

// DefaultTimezone is the default parser's timezone, falling back to UTC when
// no parser is registered.
func (c *CollectionSchema) DefaultTimezone() *time.Location {
	if _, parser, ok := c.DefaultParser(); ok && parser.Timezone != nil {
		return parser.Timezone
	}

	return time.UTC
}

// AllRequiredFields is the ordered union of primary-key fields and required
// metadata fields.
func (c *CollectionSchema) AllRequiredFields() []string {
	fields := make([]string, 0, len(c.PrimaryKeyFields)+len(c.RequiredMetadataFields))
	seen := make(map[string]struct{})

	for _, f := range c.PrimaryKeyFields {
		fields = append(fields, f)
		seen[f] = struct{}{}
	}

	for _, f := range c.RequiredMetadataFields {
		if _, ok := seen[f]; ok {
			continue
		}

		fields = append(fields, f)
		seen[f] = struct{}{}
	}

	return fields
}

// Clone deep-copies the schema so cached entries cannot be mutated through
// returned references.
func (c *CollectionSchema) Clone() *CollectionSchema {
	cloned := &CollectionSchema{
		Database:               c.Database,
		Collection:             c.Collection,
		PrimaryKeyFields:       append([]string(nil), c.PrimaryKeyFields...),
		RequiredMetadataFields: append([]string(nil), c.RequiredMetadataFields...),
		MetadataTypeMap:        make(map[string]types.Kind, len(c.MetadataTypeMap)),
		Parsers:                make(map[string]*ParserSchema, len(c.Parsers)),
	}

	for k, v := range c.MetadataTypeMap {
		cloned.MetadataTypeMap[k] = v
	}

	for name, parser := range c.Parsers {
		cloned.Parsers[name] = parser.Clone()
	}

	return cloned
}

// Clone deep-copies the parser schema.
func (p *ParserSchema) Clone() *ParserSchema {
	cloned := &ParserSchema{
		PrimaryKeyFields: append([]string(nil), p.PrimaryKeyFields...),
		RowTypeMap:       make(map[string]types.Kind, len(p.RowTypeMap)),
		Timezone:         p.Timezone,
		Default:          p.Default,
	}

	for k, v := range p.RowTypeMap {
		cloned.RowTypeMap[k] = v
	}

	return cloned
}
