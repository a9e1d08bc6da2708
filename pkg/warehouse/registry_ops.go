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

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/types"
)

// SourceRegistryUpdate carries the fields of an UpdateSourceRegistry call.
// Nil slices and maps mean "leave unchanged"; an empty non-nil
// RequiredMetadataFields replaces the list with nothing.
type SourceRegistryUpdate struct {
	PrimaryKeyFields       []string
	RequiredMetadataFields []string
	MetadataTypeMap        map[string]types.Kind
}

// UpdateSourceRegistry registers a new collection or amends an existing one.
// Primary keys are write-once; type maps only append or correct; required
// field lists are replaced wholesale when provided.
func (w *Warehouse) UpdateSourceRegistry(ctx context.Context, database, collection string, update SourceRegistryUpdate) error {
	entry, err := w.registry.Get(ctx, database, collection, false)

	switch {
	case errors.Is(err, registry.ErrNotFound):
		if update.PrimaryKeyFields == nil || update.MetadataTypeMap == nil {
			return fmt.Errorf(
				"%w: primary_key_fields and metadata_type_map are required when registering a new collection",
				ErrArgument)
		}

		entry = &registry.CollectionSchema{
			Database:               database,
			Collection:             collection,
			PrimaryKeyFields:       slices.Clone(update.PrimaryKeyFields),
			RequiredMetadataFields: []string{},
			MetadataTypeMap:        cloneTypeMap(update.MetadataTypeMap),
			Parsers:                map[string]*registry.ParserSchema{},
		}
	case err != nil:
		return err
	default:
		if update.PrimaryKeyFields != nil && !slices.Equal(update.PrimaryKeyFields, entry.PrimaryKeyFields) {
			return fmt.Errorf("%w: updating the primary key fields of a collection is not allowed", ErrArgument)
		}

		for field, kind := range update.MetadataTypeMap {
			entry.MetadataTypeMap[field] = kind
		}
	}

	if update.RequiredMetadataFields != nil {
		entry.RequiredMetadataFields = slices.Clone(update.RequiredMetadataFields)
	}

	if err := checkTypeMapCoverage(entry.AllRequiredFields(), entry.MetadataTypeMap); err != nil {
		return err
	}

	return w.registry.Upsert(ctx, entry)
}

// ParsedRegistryUpdate carries the fields of an UpdateParsedRegistry call.
// Nil fields mean "leave unchanged"; every field replaces its prior value.
type ParsedRegistryUpdate struct {
	PrimaryKeyFields []string
	RowTypeMap       map[string]types.Kind
	Timezone         *time.Location

	// PromoteDefault marks this parser as the collection default. The first
	// parser of a collection always starts as the default.
	PromoteDefault bool
}

// UpdateParsedRegistry registers a new parser or amends an existing one on a
// registered collection.
func (w *Warehouse) UpdateParsedRegistry(ctx context.Context, database, collection, parserName string, update ParsedRegistryUpdate) error {
	entry, err := w.registry.Get(ctx, database, collection, false)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrOperation, err)
		}

		return err
	}

	parser, exists := entry.Parsers[parserName]
	if !exists {
		if update.PrimaryKeyFields == nil || update.RowTypeMap == nil || update.Timezone == nil {
			return fmt.Errorf(
				"%w: primary keys, row type map, and timezone must be specified when registering a parser for the first time",
				ErrArgument)
		}

		parser = &registry.ParserSchema{}
	}

	if update.PrimaryKeyFields != nil {
		parser.PrimaryKeyFields = slices.Clone(update.PrimaryKeyFields)
	}

	if update.RowTypeMap != nil {
		parser.RowTypeMap = cloneTypeMap(update.RowTypeMap)
	}

	if update.Timezone != nil {
		parser.Timezone = update.Timezone
	}

	if err := checkTypeMapCoverage(parser.PrimaryKeyFields, parser.RowTypeMap); err != nil {
		return err
	}

	entry.Parsers[parserName] = parser

	if len(entry.Parsers) == 1 || update.PromoteDefault {
		for name, p := range entry.Parsers {
			p.Default = name == parserName
		}
	}

	return w.registry.Upsert(ctx, entry)
}

func checkTypeMapCoverage(fields []string, typeMap map[string]types.Kind) error {
	var missing []string

	for _, field := range fields {
		if _, ok := typeMap[field]; !ok {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: the type map is missing keys for %v", ErrArgument, missing)
	}

	return nil
}

func cloneTypeMap(typeMap map[string]types.Kind) map[string]types.Kind {
	cloned := make(map[string]types.Kind, len(typeMap))
	for k, v := range typeMap {
		cloned[k] = v
	}

	return cloned
}
