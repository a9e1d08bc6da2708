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

// Package warehouse implements the engine behind the public warehouse
// operations: schema registration, versioned source and parsed file storage,
// retrieval, range queries, metadata updates, and deletion.
//
// An engine instance is a single-threaded logical unit. Clients sharing one
// across goroutines must synchronize externally or instantiate per worker;
// the only engine-internal shared state is the registry cache, which
// deep-copies across its boundary.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/carverauto/feedwarehouse/pkg/awsclient"
	"github.com/carverauto/feedwarehouse/pkg/config"
	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/logger"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/objstore"
	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/types"
)

// Warehouse is the storage engine. Construct with New or NewWithStores.
type Warehouse struct {
	registry RegistryStore
	table    SourceTable
	objects  ObjectStore

	sourceBucket string
	parsedBucket string
	bucketPrefix string

	database   string
	collection string

	log logger.Logger

	newVersion func(time.Time) string
}

// Options configure an engine over already-built store adapters.
type Options struct {
	SourceBucket string
	ParsedBucket string
	BucketPrefix string

	// Database and Collection pre-select a collection; both or neither.
	Database   string
	Collection string

	Logger logger.Logger
}

// indexTable adapts the concrete source table to the engine's iterator
// interface.
type indexTable struct {
	*index.Table
}

func (t indexTable) Query(plan *index.Plan) RowIterator {
	return t.Table.Query(plan)
}

// New wires a warehouse from settings: AWS clients, registry, source table,
// and object store.
func New(ctx context.Context, settings *config.Settings, log logger.Logger) (*Warehouse, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArgument, err)
	}

	if log == nil {
		log = logger.Default()
	}

	clients, err := awsclient.New(ctx, awsclient.Options{
		Region:          settings.RegionName,
		RoleARN:         settings.RoleARN,
		SessionDuration: time.Duration(settings.SeshDurationSeconds()) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(settings.CacheTTLSeconds()) * time.Second
	reg := registry.NewStore(clients.Dynamo, settings.RegistryTableName, ttl, log)
	table := index.NewTable(clients.Dynamo, settings.SourceTableName, log)
	objects := objstore.NewStore(clients.S3, log)

	return NewWithStores(ctx, reg, indexTable{table}, objects, Options{
		SourceBucket: settings.SourceBucketName,
		ParsedBucket: settings.ParsedBucketName,
		BucketPrefix: settings.BucketPrefix,
		Logger:       log,
	})
}

// NewWithStores builds an engine over explicit adapters.
func NewWithStores(ctx context.Context, reg RegistryStore, table SourceTable, objects ObjectStore, opts Options) (*Warehouse, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	w := &Warehouse{
		registry:     reg,
		table:        table,
		objects:      objects,
		sourceBucket: opts.SourceBucket,
		parsedBucket: opts.ParsedBucket,
		bucketPrefix: opts.BucketPrefix,
		log:          log,
		newVersion:   keys.NewSourceVersion,
	}

	if opts.Database != "" && opts.Collection != "" {
		if err := w.SelectCollection(ctx, opts.Collection, opts.Database); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// SelectCollection selects a collection (and database) for subsequent
// operations. It deliberately bypasses the registry cache so a reselect picks
// up peer updates.
func (w *Warehouse) SelectCollection(ctx context.Context, collection, database string) error {
	if database == "" {
		database = w.database
	}

	if database == "" {
		return fmt.Errorf("%w: no database selected", ErrOperation)
	}

	entry, err := w.registry.Get(ctx, database, collection, false)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: unable to select %s - %s, combo does not exist", ErrOperation, database, collection)
		}

		return err
	}

	w.database = entry.Database
	w.collection = entry.Collection

	return nil
}

// Database is the currently selected database.
func (w *Warehouse) Database() (string, error) {
	if w.database == "" {
		return "", fmt.Errorf("%w: no database selected", ErrOperation)
	}

	return w.database, nil
}

// Collection is the currently selected collection.
func (w *Warehouse) Collection() (string, error) {
	if w.collection == "" {
		return "", fmt.Errorf("%w: no collection selected", ErrOperation)
	}

	return w.collection, nil
}

// schema resolves the selected collection's registry entry through the cache.
func (w *Warehouse) schema(ctx context.Context) (*registry.CollectionSchema, error) {
	if w.database == "" || w.collection == "" {
		return nil, fmt.Errorf("%w: no database/collection selected", ErrOperation)
	}

	entry, err := w.registry.Get(ctx, w.database, w.collection, true)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrOperation, err)
		}

		return nil, err
	}

	return entry, nil
}

// PrimaryKeyFields is the selected collection's primary key fields.
func (w *Warehouse) PrimaryKeyFields(ctx context.Context) ([]string, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	return entry.PrimaryKeyFields, nil
}

// RequiredMetadataFields is the ordered union of primary-key and required
// metadata fields.
func (w *Warehouse) RequiredMetadataFields(ctx context.Context) ([]string, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	return entry.AllRequiredFields(), nil
}

// MetadataTypeMap is the selected collection's metadata type map.
func (w *Warehouse) MetadataTypeMap(ctx context.Context) (map[string]types.Kind, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	return entry.MetadataTypeMap, nil
}

// AvailableParsers lists every parser registered with the collection.
func (w *Warehouse) AvailableParsers(ctx context.Context) (map[string]*registry.ParserSchema, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	return entry.Parsers, nil
}

// DefaultParserName is the collection's default parser.
func (w *Warehouse) DefaultParserName(ctx context.Context) (string, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return "", err
	}

	name, _, err := defaultParser(entry)

	return name, err
}

// DefaultParserPrimaryKeyFields is the default parser's primary keys.
func (w *Warehouse) DefaultParserPrimaryKeyFields(ctx context.Context) ([]string, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	_, parser, err := defaultParser(entry)
	if err != nil {
		return nil, err
	}

	return parser.PrimaryKeyFields, nil
}

// DefaultParserTypeMap is the default parser's row type map.
func (w *Warehouse) DefaultParserTypeMap(ctx context.Context) (map[string]types.Kind, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	_, parser, err := defaultParser(entry)
	if err != nil {
		return nil, err
	}

	return parser.RowTypeMap, nil
}

// DefaultParserTimezone is the default parser's timezone.
func (w *Warehouse) DefaultParserTimezone(ctx context.Context) (*time.Location, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	_, parser, err := defaultParser(entry)
	if err != nil {
		return nil, err
	}

	return parser.Timezone, nil
}

// defaultParser resolves the default parser, keeping the defensive check for
// a parser set with no default marked even though registration upholds it.
func defaultParser(entry *registry.CollectionSchema) (string, *registry.ParserSchema, error) {
	if len(entry.Parsers) == 0 {
		return "", nil, fmt.Errorf("%w: there are no parsers for %s, %s", ErrOperation, entry.Database, entry.Collection)
	}

	name, parser, ok := entry.DefaultParser()
	if !ok {
		return "", nil, fmt.Errorf("%w: none of the parsers in %s, %s are default", ErrOperation, entry.Database, entry.Collection)
	}

	return name, parser, nil
}

// ListDatabasesAndCollections lists every registered database with its
// collections sorted.
func (w *Warehouse) ListDatabasesAndCollections(ctx context.Context) (map[string][]string, error) {
	entries, err := w.registry.IterAll(ctx, true)
	if err != nil {
		return nil, err
	}

	results := make(map[string][]string)
	for _, entry := range entries {
		results[entry.Database] = append(results[entry.Database], entry.Collection)
	}

	for db := range results {
		sort.Strings(results[db])
	}

	return results, nil
}

// ListDatabases lists every registered database sorted.
func (w *Warehouse) ListDatabases(ctx context.Context) ([]string, error) {
	all, err := w.ListDatabasesAndCollections(ctx)
	if err != nil {
		return nil, err
	}

	dbs := make([]string, 0, len(all))
	for db := range all {
		dbs = append(dbs, db)
	}

	sort.Strings(dbs)

	return dbs, nil
}

// ListCollections lists the collections of the selected database sorted.
func (w *Warehouse) ListCollections(ctx context.Context) ([]string, error) {
	db, err := w.Database()
	if err != nil {
		return nil, err
	}

	all, err := w.ListDatabasesAndCollections(ctx)
	if err != nil {
		return nil, err
	}

	return all[db], nil
}

// GetPrimaryKey extracts the primary key values from a metadata record,
// checking presence and declared types.
func (w *Warehouse) GetPrimaryKey(ctx context.Context, meta map[string]any) ([]any, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	return primaryKeyFromMetadata(entry, meta)
}

func primaryKeyFromMetadata(entry *registry.CollectionSchema, meta map[string]any) ([]any, error) {
	values := make([]any, 0, len(entry.PrimaryKeyFields))

	for _, field := range entry.PrimaryKeyFields {
		value, ok := meta[field]
		if !ok {
			return nil, fmt.Errorf("%w: primary key field %q is missing", ErrMetadata, field)
		}

		declared, ok := entry.MetadataTypeMap[field]
		if ok {
			actual, err := types.GetKind(value)
			if err != nil || actual != declared {
				return nil, fmt.Errorf("%w: primary key field %q must be %v", ErrMetadata, field, declared)
			}
		}

		values = append(values, value)
	}

	return values, nil
}

// validatePrimaryKeyArg checks a caller-supplied primary key against the
// collection schema.
func validatePrimaryKeyArg(entry *registry.CollectionSchema, primaryKey []any) error {
	if len(primaryKey) != len(entry.PrimaryKeyFields) {
		return fmt.Errorf("%w: primary key has %d values, collection expects %d",
			ErrArgument, len(primaryKey), len(entry.PrimaryKeyFields))
	}

	for i, field := range entry.PrimaryKeyFields {
		declared, ok := entry.MetadataTypeMap[field]
		if !ok {
			continue
		}

		actual, err := types.GetKind(primaryKey[i])
		if err != nil || actual != declared {
			return fmt.Errorf("%w: primary key field %q must be %v", ErrArgument, field, declared)
		}
	}

	return nil
}

// GetSourceVersion extracts the source version from a metadata record.
func (w *Warehouse) GetSourceVersion(meta map[string]any) (string, error) {
	value, ok := meta[metadata.FieldSourceVersion]
	if !ok || value == nil {
		return "", fmt.Errorf("%w: the version field %q is missing", ErrMetadata, metadata.FieldSourceVersion)
	}

	version, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: invalid version type %T, expected string", ErrMetadata, value)
	}

	return version, nil
}

// fileKeyFor derives the selected collection's file key for a primary key.
func (w *Warehouse) fileKeyFor(primaryKey []any) (string, error) {
	fileKey, err := keys.FileKey(w.database, w.collection, primaryKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArgument, err)
	}

	return fileKey, nil
}
