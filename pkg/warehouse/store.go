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
	"time"

	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/stream"
)

// Status reports the outcome of a store call.
type Status int

const (
	// StatusSuccess means a new version was written.
	StatusSuccess Status = iota

	// StatusAlreadyExists means the file was recognised as a duplicate of an
	// already-stored version; the result references that version.
	StatusAlreadyExists
)

func (s Status) String() string {
	if s == StatusAlreadyExists {
		return "ALREADY_EXIST"
	}

	return "SUCCESS"
}

// CompareFunc compares an already-stored file against a candidate. Returning
// true means they are the same release and the candidate is suppressed.
type CompareFunc func(existing, candidate *stream.SeekableStream) bool

// StoreOptions modify a Store call.
type StoreOptions struct {
	// ParsedFile stores the file as a parsed file bound to the source
	// version named in its metadata.
	ParsedFile bool

	// ForceStore always writes a new source version, skipping duplicate
	// checks. Only relevant to source files.
	ForceStore bool

	// Compare overrides the built-in duplicate check for source files.
	Compare CompareFunc

	// ParserName names the parser for a parsed file; the collection default
	// is assumed when empty.
	ParserName string
}

// StoreResult reports what Store did. On StatusAlreadyExists the primary key
// and version reference the already-stored file.
type StoreResult struct {
	PrimaryKey    []any
	SourceVersion string
	Status        Status

	// ParserName is set when a parsed file was stored.
	ParserName string
}

// Store writes a source file or a parsed file.
//
// Source files are deduplicated against the latest stored version of the same
// primary key: by the caller's Compare callback when supplied, else by
// content digest, else by the last-modified field when the collection
// requires it. ForceStore skips all checks and always produces a new version.
//
// Parsed files require a source_version in their metadata naming an existing
// source version; the parsed body always overwrites the previous parsed file
// for that parser and version, and metadata fields diverging from the source
// record are written back to it.
func (w *Warehouse) Store(ctx context.Context, file *stream.SeekableStream, opts StoreOptions) (*StoreResult, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	if opts.ParsedFile {
		return w.storeParsed(ctx, entry, file, opts.ParserName)
	}

	primaryKey, err := primaryKeyFromMetadata(entry, file.Metadata)
	if err != nil {
		return nil, err
	}

	if opts.ForceStore {
		return w.storeSource(ctx, entry, file, primaryKey)
	}

	latest, err := w.latestRow(ctx, primaryKey)
	if err != nil {
		return nil, err
	}

	if latest == nil {
		return w.storeSource(ctx, entry, file, primaryKey)
	}

	duplicate, err := w.isDuplicate(ctx, entry, file, latest, opts.Compare)
	if err != nil {
		return nil, err
	}

	if duplicate {
		codec := metadata.NewCodec(entry, w.log)

		stored, err := codec.DecodeRow(latest)
		if err != nil {
			return nil, err
		}

		version, err := w.GetSourceVersion(stored)
		if err != nil {
			return nil, err
		}

		w.log.Debug().
			Str("source_version", version).
			Msg("file already stored, suppressing duplicate")

		return &StoreResult{
			PrimaryKey:    primaryKey,
			SourceVersion: version,
			Status:        StatusAlreadyExists,
		}, nil
	}

	return w.storeSource(ctx, entry, file, primaryKey)
}

// isDuplicate applies the duplicate-suppression rules against the latest
// stored row.
func (w *Warehouse) isDuplicate(
	ctx context.Context,
	entry *registry.CollectionSchema,
	file *stream.SeekableStream,
	latest metadata.Row,
	compare CompareFunc,
) (bool, error) {
	codec := metadata.NewCodec(entry, w.log)

	stored, err := codec.DecodeRow(latest)
	if err != nil {
		return false, err
	}

	if compare != nil {
		objectKey, ok := stored[metadata.FieldS3Key].(string)
		if !ok {
			return false, fmt.Errorf("%w: stored record is missing its object key", ErrOperation)
		}

		existing, err := w.fetchBody(ctx, w.sourceBucket, objectKey, stored)
		if err != nil {
			return false, err
		}

		if existing == nil {
			return false, nil
		}

		return compare(existing, file), nil
	}

	digest, err := file.MD5()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrArgument, err)
	}

	if storedDigest, ok := stored[metadata.FieldMD5].(string); ok && storedDigest == digest {
		return true, nil
	}

	if !requiresLastModified(entry) {
		return false, nil
	}

	storedMod, ok := stored[metadata.FieldLastModified].(time.Time)
	if !ok {
		return false, nil
	}

	newMod, ok := file.Metadata[metadata.FieldLastModified].(time.Time)
	if !ok {
		return false, nil
	}

	return storedMod.Equal(newMod), nil
}

func requiresLastModified(entry *registry.CollectionSchema) bool {
	for _, field := range entry.RequiredMetadataFields {
		if field == metadata.FieldLastModified {
			return true
		}
	}

	return false
}

// storeSource uploads the body and conditionally inserts the metadata row
// under a freshly generated version.
func (w *Warehouse) storeSource(
	ctx context.Context,
	entry *registry.CollectionSchema,
	file *stream.SeekableStream,
	primaryKey []any,
) (*StoreResult, error) {
	meta := cloneMeta(file.Metadata)

	retrieved, ok := meta[metadata.FieldRetrievedDate].(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: %q is missing or not a datetime", ErrMetadata, metadata.FieldRetrievedDate)
	}

	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return nil, err
	}

	digest, err := file.MD5()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArgument, err)
	}

	version := w.newVersion(retrieved)
	objectKey := keys.SourceObjectKey(w.bucketPrefix, w.database, w.collection, version, fileKey)

	meta[metadata.FieldCollectionID] = keys.CollectionID(w.database, w.collection)
	meta[metadata.FieldSourceVersion] = version
	meta[metadata.FieldFileKey] = fileKey
	meta[metadata.FieldMD5] = digest
	meta[metadata.FieldBytes] = file.IsBytes()
	meta[metadata.FieldS3Key] = objectKey

	codec := metadata.NewCodec(entry, w.log)

	if err := codec.Validate(meta, false); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	row, err := codec.EncodeRow(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	if err := file.Rewind(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArgument, err)
	}

	if err := w.objects.Put(ctx, w.sourceBucket, objectKey, file, headerFromRow(row)); err != nil {
		return nil, err
	}

	if err := w.table.PutIfAbsent(ctx, row); err != nil {
		if errors.Is(err, index.ErrAlreadyExists) {
			w.log.Warn().
				Str("file_key", fileKey).
				Str("source_version", version).
				Msg("lost insert race for source version")

			return &StoreResult{
				PrimaryKey:    primaryKey,
				SourceVersion: version,
				Status:        StatusAlreadyExists,
			}, nil
		}

		return nil, err
	}

	return &StoreResult{
		PrimaryKey:    primaryKey,
		SourceVersion: version,
		Status:        StatusSuccess,
	}, nil
}

// storeParsed uploads a parsed body under its parser-scoped key and writes
// diverging metadata back to the source record.
func (w *Warehouse) storeParsed(
	ctx context.Context,
	entry *registry.CollectionSchema,
	file *stream.SeekableStream,
	parserName string,
) (*StoreResult, error) {
	version, err := w.GetSourceVersion(file.Metadata)
	if err != nil {
		return nil, err
	}

	parserName, err = w.resolveParser(entry, parserName)
	if err != nil {
		return nil, err
	}

	primaryKey, err := primaryKeyFromMetadata(entry, file.Metadata)
	if err != nil {
		return nil, err
	}

	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return nil, err
	}

	sourceRow, err := w.table.Get(ctx, fileKey, version)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, fmt.Errorf("%w: no source version %q for this primary key", ErrOperation, version)
		}

		return nil, err
	}

	meta := cloneMeta(file.Metadata)
	meta[metadata.FieldCollectionID] = keys.CollectionID(w.database, w.collection)
	meta[metadata.FieldFileKey] = fileKey

	codec := metadata.NewCodec(entry, w.log)

	if err := codec.Validate(meta, true); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	row, err := codec.EncodeRow(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	updates := divergingCells(row, sourceRow)

	objectKey := keys.ParsedObjectKey(w.bucketPrefix, w.database, w.collection, parserName, version, fileKey)

	if err := file.Rewind(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArgument, err)
	}

	if err := w.objects.Put(ctx, w.parsedBucket, objectKey, file, headerFromRow(row)); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := w.table.UpdateExisting(ctx, fileKey, version, updates); err != nil {
			if errors.Is(err, index.ErrNotFound) {
				return nil, fmt.Errorf("%w: source record vanished during parse store", ErrOperation)
			}

			return nil, err
		}
	}

	return &StoreResult{
		PrimaryKey:    primaryKey,
		SourceVersion: version,
		Status:        StatusSuccess,
		ParserName:    parserName,
	}, nil
}

// divergingCells selects the cells of a parsed record that differ from the
// source row. The table keys, retrieval date, and object pointer never move.
func divergingCells(parsed, source metadata.Row) metadata.Row {
	updates := metadata.Row{}

	for field, cell := range parsed {
		switch field {
		case metadata.FieldFileKey, metadata.FieldSourceVersion,
			metadata.FieldRetrievedDate, metadata.FieldS3Key:
			continue
		}

		if existing, ok := source[field]; ok && existing == cell {
			continue
		}

		updates[field] = cell
	}

	return updates
}

// resolveParser maps an optional parser name to a registered parser,
// defaulting to the collection default.
func (w *Warehouse) resolveParser(entry *registry.CollectionSchema, parserName string) (string, error) {
	if parserName == "" {
		name, _, err := defaultParser(entry)
		return name, err
	}

	if _, ok := entry.Parsers[parserName]; !ok {
		return "", fmt.Errorf("%w: parser %q is not registered with %s, %s",
			ErrArgument, parserName, entry.Database, entry.Collection)
	}

	return parserName, nil
}

// latestRow fetches the most recent stored row for a primary key, or nil.
func (w *Warehouse) latestRow(ctx context.Context, primaryKey []any) (metadata.Row, error) {
	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return nil, err
	}

	rows := w.table.Query(&index.Plan{FileKey: fileKey, Ascending: false})
	if !rows.Next(ctx) {
		return nil, rows.Err()
	}

	return rows.Row(), nil
}

func headerFromRow(row metadata.Row) map[string]string {
	header := make(map[string]string, len(row))
	for field, cell := range row {
		header[field] = cell.Value
	}

	return header
}

func cloneMeta(meta map[string]any) map[string]any {
	cloned := make(map[string]any, len(meta))
	for k, v := range meta {
		cloned[k] = v
	}

	return cloned
}
