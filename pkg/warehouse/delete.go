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

	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/registry"
)

// ParserAll requests the delete cascade across every registered parser.
const ParserAll = "all"

// DeleteOptions modify a Delete call.
type DeleteOptions struct {
	// SourceVersion pins one version. When empty and multiple versions
	// exist, Delete holds off and returns deferred deleters instead.
	SourceVersion string

	// ParsedFilesOnly deletes only parsed files, keeping the source record
	// and body.
	ParsedFilesOnly bool

	// ParserName limits the parsed-file cascade to one parser; all
	// registered parsers when empty or ParserAll.
	ParserName string
}

// PendingDelete defers the deletion of one version, carrying its metadata for
// caller inspection.
type PendingDelete struct {
	Metadata map[string]any

	run func(ctx context.Context) error
}

// Run performs the deferred deletion.
func (p *PendingDelete) Run(ctx context.Context) error {
	return p.run(ctx)
}

// Delete removes a file from the warehouse. Deleting a source version
// cascades to every parsed file stored for it. Without a version: a single
// stored version is deleted outright, while multiple versions are returned as
// deferred deleters, one per version.
func (w *Warehouse) Delete(ctx context.Context, primaryKey []any, opts DeleteOptions) ([]*PendingDelete, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	if err := validatePrimaryKeyArg(entry, primaryKey); err != nil {
		return nil, err
	}

	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return nil, err
	}

	if opts.SourceVersion != "" {
		return nil, w.deleteVersion(ctx, entry, fileKey, opts.SourceVersion, opts)
	}

	codec := metadata.NewCodec(entry, w.log)

	var versions []string

	var records []map[string]any

	rows := w.table.Query(&index.Plan{FileKey: fileKey, Ascending: true})
	for rows.Next(ctx) {
		meta, err := codec.DecodeRow(rows.Row())
		if err != nil {
			return nil, err
		}

		version, err := w.GetSourceVersion(meta)
		if err != nil {
			return nil, err
		}

		versions = append(versions, version)
		records = append(records, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(versions) {
	case 0:
		return nil, fmt.Errorf("%w: no stored versions for this primary key", ErrOperation)
	case 1:
		return nil, w.deleteVersion(ctx, entry, fileKey, versions[0], opts)
	}

	w.log.Warn().
		Int("versions", len(versions)).
		Str("file_key", fileKey).
		Msg("multiple versions found, holding off delete")

	pending := make([]*PendingDelete, 0, len(versions))

	for i, version := range versions {
		version := version

		pending = append(pending, &PendingDelete{
			Metadata: records[i],
			run: func(ctx context.Context) error {
				return w.deleteVersion(ctx, entry, fileKey, version, opts)
			},
		})
	}

	return pending, nil
}

// deleteVersion removes one version's parsed objects, and unless restricted
// to parsed files, its source object and metadata row.
func (w *Warehouse) deleteVersion(
	ctx context.Context,
	entry *registry.CollectionSchema,
	fileKey, version string,
	opts DeleteOptions,
) error {
	row, err := w.table.Get(ctx, fileKey, version)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrOperation, err)
		}

		return err
	}

	for _, parser := range w.parsersToClear(entry, opts.ParserName) {
		objectKey := keys.ParsedObjectKey(w.bucketPrefix, w.database, w.collection, parser, version, fileKey)

		if err := w.objects.Delete(ctx, w.parsedBucket, objectKey); err != nil {
			return err
		}
	}

	if opts.ParsedFilesOnly {
		return nil
	}

	if objectKey, ok := row[metadata.FieldS3Key]; ok {
		if err := w.objects.Delete(ctx, w.sourceBucket, objectKey.Value); err != nil {
			return err
		}
	}

	if err := w.table.Delete(ctx, fileKey, version); err != nil {
		return err
	}

	w.log.Info().
		Str("file_key", fileKey).
		Str("source_version", version).
		Msg("deleted source version")

	return nil
}

func (w *Warehouse) parsersToClear(entry *registry.CollectionSchema, parserName string) []string {
	if parserName != "" && parserName != ParserAll {
		return []string{parserName}
	}

	parsers := make([]string, 0, len(entry.Parsers))
	for name := range entry.Parsers {
		parsers = append(parsers, name)
	}

	return parsers
}
