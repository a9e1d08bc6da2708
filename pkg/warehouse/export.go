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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/stream"
)

// ExportDestination names where exported source files land: an object-store
// bucket or a local directory, exactly one.
type ExportDestination struct {
	Bucket string
	Dir    string
}

// Export copies a database's source files to the destination, keeping their
// object keys as relative names. A collection narrows the export; empty
// exports every collection of the database.
func (w *Warehouse) Export(ctx context.Context, database, collection string, dest ExportDestination) error {
	if (dest.Bucket == "") == (dest.Dir == "") {
		return fmt.Errorf("%w: exactly one of destination bucket or directory is required", ErrArgument)
	}

	entries, err := w.collectionsOf(ctx, database, collection)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := w.exportCollection(ctx, entry, dest); err != nil {
			return err
		}
	}

	return nil
}

func (w *Warehouse) exportCollection(ctx context.Context, entry *registry.CollectionSchema, dest ExportDestination) error {
	rows := w.table.Query(&index.Plan{
		FeedID:    entry.FeedID(),
		Mode:      index.ModeRelease,
		Ascending: true,
	})

	count := 0

	for rows.Next(ctx) {
		cell, ok := rows.Row()[metadata.FieldS3Key]
		if !ok {
			continue
		}

		obj, err := w.objects.Get(ctx, w.sourceBucket, cell.Value)
		if err != nil {
			return err
		}

		if err := writeExport(ctx, w, dest, cell.Value, obj.Body, obj.Header); err != nil {
			obj.Body.Close()
			return err
		}

		obj.Body.Close()

		count++
	}

	if err := rows.Err(); err != nil {
		return err
	}

	w.log.Info().
		Str("feed_id", entry.FeedID()).
		Int("files", count).
		Msg("exported collection")

	return nil
}

func writeExport(ctx context.Context, w *Warehouse, dest ExportDestination, key string, body io.Reader, header map[string]string) error {
	if dest.Bucket != "" {
		return w.objects.Put(ctx, dest.Bucket, key, body, header)
	}

	path := filepath.Join(dest.Dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return fmt.Errorf("writing export file: %w", err)
	}

	return out.Close()
}

// Migrate copies registry entries and every stored source version from one
// warehouse to another. Versions are re-stored, so destination version ids
// are regenerated from the preserved retrieval dates.
func Migrate(ctx context.Context, source, dest *Warehouse, database, collection string) error {
	entries, err := source.collectionsOf(ctx, database, collection)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := dest.registry.Upsert(ctx, entry.Clone()); err != nil {
			return err
		}

		if err := migrateCollection(ctx, source, dest, entry); err != nil {
			return err
		}
	}

	return nil
}

func migrateCollection(ctx context.Context, source, dest *Warehouse, entry *registry.CollectionSchema) error {
	src := source.withSelection(entry)
	dst := dest.withSelection(entry)

	rows := src.table.Query(&index.Plan{
		FeedID:    entry.FeedID(),
		Mode:      index.ModeRelease,
		Ascending: true,
	})

	for rows.Next(ctx) {
		file, err := src.rowToFile(ctx, entry, rows.Row(), RetrieveOptions{})
		if err != nil {
			return err
		}

		if file == nil {
			continue
		}

		if err := storeMigrated(ctx, dst, entry, file); err != nil {
			return err
		}
	}

	return rows.Err()
}

func storeMigrated(ctx context.Context, dst *Warehouse, entry *registry.CollectionSchema, file *stream.SeekableStream) error {
	// Strip the per-store fields so the destination derives its own.
	delete(file.Metadata, metadata.FieldS3Key)
	delete(file.Metadata, metadata.FieldFileKey)
	delete(file.Metadata, metadata.FieldSourceVersion)
	delete(file.Metadata, metadata.FieldCollectionID)

	primaryKey, err := primaryKeyFromMetadata(entry, file.Metadata)
	if err != nil {
		return err
	}

	_, err = dst.storeSource(ctx, entry, file, primaryKey)

	return err
}

// withSelection returns a shallow copy of the engine pinned to a collection,
// bypassing the registry round-trip.
func (w *Warehouse) withSelection(entry *registry.CollectionSchema) *Warehouse {
	copied := *w
	copied.database = entry.Database
	copied.collection = entry.Collection

	return &copied
}

// collectionsOf lists registry entries for a database, optionally narrowed to
// one collection.
func (w *Warehouse) collectionsOf(ctx context.Context, database, collection string) ([]*registry.CollectionSchema, error) {
	if database == "" {
		return nil, fmt.Errorf("%w: a database is required", ErrArgument)
	}

	if collection != "" {
		entry, err := w.registry.Get(ctx, database, collection, false)
		if err != nil {
			return nil, err
		}

		return []*registry.CollectionSchema{entry}, nil
	}

	all, err := w.registry.IterAll(ctx, false)
	if err != nil {
		return nil, err
	}

	var entries []*registry.CollectionSchema

	for _, entry := range all {
		if entry.Database == database {
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: database %q has no registered collections", ErrOperation, database)
	}

	return entries, nil
}
