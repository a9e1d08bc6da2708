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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/objstore"
	"github.com/carverauto/feedwarehouse/pkg/registry"
	"github.com/carverauto/feedwarehouse/pkg/stream"
)

// RetrieveOptions modify a Retrieve or RetrieveMetadata call.
type RetrieveOptions struct {
	// SourceVersion pins a specific version; the latest is used when empty.
	SourceVersion string

	// ParsedFile retrieves the parsed file for the version instead of the
	// source file.
	ParsedFile bool

	// ParserName names the parser for a parsed retrieve; default when empty.
	ParserName string
}

// Retrieve fetches a file. A missing primary key yields (nil, nil), as does
// a parsed retrieve whose source version exists but has no parsed file; an
// explicit SourceVersion with no stored row is an operation error.
func (w *Warehouse) Retrieve(ctx context.Context, primaryKey []any, opts RetrieveOptions) (*stream.SeekableStream, error) {
	entry, row, err := w.retrieveRow(ctx, primaryKey, opts.SourceVersion)
	if err != nil || row == nil {
		return nil, err
	}

	return w.rowToFile(ctx, entry, row, opts)
}

// RetrieveMetadata fetches only a file's metadata record. The same missing
// semantics as Retrieve apply.
func (w *Warehouse) RetrieveMetadata(ctx context.Context, primaryKey []any, opts RetrieveOptions) (map[string]any, error) {
	entry, row, err := w.retrieveRow(ctx, primaryKey, opts.SourceVersion)
	if err != nil || row == nil {
		return nil, err
	}

	codec := metadata.NewCodec(entry, w.log)

	return codec.DecodeRow(row)
}

func (w *Warehouse) retrieveRow(ctx context.Context, primaryKey []any, sourceVersion string) (*registry.CollectionSchema, metadata.Row, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := validatePrimaryKeyArg(entry, primaryKey); err != nil {
		return nil, nil, err
	}

	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return nil, nil, err
	}

	if sourceVersion != "" {
		row, err := w.table.Get(ctx, fileKey, sourceVersion)
		if err != nil {
			if errors.Is(err, index.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: %v", ErrOperation, err)
			}

			return nil, nil, err
		}

		return entry, row, nil
	}

	rows := w.table.Query(&index.Plan{FileKey: fileKey, Ascending: false})
	if !rows.Next(ctx) {
		return entry, nil, rows.Err()
	}

	return entry, rows.Row(), nil
}

// rowToFile resolves a metadata row to its file body.
func (w *Warehouse) rowToFile(ctx context.Context, entry *registry.CollectionSchema, row metadata.Row, opts RetrieveOptions) (*stream.SeekableStream, error) {
	codec := metadata.NewCodec(entry, w.log)

	meta, err := codec.DecodeRow(row)
	if err != nil {
		return nil, err
	}

	if !opts.ParsedFile {
		objectKey, ok := meta[metadata.FieldS3Key].(string)
		if !ok {
			return nil, fmt.Errorf("%w: stored record is missing its object key", ErrOperation)
		}

		file, err := w.fetchBody(ctx, w.sourceBucket, objectKey, meta)
		if err != nil {
			return nil, err
		}

		if file == nil {
			return nil, fmt.Errorf("%w: source object %q is missing", ErrOperation, objectKey)
		}

		return file, nil
	}

	parserName, err := w.resolveParser(entry, opts.ParserName)
	if err != nil {
		return nil, err
	}

	version, err := w.GetSourceVersion(meta)
	if err != nil {
		return nil, err
	}

	fileKey, ok := meta[metadata.FieldFileKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: stored record is missing its file key", ErrOperation)
	}

	objectKey := keys.ParsedObjectKey(w.bucketPrefix, w.database, w.collection, parserName, version, fileKey)

	// A source version with no parsed file for this parser is an absent
	// result, not an error.
	return w.fetchBody(ctx, w.parsedBucket, objectKey, meta)
}

// fetchBody downloads an object into a seekable stream carrying the record's
// metadata. A missing object yields (nil, nil).
func (w *Warehouse) fetchBody(ctx context.Context, bucket, objectKey string, meta map[string]any) (*stream.SeekableStream, error) {
	obj, err := w.objects.Get(ctx, bucket, objectKey)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, objectKey, err)
	}

	isBytes, _ := meta[metadata.FieldBytes].(bool)

	return stream.New(bytes.NewReader(body), isBytes, meta), nil
}

// VersionsOptions modify a RetrieveVersions call. The zero value walks source
// files with full bodies, newest retrieval first.
type VersionsOptions struct {
	// MetadataOnly skips body fetches; Metadata is populated, File is nil.
	MetadataOnly bool

	// ParsedFile walks parsed files; versions with no parsed file for the
	// parser are skipped.
	ParsedFile bool

	// ParserName names the parser; default when empty.
	ParserName string

	// OldestFirst reverses the default newest-first ordering.
	OldestFirst bool
}

// Versions lazily walks the stored versions of one logical file.
type Versions struct {
	w     *Warehouse
	entry *registry.CollectionSchema
	codec *metadata.Codec
	rows  RowIterator
	opts  VersionsOptions

	file *stream.SeekableStream
	meta map[string]any
	err  error
}

// RetrieveVersions queries all versions of a primary key. Parser names are
// validated before the query is issued, so an unknown parser fails here, not
// on first consumption.
func (w *Warehouse) RetrieveVersions(ctx context.Context, primaryKey []any, opts VersionsOptions) (*Versions, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	if err := validatePrimaryKeyArg(entry, primaryKey); err != nil {
		return nil, err
	}

	if opts.ParsedFile {
		if opts.ParserName, err = w.resolveParser(entry, opts.ParserName); err != nil {
			return nil, err
		}
	}

	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return nil, err
	}

	rows := w.table.Query(&index.Plan{FileKey: fileKey, Ascending: opts.OldestFirst})

	return &Versions{
		w:     w,
		entry: entry,
		codec: metadata.NewCodec(entry, w.log),
		rows:  rows,
		opts:  opts,
	}, nil
}

// Next advances to the next version. It returns false once exhausted or
// failed; check Err afterwards.
func (v *Versions) Next(ctx context.Context) bool {
	if v.err != nil {
		return false
	}

	for v.rows.Next(ctx) {
		meta, err := v.codec.DecodeRow(v.rows.Row())
		if err != nil {
			v.err = err
			return false
		}

		v.meta = meta
		v.file = nil

		if v.opts.MetadataOnly {
			return true
		}

		file, err := v.w.rowToFile(ctx, v.entry, v.rows.Row(), RetrieveOptions{
			ParsedFile: v.opts.ParsedFile,
			ParserName: v.opts.ParserName,
		})
		if err != nil {
			v.err = err
			return false
		}

		if file == nil {
			// No parsed file for this version under the parser; skip it.
			continue
		}

		v.file = file

		return true
	}

	v.err = v.rows.Err()

	return false
}

// File is the current version's body; nil when MetadataOnly.
func (v *Versions) File() *stream.SeekableStream {
	return v.file
}

// Metadata is the current version's metadata record.
func (v *Versions) Metadata() map[string]any {
	return v.meta
}

// Err reports the first failure encountered while iterating.
func (v *Versions) Err() error {
	return v.err
}
