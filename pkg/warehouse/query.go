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

	"github.com/carverauto/feedwarehouse/pkg/dtrange"
	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/keys"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
)

// QueryIndex selects the secondary index and match semantics for a metadata
// query.
type QueryIndex int

const (
	// IndexDefault picks the content index when a range is supplied, else
	// the release index, which covers every stored row.
	IndexDefault QueryIndex = iota

	// IndexContent matches rows whose content interval overlaps the range.
	IndexContent

	// IndexContentStart matches rows whose content_start falls inside the
	// range.
	IndexContentStart

	// IndexRelease matches rows whose release_date falls inside the range.
	IndexRelease
)

// QueryOptions modify a QueryMetadataItems call. The zero value walks the
// whole collection ascending.
type QueryOptions struct {
	Index QueryIndex

	// Fields narrows the decoded metadata to a projection.
	Fields []string

	// Descending reverses the sort-key ordering.
	Descending bool
}

// Items lazily walks a metadata query result, decoding rows as they arrive.
type Items struct {
	codec *metadata.Codec
	rows  RowIterator

	meta map[string]any
	err  error
}

// QueryMetadataItems finds the collection's metadata records overlapping a
// range on the chosen index. A nil range walks every record.
func (w *Warehouse) QueryMetadataItems(ctx context.Context, queryRange *dtrange.Range, opts QueryOptions) (*Items, error) {
	entry, err := w.schema(ctx)
	if err != nil {
		return nil, err
	}

	mode := index.ModeContent

	switch opts.Index {
	case IndexDefault:
		// Without a range every source row matches; the release index holds
		// them all while the content index only holds rows with a
		// content_start.
		if queryRange == nil {
			mode = index.ModeRelease
		}
	case IndexContentStart:
		mode = index.ModeContentStart
	case IndexRelease:
		mode = index.ModeRelease
	case IndexContent:
	}

	plan := &index.Plan{
		FeedID:    keys.CollectionID(w.database, w.collection),
		Mode:      mode,
		Range:     queryRange,
		Ascending: !opts.Descending,
	}

	for _, field := range opts.Fields {
		if field == metadata.FieldCollectionID {
			field = metadata.PhysicalFeedID
		}

		plan.Projection = append(plan.Projection, field)
	}

	return &Items{
		codec: metadata.NewCodec(entry, w.log),
		rows:  w.table.Query(plan),
	}, nil
}

// Next advances to the next record; check Err once it returns false.
func (i *Items) Next(ctx context.Context) bool {
	if i.err != nil {
		return false
	}

	if !i.rows.Next(ctx) {
		i.err = i.rows.Err()
		return false
	}

	meta, err := i.codec.DecodeRow(i.rows.Row())
	if err != nil {
		i.err = err
		return false
	}

	i.meta = meta

	return true
}

// Metadata is the record most recently produced by Next.
func (i *Items) Metadata() map[string]any {
	return i.meta
}

// Err reports the first failure encountered while iterating.
func (i *Items) Err() error {
	return i.err
}

// UpdateMetadataItem adds or replaces metadata fields on an existing source
// record. Primary-key fields and the retrieval date are immutable; a missing
// record is an operation error.
func (w *Warehouse) UpdateMetadataItem(ctx context.Context, primaryKey []any, sourceVersion string, updates map[string]any) error {
	entry, err := w.schema(ctx)
	if err != nil {
		return err
	}

	if len(updates) == 0 {
		return fmt.Errorf("%w: update map is empty", ErrArgument)
	}

	for _, field := range entry.PrimaryKeyFields {
		if _, ok := updates[field]; ok {
			return fmt.Errorf("%w: primary key field %q cannot be updated", ErrMetadata, field)
		}
	}

	if _, ok := updates[metadata.FieldRetrievedDate]; ok {
		return fmt.Errorf("%w: %q cannot be updated", ErrMetadata, metadata.FieldRetrievedDate)
	}

	codec := metadata.NewCodec(entry, w.log)

	row, err := codec.EncodeRow(updates)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	fileKey, err := w.fileKeyFor(primaryKey)
	if err != nil {
		return err
	}

	if err := w.table.UpdateExisting(ctx, fileKey, sourceVersion, row); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrOperation, err)
		}

		return err
	}

	return nil
}
