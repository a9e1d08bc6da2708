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

package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/carverauto/feedwarehouse/pkg/dtrange"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/types"
)

// Mode selects which secondary index a range query runs against and how the
// range is matched.
type Mode int

const (
	// ModeContent matches rows whose [content_start, content_end) interval
	// overlaps the query range. content_end is upper-exclusive and may be
	// absent, in which case only the start side is checked.
	ModeContent Mode = iota

	// ModeContentStart matches rows whose content_start falls inside the
	// query range.
	ModeContentStart

	// ModeRelease matches rows whose release_date falls inside the query
	// range.
	ModeRelease
)

// Plan describes one query against the source table.
type Plan struct {
	// FileKey selects a primary-index query over all versions of one file.
	// When set, FeedID, Mode and Range are ignored; Ascending and
	// Projection still apply.
	FileKey string

	// FeedID partitions secondary-index queries.
	FeedID string

	Mode      Mode
	Range     *dtrange.Range
	Ascending bool

	// Projection narrows the returned attributes (physical names).
	Projection []string
}

// build translates a plan into a DynamoDB query input.
func (p *Plan) build(table string) *dynamodb.QueryInput {
	in := &dynamodb.QueryInput{
		TableName:        aws.String(table),
		ScanIndexForward: aws.Bool(p.Ascending),
	}

	names := map[string]string{}
	values := map[string]ddbtypes.AttributeValue{}

	if p.FileKey != "" {
		in.KeyConditionExpression = aws.String("file_key = :fk")
		values[":fk"] = &ddbtypes.AttributeValueMemberS{Value: p.FileKey}
	} else {
		p.buildIndexed(in, names, values)
	}

	if len(p.Projection) > 0 {
		parts := make([]string, 0, len(p.Projection))

		for i, field := range p.Projection {
			key := fmt.Sprintf("#p%d", i)
			names[key] = field
			parts = append(parts, key)
		}

		in.ProjectionExpression = aws.String(strings.Join(parts, ", "))
	}

	if len(names) > 0 {
		in.ExpressionAttributeNames = names
	}

	if len(values) > 0 {
		in.ExpressionAttributeValues = values
	}

	return in
}

func (p *Plan) buildIndexed(in *dynamodb.QueryInput, names map[string]string, values map[string]ddbtypes.AttributeValue) {
	values[":id"] = &ddbtypes.AttributeValueMemberS{Value: p.FeedID}
	keyCond := metadata.PhysicalFeedID + " = :id"

	sortAttr := metadata.FieldContentStart

	switch p.Mode {
	case ModeRelease:
		in.IndexName = aws.String(ReleaseDateIndex)
		sortAttr = metadata.FieldReleaseDate
	default:
		in.IndexName = aws.String(ContentStartIndex)
	}

	// The sort-key placeholder only enters the expression maps when a
	// condition actually references it.
	useSortKey := func() {
		names["#sk"] = sortAttr
	}

	if p.Range != nil {
		switch p.Mode {
		case ModeContent:
			if p.Range.EndBounded {
				useSortKey()

				keyCond += " AND #sk <= :hi"
				values[":hi"] = epochAttr(p.Range.End)
			}

			if p.Range.StartBounded {
				names["#ce"] = metadata.FieldContentEnd
				in.FilterExpression = aws.String("#ce > :lo OR attribute_not_exists(#ce)")
				values[":lo"] = epochAttr(p.Range.Start)
			}
		case ModeContentStart, ModeRelease:
			switch {
			case p.Range.StartBounded && p.Range.EndBounded:
				useSortKey()

				keyCond += " AND #sk BETWEEN :lo AND :hi"
				values[":lo"] = epochAttr(p.Range.Start)
				values[":hi"] = epochAttr(p.Range.End)
			case p.Range.StartBounded:
				useSortKey()

				keyCond += " AND #sk >= :lo"
				values[":lo"] = epochAttr(p.Range.Start)
			case p.Range.EndBounded:
				useSortKey()

				keyCond += " AND #sk <= :hi"
				values[":hi"] = epochAttr(p.Range.End)
			}
		}
	}

	in.KeyConditionExpression = aws.String(keyCond)
}

func epochAttr(t time.Time) ddbtypes.AttributeValue {
	return &ddbtypes.AttributeValueMemberN{Value: types.EpochString(t)}
}

// Rows is a lazy iterator over a paginated query. Abandoning it before
// exhaustion simply stops fetching pages.
type Rows struct {
	table  *Table
	input  *dynamodb.QueryInput
	buffer []map[string]ddbtypes.AttributeValue
	pos    int
	done   bool
	err    error
	row    metadata.Row
}

// Query issues a plan against the table, returning a lazy row iterator. The
// first page is not fetched until Next is called.
func (t *Table) Query(plan *Plan) *Rows {
	return &Rows{table: t, input: plan.build(t.table)}
}

// Next advances to the next row, fetching pages as needed. It returns false
// when the query is exhausted or failed; check Err afterwards.
func (r *Rows) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}

	for r.pos >= len(r.buffer) {
		if r.done {
			return false
		}

		if !r.fetchPage(ctx) {
			return false
		}
	}

	row, err := fromAttributes(r.buffer[r.pos])
	if err != nil {
		r.err = err
		return false
	}

	r.pos++
	r.row = row

	return true
}

// Row returns the row most recently produced by Next.
func (r *Rows) Row() metadata.Row {
	return r.row
}

// Err reports the first failure encountered while iterating.
func (r *Rows) Err() error {
	return r.err
}

func (r *Rows) fetchPage(ctx context.Context) bool {
	var out *dynamodb.QueryOutput

	err := withRetry(ctx, func() error {
		var err error

		out, err = r.table.client.Query(ctx, r.input)

		return err
	})
	if err != nil {
		r.err = fmt.Errorf("querying source table: %w", err)
		return false
	}

	r.buffer = out.Items
	r.pos = 0

	if out.LastEvaluatedKey == nil {
		r.done = true
	} else {
		r.input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	return len(r.buffer) > 0 || !r.done
}
