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

//go:generate mockgen -destination=mock_index.go -package=index github.com/carverauto/feedwarehouse/pkg/index DynamoAPI

// Package index adapts the source table of the key-value store: typed puts,
// guarded updates, and range queries over the secondary indexes.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/carverauto/feedwarehouse/pkg/logger"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
)

// Secondary indexes declared on the source table.
const (
	ContentStartIndex = "ContentStartIndex"
	ReleaseDateIndex  = "ReleaseDateIndex"
)

var (
	// ErrAlreadyExists reports a conditional put losing to an existing
	// (file_key, source_version) pair.
	ErrAlreadyExists = errors.New("source record already exists")

	// ErrNotFound reports that no row matches the requested keys.
	ErrNotFound = errors.New("source record not found")

	errImmutableField = errors.New("field cannot be updated")
)

// DynamoAPI is the slice of the DynamoDB client the source table adapter
// uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Table is the source table adapter.
type Table struct {
	client DynamoAPI
	table  string
	log    logger.Logger
}

// NewTable builds a source table adapter.
func NewTable(client DynamoAPI, table string, log logger.Logger) *Table {
	if log == nil {
		log = logger.Default()
	}

	return &Table{client: client, table: table, log: log}
}

// PutIfAbsent inserts a row conditioned on the (file_key, source_version)
// pair being absent. A losing race surfaces as ErrAlreadyExists.
func (t *Table) PutIfAbsent(ctx context.Context, row metadata.Row) error {
	item := toAttributes(row)

	err := withRetry(ctx, func() error {
		_, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(t.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(file_key)"),
		})

		return err
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, rowKeyString(row))
		}

		return fmt.Errorf("inserting source record: %w", err)
	}

	return nil
}

// UpdateExisting applies field updates to an existing row. The table keys and
// retrieved_date are immutable; a missing row surfaces as ErrNotFound.
func (t *Table) UpdateExisting(ctx context.Context, fileKey, sourceVersion string, updates metadata.Row) error {
	for field := range updates {
		switch field {
		case metadata.FieldFileKey, metadata.FieldSourceVersion, metadata.FieldRetrievedDate:
			return fmt.Errorf("%w: %q", errImmutableField, field)
		}
	}

	names := make(map[string]string, len(updates))
	values := make(map[string]ddbtypes.AttributeValue, len(updates))
	assignments := make([]string, 0, len(updates))

	i := 0

	for field, cell := range updates {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = field
		values[valueKey] = cellToAttribute(cell)
		assignments = append(assignments, nameKey+" = "+valueKey)
		i++
	}

	err := withRetry(ctx, func() error {
		_, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(t.table),
			Key:                       rowKey(fileKey, sourceVersion),
			UpdateExpression:          aws.String("SET " + strings.Join(assignments, ", ")),
			ConditionExpression:       aws.String("attribute_exists(file_key)"),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})

		return err
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, fileKey, sourceVersion)
		}

		return fmt.Errorf("updating source record: %w", err)
	}

	return nil
}

// Get reads one row by its full key.
func (t *Table) Get(ctx context.Context, fileKey, sourceVersion string) (metadata.Row, error) {
	var out *dynamodb.GetItemOutput

	err := withRetry(ctx, func() error {
		var err error

		out, err = t.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(t.table),
			Key:       rowKey(fileKey, sourceVersion),
		})

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading source record: %w", err)
	}

	if out.Item == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, fileKey, sourceVersion)
	}

	return fromAttributes(out.Item)
}

// Delete removes one row by its full key.
func (t *Table) Delete(ctx context.Context, fileKey, sourceVersion string) error {
	err := withRetry(ctx, func() error {
		_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(t.table),
			Key:       rowKey(fileKey, sourceVersion),
		})

		return err
	})
	if err != nil {
		return fmt.Errorf("deleting source record: %w", err)
	}

	return nil
}

func rowKey(fileKey, sourceVersion string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		metadata.FieldFileKey:       &ddbtypes.AttributeValueMemberS{Value: fileKey},
		metadata.FieldSourceVersion: &ddbtypes.AttributeValueMemberS{Value: sourceVersion},
	}
}

func rowKeyString(row metadata.Row) string {
	return row[metadata.FieldFileKey].Value + "/" + row[metadata.FieldSourceVersion].Value
}

func toAttributes(row metadata.Row) map[string]ddbtypes.AttributeValue {
	item := make(map[string]ddbtypes.AttributeValue, len(row))
	for field, cell := range row {
		item[field] = cellToAttribute(cell)
	}

	return item
}

func cellToAttribute(cell metadata.Cell) ddbtypes.AttributeValue {
	if cell.Numeric {
		return &ddbtypes.AttributeValueMemberN{Value: cell.Value}
	}

	return &ddbtypes.AttributeValueMemberS{Value: cell.Value}
}

func fromAttributes(item map[string]ddbtypes.AttributeValue) (metadata.Row, error) {
	row := make(metadata.Row, len(item))

	for field, value := range item {
		switch v := value.(type) {
		case *ddbtypes.AttributeValueMemberS:
			row[field] = metadata.Cell{Value: v.Value}
		case *ddbtypes.AttributeValueMemberN:
			row[field] = metadata.Cell{Value: v.Value, Numeric: true}
		default:
			return nil, fmt.Errorf("source cell %q has unsupported attribute type %T", field, value)
		}
	}

	return row, nil
}
