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
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/feedwarehouse/pkg/metadata"
)

func testRow() metadata.Row {
	return metadata.Row{
		metadata.FieldFileKey:       metadata.Cell{Value: "miso/load/abc"},
		metadata.FieldSourceVersion: metadata.Cell{Value: "1577934000_deadbeef"},
		metadata.PhysicalFeedID:     metadata.Cell{Value: "miso_load"},
		metadata.FieldReleaseDate:   metadata.Cell{Value: "1577934000", Numeric: true},
	}
}

func newTestTable(t *testing.T) (*Table, *MockDynamoAPI) {
	ctrl := gomock.NewController(t)
	client := NewMockDynamoAPI(ctrl)

	return NewTable(client, "source-table", nil), client
}

func conditionalFailure() error {
	return &smithy.GenericAPIError{Code: "ConditionalCheckFailedException", Message: "conditional request failed"}
}

func TestPutIfAbsent(t *testing.T) {
	ctx := context.Background()
	table, client := newTestTable(t)

	client.EXPECT().
		PutItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			require.Equal(t, "attribute_not_exists(file_key)", *in.ConditionExpression)
			require.Equal(t, "miso/load/abc", in.Item[metadata.FieldFileKey].(*ddbtypes.AttributeValueMemberS).Value)

			// Numeric cells go out as N attributes.
			_, ok := in.Item[metadata.FieldReleaseDate].(*ddbtypes.AttributeValueMemberN)
			require.True(t, ok)

			return &dynamodb.PutItemOutput{}, nil
		})

	require.NoError(t, table.PutIfAbsent(ctx, testRow()))
}

func TestPutIfAbsentLosesRace(t *testing.T) {
	ctx := context.Background()
	table, client := newTestTable(t)

	client.EXPECT().
		PutItem(gomock.Any(), gomock.Any()).
		Return(nil, conditionalFailure())

	err := table.PutIfAbsent(ctx, testRow())
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateExisting(t *testing.T) {
	ctx := context.Background()
	table, client := newTestTable(t)

	updates := metadata.Row{
		"key1": metadata.Cell{Value: "new_name"},
	}

	client.EXPECT().
		UpdateItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			require.Equal(t, "attribute_exists(file_key)", *in.ConditionExpression)
			require.Equal(t, "SET #f0 = :v0", *in.UpdateExpression)
			require.Equal(t, "key1", in.ExpressionAttributeNames["#f0"])
			return &dynamodb.UpdateItemOutput{}, nil
		})

	require.NoError(t, table.UpdateExisting(ctx, "miso/load/abc", "v1", updates))
}

func TestUpdateExistingRejectsImmutableFields(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestTable(t)

	for _, field := range []string{metadata.FieldFileKey, metadata.FieldSourceVersion, metadata.FieldRetrievedDate} {
		err := table.UpdateExisting(ctx, "k", "v", metadata.Row{field: metadata.Cell{Value: "x"}})
		require.ErrorIs(t, err, errImmutableField)
	}
}

func TestUpdateExistingMissingRow(t *testing.T) {
	ctx := context.Background()
	table, client := newTestTable(t)

	client.EXPECT().
		UpdateItem(gomock.Any(), gomock.Any()).
		Return(nil, conditionalFailure())

	err := table.UpdateExisting(ctx, "k", "v", metadata.Row{"x": metadata.Cell{Value: "y"}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	table, client := newTestTable(t)

	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{Item: map[string]ddbtypes.AttributeValue{
			metadata.FieldFileKey:     &ddbtypes.AttributeValueMemberS{Value: "miso/load/abc"},
			metadata.FieldReleaseDate: &ddbtypes.AttributeValueMemberN{Value: "1577934000"},
		}}, nil)

	row, err := table.Get(ctx, "miso/load/abc", "v1")
	require.NoError(t, err)
	require.Equal(t, metadata.Cell{Value: "miso/load/abc"}, row[metadata.FieldFileKey])
	require.Equal(t, metadata.Cell{Value: "1577934000", Numeric: true}, row[metadata.FieldReleaseDate])

	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{}, nil)

	_, err = table.Get(ctx, "miso/load/abc", "v2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRetryRecoversFromThrottling(t *testing.T) {
	ctx := context.Background()
	table, client := newTestTable(t)

	throttle := &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}

	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(nil, throttle)
	client.EXPECT().
		GetItem(gomock.Any(), gomock.Any()).
		Return(&dynamodb.GetItemOutput{Item: map[string]ddbtypes.AttributeValue{
			metadata.FieldFileKey: &ddbtypes.AttributeValueMemberS{Value: "k"},
		}}, nil)

	_, err := table.Get(ctx, "k", "v")
	require.NoError(t, err)
}
