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

package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func stackOutputs(version string) []cfntypes.Output {
	pairs := map[string]string{
		"RegionName":      "test-region",
		"RegistryTable":   "test-registry-table",
		"SourceDataTable": "test-source-table",
		"SourceBucket":    "test-source-bucket",
		"ParsedBucket":    "test-parsed-bucket",
		"StoragePrefix":   "test-prefix",
		"StackVersion":    version,
	}

	outputs := make([]cfntypes.Output, 0, len(pairs))
	for key, value := range pairs {
		outputs = append(outputs, cfntypes.Output{
			OutputKey:   aws.String(key),
			OutputValue: aws.String(value),
		})
	}

	return outputs
}

func expectStack(client *MockCloudFormationAPI, version string) {
	client.EXPECT().
		DescribeStacks(gomock.Any(), gomock.Any()).
		Return(&cloudformation.DescribeStacksOutput{
			Stacks: []cfntypes.Stack{{Outputs: stackOutputs(version)}},
		}, nil)
}

func TestGenerateSettingsFileVersionGate(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	client := NewMockCloudFormationAPI(ctrl)

	path := filepath.Join(t.TempDir(), "settings.yaml")

	// Exactly the minimum version passes.
	expectStack(client, MinBackendVersion)
	require.NoError(t, GenerateSettingsFile(ctx, client, "test-backend", path, true))

	// Newer passes.
	expectStack(client, "v9999.9.9")
	require.NoError(t, GenerateSettingsFile(ctx, client, "test-backend", path, true))

	// Older is refused.
	expectStack(client, "v0.0.1")
	err := GenerateSettingsFile(ctx, client, "test-backend", path, true)
	require.ErrorIs(t, err, errBackendTooOld)

	// Garbage versions are refused.
	expectStack(client, "not-a-version")
	err = GenerateSettingsFile(ctx, client, "test-backend", path, true)
	require.ErrorIs(t, err, errBadStackVersion)
}

func TestGenerateSettingsFileContents(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	client := NewMockCloudFormationAPI(ctrl)

	path := filepath.Join(t.TempDir(), "settings.yaml")

	expectStack(client, "v2.1.0")
	require.NoError(t, GenerateSettingsFile(ctx, client, "test-backend", path, false))

	settings, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, settings.Validate())
	require.Equal(t, "test-region", settings.RegionName)
	require.Equal(t, "test-registry-table", settings.RegistryTableName)
	require.Equal(t, "test-source-table", settings.SourceTableName)
	require.Equal(t, "test-source-bucket", settings.SourceBucketName)
	require.Equal(t, "test-parsed-bucket", settings.ParsedBucketName)
	require.Equal(t, "test-prefix", settings.BucketPrefix)

	// Without overwrite, an existing file is refused.
	expectStack(client, "v2.1.0")
	err = GenerateSettingsFile(ctx, client, "test-backend", path, false)
	require.ErrorIs(t, err, errSettingsExisting)
}

func TestGenerateSettingsFileMissingOutputs(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	client := NewMockCloudFormationAPI(ctrl)

	client.EXPECT().
		DescribeStacks(gomock.Any(), gomock.Any()).
		Return(&cloudformation.DescribeStacksOutput{
			Stacks: []cfntypes.Stack{{Outputs: []cfntypes.Output{{
				OutputKey:   aws.String("StackVersion"),
				OutputValue: aws.String("v2.0.0"),
			}}}},
		}, nil)

	err := GenerateSettingsFile(ctx, client, "test-backend", filepath.Join(t.TempDir(), "s.yaml"), true)
	require.ErrorIs(t, err, errStackOutput)
}

func TestGetStackOutputsNoStack(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	client := NewMockCloudFormationAPI(ctrl)

	client.EXPECT().
		DescribeStacks(gomock.Any(), gomock.Any()).
		Return(&cloudformation.DescribeStacksOutput{}, nil)

	_, err := GetStackOutputs(ctx, client, "missing")
	require.ErrorIs(t, err, errStackNotFound)
}
