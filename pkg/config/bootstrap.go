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

//go:generate mockgen -destination=mock_config.go -package=config github.com/carverauto/feedwarehouse/pkg/config CloudFormationAPI

package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// MinBackendVersion is the oldest backend stack this engine can talk to.
const MinBackendVersion = "v2.0.0"

// Stack output keys published by the backend deployment.
const (
	outputRegion        = "RegionName"
	outputRegistryTable = "RegistryTable"
	outputSourceTable   = "SourceDataTable"
	outputSourceBucket  = "SourceBucket"
	outputParsedBucket  = "ParsedBucket"
	outputStoragePrefix = "StoragePrefix"
	outputStackVersion  = "StackVersion"
)

var (
	errStackNotFound    = errors.New("backend stack not found")
	errStackOutput      = errors.New("backend stack output missing")
	errBackendTooOld    = errors.New("backend stack version is older than the minimum this engine supports")
	errBadStackVersion  = errors.New("backend stack version is not a valid semantic version")
	errSettingsExisting = errors.New("settings file already exists")
)

// CloudFormationAPI is the slice of the CloudFormation client the bootstrap
// helper uses.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// GetStackOutputs reads the outputs of a deployed backend stack.
func GetStackOutputs(ctx context.Context, client CloudFormationAPI, stackName string) (map[string]string, error) {
	out, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("describing stack %q: %w", stackName, err)
	}

	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%w: %q", errStackNotFound, stackName)
	}

	outputs := make(map[string]string)
	for _, output := range out.Stacks[0].Outputs {
		outputs[aws.ToString(output.OutputKey)] = aws.ToString(output.OutputValue)
	}

	return outputs, nil
}

// GenerateSettingsFile synthesises a settings file from a backend stack's
// outputs. It refuses to run against a stack older than MinBackendVersion and
// refuses to clobber an existing file unless overwrite is set.
func GenerateSettingsFile(ctx context.Context, client CloudFormationAPI, stackName, path string, overwrite bool) error {
	outputs, err := GetStackOutputs(ctx, client, stackName)
	if err != nil {
		return err
	}

	version, ok := outputs[outputStackVersion]
	if !ok {
		return fmt.Errorf("%w: %s", errStackOutput, outputStackVersion)
	}

	if !semver.IsValid(version) {
		return fmt.Errorf("%w: %q", errBadStackVersion, version)
	}

	if semver.Compare(version, MinBackendVersion) < 0 {
		return fmt.Errorf("%w: stack %s, minimum %s", errBackendTooOld, version, MinBackendVersion)
	}

	for _, key := range []string{outputRegion, outputRegistryTable, outputSourceTable, outputSourceBucket, outputParsedBucket} {
		if _, ok := outputs[key]; !ok {
			return fmt.Errorf("%w: %s", errStackOutput, key)
		}
	}

	settings := &Settings{
		RegionName:        outputs[outputRegion],
		RegistryTableName: outputs[outputRegistryTable],
		SourceTableName:   outputs[outputSourceTable],
		SourceBucketName:  outputs[outputSourceBucket],
		ParsedBucketName:  outputs[outputParsedBucket],
		BucketPrefix:      outputs[outputStoragePrefix],
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", errSettingsExisting, path)
		}
	}

	raw, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("rendering settings: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}

	return nil
}
