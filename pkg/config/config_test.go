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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const settingsYAML = `
region_name: test-file-region
registry_table_name: test-file-registry
source_table_name: test-file-index
source_bucket_name: test-file-source
parsed_bucket_name: test-file-parsed
role_arn: test-file-arn
sesh_duration: 54321
cache_ttl: 600
some_future_key: ignored
`

func writeSettings(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeSettings(t, settingsYAML)

	settings, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, settings.Validate())

	require.Equal(t, "test-file-region", settings.RegionName)
	require.Equal(t, "test-file-registry", settings.RegistryTableName)
	require.Equal(t, "test-file-index", settings.SourceTableName)
	require.Equal(t, "test-file-source", settings.SourceBucketName)
	require.Equal(t, "test-file-parsed", settings.ParsedBucketName)
	require.Equal(t, "test-file-arn", settings.RoleARN)
	require.Equal(t, 54321, settings.SeshDurationSeconds())
	require.Equal(t, 600, settings.CacheTTLSeconds())
}

func TestDefaults(t *testing.T) {
	settings := &Settings{}
	require.Equal(t, DefaultCacheTTLSeconds, settings.CacheTTLSeconds())
	require.Equal(t, 0, settings.SeshDurationSeconds())

	// A role without an explicit duration gets the default.
	settings.RoleARN = "arn"
	require.Equal(t, DefaultSessionDurationSecs, settings.SeshDurationSeconds())

	// Zero cache TTL is an explicit value, not a missing one.
	zero := 0
	settings.CacheTTL = &zero
	require.Equal(t, 0, settings.CacheTTLSeconds())
}

func TestValidateMissingRequired(t *testing.T) {
	settings := &Settings{
		RegionName:        "r",
		RegistryTableName: "t",
		SourceTableName:   "s",
	}

	err := settings.Validate()
	require.ErrorIs(t, err, errMissingRequired)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	require.Equal(t, DefaultConfigPath, ResolvePath())

	t.Setenv(EnvConfigFile, "/tmp/custom.yaml")
	require.Equal(t, "/tmp/custom.yaml", ResolvePath())
}

func TestMergeOverrides(t *testing.T) {
	path := writeSettings(t, settingsYAML)

	settings, err := Load(path)
	require.NoError(t, err)

	settings.Merge(&Settings{
		SourceTableName:  "override-table",
		SourceBucketName: "override-bucket",
		RoleARN:          "custom-role",
	})

	require.Equal(t, "test-file-region", settings.RegionName)
	require.Equal(t, "override-table", settings.SourceTableName)
	require.Equal(t, "override-bucket", settings.SourceBucketName)
	require.Equal(t, "custom-role", settings.RoleARN)
	require.Equal(t, 54321, settings.SeshDurationSeconds())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
