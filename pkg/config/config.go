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

// Package config loads the warehouse settings file and synthesises it from a
// deployed backend stack.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile overrides the default settings path when set.
const EnvConfigFile = "WAREHOUSE_CONFIG_FILE"

// DefaultConfigPath is used when no override is present.
const DefaultConfigPath = "settings.yaml"

// Defaults applied when the corresponding keys are absent.
const (
	DefaultCacheTTLSeconds     = 300
	DefaultSessionDurationSecs = 3600
)

var (
	errMissingRequired = errors.New("required setting missing")
)

// Settings is the configuration surface of the warehouse. Unknown keys in the
// settings file are ignored.
type Settings struct {
	RegionName        string `yaml:"region_name"`
	RegistryTableName string `yaml:"registry_table_name"`
	SourceTableName   string `yaml:"source_table_name"`
	SourceBucketName  string `yaml:"source_bucket_name"`
	ParsedBucketName  string `yaml:"parsed_bucket_name"`
	BucketPrefix      string `yaml:"bucket_prefix"`
	RoleARN           string `yaml:"role_arn"`

	// SeshDuration is the assumed-role session duration in seconds.
	SeshDuration *int `yaml:"sesh_duration"`

	// CacheTTL is the registry cache TTL in seconds. Zero disables caching.
	CacheTTL *int `yaml:"cache_ttl"`
}

// Validate checks that every required key is present.
func (s *Settings) Validate() error {
	required := map[string]string{
		"region_name":         s.RegionName,
		"registry_table_name": s.RegistryTableName,
		"source_table_name":   s.SourceTableName,
		"source_bucket_name":  s.SourceBucketName,
		"parsed_bucket_name":  s.ParsedBucketName,
	}

	for key, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %q", errMissingRequired, key)
		}
	}

	return nil
}

// CacheTTLSeconds resolves the cache TTL, applying the default.
func (s *Settings) CacheTTLSeconds() int {
	if s.CacheTTL != nil {
		return *s.CacheTTL
	}

	return DefaultCacheTTLSeconds
}

// SeshDurationSeconds resolves the assumed-role session duration, applying
// the default when a role is configured.
func (s *Settings) SeshDurationSeconds() int {
	if s.SeshDuration != nil {
		return *s.SeshDuration
	}

	if s.RoleARN != "" {
		return DefaultSessionDurationSecs
	}

	return 0
}

// ResolvePath returns the settings path: the environment override when set,
// else the default.
func ResolvePath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}

	return DefaultConfigPath
}

// Load reads and parses a settings file.
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	var settings Settings

	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	return &settings, nil
}

// Merge overlays non-zero fields of other onto s, returning s. Explicit
// arguments win over file values.
func (s *Settings) Merge(other *Settings) *Settings {
	if other == nil {
		return s
	}

	if other.RegionName != "" {
		s.RegionName = other.RegionName
	}

	if other.RegistryTableName != "" {
		s.RegistryTableName = other.RegistryTableName
	}

	if other.SourceTableName != "" {
		s.SourceTableName = other.SourceTableName
	}

	if other.SourceBucketName != "" {
		s.SourceBucketName = other.SourceBucketName
	}

	if other.ParsedBucketName != "" {
		s.ParsedBucketName = other.ParsedBucketName
	}

	if other.BucketPrefix != "" {
		s.BucketPrefix = other.BucketPrefix
	}

	if other.RoleARN != "" {
		s.RoleARN = other.RoleARN
	}

	if other.SeshDuration != nil {
		s.SeshDuration = other.SeshDuration
	}

	if other.CacheTTL != nil {
		s.CacheTTL = other.CacheTTL
	}

	return s
}
