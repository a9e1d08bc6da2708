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

package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	log, err := New(&Config{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log.Debug())

	_, err = New(&Config{Level: "not-a-level"})
	require.Error(t, err)
}

func TestNewDebugOverridesLevel(t *testing.T) {
	log, err := New(&Config{Level: "error", Debug: true})
	require.NoError(t, err)
	require.True(t, log.Debug().Enabled())
}

func TestDefaultLogger(t *testing.T) {
	log := Default()
	require.NotNil(t, log)
	require.False(t, log.Info().Enabled())
	require.True(t, log.Warn().Enabled())
}
