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

import "errors"

// The public error taxonomy. Callers classify failures with errors.Is.
var (
	// ErrArgument marks internally inconsistent caller inputs: changing
	// primary keys, unknown parsers, invalid primary-key shapes.
	ErrArgument = errors.New("invalid argument combination")

	// ErrMetadata marks a file's metadata failing the collection schema:
	// missing required fields, wrong types, illegal update targets.
	ErrMetadata = errors.New("invalid metadata")

	// ErrOperation marks an unmet state precondition: no collection
	// selected, no such row, no parsers registered.
	ErrOperation = errors.New("invalid operation for warehouse state")
)
