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

//go:generate mockgen -destination=mock_warehouse.go -package=warehouse github.com/carverauto/feedwarehouse/pkg/warehouse RegistryStore,SourceTable,ObjectStore,RowIterator

package warehouse

import (
	"context"
	"io"

	"github.com/carverauto/feedwarehouse/pkg/index"
	"github.com/carverauto/feedwarehouse/pkg/metadata"
	"github.com/carverauto/feedwarehouse/pkg/objstore"
	"github.com/carverauto/feedwarehouse/pkg/registry"
)

// RegistryStore is the registry the engine registers and resolves collection
// schemas against.
type RegistryStore interface {
	Get(ctx context.Context, database, collection string, useCached bool) (*registry.CollectionSchema, error)
	IterAll(ctx context.Context, useCached bool) ([]*registry.CollectionSchema, error)
	Upsert(ctx context.Context, entry *registry.CollectionSchema) error
}

// SourceTable is the index store holding one row per stored source version.
type SourceTable interface {
	PutIfAbsent(ctx context.Context, row metadata.Row) error
	UpdateExisting(ctx context.Context, fileKey, sourceVersion string, updates metadata.Row) error
	Get(ctx context.Context, fileKey, sourceVersion string) (metadata.Row, error)
	Delete(ctx context.Context, fileKey, sourceVersion string) error
	Query(plan *index.Plan) RowIterator
}

// RowIterator walks a lazy, paginated query result. Abandoning it early
// releases the pagination state.
type RowIterator interface {
	Next(ctx context.Context) bool
	Row() metadata.Row
	Err() error
}

// ObjectStore is the large-object store holding file bodies.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, header map[string]string) error
	Get(ctx context.Context, bucket, key string) (*objstore.Object, error)
	Delete(ctx context.Context, bucket, key string) error
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}
