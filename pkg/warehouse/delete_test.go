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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/feedwarehouse/pkg/metadata"
)

func TestDeleteSpecificVersion(t *testing.T) {
	ctx := context.Background()
	entry := withParser(testSchema(), "csv", "xml")
	w, _, table, objects := newEngine(t, entry)

	version := "1577836800_aaaaaaaa"
	row := storedRow(t, entry, sourceMeta(refDate), version, md5Of(t, "A"))
	fileKey := mustFileKey(t, entry, sourceMeta(refDate))

	table.EXPECT().
		Get(gomock.Any(), fileKey, version).
		Return(row, nil)

	// Both parsers' blobs are cleared.
	objects.EXPECT().
		Delete(gomock.Any(), "parsed-bucket", gomock.Any()).
		Times(2)

	// The source body and row go too.
	objects.EXPECT().
		Delete(gomock.Any(), "source-bucket", row[metadata.FieldS3Key].Value)
	table.EXPECT().
		Delete(gomock.Any(), fileKey, version)

	pending, err := w.Delete(ctx, []any{"http://url-1"}, DeleteOptions{SourceVersion: version})
	require.NoError(t, err)
	require.Nil(t, pending)
}

func TestDeleteParsedFilesOnly(t *testing.T) {
	ctx := context.Background()
	entry := withParser(testSchema(), "csv", "xml")
	w, _, table, objects := newEngine(t, entry)

	version := "1577836800_aaaaaaaa"
	row := storedRow(t, entry, sourceMeta(refDate), version, md5Of(t, "A"))

	table.EXPECT().
		Get(gomock.Any(), gomock.Any(), version).
		Return(row, nil)

	// Only the named parser's blob is cleared; nothing else is touched.
	objects.EXPECT().
		Delete(gomock.Any(), "parsed-bucket", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, key string) error {
			require.Contains(t, key, "/csv/")
			return nil
		})

	_, err := w.Delete(ctx, []any{"http://url-1"}, DeleteOptions{
		SourceVersion:   version,
		ParsedFilesOnly: true,
		ParserName:      "csv",
	})
	require.NoError(t, err)
}

func TestDeleteSingleVersionWithoutSpecifying(t *testing.T) {
	ctx := context.Background()
	entry := testSchema()
	w, _, table, objects := newEngine(t, entry)

	version := "1577836800_aaaaaaaa"
	row := storedRow(t, entry, sourceMeta(refDate), version, md5Of(t, "A"))
	fileKey := mustFileKey(t, entry, sourceMeta(refDate))

	table.EXPECT().
		Query(gomock.Any()).
		Return(&fakeRows{rows: []metadata.Row{row}})

	table.EXPECT().
		Get(gomock.Any(), fileKey, version).
		Return(row, nil)
	objects.EXPECT().
		Delete(gomock.Any(), "source-bucket", gomock.Any())
	table.EXPECT().
		Delete(gomock.Any(), fileKey, version)

	pending, err := w.Delete(ctx, []any{"http://url-1"}, DeleteOptions{})
	require.NoError(t, err)
	require.Nil(t, pending)
}

func TestDeleteMultipleVersionsDefers(t *testing.T) {
	ctx := context.Background()
	entry := testSchema()
	w, _, table, objects := newEngine(t, entry)

	v1 := "1577836800_aaaaaaaa"
	v2 := "1577923200_bbbbbbbb"
	row1 := storedRow(t, entry, sourceMeta(refDate), v1, md5Of(t, "A"))
	row2 := storedRow(t, entry, sourceMeta(refDate), v2, md5Of(t, "B"))
	fileKey := mustFileKey(t, entry, sourceMeta(refDate))

	table.EXPECT().
		Query(gomock.Any()).
		Return(&fakeRows{rows: []metadata.Row{row1, row2}})

	pending, err := w.Delete(ctx, []any{"http://url-1"}, DeleteOptions{})
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Each deleter carries its version's metadata for inspection. Nothing
	// has been deleted yet.
	require.Equal(t, v1, pending[0].Metadata[metadata.FieldSourceVersion])
	require.Equal(t, v2, pending[1].Metadata[metadata.FieldSourceVersion])

	// Running a deleter deletes exactly that version.
	table.EXPECT().
		Get(gomock.Any(), fileKey, v1).
		Return(row1, nil)
	objects.EXPECT().
		Delete(gomock.Any(), "source-bucket", gomock.Any())
	table.EXPECT().
		Delete(gomock.Any(), fileKey, v1)

	require.NoError(t, pending[0].Run(ctx))
}

func TestDeleteNothingStored(t *testing.T) {
	ctx := context.Background()
	entry := testSchema()
	w, _, table, _ := newEngine(t, entry)

	table.EXPECT().
		Query(gomock.Any()).
		Return(&fakeRows{})

	_, err := w.Delete(ctx, []any{"http://url-1"}, DeleteOptions{})
	require.ErrorIs(t, err, ErrOperation)
}
