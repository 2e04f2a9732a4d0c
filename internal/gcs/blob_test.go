package gcs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/ganot/report-results/internal/blob"
	"github.com/ganot/report-results/internal/repository"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestObjectKey(t *testing.T) {
	require.Equal(t, "abc", ObjectKey("", "abc"))
	require.Equal(t, "results/abc", ObjectKey("results", "abc"))
	require.Equal(t, "results/blobs/abc", ObjectKey("/results/blobs/", "abc"))
}

func TestIsPreconditionFailed(t *testing.T) {
	require.True(t, isPreconditionFailed(&googleapi.Error{Code: http.StatusPreconditionFailed}))
	require.True(t, isPreconditionFailed(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusPreconditionFailed})))
	require.False(t, isPreconditionFailed(&googleapi.Error{Code: http.StatusForbidden}))
	require.False(t, isPreconditionFailed(fmt.Errorf("boom")))
}

func TestCheckedKeyRejectsForeignRefs(t *testing.T) {
	s := &BlobStore{prefix: "results"}
	_, err := s.checkedKey("../../other-tenant/object")
	require.ErrorIs(t, err, repository.ErrNotFound)

	ref := blob.Ref([]byte("x"))
	key, err := s.checkedKey(ref)
	require.NoError(t, err)
	require.Equal(t, "results/"+ref, key)
}

// TestBlobStore_Bucket runs against a real bucket (or an emulator via
// STORAGE_EMULATOR_HOST) when REPORTS_GCS_TEST_BUCKET is set.
func TestBlobStore_Bucket(t *testing.T) {
	bucket := os.Getenv("REPORTS_GCS_TEST_BUCKET")
	if bucket == "" {
		t.Skip("REPORTS_GCS_TEST_BUCKET not set")
	}
	ctx := context.Background()
	store, err := New(ctx, Config{Bucket: bucket, Prefix: "report-results-test"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	data := []byte("Name,Vendor\nvm1,vmware\n")
	ref, err := store.Put(ctx, data)
	require.NoError(t, err)
	again, err := store.Put(ctx, data)
	require.NoError(t, err)
	require.Equal(t, ref, again)

	got, err := store.Get(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, data, got)

	size, err := store.Size(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), size)

	exists, err := store.Exists(ctx, blob.Ref([]byte("never stored")))
	require.NoError(t, err)
	require.False(t, exists)
}
