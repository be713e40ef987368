package memory

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/homeinspect/internal/photostore"
)

func TestStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New("http://cdn.test")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	obj, err := s.Put(ctx, "inspections/i1/a.png", "", bytes.NewReader([]byte("png")), 3)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, fixed, obj.LastModified)

	rc, ct, err := s.Get(ctx, "inspections/i1/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", ct)

	require.NoError(t, s.Delete(ctx, "inspections/i1/a.png"))
	assert.ErrorIs(t, s.Delete(ctx, "inspections/i1/a.png"), photostore.ErrNotFound)
	_, _, err = s.Get(ctx, "inspections/i1/a.png")
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestStoreListSorted(t *testing.T) {
	ctx := context.Background()
	s := New("")
	for _, key := range []string{"inspections/i1/c.jpg", "inspections/i1/a.jpg", "inspections/i10/b.jpg"} {
		_, err := s.Put(ctx, key, "image/jpeg", bytes.NewReader(nil), 0)
		require.NoError(t, err)
	}

	objs, err := s.List(ctx, "inspections/i1/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "inspections/i1/a.jpg", objs[0].Key)
	assert.Equal(t, "inspections/i1/c.jpg", objs[1].Key)
}

func TestStoreRejectsBadKey(t *testing.T) {
	_, err := New("").Put(context.Background(), "../x.jpg", "image/jpeg", bytes.NewReader(nil), 0)
	assert.Error(t, err)
}
