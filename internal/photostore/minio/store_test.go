package minio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/homeinspect/internal/photostore"
)

// fakeMinIO answers the handful of S3 calls the store makes against a
// single path-style bucket.
type fakeMinIO struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func newFakeMinIO() *fakeMinIO {
	return &fakeMinIO{buckets: map[string]bool{}, objects: map[string]fakeObject{}}
}

func (f *fakeMinIO) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if key == "" {
		switch {
		case r.Method == http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut:
			f.buckets[bucket] = true
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
			f.list(w, r.URL.Query().Get("prefix"))
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
		return
	}

	obj, exists := f.objects[key]
	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
			body = decodeChunks(body)
		}
		f.objects[key] = fakeObject{body: body, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		if !exists {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				fmt.Fprint(w, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.body)))
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.body)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeMinIO) list(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>inspection-images</Name><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"etag"</ETag></Contents>`, k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	w.Header().Set("Content-Type", "application/xml")
	_, _ = io.WriteString(w, b.String())
}

// decodeChunks strips aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0[;ext]\r\n
func decodeChunks(b []byte) []byte {
	var out bytes.Buffer
	rd := bufio.NewReader(bytes.NewReader(b))
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return out.Bytes()
		}
		line = strings.TrimRight(line, "\r\n")
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		n, err := strconv.ParseInt(line, 16, 64)
		if err != nil || n == 0 {
			return out.Bytes()
		}
		if _, err := io.CopyN(&out, rd, n); err != nil {
			return out.Bytes()
		}
		_, _ = rd.ReadString('\n')
	}
}

func newTestStore(t *testing.T) (*Store, *fakeMinIO) {
	t.Helper()
	fake := newFakeMinIO()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "inspection-images",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewCreatesBucket(t *testing.T) {
	_, fake := newTestStore(t)
	assert.True(t, fake.buckets["inspection-images"])
}

func TestStoreRoundTrip(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	data := []byte("jpeg bytes")

	obj, err := store.Put(ctx, "inspections/i1/a.jpg", "image/jpeg", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "inspections/i1/a.jpg", obj.Key)
	assert.Equal(t, data, fake.objects["inspections/i1/a.jpg"].body)

	rc, ct, err := store.Get(ctx, "inspections/i1/a.jpg")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)
	assert.Equal(t, "image/jpeg", ct)

	objs, err := store.List(ctx, "inspections/i1/")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, int64(len(data)), objs[0].Size)

	u, err := store.URL(ctx, "inspections/i1/a.jpg")
	require.NoError(t, err)
	assert.Contains(t, u, "/inspection-images/inspections/i1/a.jpg")
	assert.Contains(t, u, "X-Amz-Signature=")

	require.NoError(t, store.Delete(ctx, "inspections/i1/a.jpg"))
	assert.Empty(t, fake.objects)
}

func TestStoreMissingObject(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Get(ctx, "inspections/i1/nope.jpg")
	assert.ErrorIs(t, err, photostore.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "inspections/i1/nope.jpg"), photostore.ErrNotFound)
}
