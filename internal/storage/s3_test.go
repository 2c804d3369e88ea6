package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the handful of path-style operations S3Store issues.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if key == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodGet {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T, fake *fakeS3, bucket string) (*S3Store, error) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewS3Store(context.Background(), S3Options{
		Bucket:          bucket,
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3("media")
	s, err := newTestS3Store(t, fake, "media")
	require.NoError(t, err)

	key := VideoKey("clip", ".gif")
	require.NoError(t, s.Save(ctx, key, "image/gif", []byte("GIF89a....")))
	assert.Equal(t, "image/gif", fake.types[key])

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := s.Size(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	data, err := ReadAll(ctx, s, key)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a....", string(data))

	url, err := s.URL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, "/media/videos/clip.gif")
	assert.Contains(t, url, "X-Amz-Signature")

	require.NoError(t, s.Delete(ctx, key))
	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Store_MissingObject(t *testing.T) {
	s, err := newTestS3Store(t, newFakeS3("media"), "media")
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "images/none.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Size(context.Background(), "images/none.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_MissingBucket(t *testing.T) {
	_, err := newTestS3Store(t, newFakeS3("media"), "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
