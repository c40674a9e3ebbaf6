package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects map[string][]byte

func (m memObjects) Open(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	data, ok := m[bucket+"/"+object]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestImageFetcherSources(t *testing.T) {
	data := pngBytes(t, 4, 2)

	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := NewImageFetcher(WithObjectOpener(memObjects{"brand/logos/acme.png": data}))
	refs := map[string]string{
		"data uri": "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
		"path":     path,
		"file url": "file://" + path,
		"http":     srv.URL + "/logo.png",
		"gs":       "gs://brand/logos/acme.png",
	}
	for name, ref := range refs {
		t.Run(name, func(t *testing.T) {
			res := f.Resolve(context.Background(), ref)
			require.True(t, res.OK(), "%v", res.Err)
			assert.Equal(t, "PNG", res.Image.Format)
			assert.Equal(t, 4, res.Image.Width)
			assert.Equal(t, 2, res.Image.Height)
		})
	}
}

func TestImageFetcherFailures(t *testing.T) {
	f := NewImageFetcher(WithRetry(1, time.Millisecond))
	refs := map[string]string{
		"empty":       "",
		"missing":     filepath.Join(t.TempDir(), "nope.png"),
		"not image":   "data:text/plain,hello",
		"bad base64":  "data:image/png;base64,***",
		"no store":    "gs://bucket/object.png",
		"unsupported": "ftp://example.com/logo.png",
	}
	for name, ref := range refs {
		t.Run(name, func(t *testing.T) {
			res := f.Resolve(context.Background(), ref)
			assert.False(t, res.OK())
			assert.Error(t, res.Err)
			assert.Nil(t, res.Image)
		})
	}
}

func TestImageFetcherRetries(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"server error retried", http.StatusServiceUnavailable, 3},
		{"rate limit retried", http.StatusTooManyRequests, 3},
		{"not found not retried", http.StatusNotFound, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := NewImageFetcher(WithRetry(3, time.Millisecond))
			res := f.Resolve(context.Background(), srv.URL)
			assert.False(t, res.OK())
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestImageFetcherRecoversAfterRetry(t *testing.T) {
	data := pngBytes(t, 3, 3)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	res := NewImageFetcher(WithRetry(3, time.Millisecond)).Resolve(context.Background(), srv.URL)
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDecodeImage(t *testing.T) {
	t.Run("downscales oversized", func(t *testing.T) {
		img, err := decodeImage(pngBytes(t, 100, 50), 20)
		require.NoError(t, err)
		assert.Equal(t, 20, img.Width)
		assert.Equal(t, 10, img.Height)
		assert.Equal(t, "PNG", img.Format)
	})

	t.Run("jpeg passes through", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6)), nil))
		img, err := decodeImage(buf.Bytes(), 0)
		require.NoError(t, err)
		assert.Equal(t, "JPG", img.Format)
		assert.Equal(t, buf.Bytes(), img.Data)
	})
}

func TestImageScaling(t *testing.T) {
	img := &Image{Width: 400, Height: 200}
	assert.Equal(t, 20.0, img.ScaledWidth(10))

	w, h := img.Fit(100, 100)
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	w, h = img.Fit(1000, 30)
	assert.Equal(t, 60.0, w)
	assert.Equal(t, 30.0, h)
}
