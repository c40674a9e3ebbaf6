package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register decoders
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded image ready to embed. Data is JPEG or 8-bit PNG.
type Image struct {
	Data          []byte
	Format        string // "JPG" or "PNG"
	Width, Height int    // natural size in pixels
}

// ScaledWidth is the width that keeps the aspect ratio at the given height.
func (img *Image) ScaledWidth(height float64) float64 {
	return float64(img.Width) * height / float64(img.Height)
}

// Fit scales the image into a maxW x maxH box, preserving aspect ratio.
func (img *Image) Fit(maxW, maxH float64) (w, h float64) {
	h = maxH
	w = img.ScaledWidth(h)
	if w > maxW {
		w = maxW
		h = float64(img.Height) * w / float64(img.Width)
	}
	return w, h
}

// ImageResult is the outcome of resolving one image reference: either an
// Image or the reason it is unavailable. Resolvers never panic or abort.
type ImageResult struct {
	Image *Image
	Err   error
}

// OK reports whether the image resolved.
func (r ImageResult) OK() bool { return r.Err == nil && r.Image != nil }

// ImageResolver fetches and decodes images by opaque reference.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) ImageResult
}

// ObjectOpener reads objects from a bucket store for gs:// references.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

var (
	errEmptyRef      = errors.New("empty image reference")
	errNoObjectStore = errors.New("no object store configured for gs:// references")
	errImageTooLarge = errors.New("image exceeds size limit")
)

const (
	defaultMaxImageBytes = 20 << 20
	defaultMaxPixels     = 2400
)

// ImageFetcher resolves http(s)://, gs://, data: and local file references.
type ImageFetcher struct {
	httpClient  *http.Client
	objects     ObjectOpener
	maxAttempts int
	backoff     time.Duration
	maxBytes    int64
	maxPixels   int
}

// FetcherOption configures an ImageFetcher.
type FetcherOption func(*ImageFetcher)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *ImageFetcher) {
		f.httpClient = c
	}
}

// WithObjectOpener enables gs:// references.
func WithObjectOpener(o ObjectOpener) FetcherOption {
	return func(f *ImageFetcher) {
		f.objects = o
	}
}

// WithRetry sets the number of HTTP attempts and the first backoff delay.
func WithRetry(attempts int, backoff time.Duration) FetcherOption {
	return func(f *ImageFetcher) {
		f.maxAttempts = attempts
		f.backoff = backoff
	}
}

// WithMaxPixels caps the longest side of embedded images; larger images are downscaled.
func WithMaxPixels(n int) FetcherOption {
	return func(f *ImageFetcher) {
		f.maxPixels = n
	}
}

// NewImageFetcher creates a fetcher with optional configuration.
func NewImageFetcher(opts ...FetcherOption) *ImageFetcher {
	f := &ImageFetcher{
		httpClient:  http.DefaultClient,
		maxAttempts: 3,
		backoff:     250 * time.Millisecond,
		maxBytes:    defaultMaxImageBytes,
		maxPixels:   defaultMaxPixels,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxAttempts < 1 {
		f.maxAttempts = 1
	}
	return f
}

// Resolve fetches and decodes ref. Failures come back in the result.
func (f *ImageFetcher) Resolve(ctx context.Context, ref string) ImageResult {
	data, err := f.fetch(ctx, strings.TrimSpace(ref))
	if err != nil {
		return ImageResult{Err: fmt.Errorf("fetch image: %w", err)}
	}
	img, err := decodeImage(data, f.maxPixels)
	if err != nil {
		return ImageResult{Err: fmt.Errorf("decode image: %w", err)}
	}
	return ImageResult{Image: img}
}

func (f *ImageFetcher) fetch(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, errEmptyRef
	}
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path, including Windows drive letters.
		return f.readLimited(os.Open(ref))
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, ref)
	case "gs":
		if f.objects == nil {
			return nil, errNoObjectStore
		}
		return f.readLimited(f.objects.Open(ctx, u.Host, strings.TrimPrefix(u.Path, "/")))
	case "file":
		return f.readLimited(os.Open(u.Path))
	}
	return nil, fmt.Errorf("unsupported image reference scheme %q", u.Scheme)
}

func (f *ImageFetcher) readLimited(rc io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}

// fetchHTTP retries transport errors, 429 and 5xx with exponential backoff.
func (f *ImageFetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	backoff := f.backoff
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		data, retry, err := f.getOnce(ctx, ref)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry || attempt == f.maxAttempts {
			break
		}
		slog.Debug("Image fetch failed, will retry.", "attempt", attempt, "backoff", backoff.String(), "error", err)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (f *ImageFetcher) getOnce(ctx context.Context, ref string) (data []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err = f.readLimited(resp.Body, nil)
	return data, false, err
}

// decodeDataURI handles "data:[<mediatype>][;base64],<data>".
func decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// decodeImage validates the bytes and converts them to what the PDF writer
// embeds: JPEGs pass through, everything else becomes an 8-bit PNG.
func decodeImage(data []byte, maxPixels int) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	oversized := maxPixels > 0 && max(cfg.Width, cfg.Height) > maxPixels
	if format == "jpeg" && !oversized {
		return &Image{Data: data, Format: "JPG", Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if oversized {
		scale := float64(maxPixels) / float64(max(w, h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if oversized {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return &Image{Data: buf.Bytes(), Format: "PNG", Width: w, Height: h}, nil
}
