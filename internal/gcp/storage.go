package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// It reports whether the object was created by this call.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte, contentType string) (bool, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "gcsObject", objectName)
			return false, nil
		}
		slog.Error("Failed to copy content to GCS object.", "gcsObject", objectName, "error", err)
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "gcsObject", objectName)
			return false, nil
		}
		slog.Error("Failed to close GCS writer.", "gcsObject", objectName, "error", err)
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return true, nil
}

// BucketStore saves rendered artifacts to one bucket, retrying transient
// failures with exponential backoff.
type BucketStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	maxRetries int
	backoff    time.Duration
}

func NewBucketStore(client *storage.Client, bucketName string) *BucketStore {
	return &BucketStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		maxRetries: 4,
		backoff:    time.Second,
	}
}

// Save stores data at object unless it already exists and returns its gs:// URI.
func (s *BucketStore) Save(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	uri := fmt.Sprintf("gs://%s/%s", s.bucketName, object)
	backoff := s.backoff
	var lastErr error

	for i := 0; i < s.maxRetries; i++ {
		writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
		created, err := SaveToGCSAtomically(writeCtx, s.bucket, object, data, contentType)
		cancel()
		if err == nil {
			if !created {
				slog.Info("Identical artifact already stored.", "gcsUri", uri)
			}
			return uri, nil
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", object,
			"attempt", i+1,
			"maxRetries", s.maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", object, "error", ctx.Err())
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("upload for %s failed after all retries: %w", object, lastErr)
}

// GCSOpener serves gs:// image references to the renderer.
type GCSOpener struct {
	client *storage.Client
}

func NewGCSOpener(client *storage.Client) *GCSOpener {
	return &GCSOpener{client: client}
}

func (o *GCSOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := o.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	return r, nil
}
