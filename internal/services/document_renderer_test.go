package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/businessdocs/internal/gcp"
	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/Lllllllleong/businessdocs/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	mu       sync.Mutex
	records  map[string]models.DocumentRecord
	settings models.BrandSettings
	jobs     map[string]map[string]any
	nextID   int
	loadErr  error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]models.DocumentRecord{}, jobs: map[string]map[string]any{}}
}

func (f *fakeRecords) LoadRecord(_ context.Context, kind models.Kind, id string) (models.DocumentRecord, error) {
	if f.loadErr != nil {
		return models.DocumentRecord{}, f.loadErr
	}
	rec, ok := f.records[string(kind)+"/"+id]
	if !ok {
		return rec, fmt.Errorf("%s/%s: %w", kind.Collection(), id, gcp.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeRecords) LoadSettings(context.Context) (models.BrandSettings, error) {
	return f.settings, nil
}

func (f *fakeRecords) CreateJob(_ context.Context, job models.RenderJob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("job-%d", f.nextID)
	f.jobs[id] = map[string]any{"status": job.Status, "documentId": job.DocumentID, "kind": job.Kind}
	return id, nil
}

func (f *fakeRecords) UpdateJob(_ context.Context, jobID string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return errors.New("no such job")
	}
	for k, v := range fields {
		job[k] = v
	}
	return nil
}

type fakeArtifacts struct {
	objects map[string][]byte
	err     error
}

func (f *fakeArtifacts) Save(_ context.Context, object string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if contentType != "application/pdf" {
		return "", fmt.Errorf("unexpected content type %q", contentType)
	}
	if _, exists := f.objects[object]; !exists {
		f.objects[object] = data
	}
	return "gs://out/" + object, nil
}

type fakeWorkflow struct {
	args []any
}

func (f *fakeWorkflow) Trigger(_ context.Context, argument any) (string, error) {
	f.args = append(f.args, argument)
	return fmt.Sprintf("executions/%d", len(f.args)), nil
}

func quietEngine() *render.Engine {
	return render.NewEngine(
		render.WithResolver(render.NewImageFetcher()),
		render.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func seededRecords() *fakeRecords {
	store := newFakeRecords()
	store.settings = models.BrandSettings{
		Company:    models.CompanyIdentity{Name: "Acme Builders", Email: "accounts@acme.test"},
		LegalTerms: models.Terms{"Payment within 30 days."},
	}
	store.records["invoice/inv-0001-xyz"] = models.DocumentRecord{
		ID:            "inv-0001-xyz",
		CreatedDate:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		TotalAmount:   1150,
		VATApplicable: true,
		LineItems:     []models.LineItem{{Description: "Survey", Quantity: 1, UnitPrice: 1150, LineTotal: 1150}},
	}
	return store
}

func TestProcessStoresPDFAndCompletesJob(t *testing.T) {
	store := seededRecords()
	artifacts := &fakeArtifacts{objects: map[string][]byte{}}
	workflow := &fakeWorkflow{}
	d := newDocumentRenderer(DocumentRendererConfig{}, store, artifacts, workflow, quietEngine())

	res, err := d.Process(context.Background(), &models.RenderRequest{Kind: "Invoice", DocumentID: "inv-0001-xyz"})
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusRendered, res.Status)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, "TAX_INVOICE_inv-0001.pdf", res.Filename)
	assert.Equal(t, 2, res.PageCount)
	assert.True(t, strings.HasPrefix(res.GCSUri, "gs://out/rendered/invoice/inv-0001/"))
	assert.True(t, strings.HasSuffix(res.GCSUri, "/TAX_INVOICE_inv-0001.pdf"))

	require.Len(t, artifacts.objects, 1)
	for _, data := range artifacts.objects {
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	}

	job := store.jobs["job-1"]
	assert.Equal(t, models.JobStatusRendered, job["status"])
	assert.Equal(t, 2, job["pageCount"])
	assert.Equal(t, res.GCSUri, job["gcsUri"])
	assert.Len(t, job["sha256"], 64)
	assert.Equal(t, "executions/1", job["workflowExecutionId"])

	require.Len(t, workflow.args, 1)
	event, ok := workflow.args[0].(models.RenderCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "inv-0001-xyz", event.DocumentID)
	assert.Equal(t, res.GCSUri, event.GCSUri)
}

func TestProcessIsIdempotent(t *testing.T) {
	store := seededRecords()
	artifacts := &fakeArtifacts{objects: map[string][]byte{}}
	d := newDocumentRenderer(DocumentRendererConfig{}, store, artifacts, nil, quietEngine())

	req := &models.RenderRequest{Kind: "invoice", DocumentID: "inv-0001-xyz"}
	first, err := d.Process(context.Background(), req)
	require.NoError(t, err)
	second, err := d.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.GCSUri, second.GCSUri)
	assert.NotEqual(t, first.JobID, second.JobID)
	assert.Len(t, artifacts.objects, 1)
}

func TestProcessAcceptsStoredKindSpelling(t *testing.T) {
	store := seededRecords()
	rec := store.records["invoice/inv-0001-xyz"]
	rec.Kind = "Invoice"
	store.records["invoice/inv-0001-xyz"] = rec
	d := newDocumentRenderer(DocumentRendererConfig{}, store, &fakeArtifacts{objects: map[string][]byte{}}, nil, quietEngine())

	res, err := d.Process(context.Background(), &models.RenderRequest{Kind: "invoice", DocumentID: "inv-0001-xyz"})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRendered, res.Status)
	assert.Equal(t, "TAX_INVOICE_inv-0001.pdf", res.Filename)
}

func TestProcessRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *models.RenderRequest
	}{
		{"nil", nil},
		{"unknown kind", &models.RenderRequest{Kind: "receipt", DocumentID: "x"}},
		{"missing id", &models.RenderRequest{Kind: "invoice", DocumentID: " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededRecords()
			d := newDocumentRenderer(DocumentRendererConfig{}, store, &fakeArtifacts{objects: map[string][]byte{}}, nil, quietEngine())
			_, err := d.Process(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Empty(t, store.jobs)
		})
	}
}

func TestProcessMarksJobFailed(t *testing.T) {
	t.Run("record missing", func(t *testing.T) {
		store := seededRecords()
		d := newDocumentRenderer(DocumentRendererConfig{}, store, &fakeArtifacts{objects: map[string][]byte{}}, nil, quietEngine())
		_, err := d.Process(context.Background(), &models.RenderRequest{Kind: "quotation", DocumentID: "q-1"})
		assert.ErrorIs(t, err, gcp.ErrNotFound)
		assert.Equal(t, models.JobStatusFailed, store.jobs["job-1"]["status"])
		assert.Contains(t, store.jobs["job-1"]["errorDetails"], "failed to load record")
	})

	t.Run("invalid record", func(t *testing.T) {
		store := seededRecords()
		store.records["invoice/bad"] = models.DocumentRecord{ID: "bad", TotalAmount: 10, TaxRate: ptr(2.0), VATApplicable: true}
		d := newDocumentRenderer(DocumentRendererConfig{}, store, &fakeArtifacts{objects: map[string][]byte{}}, nil, quietEngine())
		_, err := d.Process(context.Background(), &models.RenderRequest{Kind: "invoice", DocumentID: "bad"})
		assert.ErrorIs(t, err, render.ErrInvalidTaxRate)
		assert.True(t, render.IsInputError(err))
		assert.Equal(t, models.JobStatusFailed, store.jobs["job-1"]["status"])
	})

	t.Run("storage failure", func(t *testing.T) {
		store := seededRecords()
		artifacts := &fakeArtifacts{err: errors.New("bucket unavailable")}
		d := newDocumentRenderer(DocumentRendererConfig{}, store, artifacts, nil, quietEngine())
		_, err := d.Process(context.Background(), &models.RenderRequest{Kind: "invoice", DocumentID: "inv-0001-xyz"})
		require.Error(t, err)
		assert.False(t, render.IsInputError(err))
		assert.Equal(t, models.JobStatusFailed, store.jobs["job-1"]["status"])
	})
}

func TestProcessOptimizedOutput(t *testing.T) {
	store := seededRecords()
	artifacts := &fakeArtifacts{objects: map[string][]byte{}}
	d := newDocumentRenderer(DocumentRendererConfig{OptimizeOutput: true}, store, artifacts, nil, quietEngine())
	res, err := d.Process(context.Background(), &models.RenderRequest{Kind: "invoice", DocumentID: "inv-0001-xyz"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.PageCount)
	require.Len(t, artifacts.objects, 1)
}

func TestArtifactPath(t *testing.T) {
	rec := models.DocumentRecord{ID: "abcdefghijk"}
	hash := strings.Repeat("0123456789", 7)
	assert.Equal(t, "rendered/quotation/abcdefgh/012345678901/QUOTATION_abcdefgh.pdf",
		ArtifactPath(models.KindQuotation, rec, hash, "QUOTATION_abcdefgh.pdf"))
}

func TestLoadDocumentRendererConfig(t *testing.T) {
	t.Setenv("PROJECT_ID", "proj")
	t.Setenv("OUTPUT_BUCKET", "out")
	t.Setenv("OPTIMIZE_OUTPUT", "true")

	config, err := LoadDocumentRendererConfig()
	require.NoError(t, err)
	assert.Equal(t, "settings", config.SettingsCollection)
	assert.Equal(t, "brand", config.SettingsDocument)
	assert.Equal(t, "render_jobs", config.JobsCollection)
	assert.True(t, config.OptimizeOutput)

	t.Setenv("OPTIMIZE_OUTPUT", "sometimes")
	_, err = LoadDocumentRendererConfig()
	assert.Error(t, err)

	t.Setenv("OUTPUT_BUCKET", "")
	t.Setenv("OPTIMIZE_OUTPUT", "")
	_, err = LoadDocumentRendererConfig()
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
