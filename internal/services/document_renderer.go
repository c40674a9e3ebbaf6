package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/businessdocs/internal/gcp"
	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/Lllllllleong/businessdocs/internal/render"
)

// ErrInvalidRequest marks requests rejected before any job is created.
var ErrInvalidRequest = errors.New("invalid render request")

type DocumentRendererConfig struct {
	ProjectID          string
	OutputBucket       string
	SettingsCollection string
	SettingsDocument   string
	JobsCollection     string
	WorkflowID         string
	WorkflowLocation   string
	OptimizeOutput     bool
}

// LoadDocumentRendererConfig reads the configuration from the environment.
func LoadDocumentRendererConfig() (DocumentRendererConfig, error) {
	config := DocumentRendererConfig{
		ProjectID:          gcp.GetEnv("PROJECT_ID", ""),
		OutputBucket:       gcp.GetEnv("OUTPUT_BUCKET", ""),
		SettingsCollection: gcp.GetEnv("SETTINGS_COLLECTION", "settings"),
		SettingsDocument:   gcp.GetEnv("SETTINGS_DOCUMENT", "brand"),
		JobsCollection:     gcp.GetEnv("JOBS_COLLECTION", "render_jobs"),
		WorkflowID:         gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:   gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}
	if config.ProjectID == "" {
		return config, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if config.OutputBucket == "" {
		return config, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}
	if v := gcp.GetEnv("OPTIMIZE_OUTPUT", ""); v != "" {
		optimize, err := strconv.ParseBool(v)
		if err != nil {
			return config, fmt.Errorf("OPTIMIZE_OUTPUT: %w", err)
		}
		config.OptimizeOutput = optimize
	}
	return config, nil
}

type recordStore interface {
	LoadRecord(ctx context.Context, kind models.Kind, id string) (models.DocumentRecord, error)
	LoadSettings(ctx context.Context) (models.BrandSettings, error)
	CreateJob(ctx context.Context, job models.RenderJob) (string, error)
	UpdateJob(ctx context.Context, jobID string, fields map[string]any) error
}

type artifactStore interface {
	Save(ctx context.Context, object string, data []byte, contentType string) (string, error)
}

type workflowTrigger interface {
	Trigger(ctx context.Context, argument any) (string, error)
}

type documentEngine interface {
	Generate(ctx context.Context, kind models.Kind, rec models.DocumentRecord, settings models.BrandSettings) (*render.Document, error)
}

// DocumentRenderer renders stored records to PDF and files the result in
// Cloud Storage, tracking every attempt as a render job.
type DocumentRenderer struct {
	records   recordStore
	artifacts artifactStore
	workflow  workflowTrigger // nil when no workflow is configured
	engine    documentEngine
	config    DocumentRendererConfig
}

func NewDocumentRenderer(ctx context.Context) (*DocumentRenderer, error) {
	config, err := LoadDocumentRendererConfig()
	if err != nil {
		return nil, err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	var workflow workflowTrigger
	if config.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
		workflow = trigger
	}

	engine := render.NewEngine(
		render.WithLogger(slog.Default()),
		render.WithResolver(render.NewImageFetcher(render.WithObjectOpener(gcp.NewGCSOpener(storageClient)))),
	)

	d := newDocumentRenderer(config,
		gcp.NewFirestoreStore(firestoreClient, config.SettingsCollection, config.SettingsDocument, config.JobsCollection),
		gcp.NewBucketStore(storageClient, config.OutputBucket),
		workflow,
		engine,
	)
	slog.Info("Document renderer initialized.", "outputBucket", config.OutputBucket, "workflowId", config.WorkflowID)
	return d, nil
}

func newDocumentRenderer(config DocumentRendererConfig, records recordStore, artifacts artifactStore, workflow workflowTrigger, engine documentEngine) *DocumentRenderer {
	return &DocumentRenderer{
		records:   records,
		artifacts: artifacts,
		workflow:  workflow,
		engine:    engine,
		config:    config,
	}
}

// ParseRequest validates a request and returns its document kind.
func ParseRequest(req *models.RenderRequest) (models.Kind, error) {
	if req == nil {
		return "", fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	kind, err := models.ParseKind(req.Kind)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		return "", fmt.Errorf("%w: documentId is required", ErrInvalidRequest)
	}
	return kind, nil
}

// Process renders one record and stores the PDF. The object path embeds the
// content hash, so re-rendering an unchanged record reuses the stored object.
func (d *DocumentRenderer) Process(ctx context.Context, req *models.RenderRequest) (*models.RenderResponse, error) {
	kind, err := ParseRequest(req)
	if err != nil {
		slog.Warn("Rejected render request.", "error", err)
		return nil, err
	}
	logCtx := slog.With("documentId", req.DocumentID, "kind", string(kind))
	if req.ExecutionID != "" {
		logCtx = logCtx.With("executionId", req.ExecutionID)
	}
	logCtx.Info("Processing render request.")

	jobID, err := d.records.CreateJob(ctx, models.RenderJob{
		DocumentID: req.DocumentID,
		Kind:       kind,
		Status:     models.JobStatusRendering,
	})
	if err != nil {
		logCtx.Error("Failed to create render job", "error", err)
		return nil, err
	}
	logCtx = logCtx.With("jobId", jobID)

	rec, err := d.records.LoadRecord(ctx, kind, req.DocumentID)
	if err != nil {
		return nil, d.handleError(ctx, logCtx, jobID, "failed to load record", err)
	}
	settings, err := d.records.LoadSettings(ctx)
	if err != nil {
		return nil, d.handleError(ctx, logCtx, jobID, "failed to load brand settings", err)
	}

	doc, err := d.engine.Generate(ctx, kind, rec, settings)
	if err != nil {
		return nil, d.handleError(ctx, logCtx, jobID, "failed to generate document", err)
	}
	for _, w := range doc.Warnings {
		logCtx.Warn("Rendered with image fallback.", "role", w.Role, "fallback", w.Fallback)
	}

	pdf := doc.PDF
	if d.config.OptimizeOutput {
		optimized, err := render.Optimize(pdf)
		if err != nil {
			logCtx.Warn("Optimization failed, storing unoptimized PDF.", "error", err)
		} else {
			logCtx.Info("PDF optimized.", "before", len(pdf), "after", len(optimized))
			pdf = optimized
		}
	}

	sum := sha256.Sum256(pdf)
	hash := hex.EncodeToString(sum[:])
	object := ArtifactPath(kind, rec, hash, doc.Filename)
	uri, err := d.artifacts.Save(ctx, object, pdf, "application/pdf")
	if err != nil {
		return nil, d.handleError(ctx, logCtx, jobID, "failed to store PDF", err)
	}
	logCtx.Info("PDF stored.", "gcsUri", uri, "pageCount", doc.PageCount())

	var executionName string
	if d.workflow != nil {
		executionName, err = d.workflow.Trigger(ctx, models.RenderCompletedEvent{
			DocumentID: req.DocumentID,
			Kind:       kind,
			JobID:      jobID,
			GCSUri:     uri,
			PageCount:  doc.PageCount(),
		})
		if err != nil {
			return nil, d.handleError(ctx, logCtx, jobID, "failed to trigger workflow execution", err)
		}
		logCtx.Info("Workflow triggered.", "execution", executionName)
	}

	fields := map[string]any{
		"status":    models.JobStatusRendered,
		"pageCount": doc.PageCount(),
		"filename":  doc.Filename,
		"gcsUri":    uri,
		"sha256":    hash,
	}
	if executionName != "" {
		fields["workflowExecutionId"] = executionName
	}
	if err := d.records.UpdateJob(ctx, jobID, fields); err != nil {
		return nil, d.handleError(ctx, logCtx, jobID, "failed to update status to RENDERED", err)
	}

	logCtx.Info("Render complete.")
	return &models.RenderResponse{
		Status:    models.JobStatusRendered,
		JobID:     jobID,
		GCSUri:    uri,
		Filename:  doc.Filename,
		PageCount: doc.PageCount(),
	}, nil
}

// ArtifactPath is rendered/{kind}/{id8}/{sha12}/{filename}.
func ArtifactPath(kind models.Kind, rec models.DocumentRecord, hash, filename string) string {
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return fmt.Sprintf("rendered/%s/%s/%s/%s", kind, rec.ShortID(), hash, filename)
}

func (d *DocumentRenderer) handleError(ctx context.Context, logCtx *slog.Logger, jobID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	fields := map[string]any{
		"status":       models.JobStatusFailed,
		"errorDetails": fullError,
	}
	if err := d.records.UpdateJob(ctx, jobID, fields); err != nil {
		logCtx.Error("CRITICAL: Failed to update render job to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}
