package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("document not found")

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreStore reads business records and brand settings and tracks
// render jobs.
type FirestoreStore struct {
	client             *firestore.Client
	settingsCollection string
	settingsDocument   string
	jobsCollection     string
}

func NewFirestoreStore(client *firestore.Client, settingsCollection, settingsDocument, jobsCollection string) *FirestoreStore {
	return &FirestoreStore{
		client:             client,
		settingsCollection: settingsCollection,
		settingsDocument:   settingsDocument,
		jobsCollection:     jobsCollection,
	}
}

// LoadRecord reads a record from the collection of its kind. The document
// ID becomes the record ID when the stored data carries none.
func (s *FirestoreStore) LoadRecord(ctx context.Context, kind models.Kind, id string) (models.DocumentRecord, error) {
	var rec models.DocumentRecord
	snap, err := s.client.Collection(kind.Collection()).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return rec, fmt.Errorf("%s/%s: %w", kind.Collection(), id, ErrNotFound)
		}
		return rec, fmt.Errorf("failed to read %s/%s: %w", kind.Collection(), id, err)
	}
	if err := snap.DataTo(&rec); err != nil {
		return rec, fmt.Errorf("failed to decode %s/%s: %w", kind.Collection(), id, err)
	}
	if rec.ID == "" {
		rec.ID = snap.Ref.ID
	}
	if err := rec.NormalizeKind(); err != nil {
		return rec, fmt.Errorf("failed to decode %s/%s: %w", kind.Collection(), id, err)
	}
	if rec.Kind == "" {
		rec.Kind = kind
	}
	return rec, nil
}

// LoadSettings reads the brand settings document. A missing document yields
// empty settings, which render with the engine defaults.
func (s *FirestoreStore) LoadSettings(ctx context.Context) (models.BrandSettings, error) {
	var settings models.BrandSettings
	snap, err := s.client.Collection(s.settingsCollection).Doc(s.settingsDocument).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			slog.Warn("Brand settings not found, using defaults.", "collection", s.settingsCollection, "document", s.settingsDocument)
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read brand settings: %w", err)
	}
	if err := snap.DataTo(&settings); err != nil {
		return settings, fmt.Errorf("failed to decode brand settings: %w", err)
	}
	// Terms are stored either as one string or as an array.
	terms, err := models.TermsFromValue(snap.Data()["legalTerms"])
	if err != nil {
		return settings, fmt.Errorf("failed to decode legalTerms: %w", err)
	}
	settings.LegalTerms = terms
	return settings, nil
}

// CreateJob stores a new render job under a random ID and returns the ID.
func (s *FirestoreStore) CreateJob(ctx context.Context, job models.RenderJob) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	job.CreatedAt, job.UpdatedAt = now, now
	if _, err := s.client.Collection(s.jobsCollection).Doc(id).Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create render job: %w", err)
	}
	return id, nil
}

// UpdateJob sets the given fields on a render job and bumps updatedAt.
func (s *FirestoreStore) UpdateJob(ctx context.Context, jobID string, fields map[string]any) error {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	updates := make([]firestore.Update, 0, len(fields)+1)
	for _, p := range paths {
		updates = append(updates, firestore.Update{Path: p, Value: fields[p]})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	if _, err := s.client.Collection(s.jobsCollection).Doc(jobID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update render job %s: %w", jobID, err)
	}
	return nil
}
