package models

import "time"

// Render job statuses as stored in Firestore.
const (
	JobStatusRendering = "RENDERING"
	JobStatusRendered  = "RENDERED"
	JobStatusFailed    = "FAILED"
)

// RenderJob tracks one generation of a document in Firestore.
type RenderJob struct {
	DocumentID          string    `firestore:"documentId,omitempty"`
	Kind                Kind      `firestore:"kind,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	Filename            string    `firestore:"filename,omitempty"`
	GCSUri              string    `firestore:"gcsUri,omitempty"`
	SHA256              string    `firestore:"sha256,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"`
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
	UpdatedAt           time.Time `firestore:"updatedAt,omitempty"`
}
