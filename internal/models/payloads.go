package models

// These structs define the JSON payloads exchanged with the render functions.

// RenderRequest asks for one record to be rendered. It is the body of the
// HTTP function and the data of the Pub/Sub message behind the CloudEvent function.
type RenderRequest struct {
	Kind        string `json:"kind"`
	DocumentID  string `json:"documentId"`
	ExecutionID string `json:"executionId,omitempty"`
}

// RenderResponse is returned once the PDF is stored.
type RenderResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"jobId"`
	GCSUri    string `json:"gcsUri"`
	Filename  string `json:"filename"`
	PageCount int    `json:"pageCount"`
}

// RenderCompletedEvent is the argument passed to the optional post-render workflow.
type RenderCompletedEvent struct {
	DocumentID string `json:"documentId"`
	Kind       Kind   `json:"kind"`
	JobID      string `json:"jobId"`
	GCSUri     string `json:"gcsUri"`
	PageCount  int    `json:"pageCount"`
}

// Fixture is the input file of the local renderer: one settings block and
// any number of records.
type Fixture struct {
	Settings BrandSettings    `json:"settings"`
	Records  []DocumentRecord `json:"records"`
}
