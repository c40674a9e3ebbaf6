package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/Lllllllleong/businessdocs/internal/render"
	"github.com/Lllllllleong/businessdocs/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	rendererInstance *services.DocumentRenderer
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("RenderOnEvent", renderOnEvent)
}

// main is required by the Go Functions Framework.
func main() {}

// MessagePublishedData is the payload of a Pub/Sub CloudEvent.
type MessagePublishedData struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription"`
}

// PubSubMessage carries the base64 encoded RenderRequest; encoding/json
// decodes it into Data.
type PubSubMessage struct {
	Data       []byte            `json:"data"`
	Attributes map[string]string `json:"attributes,omitempty"`
	MessageID  string            `json:"messageId"`
}

type processor interface {
	Process(ctx context.Context, req *models.RenderRequest) (*models.RenderResponse, error)
}

// renderOnEvent is the CloudEvent entry point.
func renderOnEvent(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		rendererInstance, initErr = services.NewDocumentRenderer(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}
	return handleEvent(ctx, rendererInstance, e)
}

// handleEvent returns nil for requests that can never succeed so Pub/Sub
// does not redeliver them.
func handleEvent(ctx context.Context, p processor, e cloudevents.Event) error {
	req, err := decodeRequest(e)
	if err != nil {
		slog.Error("Dropping undecodable message", "eventId", e.ID(), "error", err, "data", string(e.Data()))
		return nil
	}

	if _, err := p.Process(ctx, req); err != nil {
		if errors.Is(err, services.ErrInvalidRequest) || render.IsInputError(err) {
			slog.Error("Dropping message with invalid input", "eventId", e.ID(), "documentId", req.DocumentID, "error", err)
			return nil
		}
		return err
	}
	return nil
}

func decodeRequest(e cloudevents.Event) (*models.RenderRequest, error) {
	var msg MessagePublishedData
	if err := json.Unmarshal(e.Data(), &msg); err != nil {
		return nil, fmt.Errorf("json.Unmarshal event: %w", err)
	}
	if len(msg.Message.Data) == 0 {
		return nil, errors.New("pub/sub message has no data")
	}
	var req models.RenderRequest
	if err := json.Unmarshal(msg.Message.Data, &req); err != nil {
		return nil, fmt.Errorf("json.Unmarshal message data: %w", err)
	}
	if req.ExecutionID == "" {
		req.ExecutionID = msg.Message.MessageID
	}
	return &req, nil
}
