package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/businessdocs/internal/gcp"
	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/Lllllllleong/businessdocs/internal/render"
	"github.com/Lllllllleong/businessdocs/internal/services"
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

	functions.HTTP("RenderDocument", renderDocument)
}

// main is required by the Go Functions Framework.
func main() {}

type processor interface {
	Process(ctx context.Context, req *models.RenderRequest) (*models.RenderResponse, error)
}

// renderDocument is the HTTP entry point.
func renderDocument(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		rendererInstance, initErr = services.NewDocumentRenderer(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	handle(rendererInstance, w, r)
}

func handle(p processor, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := p.Process(r.Context(), &req)
	if err != nil {
		// Process has already logged the error with its context.
		status := statusFor(err)
		http.Error(w, http.StatusText(status)+": "+err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// statusFor maps caller mistakes to 4xx so workflows do not retry them.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest), render.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, gcp.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
