// Command render-local renders every record of a fixture file to PDF without
// any cloud dependency.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/Lllllllleong/businessdocs/internal/render"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	in := flag.String("in", "fixtures.json", "fixture file with settings and records")
	out := flag.String("out", "out", "output directory")
	concurrency := flag.Int("concurrency", 4, "documents rendered in parallel")
	verify := flag.Bool("verify", true, "validate every PDF with pdfcpu")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *in, *out, *concurrency, *verify); err != nil {
		slog.Error("Render failed", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*models.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var fx models.Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &fx, nil
}

// prepareRecords normalizes every kind and rejects records whose output
// files would overwrite each other.
func prepareRecords(records []models.DocumentRecord) error {
	seen := make(map[string]int, len(records))
	for i := range records {
		rec := &records[i]
		if rec.Kind == "" {
			return fmt.Errorf("record %d (%s): kind is required", i, rec.ID)
		}
		if err := rec.NormalizeKind(); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, rec.ID, err)
		}
		name := render.Filename(rec.Kind, *rec)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("records %d and %d both render to %s", prev, i, name)
		}
		seen[name] = i
	}
	return nil
}

func run(ctx context.Context, in, out string, concurrency int, verify bool) error {
	fx, err := loadFixture(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := prepareRecords(fx.Records); err != nil {
		return err
	}

	engine := render.NewEngine(render.WithVerification(verify))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(concurrency, 1))
	for i, rec := range fx.Records {
		eg.Go(func() error {
			doc, err := engine.Generate(gctx, rec.Kind, rec, fx.Settings)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			path := filepath.Join(out, doc.Filename)
			if err := os.WriteFile(path, doc.PDF, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			slog.Info("Rendered document.", "documentId", rec.ID, "kind", string(rec.Kind), "path", path, "pages", doc.PageCount(), "warnings", len(doc.Warnings))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	slog.Info("All documents rendered.", "count", len(fx.Records), "out", out)
	return nil
}
