package leaflet

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
)

// Builder turns the retained entities into a map description.
type Builder func(entities []domain.Entity) (Map, error)

// FileWriter renders entities to an HTML file.
// It implements pipeline.Loader.
type FileWriter struct {
	path   string
	title  string
	build  Builder
	logger *slog.Logger
}

// NewFileWriter creates a FileWriter that renders with build and writes to path.
func NewFileWriter(path, title string, build Builder, logger *slog.Logger) *FileWriter {
	return &FileWriter{path: path, title: title, build: build, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (w *FileWriter) Name() string { return "html" }

// Path is the output file location.
func (w *FileWriter) Path() string { return w.path }

// LoadBatch renders the entities and writes the page, replacing any existing file.
func (w *FileWriter) LoadBatch(ctx context.Context, entities []domain.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := w.build(entities)
	if err != nil {
		return fmt.Errorf("build map: %w", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, w.title, domain.Now(), m); err != nil {
		return err
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(w.path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // the map is meant to be opened by a browser
		return fmt.Errorf("write map: %w", err)
	}

	w.logger.Debug("map written", "path", w.path, "bytes", buf.Len(), "markers", countMarkers(m))
	return nil
}

func countMarkers(m Map) int {
	n := 0
	for _, l := range m.Layers {
		n += len(l.Markers)
	}
	return n
}
