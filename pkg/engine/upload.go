package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/voltspan/feederflow/pkg/report"
	"github.com/voltspan/feederflow/pkg/storage"
)

// WriteArtifacts renders the study bundle into the output directory:
// node and segment CSVs, the JSON document, and the HTML report. When
// the configured destination is an s3:// URL the local bundle is
// uploaded afterwards.
func (e *Engine) WriteArtifacts(ctx context.Context, d report.Data) error {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if err := renderArtifact(filepath.Join(e.outputDir, "nodes.csv"), d.WriteNodesCSV); err != nil {
		return err
	}
	if err := renderArtifact(filepath.Join(e.outputDir, "segments.csv"), d.WriteEdgesCSV); err != nil {
		return err
	}
	if err := renderArtifact(filepath.Join(e.outputDir, "study.json"), d.WriteJSON); err != nil {
		return err
	}
	if err := report.WriteHTML(d, filepath.Join(e.outputDir, "study.html")); err != nil {
		return err
	}

	e.Logger.Info("Artifacts generated", "dir", e.outputDir)

	if e.s3Target != "" {
		if err := e.UploadArtifacts(ctx); err != nil {
			return fmt.Errorf("uploading artifacts: %w", err)
		}
	}
	return nil
}

func renderArtifact(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UploadArtifacts copies the contents of the output directory to the
// s3 target. Individual upload failures are logged and skipped so one
// bad object does not strand the rest of the bundle.
func (e *Engine) UploadArtifacts(ctx context.Context) error {
	if e.s3Target == "" {
		return nil
	}

	store, prefix, err := storage.Open(ctx, e.s3Target)
	if err != nil {
		return err
	}

	e.Logger.Info("Uploading artifacts", "target", e.s3Target)

	return filepath.Walk(e.outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(e.outputDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(filepath.Join(prefix, rel))

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if err := store.Put(ctx, key, data); err != nil {
			e.Logger.Warn("Failed to upload artifact", "file", rel, "error", err)
			return nil
		}
		return nil
	})
}
