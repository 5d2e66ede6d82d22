package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ppiankov/regioncompactor/internal/models"
	"github.com/ppiankov/regioncompactor/pkg/config"
)

// MarshalJSON renders the document with indentation
func MarshalJSON(doc *models.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("report is nil")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the report as JSON to stdout and, if configured, report.json
func WriteJSON(doc *models.Document, cfg *config.Config) error {
	return writeJSON(doc, cfg, os.Stdout)
}

func writeJSON(doc *models.Document, cfg *config.Config, out io.Writer) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if out == nil {
		return fmt.Errorf("writer is nil")
	}

	data, err := MarshalJSON(doc)
	if err != nil {
		return err
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outputPath := filepath.Join(cfg.OutputDir, "report.json")
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write report.json: %w", err)
		}
		slog.Debug("report written", slog.String("path", outputPath))
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON report to output: %w", err)
	}
	return nil
}
