package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/regioncompactor/internal/models"
	"github.com/ppiankov/regioncompactor/pkg/config"
)

// WriteText writes the report text to stdout and, if configured, report.txt.
func WriteText(doc *models.Document, cfg *config.Config) error {
	return writeText(doc, cfg, os.Stdout)
}

func writeText(doc *models.Document, cfg *config.Config, out io.Writer) error {
	if doc == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if out == nil {
		return fmt.Errorf("writer is nil")
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outputPath := filepath.Join(cfg.OutputDir, "report.txt")
		if err := os.WriteFile(outputPath, []byte(doc.Text), 0644); err != nil {
			return fmt.Errorf("failed to write report.txt: %w", err)
		}
	}

	if _, err := io.WriteString(out, doc.Text); err != nil {
		return fmt.Errorf("failed to write text report to output: %w", err)
	}

	return nil
}
