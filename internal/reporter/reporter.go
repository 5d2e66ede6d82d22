package reporter

import (
	"fmt"
	"io"

	"github.com/ppiankov/regioncompactor/internal/models"
	"github.com/ppiankov/regioncompactor/pkg/config"
)

// Reporter interface for generating reports
type Reporter interface {
	Generate(doc *models.Document, out io.Writer) error
}

// reporter implements the Reporter interface
type reporter struct {
	config *config.Config
}

// New creates a new reporter instance
func New(cfg *config.Config) Reporter {
	return &reporter{
		config: cfg,
	}
}

// Generate prints the report in the configured format and, when an output
// directory is configured, writes it there as well.
func (r *reporter) Generate(doc *models.Document, out io.Writer) error {
	switch r.config.Format {
	case "json":
		return writeJSON(doc, r.config, out)
	case "text", "":
		return writeText(doc, r.config, out)
	default:
		return fmt.Errorf("unsupported format: %s", r.config.Format)
	}
}
