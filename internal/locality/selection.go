package locality

import (
	"context"
	"fmt"

	"github.com/ppiankov/regioncompactor/internal/models"
)

// TableLister lists every table in the cluster
type TableLister interface {
	ListTables(ctx context.Context) ([]models.TableInfo, error)
}

// ExcludeFunc reports whether a table must be left out of the selection
type ExcludeFunc func(table string) bool

// ResolveSelection returns the tables to evaluate. An explicit list is used as
// given; otherwise every non-system table reported by lister is selected.
// exclude, when set, is applied in both cases.
func ResolveSelection(ctx context.Context, explicit []string, lister TableLister, exclude ExcludeFunc) (models.TableSelection, error) {
	var names []string
	if len(explicit) > 0 {
		names = explicit
	} else {
		tables, err := lister.ListTables(ctx)
		if err != nil {
			return models.TableSelection{}, fmt.Errorf("failed to list tables: %w", err)
		}
		names = make([]string, 0, len(tables))
		for _, table := range tables {
			if table.System {
				continue
			}
			names = append(names, table.Name)
		}
	}

	if exclude != nil {
		kept := make([]string, 0, len(names))
		for _, name := range names {
			if exclude(name) {
				continue
			}
			kept = append(kept, name)
		}
		names = kept
	}

	return models.NewTableSelection(names), nil
}
