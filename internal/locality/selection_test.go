package locality

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/regioncompactor/internal/models"
)

type fakeLister struct {
	tables []models.TableInfo
	err    error
	calls  int
}

func (f *fakeLister) ListTables(context.Context) ([]models.TableInfo, error) {
	f.calls++
	return f.tables, f.err
}

func TestResolveSelectionDefaultsToUserTables(t *testing.T) {
	lister := &fakeLister{tables: []models.TableInfo{
		{Name: "hbase:meta", System: true},
		{Name: "hbase:namespace", System: true},
		{Name: "t1"},
		{Name: "analytics:events"},
	}}

	sel, err := ResolveSelection(context.Background(), nil, lister, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"analytics:events", "t1"}, sel.Names())
	assert.Equal(t, 1, lister.calls)
}

func TestResolveSelectionExplicitSkipsListing(t *testing.T) {
	lister := &fakeLister{err: errors.New("must not be called")}

	sel, err := ResolveSelection(context.Background(), []string{"t1", " t2 "}, lister, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, sel.Names())
	assert.Equal(t, 0, lister.calls)
}

func TestResolveSelectionListingFailureIsFatal(t *testing.T) {
	lister := &fakeLister{err: errors.New("master unavailable")}

	_, err := ResolveSelection(context.Background(), nil, lister, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list tables")
	assert.Contains(t, err.Error(), "master unavailable")
}

func TestResolveSelectionAppliesExclude(t *testing.T) {
	lister := &fakeLister{tables: []models.TableInfo{{Name: "t1"}, {Name: "tmp_load"}, {Name: "t2"}}}
	exclude := func(table string) bool { return strings.HasPrefix(table, "tmp_") }

	sel, err := ResolveSelection(context.Background(), nil, lister, exclude)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, sel.Names())

	sel, err = ResolveSelection(context.Background(), []string{"tmp_load", "t3"}, lister, exclude)
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, sel.Names())
}

func TestDefaultSelectionExcludesDegradedSystemRegion(t *testing.T) {
	lister := &fakeLister{tables: []models.TableInfo{{Name: "hbase:meta", System: true}, {Name: "t1"}}}
	sel, err := ResolveSelection(context.Background(), nil, lister, nil)
	require.NoError(t, err)

	cmd := &fakeCommander{}
	report := NewEvaluator(cmd, 0.99).Evaluate(context.Background(),
		snapshotOf(server("rs1", region("hbase:meta,,1.1588230740.", "hbase:meta", 0.1, 10, 0, 0))),
		sel)

	assert.Empty(t, report.Findings)
	assert.Empty(t, cmd.calls)
	assert.NotContains(t, report.Text, "hbase:meta")
}
