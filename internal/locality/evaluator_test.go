package locality

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/regioncompactor/internal/compactor"
	"github.com/ppiankov/regioncompactor/internal/models"
)

type fakeCommander struct {
	calls  []string
	failOn map[string]error
}

func (f *fakeCommander) TriggerMajorCompaction(_ context.Context, region []byte) compactor.Result {
	f.calls = append(f.calls, string(region))
	if err, ok := f.failOn[string(region)]; ok {
		return compactor.Failed(region, err)
	}
	return compactor.Succeeded(region)
}

func region(name, table string, locality float64, sizeMB, total, current uint64) models.RegionMetric {
	return models.RegionMetric{
		Name:                []byte(name),
		Table:               table,
		Locality:            locality,
		StorefileSizeMB:     sizeMB,
		TotalCompactingKVs:  total,
		CurrentCompactedKVs: current,
	}
}

func snapshotOf(servers ...models.ServerEntry) *models.ClusterSnapshot {
	return &models.ClusterSnapshot{Servers: servers}
}

func server(host string, regions ...models.RegionMetric) models.ServerEntry {
	entry := models.ServerEntry{Hostname: host, Regions: make(map[string]models.RegionMetric, len(regions))}
	for _, r := range regions {
		entry.Regions[string(r.Name)] = r
	}
	return entry
}

const emptyReport = "----------------------------------------\n" +
	"HBase Region Compaction Alert:\n" +
	"----------------------------------------\n" +
	"----------------------------------------\n"

func TestEvaluateRequestsCompactionWhenIdle(t *testing.T) {
	cmd := &fakeCommander{}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(server("rs1", region("t1,,1.a.", "t1", 0.80, 10, 50, 50))),
		models.NewTableSelection([]string{"t1"}))

	want := "----------------------------------------\n" +
		"HBase Region Compaction Alert:\n" +
		"----------------------------------------\n" +
		"Data Locality: 0.8\n" +
		"Region Server: rs1\n" +
		"Name: t1,,1.a.\n" +
		"----------------------------------------\n"
	assert.Equal(t, want, report.Text)
	assert.Equal(t, []string{"t1,,1.a."}, cmd.calls)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.StateRemediationRequested, report.Findings[0].State)
	assert.Empty(t, report.Findings[0].Progress)
	assert.NotContains(t, report.Text, "Compaction Progress")
	assert.Equal(t, models.Summary{Servers: 1, RegionsScanned: 1, Degraded: 1, CompactionsRequested: 1}, report.Summary)
}

func TestEvaluateRecordsProgressWhenCompacting(t *testing.T) {
	cmd := &fakeCommander{}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(server("rs1", region("t1,,1.a.", "t1", 0.80, 10, 50, 20))),
		models.NewTableSelection([]string{"t1"}))

	assert.Contains(t, report.Text, "Name: t1,,1.a.\nCompaction Progress: 60.00%\n")
	assert.Empty(t, cmd.calls)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.StateMidCompaction, report.Findings[0].State)
	assert.Equal(t, "60.00%", report.Findings[0].Progress)
	assert.Equal(t, 1, report.Summary.MidCompaction)
}

func TestEvaluateZeroCountersRouteToRemediation(t *testing.T) {
	cmd := &fakeCommander{}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(server("rs1", region("t1,,1.a.", "t1", 0.5, 3, 0, 0))),
		models.NewTableSelection([]string{"t1"}))

	assert.Equal(t, []string{"t1,,1.a."}, cmd.calls)
	assert.NotContains(t, report.Text, "Compaction Progress")
}

func TestEvaluateSkipsHealthyAndEmptyRegions(t *testing.T) {
	cmd := &fakeCommander{}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(server("rs1",
			region("t1,,1.healthy.", "t1", 0.99, 10, 0, 0),
			region("t1,,2.local.", "t1", 1.0, 10, 0, 0),
			region("t1,,3.empty.", "t1", 0.0, 0, 0, 0),
			region("t1,,4.empty-compacting.", "t1", 0.1, 0, 10, 2),
		)),
		models.NewTableSelection([]string{"t1"}))

	assert.Equal(t, emptyReport, report.Text)
	assert.Empty(t, cmd.calls)
	assert.Empty(t, report.Findings)
	assert.Equal(t, 4, report.Summary.RegionsScanned)
	assert.Equal(t, 0, report.Summary.Degraded)
}

func TestEvaluateIgnoresUnselectedTables(t *testing.T) {
	cmd := &fakeCommander{}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(server("rs1",
			region("hbase:meta,,1.1588230740.", "hbase:meta", 0.1, 10, 0, 0),
			region("t2,,1.b.", "t2", 0.1, 10, 0, 0),
		)),
		models.NewTableSelection([]string{"t1"}))

	assert.Equal(t, emptyReport, report.Text)
	assert.Empty(t, cmd.calls)
	assert.Equal(t, 0, report.Summary.RegionsScanned)
}

func TestEvaluateContinuesAfterCompactionFailure(t *testing.T) {
	cmd := &fakeCommander{failOn: map[string]error{"t1,,1.a.": errors.New("region not online")}}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(
			server("rs1", region("t1,,1.a.", "t1", 0.2, 10, 0, 0)),
			server("rs2", region("t1,,2.b.", "t1", 0.3, 10, 0, 0)),
		),
		models.NewTableSelection([]string{"t1"}))

	assert.Equal(t, []string{"t1,,1.a.", "t1,,2.b."}, cmd.calls)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, "region not online", report.Findings[0].RemediationError)
	assert.Empty(t, report.Findings[1].RemediationError)
	assert.Equal(t, 1, report.Summary.CompactionFailures)
	assert.Equal(t, 2, report.Summary.CompactionsRequested)
	assert.NotContains(t, report.Text, "region not online")
	assert.Contains(t, report.Text, "Region Server: rs1\nName: t1,,1.a.\n")
}

func TestEvaluateAnomalousCounters(t *testing.T) {
	cmd := &fakeCommander{}
	ev := NewEvaluator(cmd, 0.99)

	report := ev.Evaluate(context.Background(),
		snapshotOf(server("rs1", region("t1,,1.a.", "t1", 0.2, 10, 50, 60))),
		models.NewTableSelection([]string{"t1"}))

	assert.Empty(t, cmd.calls)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, models.StateAnomalous, report.Findings[0].State)
	assert.Contains(t, report.Text, "Compaction Progress: unknown (compacted 60 of 50)\n")
	assert.Equal(t, 1, report.Summary.Anomalous)
}

func TestEvaluateOrderingIsDeterministic(t *testing.T) {
	snap := snapshotOf(
		server("rs2",
			region("t1,c,3.c.", "t1", 0.1, 1, 0, 0),
			region("t1,a,1.a.", "t1", 0.1, 1, 4, 1),
			region("t1,b,2.b.", "t1", 0.1, 1, 0, 0),
		),
		server("rs1", region("t2,,1.d.", "t2", 0.5, 1, 0, 0)),
	)
	sel := models.NewTableSelection([]string{"t1", "t2"})

	first := NewEvaluator(&fakeCommander{}, 0.99).Evaluate(context.Background(), snap, sel)
	second := NewEvaluator(&fakeCommander{}, 0.99).Evaluate(context.Background(), snap, sel)

	assert.Equal(t, first.Text, second.Text)

	idxA := strings.Index(first.Text, "t1,a,1.a.")
	idxB := strings.Index(first.Text, "t1,b,2.b.")
	idxC := strings.Index(first.Text, "t1,c,3.c.")
	idxD := strings.Index(first.Text, "t2,,1.d.")
	assert.True(t, idxA < idxB && idxB < idxC, "regions within a server are ordered by name")
	assert.True(t, idxC < idxD, "servers keep snapshot order")
}

func TestEvaluateEachDegradedRegionAppearsOnce(t *testing.T) {
	snap := snapshotOf(
		server("rs1", region("t1,,1.a.", "t1", 0.1, 1, 0, 0), region("t1,m,2.b.", "t1", 0.95, 7, 9, 3)),
		server("rs2", region("t1,x,3.c.", "t1", 0.98, 2, 0, 0)),
	)

	report := NewEvaluator(&fakeCommander{}, 0.99).Evaluate(context.Background(), snap, models.NewTableSelection([]string{"t1"}))

	for _, name := range []string{"t1,,1.a.", "t1,m,2.b.", "t1,x,3.c."} {
		assert.Equal(t, 1, strings.Count(report.Text, "Name: "+name+"\n"), name)
	}
	assert.Len(t, report.Findings, 3)
}

func TestEvaluateNilSnapshot(t *testing.T) {
	report := NewEvaluator(&fakeCommander{}, 0.99).Evaluate(context.Background(), nil, models.TableSelection{})
	assert.Equal(t, emptyReport, report.Text)
	assert.NotNil(t, report.Findings)
}

func TestNewEvaluatorThresholdFallback(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: 0, want: DefaultThreshold},
		{in: -0.5, want: DefaultThreshold},
		{in: 1.5, want: DefaultThreshold},
		{in: 1, want: 1},
		{in: 0.75, want: 0.75},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NewEvaluator(&fakeCommander{}, tc.in).Threshold())
	}
}
