package locality

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ppiankov/regioncompactor/internal/compactor"
	"github.com/ppiankov/regioncompactor/internal/models"
)

// DefaultThreshold is the locality ratio below which a region is degraded
const DefaultThreshold = 0.99

// Evaluator classifies regions of a snapshot and requests major compactions
// for degraded regions that are not already compacting.
type Evaluator struct {
	commander compactor.Commander
	threshold float64
}

// NewEvaluator creates an evaluator. A threshold outside (0, 1] falls back to DefaultThreshold.
func NewEvaluator(commander compactor.Commander, threshold float64) *Evaluator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Evaluator{
		commander: commander,
		threshold: threshold,
	}
}

// Threshold returns the locality threshold in use
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate runs one sequential pass over snapshot. Servers are visited in
// snapshot order and regions in name order. Compaction failures are logged and
// never stop the pass. ctx is only handed to the commander.
func (e *Evaluator) Evaluate(ctx context.Context, snapshot *models.ClusterSnapshot, selection models.TableSelection) *models.Report {
	rb := NewReportBuilder()
	report := &models.Report{Findings: []models.Finding{}}

	if snapshot != nil {
		for _, server := range snapshot.Servers {
			report.Summary.Servers++
			for _, name := range sortedRegionNames(server.Regions) {
				e.evaluateRegion(ctx, server.Hostname, server.Regions[name], selection, rb, report)
			}
		}
	}

	report.Text = rb.Close()
	return report
}

func (e *Evaluator) evaluateRegion(
	ctx context.Context,
	hostname string,
	region models.RegionMetric,
	selection models.TableSelection,
	rb *ReportBuilder,
	report *models.Report,
) {
	if !selection.Contains(region.Table) {
		return
	}
	report.Summary.RegionsScanned++

	displayName := region.DisplayName()
	slog.Debug("region evaluated",
		slog.String("region", displayName),
		slog.Float64("locality", region.Locality),
		slog.String("server", hostname),
	)

	if region.Locality >= e.threshold || region.StorefileSizeMB == 0 {
		return
	}
	report.Summary.Degraded++

	finding := models.Finding{
		Region:          displayName,
		Table:           region.Table,
		Server:          hostname,
		Locality:        region.Locality,
		StorefileSizeMB: region.StorefileSizeMB,
	}

	var detail string
	switch {
	case region.TotalCompactingKVs == region.CurrentCompactedKVs:
		finding.State = models.StateRemediationRequested
		report.Summary.CompactionsRequested++
		res := e.commander.TriggerMajorCompaction(ctx, region.Name)
		if !res.OK() {
			report.Summary.CompactionFailures++
			finding.RemediationError = res.Err.Error()
			slog.Error("error running major compaction on region",
				slog.String("region", res.Region),
				slog.String("server", hostname),
				slog.String("error", res.Err.Error()),
			)
		}

	default:
		progress, err := CompactionProgress(region.TotalCompactingKVs, region.CurrentCompactedKVs)
		if err != nil {
			finding.State = models.StateAnomalous
			report.Summary.Anomalous++
			detail = progressLine(fmt.Sprintf("unknown (compacted %d of %d)",
				region.CurrentCompactedKVs, region.TotalCompactingKVs))
			slog.Warn("region reports inconsistent compaction counters",
				slog.String("region", displayName),
				slog.Uint64("total_compacting_kvs", region.TotalCompactingKVs),
				slog.Uint64("current_compacted_kvs", region.CurrentCompactedKVs),
			)
			break
		}
		finding.State = models.StateMidCompaction
		finding.Progress = FormatProgress(progress)
		report.Summary.MidCompaction++
		detail = progressLine(finding.Progress)
	}

	rb.AddFinding(region.Locality, hostname, displayName, detail)
	report.Findings = append(report.Findings, finding)
}

func sortedRegionNames(regions map[string]models.RegionMetric) []string {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
