package models

import (
	"fmt"
	"sort"
	"strings"
)

// RegionMetric is the load of a single region as reported by its region server
type RegionMetric struct {
	Name                []byte  // full region name: "<table>,<start key>,<region id>.<encoded>."
	Table               string  // owning table, "ns:qualifier" or bare qualifier in the default namespace
	Locality            float64 // fraction of HDFS blocks local to the serving host, 0.0-1.0
	StorefileSizeMB     uint64
	TotalCompactingKVs  uint64
	CurrentCompactedKVs uint64
}

// DisplayName renders the region name with non-printable bytes escaped
func (m RegionMetric) DisplayName() string {
	return BinaryString(m.Name)
}

// ServerEntry is one live region server and the regions it serves
type ServerEntry struct {
	Hostname string
	Regions  map[string]RegionMetric // keyed by string(RegionMetric.Name)
}

// ClusterSnapshot is the region load of every live server at one point in time.
// Servers keep the order reported by the master.
type ClusterSnapshot struct {
	Servers []ServerEntry
}

// RegionCount returns the number of regions across all servers
func (s *ClusterSnapshot) RegionCount() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, server := range s.Servers {
		total += len(server.Regions)
	}
	return total
}

// TableInfo is one entry of the cluster's table listing
type TableInfo struct {
	Name   string
	System bool
}

// TableSelection is the set of tables a pass evaluates
type TableSelection struct {
	tables map[string]struct{}
}

// NewTableSelection builds a selection from table names, ignoring blanks and duplicates
func NewTableSelection(names []string) TableSelection {
	sel := TableSelection{tables: make(map[string]struct{}, len(names))}
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		sel.tables[trimmed] = struct{}{}
	}
	return sel
}

// Contains reports whether table is selected
func (s TableSelection) Contains(table string) bool {
	_, ok := s.tables[table]
	return ok
}

// Len returns the number of selected tables
func (s TableSelection) Len() int {
	return len(s.tables)
}

// Names returns the selected tables in sorted order
func (s TableSelection) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegionState is the terminal classification of a degraded region within one pass
type RegionState string

const (
	StateMidCompaction        RegionState = "mid_compaction"
	StateRemediationRequested RegionState = "remediation_requested"
	StateAnomalous            RegionState = "anomalous"
)

// Finding is one degraded region recorded in a report
type Finding struct {
	Region           string      `json:"region"`
	Table            string      `json:"table"`
	Server           string      `json:"server"`
	Locality         float64     `json:"locality"`
	StorefileSizeMB  uint64      `json:"storefile_size_mb"`
	State            RegionState `json:"state"`
	Progress         string      `json:"progress,omitempty"`
	RemediationError string      `json:"remediation_error,omitempty"`
}

// Summary counts what a pass saw and did
type Summary struct {
	Servers              int `json:"servers"`
	RegionsScanned       int `json:"regions_scanned"`
	Degraded             int `json:"degraded"`
	MidCompaction        int `json:"mid_compaction"`
	CompactionsRequested int `json:"compactions_requested"`
	CompactionFailures   int `json:"compaction_failures"`
	Anomalous            int `json:"anomalous"`
}

// Report is the outcome of one evaluation pass
type Report struct {
	Text     string
	Findings []Finding
	Summary  Summary
}

// BinaryString escapes bytes outside printable ASCII, plus backslash and
// double quote, as \xNN.
func BinaryString(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= ' ' && c <= '~' && c != '\\' && c != '"' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\x%02X", c)
	}
	return sb.String()
}
