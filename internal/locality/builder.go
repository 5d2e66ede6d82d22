package locality

import (
	"strconv"
	"strings"
)

const (
	reportTitle = "HBase Region Compaction Alert:"
	reportRule  = "----------------------------------------"
)

// ReportBuilder accumulates the text report of one pass
type ReportBuilder struct {
	b      strings.Builder
	closed bool
}

// NewReportBuilder returns a builder with the header already written
func NewReportBuilder() *ReportBuilder {
	rb := &ReportBuilder{}
	rb.open()
	return rb
}

func (rb *ReportBuilder) open() {
	rb.line(reportRule)
	rb.line(reportTitle)
	rb.line(reportRule)
}

// AddFinding appends one degraded region. detail is the progress line and is
// skipped when empty.
func (rb *ReportBuilder) AddFinding(locality float64, server, name, detail string) {
	rb.line("Data Locality: " + FormatLocality(locality))
	rb.line("Region Server: " + server)
	rb.line("Name: " + name)
	if detail != "" {
		rb.line(detail)
	}
}

// Close writes the closing rule and returns the report text. Further calls
// return the same text.
func (rb *ReportBuilder) Close() string {
	if !rb.closed {
		rb.line(reportRule)
		rb.closed = true
	}
	return rb.b.String()
}

func (rb *ReportBuilder) line(s string) {
	rb.b.WriteString(s)
	rb.b.WriteByte('\n')
}

// FormatLocality prints the ratio with the shortest representation that round-trips
func FormatLocality(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func progressLine(progress string) string {
	return "Compaction Progress: " + progress
}
