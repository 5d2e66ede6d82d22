package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBinaryString(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "printable", input: []byte("t1,,1700000000000.abc."), want: "t1,,1700000000000.abc."},
		{name: "binary_start_key", input: []byte{'t', ',', 0x00, 0xff, ','}, want: `t,\x00\xFF,`},
		{name: "quote_and_backslash", input: []byte(`a"b\c`), want: `a\x22b\x5Cc`},
		{name: "empty", input: nil, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BinaryString(tc.input); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTableSelection(t *testing.T) {
	sel := NewTableSelection([]string{" t1", "ns:t2", "", "t1"})

	if sel.Len() != 2 {
		t.Fatalf("expected 2 tables, got %d", sel.Len())
	}
	if !sel.Contains("t1") || !sel.Contains("ns:t2") {
		t.Fatalf("expected t1 and ns:t2 to be selected, got %v", sel.Names())
	}
	if sel.Contains("t3") {
		t.Fatal("did not expect t3 to be selected")
	}
	if got := strings.Join(sel.Names(), ","); got != "ns:t2,t1" {
		t.Fatalf("expected sorted names, got %q", got)
	}

	var empty TableSelection
	if empty.Contains("t1") || empty.Len() != 0 {
		t.Fatal("expected zero selection to contain nothing")
	}
}

func TestClusterSnapshotRegionCount(t *testing.T) {
	var nilSnapshot *ClusterSnapshot
	if nilSnapshot.RegionCount() != 0 {
		t.Fatal("expected nil snapshot to have zero regions")
	}

	snapshot := &ClusterSnapshot{Servers: []ServerEntry{
		{Hostname: "rs1", Regions: map[string]RegionMetric{"a": {}, "b": {}}},
		{Hostname: "rs2", Regions: map[string]RegionMetric{"c": {}}},
	}}
	if got := snapshot.RegionCount(); got != 3 {
		t.Fatalf("expected 3 regions, got %d", got)
	}
}

func TestFindingJSONOmitsEmptyDetail(t *testing.T) {
	payload, err := json.Marshal(Finding{Region: "t1,,1.a.", State: StateRemediationRequested})
	if err != nil {
		t.Fatalf("failed to marshal finding: %v", err)
	}
	out := string(payload)
	for _, absent := range []string{"\"progress\"", "\"remediation_error\""} {
		if strings.Contains(out, absent) {
			t.Fatalf("expected %s to be omitted, got %s", absent, out)
		}
	}
	if !strings.Contains(out, "\"state\":\"remediation_requested\"") {
		t.Fatalf("expected state in payload, got %s", out)
	}
}
