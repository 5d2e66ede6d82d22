package compactor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/ppiankov/regioncompactor/internal/models"
)

// Result is the outcome of one compaction request
type Result struct {
	Region string
	Err    error
}

// OK reports whether the request was accepted
func (r Result) OK() bool {
	return r.Err == nil
}

// Succeeded returns a successful result for region
func Succeeded(region []byte) Result {
	return Result{Region: models.BinaryString(region)}
}

// Failed returns a failed result for region carrying err
func Failed(region []byte, err error) Result {
	return Result{Region: models.BinaryString(region), Err: err}
}

// Commander requests a major compaction of a single region
type Commander interface {
	TriggerMajorCompaction(ctx context.Context, region []byte) Result
}

type runFunc func(ctx context.Context, binary string, args []string, stdin string) ([]byte, error)

// Cluster names the HBase cluster the shell connects to. Empty fields leave
// the shell on the values of the local hbase-site.xml.
type Cluster struct {
	ZookeeperQuorum string
	ZNodeParent     string
}

// ShellCommander issues major_compact through the HBase shell in non-interactive mode
type ShellCommander struct {
	binary  string
	timeout time.Duration
	args    []string
	run     runFunc
}

// NewShellCommander creates a commander that runs binary ("hbase") once per request
// against cluster. timeout bounds each shell invocation, zero means no bound.
func NewShellCommander(binary string, timeout time.Duration, cluster Cluster) *ShellCommander {
	if strings.TrimSpace(binary) == "" {
		binary = "hbase"
	}
	return &ShellCommander{
		binary:  binary,
		timeout: timeout,
		args:    shellArgs(cluster),
		run:     runCommand,
	}
}

func shellArgs(cluster Cluster) []string {
	args := []string{"shell"}
	if q := strings.TrimSpace(cluster.ZookeeperQuorum); q != "" {
		args = append(args, "-Dhbase.zookeeper.quorum="+q)
	}
	if z := strings.TrimSpace(cluster.ZNodeParent); z != "" {
		args = append(args, "-Dzookeeper.znode.parent="+z)
	}
	return append(args, "-n")
}

// TriggerMajorCompaction asks the master to major compact region
func (c *ShellCommander) TriggerMajorCompaction(ctx context.Context, region []byte) Result {
	if len(region) == 0 {
		return Failed(region, fmt.Errorf("region name is empty"))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	script := majorCompactScript(region)
	out, err := c.run(ctx, c.binary, c.args, script)
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return Failed(region, fmt.Errorf("hbase shell major_compact failed: %w: %s", err, lastLine(detail)))
		}
		return Failed(region, fmt.Errorf("hbase shell major_compact failed: %w", err))
	}

	slog.Debug("major compaction requested",
		slog.String("region", models.BinaryString(region)),
	)
	return Succeeded(region)
}

// majorCompactScript quotes the region name as a Ruby string literal; BinaryString
// escapes quotes, backslashes and binary bytes as \xNN which Ruby decodes.
func majorCompactScript(region []byte) string {
	return fmt.Sprintf("major_compact \"%s\"\n", models.BinaryString(region))
}

func runCommand(ctx context.Context, binary string, args []string, stdin string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}

// DryRun records compaction requests without sending them
type DryRun struct {
	Requested []string
}

// TriggerMajorCompaction logs the request and reports success
func (d *DryRun) TriggerMajorCompaction(_ context.Context, region []byte) Result {
	name := models.BinaryString(region)
	d.Requested = append(d.Requested, name)
	slog.Info("dry run: major compaction not sent", slog.String("region", name))
	return Succeeded(region)
}
