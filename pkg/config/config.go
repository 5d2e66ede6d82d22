package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration
type Config struct {
	// HBase settings
	ZookeeperHosts []string
	ZookeeperPort  int
	HBaseZNode     string
	RPCTimeout     time.Duration

	// Selection settings
	Tables            []string
	ExcludeTables     []string
	LocalityThreshold float64

	// Compaction settings
	HBaseShell     string
	ShellTimeout   time.Duration
	CompactionRate int
	DryRun         bool
	FailOnFindings bool

	// Slack settings
	SlackAlert    bool
	SlackToken    string
	SlackChannel  string
	SlackUserName string

	// Output settings
	OutputDir string
	Format    string

	// Publishing settings
	PushgatewayURL string
	ConfigMapName  string
	Namespace      string
	KubeConfig     string

	// Operational flags
	Verbose bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ZookeeperPort:     2181,
		HBaseZNode:        "/hbase-unsecure",
		RPCTimeout:        30 * time.Second,
		LocalityThreshold: 0.99,
		HBaseShell:        "hbase",
		ShellTimeout:      2 * time.Minute,
		CompactionRate:    0,
		SlackUserName:     "Auto Region Compaction",
		Format:            "text",
		Namespace:         "default",
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if len(normalizeList(c.ZookeeperHosts)) == 0 {
		return fmt.Errorf("--zookeeper-hosts is required")
	}
	if c.ZookeeperPort <= 0 || c.ZookeeperPort > 65535 {
		return fmt.Errorf("invalid --zookeeper-port %d: must be between 1 and 65535", c.ZookeeperPort)
	}
	if c.LocalityThreshold <= 0 || c.LocalityThreshold > 1 {
		return fmt.Errorf("invalid --locality-threshold %v: must be in (0, 1]", c.LocalityThreshold)
	}
	if c.CompactionRate < 0 {
		return fmt.Errorf("invalid --compaction-rate %d: must be >= 0", c.CompactionRate)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --format value %q: expected text or json", c.Format)
	}
	if c.SlackAlert {
		if strings.TrimSpace(c.SlackToken) == "" {
			return fmt.Errorf("--slack-token is required when --slack-alert is set")
		}
		if strings.TrimSpace(c.SlackChannel) == "" {
			return fmt.Errorf("--slack-channel is required when --slack-alert is set")
		}
	}
	return nil
}

// ZookeeperQuorum joins the hosts into a quorum string, adding the client port
// to hosts that do not carry one.
func (c *Config) ZookeeperQuorum() string {
	hosts := normalizeList(c.ZookeeperHosts)
	if len(hosts) == 0 {
		return ""
	}

	port := strconv.Itoa(c.ZookeeperPort)
	quorum := make([]string, 0, len(hosts))
	for _, host := range hosts {
		if _, _, err := net.SplitHostPort(host); err == nil {
			quorum = append(quorum, host)
			continue
		}
		quorum = append(quorum, net.JoinHostPort(host, port))
	}
	return strings.Join(quorum, ",")
}
