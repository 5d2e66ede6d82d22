package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileYAML is the canonical config filename.
	DefaultConfigFileYAML = ".regioncompactor.yaml"
	// DefaultConfigFileYML is a compatible alternate config filename.
	DefaultConfigFileYML = ".regioncompactor.yml"
)

// FileConfig represents values loaded from a .regioncompactor.yaml file.
type FileConfig struct {
	ZookeeperHosts    []string        `yaml:"zookeeper_hosts"`
	ZookeeperPort     *int            `yaml:"zookeeper_port"`
	HBaseZNode        string          `yaml:"hbase_znode"`
	RPCTimeout        string          `yaml:"rpc_timeout"`
	Tables            []string        `yaml:"tables"`
	ExcludeTables     []string        `yaml:"exclude_tables"`
	LocalityThreshold *float64        `yaml:"locality_threshold"`
	HBaseShell        string          `yaml:"hbase_shell"`
	ShellTimeout      string          `yaml:"shell_timeout"`
	CompactionRate    *int            `yaml:"compaction_rate"`
	Slack             SlackFileConfig `yaml:"slack"`
	PushgatewayURL    string          `yaml:"pushgateway_url"`
}

// SlackFileConfig is the slack section of the config file
type SlackFileConfig struct {
	Alert    *bool  `yaml:"alert"`
	Token    string `yaml:"token"`
	Channel  string `yaml:"channel"`
	UserName string `yaml:"username"`
}

// Normalize trims and removes empty items from list fields.
func (fc *FileConfig) Normalize() {
	if fc == nil {
		return
	}
	fc.ZookeeperHosts = normalizeList(fc.ZookeeperHosts)
	fc.Tables = normalizeList(fc.Tables)
	fc.ExcludeTables = normalizeList(fc.ExcludeTables)
	fc.HBaseZNode = strings.TrimSpace(fc.HBaseZNode)
	fc.RPCTimeout = strings.TrimSpace(fc.RPCTimeout)
	fc.HBaseShell = strings.TrimSpace(fc.HBaseShell)
	fc.ShellTimeout = strings.TrimSpace(fc.ShellTimeout)
	fc.PushgatewayURL = strings.TrimSpace(fc.PushgatewayURL)
	fc.Slack.Token = strings.TrimSpace(fc.Slack.Token)
	fc.Slack.Channel = strings.TrimSpace(fc.Slack.Channel)
	fc.Slack.UserName = strings.TrimSpace(fc.Slack.UserName)
}

// AutoLoadFile discovers and loads the first available config file.
func AutoLoadFile() (*FileConfig, string, error) {
	candidates := []string{
		DefaultConfigFileYAML,
		DefaultConfigFileYML,
	}

	if homeDir, err := os.UserHomeDir(); err == nil && strings.TrimSpace(homeDir) != "" {
		candidates = append(candidates,
			filepath.Join(homeDir, DefaultConfigFileYAML),
			filepath.Join(homeDir, DefaultConfigFileYML),
		)
	}

	return LoadFirstExistingFile(candidates)
}

// LoadFirstExistingFile loads the first config file that exists in paths.
func LoadFirstExistingFile(paths []string) (*FileConfig, string, error) {
	for _, path := range paths {
		candidate := strings.TrimSpace(path)
		if candidate == "" {
			continue
		}

		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to access config file %q: %w", candidate, err)
		}
		if info.IsDir() {
			return nil, "", fmt.Errorf("config path %q is a directory, expected a file", candidate)
		}

		cfg, err := LoadFile(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}

	return nil, "", nil
}

// LoadFile loads config values from a specific YAML file path.
func LoadFile(path string) (*FileConfig, error) {
	filename := strings.TrimSpace(path)
	if filename == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", filename, err)
	}

	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", filename, err)
	}

	cfg.Normalize()
	return cfg, nil
}

// IsSet reports whether a setting was given explicitly and must not be overridden
type IsSet func(name string) bool

// Apply copies file values into cfg for every setting not explicitly set.
// name keys match the command line flag names.
func (fc *FileConfig) Apply(cfg *Config, explicit IsSet) error {
	if fc == nil || cfg == nil {
		return nil
	}
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	if len(fc.ZookeeperHosts) > 0 && !explicit("zookeeper-hosts") {
		cfg.ZookeeperHosts = fc.ZookeeperHosts
	}
	if fc.ZookeeperPort != nil && !explicit("zookeeper-port") {
		cfg.ZookeeperPort = *fc.ZookeeperPort
	}
	if fc.HBaseZNode != "" && !explicit("hbase-znode") {
		cfg.HBaseZNode = fc.HBaseZNode
	}
	if fc.RPCTimeout != "" && !explicit("rpc-timeout") {
		d, err := ParseDuration(fc.RPCTimeout)
		if err != nil {
			return fmt.Errorf("invalid rpc_timeout in config file: %w", err)
		}
		cfg.RPCTimeout = d
	}
	if len(fc.Tables) > 0 && !explicit("tables") {
		cfg.Tables = fc.Tables
	}
	if len(fc.ExcludeTables) > 0 && !explicit("exclude-tables") {
		cfg.ExcludeTables = fc.ExcludeTables
	}
	if fc.LocalityThreshold != nil && !explicit("locality-threshold") {
		cfg.LocalityThreshold = *fc.LocalityThreshold
	}
	if fc.HBaseShell != "" && !explicit("hbase-shell") {
		cfg.HBaseShell = fc.HBaseShell
	}
	if fc.ShellTimeout != "" && !explicit("shell-timeout") {
		d, err := ParseDuration(fc.ShellTimeout)
		if err != nil {
			return fmt.Errorf("invalid shell_timeout in config file: %w", err)
		}
		cfg.ShellTimeout = d
	}
	if fc.CompactionRate != nil && !explicit("compaction-rate") {
		cfg.CompactionRate = *fc.CompactionRate
	}
	if fc.Slack.Alert != nil && !explicit("slack-alert") {
		cfg.SlackAlert = *fc.Slack.Alert
	}
	if fc.Slack.Token != "" && !explicit("slack-token") {
		cfg.SlackToken = fc.Slack.Token
	}
	if fc.Slack.Channel != "" && !explicit("slack-channel") {
		cfg.SlackChannel = fc.Slack.Channel
	}
	if fc.Slack.UserName != "" && !explicit("slack-username") {
		cfg.SlackUserName = fc.Slack.UserName
	}
	if fc.PushgatewayURL != "" && !explicit("pushgateway-url") {
		cfg.PushgatewayURL = fc.PushgatewayURL
	}

	return nil
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
