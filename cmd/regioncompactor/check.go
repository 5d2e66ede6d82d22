package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/regioncompactor/internal/alert"
	"github.com/ppiankov/regioncompactor/internal/collector"
	"github.com/ppiankov/regioncompactor/internal/compactor"
	"github.com/ppiankov/regioncompactor/internal/k8s"
	"github.com/ppiankov/regioncompactor/internal/locality"
	"github.com/ppiankov/regioncompactor/internal/metrics"
	"github.com/ppiankov/regioncompactor/internal/models"
	"github.com/ppiankov/regioncompactor/internal/reporter"
	"github.com/ppiankov/regioncompactor/pkg/config"
	"github.com/spf13/cobra"
)

// checkEnv holds the collaborators of one pass
type checkEnv struct {
	collector func(cfg *config.Config) (collector.Collector, error)
	commander func(cfg *config.Config) compactor.Commander
	notifier  func(cfg *config.Config) (alert.Notifier, error)
	publisher func(cfg *config.Config) (*k8s.Publisher, error)
	hostname  func() (string, error)
	out       io.Writer
}

func defaultCheckEnv() checkEnv {
	return checkEnv{
		collector: func(cfg *config.Config) (collector.Collector, error) {
			return collector.New(cfg)
		},
		commander: func(cfg *config.Config) compactor.Commander {
			if cfg.DryRun {
				return &compactor.DryRun{}
			}
			return compactor.NewShellCommander(cfg.HBaseShell, cfg.ShellTimeout, compactor.Cluster{
				ZookeeperQuorum: cfg.ZookeeperQuorum(),
				ZNodeParent:     cfg.HBaseZNode,
			})
		},
		notifier: func(cfg *config.Config) (alert.Notifier, error) {
			return alert.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel, cfg.SlackUserName)
		},
		publisher: func(cfg *config.Config) (*k8s.Publisher, error) {
			clientset, err := k8s.NewClientset(cfg.KubeConfig)
			if err != nil {
				return nil, err
			}
			return k8s.NewPublisher(clientset, cfg.Namespace, cfg.ConfigMapName), nil
		},
		hostname: os.Hostname,
		out:      os.Stdout,
	}
}

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	var configPath string
	var rpcTimeoutStr string
	var shellTimeoutStr string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check region data locality and compact degraded regions",
		Long: `Run one pass over the live region servers: every region of a selected
table whose data locality is below the threshold is reported. Regions that
are compacting are reported with their progress; the others get a major
compaction request.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, path, err := loadConfigFile(configPath)
			if err != nil {
				return err
			}
			if fileCfg != nil {
				slog.Debug("loaded config file", slog.String("path", path))
				if err := fileCfg.Apply(cfg, cmd.Flags().Changed); err != nil {
					return err
				}
			}

			if cmd.Flags().Changed("rpc-timeout") {
				cfg.RPCTimeout, err = config.ParseDuration(rpcTimeoutStr)
				if err != nil {
					return fmt.Errorf("invalid --rpc-timeout duration: %w", err)
				}
			}
			if cmd.Flags().Changed("shell-timeout") {
				cfg.ShellTimeout, err = config.ParseDuration(shellTimeoutStr)
				if err != nil {
					return fmt.Errorf("invalid --shell-timeout duration: %w", err)
				}
			}

			cfg.Verbose = verbose
			cfg.Normalize()
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cfg, defaultCheckEnv())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: .regioncompactor.yaml in cwd or home)")

	// HBase flags
	cmd.Flags().StringSliceVar(&cfg.ZookeeperHosts, "zookeeper-hosts", nil, "ZooKeeper hosts, comma separated (required)")
	cmd.Flags().IntVar(&cfg.ZookeeperPort, "zookeeper-port", cfg.ZookeeperPort, "ZooKeeper client port")
	cmd.Flags().StringVar(&cfg.HBaseZNode, "hbase-znode", cfg.HBaseZNode, "HBase parent znode")
	cmd.Flags().StringVar(&rpcTimeoutStr, "rpc-timeout", "30s", "Timeout for cluster status and table listing (e.g., 30s, 2m)")

	// Selection flags
	cmd.Flags().StringSliceVar(&cfg.Tables, "tables", nil, "Tables to check, comma separated (default: all non-system tables)")
	cmd.Flags().StringSliceVar(&cfg.ExcludeTables, "exclude-tables", nil, "Table glob patterns to skip, case-sensitive (e.g., analytics:*, tmp_*)")
	cmd.Flags().Float64Var(&cfg.LocalityThreshold, "locality-threshold", cfg.LocalityThreshold, "Data locality below which a region is degraded, in (0, 1]")

	// Compaction flags
	cmd.Flags().StringVar(&cfg.HBaseShell, "hbase-shell", cfg.HBaseShell, "hbase executable used to request compactions")
	cmd.Flags().StringVar(&shellTimeoutStr, "shell-timeout", "2m", "Timeout for one compaction request")
	cmd.Flags().IntVar(&cfg.CompactionRate, "compaction-rate", cfg.CompactionRate, "Compaction requests per second (0 = unlimited)")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Report degraded regions without requesting compactions")

	// Slack flags
	cmd.Flags().BoolVar(&cfg.SlackAlert, "slack-alert", false, "Post the report to Slack")
	cmd.Flags().StringVar(&cfg.SlackToken, "slack-token", "", "Slack bot token")
	cmd.Flags().StringVar(&cfg.SlackChannel, "slack-channel", "", "Slack channel")
	cmd.Flags().StringVar(&cfg.SlackUserName, "slack-username", cfg.SlackUserName, "Slack display name")

	// Output flags
	cmd.Flags().StringVar(&cfg.OutputDir, "output", "", "Directory to also write the report to")
	cmd.Flags().StringVar(&cfg.Format, "format", cfg.Format, "Output format (text, json)")
	cmd.Flags().BoolVar(&cfg.FailOnFindings, "fail-on-findings", false, "Exit with code 6 when degraded regions are found")

	// Publishing flags
	cmd.Flags().StringVar(&cfg.PushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway URL for run metrics")
	cmd.Flags().StringVar(&cfg.ConfigMapName, "configmap", "", "ConfigMap to publish the last report into")
	cmd.Flags().StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "Kubernetes namespace of --configmap")
	cmd.Flags().StringVar(&cfg.KubeConfig, "kubeconfig", "", "Path to kubeconfig (default: in-cluster, then ~/.kube/config)")

	return cmd
}

func loadConfigFile(path string) (*config.FileConfig, string, error) {
	if path != "" {
		fc, err := config.LoadFile(path)
		return fc, path, err
	}
	return config.AutoLoadFile()
}

// runCheck executes one evaluation pass
func runCheck(ctx context.Context, cfg *config.Config, env checkEnv) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()
	runID := uuid.NewString()
	logger := slog.With(slog.String("run_id", runID))

	col, err := env.collector(cfg)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	selection, err := locality.ResolveSelection(ctx, cfg.Tables, col, cfg.IsTableExcluded)
	if err != nil {
		return err
	}
	if selection.Len() == 0 {
		logger.Warn("no tables selected")
	}

	snapshot, err := col.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch cluster snapshot: %w", err)
	}
	logger.Debug("cluster snapshot fetched",
		slog.Int("servers", len(snapshot.Servers)),
		slog.Int("regions", snapshot.RegionCount()),
		slog.Int("tables", selection.Len()),
	)

	commander := compactor.NewRateLimited(env.commander(cfg), cfg.CompactionRate)
	report := locality.NewEvaluator(commander, cfg.LocalityThreshold).Evaluate(ctx, snapshot, selection)

	elapsed := time.Since(startTime)
	doc := buildDocument(cfg, runID, selection, report, startTime, elapsed)

	logger.Warn("compaction report",
		slog.Int("findings", len(report.Findings)),
		slog.String("report", report.Text),
	)
	if err := reporter.New(cfg).Generate(doc, env.out); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if alert.ShouldAlert(cfg.SlackAlert) {
		notifier, err := env.notifier(cfg)
		if err != nil {
			logger.Error("failed to create slack notifier", slog.String("error", err.Error()))
		} else {
			_ = alert.Deliver(ctx, true, notifier, report.Text)
		}
	}

	if cfg.PushgatewayURL != "" {
		pushMetrics(ctx, cfg, env, report.Summary, elapsed)
	}

	if cfg.ConfigMapName != "" {
		publishReport(ctx, cfg, env, doc)
	}

	if cfg.FailOnFindings && len(report.Findings) > 0 {
		return &FindingsError{Count: len(report.Findings)}
	}
	return nil
}

func pushMetrics(ctx context.Context, cfg *config.Config, env checkEnv, summary models.Summary, elapsed time.Duration) {
	recorder := metrics.NewRecorder()
	recorder.Observe(summary, elapsed)

	instance, err := env.hostname()
	if err != nil {
		slog.Warn("failed to resolve hostname for metrics", slog.String("error", err.Error()))
	}
	if err := recorder.Push(ctx, cfg.PushgatewayURL, instance); err != nil {
		slog.Warn("metrics push failed", slog.String("error", err.Error()))
	}
}

func publishReport(ctx context.Context, cfg *config.Config, env checkEnv, doc *models.Document) {
	publisher, err := env.publisher(cfg)
	if err != nil {
		slog.Warn("failed to connect to kubernetes", slog.String("error", err.Error()))
		return
	}
	data, err := reporter.MarshalJSON(doc)
	if err != nil {
		slog.Warn("failed to encode report", slog.String("error", err.Error()))
		return
	}
	if err := publisher.Publish(ctx, doc.Text, data); err != nil {
		slog.Warn("report publication failed",
			slog.String("configmap", cfg.ConfigMapName),
			slog.String("error", err.Error()),
		)
	}
}

// buildDocument constructs the JSON form of the report
func buildDocument(
	cfg *config.Config,
	runID string,
	selection models.TableSelection,
	report *models.Report,
	startTime time.Time,
	elapsed time.Duration,
) *models.Document {
	generatedAt := startTime.UTC()
	return &models.Document{
		Tool:      "regioncompactor",
		Version:   version,
		Timestamp: generatedAt.Format(time.RFC3339),
		Metadata: models.Metadata{
			RunID:             runID,
			GeneratedAt:       generatedAt,
			ZookeeperQuorum:   cfg.ZookeeperQuorum(),
			LocalityThreshold: cfg.LocalityThreshold,
			Tables:            selection.Names(),
			DryRun:            cfg.DryRun,
			Duration:          elapsed.Round(time.Millisecond).String(),
		},
		Summary:  report.Summary,
		Findings: report.Findings,
		Text:     report.Text,
	}
}
