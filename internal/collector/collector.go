package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tsuna/gohbase"
	"github.com/tsuna/gohbase/hrpc"
	"github.com/tsuna/gohbase/pb"

	"github.com/ppiankov/regioncompactor/internal/models"
	"github.com/ppiankov/regioncompactor/pkg/config"
)

// Collector fetches the cluster state a pass is evaluated against
type Collector interface {
	Snapshot(ctx context.Context) (*models.ClusterSnapshot, error)
	ListTables(ctx context.Context) ([]models.TableInfo, error)
}

// adminClient is the part of gohbase.AdminClient the collector needs
type adminClient interface {
	ClusterStatus() (*pb.ClusterStatus, error)
	ListTableNames(t *hrpc.ListTableNames) ([]*pb.TableName, error)
}

// HBaseCollector reads cluster status and table names from the HBase master
type HBaseCollector struct {
	admin   adminClient
	retry   retryPolicy
	timeout time.Duration
}

// New creates a collector connected through the configured ZooKeeper quorum
func New(cfg *config.Config) (*HBaseCollector, error) {
	quorum := cfg.ZookeeperQuorum()
	if quorum == "" {
		return nil, fmt.Errorf("zookeeper hosts are required")
	}

	opts := []gohbase.Option{gohbase.ZookeeperRoot(cfg.HBaseZNode)}
	if cfg.RPCTimeout > 0 {
		opts = append(opts, gohbase.ZookeeperTimeout(cfg.RPCTimeout))
	}

	slog.Debug("connecting to hbase",
		slog.String("quorum", quorum),
		slog.String("znode", cfg.HBaseZNode),
	)

	return newWithAdmin(gohbase.NewAdminClient(quorum, opts...), cfg.RPCTimeout), nil
}

func newWithAdmin(admin adminClient, timeout time.Duration) *HBaseCollector {
	return &HBaseCollector{
		admin:   admin,
		retry:   defaultRetryPolicy(),
		timeout: timeout,
	}
}

// Snapshot returns the region load of every live region server
func (c *HBaseCollector) Snapshot(ctx context.Context) (*models.ClusterSnapshot, error) {
	ctx, cancel := withTotalTimeoutContext(ctx, c.timeout)
	defer cancel()

	var status *pb.ClusterStatus
	err := c.retry.do(ctx, "cluster_status", func() error {
		var callErr error
		status, callErr = callWithContext(ctx, c.admin.ClusterStatus)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster status: %w", err)
	}

	snapshot := buildSnapshot(status)
	slog.Debug("cluster status fetched",
		slog.Int("servers", len(snapshot.Servers)),
		slog.Int("regions", snapshot.RegionCount()),
	)
	return snapshot, nil
}

// ListTables returns every table known to the master
func (c *HBaseCollector) ListTables(ctx context.Context) ([]models.TableInfo, error) {
	ctx, cancel := withTotalTimeoutContext(ctx, c.timeout)
	defer cancel()

	var names []*pb.TableName
	err := c.retry.do(ctx, "list_table_names", func() error {
		req, reqErr := hrpc.NewListTableNames(ctx)
		if reqErr != nil {
			return reqErr
		}
		var callErr error
		names, callErr = callWithContext(ctx, func() ([]*pb.TableName, error) {
			return c.admin.ListTableNames(req)
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list table names: %w", err)
	}

	tables := make([]models.TableInfo, 0, len(names))
	for _, name := range names {
		namespace := string(name.GetNamespace())
		tables = append(tables, models.TableInfo{
			Name:   QualifiedTableName(namespace, string(name.GetQualifier())),
			System: namespace == SystemNamespace,
		})
	}
	return tables, nil
}

// callWithContext returns when call does or when ctx ends, whichever is first.
// The admin client builds some RPCs on context.Background, so an abandoned
// call finishes in the background and its result is dropped.
func callWithContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := call()
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, contextError(ctx)
	}
}

func buildSnapshot(status *pb.ClusterStatus) *models.ClusterSnapshot {
	snapshot := &models.ClusterSnapshot{}
	for _, live := range status.GetLiveServers() {
		entry := models.ServerEntry{
			Hostname: live.GetServer().GetHostName(),
			Regions:  make(map[string]models.RegionMetric),
		}

		for _, load := range live.GetServerLoad().GetRegionLoads() {
			name := load.GetRegionSpecifier().GetValue()
			table, err := TableFromRegionName(name)
			if err != nil {
				slog.Warn("skipping region with unparseable name",
					slog.String("region", models.BinaryString(name)),
					slog.String("server", entry.Hostname),
					slog.String("error", err.Error()),
				)
				continue
			}

			entry.Regions[string(name)] = models.RegionMetric{
				Name:                name,
				Table:               table,
				Locality:            widenLocality(load.GetDataLocality()),
				StorefileSizeMB:     uint64(load.GetStorefileSizeMB()),
				TotalCompactingKVs:  load.GetTotalCompactingKVs(),
				CurrentCompactedKVs: load.GetCurrentCompactedKVs(),
			}
		}

		snapshot.Servers = append(snapshot.Servers, entry)
	}
	return snapshot
}

// widenLocality converts the wire float32 so that 0.8 stays 0.8 instead of 0.800000011920929
func widenLocality(v float32) float64 {
	widened, err := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	if err != nil {
		return float64(v)
	}
	return widened
}
