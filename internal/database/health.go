package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

// HealthReport is what the health endpoint serves. A failed probe is
// reported here and never returned as an error.
type HealthReport struct {
	Healthy     bool          `json:"healthy"`
	State       string        `json:"state"`
	Error       string        `json:"error,omitempty"`
	Database    string        `json:"database"`
	Collections int64         `json:"collections"`
	Indexes     int64         `json:"indexes"`
	Objects     int64         `json:"objects"`
	DataSize    int64         `json:"data_size"`
	StorageSize int64         `json:"storage_size"`
	Latency     time.Duration `json:"latency_ns"`
}

type dbStats struct {
	Collections float64 `bson:"collections"`
	Indexes     float64 `bson:"indexes"`
	Objects     float64 `bson:"objects"`
	DataSize    float64 `bson:"dataSize"`
	StorageSize float64 `bson:"storageSize"`
}

// Health pings the primary and reads dbStats concurrently.
func (c *Context) Health(ctx context.Context) HealthReport {
	report := HealthReport{Database: c.dbName, State: c.State().String()}

	var stats dbStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		err := c.Ping(gctx)
		report.Latency = time.Since(start)
		return err
	})
	g.Go(func() error {
		return c.db.RunCommand(gctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&stats)
	})

	if err := g.Wait(); err != nil {
		report.Error = err.Error()
		c.Logger().Warn("database health check failed", "error", err)
		return report
	}

	report.Healthy = true
	report.Collections = int64(stats.Collections)
	report.Indexes = int64(stats.Indexes)
	report.Objects = int64(stats.Objects)
	report.DataSize = int64(stats.DataSize)
	report.StorageSize = int64(stats.StorageSize)
	return report
}
