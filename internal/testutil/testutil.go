package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MongoConfig returns a configuration pointed at TEST_MONGO_URI, skipping
// the test when the variable is unset.
func MongoConfig(tb testing.TB) config.MongoConfig {
	tb.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		tb.Skip("set TEST_MONGO_URI to run store integration tests")
	}
	return config.MongoConfig{
		URI:                    uri,
		Database:               "scratch_test",
		ConnectTimeout:         5 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		MaxPoolSize:            10,
		MinPoolSize:            0,
		RetryWrites:            true,
		RetryReads:             true,
		RetryAttempts:          1,
		RetryDelay:             200 * time.Millisecond,
	}
}

// DB connects to a fresh database named after the test and drops it when
// the test finishes.
func DB(tb testing.TB, opts ...database.Option) *database.Context {
	tb.Helper()
	cfg := MongoConfig(tb)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	opts = append([]database.Option{
		database.WithLogger(Logger()),
		database.WithDatabaseName(dbName(tb)),
	}, opts...)
	db, err := database.New(ctx, cfg, opts...)
	if err != nil {
		tb.Fatalf("failed to connect to test database: %v", err)
	}

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := db.Database().Drop(ctx); err != nil {
			tb.Logf("failed to drop test database: %v", err)
		}
		_ = db.Close(ctx)
	})
	return db
}

// RequireTransactions skips unless the server is a replica set member or
// mongos, the only topologies that support multi-document transactions.
func RequireTransactions(tb testing.TB, db *database.Context) {
	tb.Helper()
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := db.Client().Database("admin").RunCommand(context.Background(), bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		tb.Fatalf("hello failed: %v", err)
	}
	if hello.SetName == "" && hello.Msg != "isdbgrid" {
		tb.Skip("transactions need a replica set")
	}
}

func dbName(tb testing.TB) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(tb.Name())
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("t_%s_%s", name, bson.NewObjectID().Hex()[16:])
}
