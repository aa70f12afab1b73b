package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/config"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// State tracks startup progress. It only ever moves forward.
type State int32

const (
	StateUninitialized State = iota
	StateConnected
	StateProvisioning
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnected:
		return "connected"
	case StateProvisioning:
		return "provisioning"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var ErrClosed = errors.New("database context is closed")

// Observer receives one call per store operation. The metrics collector
// implements it.
type Observer interface {
	ObserveOperation(collection, operation string, took time.Duration, err error)
	ObserveIndex(collection, index string, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, time.Duration, error) {}
func (noopObserver) ObserveIndex(string, string, error)                    {}

type Option func(*Context)

func WithObserver(o Observer) Option {
	return func(c *Context) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger pins the context's logger. Without it the context follows the
// process default, including one installed after New returns.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDatabaseName overrides the configured database name, typically with
// the environment-qualified one.
func WithDatabaseName(name string) Option {
	return func(c *Context) {
		if name != "" {
			c.dbName = name
		}
	}
}

// Context owns the process-wide client. It is safe for concurrent use;
// collection handles obtained from it are cheap and need no locking.
type Context struct {
	cfg      config.MongoConfig
	dbName   string
	client   *mongo.Client
	db       *mongo.Database
	observer Observer
	logger   *slog.Logger
	state    atomic.Int32
}

// New validates cfg, connects and pings the primary, retrying the ping up
// to cfg.RetryAttempts times.
func New(ctx context.Context, cfg config.MongoConfig, opts ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		cfg:      cfg,
		dbName:   cfg.Database,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	client, err := mongo.Connect(clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := c.pingWithRetry(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c.client = client
	c.db = client.Database(c.dbName)
	c.state.Store(int32(StateConnected))
	c.Logger().Info("database connected", "database", c.dbName)
	return c, nil
}

// clientOptions maps the configuration onto driver options. The v2 driver
// has no separate socket or wait-queue timeout; both are covered by the
// client-side operation timeout.
func clientOptions(cfg config.MongoConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(cfg.RetryWrites).
		SetRetryReads(cfg.RetryReads)

	if timeout := max(cfg.SocketTimeout, cfg.WaitQueueTimeout); timeout > 0 {
		opts.SetTimeout(timeout)
	}
	return opts
}

func (c *Context) pingWithRetry(ctx context.Context, client *mongo.Client) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			c.Logger().Warn("database ping failed, retrying", "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		err = client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}

func (c *Context) Client() *mongo.Client     { return c.client }
func (c *Context) Database() *mongo.Database { return c.db }
func (c *Context) Observer() Observer        { return c.observer }
func (c *Context) State() State              { return State(c.state.Load()) }

// Logger is the pinned logger, or slog.Default at the time of the call.
func (c *Context) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Collection returns a handle for name. Handles are not cached.
func (c *Context) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// StartSession opens a session for multi-document transactions. The caller
// must end it.
func (c *Context) StartSession() (*mongo.Session, error) {
	if c.State() == StateClosed {
		return nil, ErrClosed
	}
	return c.client.StartSession()
}

// WithTransaction runs fn inside a transaction and commits or aborts it as a
// unit. fn must use the context it is given for every store call that
// belongs to the transaction; the driver retries fn on transient errors, so
// it must not have side effects outside the store.
func (c *Context) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := c.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(txCtx)
	})
	return err
}

// Ping checks the primary is reachable.
func (c *Context) Ping(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Context) Close(ctx context.Context) error {
	if State(c.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	c.Logger().Info("database disconnected")
	return nil
}
