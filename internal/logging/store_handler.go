package logging

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// LogWriter persists a batch of log entries.
type LogWriter interface {
	CreateMany(ctx context.Context, docs []*models.SystemLog) ([]bson.ObjectID, error)
}

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
	flushTimeout         = 10 * time.Second
)

type storeState struct {
	w        LogWriter
	fallback *slog.Logger
	level    slog.Level
	size     int
	mu       sync.Mutex
	buffer   []*models.SystemLog
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// StoreHandler is an slog.Handler that batches records at or above its
// level into the system_logs collection. Flush failures go to the fallback
// logger, which must not lead back to this handler.
type StoreHandler struct {
	s     *storeState
	attrs []slog.Attr
	group string
}

type StoreOption func(*storeState)

func WithLevel(l slog.Level) StoreOption { return func(s *storeState) { s.level = l } }

func WithBatchSize(n int) StoreOption {
	return func(s *storeState) {
		if n > 0 {
			s.size = n
		}
	}
}

func WithFlushInterval(d time.Duration) StoreOption {
	return func(s *storeState) {
		if d > 0 {
			s.ticker.Reset(d)
		}
	}
}

func NewStoreHandler(w LogWriter, fallback *slog.Logger, opts ...StoreOption) *StoreHandler {
	s := &storeState{
		w:        w,
		fallback: fallback,
		level:    slog.LevelError,
		size:     defaultBatchSize,
		ticker:   time.NewTicker(defaultFlushInterval),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buffer = make([]*models.SystemLog, 0, s.size)
	s.wg.Add(1)
	go s.flushLoop()
	return &StoreHandler{s: s}
}

func (s *storeState) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *storeState) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]*models.SystemLog, 0, s.size)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if _, err := s.w.CreateMany(ctx, batch); err != nil {
		s.fallback.Error("failed to flush system logs", "error", err, "count", len(batch))
	}
}

// Flush writes buffered entries now.
func (h *StoreHandler) Flush() { h.s.flush() }

// Stop flushes what is buffered and ends the background loop. It is safe
// to call more than once.
func (h *StoreHandler) Stop() {
	h.s.stopOnce.Do(func() {
		h.s.ticker.Stop()
		close(h.s.done)
	})
	h.s.wg.Wait()
}

func (h *StoreHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.s.level
}

func (h *StoreHandler) Handle(_ context.Context, record slog.Record) error {
	entry := &models.SystemLog{
		Timestamp: record.Time.UTC().Truncate(time.Millisecond),
		Level:     record.Level.String(),
		Message:   record.Message,
	}
	extra := bson.M{}
	apply := func(a slog.Attr) bool {
		h.apply(entry, extra, a)
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)
	if len(extra) > 0 {
		entry.Extra = extra
	}

	h.s.mu.Lock()
	h.s.buffer = append(h.s.buffer, entry)
	needFlush := len(h.s.buffer) >= h.s.size
	h.s.mu.Unlock()

	if needFlush {
		go h.s.flush()
	}
	return nil
}

func (h *StoreHandler) apply(entry *models.SystemLog, extra bson.M, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if h.group != "" {
		extra[h.group+"."+key] = a.Value.Any()
		return
	}
	switch key {
	case "trace_id", "request_id":
		entry.TraceID = a.Value.String()
	case "user_id":
		s := a.Value.String()
		entry.UserID = &s
	case "action", "operation":
		entry.Action = a.Value.String()
	case "collection":
		entry.Collection = a.Value.String()
	case "error":
		entry.Error = a.Value.String()
	case "latency_ms":
		switch a.Value.Kind() {
		case slog.KindFloat64:
			entry.LatencyMs = int(math.Round(a.Value.Float64()))
		case slog.KindInt64:
			entry.LatencyMs = int(a.Value.Int64())
		}
	default:
		extra[key] = a.Value.Any()
	}
}

func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *StoreHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}
