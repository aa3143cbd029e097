package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

const (
	// DefaultChannel is the pub/sub channel used when none is configured.
	DefaultChannel = "audit"
	// DefaultQueueSize is the number of events buffered ahead of Redis.
	DefaultQueueSize = 1024

	publishTimeout = time.Second
)

// ErrQueueFull reports an event dropped because the publish queue is full.
var ErrQueueFull = errors.New("audit queue full")

// RedisSink publishes audit events as JSON on a Redis pub/sub channel.
// Record only enqueues; a background goroutine performs the publishes, so a
// slow or unreachable Redis never holds up the caller. Events that do not
// fit in the queue are dropped with a warning.
type RedisSink struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string

	mu     sync.RWMutex
	closed bool
	queue  chan []byte
	done   chan struct{}
}

// NewRedisSink connects to addr, verifies the connection with a ping and
// starts the publisher.
func NewRedisSink(ctx context.Context, addr, channel string, log *logger.Logger) (*RedisSink, error) {
	if addr == "" {
		return nil, errors.New("redis address required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := newRedisSink(rdb, channel, log, DefaultQueueSize)
	s.start()
	return s, nil
}

func newRedisSink(rdb *goredis.Client, channel string, log *logger.Logger, size int) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.NewNop()
	}
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &RedisSink{
		log:     log.With("component", "audit.redis"),
		rdb:     rdb,
		channel: channel,
		queue:   make(chan []byte, size),
		done:    make(chan struct{}),
	}
}

func (s *RedisSink) start() {
	go s.drain()
}

func (s *RedisSink) drain() {
	defer close(s.done)
	for raw := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := s.rdb.Publish(ctx, s.channel, raw).Err()
		cancel()
		if err != nil {
			s.log.Warn("publish audit event failed", "error", err)
		}
	}
}

var _ core.AuditSink = (*RedisSink)(nil)

// Record enqueues the event for publishing. It never blocks.
func (s *RedisSink) Record(_ context.Context, event core.AuditEvent) error {
	if s == nil || s.rdb == nil {
		return errors.New("redis audit sink not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("redis audit sink closed")
	}
	select {
	case s.queue <- raw:
		return nil
	default:
		s.log.Warn("audit queue full, dropping event", "event", event.Type, "subject_id", event.SubjectID)
		return ErrQueueFull
	}
}

// Close stops accepting events, flushes the queue and releases the Redis
// connection.
func (s *RedisSink) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.rdb.Close()
}
