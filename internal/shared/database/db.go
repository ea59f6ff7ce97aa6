// Package database is the persistence gateway for prompt/response pairs,
// backed by PostgreSQL. Connection establishment is an observable state
// machine rather than a blocking startup loop: the process keeps serving
// while the gateway is Connecting, and writes fail with ErrUnavailable until
// it reaches Connected.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// State is the gateway's connection lifecycle state.
type State int32

const (
	// StateConnecting means the startup retry loop is still running.
	StateConnecting State = iota
	// StateConnected means the pool is up and writes may proceed.
	StateConnected
	// StateFailed means all connection attempts were exhausted; the process
	// runs degraded and every write fails with ErrUnavailable.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "degraded"
	}
}

var (
	// ErrUnavailable means the store is unreachable or the write timed out.
	ErrUnavailable = errors.New("database unavailable")
	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation means the store rejected the row on an integrity
	// constraint other than uniqueness.
	ErrValidation = errors.New("database validation failed")
)

// Config configures the gateway.
type Config struct {
	URL             string
	WriteTimeout    time.Duration // defaults to 10s
	ConnectAttempts int           // defaults to 5
	ConnectDelay    time.Duration // defaults to 5s
}

// DB wraps the connection pool and its lifecycle state.
type DB struct {
	cfg    Config
	logger *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	conn   *sql.DB
	state  State
	closed bool
}

// Open creates the gateway and starts the connection attempt in the
// background. It never blocks and never fails: with an empty URL the gateway
// goes straight to StateFailed and the service runs degraded.
func Open(cfg Config, logger *slog.Logger) *DB {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = 5
	}
	if cfg.ConnectDelay <= 0 {
		cfg.ConnectDelay = 5 * time.Second
	}

	db := &DB{cfg: cfg, logger: logger, state: StateConnecting, stop: make(chan struct{})}

	if cfg.URL == "" {
		db.setState(StateFailed)
		logger.Warn("DATABASE_URL not set, persistence disabled")
		return db
	}

	go db.connect()
	return db
}

// connect runs the bounded retry loop: N attempts with a fixed delay, then
// give up and stay degraded. Close interrupts both the inter-attempt delay
// and the window between a late successful dial and pool installation.
func (db *DB) connect() {
	for attempt := 1; attempt <= db.cfg.ConnectAttempts; attempt++ {
		conn, err := dial(db.cfg.URL)
		if err == nil {
			if !db.install(conn) {
				conn.Close()
				return
			}
			db.logger.Info("connected to database", "attempt", attempt)
			return
		}

		db.logger.Warn("database connection failed",
			"attempt", attempt,
			"max_attempts", db.cfg.ConnectAttempts,
			"error", err)

		if attempt < db.cfg.ConnectAttempts {
			select {
			case <-time.After(db.cfg.ConnectDelay):
			case <-db.stop:
				return
			}
		}
	}

	db.setState(StateFailed)
	db.logger.Error("giving up on database connection, running degraded")
}

// install publishes a freshly dialed pool unless Close already ran.
func (db *DB) install(conn *sql.DB) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return false
	}
	db.conn = conn
	db.state = StateConnected
	return true
}

func dial(url string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// State reports the current lifecycle state.
func (db *DB) State() State {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.state
}

// Connected reports whether writes may proceed.
func (db *DB) Connected() bool {
	return db.State() == StateConnected
}

func (db *DB) setState(s State) {
	db.mu.Lock()
	db.state = s
	db.mu.Unlock()
}

// Close stops the retry loop and closes the pool if one was established.
// A dial that completes after Close is discarded by the loop, never leaked.
func (db *DB) Close() error {
	db.stopOnce.Do(func() {
		close(db.stop)
	})

	db.mu.Lock()
	db.closed = true
	db.state = StateFailed
	conn := db.conn
	db.conn = nil
	db.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// SavePair writes one prompt/response pair and returns its generated id.
// Both fields must already be validated and sanitized by the caller.
func (db *DB) SavePair(ctx context.Context, prompt, response string) (string, error) {
	db.mu.RLock()
	conn := db.conn
	state := db.state
	db.mu.RUnlock()

	if state != StateConnected {
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, db.cfg.WriteTimeout)
	defer cancel()

	id := uuid.NewString()
	const query = `
		INSERT INTO prompt_pairs (id, prompt, response, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := conn.ExecContext(ctx, query, id, prompt, response); err != nil {
		return "", classify(err)
	}

	return id, nil
}

// classify maps a write failure onto the gateway's error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: save timed out", ErrUnavailable)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
		case strings.HasPrefix(code, "23"):
			return fmt.Errorf("%w: %s", ErrValidation, pqErr.Message)
		}
		return fmt.Errorf("database error: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return fmt.Errorf("database error: %w", err)
}
