package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/clusterdb/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultClientName  = "clusterdb"
	defaultDialTimeout = 5 * time.Second

	firstProbeDelay = 50 * time.Millisecond
	maxProbeDelay   = time.Second
)

// Config holds connection parameters for the cache and event bus.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int

	// ClientName is reported via CLIENT SETNAME. Defaults to "clusterdb".
	ClientName string
	// DialTimeout bounds each TCP dial. Defaults to 5s.
	DialTimeout time.Duration
}

// Store backs the document count cache and the event streams.
// Client-side caching is off: counts are invalidated explicitly.
type Store struct {
	rc rueidis.Client
}

// NewStore opens a rueidis client. It does not wait for the server; call WaitForReady.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = defaultClientName
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}

	rc, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   name,
		Dialer:       net.Dialer{Timeout: dial},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return &Store{rc: rc}, nil
}

// NewStoreForTest wraps an existing client (used with rueidis/mock).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{rc: c}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rc.Do(ctx, s.rc.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", db.ErrUnavailable, err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.rc.Close()
}

// WaitForReady probes immediately, then retries with doubling delays capped
// at one second until Ping succeeds or timeout elapses. The last probe
// error is reported alongside the deadline.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := firstProbeDelay
	for {
		lastErr := s.Ping(ctx)
		if lastErr == nil {
			return nil
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("redis not ready after %s: %w", timeout, errors.Join(ctx.Err(), lastErr))
		case <-t.C:
		}
		delay = min(delay*2, maxProbeDelay)
	}
}
