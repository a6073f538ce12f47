/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	ErrNoConnections     = errors.New("no connection configuration supplied")
	ErrUnknownConnection = errors.New("unknown connection key")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrFactoryClosed     = errors.New("connection factory is closed")
)

type pool struct {
	sqlDB *sql.DB
	db    *bun.DB
}

// Factory is a ConnectionFactory over a keyed set of connection
// configurations. Each key owns one lazily opened pool.
type Factory struct {
	keys    []string
	configs map[string]ConnectionConfiguration
	logger  Logger

	mu     sync.Mutex
	pools  map[string]*pool
	closed bool
}

var _ ConnectionFactory = (*Factory)(nil)

// NewFactory validates the configurations and returns a factory. Pools are
// opened on first use.
func NewFactory(configs ...ConnectionConfiguration) (*Factory, error) {
	if len(configs) == 0 {
		return nil, ErrNoConnections
	}
	f := &Factory{
		configs: make(map[string]ConnectionConfiguration, len(configs)),
		pools:   make(map[string]*pool, len(configs)),
		logger:  GetLogger(),
	}
	for _, c := range configs {
		if _, exists := f.configs[c.Key]; exists {
			return nil, fmt.Errorf("duplicate connection key %q", c.Key)
		}
		if _, err := LookupProvider(c.Provider); err != nil {
			return nil, fmt.Errorf("connection %q: %w", c.Key, err)
		}
		f.keys = append(f.keys, c.Key)
		f.configs[c.Key] = c.withDefaults()
	}
	return f, nil
}

// NewFactoryFromDB returns a factory serving a single, already opened
// database under key. The factory takes ownership of db.
func NewFactoryFromDB(key string, db *sql.DB, d schema.Dialect) *Factory {
	return &Factory{
		keys:    []string{key},
		configs: map[string]ConnectionConfiguration{key: {Key: key}},
		pools:   map[string]*pool{key: {sqlDB: db, db: bun.NewDB(db, d, bun.WithDiscardUnknownColumns())}},
		logger:  GetLogger(),
	}
}

// SetLogger replaces the factory logger.
func (f *Factory) SetLogger(logger Logger) {
	if logger != nil {
		f.logger = logger
	}
}

func (f *Factory) ConnectionKeys() []string {
	return append([]string(nil), f.keys...)
}

// Configuration returns the configuration registered under key.
func (f *Factory) Configuration(key string) (ConnectionConfiguration, error) {
	k, err := f.resolveKey(key)
	if err != nil {
		return ConnectionConfiguration{}, err
	}
	return f.configs[k], nil
}

func (f *Factory) resolveKey(key string) (string, error) {
	if key == "" {
		return f.keys[0], nil
	}
	if _, ok := f.configs[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownConnection, key)
	}
	return key, nil
}

// DB returns the bun database of key, opening its pool when needed.
func (f *Factory) DB(key string) (*bun.DB, error) {
	p, _, err := f.pool(key)
	if err != nil {
		return nil, err
	}
	return p.db, nil
}

func (f *Factory) pool(key string) (*pool, string, error) {
	k, err := f.resolveKey(key)
	if err != nil {
		return nil, "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, "", ErrFactoryClosed
	}
	if p, ok := f.pools[k]; ok {
		return p, k, nil
	}

	cfg := f.configs[k]
	provider, err := LookupProvider(cfg.Provider)
	if err != nil {
		return nil, "", err
	}
	sqlDB, err := sql.Open(provider.DriverName, provider.DataSourceName(&cfg))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open connection %q: %w", k, err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	p := &pool{sqlDB: sqlDB, db: bun.NewDB(sqlDB, provider.Dialect(), bun.WithDiscardUnknownColumns())}
	f.pools[k] = p
	f.logger.Info("Connection pool opened", "key", k, "provider", provider.Name)
	return p, k, nil
}

// Open takes a dedicated connection from the pool of key.
func (f *Factory) Open(ctx context.Context, key string) (Connection, error) {
	p, k, err := f.pool(key)
	if err != nil {
		return nil, err
	}
	conn, err := p.sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection %q: %w", k, err)
	}
	return &connection{Conn: conn, key: k, mapper: p.db}, nil
}

// Begin opens a connection of key and starts a unit of work on it.
func (f *Factory) Begin(ctx context.Context, key string, opts *sql.TxOptions) (*UnitOfWork, error) {
	conn, err := f.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	return Begin(ctx, conn, opts)
}

// HealthCheck pings every configured key and reports its pool state.
func (f *Factory) HealthCheck(ctx context.Context) []*HealthStatus {
	statuses := make([]*HealthStatus, 0, len(f.keys))
	for _, key := range f.keys {
		start := time.Now()
		status := &HealthStatus{Key: key, LastCheckTime: start}
		statuses = append(statuses, status)

		p, _, err := f.pool(key)
		if err != nil {
			status.LastError = err.Error()
			continue
		}

		timeout := f.configs[key].ConnectTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err = p.sqlDB.PingContext(pingCtx)
		cancel()
		status.ResponseTime = time.Since(start)
		if err != nil {
			status.LastError = err.Error()
			f.logger.Warn("Connection health check failed", "key", key, "error", err)
		} else {
			status.Healthy = true
		}

		stats := p.sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
		status.MaxOpenConns = stats.MaxOpenConnections
	}
	return statuses
}

// Stats returns pool statistics of key. A pool that was never opened
// reports zero values.
func (f *Factory) Stats(key string) (*DBStats, error) {
	k, err := f.resolveKey(key)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	p := f.pools[k]
	f.mu.Unlock()
	if p == nil {
		return &DBStats{}, nil
	}

	stats := p.sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}, nil
}

// Close closes every opened pool. The factory cannot be used afterwards.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	var result *multierror.Error
	for _, key := range f.keys {
		p, ok := f.pools[key]
		if !ok {
			continue
		}
		if err := p.db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %q: %w", key, err))
			continue
		}
		f.logger.Info("Connection pool closed", "key", key)
	}
	f.pools = map[string]*pool{}
	return result.ErrorOrNil()
}
