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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Session is what a repository executes routines against: a standalone
// connection or a unit of work.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	// ScanRows maps the remaining rows into dest and closes rows.
	ScanRows(ctx context.Context, rows *sql.Rows, dest ...any) error
	Dialect() dialect.Name
	InTransaction() bool
}

// Connection is a dedicated connection taken from a keyed pool. Closing it
// returns it to the pool.
type Connection interface {
	Session
	Key() string
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// ConnectionFactory opens connections by key. An empty key selects the first
// configured connection.
type ConnectionFactory interface {
	ConnectionKeys() []string
	Open(ctx context.Context, key string) (Connection, error)
}

type connection struct {
	*sql.Conn
	key    string
	mapper *bun.DB
}

var _ Connection = (*connection)(nil)

func (c *connection) Key() string {
	return c.key
}

func (c *connection) ScanRows(ctx context.Context, rows *sql.Rows, dest ...any) error {
	return c.mapper.ScanRows(ctx, rows, dest...)
}

func (c *connection) Dialect() dialect.Name {
	return c.mapper.Dialect().Name()
}

func (c *connection) InTransaction() bool {
	return false
}
