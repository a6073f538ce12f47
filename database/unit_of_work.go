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

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/bun/dialect"
)

// ErrUnitOfWorkDone is returned when a committed, rolled back or closed unit
// of work is used again.
var ErrUnitOfWorkDone = errors.New("unit of work is already finished")

type unitState int

const (
	unitOpen unitState = iota
	unitCommitted
	unitRolledBack
)

func (s unitState) String() string {
	switch s {
	case unitOpen:
		return "open"
	case unitCommitted:
		return "committed"
	default:
		return "rolled back"
	}
}

// UnitOfWork groups repository calls in one transaction on one connection.
// It is committed explicitly; closing it without a commit rolls it back.
// Nested units of work are not supported.
type UnitOfWork struct {
	id     string
	conn   Connection
	tx     *sql.Tx
	logger Logger

	mu     sync.Mutex
	state  unitState
	closed bool
}

var _ Session = (*UnitOfWork)(nil)

// Begin starts a transaction on conn. The unit of work owns conn from now on
// and closes it in Close, or right away when the transaction cannot start.
func Begin(ctx context.Context, conn Connection, opts *sql.TxOptions) (*UnitOfWork, error) {
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to begin transaction on %q: %w", conn.Key(), err)
	}
	u := &UnitOfWork{id: uuid.NewString(), conn: conn, tx: tx, logger: GetLogger()}
	u.logger.Debug("Unit of work started", "id", u.id, "key", conn.Key())
	return u, nil
}

func (u *UnitOfWork) ID() string {
	return u.id
}

func (u *UnitOfWork) Key() string {
	return u.conn.Key()
}

// State reports "open", "committed" or "rolled back".
func (u *UnitOfWork) State() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.String()
}

func (u *UnitOfWork) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := u.active(); err != nil {
		return nil, err
	}
	return u.tx.QueryContext(ctx, query, args...)
}

func (u *UnitOfWork) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := u.active(); err != nil {
		return nil, err
	}
	return u.tx.ExecContext(ctx, query, args...)
}

// active returns ErrUnitOfWorkDone once the unit is committed, rolled back
// or closed.
func (u *UnitOfWork) active() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != unitOpen || u.closed {
		return ErrUnitOfWorkDone
	}
	return nil
}

func (u *UnitOfWork) ScanRows(ctx context.Context, rows *sql.Rows, dest ...any) error {
	return u.conn.ScanRows(ctx, rows, dest...)
}

func (u *UnitOfWork) Dialect() dialect.Name {
	return u.conn.Dialect()
}

func (u *UnitOfWork) InTransaction() bool {
	return true
}

// Commit commits the transaction. When the commit fails the transaction is
// rolled back and the commit error is returned along with any rollback error.
func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != unitOpen {
		return ErrUnitOfWorkDone
	}

	err := u.tx.Commit()
	if err == nil {
		u.state = unitCommitted
		u.logger.Debug("Unit of work committed", "id", u.id)
		return nil
	}

	u.state = unitRolledBack
	commitErr := fmt.Errorf("failed to commit unit of work %s: %w", u.id, err)
	u.logger.Warn("Unit of work commit failed, rolling back", "id", u.id, "error", err)
	if rbErr := u.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return multierror.Append(commitErr, fmt.Errorf("rollback: %w", rbErr))
	}
	return commitErr
}

// Rollback rolls the transaction back.
func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rollbackLocked()
}

func (u *UnitOfWork) rollbackLocked() error {
	if u.state != unitOpen {
		return ErrUnitOfWorkDone
	}
	u.state = unitRolledBack
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back unit of work %s: %w", u.id, err)
	}
	u.logger.Debug("Unit of work rolled back", "id", u.id)
	return nil
}

// Close rolls back an open transaction and releases the connection. It is
// safe to call more than once.
func (u *UnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true

	var result *multierror.Error
	if u.state == unitOpen {
		if err := u.rollbackLocked(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := u.conn.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close connection: %w", err))
	}
	return result.ErrorOrNil()
}
