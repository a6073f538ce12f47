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

package repository

import (
	"context"
	"reflect"
	"time"

	"github.com/tomoncle/routinedb/database"
)

// Repository executes stored routines for entities of type T identified by
// ID. Routine names are derived from the entity name and the action.
//
// A repository built with New opens a dedicated connection for each call and
// closes it when the call returns. One built with NewInTransaction runs every
// call on the given session and never closes it.
type Repository[T any, ID any] struct {
	factory    database.ConnectionFactory
	session    database.Session
	settings   Settings
	entity     reflect.Type
	entityName string
	name       string
	translator ErrorTranslator
	hooks      []database.CommandHook
	logger     database.Logger
}

type options struct {
	settings   *Settings
	registry   *Registry
	key        reflect.Type
	entityName string
	translator ErrorTranslator
	hooks      []database.CommandHook
	logger     database.Logger
}

type Option func(*options)

// WithSettings uses s as is, bypassing any registry.
func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = &s }
}

// WithRegistry resolves settings from reg under key. A nil key resolves the
// repository's own type.
func WithRegistry(reg *Registry, key reflect.Type) Option {
	return func(o *options) {
		o.registry = reg
		o.key = key
	}
}

func WithEntityName(name string) Option {
	return func(o *options) { o.entityName = name }
}

func WithErrorTranslator(t ErrorTranslator) Option {
	return func(o *options) { o.translator = t }
}

// WithHooks appends command hooks. Hooks run in registration order.
func WithHooks(hooks ...database.CommandHook) Option {
	return func(o *options) { o.hooks = append(o.hooks, hooks...) }
}

func WithLogger(l database.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a repository that opens a connection from factory per call.
func New[T any, ID any](factory database.ConnectionFactory, opts ...Option) *Repository[T, ID] {
	r := newRepository[T, ID](opts)
	r.factory = factory
	return r
}

// NewInTransaction returns a repository that runs on session, typically a
// *database.UnitOfWork.
func NewInTransaction[T any, ID any](session database.Session, opts ...Option) *Repository[T, ID] {
	r := newRepository[T, ID](opts)
	r.session = session
	return r
}

func newRepository[T any, ID any](opts []Option) *Repository[T, ID] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := &Repository[T, ID]{
		entity:     reflect.TypeFor[T](),
		translator: o.translator,
		hooks:      o.hooks,
		logger:     o.logger,
	}
	switch {
	case o.settings != nil:
		r.settings = *o.settings
	case o.registry != nil:
		key := o.key
		if key == nil {
			key = reflect.TypeOf(r)
		}
		r.settings = o.registry.Settings(key)
	default:
		r.settings = DefaultSettings()
	}
	r.settings.Actions = r.settings.Actions.Merge(DefaultActions())
	r.entityName = o.entityName
	if r.entityName == "" {
		r.entityName = entityName[T]()
	}
	r.name = reflect.TypeOf(r).String()
	if o.key != nil {
		r.name = o.key.String()
	}
	if r.logger == nil {
		r.logger = database.GetLogger()
	}
	return r
}

func entityName[T any]() string {
	var zero T
	if n, ok := any(zero).(EntityNamer); ok {
		return n.EntityName()
	}
	if n, ok := any(&zero).(EntityNamer); ok {
		return n.EntityName()
	}
	return reflect.TypeFor[T]().Name()
}

func (r *Repository[T, ID]) Settings() Settings {
	return r.settings
}

func (r *Repository[T, ID]) EntityName() string {
	return r.entityName
}

// IdentityProperty returns the name of the entity's identity property.
func (r *Repository[T, ID]) IdentityProperty() string {
	return r.settings.Identity(r.entity)
}

// InTransaction reports whether the repository participates in a session.
func (r *Repository[T, ID]) InTransaction() bool {
	return r.session != nil
}

// Command resolves the routine call of action without executing it.
func (r *Repository[T, ID]) Command(action *Action, property string, props Properties) Command {
	props = props.Without(action.ExcludedProperties...)
	return NewCommand(r.entityName, action, property, BuildParameters(props, r.settings), r.settings)
}

func (r *Repository[T, ID]) acquire(ctx context.Context) (database.Session, func() error, error) {
	if r.session != nil {
		return r.session, func() error { return nil }, nil
	}
	if r.factory == nil {
		return nil, nil, ErrNoFactory
	}
	conn, err := r.factory.Open(ctx, r.settings.ConnectionKey)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

// run executes one command on an acquired session. A standalone connection
// is closed whether or not fn fails.
func (r *Repository[T, ID]) run(ctx context.Context, cmd Command, fn func(context.Context, database.Session, []any) (int64, error)) error {
	sess, release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := release(); cerr != nil {
			r.logger.Warn("Failed to close connection", "routine", cmd.Routine, "error", cerr)
		}
	}()

	args := cmd.Args(sess.Dialect(), r.settings.Parameters.Binding)
	event := &database.CommandEvent{
		Repository:    r.name,
		Action:        cmd.Action,
		Routine:       cmd.Routine,
		Statement:     cmd.Text,
		Args:          args,
		InTransaction: sess.InTransaction(),
		StartTime:     time.Now(),
		RowsAffected:  -1,
	}
	for _, h := range r.hooks {
		ctx = h.BeforeCommand(ctx, event)
	}
	event.RowsAffected, event.Err = fn(ctx, sess, args)
	event.EndTime = time.Now()
	for _, h := range r.hooks {
		h.AfterCommand(ctx, event)
	}

	if event.Err != nil {
		r.logger.Debug("Routine failed", "routine", cmd.Routine, "action", cmd.Action, "error", event.Err)
		return r.translate(event.Err, cmd, sess)
	}
	r.logger.Debug("Routine executed", "routine", cmd.Routine, "action", cmd.Action,
		"in_transaction", event.InTransaction, "duration", event.Duration())
	return nil
}

func (r *Repository[T, ID]) translate(err error, cmd Command, sess database.Session) error {
	if r.translator == nil {
		return err
	}
	ec := &ExecutionContext{
		Repository:  r.name,
		Entity:      r.entityName,
		Action:      cmd.Action,
		Routine:     cmd.Routine,
		Statement:   cmd.Text,
		CommandType: cmd.Type,
		Parameters:  cmd.Parameters,
	}
	if sess.InTransaction() {
		ec.InTransaction = true
		ec.Session = sess
	}
	if translated := r.translator.Translate(err, ec); translated != nil {
		return translated
	}
	return err
}

func (r *Repository[T, ID]) exec(ctx context.Context, cmd Command) (int64, error) {
	var affected int64
	err := r.run(ctx, cmd, func(ctx context.Context, sess database.Session, args []any) (int64, error) {
		res, err := sess.ExecContext(ctx, cmd.Text, args...)
		if err != nil {
			return -1, err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return -1, err
		}
		return affected, nil
	})
	return affected, err
}

// scalar reads the first column of the first row into dest. It reports
// whether a row was returned.
func (r *Repository[T, ID]) scalar(ctx context.Context, cmd Command, dest any) (bool, error) {
	found := false
	err := r.run(ctx, cmd, func(ctx context.Context, sess database.Session, args []any) (int64, error) {
		rows, err := sess.QueryContext(ctx, cmd.Text, args...)
		if err != nil {
			return -1, err
		}
		defer rows.Close()
		if rows.Next() {
			cols, err := rows.Columns()
			if err != nil {
				return -1, err
			}
			if len(cols) == 0 {
				return -1, rows.Err()
			}
			targets := make([]any, len(cols))
			targets[0] = dest
			for i := 1; i < len(targets); i++ {
				targets[i] = new(any)
			}
			if err := rows.Scan(targets...); err != nil {
				return -1, err
			}
			found = true
		}
		return -1, rows.Err()
	})
	return found, err
}

// query maps every returned row into an X.
func query[X, T, ID any](ctx context.Context, r *Repository[T, ID], cmd Command) ([]*X, error) {
	var items []*X
	err := r.run(ctx, cmd, func(ctx context.Context, sess database.Session, args []any) (int64, error) {
		rows, err := sess.QueryContext(ctx, cmd.Text, args...)
		if err != nil {
			return -1, err
		}
		defer rows.Close()
		var values []X
		if err := sess.ScanRows(ctx, rows, &values); err != nil {
			return -1, err
		}
		items = make([]*X, len(values))
		for i := range values {
			items[i] = &values[i]
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
