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

package routinedb

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/tomoncle/routinedb/database"
	"github.com/tomoncle/routinedb/repository"
	"github.com/tomoncle/routinedb/types"
)

// Builder assembles an Environment. Configuration is recorded by the fluent
// calls and applied by Build; the first failing call makes Build fail.
type Builder struct {
	registry    *repository.Registry
	connections []database.ConnectionConfiguration
	factory     *database.Factory
	entities    []string

	dateHandler     *types.Handler
	timeHandler     *types.Handler
	dateTimeHandler *types.Handler

	hooks      []database.CommandHook
	translator repository.ErrorTranslator
	logger     database.Logger

	errs *multierror.Error
}

// Setup starts a new environment definition.
func Setup() *Builder {
	return &Builder{registry: repository.NewRegistry()}
}

// Default sets the configuration of repositories without their own.
func (b *Builder) Default(c *repository.Configuration) *Builder {
	b.registry.SetDefault(c)
	return b
}

// ForType sets the configuration of the repository type t.
func (b *Builder) ForType(t reflect.Type, c *repository.Configuration) *Builder {
	b.registry.Register(t, c)
	return b
}

// ForRepository sets the configuration of the repository type R, usually a
// *repository.Repository instantiation.
func ForRepository[R any](b *Builder, c *repository.Configuration) *Builder {
	return b.ForType(reflect.TypeFor[R](), c)
}

func (b *Builder) WithConnections(configs ...database.ConnectionConfiguration) *Builder {
	b.connections = append(b.connections, configs...)
	return b
}

// WithFactory uses an already built factory instead of the configured
// connections.
func (b *Builder) WithFactory(f *database.Factory) *Builder {
	b.factory = f
	return b
}

func (b *Builder) WithEntities(names ...string) *Builder {
	b.entities = append(b.entities, names...)
	return b
}

func (b *Builder) WithDateHandler(h types.Handler) *Builder {
	b.dateHandler = &h
	return b
}

func (b *Builder) WithTimeHandler(h types.Handler) *Builder {
	b.timeHandler = &h
	return b
}

func (b *Builder) WithDateTimeHandler(h types.Handler) *Builder {
	b.dateTimeHandler = &h
	return b
}

// WithHooks adds hooks to every repository created by the environment.
func (b *Builder) WithHooks(hooks ...database.CommandHook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

func (b *Builder) WithErrorTranslator(t repository.ErrorTranslator) *Builder {
	b.translator = t
	return b
}

func (b *Builder) WithLogger(l database.Logger) *Builder {
	b.logger = l
	return b
}

// FromFile loads connections, the default repository configuration and the
// entity catalog from a YAML file.
func (b *Builder) FromFile(path string) *Builder {
	f, err := LoadFile(path)
	if err != nil {
		b.errs = multierror.Append(b.errs, err)
		return b
	}
	return b.FromConfig(f)
}

// FromConfig applies a decoded configuration file.
func (b *Builder) FromConfig(f *File) *Builder {
	c, err := f.Repository.Configuration()
	if err != nil {
		b.errs = multierror.Append(b.errs, err)
		return b
	}
	f.Logging.Apply()
	b.connections = append(b.connections, f.Connections...)
	b.entities = append(b.entities, f.Entities...)
	return b.Default(c)
}

// Build validates the recorded configuration and returns the environment.
func (b *Builder) Build() (*Environment, error) {
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	factory := b.factory
	if factory == nil {
		var err error
		if factory, err = database.NewFactory(b.connections...); err != nil {
			return nil, err
		}
	}
	logger := b.logger
	if logger == nil {
		logger = database.GetLogger()
	}
	factory.SetLogger(logger)

	if b.dateHandler != nil {
		types.SetDateHandler(*b.dateHandler)
	}
	if b.timeHandler != nil {
		types.SetTimeHandler(*b.timeHandler)
	}
	if b.dateTimeHandler != nil {
		types.SetDateTimeHandler(*b.dateTimeHandler)
	}

	env := &Environment{
		Registry:        b.registry,
		Factory:         factory,
		Entities:        slices.Clone(b.entities),
		hooks:           slices.Clone(b.hooks),
		connectionHooks: make(map[string][]database.CommandHook),
		translator:      b.translator,
		logger:          logger,
	}
	for _, key := range factory.ConnectionKeys() {
		cfg, err := factory.Configuration(key)
		if err != nil {
			return nil, err
		}
		env.connectionHooks[key] = database.HooksFor(cfg, logger)
	}
	logger.Info("Routine environment ready", "connections", factory.ConnectionKeys(), "repositories", len(b.registry.Types()))
	return env, nil
}

// Environment is the composition root: the repository registry and the
// connection factory every repository draws from.
type Environment struct {
	Registry *repository.Registry
	Factory  *database.Factory
	// Entities is the entity catalog of the configuration file.
	Entities []string

	hooks           []database.CommandHook
	connectionHooks map[string][]database.CommandHook
	translator      repository.ErrorTranslator
	logger          database.Logger
}

// Close closes every connection pool.
func (e *Environment) Close() error {
	return e.Factory.Close()
}

// Begin starts a unit of work on the connection key.
func (e *Environment) Begin(ctx context.Context, key string, opts *sql.TxOptions) (*database.UnitOfWork, error) {
	return e.Factory.Begin(ctx, key, opts)
}

// Transact runs fn in a unit of work that is committed when fn returns nil
// and rolled back otherwise.
func (e *Environment) Transact(ctx context.Context, key string, fn func(ctx context.Context, uow *database.UnitOfWork) error) (err error) {
	uow, err := e.Begin(ctx, key, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := uow.Close(); cerr != nil && !errors.Is(cerr, database.ErrUnitOfWorkDone) {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()
	if err = fn(ctx, uow); err != nil {
		return err
	}
	return uow.Commit()
}

// Options returns the repository options the environment applies to the
// repository type key.
func (e *Environment) Options(key reflect.Type) []repository.Option {
	settings := e.Registry.Settings(key)
	hooks := slices.Clone(e.hooks)
	hooks = append(hooks, e.connectionHooks[e.connectionKey(settings.ConnectionKey)]...)

	opts := []repository.Option{
		repository.WithRegistry(e.Registry, key),
		repository.WithHooks(hooks...),
		repository.WithLogger(e.logger),
	}
	if e.translator != nil {
		opts = append(opts, repository.WithErrorTranslator(e.translator))
	}
	return opts
}

func (e *Environment) connectionKey(key string) string {
	if key == "" {
		if keys := e.Factory.ConnectionKeys(); len(keys) > 0 {
			return keys[0]
		}
	}
	return key
}

func repositoryKey[T, ID any](key reflect.Type) reflect.Type {
	if key == nil {
		return reflect.TypeFor[*repository.Repository[T, ID]]()
	}
	return key
}

// NewRepository returns a standalone repository configured under key. A nil
// key stands for the *repository.Repository[T, ID] type itself.
func NewRepository[T, ID any](env *Environment, key reflect.Type, opts ...repository.Option) *repository.Repository[T, ID] {
	key = repositoryKey[T, ID](key)
	return repository.New[T, ID](env.Factory, append(env.Options(key), opts...)...)
}

// NewRepositoryInTransaction returns a repository participating in session.
func NewRepositoryInTransaction[T, ID any](env *Environment, session database.Session, key reflect.Type, opts ...repository.Option) *repository.Repository[T, ID] {
	key = repositoryKey[T, ID](key)
	return repository.NewInTransaction[T, ID](session, append(env.Options(key), opts...)...)
}

// NewTranslatedRepository returns a standalone repository with translated
// reads shaped as TT.
func NewTranslatedRepository[T, TT, ID any](env *Environment, key reflect.Type, opts ...repository.Option) *repository.TranslatedRepository[T, TT, ID] {
	key = repositoryKey[T, ID](key)
	return repository.NewTranslated[T, TT, ID](env.Factory, append(env.Options(key), opts...)...)
}
