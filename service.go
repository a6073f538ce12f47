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
	"sync"

	"github.com/tomoncle/routinedb/database"
	"github.com/tomoncle/routinedb/repository"
	"github.com/tomoncle/routinedb/types"
)

type Service[T any, ID any] interface {
	// Get returns a single entity by its identifier, or nil.
	Get(ctx context.Context, id ID) (*T, error)

	// Find returns the first entity matching criteria, or nil.
	Find(ctx context.Context, criteria any) (*T, error)

	// List returns the entities matching criteria.
	List(ctx context.Context, criteria any) ([]*T, error)

	// Page returns a page of entities.
	Page(ctx context.Context, query *types.PageQuery) (*types.Page[T], error)

	// Save creates an entity and returns its identity.
	Save(ctx context.Context, model *T) (ID, error)

	// Update modifies an existing entity.
	Update(ctx context.Context, model *T) error

	// Patch modifies a single property of an entity.
	Patch(ctx context.Context, id ID, property string, value any) error

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id ID) error

	// SaveWithTx creates an entity within a unit of work.
	SaveWithTx(ctx context.Context, uow *database.UnitOfWork, model *T) (ID, error)

	// UpdateWithTx updates an entity within a unit of work.
	UpdateWithTx(ctx context.Context, uow *database.UnitOfWork, model *T) error

	// DeleteWithTx removes an entity within a unit of work.
	DeleteWithTx(ctx context.Context, uow *database.UnitOfWork, id ID) error

	// Repository returns the standalone repository behind the service.
	Repository() *repository.Repository[T, ID]
}

type baseServiceImpl[T any, ID any] struct {
	env  *Environment
	opts []repository.Option
	repo *repository.Repository[T, ID]
	once sync.Once
}

// NewService returns a Service over the routines of T. Its repository is
// created on first use with the environment's configuration for
// *repository.Repository[T, ID].
func NewService[T any, ID any](env *Environment, opts ...repository.Option) Service[T, ID] {
	return &baseServiceImpl[T, ID]{env: env, opts: opts}
}

func (s *baseServiceImpl[T, ID]) baseRepo() *repository.Repository[T, ID] {
	s.once.Do(func() { s.repo = NewRepository[T, ID](s.env, nil, s.opts...) })
	return s.repo
}

func (s *baseServiceImpl[T, ID]) txRepo(uow *database.UnitOfWork) *repository.Repository[T, ID] {
	return NewRepositoryInTransaction[T, ID](s.env, uow, nil, s.opts...)
}

func (s *baseServiceImpl[T, ID]) Repository() *repository.Repository[T, ID] {
	return s.baseRepo()
}

func (s *baseServiceImpl[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	return s.baseRepo().GetByID(ctx, id)
}

func (s *baseServiceImpl[T, ID]) Find(ctx context.Context, criteria any) (*T, error) {
	return s.baseRepo().GetOne(ctx, criteria)
}

func (s *baseServiceImpl[T, ID]) List(ctx context.Context, criteria any) ([]*T, error) {
	return s.baseRepo().GetMany(ctx, criteria)
}

func (s *baseServiceImpl[T, ID]) Page(ctx context.Context, query *types.PageQuery) (*types.Page[T], error) {
	return s.baseRepo().GetPage(ctx, query)
}

func (s *baseServiceImpl[T, ID]) Save(ctx context.Context, model *T) (ID, error) {
	return s.baseRepo().Create(ctx, model)
}

func (s *baseServiceImpl[T, ID]) Update(ctx context.Context, model *T) error {
	_, err := s.baseRepo().Update(ctx, model)
	return err
}

func (s *baseServiceImpl[T, ID]) Patch(ctx context.Context, id ID, property string, value any) error {
	_, err := s.baseRepo().PatchProperty(ctx, id, property, value)
	return err
}

func (s *baseServiceImpl[T, ID]) Delete(ctx context.Context, id ID) error {
	_, err := s.baseRepo().DeleteByID(ctx, id)
	return err
}

func (s *baseServiceImpl[T, ID]) SaveWithTx(ctx context.Context, uow *database.UnitOfWork, model *T) (ID, error) {
	return s.txRepo(uow).Create(ctx, model)
}

func (s *baseServiceImpl[T, ID]) UpdateWithTx(ctx context.Context, uow *database.UnitOfWork, model *T) error {
	_, err := s.txRepo(uow).Update(ctx, model)
	return err
}

func (s *baseServiceImpl[T, ID]) DeleteWithTx(ctx context.Context, uow *database.UnitOfWork, id ID) error {
	_, err := s.txRepo(uow).DeleteByID(ctx, id)
	return err
}
