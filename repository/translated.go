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

	"github.com/tomoncle/routinedb/database"
	"github.com/tomoncle/routinedb/types"
)

// CultureProperty carries the requested culture to translated routines.
const CultureProperty = "CultureId"

// TranslatedRepository reads entities of type T together with their
// translations, shaped as TT.
type TranslatedRepository[T any, TT any, ID any] struct {
	*Repository[T, ID]
}

func NewTranslated[T, TT, ID any](factory database.ConnectionFactory, opts ...Option) *TranslatedRepository[T, TT, ID] {
	return &TranslatedRepository[T, TT, ID]{Repository: New[T, ID](factory, opts...)}
}

func NewTranslatedInTransaction[T, TT, ID any](session database.Session, opts ...Option) *TranslatedRepository[T, TT, ID] {
	return &TranslatedRepository[T, TT, ID]{Repository: NewInTransaction[T, ID](session, opts...)}
}

func (r *TranslatedRepository[T, TT, ID]) GetByIDTranslated(ctx context.Context, id ID, cultureID string) (*TT, error) {
	return getByID[TT](ctx, r.Repository, r.settings.Actions.GetByIdTranslated, id, culture(cultureID))
}

func (r *TranslatedRepository[T, TT, ID]) GetOneTranslated(ctx context.Context, criteria any, cultureID string) (*TT, error) {
	return getOne[TT](ctx, r.Repository, r.settings.Actions.GetOneTranslated, criteria, culture(cultureID))
}

func (r *TranslatedRepository[T, TT, ID]) GetManyTranslated(ctx context.Context, criteria any, cultureID string) ([]*TT, error) {
	return getMany[TT](ctx, r.Repository, r.settings.Actions.GetManyTranslated, criteria, culture(cultureID))
}

func (r *TranslatedRepository[T, TT, ID]) GetPageTranslated(ctx context.Context, q *types.PageQuery, cultureID string) (*types.Page[TT], error) {
	return getPage[TT](ctx, r.Repository, r.settings.Actions.GetManyTranslatedPaged, q, culture(cultureID))
}

// GetByIDExtendedTranslated reads the translated extended shape X.
func GetByIDExtendedTranslated[X, T, ID any](ctx context.Context, r *Repository[T, ID], id ID, cultureID string) (*X, error) {
	return getByID[X](ctx, r, r.settings.Actions.GetByIdExtendedTranslated, id, culture(cultureID))
}

func GetOneExtendedTranslated[X, T, ID any](ctx context.Context, r *Repository[T, ID], criteria any, cultureID string) (*X, error) {
	return getOne[X](ctx, r, r.settings.Actions.GetOneExtendedTranslated, criteria, culture(cultureID))
}

func GetManyExtendedTranslated[X, T, ID any](ctx context.Context, r *Repository[T, ID], criteria any, cultureID string) ([]*X, error) {
	return getMany[X](ctx, r, r.settings.Actions.GetManyExtendedTranslated, criteria, culture(cultureID))
}

func GetPageExtendedTranslated[X, T, ID any](ctx context.Context, r *Repository[T, ID], q *types.PageQuery, cultureID string) (*types.Page[X], error) {
	return getPage[X](ctx, r, r.settings.Actions.GetManyExtendedTranslatedPaged, q, culture(cultureID))
}

func culture(id string) Properties {
	return Properties{{Name: CultureProperty, Value: id}}
}
