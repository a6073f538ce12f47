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

	"github.com/tomoncle/routinedb/types"
)

// CrudRepository defines the routine-backed CRUD operations of an entity.
type CrudRepository[T any, ID any] interface {
	Create(ctx context.Context, entity *T) (ID, error)

	CreateFrom(ctx context.Context, values any) (ID, error)

	Update(ctx context.Context, values any) (int64, error)

	Patch(ctx context.Context, values any) (int64, error)

	PatchProperty(ctx context.Context, id ID, property string, value any) (int64, error)

	DeleteByID(ctx context.Context, id ID) (int64, error)

	DeleteMany(ctx context.Context, criteria any) (int64, error)

	GetByID(ctx context.Context, id ID) (*T, error)

	GetOne(ctx context.Context, criteria any) (*T, error)

	GetMany(ctx context.Context, criteria any) ([]*T, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	GetPage(ctx context.Context, q *types.PageQuery) (*types.Page[T], error)
}

// TranslationRepository reads translated shapes of an entity.
type TranslationRepository[TT any, ID any] interface {
	GetByIDTranslated(ctx context.Context, id ID, cultureID string) (*TT, error)
	GetOneTranslated(ctx context.Context, criteria any, cultureID string) (*TT, error)
	GetManyTranslated(ctx context.Context, criteria any, cultureID string) ([]*TT, error)
	GetPageTranslated(ctx context.Context, q *types.PageQuery, cultureID string) (*types.Page[TT], error)
}

// Store combines CRUD and pagination and exposes the effective settings.
type Store[T any, ID any] interface {
	CrudRepository[T, ID]
	PageQueryRepository[T]
	Settings() Settings
	InTransaction() bool
}

var (
	_ Store[struct{}, int64]                 = (*Repository[struct{}, int64])(nil)
	_ TranslationRepository[struct{}, int64] = (*TranslatedRepository[struct{}, struct{}, int64])(nil)
)
