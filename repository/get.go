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

	"github.com/tomoncle/routinedb/types"
)

// OffsetProperty and LimitProperty carry the page window to paged routines.
const (
	OffsetProperty = "Offset"
	LimitProperty  = "Limit"
)

// GetByID returns the entity with the given identity, or nil when the
// routine returns no row.
func (r *Repository[T, ID]) GetByID(ctx context.Context, id ID) (*T, error) {
	return getByID[T](ctx, r, r.settings.Actions.GetById, id, nil)
}

// GetOne returns the first entity matching criteria, or nil.
func (r *Repository[T, ID]) GetOne(ctx context.Context, criteria any) (*T, error) {
	return getOne[T](ctx, r, r.settings.Actions.GetOne, criteria, nil)
}

func (r *Repository[T, ID]) GetMany(ctx context.Context, criteria any) ([]*T, error) {
	return getMany[T](ctx, r, r.settings.Actions.GetMany, criteria, nil)
}

// GetPage returns one page of entities matching the query criteria. The
// routine receives the criteria plus Offset and Limit.
func (r *Repository[T, ID]) GetPage(ctx context.Context, q *types.PageQuery) (*types.Page[T], error) {
	return getPage[T](ctx, r, r.settings.Actions.GetManyPaged, q, nil)
}

// GetByIDExtended reads an extended shape X of the entity, for example a
// view joining related rows.
func GetByIDExtended[X, T, ID any](ctx context.Context, r *Repository[T, ID], id ID) (*X, error) {
	return getByID[X](ctx, r, r.settings.Actions.GetByIdExtended, id, nil)
}

func GetOneExtended[X, T, ID any](ctx context.Context, r *Repository[T, ID], criteria any) (*X, error) {
	return getOne[X](ctx, r, r.settings.Actions.GetOneExtended, criteria, nil)
}

func GetManyExtended[X, T, ID any](ctx context.Context, r *Repository[T, ID], criteria any) ([]*X, error) {
	return getMany[X](ctx, r, r.settings.Actions.GetManyExtended, criteria, nil)
}

func GetPageExtended[X, T, ID any](ctx context.Context, r *Repository[T, ID], q *types.PageQuery) (*types.Page[X], error) {
	return getPage[X](ctx, r, r.settings.Actions.GetManyExtendedPaged, q, nil)
}

func getByID[X, T, ID any](ctx context.Context, r *Repository[T, ID], action *Action, id ID, extra Properties) (*X, error) {
	props := append(Properties{{Name: r.IdentityProperty(), Value: id}}, extra...)
	return first[X](query[X](ctx, r, r.Command(action, "", props)))
}

func getOne[X, T, ID any](ctx context.Context, r *Repository[T, ID], action *Action, criteria any, extra Properties) (*X, error) {
	props, err := PropertiesOf(criteria)
	if err != nil {
		return nil, err
	}
	return first[X](query[X](ctx, r, r.Command(action, "", merge(props, extra))))
}

func getMany[X, T, ID any](ctx context.Context, r *Repository[T, ID], action *Action, criteria any, extra Properties) ([]*X, error) {
	props, err := PropertiesOf(criteria)
	if err != nil {
		return nil, err
	}
	return query[X](ctx, r, r.Command(action, "", merge(props, extra)))
}

func getPage[X, T, ID any](ctx context.Context, r *Repository[T, ID], action *Action, q *types.PageQuery, extra Properties) (*types.Page[X], error) {
	if q == nil {
		q = types.NewPageQuery(nil, 1, 0)
	}
	props, err := PropertiesOf(q.Criteria)
	if err != nil {
		return nil, err
	}
	offset, limit := q.Translate()
	props = props.With(OffsetProperty, offset).With(LimitProperty, limit)

	items, err := query[X](ctx, r, r.Command(action, "", merge(props, extra)))
	if err != nil {
		return nil, err
	}
	page := types.NewPage[X](q)
	page.Items = items
	if q.CountTotal && len(items) > 0 {
		property := q.TotalCountProperty
		if property == "" {
			property = action.TotalCountProperty
		}
		if total, ok := totalCount(items[0], property); ok {
			page.TotalItemCount = &total
		}
	}
	return page, nil
}

func first[X any](items []*X, err error) (*X, error) {
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func merge(props, extra Properties) Properties {
	for _, p := range extra {
		props = props.With(p.Name, p.Value)
	}
	return props
}

// totalCount reads the integer field named property from row.
func totalCount(row any, property string) (int64, bool) {
	if property == "" {
		return 0, false
	}
	v, ok := readProperty(row, property)
	if !ok {
		return 0, false
	}
	rv := reflect.ValueOf(indirect(v))
	switch {
	case rv.CanInt():
		return rv.Int(), true
	case rv.CanUint():
		return int64(rv.Uint()), true
	case rv.CanFloat():
		return int64(rv.Float()), true
	}
	return 0, false
}
