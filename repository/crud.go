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
	"fmt"
	"reflect"
)

// Create runs the Create routine for entity and returns its identity. With
// auto identity the identity property is not sent; the generated value is
// read from the first column of the first row and written back into entity.
func (r *Repository[T, ID]) Create(ctx context.Context, entity *T) (ID, error) {
	var zero ID
	if entity == nil {
		return zero, ErrNilEntity
	}
	id, err := r.CreateFrom(ctx, entity)
	if err != nil || !r.settings.AutoIdentity {
		return id, err
	}
	if setter, ok := any(entity).(IdentitySetter[ID]); ok {
		setter.SetIdentity(id)
		return id, nil
	}
	if _, err := setProperty(entity, r.IdentityProperty(), id); err != nil {
		return id, err
	}
	return id, nil
}

// CreateFrom runs the Create routine with values flattened to properties.
// Values may be an entity, any other struct, a map or Properties.
func (r *Repository[T, ID]) CreateFrom(ctx context.Context, values any) (ID, error) {
	var zero ID
	props, err := PropertiesOf(values)
	if err != nil {
		return zero, err
	}
	identity := r.IdentityProperty()
	action := r.settings.Actions.Create

	if r.settings.AutoIdentity {
		cmd := r.Command(action, "", props.Without(identity))
		var id ID
		found, err := r.scalar(ctx, cmd, &id)
		if err != nil {
			return zero, err
		}
		if !found {
			return zero, fmt.Errorf("%w: %s", ErrNoIdentity, cmd.Routine)
		}
		return id, nil
	}

	value, ok := props.Get(identity)
	if !ok || value == nil || reflect.ValueOf(value).IsZero() {
		return zero, fmt.Errorf("%w: %s", ErrIdentityRequired, identity)
	}
	id, ok := value.(ID)
	if !ok {
		return zero, fmt.Errorf("identity %s is %T, not %T", identity, value, zero)
	}
	if _, err := r.exec(ctx, r.Command(action, "", props)); err != nil {
		return zero, err
	}
	return id, nil
}

// Update runs the Update routine and returns the number of affected rows.
func (r *Repository[T, ID]) Update(ctx context.Context, values any) (int64, error) {
	props, err := PropertiesOf(values)
	if err != nil {
		return 0, err
	}
	return r.exec(ctx, r.Command(r.settings.Actions.Update, "", props))
}

// Patch runs the Patch routine with a partial set of properties, usually a
// map or Properties holding the identity and the changed values.
func (r *Repository[T, ID]) Patch(ctx context.Context, values any) (int64, error) {
	props, err := PropertiesOf(values)
	if err != nil {
		return 0, err
	}
	return r.exec(ctx, r.Command(r.settings.Actions.Patch, "", props))
}

// PatchProperty runs the routine that patches a single property, for example
// order_patch_status(@id, @status).
func (r *Repository[T, ID]) PatchProperty(ctx context.Context, id ID, property string, value any) (int64, error) {
	props := Properties{{Name: r.IdentityProperty(), Value: id}, {Name: property, Value: value}}
	return r.exec(ctx, r.Command(r.settings.Actions.Patch, property, props))
}

func (r *Repository[T, ID]) DeleteByID(ctx context.Context, id ID) (int64, error) {
	props := Properties{{Name: r.IdentityProperty(), Value: id}}
	return r.exec(ctx, r.Command(r.settings.Actions.DeleteById, "", props))
}

// DeleteMany runs the DeleteMany routine with criteria flattened to
// properties.
func (r *Repository[T, ID]) DeleteMany(ctx context.Context, criteria any) (int64, error) {
	props, err := PropertiesOf(criteria)
	if err != nil {
		return 0, err
	}
	return r.exec(ctx, r.Command(r.settings.Actions.DeleteMany, "", props))
}
