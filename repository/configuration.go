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
	"reflect"
	"sort"
	"sync"
)

// DefaultIdentityProperty names the identity property of every entity unless
// configured otherwise.
const DefaultIdentityProperty = "Id"

// NameComposer builds the simple routine name from the entity name, the
// action name and an optional property name.
type NameComposer func(entity, action, property string) string

// EntityActionComposer composes {Entity}{Action}{Property}, for example
// OrderGetById.
func EntityActionComposer(entity, action, property string) string {
	return entity + action + property
}

// ActionComposer composes {Action}{Property} and ignores the entity. It suits
// schemas that hold one entity each.
func ActionComposer(_, action, property string) string {
	return action + property
}

// Configuration holds repository overrides. Nil fields are taken from the
// settings it is merged into.
type Configuration struct {
	ConnectionKey        *string
	SchemaName           *string
	IdentityProperty     func(entity reflect.Type) string
	AutoIdentity         *bool
	Routines             *RoutineConvention
	Parameters           *ParameterConvention
	Enums                *EnumConvention
	DateTimeOffsetFormat *DateTimeOffsetFormat
	Actions              *ActionSet
	NameComposer         NameComposer
}

// Ptr returns a pointer to v, for filling Configuration fields.
func Ptr[V any](v V) *V {
	return &v
}

// Settings is an effective repository configuration.
type Settings struct {
	ConnectionKey        string
	SchemaName           string
	IdentityProperty     func(entity reflect.Type) string
	AutoIdentity         bool
	Routines             RoutineConvention
	Parameters           ParameterConvention
	Enums                EnumConvention
	DateTimeOffsetFormat DateTimeOffsetFormat
	Actions              ActionSet
	NameComposer         NameComposer
}

func DefaultSettings() Settings {
	return Settings{
		IdentityProperty:     func(reflect.Type) string { return DefaultIdentityProperty },
		AutoIdentity:         true,
		Routines:             DefaultRoutineConvention(),
		Parameters:           DefaultParameterConvention(),
		Enums:                DefaultEnumConvention(),
		DateTimeOffsetFormat: OffsetUTC,
		Actions:              DefaultActions(),
		NameComposer:         EntityActionComposer,
	}
}

// Merge overlays the set fields of c on base. A nil configuration returns
// base unchanged.
func (c *Configuration) Merge(base Settings) Settings {
	if c == nil {
		return base
	}
	s := base
	if c.ConnectionKey != nil {
		s.ConnectionKey = *c.ConnectionKey
	}
	if c.SchemaName != nil {
		s.SchemaName = *c.SchemaName
	}
	if c.IdentityProperty != nil {
		s.IdentityProperty = c.IdentityProperty
	}
	if c.AutoIdentity != nil {
		s.AutoIdentity = *c.AutoIdentity
	}
	if c.Routines != nil {
		s.Routines = *c.Routines
	}
	if c.Parameters != nil {
		s.Parameters = *c.Parameters
	}
	if c.Enums != nil {
		s.Enums = *c.Enums
	}
	if c.DateTimeOffsetFormat != nil {
		s.DateTimeOffsetFormat = *c.DateTimeOffsetFormat
	}
	if c.Actions != nil {
		s.Actions = c.Actions.Merge(base.Actions)
	}
	if c.NameComposer != nil {
		s.NameComposer = c.NameComposer
	}
	return s
}

// Identity returns the identity property name for the entity type.
func (s Settings) Identity(entity reflect.Type) string {
	if s.IdentityProperty == nil {
		return DefaultIdentityProperty
	}
	if name := s.IdentityProperty(entity); name != "" {
		return name
	}
	return DefaultIdentityProperty
}

// SimpleName composes the unconverted routine name.
func (s Settings) SimpleName(entity, action, property string) string {
	compose := s.NameComposer
	if compose == nil {
		compose = EntityActionComposer
	}
	return compose(entity, action, property)
}

// Registry maps repository types to their configuration. It is filled once
// at startup by the composition root and read by every repository built
// afterwards.
type Registry struct {
	mu       sync.RWMutex
	fallback *Configuration
	types    map[reflect.Type]*Configuration
}

func NewRegistry() *Registry {
	return &Registry{fallback: &Configuration{}, types: make(map[reflect.Type]*Configuration)}
}

// SetDefault replaces the configuration used for unregistered types.
func (r *Registry) SetDefault(c *Configuration) *Registry {
	if c == nil {
		c = &Configuration{}
	}
	r.mu.Lock()
	r.fallback = c
	r.mu.Unlock()
	return r
}

func (r *Registry) Default() *Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Register binds c to the repository type t, replacing any earlier
// registration.
func (r *Registry) Register(t reflect.Type, c *Configuration) *Registry {
	r.mu.Lock()
	if c == nil {
		delete(r.types, t)
	} else {
		r.types[t] = c
	}
	r.mu.Unlock()
	return r
}

// RegisterFor registers c under the type argument R.
func RegisterFor[R any](r *Registry, c *Configuration) *Registry {
	return r.Register(reflect.TypeFor[R](), c)
}

// Resolve returns the configuration registered for t, or the default one.
func (r *Registry) Resolve(t reflect.Type) *Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.types[t]; ok {
		return c
	}
	return r.fallback
}

// Registered reports whether t has its own configuration.
func (r *Registry) Registered(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[t]
	return ok
}

// Types returns the registered repository types ordered by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Settings resolves the effective settings of t: built-in defaults, then the
// registered default, then the type's own configuration.
func (r *Registry) Settings(t reflect.Type) Settings {
	r.mu.RLock()
	fallback, own := r.fallback, r.types[t]
	r.mu.RUnlock()
	return own.Merge(fallback.Merge(DefaultSettings()))
}
