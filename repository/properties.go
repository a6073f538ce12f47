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
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/fatih/structs"

	"github.com/tomoncle/routinedb/naming"
)

// PropertyTag is the struct tag that renames ("routine:\"name\"") or skips
// ("routine:\"-\"") a field.
const PropertyTag = "routine"

var ErrUnsupportedProperties = errors.New("value cannot be flattened to properties")

// Property is one named value sent to a routine.
type Property struct {
	Name  string
	Value any
}

// Properties is an ordered property list. Names are compared after
// normalization, so "ID", "Id" and "id" are the same property.
type Properties []Property

// Mapper is implemented by values that flatten themselves.
type Mapper interface {
	Properties() Properties
}

// EntityNamer overrides the entity name used in routine names.
type EntityNamer interface {
	EntityName() string
}

// IdentitySetter receives the identity generated by a create routine.
type IdentitySetter[ID any] interface {
	SetIdentity(id ID)
}

// PropertiesOf flattens v. Structs contribute their exported fields in
// declaration order with embedded structs inlined; maps contribute their
// entries sorted by key.
func PropertiesOf(v any) (Properties, error) {
	switch t := v.(type) {
	case nil:
		return Properties{}, nil
	case Properties:
		return append(Properties{}, t...), nil
	case Mapper:
		return t.Properties(), nil
	case map[string]any:
		return mapProperties(reflect.ValueOf(t)), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Properties{}, nil
		}
		rv = rv.Elem()
	}
	switch {
	case rv.Kind() == reflect.Struct:
		return fieldProperties(structs.New(rv.Interface()).Fields()), nil
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		return mapProperties(rv), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedProperties, v)
}

func fieldProperties(fields []*structs.Field) Properties {
	props := make(Properties, 0, len(fields))
	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		tag := f.Tag(PropertyTag)
		if tag == "-" {
			continue
		}
		if f.IsEmbedded() && tag == "" && f.Kind() == reflect.Struct {
			props = append(props, fieldProperties(f.Fields())...)
			continue
		}
		name := tag
		if name == "" {
			name = f.Name()
		}
		props = append(props, Property{Name: name, Value: f.Value()})
	}
	return props
}

func mapProperties(rv reflect.Value) Properties {
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	props := make(Properties, len(keys))
	for i, k := range keys {
		props[i] = Property{Name: k, Value: rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()}
	}
	return props
}

// Get returns the value of the named property.
func (p Properties) Get(name string) (any, bool) {
	if i := p.index(name); i >= 0 {
		return p[i].Value, true
	}
	return nil, false
}

// With returns a copy of p with the named property set, replacing an
// existing value in place.
func (p Properties) With(name string, value any) Properties {
	out := append(Properties{}, p...)
	if i := out.index(name); i >= 0 {
		out[i].Value = value
		return out
	}
	return append(out, Property{Name: name, Value: value})
}

// Without returns a copy of p without the named properties.
func (p Properties) Without(names ...string) Properties {
	out := make(Properties, 0, len(p))
	for _, prop := range p {
		excluded := false
		for _, n := range names {
			if naming.Equal(prop.Name, n) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, prop)
		}
	}
	return out
}

func (p Properties) Names() []string {
	names := make([]string, len(p))
	for i, prop := range p {
		names[i] = prop.Name
	}
	return names
}

func (p Properties) index(name string) int {
	for i, prop := range p {
		if naming.Equal(prop.Name, name) {
			return i
		}
	}
	return -1
}

// setProperty assigns value to the exported field of the struct pointed to by
// target whose name matches property. It reports whether a field matched.
func setProperty(target any, property string, value any) (bool, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return false, nil
	}
	f := findField(structs.New(target).Fields(), property)
	if f == nil {
		return false, nil
	}
	if err := f.Set(value); err != nil {
		return true, fmt.Errorf("set %s: %w", f.Name(), err)
	}
	return true, nil
}

// readProperty returns the value of the exported field matching property.
func readProperty(source any, property string) (any, bool) {
	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	f := findField(structs.New(rv.Interface()).Fields(), property)
	if f == nil {
		return nil, false
	}
	return f.Value(), true
}

func findField(fields []*structs.Field, property string) *structs.Field {
	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		tag := f.Tag(PropertyTag)
		if tag == "-" {
			continue
		}
		if f.IsEmbedded() && tag == "" && f.Kind() == reflect.Struct {
			if inner := findField(f.Fields(), property); inner != nil {
				return inner
			}
			continue
		}
		name := tag
		if name == "" {
			name = f.Name()
		}
		if naming.Equal(name, property) {
			return f
		}
	}
	return nil
}
