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
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tomoncle/routinedb/types"
)

// ParameterType is the database type a parameter is declared with.
type ParameterType int

const (
	TypeNone ParameterType = iota
	TypeString
	TypeByte
	TypeInt16
	TypeInt32
	TypeInt64
	TypeDate
	TypeTime
	TypeDateTime
	TypeDateTimeOffset
	TypeGUID
	TypeJSON
	TypeArray
)

var parameterTypeNames = [...]string{
	TypeNone:           "none",
	TypeString:         "string",
	TypeByte:           "byte",
	TypeInt16:          "int16",
	TypeInt32:          "int32",
	TypeInt64:          "int64",
	TypeDate:           "date",
	TypeTime:           "time",
	TypeDateTime:       "datetime",
	TypeDateTimeOffset: "datetimeoffset",
	TypeGUID:           "guid",
	TypeJSON:           "json",
	TypeArray:          "array",
}

func (t ParameterType) String() string {
	if t < 0 || int(t) >= len(parameterTypeNames) {
		return "ParameterType(" + strconv.Itoa(int(t)) + ")"
	}
	return parameterTypeNames[t]
}

type Direction int

const (
	DirectionUnset Direction = iota
	DirectionInput
	DirectionOutput
	DirectionInputOutput
	DirectionReturnValue
)

// ParameterInfo describes one routine parameter.
type ParameterInfo struct {
	Name      string
	Type      ParameterType
	Direction Direction
	Size      int
	Value     any
	// OrdinalFallback is set when an enum configured to be sent by name had
	// no name and its ordinal was sent instead.
	OrdinalFallback bool
}

// BuildParameter maps a property value to a routine parameter. Pointers are
// dereferenced; nil values produce an untyped parameter with a nil value.
func BuildParameter(property string, value any, s Settings) ParameterInfo {
	p := ParameterInfo{Name: ResolveParameterName(property, s)}
	value = indirect(value)
	if value == nil {
		return p
	}
	p.Value = value

	switch v := value.(type) {
	case types.DateTime:
		p.Type = TypeDateTime
		return p
	case time.Time:
		p.Type = TypeDateTimeOffset
		if s.DateTimeOffsetFormat == OffsetLocal {
			p.Value = v.Local()
		} else {
			p.Value = v.UTC()
		}
		return p
	case types.Date:
		p.Type = TypeDate
		return p
	case types.TimeOfDay:
		p.Type = TypeTime
		return p
	case uuid.UUID:
		p.Type = TypeGUID
		return p
	case types.JSONDocument:
		p.Type = TypeJSON
		return p
	case types.Enum:
		if buildEnum(&p, v, s.Enums) {
			return p
		}
	}

	if isPrimitiveArray(reflect.TypeOf(value)) {
		p.Type = TypeArray
	}
	return p
}

// BuildParameters maps properties in order.
func BuildParameters(props Properties, s Settings) []ParameterInfo {
	params := make([]ParameterInfo, len(props))
	for i, prop := range props {
		params[i] = BuildParameter(prop.Name, prop.Value, s)
	}
	return params
}

func buildEnum(p *ParameterInfo, e types.Enum, c EnumConvention) bool {
	ordinal, typ, ok := enumOrdinal(reflect.ValueOf(e))
	if !ok {
		return false
	}
	if c.Format == EnumName {
		if name := e.Name(); name != "" {
			p.Type = TypeString
			p.Value = c.Apply(name)
			return true
		}
		p.OrdinalFallback = true
	}
	p.Type = typ
	p.Value = ordinal
	return true
}

// enumOrdinal returns the integer value of an enum and the parameter type
// matching its width.
func enumOrdinal(v reflect.Value) (any, ParameterType, bool) {
	switch v.Kind() {
	case reflect.Uint8:
		return uint8(v.Uint()), TypeByte, true
	case reflect.Int8:
		return int8(v.Int()), TypeByte, true
	case reflect.Int16, reflect.Uint16:
		if v.CanInt() {
			return int16(v.Int()), TypeInt16, true
		}
		return int32(v.Uint()), TypeInt32, true
	case reflect.Int32:
		return int32(v.Int()), TypeInt32, true
	case reflect.Uint32:
		return int64(v.Uint()), TypeInt64, true
	case reflect.Int:
		if strconv.IntSize == 32 {
			return int32(v.Int()), TypeInt32, true
		}
		return v.Int(), TypeInt64, true
	case reflect.Int64:
		return v.Int(), TypeInt64, true
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint()), TypeInt64, true
	}
	return nil, TypeNone, false
}

// isPrimitiveArray reports slices and arrays of booleans, numbers and
// strings. Byte slices are binary values, not arrays.
func isPrimitiveArray(t reflect.Type) bool {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.Uint8:
		return false
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func indirect(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}
