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
	"fmt"
	"strconv"
	"strings"

	"github.com/tomoncle/routinedb/naming"
)

// Convention is a naming convention plus a fixed prefix and suffix.
type Convention struct {
	Naming naming.Convention `yaml:"naming"`
	Prefix string            `yaml:"prefix"`
	Suffix string            `yaml:"suffix"`
}

// DefaultConvention is lower_snake_case without prefix or suffix.
func DefaultConvention() Convention {
	return Convention{Naming: naming.LowerSnakeCase}
}

// Apply returns prefix + name cased per Naming + suffix.
func (c Convention) Apply(name string) string {
	return c.Prefix + naming.Apply(name, c.Naming) + c.Suffix
}

// RoutineType tells whether routines are called as procedures or selected
// from as functions.
type RoutineType int

const (
	StoredProcedure RoutineType = iota
	StoredFunction
)

func (t RoutineType) String() string {
	if t == StoredFunction {
		return "stored_function"
	}
	return "stored_procedure"
}

func (t *RoutineType) UnmarshalText(text []byte) error {
	switch naming.Apply(string(text), naming.LowerSnakeCase) {
	case "stored_procedure", "procedure":
		*t = StoredProcedure
	case "stored_function", "function":
		*t = StoredFunction
	default:
		return fmt.Errorf("unknown routine type %q", text)
	}
	return nil
}

// RoutineConvention names routines. CallFormat renders a procedure call from
// the routine name and the placeholder list; it defaults to "call %s(%s)".
type RoutineConvention struct {
	Convention `yaml:",inline"`
	Type       RoutineType `yaml:"type"`
	CallFormat string      `yaml:"call_format"`
}

func DefaultRoutineConvention() RoutineConvention {
	return RoutineConvention{Convention: DefaultConvention(), Type: StoredProcedure, CallFormat: "call %s(%s)"}
}

// Placeholder is what a PlaceholderResolver gets to render one parameter
// reference in a routine statement. Position is 1-based.
type Placeholder struct {
	Routine     string
	Parameter   string
	Value       any
	RoutineType RoutineType
	Position    int
}

type PlaceholderResolver func(p Placeholder) string

// AtPlaceholder renders "@name".
func AtPlaceholder(p Placeholder) string {
	return "@" + p.Parameter
}

// DollarPlaceholder renders "$1", "$2", ... as PostgreSQL drivers expect.
func DollarPlaceholder(p Placeholder) string {
	return "$" + strconv.Itoa(p.Position)
}

// QuestionPlaceholder renders "?" as MySQL and SQLite drivers accept.
func QuestionPlaceholder(Placeholder) string {
	return "?"
}

// PlaceholderStyle selects one of the built-in placeholder resolvers.
type PlaceholderStyle int

const (
	AtStyle PlaceholderStyle = iota
	DollarStyle
	QuestionStyle
)

func (s PlaceholderStyle) Resolver() PlaceholderResolver {
	switch s {
	case DollarStyle:
		return DollarPlaceholder
	case QuestionStyle:
		return QuestionPlaceholder
	default:
		return AtPlaceholder
	}
}

func (s PlaceholderStyle) String() string {
	switch s {
	case DollarStyle:
		return "dollar"
	case QuestionStyle:
		return "question"
	default:
		return "at"
	}
}

func (s *PlaceholderStyle) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "at", "@", "":
		*s = AtStyle
	case "dollar", "$":
		*s = DollarStyle
	case "question", "?":
		*s = QuestionStyle
	default:
		return fmt.Errorf("unknown placeholder style %q", text)
	}
	return nil
}

// Binding tells how parameter values are handed to the driver.
type Binding int

const (
	// BindNamed passes sql.Named arguments.
	BindNamed Binding = iota
	// BindPositional passes bare values in parameter order.
	BindPositional
)

func (b Binding) String() string {
	if b == BindPositional {
		return "positional"
	}
	return "named"
}

func (b *Binding) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "named", "":
		*b = BindNamed
	case "positional":
		*b = BindPositional
	default:
		return fmt.Errorf("unknown binding %q", text)
	}
	return nil
}

// ParameterConvention names parameters and renders their placeholders. A
// non-nil Placeholder takes precedence over Style.
type ParameterConvention struct {
	Convention  `yaml:",inline"`
	Style       PlaceholderStyle    `yaml:"placeholder"`
	Placeholder PlaceholderResolver `yaml:"-"`
	Binding     Binding             `yaml:"binding"`
}

// DefaultParameterConvention is lower_snake_case names referenced as "@name"
// and bound by name.
func DefaultParameterConvention() ParameterConvention {
	return ParameterConvention{Convention: DefaultConvention(), Style: AtStyle, Binding: BindNamed}
}

// PostgresParameterConvention references parameters as $n and binds them by
// position, which lib/pq and pgx require.
func PostgresParameterConvention() ParameterConvention {
	return ParameterConvention{Convention: DefaultConvention(), Style: DollarStyle, Binding: BindPositional}
}

// MySQLParameterConvention references parameters as ? bound by position.
func MySQLParameterConvention() ParameterConvention {
	return ParameterConvention{Convention: DefaultConvention(), Style: QuestionStyle, Binding: BindPositional}
}

func (c ParameterConvention) resolver() PlaceholderResolver {
	if c.Placeholder != nil {
		return c.Placeholder
	}
	return c.Style.Resolver()
}

// EnumFormat selects how enum values are sent.
type EnumFormat int

const (
	// EnumName sends the cased name of the value.
	EnumName EnumFormat = iota
	// EnumOrdinal sends the integer value.
	EnumOrdinal
)

func (f EnumFormat) String() string {
	if f == EnumOrdinal {
		return "ordinal"
	}
	return "name"
}

func (f *EnumFormat) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "name", "":
		*f = EnumName
	case "ordinal":
		*f = EnumOrdinal
	default:
		return fmt.Errorf("unknown enum format %q", text)
	}
	return nil
}

type EnumConvention struct {
	Convention `yaml:",inline"`
	Format     EnumFormat `yaml:"format"`
}

// DefaultEnumConvention sends PascalCase names.
func DefaultEnumConvention() EnumConvention {
	return EnumConvention{Convention: Convention{Naming: naming.PascalCase}, Format: EnumName}
}

// DateTimeOffsetFormat selects the zone zoned times are converted to before
// they are bound.
type DateTimeOffsetFormat int

const (
	OffsetUTC DateTimeOffsetFormat = iota
	OffsetLocal
)

func (f DateTimeOffsetFormat) String() string {
	if f == OffsetLocal {
		return "local"
	}
	return "utc"
}

func (f *DateTimeOffsetFormat) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "utc", "":
		*f = OffsetUTC
	case "local":
		*f = OffsetLocal
	default:
		return fmt.Errorf("unknown date time offset format %q", text)
	}
	return nil
}
