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
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/tomoncle/routinedb/database"
	"github.com/tomoncle/routinedb/repository"
	"github.com/tomoncle/routinedb/utils"
)

// File is the YAML configuration file:
//
//	logging:
//	  level: debug
//	connections:
//	  - key: main
//	    provider: pgx
//	    host: localhost
//	    dbname: shop
//	repository:
//	  schema: app
//	  routines:
//	    type: stored_function
//	    prefix: fn_
//	  parameters:
//	    placeholder: dollar
//	    binding: positional
//	entities: [Order, Customer]
type File struct {
	Logging     LoggingFile                        `yaml:"logging"`
	Connections []database.ConnectionConfiguration `yaml:"connections"`
	Repository  RepositoryFile                     `yaml:"repository"`
	Entities    []string                           `yaml:"entities"`
}

type LoggingFile struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RepositoryFile is the default repository configuration. Convention
// sections only override the keys they name.
type RepositoryFile struct {
	ConnectionKey        *string                          `yaml:"connection_key"`
	SchemaName           *string                          `yaml:"schema"`
	IdentityProperty     string                           `yaml:"identity_property"`
	AutoIdentity         *bool                            `yaml:"auto_identity"`
	Routines             *yaml.Node                       `yaml:"routines"`
	Parameters           *yaml.Node                       `yaml:"parameters"`
	Enums                *yaml.Node                       `yaml:"enums"`
	DateTimeOffsetFormat *repository.DateTimeOffsetFormat `yaml:"date_time_offset_format"`
	NameComposition      string                           `yaml:"name_composition"`
	Actions              *repository.ActionSet            `yaml:"actions"`
}

// ParseFile decodes a configuration file and applies the environment
// overrides of every connection.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	for i := range f.Connections {
		if err := f.Connections[i].ApplyEnv(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseFile(data)
}

// Apply configures the process loggers.
func (l LoggingFile) Apply() {
	if l.Format != "" {
		utils.ConfigureConsoleLogFormat(l.Format)
	}
	if l.Level != "" {
		utils.ConfigureLogLevel(l.Level)
	}
}

// Configuration converts the section to a repository configuration.
func (r RepositoryFile) Configuration() (*repository.Configuration, error) {
	c := &repository.Configuration{
		ConnectionKey:        r.ConnectionKey,
		SchemaName:           r.SchemaName,
		AutoIdentity:         r.AutoIdentity,
		DateTimeOffsetFormat: r.DateTimeOffsetFormat,
		Actions:              r.Actions,
	}
	if r.IdentityProperty != "" {
		identity := r.IdentityProperty
		c.IdentityProperty = func(reflect.Type) string { return identity }
	}

	var err error
	if c.Routines, err = overlay(r.Routines, repository.DefaultRoutineConvention()); err != nil {
		return nil, fmt.Errorf("routines: %w", err)
	}
	if c.Parameters, err = overlay(r.Parameters, repository.DefaultParameterConvention()); err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}
	if c.Enums, err = overlay(r.Enums, repository.DefaultEnumConvention()); err != nil {
		return nil, fmt.Errorf("enums: %w", err)
	}

	switch r.NameComposition {
	case "", "entity_action":
	case "action":
		c.NameComposer = repository.ActionComposer
	default:
		return nil, fmt.Errorf("unknown name composition %q", r.NameComposition)
	}
	return c, nil
}

// overlay decodes node over base so that absent keys keep their defaults.
func overlay[V any](node *yaml.Node, base V) (*V, error) {
	if node == nil || node.IsZero() {
		return nil, nil
	}
	v := base
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
