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
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/uptrace/bun/dialect"
)

const defaultCallFormat = "call %s(%s)"

type CommandType int

const (
	// CommandText is a select over a stored function.
	CommandText CommandType = iota
	// CommandStoredProcedure is a procedure call.
	CommandStoredProcedure
)

func (t CommandType) String() string {
	if t == CommandStoredProcedure {
		return "stored_procedure"
	}
	return "text"
}

// Command is a resolved routine call.
type Command struct {
	Action     string
	Routine    string
	Statement  string
	Text       string
	Type       CommandType
	Parameters []ParameterInfo
}

// NewCommand resolves the routine of action for entity and renders the text
// sent to the driver.
func NewCommand(entity string, action *Action, property string, params []ParameterInfo, s Settings) Command {
	simple := s.SimpleName(entity, action.Name, property)
	routine := ResolveRoutineName(simple, s)
	cmd := Command{
		Action:     action.Name,
		Routine:    routine,
		Statement:  ResolveRoutineStatement(simple, params, s.Routines.Type, s),
		Parameters: params,
	}
	if s.Routines.Type == StoredFunction {
		cmd.Type = CommandText
		cmd.Text = cmd.Statement
		return cmd
	}
	format := s.Routines.CallFormat
	if format == "" {
		format = defaultCallFormat
	}
	cmd.Type = CommandStoredProcedure
	cmd.Text = fmt.Sprintf(format, routine, placeholders(routine, params, StoredProcedure, s))
	return cmd
}

// Args returns the driver arguments for the command. Arrays are wrapped for
// lib/pq on PostgreSQL sessions.
func (c Command) Args(d dialect.Name, b Binding) []any {
	args := make([]any, len(c.Parameters))
	for i, p := range c.Parameters {
		v := p.Value
		if p.Type == TypeArray && d == dialect.PG {
			v = pq.Array(v)
		}
		if b == BindNamed {
			args[i] = sql.Named(p.Name, v)
		} else {
			args[i] = v
		}
	}
	return args
}
