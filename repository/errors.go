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

	"github.com/tomoncle/routinedb/database"
	"github.com/tomoncle/routinedb/naming"
)

var (
	ErrNilEntity = errors.New("entity is nil")
	// ErrIdentityRequired is returned by Create when auto identity is off and
	// the entity carries no identity value.
	ErrIdentityRequired = errors.New("identity value is required")
	// ErrNoIdentity is returned when a create routine returned no row to read
	// the generated identity from.
	ErrNoIdentity = errors.New("routine returned no identity")
	ErrNoFactory  = errors.New("repository has neither a connection factory nor a session")
)

// ExecutionContext describes the routine call that failed.
type ExecutionContext struct {
	Repository  string
	Entity      string
	Action      string
	Routine     string
	Statement   string
	CommandType CommandType
	Parameters  []ParameterInfo
	// Session is set only when the call ran inside a unit of work.
	Session       database.Session
	InTransaction bool
}

// Parameter looks up a parameter by name.
func (c *ExecutionContext) Parameter(name string) (ParameterInfo, bool) {
	for _, p := range c.Parameters {
		if naming.Equal(p.Name, name) {
			return p, true
		}
	}
	return ParameterInfo{}, false
}

// ErrorTranslator maps driver errors to application errors. Returning nil
// keeps the original error.
type ErrorTranslator interface {
	Translate(err error, ec *ExecutionContext) error
}

type ErrorTranslatorFunc func(err error, ec *ExecutionContext) error

func (f ErrorTranslatorFunc) Translate(err error, ec *ExecutionContext) error {
	return f(err, ec)
}

// RoutineError is a classified routine failure.
type RoutineError struct {
	Kind          database.SQLError
	SQLState      string
	Condition     string
	Action        string
	Routine       string
	InTransaction bool
	Err           error
}

func (e *RoutineError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("%s %s: %s [%s]: %v", e.Action, e.Routine, e.Kind, e.SQLState, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Action, e.Routine, e.Kind, e.Err)
}

func (e *RoutineError) Unwrap() error {
	return e.Err
}

// Is matches another RoutineError of the same kind, so callers can test
// errors.Is(err, &RoutineError{Kind: database.DuplicateKeyErr}).
func (e *RoutineError) Is(target error) bool {
	t, ok := target.(*RoutineError)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// NewSQLStateTranslator classifies recognized driver errors into
// *RoutineError and leaves the rest untouched.
func NewSQLStateTranslator() ErrorTranslator {
	return ErrorTranslatorFunc(func(err error, ec *ExecutionContext) error {
		c := database.Classify(err)
		if !c.Recognized {
			return nil
		}
		return &RoutineError{
			Kind:          c.Kind,
			SQLState:      c.SQLState,
			Condition:     c.Condition,
			Action:        ec.Action,
			Routine:       ec.Routine,
			InTransaction: ec.InTransaction,
			Err:           err,
		}
	})
}
