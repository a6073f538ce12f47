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

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      SQLError
		state     string
		condition string
		class     string
	}{
		{
			name:      "lib/pq unique violation",
			err:       &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"},
			kind:      DuplicateKeyErr,
			state:     "23505",
			condition: "unique_violation",
			class:     "integrity_constraint_violation",
		},
		{
			name:      "pgx undefined function",
			err:       fmt.Errorf("call failed: %w", &pgconn.PgError{Code: "42883", Message: "function app.fn_order_get_by_id(integer) does not exist"}),
			kind:      NoRoutineErr,
			state:     "42883",
			condition: "undefined_function",
			class:     "syntax_error_or_access_rule_violation",
		},
		{
			name:      "pgx raised exception",
			err:       &pgconn.PgError{Code: "P0001", Message: "order is closed"},
			kind:      RaisedErr,
			state:     "P0001",
			condition: "raise_exception",
			class:     "plpgsql_error",
		},
		{
			name:      "connection class fallback",
			err:       &pq.Error{Code: "08006"},
			kind:      ConnectionErr,
			state:     "08006",
			condition: "connection_failure",
			class:     "connection_exception",
		},
		{
			name:  "mysql missing procedure",
			err:   &mysql.MySQLError{Number: 1305, SQLState: [5]byte{'4', '2', '0', '0', '0'}, Message: "PROCEDURE app.sp_order_create does not exist"},
			kind:  NoRoutineErr,
			state: "42000",
			class: "syntax_error_or_access_rule_violation",
		},
		{
			name:  "sqlite message",
			err:   errors.New("UNIQUE constraint failed: orders.number"),
			kind:  DuplicateKeyErr,
			state: "",
		},
		{
			name:      "no rows",
			err:       sql.ErrNoRows,
			kind:      NoRowsErr,
			state:     "02000",
			condition: "no_data",
			class:     "no_data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			assert.True(t, c.Recognized)
			assert.Equal(t, tt.kind, c.Kind, c.Kind.String())
			assert.Equal(t, tt.state, c.SQLState)
			if tt.condition != "" {
				assert.Equal(t, tt.condition, c.Condition)
			}
			if tt.class != "" {
				assert.Equal(t, tt.class, c.Class)
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := Classify(errors.New("boom"))
	assert.False(t, c.Recognized)
	assert.Equal(t, UnknownErr, c.Kind)

	is, kind := IsSqlError(errors.New("relation \"orders\" already exists"))
	assert.True(t, is)
	assert.Equal(t, ExistTableErr, kind)
}
