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
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	NoRoutineErr
	InvalidParameterErr
	RaisedErr
	SerializationErr
	DeadlockErr
	PermissionDeniedErr
	ConnectionErr
)

var sqlErrorNames = [...]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "exist_index",
	ExistColumnErr:              "exist_column",
	NoTableErr:                  "no_table",
	ExistTableErr:               "exist_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
	NoRoutineErr:                "no_routine",
	InvalidParameterErr:         "invalid_parameter",
	RaisedErr:                   "raised",
	SerializationErr:            "serialization_failure",
	DeadlockErr:                 "deadlock",
	PermissionDeniedErr:         "permission_denied",
	ConnectionErr:               "connection",
}

func (e SQLError) String() string {
	if int(e) >= 0 && int(e) < len(sqlErrorNames) {
		return sqlErrorNames[e]
	}
	return sqlErrorNames[UnknownErr]
}

// Classification describes a driver error in portable terms.
type Classification struct {
	Kind SQLError
	// SQLState is the five character SQLSTATE, empty when the driver did not
	// report one.
	SQLState string
	// Condition and Class are the SQLSTATE condition and class names, e.g.
	// "unique_violation" in class "integrity_constraint_violation".
	Condition string
	Class     string
	// Recognized is false when err carries no driver information and no
	// known message pattern.
	Recognized bool
}

var stateKinds = map[string]SQLError{
	"02000": NoRowsErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
	"22P02": InvalidTypeCastErr,
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42701": ExistColumnErr,
	"42883": NoRoutineErr,
	"P0001": RaisedErr,
	"45000": RaisedErr,
	"40001": SerializationErr,
	"40P01": DeadlockErr,
	"42501": PermissionDeniedErr,
}

var classKinds = map[string]SQLError{
	"08": ConnectionErr,
	"28": PermissionDeniedErr,
	"40": SerializationErr,
	"22": InvalidParameterErr,
}

var mysqlKinds = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
	1305: NoRoutineErr,
	1318: InvalidParameterErr,
	1644: RaisedErr,
	1213: DeadlockErr,
	1205: SerializationErr,
	1142: PermissionDeniedErr,
	1370: PermissionDeniedErr,
	1045: ConnectionErr,
}

// Classify inspects err for MySQL, PostgreSQL (lib/pq and pgx) and SQLite
// error information and maps it to a SQLError kind.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return withState(Classification{Kind: NoRowsErr, Recognized: true}, "02000")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromState(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromState(pgErr.Code)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		c := fromState(string(mysqlErr.SQLState[:]))
		if kind, ok := mysqlKinds[mysqlErr.Number]; ok {
			c.Kind = kind
		}
		c.Recognized = true
		return c
	}

	if kind, ok := classifyMessage(strings.ToLower(err.Error())); ok {
		return Classification{Kind: kind, Recognized: true}
	}
	return Classification{Kind: UnknownErr}
}

// IsSqlError reports whether err was recognized and its kind.
func IsSqlError(err error) (bool, SQLError) {
	c := Classify(err)
	return c.Recognized, c.Kind
}

func fromState(state string) Classification {
	c := Classification{Kind: UnknownErr, Recognized: true}
	if kind, ok := stateKinds[state]; ok {
		c.Kind = kind
	} else if len(state) == 5 {
		if kind, ok := classKinds[state[:2]]; ok {
			c.Kind = kind
		}
	}
	return withState(c, state)
}

func withState(c Classification, state string) Classification {
	if len(state) != 5 || strings.Trim(state, "\x00") == "" {
		return c
	}
	code := pq.ErrorCode(state)
	c.SQLState = state
	c.Condition = code.Name()
	c.Class = code.Class().Name()
	return c
}

func classifyMessage(s string) (SQLError, bool) {
	switch {
	case strings.Contains(s, "sqlstate 42703"),
		strings.Contains(s, "undefined column"),
		strings.Contains(s, "no such column"):
		return NoColumnErr, true
	case strings.Contains(s, "sqlstate 42883"),
		strings.Contains(s, "no such function"),
		strings.Contains(s, "function") && strings.Contains(s, "does not exist"),
		strings.Contains(s, "procedure") && strings.Contains(s, "does not exist"):
		return NoRoutineErr, true
	case strings.Contains(s, "sqlstate 42704"),
		strings.Contains(s, "no such index"),
		strings.Contains(s, "does not exist") && strings.Contains(s, "index"):
		return NoIndexErr, true
	case strings.Contains(s, "sqlstate 42p01"),
		strings.Contains(s, "undefined table"),
		strings.Contains(s, "no such table"):
		return NoTableErr, true
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return ExistIndexErr, true
	case strings.Contains(s, "already exists") && strings.Contains(s, "table"),
		strings.Contains(s, "relation") && strings.Contains(s, "already exists"):
		return ExistTableErr, true
	case strings.Contains(s, "duplicate key value"),
		strings.Contains(s, "unique constraint failed"),
		strings.Contains(s, "sqlstate 23505"):
		return DuplicateKeyErr, true
	case strings.Contains(s, "not-null constraint"),
		strings.Contains(s, "sqlstate 23502"),
		strings.Contains(s, "not null constraint failed"):
		return NotNullViolationErr, true
	case strings.Contains(s, "foreign key violation"),
		strings.Contains(s, "foreign key constraint failed"),
		strings.Contains(s, "sqlstate 23503"):
		return ForeignKeyViolationErr, true
	case strings.Contains(s, "check constraint"),
		strings.Contains(s, "sqlstate 23514"):
		return CheckConstraintViolationErr, true
	case strings.Contains(s, "string data right truncation"),
		strings.Contains(s, "sqlstate 22001"),
		strings.Contains(s, "data truncated"):
		return DataTruncatedErr, true
	case strings.Contains(s, "datatype mismatch"),
		strings.Contains(s, "sqlstate 42804"):
		return InvalidTypeCastErr, true
	case strings.Contains(s, "database is locked"),
		strings.Contains(s, "deadlock"):
		return DeadlockErr, true
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "bad connection"):
		return ConnectionErr, true
	}
	return UnknownErr, false
}
