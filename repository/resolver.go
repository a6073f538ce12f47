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
	"strings"
)

// ResolveRoutineName converts a simple routine name per the routine
// convention and qualifies it with the schema when one is set.
func ResolveRoutineName(simpleName string, s Settings) string {
	name := s.Routines.Apply(simpleName)
	if s.SchemaName == "" {
		return name
	}
	return s.SchemaName + "." + name
}

// ResolveParameterName converts a property name per the parameter
// convention.
func ResolveParameterName(simpleName string, s Settings) string {
	return s.Parameters.Apply(simpleName)
}

// ResolveRoutineStatement returns the routine name for procedures and a
// select over the routine for functions:
//
//	select * from app.fn_order_get_many(@customer_id, @status)
func ResolveRoutineStatement(simpleName string, params []ParameterInfo, routineType RoutineType, s Settings) string {
	routine := ResolveRoutineName(simpleName, s)
	if routineType == StoredProcedure {
		return routine
	}
	return fmt.Sprintf("select * from %s(%s)", routine, placeholders(routine, params, routineType, s))
}

func placeholders(routine string, params []ParameterInfo, routineType RoutineType, s Settings) string {
	resolve := s.Parameters.resolver()
	refs := make([]string, len(params))
	for i, p := range params {
		refs[i] = resolve(Placeholder{
			Routine:     routine,
			Parameter:   p.Name,
			Value:       p.Value,
			RoutineType: routineType,
			Position:    i + 1,
		})
	}
	return strings.Join(refs, ", ")
}
