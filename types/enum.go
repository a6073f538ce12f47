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

package types

// Enum is implemented by integer-backed enumerations that are sent to a
// database either by ordinal or by name.
//
//	type Status int8
//
//	const (
//		Pending Status = iota
//		Active
//	)
//
//	func (s Status) Name() string { return [...]string{"Pending", "Active"}[s] }
//
// An empty Name makes the value fall back to its ordinal.
type Enum interface {
	Name() string
}
