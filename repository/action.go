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
	"slices"

	"github.com/tomoncle/routinedb/naming"
)

// DefaultTotalCountProperty is the pseudo-column paged routines report the
// total row count through.
const DefaultTotalCountProperty = "TotalCount"

// Action is one repository operation. Its Name is the action part of the
// composed routine name.
type Action struct {
	Name               string   `yaml:"name"`
	ExcludedProperties []string `yaml:"excluded_properties"`
	// TotalCountProperty is only read by paged actions.
	TotalCountProperty string `yaml:"total_count_property"`
}

func NewAction(name string, excluded ...string) *Action {
	return &Action{Name: name, ExcludedProperties: excluded}
}

func newPagedAction(name string) *Action {
	return &Action{Name: name, TotalCountProperty: DefaultTotalCountProperty}
}

// Excluding returns a copy of the action that also drops the named
// properties.
func (a *Action) Excluding(properties ...string) *Action {
	c := a.clone()
	c.ExcludedProperties = append(c.ExcludedProperties, properties...)
	return c
}

// Excludes reports whether property is excluded, comparing normalized names.
func (a *Action) Excludes(property string) bool {
	if a == nil {
		return false
	}
	return slices.ContainsFunc(a.ExcludedProperties, func(p string) bool {
		return naming.Equal(p, property)
	})
}

func (a *Action) clone() *Action {
	if a == nil {
		return nil
	}
	c := *a
	c.ExcludedProperties = slices.Clone(a.ExcludedProperties)
	return &c
}

// ActionSet is the action catalog of a repository. A nil entry is unset and
// is filled from a base set by Merge.
type ActionSet struct {
	Create     *Action `yaml:"create"`
	Update     *Action `yaml:"update"`
	Patch      *Action `yaml:"patch"`
	DeleteById *Action `yaml:"delete_by_id"`
	DeleteMany *Action `yaml:"delete_many"`

	GetById                   *Action `yaml:"get_by_id"`
	GetByIdExtended           *Action `yaml:"get_by_id_extended"`
	GetByIdExtendedTranslated *Action `yaml:"get_by_id_extended_translated"`
	GetByIdTranslated         *Action `yaml:"get_by_id_translated"`

	GetOne                   *Action `yaml:"get_one"`
	GetOneExtended           *Action `yaml:"get_one_extended"`
	GetOneExtendedTranslated *Action `yaml:"get_one_extended_translated"`
	GetOneTranslated         *Action `yaml:"get_one_translated"`

	GetMany                        *Action `yaml:"get_many"`
	GetManyPaged                   *Action `yaml:"get_many_paged"`
	GetManyExtended                *Action `yaml:"get_many_extended"`
	GetManyExtendedPaged           *Action `yaml:"get_many_extended_paged"`
	GetManyExtendedTranslated      *Action `yaml:"get_many_extended_translated"`
	GetManyExtendedTranslatedPaged *Action `yaml:"get_many_extended_translated_paged"`
	GetManyTranslated              *Action `yaml:"get_many_translated"`
	GetManyTranslatedPaged         *Action `yaml:"get_many_translated_paged"`
}

// DefaultActions returns a fully populated catalog. Every call returns fresh
// actions.
func DefaultActions() ActionSet {
	return ActionSet{
		Create:     NewAction("Create"),
		Update:     NewAction("Update"),
		Patch:      NewAction("Patch"),
		DeleteById: NewAction("DeleteById"),
		DeleteMany: NewAction("DeleteMany"),

		GetById:                   NewAction("GetById"),
		GetByIdExtended:           NewAction("GetByIdExtended"),
		GetByIdExtendedTranslated: NewAction("GetByIdExtendedTranslated"),
		GetByIdTranslated:         NewAction("GetByIdTranslated"),

		GetOne:                   NewAction("GetOne"),
		GetOneExtended:           NewAction("GetOneExtended"),
		GetOneExtendedTranslated: NewAction("GetOneExtendedTranslated"),
		GetOneTranslated:         NewAction("GetOneTranslated"),

		GetMany:                        NewAction("GetMany"),
		GetManyPaged:                   newPagedAction("GetManyPaged"),
		GetManyExtended:                NewAction("GetManyExtended"),
		GetManyExtendedPaged:           newPagedAction("GetManyExtendedPaged"),
		GetManyExtendedTranslated:      NewAction("GetManyExtendedTranslated"),
		GetManyExtendedTranslatedPaged: newPagedAction("GetManyExtendedTranslatedPaged"),
		GetManyTranslated:              NewAction("GetManyTranslated"),
		GetManyTranslatedPaged:         newPagedAction("GetManyTranslatedPaged"),
	}
}

// Merge returns s with every unset entry taken from base.
func (s ActionSet) Merge(base ActionSet) ActionSet {
	out := s
	for i, slot := range out.slots() {
		if *slot == nil {
			*slot = *base.slots()[i]
		}
	}
	return out
}

// All returns the catalog in declaration order, skipping unset entries.
func (s ActionSet) All() []*Action {
	all := make([]*Action, 0, 21)
	for _, slot := range s.slots() {
		if *slot != nil {
			all = append(all, *slot)
		}
	}
	return all
}

func (s *ActionSet) slots() []**Action {
	return []**Action{
		&s.Create, &s.Update, &s.Patch, &s.DeleteById, &s.DeleteMany,
		&s.GetById, &s.GetByIdExtended, &s.GetByIdExtendedTranslated, &s.GetByIdTranslated,
		&s.GetOne, &s.GetOneExtended, &s.GetOneExtendedTranslated, &s.GetOneTranslated,
		&s.GetMany, &s.GetManyPaged, &s.GetManyExtended, &s.GetManyExtendedPaged,
		&s.GetManyExtendedTranslated, &s.GetManyExtendedTranslatedPaged,
		&s.GetManyTranslated, &s.GetManyTranslatedPaged,
	}
}
