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

// PageQuery asks a repository for one page of rows matching Criteria.
// Criteria may be a struct, a map or anything a repository can flatten to
// routine parameters.
type PageQuery struct {
	Criteria any

	page     int
	pageSize int

	// CountTotal asks the routine to report the total number of matching
	// rows through a pseudo-column of the first row.
	CountTotal bool
	// TotalCountProperty overrides the action's total-count property.
	TotalCountProperty string
}

// NewPageQuery constructs a PageQuery for the given 1-based page.
func NewPageQuery(criteria any, page, pageSize int) *PageQuery {
	return &PageQuery{Criteria: criteria, page: page, pageSize: pageSize, CountTotal: true}
}

func (p *PageQuery) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageQuery) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageQuery) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Translate returns the offset and limit sent to the routine.
func (p *PageQuery) Translate() (offset, limit int) {
	return p.GetOffset(), p.GetPageSize()
}

// Page holds one page of results along with pagination metadata.
type Page[T any] struct {
	Page     int
	PageSize int
	Items    []*T
	// TotalItemCount is nil when the total was not requested or the routine
	// returned no rows to read it from.
	TotalItemCount *int64
}

// NewPage constructs an empty page for the query.
func NewPage[T any](query *PageQuery) *Page[T] {
	return &Page[T]{Page: query.GetPage(), PageSize: query.GetPageSize(), Items: make([]*T, 0)}
}

// PageCount returns the number of pages, or -1 when the total is unknown.
func (p *Page[T]) PageCount() int64 {
	if p.TotalItemCount == nil {
		return -1
	}
	size := int64(p.PageSize)
	if size < 1 {
		return 0
	}
	return (*p.TotalItemCount + size - 1) / size
}
