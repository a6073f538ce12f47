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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValueAndScan(t *testing.T) {
	d := NewDate(2024, time.March, 9)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", v)

	var scanned Date
	require.NoError(t, scanned.Scan("03/09/2024"))
	assert.Equal(t, d, scanned)

	require.NoError(t, scanned.Scan([]byte("2024-03-09 17:45:00")))
	assert.Equal(t, d, scanned)

	require.NoError(t, scanned.Scan(time.Date(2024, time.March, 9, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, d, scanned)
}

func TestDateScanErrors(t *testing.T) {
	var d Date
	err := d.Scan("9th of March")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	err = d.Scan(42)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestTimeOfDay(t *testing.T) {
	tod := NewTimeOfDay(7, 5, 3, 250000000)

	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "07:05:03.250000", v)

	var scanned TimeOfDay
	require.NoError(t, scanned.Scan("07:05:03.25"))
	assert.Equal(t, tod, scanned)

	require.NoError(t, scanned.Scan("7:05 PM"))
	assert.Equal(t, NewTimeOfDay(19, 5, 0, 0), scanned)
}

func TestDateTimeDropsZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	dt := DateTimeOf(time.Date(2024, time.May, 1, 10, 30, 0, 0, zone))

	v, err := dt.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 10:30:00.000000", v)

	var scanned DateTime
	require.NoError(t, scanned.Scan("2024-05-01 10:30:00"))
	assert.Equal(t, dt, scanned)
}

func TestSetDateHandler(t *testing.T) {
	previous := DateHandler()
	t.Cleanup(func() { SetDateHandler(previous) })

	SetDateHandler(Handler{ParameterFormat: "02.01.2006", ParsingFormats: []string{"02.01.2006"}})

	v, err := NewDate(2024, time.December, 31).Value()
	require.NoError(t, err)
	assert.Equal(t, "31.12.2024", v)

	d, err := ParseDate("01.02.2025")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.February, 1), d)

	_, err = ParseDate("2025-02-01")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPageQuery(t *testing.T) {
	q := NewPageQuery(nil, 3, 25)
	offset, limit := q.Translate()
	assert.Equal(t, 50, offset)
	assert.Equal(t, 25, limit)

	q = NewPageQuery(nil, 0, 0)
	offset, limit = q.Translate()
	assert.Equal(t, 0, offset)
	assert.Equal(t, 10, limit)
}

func TestPageCount(t *testing.T) {
	p := NewPage[struct{}](NewPageQuery(nil, 1, 10))
	assert.Equal(t, int64(-1), p.PageCount())

	total := int64(21)
	p.TotalItemCount = &total
	assert.Equal(t, int64(3), p.PageCount())
}

func TestJSON(t *testing.T) {
	doc := NewJSON(map[string]any{"locale": "es-MX"})
	v, err := doc.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"locale":"es-MX"}`, v.(string))

	var scanned JsonObject
	require.NoError(t, scanned.Scan([]byte(`{"locale":"en-US"}`)))
	assert.Equal(t, "en-US", scanned.Data["locale"])
}
