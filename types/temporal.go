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
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrInvalidFormat is returned when a temporal string matches none of the
	// parsing formats of its handler.
	ErrInvalidFormat = errors.New("value does not match any parsing format")
	// ErrUnsupportedType is returned when a scanned source cannot be
	// converted to a temporal value.
	ErrUnsupportedType = errors.New("unsupported source type")
)

// Default layouts used to parse temporal values coming back from a database
// or from text.
var (
	DateFormats = []string{
		"2006-01-02",
		"01/02/2006",
		"2006/01/02",
	}
	DateTimeFormats = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339Nano,
		"1/2/2006 3:04:05 PM",
		"01/02/2006 15:04:05",
		"02/01/2006 15:04:05",
	}
	TimeFormats = []string{
		"15:04:05",
		"15:04",
		"3:04:05 PM",
		"3:04 PM",
	}
)

// Handler describes how a temporal type is written to and read from a
// database: values are sent formatted with ParameterFormat and parsed from
// text with the first matching entry of ParsingFormats.
type Handler struct {
	ParameterFormat string
	ParsingFormats  []string
}

func (h Handler) parse(kind, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range h.ParsingFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s %q: %w", kind, s, ErrInvalidFormat)
}

func temporalFormats(extra ...[]string) []string {
	var out []string
	for _, e := range extra {
		out = append(out, e...)
	}
	return out
}

var (
	handlersMu      sync.RWMutex
	dateHandler     = Handler{ParameterFormat: "2006-01-02", ParsingFormats: temporalFormats(DateFormats, DateTimeFormats)}
	timeHandler     = Handler{ParameterFormat: "15:04:05.000000", ParsingFormats: temporalFormats(TimeFormats, DateTimeFormats)}
	dateTimeHandler = Handler{ParameterFormat: "2006-01-02 15:04:05.000000", ParsingFormats: temporalFormats(DateTimeFormats, DateFormats)}
)

// SetDateHandler replaces the handler used by Date. It is meant to be called
// once at startup.
func SetDateHandler(h Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	dateHandler = normalizeHandler(h, dateHandler)
}

// SetTimeHandler replaces the handler used by TimeOfDay.
func SetTimeHandler(h Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	timeHandler = normalizeHandler(h, timeHandler)
}

// SetDateTimeHandler replaces the handler used by DateTime.
func SetDateTimeHandler(h Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	dateTimeHandler = normalizeHandler(h, dateTimeHandler)
}

func DateHandler() Handler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	return dateHandler
}

func TimeHandler() Handler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	return timeHandler
}

func DateTimeHandler() Handler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	return dateTimeHandler
}

func normalizeHandler(h, current Handler) Handler {
	if h.ParameterFormat == "" {
		h.ParameterFormat = current.ParameterFormat
	}
	if len(h.ParsingFormats) == 0 {
		h.ParsingFormats = current.ParsingFormats
	}
	h.ParsingFormats = append([]string(nil), h.ParsingFormats...)
	return h
}

// Date is a calendar date without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses s with the parsing formats of the current date handler.
func ParseDate(s string) (Date, error) {
	t, err := DateHandler().parse("date", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return d.In(time.UTC).Format("2006-01-02")
}

// Value writes the date with the handler's parameter format.
func (d Date) Value() (driver.Value, error) {
	return d.In(time.UTC).Format(DateHandler().ParameterFormat), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	default:
		return fmt.Errorf("scan date from %T: %w", src, ErrUnsupportedType)
	}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	v, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

func NewTimeOfDay(hour, minute, second, nanosecond int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second, Nanosecond: nanosecond}
}

// TimeOfDayOf returns the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := TimeHandler().parse("time of day", s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDayOf(t), nil
}

func (t TimeOfDay) on(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, time.UTC)
}

func (t TimeOfDay) String() string {
	return t.on(NewDate(1, time.January, 1)).Format("15:04:05.999999999")
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.on(NewDate(1, time.January, 1)).Format(TimeHandler().ParameterFormat), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TimeOfDay{}
		return nil
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("scan time of day from %T: %w", src, ErrUnsupportedType)
	}
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// DateTime is a date and wall-clock time without a zone. Values carrying a
// zone are plain time.Time.
type DateTime struct {
	Date Date
	Time TimeOfDay
}

// DateTimeOf drops the location of t and keeps its wall clock.
func DateTimeOf(t time.Time) DateTime {
	return DateTime{Date: DateOf(t), Time: TimeOfDayOf(t)}
}

func ParseDateTime(s string) (DateTime, error) {
	t, err := DateTimeHandler().parse("date time", s)
	if err != nil {
		return DateTime{}, err
	}
	return DateTimeOf(t), nil
}

// In returns the wall clock of dt interpreted in loc.
func (dt DateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Date.Year, dt.Date.Month, dt.Date.Day,
		dt.Time.Hour, dt.Time.Minute, dt.Time.Second, dt.Time.Nanosecond, loc)
}

func (dt DateTime) IsZero() bool {
	return dt.Date.IsZero() && dt.Time == TimeOfDay{}
}

func (dt DateTime) String() string {
	return dt.In(time.UTC).Format("2006-01-02T15:04:05.999999999")
}

func (dt DateTime) Value() (driver.Value, error) {
	return dt.In(time.UTC).Format(DateTimeHandler().ParameterFormat), nil
}

func (dt *DateTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*dt = DateTime{}
		return nil
	case time.Time:
		*dt = DateTimeOf(v)
		return nil
	case string:
		return dt.UnmarshalText([]byte(v))
	case []byte:
		return dt.UnmarshalText(v)
	default:
		return fmt.Errorf("scan date time from %T: %w", src, ErrUnsupportedType)
	}
}

func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

func (dt *DateTime) UnmarshalText(text []byte) error {
	v, err := ParseDateTime(string(text))
	if err != nil {
		return err
	}
	*dt = v
	return nil
}
