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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/atomic"
)

const (
	ansiReset     = "\x1b[0m"
	ansiRed       = "\x1b[31m"
	ansiYellow    = "\x1b[33m"
	ansiGreen     = "\x1b[32m"
	ansiBlue      = "\x1b[34m"
	ansiMagenta   = "\x1b[35m"
	ansiCyan      = "\x1b[36m"
	ansiBGGreen   = "\x1b[42;97m"
	ansiBGYellow  = "\x1b[43;97m"
	ansiBGBlue    = "\x1b[44;97m"
	ansiBGMagenta = "\x1b[45;97m"
	ansiBGRed     = "\x1b[41;97m"
)

var commandLogSilent = atomic.NewBool(false)

// EnableCommandLogSilent mutes every LogHook and SlowCommandHook.
func EnableCommandLogSilent(b bool) {
	commandLogSilent.Store(b)
}

func colorWrap(s, code string) string { return code + s + ansiReset }

// CommandEvent describes one routine execution.
type CommandEvent struct {
	Repository    string
	Action        string
	Routine       string
	Statement     string
	Args          []any
	InTransaction bool
	StartTime     time.Time
	// EndTime is set once the command returns.
	EndTime time.Time
	// RowsAffected is -1 for queries.
	RowsAffected int64
	Err          error
}

// Duration returns the execution time of the command, or the time elapsed
// so far while EndTime is unset.
func (e *CommandEvent) Duration() time.Duration {
	if e.EndTime.IsZero() {
		return time.Since(e.StartTime)
	}
	return e.EndTime.Sub(e.StartTime)
}

// CommandHook observes routine executions.
type CommandHook interface {
	BeforeCommand(ctx context.Context, event *CommandEvent) context.Context
	AfterCommand(ctx context.Context, event *CommandEvent)
}

// LogHook prints commands to a writer with colors keyed by action.
type LogHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

type LogHookOption func(*LogHook)

// WithEnabled turns logging on without the environment variable.
func WithEnabled(on bool) LogHookOption {
	return func(h *LogHook) { h.enabled = on }
}

// WithVerbose logs successful commands too, not only failures.
func WithVerbose(on bool) LogHookOption {
	return func(h *LogHook) { h.verbose = on }
}

func WithWriter(w io.Writer) LogHookOption {
	return func(h *LogHook) { h.writer = w }
}

// FromEnv reads the switch from an environment variable: "1" logs failures,
// "2" logs every command, "0" or empty disables logging.
func FromEnv(name string) LogHookOption {
	return func(h *LogHook) { h.envName = name }
}

// NewLogHook returns a LogHook controlled by ROUTINEDEBUG unless configured
// otherwise.
func NewLogHook(opts ...LogHookOption) *LogHook {
	h := &LogHook{envName: "ROUTINEDEBUG", writer: os.Stderr}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ CommandHook = (*LogHook)(nil)

func (h *LogHook) BeforeCommand(ctx context.Context, _ *CommandEvent) context.Context {
	return ctx
}

func (h *LogHook) AfterCommand(_ context.Context, event *CommandEvent) {
	if commandLogSilent.Load() {
		return
	}
	enabled := h.enabled
	verbose := h.verbose
	if env, ok := os.LookupEnv(h.envName); ok && h.envName != "" {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	tag := "[ROUTINE]"
	if event.InTransaction {
		tag = "[ROUTINE:TX]"
	}
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%14s", tag), ansiCyan),
		fmt.Sprintf("%17s", event.Duration().Round(time.Microsecond)),
		"  ", colorWrap(event.Statement, actionColor(event.Action)),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args,
			"\t",
			color.New(color.BgRed).Sprintf(" %s ", typ+": "+event.Err.Error()),
		)
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func actionColor(action string) string {
	switch {
	case strings.HasPrefix(action, "Get"):
		return ansiGreen
	case strings.HasPrefix(action, "Create"):
		return ansiBlue
	case strings.HasPrefix(action, "Update"), strings.HasPrefix(action, "Patch"):
		return ansiYellow
	case strings.HasPrefix(action, "Delete"):
		return ansiMagenta
	default:
		return ansiRed
	}
}

func actionBackground(action string) string {
	switch actionColor(action) {
	case ansiGreen:
		return ansiBGGreen
	case ansiBlue:
		return ansiBGBlue
	case ansiYellow:
		return ansiBGYellow
	case ansiMagenta:
		return ansiBGMagenta
	default:
		return ansiBGRed
	}
}

// SlowCommandHook reports successful commands slower than a threshold.
type SlowCommandHook struct {
	threshold time.Duration
	logger    Logger
	writer    io.Writer
}

// NewSlowCommandHook reports through logger when it is not nil, otherwise to
// writer with a highlighted statement.
func NewSlowCommandHook(threshold time.Duration, logger Logger, writer io.Writer) *SlowCommandHook {
	return &SlowCommandHook{threshold: threshold, logger: logger, writer: writer}
}

var _ CommandHook = (*SlowCommandHook)(nil)

func (h *SlowCommandHook) BeforeCommand(ctx context.Context, _ *CommandEvent) context.Context {
	return ctx
}

func (h *SlowCommandHook) AfterCommand(_ context.Context, event *CommandEvent) {
	if commandLogSilent.Load() || event.Err != nil || h.threshold <= 0 {
		return
	}
	duration := event.Duration()
	if duration <= h.threshold {
		return
	}
	if h.logger != nil {
		h.logger.Warn("Slow routine detected",
			"duration", duration,
			"slow_threshold", h.threshold,
			"routine", event.Routine,
			"action", event.Action,
		)
		return
	}
	if h.writer != nil {
		_, _ = fmt.Fprintln(h.writer,
			time.Now().Format("2006-01-02 15:04:05.000"),
			colorWrap(fmt.Sprintf("%14s", "[ROUTINE_SLOW]"), ansiYellow),
			fmt.Sprintf("%17s", duration.Round(time.Microsecond)),
			"  ", colorWrap(event.Statement, actionBackground(event.Action)),
		)
	}
}

// HooksFor returns the hooks enabled by a connection configuration.
func HooksFor(cfg ConnectionConfiguration, logger Logger) []CommandHook {
	var hooks []CommandHook
	if cfg.EnableCommandLog {
		hooks = append(hooks, NewLogHook(WithEnabled(true), WithVerbose(true)))
	}
	if cfg.SlowCommandTime > 0 {
		hooks = append(hooks, NewSlowCommandHook(cfg.SlowCommandTime, logger, nil))
	}
	return hooks
}
