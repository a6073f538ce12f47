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

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerIsRegistered(t *testing.T) {
	l := NewLogger("UTILS_TEST")
	assert.Same(t, l, NewLogger("UTILS_TEST"))

	assert.True(t, SetLoggerLevel("UTILS_TEST", "debug"))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("MISSING", "debug"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("WARNING"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("chatty"))
}

func TestLog4jFormatterAppendsFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&Log4jColorFormatter{LoggerName: "ROUTINEDB", NameWidth: 10, NoColor: true})

	l.WithFields(logrus.Fields{"routine": "app.fn_order_get_by_id", "action": "GetById"}).Info("Routine executed")

	out := buf.String()
	assert.Contains(t, out, " INFO ")
	assert.Contains(t, out, " ROUTINEDB :")
	assert.Contains(t, out, "Routine executed action=GetById routine=app.fn_order_get_by_id")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "ROUTINEDB"})

	l.WithField("error", errors.New("boom")).Warn("Routine failed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "ROUTINEDB", rec["model"])
	assert.Equal(t, "boom", rec["fields"].(map[string]any)["error"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ROUTINEDB_TEST_FLAG", "true")
	assert.True(t, EnvDefaultBool("ROUTINEDB_TEST_FLAG", false))
	assert.Equal(t, "fallback", EnvDefaultString("ROUTINEDB_TEST_MISSING", "fallback"))
}

func TestConfigureReachesRegisteredLoggers(t *testing.T) {
	l := NewLogger("UTILS_FORMAT_TEST")
	t.Cleanup(func() {
		ConfigureConsoleLogFormat("text")
		ConfigureOutput(os.Stdout)
	})

	var buf bytes.Buffer
	ConfigureConsoleLogFormat("JSON")
	ConfigureOutput(&buf)
	assert.IsType(t, &JSONLogFormatter{}, l.Formatter)

	l.Warn("Pool exhausted")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "UTILS_FORMAT_TEST", rec["model"])

	ConfigureConsoleLogFormat("text")
	assert.IsType(t, &Log4jColorFormatter{}, l.Formatter)
	assert.IsType(t, &Log4jColorFormatter{}, NewLogger("UTILS_FORMAT_TEST_2").Formatter)
}
