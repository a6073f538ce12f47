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

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const namesConfig = `
connections:
  - key: main
    provider: sqlite
repository:
  schema: app
  routines:
    prefix: fn_
entities: [Order]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routinedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"names", "ping"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestNamesText(t *testing.T) {
	path := writeConfig(t, namesConfig)

	out, err := execute(t, "names", "--config", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 22)
	assert.Equal(t, []string{"ENTITY", "ACTION", "ROUTINE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Order", "Create", "app.fn_order_create"}, strings.Fields(lines[1]))
	assert.Contains(t, out, "app.fn_order_get_many_extended_translated_paged")
}

func TestNamesJSON(t *testing.T) {
	path := writeConfig(t, namesConfig)

	out, err := execute(t, "names", "-c", path, "--format", "json", "--entity", "Customer", "--entity", "Invoice")
	require.NoError(t, err)

	var names []RoutineName
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	require.Len(t, names, 42)
	assert.Equal(t, RoutineName{Entity: "Customer", Action: "GetById", Routine: "app.fn_customer_get_by_id"}, names[5])
	assert.Equal(t, "Invoice", names[21].Entity)
}

func TestNamesErrors(t *testing.T) {
	_, err := execute(t, "names", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	path := writeConfig(t, "repository:\n  schema: app\n")
	_, err = execute(t, "names", "--config", path)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "names", "--config", path, "--format", "xml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPingSQLite(t *testing.T) {
	path := writeConfig(t, namesConfig)

	out, err := execute(t, "ping", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "true")
}

func TestPingWithoutConnections(t *testing.T) {
	path := writeConfig(t, "entities: [Order]\n")
	_, err := execute(t, "ping", "--config", path)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
