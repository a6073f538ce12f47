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
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomoncle/routinedb"
	"github.com/tomoncle/routinedb/repository"
)

// RoutineName is one row of the names listing.
type RoutineName struct {
	Entity  string `json:"entity"`
	Action  string `json:"action"`
	Routine string `json:"routine"`
}

// NewNamesCommand creates the names command.
func NewNamesCommand(rootOpts *RootOptions) *cobra.Command {
	var entities []string

	cmd := &cobra.Command{
		Use:   "names",
		Short: "List the routine every entity action resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNames(rootOpts, entities, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVarP(&entities, "entity", "e", nil, "entity name (repeatable, defaults to the configured entities)")

	return cmd
}

func runNames(opts *RootOptions, entities []string, w io.Writer) error {
	f, err := routinedb.LoadFile(opts.ConfigPath)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to load configuration", Err: err}
	}
	c, err := f.Repository.Configuration()
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid repository configuration", Err: err}
	}
	if len(entities) == 0 {
		entities = f.Entities
	}
	if len(entities) == 0 {
		return &ExitError{Code: ExitCommandError, Message: "no entities configured; pass --entity"}
	}

	names := RoutineNames(c.Merge(repository.DefaultSettings()), entities)
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ENTITY\tACTION\tROUTINE")
	for _, n := range names {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Entity, n.Action, n.Routine)
	}
	return tw.Flush()
}

// RoutineNames resolves every catalog action of every entity.
func RoutineNames(s repository.Settings, entities []string) []RoutineName {
	actions := s.Actions.All()
	names := make([]RoutineName, 0, len(entities)*len(actions))
	for _, entity := range entities {
		for _, a := range actions {
			names = append(names, RoutineName{
				Entity:  entity,
				Action:  a.Name,
				Routine: repository.ResolveRoutineName(s.SimpleName(entity, a.Name, ""), s),
			})
		}
	}
	return names
}
