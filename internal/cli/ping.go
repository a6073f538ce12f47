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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomoncle/routinedb"
	"github.com/tomoncle/routinedb/database"
)

// NewPingCommand creates the ping command.
func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Open every configured connection and report its health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runPing(ctx, rootOpts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")

	return cmd
}

func runPing(ctx context.Context, opts *RootOptions, w io.Writer) error {
	env, err := routinedb.Setup().FromFile(opts.ConfigPath).Build()
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to build environment", Err: err}
	}
	defer func() { _ = env.Close() }()

	statuses := env.Factory.HealthCheck(ctx)
	if err := writeStatuses(opts.Format, statuses, w); err != nil {
		return err
	}
	for _, s := range statuses {
		if !s.Healthy {
			return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("connection %q is unhealthy", s.Key)}
		}
	}
	return nil
}

func writeStatuses(format string, statuses []*database.HealthStatus, w io.Writer) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tHEALTHY\tRESPONSE\tCONNS\tERROR")
	for _, s := range statuses {
		_, _ = fmt.Fprintf(tw, "%s\t%t\t%s\t%d/%d\t%s\n",
			s.Key, s.Healthy, s.ResponseTime.Round(time.Microsecond), s.ActiveConns, s.MaxOpenConns, s.LastError)
	}
	return tw.Flush()
}
