// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/docpatch/cmd/docpatch/opts"
	"github.com/walteh/docpatch/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Move <target>.bak backups back over their documents",
		Long: `Restore undoes an apply run that wrote backups. Every target document
with a backup is replaced by it and the backup is removed. Targets without
a backup are reported and left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.LoadConfig(ctx)
			if err != nil {
				return err
			}

			op, err := operation.New(operation.Options{Config: cfg, DryRun: dryRun})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			restored, err := op.Restore(ctx)
			for _, path := range restored {
				if dryRun {
					opts.UserLogger.LogStateChange("would restore " + path)
				} else {
					opts.UserLogger.LogStateChange("restored " + path)
				}
			}
			if err != nil {
				return errors.Errorf("restoring backups: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the backups that would be restored")
	return cmd
}
