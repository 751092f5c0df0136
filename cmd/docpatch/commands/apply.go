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
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/walteh/docpatch/cmd/docpatch/opts"
	"github.com/walteh/docpatch/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

type applyFlags struct {
	target string
	patch  string
	dryRun bool
	backup bool
	strict bool
}

func (f *applyFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.target, "target", "", "override the first job's target document")
	fs.StringVar(&f.patch, "patch", "", "override the first job's patch file")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print a diff instead of writing")
	fs.BoolVar(&f.backup, "backup", false, "write <target>.bak before overwriting")
	fs.BoolVar(&f.strict, "strict", false, "fail when content has no anchor or a replacement target is missing")
}

// NewApplyCmd creates the apply command
func NewApplyCmd(opts *opts.RootOpts) *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply patch files to their target documents",
		Long: `Apply patches every target document named in the config.
For each document it will:
1. Apply the configured substitutions
2. Extract every section from the patch file by its markers
3. Insert each section at the line its anchor rule matched
4. Replace configured fenced blocks
5. Write the document once, only when every step succeeded`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.LoadConfig(ctx)
			if err != nil {
				return err
			}

			// flag paths are relative to the working directory, not the config
			if flags.target != "" {
				abs, err := filepath.Abs(flags.target)
				if err != nil {
					return errors.Errorf("resolving target: %w", err)
				}
				cfg.Jobs[0].Target = abs
			}
			if flags.patch != "" {
				abs, err := filepath.Abs(flags.patch)
				if err != nil {
					return errors.Errorf("resolving patch: %w", err)
				}
				cfg.Jobs[0].Patch = abs
			}

			opts.UserLogger.LogStateChange(fmt.Sprintf("loaded %d jobs from %s", len(cfg.Jobs), cfg.Location()))

			op, err := operation.New(operation.Options{
				Config: cfg,
				DryRun: flags.dryRun,
				Backup: flags.backup,
				Strict: flags.strict,
			})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			reports, runErr := op.Apply(ctx)
			for _, rep := range reports {
				if rep.Result == nil {
					continue
				}
				opts.UserLogger.LogResult(rep.Target.Path, rep.Result, flags.dryRun)
				if rep.Diff != "" {
					fmt.Fprint(opts.Stdout(), rep.Diff)
				}
			}
			if runErr != nil {
				return errors.Errorf("applying patches: %w", runErr)
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	return cmd
}
