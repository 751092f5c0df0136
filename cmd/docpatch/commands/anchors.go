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

// NewAnchorsCmd creates the anchors command
func NewAnchorsCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchors",
		Short: "Show the line each anchor rule resolves to",
		Long: `Anchors loads every target document and prints, per section id, the
rule that claimed a line and the line itself. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.LoadConfig(ctx)
			if err != nil {
				return err
			}

			op, err := operation.New(operation.Options{Config: cfg})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			reports, err := op.Anchors(ctx)
			if err != nil {
				return errors.Errorf("resolving anchors: %w", err)
			}

			for _, rep := range reports {
				if err := opts.UserLogger.LogAnchors(rep.Path, rep.Rules, rep.Matches); err != nil {
					return errors.Errorf("rendering anchors: %w", err)
				}
			}
			return nil
		},
	}

	return cmd
}
