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
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/docpatch/cmd/docpatch/opts"
	"github.com/walteh/docpatch/pkg/outline"
	"gitlab.com/tozd/go/errors"
)

// NewOutlineCmd creates the outline command
func NewOutlineCmd(opts *opts.RootOpts) *cobra.Command {
	var numbered bool

	cmd := &cobra.Command{
		Use:   "outline <document>",
		Short: "List the headings of a markdown document",
		Long: `Outline prints every heading with its 0-based line index, which is the
index an anchor rule matching that heading resolves to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Errorf("reading document: %w", err)
			}

			headings, err := outline.Headings(data)
			if err != nil {
				return errors.Errorf("building outline: %w", err)
			}
			if numbered {
				headings = outline.Numbered(headings)
			}

			return opts.UserLogger.LogOutline(args[0], headings)
		},
	}

	cmd.Flags().BoolVar(&numbered, "numbered", false, "only show headings that start with a section number")
	return cmd
}
