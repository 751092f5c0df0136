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
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/docpatch/cmd/docpatch/opts"
	"github.com/walteh/docpatch/pkg/marker"
	"gitlab.com/tozd/go/errors"
)

// NewExtractCmd creates the extract command
func NewExtractCmd(opts *opts.RootOpts) *cobra.Command {
	var patchFile, start, end, prefix string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the content between two markers of a patch file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(patchFile)
			if err != nil {
				return errors.Errorf("reading patch: %w", err)
			}

			content := marker.New(prefix).Extract(string(data), start, end)
			if content == "" {
				opts.UserLogger.LogValidation(false, fmt.Sprintf("no content found after %q", start), nil)
				return nil
			}
			fmt.Fprintln(opts.Stdout(), content)
			return nil
		},
	}

	cmd.Flags().StringVar(&patchFile, "patch", "", "patch file to read")
	cmd.Flags().StringVar(&start, "start", "", "start marker")
	cmd.Flags().StringVar(&end, "end", "", "end marker; empty reads to the end of the patch")
	cmd.Flags().StringVar(&prefix, "marker-prefix", marker.DefaultHeaderPrefix, "heading prefix of marker lines")
	_ = cmd.MarkFlagRequired("patch")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}
