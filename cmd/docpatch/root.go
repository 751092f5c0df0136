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

package main

import (
	"github.com/spf13/cobra"
	"github.com/walteh/docpatch/cmd/docpatch/commands"
	"github.com/walteh/docpatch/cmd/docpatch/opts"
	"github.com/walteh/docpatch/pkg/log"
	"github.com/walteh/docpatch/pkg/status"
)

// newRootCmd builds the command tree; flags are bound to a fresh RootOpts each time
func newRootCmd() *cobra.Command {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "docpatch",
		Short: "Apply structured patches to versioned markdown documents",
		Long: `docpatch evolves a versioned document by inserting sections from a patch
file at numbered-section anchors and replacing fenced blocks inside sections.
Which sections go where is configuration, never code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd, rootOpts)
			return nil
		},
	}

	addRootFlags(rootCmd, rootOpts)

	rootCmd.AddCommand(
		commands.NewApplyCmd(rootOpts),
		commands.NewAnchorsCmd(rootOpts),
		commands.NewExtractCmd(rootOpts),
		commands.NewOutlineCmd(rootOpts),
		commands.NewRestoreCmd(rootOpts),
		newVersionCmd(rootOpts),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", opts.DefaultConfigFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog and the console loggers once flags are parsed
func setupLogging(cmd *cobra.Command, o *opts.RootOpts) {
	o.Out = cmd.OutOrStdout()

	zlog := log.Setup(o.Out, o.Debug)
	ctx := zlog.WithContext(cmd.Context())
	ctx = log.NewContext(ctx, log.New(o.Out, zlog))

	o.UserLogger = status.NewUserLogger(ctx, o.Out)
	cmd.SetContext(ctx)
}
