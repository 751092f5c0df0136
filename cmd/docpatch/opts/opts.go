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

package opts

import (
	"context"
	"io"
	"os"

	"github.com/walteh/docpatch/pkg/config"
	"github.com/walteh/docpatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigFile is used when --config is not given
const DefaultConfigFile = ".docpatch.yaml"

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool
	Out        io.Writer
	UserLogger *status.UserLogger

	config *config.Config
}

// Stdout returns where command output goes
func (o *RootOpts) Stdout() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// LoadConfig loads the config file once; commands that never need it never read it
func (o *RootOpts) LoadConfig(ctx context.Context) (*config.Config, error) {
	if o.config != nil {
		return o.config, nil
	}
	path := o.ConfigFile
	if path == "" {
		path = DefaultConfigFile
	}
	cfg, err := config.LoadConfig(ctx, path)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	o.config = cfg
	return cfg, nil
}
