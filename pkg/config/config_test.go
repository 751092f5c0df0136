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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/docpatch/pkg/anchor"
	"github.com/walteh/docpatch/pkg/section"
	"gitlab.com/tozd/go/errors"
)

const validYAML = `
backup: true
jobs:
  - name: auth-design
    target: docs/designs/auth.md
    substitutions:
      - old: "iteration: 1"
        new: "iteration: 2"
    sections:
      - id: "2.2.5"
        start: INSERT AFTER SECTION 2.2
        end: "## INSERT AFTER SECTION 3.3"
      - id: "13"
        start: "## INSERT NEW SECTION 13"
    anchors:
      - id: "2.2.5"
        prefix: "### 2.3"
        first_match_wins: false
      - id: "13"
        end_of_file: true
    replacements:
      - name: schema
        header: "### 4.2 Final Schema"
        open: "` + "```ruby" + `"
        close: end
        start: "## UPDATE SECTION 4.2"
        end: "## INSERT AFTER SECTION 6.4"
`

const validJSON = `{
  "async": true,
  "concurrency": 2,
  "jobs": [
    {
      "target": "docs/**/*.md",
      "sections": [{"id": "6.5", "start": "INSERT AFTER SECTION 6.4"}],
      "anchors": [{"id": "6.5", "regex": "^## 7\\."}]
    }
  ]
}`

const validHCL = `
backup      = true
concurrency = 4

job "auth-design" {
  target = "docs/designs/auth.md"
  patch  = "docs/designs/auth${patch_suffix}"
  strict = true

  substitution {
    old = "iteration: 1"
    new = "iteration: 2"
  }

  section {
    id    = "2.2.5"
    start = "INSERT AFTER SECTION 2.2"
    end   = "## INSERT AFTER SECTION 3.3"
  }

  anchor {
    id     = "2.2.5"
    prefix = "### 2.3"
  }

  replacement "schema" {
    header = "### 4.2 Final Schema"
    open   = "rb"
    close  = "end"
    window = 50
    start  = "## UPDATE SECTION 4.2"
  }
}
`

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "yaml",
			filename: "docpatch.yaml",
			config:   validYAML,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Backup, "backup should be set")
				require.Len(t, cfg.Jobs, 1, "one job")
				job := cfg.Jobs[0]
				assert.Equal(t, "auth-design", job.Name, "job name")
				assert.Equal(t, "docs/designs/auth.md.patch", job.PatchFor(job.Target), "patch defaults to target suffix")

				plan, err := job.Plan()
				require.NoError(t, err, "plan conversion should succeed")
				assert.Len(t, plan.Sections, 2, "sections")
				assert.Equal(t, section.ID("2.2.5"), plan.Sections[0].ID, "section id")
				assert.Equal(t, anchor.MatchPrefix, plan.Anchors[0].Kind, "prefix kind")
				assert.False(t, plan.Anchors[0].FirstMatchWins, "explicit first_match_wins false")
				assert.Equal(t, anchor.MatchEndOfFile, plan.Anchors[1].Kind, "end of file kind")
				assert.True(t, plan.Anchors[1].FirstMatchWins, "first_match_wins defaults to true")
				require.Len(t, plan.Replacements, 1, "one replacement")
				assert.Equal(t, "```ruby", plan.Replacements[0].Open, "open delimiter")
				assert.Equal(t, "iteration: 2", plan.Substitutions[0].ToText, "substitution")
			},
		},
		{
			name:     "json",
			filename: "docpatch.json",
			config:   validJSON,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Async, "async should be set")
				assert.Equal(t, 2, cfg.Concurrency, "concurrency should be set")
				assert.Equal(t, "#0", cfg.Jobs[0].Label(0), "unnamed job label")
				plan, err := cfg.Jobs[0].Plan()
				require.NoError(t, err, "plan conversion should succeed")
				assert.Equal(t, anchor.MatchRegex, plan.Anchors[0].Kind, "regex kind")
				assert.Equal(t, `^## 7\.`, plan.Anchors[0].Pattern, "regex pattern")
			},
		},
		{
			name:     "hcl",
			filename: "docpatch.hcl",
			config:   validHCL,
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Jobs, 1, "one job")
				job := cfg.Jobs[0]
				assert.Equal(t, "auth-design", job.Name, "label becomes the name")
				assert.True(t, job.Strict, "strict should be set")
				assert.Equal(t, "docs/designs/auth.patch", job.PatchFor(job.Target), "variables should be expanded")
				require.Len(t, job.Replacements, 1, "one replacement")
				assert.Equal(t, "schema", job.Replacements[0].Name, "replacement label")
				assert.Equal(t, 50, job.Replacements[0].Window, "window")
				assert.Equal(t, 4, cfg.Concurrency, "concurrency should be set")
			},
		},
		{
			name:     "dotfile_yaml",
			filename: ".docpatch",
			config:   validYAML,
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Jobs, 1, "yaml dotfile should parse")
			},
		},
		{
			name:     "dotfile_hcl",
			filename: ".docpatch",
			config:   validHCL,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "auth-design", cfg.Jobs[0].Name, "hcl dotfile should parse")
			},
		},
		{
			name:        "unknown_field",
			filename:    "docpatch.yaml",
			config:      "jobs:\n  - target: a.md\n    colour: red\n",
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:        "no_jobs",
			filename:    "docpatch.yaml",
			config:      "backup: true\n",
			wantErr:     true,
			errContains: "config has no jobs",
		},
		{
			name:        "missing_target",
			filename:    "docpatch.yaml",
			config:      "jobs:\n  - name: x\n",
			wantErr:     true,
			errContains: "job x: target is required",
		},
		{
			name:        "ambiguous_anchor",
			filename:    "docpatch.yaml",
			config:      "jobs:\n  - target: a.md\n    anchors:\n      - {id: '1', prefix: '## 1', contains: 'x'}\n",
			wantErr:     true,
			errContains: "only one of prefix",
		},
		{
			name:        "empty_anchor",
			filename:    "docpatch.yaml",
			config:      "jobs:\n  - target: a.md\n    anchors:\n      - {id: '1'}\n",
			wantErr:     true,
			errContains: "one of prefix, contains, equals, regex or end_of_file is required",
		},
		{
			name:        "bad_regex",
			filename:    "docpatch.yaml",
			config:      "jobs:\n  - target: a.md\n    anchors:\n      - {id: '1', regex: '('}\n",
			wantErr:     true,
			errContains: "compiling pattern",
		},
		{
			name:        "negative_concurrency",
			filename:    "docpatch.yaml",
			config:      "concurrency: -1\njobs:\n  - target: a.md\n",
			wantErr:     true,
			errContains: "concurrency must not be negative",
		},
		{
			name:        "unsupported_extension",
			filename:    "docpatch.toml",
			config:      "",
			wantErr:     true,
			errContains: "unsupported file extension",
		},
	}

	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.filename)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			cfg, err := LoadConfig(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "LoadConfig should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "LoadConfig should succeed")
			assert.Equal(t, configPath, cfg.Location(), "location should be recorded")
			assert.Equal(t, filepath.Dir(configPath), cfg.Dir(), "dir should be the config directory")
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	_, err := LoadConfig(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err, "missing file should fail")
	assert.Contains(t, err.Error(), "reading config file", "error should explain")
}

func TestValidateNoJobs(t *testing.T) {
	err := (&Config{}).Validate()
	assert.True(t, errors.Is(err, ErrNoJobs), "empty config should return ErrNoJobs")
	assert.Equal(t, ".", (&Config{}).Dir(), "unloaded config resolves against the working directory")
}
