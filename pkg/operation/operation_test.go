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

package operation

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/docpatch/pkg/config"
	"github.com/walteh/docpatch/pkg/document"
	"github.com/walteh/docpatch/pkg/log"
	"github.com/walteh/docpatch/pkg/patch"
	"github.com/walteh/docpatch/pkg/section"
	"gitlab.com/tozd/go/errors"
)

const designConfig = `
jobs:
  - name: design
    target: docs/design.md
    substitutions:
      - {old: "iteration: 1", new: "iteration: 2"}
    sections:
      - {id: "2.2.5", start: "INSERT AFTER SECTION 2.2", end: "## INSERT AFTER SECTION 3.3"}
      - {id: "3.3.1", start: "INSERT AFTER SECTION 3.3", end: "## UPDATE SECTION 4.2"}
      - {id: "6.5", start: "INSERT AFTER SECTION 6.4"}
      - {id: "13", start: "## INSERT NEW SECTION 13"}
    anchors:
      - {id: "2.2.5", prefix: "### 2.3", first_match_wins: false}
      - {id: "3.3.1", prefix: "### 3.4"}
      - {id: "3.3.1", prefix: "## 4."}
      - {id: "6.5", prefix: "### 6.5"}
      - {id: "6.5", prefix: "## 7."}
      - {id: "13", end_of_file: true, first_match_wins: false}
    replacements:
      - name: schema
        header: "### 4.2 Final Schema"
        open: "` + "```ruby" + `"
        close: end
        start: "## UPDATE SECTION 4.2"
        end: "## INSERT AFTER SECTION 6.4"
`

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	return log.NewContext(ctx, log.New(io.Discard, zerolog.Nop()))
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "patch", "testdata", name))
	require.NoError(t, err, "reading fixture %s", name)
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating directory")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing %s", path)
}

// setupDesign lays out a config, target and patch in a temp dir and loads the config
func setupDesign(t *testing.T, cfgText string, withPatch bool) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "design.md"), readFixture(t, "design.md"))
	if withPatch {
		writeFile(t, filepath.Join(dir, "docs", "design.md.patch"), readFixture(t, "design.md.patch"))
	}
	writeFile(t, filepath.Join(dir, "docpatch.yaml"), cfgText)

	cfg, err := config.LoadConfig(testContext(t), filepath.Join(dir, "docpatch.yaml"))
	require.NoError(t, err, "loading config")
	return dir, cfg
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		opts       func(cfg *config.Config) Options
		withPatch  bool
		wantStatus string
		check      func(t *testing.T, dir string, rep DocumentReport)
	}{
		{
			name:       "writes_document",
			opts:       func(cfg *config.Config) Options { return Options{Config: cfg} },
			withPatch:  true,
			wantStatus: log.StatusPatched,
			check: func(t *testing.T, dir string, rep DocumentReport) {
				got, err := os.ReadFile(filepath.Join(dir, "docs", "design.md"))
				require.NoError(t, err, "reading patched document")
				assert.Equal(t, readFixture(t, "design.want.md"), string(got), "patched document should match")
				assert.Empty(t, rep.Backup, "no backup requested")
				assert.NoFileExists(t, filepath.Join(dir, "docs", "design.md.bak"), "no backup written")
				require.NotNil(t, rep.Result, "result should be set")
				assert.Equal(t, 21, rep.Result.LinesBefore, "lines before")
				assert.Equal(t, 27, rep.Result.LinesAfter, "lines after")
				assert.Equal(t, []section.ID{"6.5"}, rep.Result.Unanchored, "6.5 has no anchor")
			},
		},
		{
			name:       "writes_backup",
			opts:       func(cfg *config.Config) Options { return Options{Config: cfg, Backup: true} },
			withPatch:  true,
			wantStatus: log.StatusPatched,
			check: func(t *testing.T, dir string, rep DocumentReport) {
				backup := filepath.Join(dir, "docs", "design.md.bak")
				assert.Equal(t, backup, rep.Backup, "backup path")
				got, err := os.ReadFile(backup)
				require.NoError(t, err, "reading backup")
				assert.Equal(t, readFixture(t, "design.md"), string(got), "backup should hold the original")
			},
		},
		{
			name:       "dry_run",
			opts:       func(cfg *config.Config) Options { return Options{Config: cfg, DryRun: true} },
			withPatch:  true,
			wantStatus: log.StatusDryRun,
			check: func(t *testing.T, dir string, rep DocumentReport) {
				got, err := os.ReadFile(filepath.Join(dir, "docs", "design.md"))
				require.NoError(t, err, "reading document")
				assert.Equal(t, readFixture(t, "design.md"), string(got), "dry run should not write")
				assert.Contains(t, rep.Diff, "+iteration: 2", "diff should show the substitution")
				assert.Contains(t, rep.Diff, "+### 2.2.5 Multi-factor authentication", "diff should show the insertion")
				assert.Contains(t, rep.Diff, "+  t.string :otp_secret", "diff should show the replacement")
			},
		},
		{
			name:       "missing_patch_skips",
			opts:       func(cfg *config.Config) Options { return Options{Config: cfg} },
			withPatch:  false,
			wantStatus: log.StatusSkipped,
			check: func(t *testing.T, dir string, rep DocumentReport) {
				assert.Nil(t, rep.Result, "skipped documents have no result")
				got, err := os.ReadFile(filepath.Join(dir, "docs", "design.md"))
				require.NoError(t, err, "reading document")
				assert.Equal(t, readFixture(t, "design.md"), string(got), "skipped document is untouched")
			},
		},
	}

	color.NoColor = true
	defer func() { color.NoColor = false }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, cfg := setupDesign(t, designConfig, tt.withPatch)

			op, err := New(tt.opts(cfg))
			require.NoError(t, err, "creating operator")

			reports, err := op.Apply(testContext(t))
			require.NoError(t, err, "apply should succeed")
			require.Len(t, reports, 1, "one document")

			rep := reports[0]
			assert.Equal(t, "design", rep.Job, "job label")
			assert.Equal(t, tt.wantStatus, rep.Status, "status")
			if tt.check != nil {
				tt.check(t, dir, rep)
			}
		})
	}
}

func TestApplyStrictLeavesDocument(t *testing.T) {
	dir, cfg := setupDesign(t, designConfig, true)

	op, err := New(Options{Config: cfg, Strict: true})
	require.NoError(t, err, "creating operator")

	reports, err := op.Apply(testContext(t))
	require.Error(t, err, "unanchored 6.5 should fail in strict mode")
	assert.True(t, errors.Is(err, patch.ErrUnanchored), "error should wrap ErrUnanchored")
	require.Len(t, reports, 1, "failed document is reported")
	assert.Equal(t, log.StatusFailed, reports[0].Status, "status")

	got, err := os.ReadFile(filepath.Join(dir, "docs", "design.md"))
	require.NoError(t, err, "reading document")
	assert.Equal(t, readFixture(t, "design.md"), string(got), "document must not be written")
}

func TestApplyUnchanged(t *testing.T) {
	cfgText := `
jobs:
  - target: docs/design.md
    sections:
      - {id: "1", start: "NOT IN THE PATCH"}
    anchors:
      - {id: "1", prefix: "## 9."}
`
	dir, cfg := setupDesign(t, cfgText, true)

	op, err := New(Options{Config: cfg, Backup: true})
	require.NoError(t, err, "creating operator")

	reports, err := op.Apply(testContext(t))
	require.NoError(t, err, "apply should succeed")
	require.Len(t, reports, 1, "one document")
	assert.Equal(t, log.StatusUnchanged, reports[0].Status, "nothing to do")
	assert.NoFileExists(t, filepath.Join(dir, "docs", "design.md.bak"), "unchanged documents are not backed up")
}

func TestApplyAsyncNeedsDistinctTargets(t *testing.T) {
	cfgText := "async: true\n" + designConfig + `
  - name: again
    target: docs/*.md
    substitutions:
      - {old: "a", new: "b"}
`
	_, cfg := setupDesign(t, cfgText, true)

	op, err := New(Options{Config: cfg})
	require.NoError(t, err, "creating operator")

	_, err = op.Apply(testContext(t))
	require.Error(t, err, "overlapping async jobs should fail")
	assert.Contains(t, err.Error(), "targeted by jobs design and again", "error should name both jobs")
}

func TestApplyAsync(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(dir, name+".md"), "# "+name+"\niteration: 1\n")
	}
	cfgText := `
async: true
jobs:
  - {name: a, target: a.md, substitutions: [{old: "iteration: 1", new: "iteration: 2"}]}
  - {name: b, target: b.md, patch: shared.patch, substitutions: [{old: "iteration: 1", new: "iteration: 2"}]}
  - {name: c, target: c.md, patch: shared.patch, substitutions: [{old: "iteration: 1", new: "iteration: 2"}]}
`
	writeFile(t, filepath.Join(dir, "docpatch.yaml"), cfgText)
	writeFile(t, filepath.Join(dir, "a.md.patch"), "")
	writeFile(t, filepath.Join(dir, "shared.patch"), "")

	cfg, err := config.LoadConfig(testContext(t), filepath.Join(dir, "docpatch.yaml"))
	require.NoError(t, err, "loading config")

	op, err := New(Options{Config: cfg})
	require.NoError(t, err, "creating operator")

	reports, err := op.Apply(testContext(t))
	require.NoError(t, err, "apply should succeed")
	require.Len(t, reports, 3, "three documents")

	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, reports[i].Job, "reports keep job order")
		assert.Equal(t, log.StatusPatched, reports[i].Status, "status")
		got, err := os.ReadFile(filepath.Join(dir, name+".md"))
		require.NoError(t, err, "reading %s", name)
		assert.Equal(t, "# "+name+"\niteration: 2\n", string(got), "document %s should be patched", name)
	}
}

func TestApplyCancelled(t *testing.T) {
	_, cfg := setupDesign(t, designConfig, true)

	op, err := New(Options{Config: cfg})
	require.NoError(t, err, "creating operator")

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	_, err = op.Apply(ctx)
	require.Error(t, err, "cancelled context should stop the run")
	assert.True(t, errors.Is(err, context.Canceled), "error should wrap context.Canceled")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"docs/a.md", "docs/a.md.patch", "docs/a.md.bak", "docs/sub/c.md", "docs/sub/c.txt"} {
		writeFile(t, filepath.Join(dir, p), "x\n")
	}

	tests := []struct {
		name    string
		job     config.Job
		want    []Target
		wantErr error
	}{
		{
			name: "glob_skips_patch_and_backup",
			job:  config.Job{Name: "glob", Target: "docs/**/*.md*"},
			want: []Target{
				{Path: filepath.Join(dir, "docs/a.md"), Patch: filepath.Join(dir, "docs/a.md.patch")},
				{Path: filepath.Join(dir, "docs/sub/c.md"), Patch: filepath.Join(dir, "docs/sub/c.md.patch")},
			},
		},
		{
			name: "explicit_patch_is_relative_to_dir",
			job:  config.Job{Name: "one", Target: "docs/sub/c.md", Patch: "patches/c.patch"},
			want: []Target{
				{Path: filepath.Join(dir, "docs/sub/c.md"), Patch: filepath.Join(dir, "patches/c.patch")},
			},
		},
		{
			name: "absolute_target",
			job:  config.Job{Name: "abs", Target: filepath.Join(dir, "docs/a.md")},
			want: []Target{
				{Path: filepath.Join(dir, "docs/a.md"), Patch: filepath.Join(dir, "docs/a.md.patch")},
			},
		},
		{
			name:    "no_match",
			job:     config.Job{Name: "none", Target: "missing/*.md"},
			wantErr: ErrNoTargets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(dir, &tt.job)
			if tt.wantErr != nil {
				require.Error(t, err, "resolve should fail")
				assert.True(t, errors.Is(err, tt.wantErr), "error should wrap %v", tt.wantErr)
				return
			}
			require.NoError(t, err, "resolve should succeed")
			assert.Equal(t, tt.want, got, "targets should match")
		})
	}
}

func TestAnchors(t *testing.T) {
	dir, cfg := setupDesign(t, designConfig, true)

	op, err := New(Options{Config: cfg})
	require.NoError(t, err, "creating operator")

	reports, err := op.Anchors(testContext(t))
	require.NoError(t, err, "anchors should resolve")
	require.Len(t, reports, 1, "one document")

	rep := reports[0]
	assert.Equal(t, filepath.Join(dir, "docs", "design.md"), rep.Path, "path")
	assert.Len(t, rep.Rules, 6, "all rules reported")

	lines := map[section.ID]int{}
	for id, m := range rep.Matches {
		lines[id] = m.Line
	}
	assert.Equal(t, map[section.ID]int{"2.2.5": 8, "3.3.1": 10, "13": 20}, lines, "resolved anchor lines")
	assert.True(t, strings.HasPrefix(rep.Matches["3.3.1"].Text, "## 4."), "matched text")
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err, "config is required")
}

func consoleContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	return log.NewContext(ctx, log.New(buf, zerolog.Nop())), buf
}

func TestApplyConsoleSummary(t *testing.T) {
	tests := []struct {
		name      string
		opts      func(cfg *config.Config) Options
		withPatch bool
		wantErr   bool
		want      []string
		notWant   []string
	}{
		{
			name:      "patched",
			opts:      func(cfg *config.Config) Options { return Options{Config: cfg} },
			withPatch: true,
			want:      []string{"docpatch • applying patches", "✅ 1 of 1 documents patched"},
			notWant:   []string{"⚠️", "❌"},
		},
		{
			name:      "dry_run",
			opts:      func(cfg *config.Config) Options { return Options{Config: cfg, DryRun: true} },
			withPatch: true,
			want:      []string{"docpatch • dry run, nothing is written", "✅ 1 of 1 documents would change"},
		},
		{
			name:      "skipped_warns",
			opts:      func(cfg *config.Config) Options { return Options{Config: cfg} },
			withPatch: false,
			want:      []string{"⚠️  ", "design.md.patch not found, skipped", "✅ 0 of 1 documents patched"},
		},
		{
			name:      "failed_reports_error",
			opts:      func(cfg *config.Config) Options { return Options{Config: cfg, Strict: true} },
			withPatch: true,
			wantErr:   true,
			want:      []string{"❌ ", "content has no resolved anchor"},
			notWant:   []string{"✅"},
		},
	}

	color.NoColor = true
	defer func() { color.NoColor = false }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg := setupDesign(t, designConfig, tt.withPatch)
			ctx, buf := consoleContext(t)

			op, err := New(tt.opts(cfg))
			require.NoError(t, err, "creating operator")

			_, err = op.Apply(ctx)
			if tt.wantErr {
				require.Error(t, err, "apply should fail")
			} else {
				require.NoError(t, err, "apply should succeed")
			}

			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w, "console output")
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w, "console output")
			}
		})
	}
}

func TestApplyConcurrencyLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(dir, name+".md"), "# "+name+"\niteration: 1\n")
		writeFile(t, filepath.Join(dir, name+".md.patch"), "")
	}
	cfgText := `
async: true
concurrency: 1
jobs:
  - {name: a, target: a.md, substitutions: [{old: "iteration: 1", new: "iteration: 2"}]}
  - {name: b, target: b.md, substitutions: [{old: "iteration: 1", new: "iteration: 2"}]}
  - {name: c, target: c.md, substitutions: [{old: "iteration: 1", new: "iteration: 2"}]}
`
	writeFile(t, filepath.Join(dir, "docpatch.yaml"), cfgText)

	cfg, err := config.LoadConfig(testContext(t), filepath.Join(dir, "docpatch.yaml"))
	require.NoError(t, err, "loading config")

	op, err := New(Options{Config: cfg})
	require.NoError(t, err, "creating operator")
	assert.Equal(t, 1, op.runner.limit, "runner should take the configured limit")

	reports, err := op.Apply(testContext(t))
	require.NoError(t, err, "apply should succeed")
	require.Len(t, reports, 3, "three documents")
	for _, rep := range reports {
		assert.Equal(t, log.StatusPatched, rep.Status, "status of %s", rep.Job)
	}
}

func TestRestore(t *testing.T) {
	dir, cfg := setupDesign(t, designConfig, true)
	path := filepath.Join(dir, "docs", "design.md")

	op, err := New(Options{Config: cfg, Backup: true})
	require.NoError(t, err, "creating operator")
	_, err = op.Apply(testContext(t))
	require.NoError(t, err, "apply should succeed")

	t.Run("dry_run_lists_only", func(t *testing.T) {
		dry, err := New(Options{Config: cfg, DryRun: true})
		require.NoError(t, err, "creating operator")

		restored, err := dry.Restore(testContext(t))
		require.NoError(t, err, "restore should succeed")
		assert.Equal(t, []string{path}, restored, "backup would be restored")
		assert.FileExists(t, document.BackupPath(path), "dry run keeps the backup")
	})

	t.Run("restores_backup", func(t *testing.T) {
		restored, err := op.Restore(testContext(t))
		require.NoError(t, err, "restore should succeed")
		assert.Equal(t, []string{path}, restored, "restored paths")

		got, err := os.ReadFile(path)
		require.NoError(t, err, "reading restored document")
		assert.Equal(t, readFixture(t, "design.md"), string(got), "original content is back")
		assert.NoFileExists(t, document.BackupPath(path), "backup is consumed")
	})

	t.Run("missing_backup_warns", func(t *testing.T) {
		color.NoColor = true
		defer func() { color.NoColor = false }()

		ctx, buf := consoleContext(t)
		restored, err := op.Restore(ctx)
		require.NoError(t, err, "a missing backup is not an error")
		assert.Empty(t, restored, "nothing restored")
		assert.Contains(t, buf.String(), "design.md: no backup to restore", "missing backup should warn")
	})
}
