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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/docpatch/pkg/anchor"
	"github.com/walteh/docpatch/pkg/config"
	"github.com/walteh/docpatch/pkg/document"
	"github.com/walteh/docpatch/pkg/edit"
	"github.com/walteh/docpatch/pkg/log"
	"github.com/walteh/docpatch/pkg/patch"
	"github.com/walteh/docpatch/pkg/section"
	"gitlab.com/tozd/go/errors"
)

// ErrNoTargets is returned when a job's target matches no files
var ErrNoTargets = errors.Base("no target documents matched")

// 🔧 Options contains configuration for the operator
type Options struct {
	// Config is the docpatch configuration
	Config *config.Config
	// DryRun computes results and diffs without writing
	DryRun bool
	// Backup writes <target>.bak before overwriting, in addition to the config setting
	Backup bool
	// Strict turns unanchored content and missing replacement headers into errors for every job
	Strict bool
}

// 🎯 Target is one resolved document and the patch applied to it
type Target struct {
	Path  string
	Patch string
}

// 📄 DocumentReport is the outcome of one target document
type DocumentReport struct {
	Job    string
	Target Target
	Status string
	Result *patch.Result
	// Diff is set for dry runs that would change the document
	Diff string
	// Backup is the backup path written before saving, if any
	Backup string
	// Err is why a failed document failed
	Err error
}

// 📍 AnchorReport shows what each rule of a job resolves to in one document
type AnchorReport struct {
	Job     string
	Path    string
	Rules   []anchor.Rule
	Matches map[section.ID]anchor.Match
}

// 🎮 Operator applies every job of a config
type Operator struct {
	config *config.Config
	opts   Options
	runner *Runner
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (*Operator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	return &Operator{
		config: opts.Config,
		opts:   opts,
		runner: NewRunner(opts.Config.Async).WithLimit(opts.Config.Concurrency),
	}, nil
}

// 🔍 Resolve expands a job's target glob into documents paired with their patch files.
// Relative paths resolve against dir.
func Resolve(dir string, job *config.Job) ([]Target, error) {
	pattern := job.Target
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(dir, pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("expanding target %q: %w", job.Target, err)
	}

	var targets []Target
	for _, m := range matches {
		if strings.HasSuffix(m, config.DefaultPatchSuffix) || strings.HasSuffix(m, document.BackupSuffix) {
			continue
		}
		p := job.PatchFor(m)
		if job.Patch != "" && !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		targets = append(targets, Target{Path: m, Patch: p})
	}
	if len(targets) == 0 {
		return nil, errors.Errorf("job %s: %w: %s", job.Name, ErrNoTargets, job.Target)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].Path < targets[j].Path })
	return targets, nil
}

type jobWork struct {
	label   string
	job     *config.Job
	plan    patch.Plan
	targets []Target
}

// prepare resolves and plans every job up front so configuration problems fail before any write
func (o *Operator) prepare() ([]*jobWork, error) {
	var work []*jobWork
	owners := map[string]string{}

	for i := range o.config.Jobs {
		job := &o.config.Jobs[i]
		label := job.Label(i)

		plan, err := job.Plan()
		if err != nil {
			return nil, errors.Errorf("job %s: %w", label, err)
		}
		if o.opts.Strict {
			plan.Strict = true
		}

		targets, err := Resolve(o.config.Dir(), job)
		if err != nil {
			return nil, err
		}

		if o.config.Async {
			for _, t := range targets {
				if other, ok := owners[t.Path]; ok {
					return nil, errors.Errorf("%s is targeted by jobs %s and %s; async jobs need distinct targets", t.Path, other, label)
				}
				owners[t.Path] = label
			}
		}

		work = append(work, &jobWork{label: label, job: job, plan: plan, targets: targets})
	}
	return work, nil
}

// 🚀 Apply patches every target of every job and returns the reports in job order
func (o *Operator) Apply(ctx context.Context) ([]DocumentReport, error) {
	work, err := o.prepare()
	if err != nil {
		return nil, err
	}

	reports := make([][]DocumentReport, len(work))
	tasks := make([]Task, len(work))
	for i, w := range work {
		tasks[i] = func(ctx context.Context) error {
			for _, t := range w.targets {
				if err := ctx.Err(); err != nil {
					return errors.Errorf("job %s cancelled: %w", w.label, err)
				}
				rep, err := o.applyDocument(ctx, w, t)
				if err != nil {
					reports[i] = append(reports[i], DocumentReport{Job: w.label, Target: t, Status: log.StatusFailed, Err: err})
					return err
				}
				reports[i] = append(reports[i], *rep)
			}
			return nil
		}
	}

	runErr := o.runner.Run(ctx, tasks...)

	var all []DocumentReport
	for _, r := range reports {
		all = append(all, r...)
	}
	o.logReports(ctx, work, reports, runErr)
	return all, runErr
}

func (o *Operator) applyDocument(ctx context.Context, w *jobWork, t Target) (*DocumentReport, error) {
	logger := zerolog.Ctx(ctx).With().Str("job", w.label).Str("target", t.Path).Logger()
	ctx = logger.WithContext(ctx)
	rep := &DocumentReport{Job: w.label, Target: t}

	patchText, err := os.ReadFile(t.Patch)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("patch", t.Patch).Msg("patch file not found, skipping")
			rep.Status = log.StatusSkipped
			return rep, nil
		}
		return nil, errors.Errorf("reading patch %s: %w", t.Patch, err)
	}

	doc, err := document.Load(ctx, t.Path)
	if err != nil {
		return nil, err
	}
	before := doc.String()

	res, err := patch.Apply(ctx, doc, string(patchText), w.plan)
	if err != nil {
		return nil, errors.Errorf("applying %s: %w", t.Patch, err)
	}
	rep.Result = res

	switch {
	case !res.Changed():
		rep.Status = log.StatusUnchanged
	case o.opts.DryRun:
		rep.Status = log.StatusDryRun
		rep.Diff = Diff(before, doc.String())
	default:
		if o.opts.Backup || o.config.Backup {
			rep.Backup, err = document.Backup(ctx, t.Path)
			if err != nil {
				return nil, errors.Errorf("backing up %s: %w", t.Path, err)
			}
		}
		if err := doc.Save(ctx, t.Path); err != nil {
			return nil, errors.Errorf("saving %s: %w", t.Path, err)
		}
		rep.Status = log.StatusPatched
	}

	logger.Debug().Str("status", rep.Status).Int("lines_before", res.LinesBefore).Int("lines_after", res.LinesAfter).Msg("document done")
	return rep, nil
}

func (o *Operator) logReports(ctx context.Context, work []*jobWork, reports [][]DocumentReport, runErr error) {
	console := log.FromContext(ctx)
	if o.opts.DryRun {
		console.Header("dry run, nothing is written")
	} else {
		console.Header("applying patches")
	}

	total, changed := 0, 0
	for i, w := range work {
		if len(reports[i]) == 0 {
			continue
		}
		console.StartJob(ctx, log.JobOperation{Name: w.label, Target: w.job.Target})
		for _, rep := range reports[i] {
			total++
			op := log.DocumentOperation{Path: rep.Target.Path, Status: rep.Status}
			if rep.Result != nil {
				op.LinesBefore = rep.Result.LinesBefore
				op.LinesAfter = rep.Result.LinesAfter
				op.Inserted = len(rep.Result.Inserted)
				op.Warnings = len(rep.Result.Warnings)
				for _, r := range rep.Result.Replacements {
					if r.Status == edit.ReplaceApplied {
						op.Replaced++
					}
				}
			}
			console.LogDocumentOperation(ctx, op)

			switch rep.Status {
			case log.StatusPatched, log.StatusDryRun:
				changed++
			case log.StatusSkipped:
				console.Warningf("%s: patch %s not found, skipped", rep.Target.Path, rep.Target.Patch)
			case log.StatusFailed:
				console.Error(fmt.Sprintf("%s: %v", rep.Target.Path, rep.Err))
			}
		}
		console.EndJob(ctx)
	}

	if runErr != nil {
		return
	}
	if o.opts.DryRun {
		console.Successf("%d of %d documents would change", changed, total)
	} else {
		console.Successf("%d of %d documents patched", changed, total)
	}
}

// 📍 Anchors resolves every job's anchor rules against its targets without modifying anything
func (o *Operator) Anchors(ctx context.Context) ([]AnchorReport, error) {
	work, err := o.prepare()
	if err != nil {
		return nil, err
	}

	var reports []AnchorReport
	for _, w := range work {
		for _, t := range w.targets {
			if err := ctx.Err(); err != nil {
				return nil, errors.Errorf("resolving anchors: %w", err)
			}
			doc, err := document.Load(ctx, t.Path)
			if err != nil {
				return nil, err
			}
			matches, err := anchor.Explain(doc.Lines, w.plan.Anchors)
			if err != nil {
				return nil, errors.Errorf("job %s: %w", w.label, err)
			}
			reports = append(reports, AnchorReport{
				Job:     w.label,
				Path:    t.Path,
				Rules:   w.plan.Anchors,
				Matches: matches,
			})
		}
	}
	return reports, nil
}

// ♻️ Restore moves every target's backup back into place. Targets without a
// backup are reported and left alone. It returns the restored paths.
func (o *Operator) Restore(ctx context.Context) ([]string, error) {
	work, err := o.prepare()
	if err != nil {
		return nil, err
	}

	console := log.FromContext(ctx)
	var restored []string
	for _, w := range work {
		for _, t := range w.targets {
			if err := ctx.Err(); err != nil {
				return restored, errors.Errorf("restoring backups: %w", err)
			}
			if o.opts.DryRun {
				if _, err := os.Stat(document.BackupPath(t.Path)); err == nil {
					restored = append(restored, t.Path)
				}
				continue
			}
			if err := document.Restore(ctx, t.Path); err != nil {
				if errors.Is(err, document.ErrNoBackup) {
					console.Warningf("%s: no backup to restore", t.Path)
					continue
				}
				return restored, errors.Errorf("job %s: %w", w.label, err)
			}
			restored = append(restored, t.Path)
		}
	}
	return restored, nil
}
