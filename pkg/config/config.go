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
	"fmt"
	"path/filepath"

	"github.com/walteh/docpatch/pkg/anchor"
	"github.com/walteh/docpatch/pkg/edit"
	"github.com/walteh/docpatch/pkg/patch"
	"github.com/walteh/docpatch/pkg/section"
	"github.com/walteh/docpatch/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// ErrNoJobs is returned when a config defines nothing to patch
var ErrNoJobs = errors.Base("config has no jobs")

// DefaultPatchSuffix is appended to a target path when a job names no patch file
const DefaultPatchSuffix = ".patch"

// 🔄 Substitution is a line replacement applied before inserting sections
type Substitution struct {
	Old   string `json:"old" yaml:"old" hcl:"old"`
	New   string `json:"new" yaml:"new" hcl:"new"`
	Regex bool   `json:"regex,omitempty" yaml:"regex,omitempty" hcl:"regex,optional"`
	// File limits the substitution to targets matching this glob
	File string `json:"file,omitempty" yaml:"file,omitempty" hcl:"file,optional"`
}

// 📦 SectionDef names a patch region and the section id it is inserted under
type SectionDef struct {
	ID    string `json:"id" yaml:"id" hcl:"id"`
	Start string `json:"start" yaml:"start" hcl:"start"`
	End   string `json:"end,omitempty" yaml:"end,omitempty" hcl:"end,optional"`
}

// 📏 AnchorDef is one header-pattern rule. Exactly one matcher must be set.
type AnchorDef struct {
	ID        string `json:"id" yaml:"id" hcl:"id"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty" hcl:"prefix,optional"`
	Contains  string `json:"contains,omitempty" yaml:"contains,omitempty" hcl:"contains,optional"`
	Equals    string `json:"equals,omitempty" yaml:"equals,omitempty" hcl:"equals,optional"`
	Regex     string `json:"regex,omitempty" yaml:"regex,omitempty" hcl:"regex,optional"`
	EndOfFile bool   `json:"end_of_file,omitempty" yaml:"end_of_file,omitempty" hcl:"end_of_file,optional"`
	// FirstMatchWins defaults to true
	FirstMatchWins *bool `json:"first_match_wins,omitempty" yaml:"first_match_wins,omitempty" hcl:"first_match_wins,optional"`
}

// 🔁 ReplacementDef swaps a delimited block inside a section
type ReplacementDef struct {
	Name   string `json:"name" yaml:"name" hcl:"name,label"`
	Header string `json:"header" yaml:"header" hcl:"header"`
	Open   string `json:"open" yaml:"open" hcl:"open"`
	Close  string `json:"close" yaml:"close" hcl:"close"`
	Window int    `json:"window,omitempty" yaml:"window,omitempty" hcl:"window,optional"`
	Start  string `json:"start" yaml:"start" hcl:"start"`
	End    string `json:"end,omitempty" yaml:"end,omitempty" hcl:"end,optional"`
}

// 📋 Job patches every document matching Target
type Job struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" hcl:"name,label"`
	// Target is a path or doublestar glob
	Target string `json:"target" yaml:"target" hcl:"target"`
	// Patch is the patch file; empty means <target>.patch
	Patch        string `json:"patch,omitempty" yaml:"patch,omitempty" hcl:"patch,optional"`
	Strict       bool   `json:"strict,omitempty" yaml:"strict,omitempty" hcl:"strict,optional"`
	MarkerPrefix string `json:"marker_prefix,omitempty" yaml:"marker_prefix,omitempty" hcl:"marker_prefix,optional"`

	Substitutions []Substitution   `json:"substitutions,omitempty" yaml:"substitutions,omitempty" hcl:"substitution,block"`
	Sections      []SectionDef     `json:"sections,omitempty" yaml:"sections,omitempty" hcl:"section,block"`
	Anchors       []AnchorDef      `json:"anchors,omitempty" yaml:"anchors,omitempty" hcl:"anchor,block"`
	Replacements  []ReplacementDef `json:"replacements,omitempty" yaml:"replacements,omitempty" hcl:"replacement,block"`
}

// 📚 Config is the complete docpatch configuration
type Config struct {
	Async bool `json:"async,omitempty" yaml:"async,omitempty" hcl:"async,optional"`
	// Concurrency caps how many async jobs run at once; zero means no cap
	Concurrency int   `json:"concurrency,omitempty" yaml:"concurrency,omitempty" hcl:"concurrency,optional"`
	Backup      bool  `json:"backup,omitempty" yaml:"backup,omitempty" hcl:"backup,optional"`
	Jobs        []Job `json:"jobs" yaml:"jobs" hcl:"job,block"`

	location string
}

// Location returns the path the config was loaded from
func (cfg *Config) Location() string {
	return cfg.location
}

// Dir returns the directory relative paths in the config resolve against
func (cfg *Config) Dir() string {
	if cfg.location == "" {
		return "."
	}
	return filepath.Dir(cfg.location)
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if len(cfg.Jobs) == 0 {
		return ErrNoJobs
	}
	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative")
	}
	for i := range cfg.Jobs {
		job := &cfg.Jobs[i]
		if job.Target == "" {
			return errors.Errorf("job %s: target is required", job.Label(i))
		}
		if _, err := job.Plan(); err != nil {
			return errors.Errorf("job %s: %w", job.Label(i), err)
		}
	}
	return nil
}

// Label returns the job name, or its position when unnamed
func (j *Job) Label(i int) string {
	if j.Name != "" {
		return j.Name
	}
	return fmt.Sprintf("#%d", i)
}

// PatchFor returns the patch file used for a resolved target path
func (j *Job) PatchFor(target string) string {
	if j.Patch != "" {
		return j.Patch
	}
	return target + DefaultPatchSuffix
}

// 🎯 Plan converts the job into an engine plan
func (j *Job) Plan() (patch.Plan, error) {
	plan := patch.Plan{
		MarkerPrefix: j.MarkerPrefix,
		Strict:       j.Strict,
	}

	for _, s := range j.Substitutions {
		plan.Substitutions = append(plan.Substitutions, text.ReplacementRule{
			FromText:       s.Old,
			ToText:         s.New,
			Regex:          s.Regex,
			FileFilterGlob: s.File,
		})
	}

	for _, s := range j.Sections {
		plan.Sections = append(plan.Sections, patch.Section{
			ID:    section.ID(s.ID),
			Start: s.Start,
			End:   s.End,
		})
	}

	for i, a := range j.Anchors {
		rule, err := a.Rule()
		if err != nil {
			return patch.Plan{}, errors.Errorf("anchor %d: %w", i, err)
		}
		plan.Anchors = append(plan.Anchors, rule)
	}

	for _, r := range j.Replacements {
		plan.Replacements = append(plan.Replacements, patch.Replacement{
			Target: edit.Target{
				Name:   r.Name,
				Header: r.Header,
				Open:   r.Open,
				Close:  r.Close,
				Window: r.Window,
			},
			Start: r.Start,
			End:   r.End,
		})
	}

	if err := plan.Validate(); err != nil {
		return patch.Plan{}, err
	}
	return plan, nil
}

// Rule converts the definition into an anchor rule
func (a AnchorDef) Rule() (anchor.Rule, error) {
	rule := anchor.Rule{ID: section.ID(a.ID), FirstMatchWins: true}
	if a.FirstMatchWins != nil {
		rule.FirstMatchWins = *a.FirstMatchWins
	}

	set := 0
	for _, m := range []struct {
		kind    anchor.MatchKind
		pattern string
	}{
		{anchor.MatchPrefix, a.Prefix},
		{anchor.MatchContains, a.Contains},
		{anchor.MatchEquals, a.Equals},
		{anchor.MatchRegex, a.Regex},
	} {
		if m.pattern == "" {
			continue
		}
		set++
		rule.Kind, rule.Pattern = m.kind, m.pattern
	}
	if a.EndOfFile {
		set++
		rule.Kind = anchor.MatchEndOfFile
	}

	switch set {
	case 0:
		return anchor.Rule{}, errors.Errorf("%s: one of prefix, contains, equals, regex or end_of_file is required", a.ID)
	case 1:
		return rule, nil
	default:
		return anchor.Rule{}, errors.Errorf("%s: only one of prefix, contains, equals, regex or end_of_file may be set", a.ID)
	}
}
