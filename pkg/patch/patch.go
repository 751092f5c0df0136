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

package patch

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/docpatch/pkg/anchor"
	"github.com/walteh/docpatch/pkg/document"
	"github.com/walteh/docpatch/pkg/edit"
	"github.com/walteh/docpatch/pkg/marker"
	"github.com/walteh/docpatch/pkg/section"
	"github.com/walteh/docpatch/pkg/text"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrUnanchored is returned in strict mode when content has no insertion point
	ErrUnanchored = errors.Base("content has no resolved anchor")
	// ErrReplaceTarget is returned in strict mode when a replacement cannot be applied
	ErrReplaceTarget = errors.Base("replacement target not applied")
)

// 📦 Section is a patch region to insert under a section id
type Section struct {
	ID    section.ID
	Start string
	End   string
}

// 🔄 Replacement is a block swap whose content comes from a patch region
type Replacement struct {
	edit.Target
	Start string
	End   string
}

// 📋 Plan is everything needed to patch one document
type Plan struct {
	Sections      []Section
	Anchors       []anchor.Rule
	Replacements  []Replacement
	Substitutions []text.ReplacementRule
	// MarkerPrefix marks directive lines in the patch; empty means "## "
	MarkerPrefix string
	// Strict turns unanchored content and failed replacements into errors
	Strict bool
}

// ✅ Validate checks the plan for missing or duplicate fields
func (p *Plan) Validate() error {
	seen := map[section.ID]bool{}
	for i, s := range p.Sections {
		if s.ID == "" {
			return errors.Errorf("section %d: id is required", i)
		}
		if s.Start == "" {
			return errors.Errorf("section %s: start marker is required", s.ID)
		}
		if seen[s.ID] {
			return errors.Errorf("section %s: duplicate id", s.ID)
		}
		seen[s.ID] = true
	}
	for i, r := range p.Replacements {
		name := r.Name
		if name == "" {
			name = r.Header
		}
		switch {
		case r.Header == "":
			return errors.Errorf("replacement %d: header is required", i)
		case r.Open == "":
			return errors.Errorf("replacement %s: open delimiter is required", name)
		case r.Close == "":
			return errors.Errorf("replacement %s: close delimiter is required", name)
		case r.Start == "":
			return errors.Errorf("replacement %s: start marker is required", name)
		case r.Window < 0:
			return errors.Errorf("replacement %s: window must not be negative", name)
		}
	}
	if _, err := anchor.Compile(p.Anchors); err != nil {
		return err
	}
	if err := text.NewSimpleTextReplacer().ValidateRules(p.Substitutions); err != nil {
		return errors.Errorf("substitutions: %w", err)
	}
	return nil
}

// 🧾 ReplaceOutcome is the result of one replacement
type ReplaceOutcome struct {
	Name string
	edit.ReplaceResult
}

// 📊 Result reports everything Apply did to a document
type Result struct {
	LinesBefore   int
	LinesAfter    int
	Substitutions int
	Inserted      []edit.Insertion
	// Unanchored holds ids whose content was never inserted
	Unanchored []section.ID
	// Missing holds ids whose start marker produced no content
	Missing      []section.ID
	Replacements []ReplaceOutcome
	Warnings     []string
}

// Changed reports whether Apply edited the document
func (r *Result) Changed() bool {
	if r.Substitutions > 0 || len(r.Inserted) > 0 {
		return true
	}
	for _, o := range r.Replacements {
		if o.Status == edit.ReplaceApplied {
			return true
		}
	}
	return false
}

// 🎯 Apply runs plan against doc using patchText as the content source.
//
// Substitutions run first, then every section is extracted and inserted at
// its anchor, then replacements run in plan order. doc is only modified when
// Apply succeeds.
func Apply(ctx context.Context, doc *document.Document, patchText string, plan Plan) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("document", doc.Path).Logger()

	if err := plan.Validate(); err != nil {
		return nil, errors.Errorf("validating plan: %w", err)
	}

	work := doc.Clone()
	res := &Result{LinesBefore: work.Len()}

	// Substitutions
	if len(plan.Substitutions) > 0 {
		sub, err := text.NewSimpleTextReplacer().ReplaceLines(ctx, work, plan.Substitutions)
		if err != nil {
			return nil, errors.Errorf("applying substitutions: %w", err)
		}
		res.Substitutions = sub.ReplacementCount
		logger.Debug().Int("count", sub.ReplacementCount).Msg("applied substitutions")
	}

	// Insertions
	extractor := marker.New(plan.MarkerPrefix)
	regions := make(map[section.ID]marker.Region, len(plan.Sections))
	for _, s := range plan.Sections {
		regions[s.ID] = marker.Region{Start: s.Start, End: s.End}
	}
	contents := extractor.ExtractAll(patchText, regions)
	for id, content := range contents {
		if content == "" {
			res.Missing = append(res.Missing, id)
			logger.Debug().Str("section", string(id)).Str("marker", regions[id].Start).Msg("no content for section")
		}
	}
	section.Sort(res.Missing)

	points, err := anchor.Locate(work.Lines, plan.Anchors)
	if err != nil {
		return nil, err
	}
	ins := edit.Insert(work, points, contents)
	res.Inserted = ins.Inserted
	res.Unanchored = ins.Unanchored
	for _, in := range ins.Inserted {
		logger.Debug().Str("section", string(in.ID)).Int("index", in.Index).Int("lines", in.Lines).Msg("inserted section")
	}
	for _, id := range ins.Unanchored {
		msg := "section " + string(id) + " has content but no anchor matched; it was not inserted"
		res.Warnings = append(res.Warnings, msg)
		logger.Warn().Str("section", string(id)).Msg("content has no resolved anchor")
	}

	// Replacements
	var failed []string
	for _, r := range plan.Replacements {
		content := extractor.Extract(patchText, r.Start, r.End)
		out := ReplaceOutcome{Name: replacementName(r), ReplaceResult: edit.Replace(work, r.Target, content)}
		res.Replacements = append(res.Replacements, out)

		event := logger.Debug()
		if out.Status != edit.ReplaceApplied {
			event = logger.Warn()
			failed = append(failed, out.Name)
			res.Warnings = append(res.Warnings, "replacement "+out.Name+": "+out.Status.String())
		} else if out.OpenMissing {
			res.Warnings = append(res.Warnings, "replacement "+out.Name+": open delimiter not found, replaced from the section header")
		}
		event.Str("replacement", out.Name).Str("status", out.Status.String()).Int("removed", out.Removed).Int("inserted", out.Inserted).Msg("replacement")
	}

	if plan.Strict {
		if len(res.Unanchored) > 0 {
			ids := make([]string, len(res.Unanchored))
			for i, id := range res.Unanchored {
				ids[i] = string(id)
			}
			return nil, errors.Errorf("%s: %w: sections %s", docName(doc), ErrUnanchored, strings.Join(ids, ", "))
		}
		if len(failed) > 0 {
			return nil, errors.Errorf("%s: %w: %s", docName(doc), ErrReplaceTarget, strings.Join(failed, ", "))
		}
	}

	res.LinesAfter = work.Len()
	doc.Lines = work.Lines
	doc.TrailingNewline = work.TrailingNewline
	return res, nil
}

func replacementName(r Replacement) string {
	if r.Name != "" {
		return r.Name
	}
	return r.Header
}

func docName(doc *document.Document) string {
	if doc.Path == "" {
		return "document"
	}
	return doc.Path
}
