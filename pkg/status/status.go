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

package status

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/docpatch/pkg/anchor"
	"github.com/walteh/docpatch/pkg/edit"
	"github.com/walteh/docpatch/pkg/outline"
	"github.com/walteh/docpatch/pkg/patch"
	"github.com/walteh/docpatch/pkg/section"
)

// 📢 UserLogger provides user-friendly feedback about patch runs
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
	out io.Writer
}

// 🎯 NewUserLogger creates a new user logger writing to out, or stdout when out is nil
func NewUserLogger(ctx context.Context, out io.Writer) *UserLogger {
	if out == nil {
		out = os.Stdout
	}
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
		out: out,
	}
}

func (u *UserLogger) printer(p pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	return p.WithPrefix(pterm.Prefix{Text: prefix, Style: p.Prefix.Style}).WithWriter(u.out)
}

// 📝 LogResult prints the outcome of patching one document
func (u *UserLogger) LogResult(path string, res *patch.Result, dryRun bool) {
	action := "updated successfully"
	if dryRun {
		action = "would be updated"
	}
	if !res.Changed() {
		action = "is already up to date"
	}

	u.printer(pterm.Success, "✅").Printfln("%s %s", path, action)
	u.printer(pterm.Info, "📏").Printfln("Original lines: %d", res.LinesBefore)
	u.printer(pterm.Info, "📏").Printfln("Updated lines:  %d", res.LinesAfter)

	if len(res.Inserted) > 0 {
		parts := make([]string, 0, len(res.Inserted))
		for _, ins := range res.Inserted {
			parts = append(parts, fmt.Sprintf("%s@%d", ins.ID, ins.Index))
		}
		u.printer(pterm.Info, "📦").Printfln("Inserted sections: %s", strings.Join(parts, ", "))
	}

	for _, rep := range res.Replacements {
		u.LogReplacement(rep)
	}

	for _, w := range res.Warnings {
		u.printer(pterm.Warning, "⚠️").Println(w)
	}

	u.log.Info().
		Str("path", path).
		Int("lines_before", res.LinesBefore).
		Int("lines_after", res.LinesAfter).
		Int("inserted", len(res.Inserted)).
		Int("warnings", len(res.Warnings)).
		Bool("dry_run", dryRun).
		Msg("document patched")
}

// 🔁 LogReplacement prints one block replacement outcome
func (u *UserLogger) LogReplacement(rep patch.ReplaceOutcome) {
	msg := fmt.Sprintf("Replacement %s: %s", rep.Name, rep.Status)
	if rep.Status == edit.ReplaceApplied {
		msg += fmt.Sprintf(" (lines %d-%d, -%d +%d)", rep.Header, rep.BlockEnd, rep.Removed, rep.Inserted)
		u.printer(pterm.Info, "🔁").Println(msg)
	} else {
		u.printer(pterm.Warning, "🔁").Println(msg)
	}
	u.log.Debug().Str("replacement", rep.Name).Str("status", rep.Status.String()).Msg("replacement outcome")
}

// 📊 LogStateChange logs a change to the overall run
func (u *UserLogger) LogStateChange(description string) {
	u.printer(pterm.Info, "📦").Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		u.printer(pterm.Success, "✅").Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		u.printer(pterm.Error, "❌").Println(description)
		u.printer(pterm.Error, "❌").Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	u.printer(pterm.Warning, "⚠️").Println(description)
	u.log.Warn().Msg(description)
}

// 📍 LogAnchors renders which line each anchor rule resolved to
func (u *UserLogger) LogAnchors(path string, rules []anchor.Rule, matches map[section.ID]anchor.Match) error {
	u.printer(pterm.Info, "📍").Printfln("Anchors in %s", path)

	data := pterm.TableData{{"Section", "Rule", "Line", "Text"}}
	seen := map[section.ID]bool{}
	ids := make([]section.ID, 0, len(rules))
	for _, r := range rules {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}
	section.Sort(ids)

	for _, id := range ids {
		m, ok := matches[id]
		if !ok {
			data = append(data, []string{string(id), "-", "unresolved", ""})
			continue
		}
		data = append(data, []string{string(id), ruleLabel(m.Rule), strconv.Itoa(m.Line), m.Text})
	}

	u.log.Debug().Str("path", path).Int("resolved", len(matches)).Int("rules", len(ids)).Msg("anchors resolved")
	return pterm.DefaultTable.WithHasHeader().WithWriter(u.out).WithData(data).Render()
}

// 📑 LogOutline renders the heading inventory of a document
func (u *UserLogger) LogOutline(path string, headings []outline.Heading) error {
	u.printer(pterm.Info, "📑").Printfln("Outline of %s", path)

	data := pterm.TableData{{"Line", "Level", "Heading"}}
	for _, h := range headings {
		data = append(data, []string{strconv.Itoa(h.Line), strconv.Itoa(h.Level), h.Prefix()})
	}

	u.log.Debug().Str("path", path).Int("headings", len(headings)).Msg("outline built")
	return pterm.DefaultTable.WithHasHeader().WithWriter(u.out).WithData(data).Render()
}

func ruleLabel(r anchor.Rule) string {
	if r.Kind == anchor.MatchEndOfFile {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s %q", r.Kind, r.Pattern)
}
