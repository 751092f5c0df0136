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

package anchor

import (
	"regexp"
	"strings"

	"github.com/walteh/docpatch/pkg/section"
	"gitlab.com/tozd/go/errors"
)

// 🔍 MatchKind selects how a rule pattern is compared against a line
type MatchKind string

const (
	MatchPrefix   MatchKind = "prefix"
	MatchContains MatchKind = "contains"
	MatchEquals   MatchKind = "equals"
	MatchRegex    MatchKind = "regex"
	// MatchEndOfFile matches the final line when it is blank
	MatchEndOfFile MatchKind = "end_of_file"
)

// 📏 Rule says: the insertion point for ID is the line matching Pattern
type Rule struct {
	ID      section.ID
	Kind    MatchKind
	Pattern string
	// FirstMatchWins ignores later matches once ID is resolved
	FirstMatchWins bool

	re *regexp.Regexp
}

// 🗺️ Points maps a section id to the line index where content is inserted
type Points map[section.ID]int

// Compile validates rules and prepares regex patterns
func Compile(rules []Rule) ([]Rule, error) {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return nil, errors.Errorf("anchor rule %d: id is required", i)
		}
		switch r.Kind {
		case MatchPrefix, MatchContains, MatchEquals:
			if r.Pattern == "" {
				return nil, errors.Errorf("anchor rule %d (%s): pattern is required", i, r.ID)
			}
		case MatchRegex:
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, errors.Errorf("anchor rule %d (%s): compiling pattern: %w", i, r.ID, err)
			}
			r.re = re
		case MatchEndOfFile:
		default:
			return nil, errors.Errorf("anchor rule %d (%s): unknown match kind %q", i, r.ID, r.Kind)
		}
		out[i] = r
	}
	return out, nil
}

// Matches reports whether line i of n matches the rule. A regex rule only
// matches once it has been through Compile.
func (r Rule) Matches(line string, i, n int) bool {
	switch r.Kind {
	case MatchPrefix:
		return strings.HasPrefix(line, r.Pattern)
	case MatchContains:
		return strings.Contains(line, r.Pattern)
	case MatchEquals:
		return strings.TrimSpace(line) == r.Pattern
	case MatchRegex:
		return r.re != nil && r.re.MatchString(line)
	case MatchEndOfFile:
		return i == n-1 && strings.TrimSpace(line) == ""
	}
	return false
}

// 🎯 Locate scans lines once and resolves each rule id to a line index.
// Each line is claimed by the first rule that matches it. A rule with
// FirstMatchWins leaves an already resolved id alone; other rules keep the
// latest match.
func Locate(lines []string, rules []Rule) (Points, error) {
	matches, err := Explain(lines, rules)
	if err != nil {
		return nil, err
	}
	points := Points{}
	for id, m := range matches {
		points[id] = m.Line
	}
	return points, nil
}

// 📋 Match records which rule resolved a point, for reporting
type Match struct {
	Rule Rule
	Line int
	Text string
}

// Explain is Locate but returns the winning rule and line text per id.
// The caller's rules are compiled into a private copy and never written to.
func Explain(lines []string, rules []Rule) (map[section.ID]Match, error) {
	compiled, err := Compile(rules)
	if err != nil {
		return nil, errors.Errorf("locating anchors: %w", err)
	}

	out := map[section.ID]Match{}
	for i, line := range lines {
		for _, r := range compiled {
			if !r.Matches(line, i, len(lines)) {
				continue
			}
			if _, ok := out[r.ID]; !ok || !r.FirstMatchWins {
				out[r.ID] = Match{Rule: r, Line: i, Text: line}
			}
			break
		}
	}
	return out, nil
}
