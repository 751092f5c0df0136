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

package text

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/docpatch/pkg/document"
	"gitlab.com/tozd/go/errors"
)

// 🔄 ReplacementRule defines a single line substitution
type ReplacementRule struct {
	// FromText is the text (or pattern, when Regex is set) to replace
	FromText string
	// ToText is the replacement; regex rules may use $1 style references
	ToText string
	// Regex treats FromText as a regular expression
	Regex bool
	// FileFilterGlob limits the rule to documents whose path matches
	FileFilterGlob string
}

// 📊 ReplacementResult contains the results of a replacement run
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool
	// ReplacementCount is the number of replacements made
	ReplacementCount int
	// RuleCounts holds the replacement count of each rule, by rule index
	RuleCounts []int
}

// SimpleTextReplacer applies rules line by line
type SimpleTextReplacer struct{}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{}
}

type compiledRule struct {
	ReplacementRule
	re *regexp.Regexp
}

func (c compiledRule) apply(line string) (string, int) {
	if c.re != nil {
		n := len(c.re.FindAllStringIndex(line, -1))
		if n == 0 {
			return line, 0
		}
		return c.re.ReplaceAllString(line, c.ToText), n
	}
	n := strings.Count(line, c.FromText)
	if n == 0 {
		return line, 0
	}
	return strings.ReplaceAll(line, c.FromText, c.ToText), n
}

func compile(rules []ReplacementRule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		c := compiledRule{ReplacementRule: rule}
		if rule.Regex {
			re, err := regexp.Compile(rule.FromText)
			if err != nil {
				return nil, errors.Errorf("rule %d: compiling pattern: %w", i, err)
			}
			c.re = re
		}
		out = append(out, c)
	}
	return out, nil
}

// 🎯 ReplaceLines applies each rule in order to every line of doc.
// Rules whose glob does not match doc.Path are skipped.
func (r *SimpleTextReplacer) ReplaceLines(ctx context.Context, doc *document.Document, rules []ReplacementRule) (*ReplacementResult, error) {
	if err := r.ValidateRules(rules); err != nil {
		return nil, err
	}
	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}

	result := &ReplacementResult{RuleCounts: make([]int, len(rules))}
	for i, rule := range compiled {
		if !AppliesTo(rule.ReplacementRule, doc.Path) {
			zerolog.Ctx(ctx).Debug().Str("path", doc.Path).Str("glob", rule.FileFilterGlob).Msg("skipping substitution for path")
			continue
		}
		for j, line := range doc.Lines {
			updated, n := rule.apply(line)
			if n == 0 {
				continue
			}
			doc.Lines[j] = updated
			result.RuleCounts[i] += n
			result.ReplacementCount += n
			result.WasModified = true
		}
	}

	return result, nil
}

// ValidateRules checks that every rule is usable
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from_text is required", i)
		}
		if rule.FileFilterGlob != "" && !doublestar.ValidatePattern(rule.FileFilterGlob) {
			return errors.Errorf("rule %d: invalid file_filter_glob %q", i, rule.FileFilterGlob)
		}
	}
	_, err := compile(rules)
	return err
}

// AppliesTo reports whether rule should run against the document at path
func AppliesTo(rule ReplacementRule, path string) bool {
	if rule.FileFilterGlob == "" || path == "" {
		return true
	}
	matched, err := doublestar.PathMatch(rule.FileFilterGlob, path)
	if err != nil {
		return false
	}
	if !matched {
		// bare patterns like "*.md" match on the file name
		matched, _ = doublestar.Match(rule.FileFilterGlob, filepath.Base(path))
	}
	return matched
}
