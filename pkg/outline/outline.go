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

package outline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gitlab.com/tozd/go/errors"
)

// 📑 Heading is one ATX or setext heading
type Heading struct {
	Level int
	Text  string
	// Line is the 0-based line index of the heading text
	Line int
}

// Prefix returns the ATX form of the heading, the shape prefix anchors match
func (h Heading) Prefix() string {
	return strings.Repeat("#", h.Level) + " " + h.Text
}

// 🔍 Headings walks the markdown AST and returns every heading in document order.
// Headings inside fenced code blocks are not headings and are not returned.
func Headings(src []byte) ([]Heading, error) {
	var headings []Heading
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		// an empty "#" has no text segment to locate
		lines := heading.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		headings = append(headings, Heading{
			Level: heading.Level,
			Text:  strings.TrimSpace(string(heading.Text(src))),
			Line:  bytes.Count(src[:lines.At(0).Start], []byte("\n")),
		})
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, errors.Errorf("walking markdown: %w", err)
	}

	return headings, nil
}

// Numbered returns the headings whose text starts with a section number such as "2.3" or "9."
func Numbered(headings []Heading) []Heading {
	var out []Heading
	for _, h := range headings {
		num, _, _ := strings.Cut(h.Text, " ")
		if num != "" && num[0] >= '0' && num[0] <= '9' {
			out = append(out, h)
		}
	}
	return out
}
