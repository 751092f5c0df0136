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
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines surround each change
const contextLines = 2

// 🔍 Diff renders a line diff between before and after.
// Long unchanged runs are collapsed to a marker line.
func Diff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for i, d := range diffs {
		chunk := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writeLines(&sb, "+", chunk, color.New(color.FgGreen))
		case diffmatchpatch.DiffDelete:
			writeLines(&sb, "-", chunk, color.New(color.FgRed))
		case diffmatchpatch.DiffEqual:
			head, tail := contextLines, contextLines
			if i == 0 {
				head = 0
			}
			if i == len(diffs)-1 {
				tail = 0
			}
			if len(chunk) <= head+tail {
				writeLines(&sb, " ", chunk, nil)
				continue
			}
			writeLines(&sb, " ", chunk[:head], nil)
			sb.WriteString(color.New(color.FgCyan).Sprintf("@@ %d unchanged lines @@", len(chunk)-head-tail) + "\n")
			writeLines(&sb, " ", chunk[len(chunk)-tail:], nil)
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

func writeLines(sb *strings.Builder, prefix string, lines []string, c *color.Color) {
	for _, line := range lines {
		out := fmt.Sprintf("%s%s", prefix, line)
		if c != nil {
			out = c.Sprint(out)
		}
		sb.WriteString(out + "\n")
	}
}
