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

package edit

import (
	"slices"

	"github.com/walteh/docpatch/pkg/anchor"
	"github.com/walteh/docpatch/pkg/document"
	"github.com/walteh/docpatch/pkg/section"
)

// ➕ Insertion is one block placed into the document
type Insertion struct {
	ID section.ID
	// Index is the recorded anchor line, before any shift
	Index int
	// Lines is the number of lines inserted
	Lines int
}

// 📊 InsertResult reports what Insert did
type InsertResult struct {
	Inserted []Insertion
	// Unanchored holds ids with content but no resolved anchor
	Unanchored []section.ID
	// Empty holds ids with a resolved anchor but no content
	Empty []section.ID
}

// 🎯 Insert places every non-empty content block at its anchor.
//
// Each block lands at its originally recorded index whatever the order of
// the input, and blocks sharing an index keep ascending section order, which
// is what applying them one by one in descending order produces. The document
// is rebuilt in one linear pass so no recorded index is ever invalidated.
func Insert(doc *document.Document, points anchor.Points, contents map[section.ID]string) InsertResult {
	var res InsertResult

	pending := make([]Insertion, 0, len(contents))
	blocks := make(map[section.ID][]string, len(contents))
	for _, id := range section.Keys(contents) {
		content := contents[id]
		idx, ok := points[id]
		switch {
		case content == "":
			if ok {
				res.Empty = append(res.Empty, id)
			}
			continue
		case !ok:
			res.Unanchored = append(res.Unanchored, id)
			continue
		}

		lines := document.SplitLines(content)
		blocks[id] = lines
		pending = append(pending, Insertion{ID: id, Index: clamp(idx, doc.Len()), Lines: len(lines)})
	}

	if len(pending) == 0 {
		return res
	}

	// ascending index, ties in ascending section order
	slices.SortStableFunc(pending, func(a, b Insertion) int {
		if a.Index != b.Index {
			return a.Index - b.Index
		}
		return section.Compare(a.ID, b.ID)
	})

	total := doc.Len()
	for _, p := range pending {
		total += p.Lines
	}

	out := make([]string, 0, total)
	cursor := 0
	for _, p := range pending {
		out = append(out, doc.Lines[cursor:p.Index]...)
		out = append(out, blocks[p.ID]...)
		cursor = p.Index
	}
	out = append(out, doc.Lines[cursor:]...)

	// a block appended at the end is terminated like every other line
	if pending[len(pending)-1].Index == doc.Len() {
		doc.TrailingNewline = true
	}
	doc.Lines = out

	res.Inserted = pending
	return res
}

func clamp(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i > n:
		return n
	default:
		return i
	}
}
