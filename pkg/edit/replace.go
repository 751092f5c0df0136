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
	"strings"

	"github.com/walteh/docpatch/pkg/document"
)

// DefaultWindow is how many lines after a section header are searched for its block
const DefaultWindow = 100

// closeFenceOffset includes the fence line that conventionally follows the close token
const closeFenceOffset = 2

// 🎯 Target describes a delimited block inside a section
type Target struct {
	Name string
	// Header is the prefix of the section header line
	Header string
	// Open and Close are substrings marking the first and last line of the block
	Open  string
	Close string
	// Window bounds the scan after the header; zero means DefaultWindow
	Window int
}

// 📊 ReplaceStatus describes the outcome of Replace
type ReplaceStatus int

const (
	ReplaceApplied ReplaceStatus = iota
	ReplaceHeaderMissing
	ReplaceCloseMissing
	ReplaceEmpty
)

// String returns a string representation of ReplaceStatus
func (s ReplaceStatus) String() string {
	switch s {
	case ReplaceApplied:
		return "applied"
	case ReplaceHeaderMissing:
		return "header not found"
	case ReplaceCloseMissing:
		return "closing delimiter not found"
	case ReplaceEmpty:
		return "no replacement content"
	default:
		return "unknown"
	}
}

// 📋 ReplaceResult reports what Replace found and did
type ReplaceResult struct {
	Status ReplaceStatus
	// Header is the line index of the section header, -1 if not found
	Header int
	// BlockStart is the line holding Open, or Header when Open was not seen
	BlockStart int
	// BlockEnd is the exclusive end of the removed range
	BlockEnd int
	// OpenMissing is set when the block start fell back to the header
	OpenMissing bool
	Removed     int
	Inserted    int
}

// Locate finds the section and block boundaries for target without editing.
// Status is ReplaceApplied when the whole block was found.
func Locate(lines []string, target Target) ReplaceResult {
	res := ReplaceResult{Status: ReplaceHeaderMissing, Header: -1, BlockStart: -1, BlockEnd: -1}

	header := -1
	for i, line := range lines {
		if strings.HasPrefix(line, target.Header) {
			header = i
			break
		}
	}
	if header == -1 {
		return res
	}

	window := target.Window
	if window <= 0 {
		window = DefaultWindow
	}
	limit := min(header+window, len(lines))

	res.Header = header
	res.BlockStart = header
	res.OpenMissing = true
	res.Status = ReplaceCloseMissing

	for j := header; j < limit; j++ {
		if target.Open != "" && strings.Contains(lines[j], target.Open) {
			res.BlockStart = j
			res.OpenMissing = false
		}
		if target.Close != "" && strings.Contains(lines[j], target.Close) && res.BlockStart < j {
			res.BlockEnd = min(j+closeFenceOffset, len(lines))
			res.Status = ReplaceApplied
			break
		}
	}
	return res
}

// 🔄 Replace swaps the section starting at target.Header, up to and including
// its delimited block, for content followed by a blank line. A missing header
// or close delimiter, or empty content, leaves the document untouched.
func Replace(doc *document.Document, target Target, content string) ReplaceResult {
	res := Locate(doc.Lines, target)
	if res.Status != ReplaceApplied {
		return res
	}
	if strings.TrimSpace(content) == "" {
		res.Status = ReplaceEmpty
		return res
	}

	lines := append(document.SplitLines(content), "")
	res.Removed = res.BlockEnd - res.Header
	res.Inserted = len(lines)

	doc.Delete(res.Header, res.BlockEnd)
	doc.Insert(res.Header, lines...)
	return res
}
