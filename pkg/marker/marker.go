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

package marker

import (
	"strings"

	"github.com/walteh/docpatch/pkg/section"
)

// DefaultHeaderPrefix is the heading prefix used by patch directive lines
const DefaultHeaderPrefix = "## "

// 📦 Region identifies a marker-delimited region of a patch.
// An empty End means the region runs to the end of the patch.
type Region struct {
	Start string
	End   string
}

// 🔧 Extractor pulls region content out of patch text
type Extractor struct {
	// HeaderPrefix marks leading directive lines to skip
	HeaderPrefix string
}

// 🏭 New creates an extractor with the given directive prefix
func New(headerPrefix string) *Extractor {
	if headerPrefix == "" {
		headerPrefix = DefaultHeaderPrefix
	}
	return &Extractor{HeaderPrefix: headerPrefix}
}

// Extract returns the region content using the default directive prefix
func Extract(patch, start, end string) string {
	return New(DefaultHeaderPrefix).Extract(patch, start, end)
}

// 🎯 Extract returns the trimmed content between start and end.
// A missing start marker yields "" and a missing end marker extends the
// region to the end of the patch.
func (e *Extractor) Extract(patch, start, end string) string {
	if start == "" {
		return ""
	}
	startIdx := strings.Index(patch, start)
	if startIdx == -1 {
		return ""
	}

	span := patch[startIdx:]
	if end != "" {
		if endIdx := strings.Index(span, end); endIdx != -1 {
			span = span[:endIdx]
		}
	}

	lines := strings.Split(span, "\n")
	// the first line is the remainder of the marker line itself
	lines = lines[1:]

	first := 0
	for first < len(lines) && e.skippable(lines[first]) {
		first++
	}

	return strings.TrimSpace(strings.Join(lines[first:], "\n"))
}

// ExtractRegion is Extract for a Region
func (e *Extractor) ExtractRegion(patch string, r Region) string {
	return e.Extract(patch, r.Start, r.End)
}

// 🗺️ ExtractAll extracts every region keyed by section id
func (e *Extractor) ExtractAll(patch string, regions map[section.ID]Region) map[section.ID]string {
	out := make(map[section.ID]string, len(regions))
	for id, r := range regions {
		out[id] = e.ExtractRegion(patch, r)
	}
	return out
}

func (e *Extractor) skippable(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	// "## " matches directive lines but not "### 2.2.5", which is content
	return strings.HasPrefix(line, e.HeaderPrefix) ||
		strings.TrimRight(line, " \t\r") == strings.TrimSpace(e.HeaderPrefix)
}
