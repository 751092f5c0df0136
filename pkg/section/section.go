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

package section

import (
	"slices"
	"strings"
)

// 🔢 ID is a dotted section identifier such as "2.2.5" or "13"
type ID string

// segment is one dot-separated part of an ID
type segment struct {
	raw string
	// digits is raw without leading zeros, set when raw is all digits
	digits  string
	numeric bool
}

func (id ID) segments() []segment {
	parts := strings.Split(string(id), ".")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		seg := segment{raw: p}
		if isDigits(p) {
			seg.numeric = true
			seg.digits = strings.TrimLeft(p, "0")
			if seg.digits == "" {
				seg.digits = "0"
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// 🎯 Compare orders two identifiers segment by segment.
// Numeric segments compare by value, a non-numeric segment sorts after every
// numeric one at the same position, and a strict prefix sorts first.
func Compare(a, b ID) int {
	as, bs := a.segments(), b.segments()
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

func compareSegment(a, b segment) int {
	switch {
	case a.numeric && b.numeric:
		// no leading zeros, so the longer run is the larger number
		if c := len(a.digits) - len(b.digits); c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
		return strings.Compare(a.digits, b.digits)
	case a.numeric:
		return -1
	case b.numeric:
		return 1
	default:
		return strings.Compare(a.raw, b.raw)
	}
}

// Less reports whether a sorts before b
func Less(a, b ID) bool {
	return Compare(a, b) < 0
}

// 📊 Sort sorts ids in ascending section order
func Sort(ids []ID) {
	slices.SortStableFunc(ids, Compare)
}

// 📊 SortDescending sorts ids in descending section order
func SortDescending(ids []ID) {
	slices.SortStableFunc(ids, func(a, b ID) int {
		return Compare(b, a)
	})
}

// Keys returns the sorted ids of a map keyed by ID
func Keys[V any](m map[ID]V) []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	Sort(ids)
	return ids
}
