// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package android

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CopyOf returns a new slice that has the same contents as s.
func CopyOf[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T{}, s...)
}

// IndexList returns the index of the first occurrence of s in list, or -1.
func IndexList[T comparable](s T, list []T) int {
	for i, l := range list {
		if l == s {
			return i
		}
	}
	return -1
}

func InList[T comparable](s T, list []T) bool {
	return IndexList(s, list) != -1
}

// FirstUniqueStrings returns all unique elements of a slice of strings, keeping the first copy of
// each.  It does not modify the input slice.
func FirstUniqueStrings(list []string) []string {
	if len(list) == 0 {
		return list
	}
	ret := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			ret = append(ret, s)
		}
	}
	return ret
}

// SortedKeys returns the keys of the given map in the ascending order.
func SortedKeys[T cmp.Ordered, V any](m map[T]V) []T {
	if len(m) == 0 {
		return nil
	}
	ret := make([]T, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}

// Capitalize returns s with its first rune upper-cased.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// CamelCaseJoin appends each non-empty element capitalized to the first non-empty one,
// e.g. ["hdpi", "x86"] -> "hdpiX86".
func CamelCaseJoin(strs ...string) string {
	var sb strings.Builder
	for _, s := range strs {
		if s == "" {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString(s)
		} else {
			sb.WriteString(Capitalize(s))
		}
	}
	return sb.String()
}
