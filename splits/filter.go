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

package splits

import (
	"fmt"
	"strings"
)

// FilterType is one dimension along which the outputs of a variant can be differentiated.
type FilterType string

const (
	DensityFilter  FilterType = "DENSITY"
	AbiFilter      FilterType = "ABI"
	LanguageFilter FilterType = "LANGUAGE"
)

var filterTypes = []FilterType{DensityFilter, AbiFilter, LanguageFilter}

func ParseFilterType(s string) (FilterType, error) {
	for _, t := range filterTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown filter type %q", s)
}

// Filter identifies one value of one FilterType, e.g. ABI=x86.
type Filter struct {
	Type       FilterType
	Identifier string
}

func NewFilter(filterType FilterType, identifier string) Filter {
	return Filter{Type: filterType, Identifier: identifier}
}

func DensityFilterOf(density string) Filter   { return NewFilter(DensityFilter, density) }
func AbiFilterOf(abi string) Filter           { return NewFilter(AbiFilter, abi) }
func LanguageFilterOf(language string) Filter { return NewFilter(LanguageFilter, language) }

func (f Filter) String() string {
	return string(f.Type) + "=" + f.Identifier
}

// GetFilter returns the filter of the given type, or nil if filters has none.
func GetFilter(filters []Filter, filterType FilterType) *Filter {
	for i := range filters {
		if filters[i].Type == filterType {
			return &filters[i]
		}
	}
	return nil
}

// FilterNameForSplits joins the identifiers of filters with "-" in the given order.
func FilterNameForSplits(filters []Filter) string {
	identifiers := make([]string, 0, len(filters))
	for _, f := range filters {
		identifiers = append(identifiers, f.Identifier)
	}
	return strings.Join(identifiers, "-")
}

// filterDirName joins the identifiers of filters with "/" in the given order.
func filterDirName(filters []Filter) string {
	identifiers := make([]string, 0, len(filters))
	for _, f := range filters {
		identifiers = append(identifiers, f.Identifier)
	}
	return strings.Join(identifiers, "/")
}

// checkFilters returns an error if filters contains the same filter type more than once.
func checkFilters(filters []Filter) error {
	seen := make(map[FilterType]Filter, len(filters))
	for _, f := range filters {
		if f.Identifier == "" {
			return fmt.Errorf("filter of type %s has an empty identifier", f.Type)
		}
		if prev, ok := seen[f.Type]; ok {
			return fmt.Errorf("filter type %s used more than once: %s and %s", f.Type, prev, f)
		}
		seen[f.Type] = f
	}
	return nil
}

// sameFilters compares two filter collections as sets.
func sameFilters(a, b []Filter) bool {
	if len(a) != len(b) {
		return false
	}
	for _, f := range a {
		found := false
		for _, g := range b {
			if f == g {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
