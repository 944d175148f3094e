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
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/google/blueprint/gobtools"
	"github.com/google/blueprint/uniquelist"

	"android/apksplits/android"
)

// OutputKind is the externally visible type of an output: a main APK, a full split APK that can
// be installed on its own, or a configuration split installed next to a main APK.
type OutputKind string

const (
	MainOutput      OutputKind = "MAIN"
	FullSplitOutput OutputKind = "FULL_SPLIT"
	SplitOutput     OutputKind = "SPLIT"
)

func ParseOutputKind(s string) (OutputKind, error) {
	switch OutputKind(s) {
	case MainOutput, FullSplitOutput, SplitOutput:
		return OutputKind(s), nil
	}
	// Older metadata files recorded the shape of the descriptor instead of its output kind.
	switch s {
	case "Main":
		return MainOutput, nil
	case "Universal", "FullSplit":
		return FullSplitOutput, nil
	case "ConfigurationSplit", "DefaultSplit":
		return SplitOutput, nil
	}
	return "", fmt.Errorf("unknown apk type %q", s)
}

// ApkKind is the shape of an ApkInfo. The naming rules for an ApkInfo depend on its kind.
type ApkKind int

const (
	MainApk ApkKind = iota
	UniversalApk
	FullSplitApk
	ConfigSplitApk
)

func (k ApkKind) String() string {
	switch k {
	case MainApk:
		return "Main"
	case UniversalApk:
		return "Universal"
	case FullSplitApk:
		return "FullSplit"
	case ConfigSplitApk:
		return "ConfigurationSplit"
	}
	panic(fmt.Errorf("unknown ApkKind %d", int(k)))
}

func (k ApkKind) OutputKind() OutputKind {
	switch k {
	case MainApk:
		return MainOutput
	case UniversalApk, FullSplitApk:
		return FullSplitOutput
	case ConfigSplitApk:
		return SplitOutput
	}
	panic(fmt.Errorf("unknown ApkKind %d", int(k)))
}

// apkKindForOutputKind picks the shape used for descriptors rebuilt from persisted metadata.
func apkKindForOutputKind(kind OutputKind) ApkKind {
	switch kind {
	case MainOutput:
		return MainApk
	case SplitOutput:
		return ConfigSplitApk
	default:
		return FullSplitApk
	}
}

// Universal is the filter name of the universal APK.
const Universal = "universal"

// ApkInfo describes one output APK of a variant. It is immutable once created.
type ApkInfo struct {
	kind    ApkKind
	filters []Filter

	baseName       string
	fullName       string
	outputFileName string
	dirName        string
	filterName     string

	versionCode int
	versionName string

	enabled bool
}

type apkInfoGob struct {
	Kind           ApkKind
	Filters        []Filter
	BaseName       string
	FullName       string
	OutputFileName string
	DirName        string
	FilterName     string
	VersionCode    int
	VersionName    string
	Enabled        bool
}

func (a *ApkInfo) ToGob() *apkInfoGob {
	return &apkInfoGob{
		Kind:           a.kind,
		Filters:        a.filters,
		BaseName:       a.baseName,
		FullName:       a.fullName,
		OutputFileName: a.outputFileName,
		DirName:        a.dirName,
		FilterName:     a.filterName,
		VersionCode:    a.versionCode,
		VersionName:    a.versionName,
		Enabled:        a.enabled,
	}
}

func (a *ApkInfo) FromGob(data *apkInfoGob) {
	a.kind = data.Kind
	a.filters = data.Filters
	a.baseName = data.BaseName
	a.fullName = data.FullName
	a.outputFileName = data.OutputFileName
	a.dirName = data.DirName
	a.filterName = data.FilterName
	a.versionCode = data.VersionCode
	a.versionName = data.VersionName
	a.enabled = data.Enabled
}

func (a *ApkInfo) GobEncode() ([]byte, error) {
	return gobtools.CustomGobEncode[apkInfoGob](a)
}

func (a *ApkInfo) GobDecode(data []byte) error {
	return gobtools.CustomGobDecode[apkInfoGob](data, a)
}

// newApkInfo validates and returns a copy of a with its own filter slice.
func newApkInfo(a ApkInfo) (*ApkInfo, error) {
	if err := checkFilters(a.filters); err != nil {
		return nil, fmt.Errorf("invalid %s output %q: %w", a.kind, a.fullName, err)
	}
	a.filters = android.CopyOf(a.filters)
	return &a, nil
}

// newPersistedApkInfo builds the reduced descriptor that can be recovered from output.json: only
// the output kind, the filters and the version code survive persistence.
func newPersistedApkInfo(kind OutputKind, filters []Filter, versionCode int) (*ApkInfo, error) {
	return newApkInfo(ApkInfo{
		kind:        apkKindForOutputKind(kind),
		filters:     filters,
		versionCode: versionCode,
		enabled:     true,
	})
}

func (a *ApkInfo) Kind() ApkKind          { return a.kind }
func (a *ApkInfo) OutputKind() OutputKind { return a.kind.OutputKind() }
func (a *ApkInfo) BaseName() string       { return a.baseName }
func (a *ApkInfo) FullName() string       { return a.fullName }
func (a *ApkInfo) OutputFileName() string { return a.outputFileName }
func (a *ApkInfo) DirName() string        { return a.dirName }
func (a *ApkInfo) FilterName() string     { return a.filterName }
func (a *ApkInfo) VersionCode() int       { return a.versionCode }
func (a *ApkInfo) VersionName() string    { return a.versionName }
func (a *ApkInfo) Enabled() bool          { return a.enabled }
func (a *ApkInfo) IsUniversal() bool      { return a.kind == UniversalApk || a.filterName == Universal }

func (a *ApkInfo) Filter(t FilterType) *Filter {
	return GetFilter(a.filters, t)
}

// Filters returns a copy of the filters of this output in declaration order.
func (a *ApkInfo) Filters() []Filter {
	return android.CopyOf(a.filters)
}

func (a *ApkInfo) FilterTypes() []FilterType {
	var ret []FilterType
	for _, f := range a.filters {
		ret = append(ret, f.Type)
	}
	return ret
}

// Disabled returns a copy of this output that is excluded from the outputs to build.
func (a *ApkInfo) Disabled() *ApkInfo {
	ret := *a
	ret.enabled = false
	return &ret
}

// MatchKey identifies an ApkInfo by output kind and filter set. It is the identity used when
// descriptors may have been rebuilt from output.json, which does not record names.
type MatchKey struct {
	outputKind OutputKind
	filters    uniquelist.UniqueList[Filter]
}

// ApkKey is a comparable identity of an ApkInfo: two descriptors with the same output kind, the
// same filter set and the same names describe the same output.
type ApkKey struct {
	MatchKey
	baseName string
	fullName string
}

func newMatchKey(kind OutputKind, filters []Filter) MatchKey {
	return MatchKey{
		outputKind: kind,
		filters:    canonicalFilters(filters),
	}
}

// canonicalFilters returns the filters sorted by type then identifier so that filter sets can be
// compared independently of declaration order.
func canonicalFilters(filters []Filter) uniquelist.UniqueList[Filter] {
	if len(filters) == 0 {
		return uniquelist.UniqueList[Filter]{}
	}
	sorted := android.CopyOf(filters)
	slices.SortFunc(sorted, func(a, b Filter) int {
		if c := cmp.Compare(android.IndexList(a.Type, filterTypes), android.IndexList(b.Type, filterTypes)); c != 0 {
			return c
		}
		return cmp.Compare(a.Identifier, b.Identifier)
	})
	return uniquelist.Make(sorted)
}

func (a *ApkInfo) Key() ApkKey {
	return ApkKey{
		MatchKey: a.MatchKey(),
		baseName: a.baseName,
		fullName: a.fullName,
	}
}

func (a *ApkInfo) MatchKey() MatchKey {
	return newMatchKey(a.OutputKind(), a.filters)
}

// Equal reports whether a and other describe the same output.
func (a *ApkInfo) Equal(other *ApkInfo) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Key() == other.Key()
}

// PersistedEqual compares only what output.json records: output kind, filters and version code.
func (a *ApkInfo) PersistedEqual(other *ApkInfo) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.MatchKey() == other.MatchKey() && a.versionCode == other.versionCode
}

func (a *ApkInfo) String() string {
	filters := make([]string, 0, len(a.filters))
	for _, f := range a.filters {
		filters = append(filters, f.String())
	}
	s := fmt.Sprintf("%s{type=%s, filters=[%s]", a.kind, a.OutputKind(), strings.Join(filters, " "))
	if a.fullName != "" {
		s += ", fullName=" + a.fullName
	}
	if !a.enabled {
		s += ", disabled"
	}
	return s + "}"
}
