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
	"io"
	"sync"

	"android/apksplits/android"
	"android/apksplits/ui/logger"
)

// VariantNaming supplies the names of a variant and of its splits.
type VariantNaming interface {
	// BaseName is the dash separated name of the variant, e.g. "free-debug".
	BaseName() string
	// FullName is the camel case name of the variant, e.g. "freeDebug".
	FullName() string
	// ProjectBaseName prefixes the file names of all the APKs of the project.
	ProjectBaseName() string
	ComputeBaseNameWithSplits(splitName string) string
	ComputeFullNameWithSplits(splitName string) string
	IsSigned() bool
	IsBaseModule() bool
	VersionCode() int
	VersionName() string
}

// OutputFactory creates the splits of one variant and registers them into the variant's
// SplitScope. It is used from a single goroutine while the variant is configured; Output then
// seals the scope and hands it out.
type OutputFactory struct {
	naming VariantNaming
	log    logger.Logger

	scope          *SplitScope
	restrictedAbis []string

	output func() *SplitScope
}

func NewOutputFactory(naming VariantNaming, policy SplitHandlingPolicy, log logger.Logger) *OutputFactory {
	if log == nil {
		log = logger.New(io.Discard)
	}
	f := &OutputFactory{
		naming: naming,
		log:    log,
		scope:  NewSplitScope(policy),
	}
	f.output = sync.OnceValue(func() *SplitScope {
		f.scope.Seal()
		f.log.Verbosef("%s: %d splits, %d enabled", naming.FullName(), len(f.scope.splits), len(f.scope.ApkDatas()))
		return f.scope
	})
	return f
}

func (f *OutputFactory) Naming() VariantNaming {
	return f.naming
}

// Output returns the scope holding the splits created so far. The scope is sealed the first time
// Output is called and the same scope is returned afterwards.
func (f *OutputFactory) Output() *SplitScope {
	return f.output()
}

func (f *OutputFactory) apkSuffix() string {
	if f.naming.IsSigned() || !f.naming.IsBaseModule() {
		return ".apk"
	}
	return "-unsigned.apk"
}

func (f *OutputFactory) apkFileName(baseName string) string {
	return f.naming.ProjectBaseName() + "-" + baseName + f.apkSuffix()
}

func (f *OutputFactory) create(a ApkInfo) (*ApkInfo, error) {
	a.versionCode = f.naming.VersionCode()
	a.versionName = f.naming.VersionName()
	a.enabled = true
	apkInfo, err := newApkInfo(a)
	if err != nil {
		return nil, err
	}
	if f.disabledByAbiRestriction(apkInfo) {
		apkInfo = apkInfo.Disabled()
	}
	return apkInfo, nil
}

func (f *OutputFactory) add(a ApkInfo) (*ApkInfo, error) {
	apkInfo, err := f.create(a)
	if err != nil {
		return nil, err
	}
	if err := f.scope.AddSplit(apkInfo); err != nil {
		return nil, err
	}
	f.log.Verbosef("%s: added %s", f.naming.FullName(), apkInfo)
	return apkInfo, nil
}

// AddMainOutput registers the main split with an explicit file name. Main outputs have no
// directory of their own.
func (f *OutputFactory) AddMainOutput(defaultFileName string) (*ApkInfo, error) {
	return f.add(ApkInfo{
		kind:           MainApk,
		baseName:       f.naming.BaseName(),
		fullName:       f.naming.FullName(),
		outputFileName: defaultFileName,
	})
}

// AddMainApk registers the main split named {projectBaseName}-{baseName}.apk, or
// {projectBaseName}-{baseName}-unsigned.apk for unsigned application modules.
func (f *OutputFactory) AddMainApk() (*ApkInfo, error) {
	return f.AddMainOutput(f.apkFileName(f.naming.BaseName()))
}

// AddUniversalApk registers the full split that contains the resources and the native code of
// every filter.
func (f *OutputFactory) AddUniversalApk() (*ApkInfo, error) {
	baseName := f.naming.ComputeBaseNameWithSplits(Universal)
	return f.add(ApkInfo{
		kind:           UniversalApk,
		baseName:       baseName,
		fullName:       f.naming.ComputeFullNameWithSplits(Universal),
		outputFileName: f.apkFileName(baseName),
		dirName:        Universal,
		filterName:     Universal,
	})
}

// AddFullSplit registers a standalone APK restricted to the given filters.
func (f *OutputFactory) AddFullSplit(filters ...Filter) (*ApkInfo, error) {
	filterName := fullSplitFilterName(filters)
	baseName := f.naming.ComputeBaseNameWithSplits(filterName)
	return f.add(ApkInfo{
		kind:           FullSplitApk,
		filters:        filters,
		baseName:       baseName,
		fullName:       f.naming.ComputeFullNameWithSplits(filterName),
		outputFileName: f.apkFileName(baseName),
		dirName:        filterDirName(filters),
		filterName:     filterName,
	})
}

// AddConfigurationSplit registers a split APK installed next to the main APK.
func (f *OutputFactory) AddConfigurationSplit(filters ...Filter) (*ApkInfo, error) {
	return f.add(f.configurationSplit(filters))
}

// NewConfigurationSplit returns the configuration split for filters without registering it.
func (f *OutputFactory) NewConfigurationSplit(filters ...Filter) (*ApkInfo, error) {
	return f.create(f.configurationSplit(filters))
}

func (f *OutputFactory) configurationSplit(filters []Filter) ApkInfo {
	filterName := FilterNameForSplits(filters)
	baseName := f.naming.ComputeBaseNameWithSplits(filterName)
	return ApkInfo{
		kind:           ConfigSplitApk,
		filters:        filters,
		baseName:       baseName,
		fullName:       f.naming.ComputeFullNameWithSplits(filterName),
		outputFileName: f.apkFileName(baseName),
		dirName:        filterDirName(filters),
		filterName:     filterName,
	}
}

// SplitCreator returns a SplitCreator building the configuration splits of persisted SPLIT
// records. Records of other kinds, and records with invalid filters, are skipped.
func (f *OutputFactory) SplitCreator() SplitCreator {
	return func(kind OutputKind, filters []Filter) *ApkInfo {
		if kind != SplitOutput {
			return nil
		}
		split, err := f.NewConfigurationSplit(filters...)
		if err != nil {
			f.log.Verbosef("%s: cannot create split for %v: %s", f.naming.FullName(), filters, err)
			return nil
		}
		return split
	}
}

// RestrictToAbis disables the full splits targeting an ABI that is not listed, both those already
// added and those added later. Disabled splits stay in the registry.
func (f *OutputFactory) RestrictToAbis(abis ...string) error {
	if f.scope.Sealed() {
		return fmt.Errorf("cannot restrict the ABIs of %s: the split registry is sealed", f.naming.FullName())
	}
	f.restrictedAbis = android.FirstUniqueStrings(append(f.restrictedAbis, abis...))
	for i, split := range f.scope.splits {
		if split.Enabled() && f.disabledByAbiRestriction(split) {
			f.scope.replaceSplit(i, split.Disabled())
			f.log.Verbosef("%s: disabled %s", f.naming.FullName(), f.scope.splits[i])
		}
	}
	return nil
}

func (f *OutputFactory) disabledByAbiRestriction(apkInfo *ApkInfo) bool {
	if len(f.restrictedAbis) == 0 || apkInfo.OutputKind() != FullSplitOutput {
		return false
	}
	abi := apkInfo.Filter(AbiFilter)
	return abi != nil && !android.InList(abi.Identifier, f.restrictedAbis)
}

// fullSplitFilterName names a full split after its density then its ABI, e.g. "hdpiX86", "hdpi"
// or "x86". Splits with neither use the plain joined filter name.
func fullSplitFilterName(filters []Filter) string {
	var density, abi string
	if f := GetFilter(filters, DensityFilter); f != nil {
		density = f.Identifier
	}
	if f := GetFilter(filters, AbiFilter); f != nil {
		abi = f.Identifier
	}
	if name := android.CamelCaseJoin(density, abi); name != "" {
		return name
	}
	return FilterNameForSplits(filters)
}
