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

package variant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/blueprint/proptools"

	"android/apksplits/android"
	"android/apksplits/splits"
)

var (
	defaultDensities = []string{"ldpi", "mdpi", "hdpi", "xhdpi", "xxhdpi", "xxxhdpi"}
	defaultAbis      = []string{"armeabi-v7a", "arm64-v8a", "x86", "x86_64"}
)

// Variant is one build type and product flavor combination. It names the APKs of the variant.
type Variant struct {
	properties VariantProperties
}

var _ splits.VariantNaming = (*Variant)(nil)

// NewVariant validates props, with defaults already applied, and returns the variant they describe.
func NewVariant(props VariantProperties) (*Variant, error) {
	var errs []error
	if proptools.String(props.Build_type) == "" {
		errs = append(errs, fmt.Errorf("build_type: must be set"))
	}
	for i, flavor := range props.Product_flavors {
		if flavor == "" {
			errs = append(errs, fmt.Errorf("product_flavors[%d]: must not be empty", i))
		}
	}
	if v := proptools.IntDefault(props.Version_code, 1); v < 0 {
		errs = append(errs, fmt.Errorf("version_code: must not be negative, got %d", v))
	}
	if v := proptools.IntDefault(props.Min_sdk_version, 1); v < 1 {
		errs = append(errs, fmt.Errorf("min_sdk_version: must be positive, got %d", v))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Variant{properties: props}, nil
}

func (v *Variant) Properties() VariantProperties {
	return v.properties
}

func (v *Variant) BuildType() string {
	return proptools.String(v.properties.Build_type)
}

func (v *Variant) ProductFlavors() []string {
	return android.CopyOf(v.properties.Product_flavors)
}

// FlavorName is the first flavor followed by the capitalized remaining ones, e.g. "freeArm".
func (v *Variant) FlavorName() string {
	return android.CamelCaseJoin(v.properties.Product_flavors...)
}

// FullName is e.g. "freeArmDebug", or "debug" without flavors.
func (v *Variant) FullName() string {
	return android.CamelCaseJoin(v.FlavorName(), v.BuildType())
}

// BaseName is e.g. "free-arm-debug", or "debug" without flavors.
func (v *Variant) BaseName() string {
	return strings.Join(append(v.ProductFlavors(), v.BuildType()), "-")
}

func (v *Variant) ComputeBaseNameWithSplits(splitName string) string {
	return strings.Join(append(v.ProductFlavors(), splitName, v.BuildType()), "-")
}

func (v *Variant) ComputeFullNameWithSplits(splitName string) string {
	return android.CamelCaseJoin(v.FlavorName(), splitName, v.BuildType())
}

func (v *Variant) ProjectBaseName() string {
	return proptools.StringDefault(v.properties.Project_base_name, "app")
}

func (v *Variant) IsSigned() bool      { return proptools.Bool(v.properties.Signed) }
func (v *Variant) IsBaseModule() bool  { return proptools.BoolDefault(v.properties.Base_module, true) }
func (v *Variant) VersionCode() int    { return proptools.IntDefault(v.properties.Version_code, 1) }
func (v *Variant) VersionName() string { return proptools.String(v.properties.Version_name) }
func (v *Variant) MinSdkVersion() int  { return proptools.IntDefault(v.properties.Min_sdk_version, 1) }

// Densities returns the densities to produce splits for, or nil if density splits are disabled.
func (v *Variant) Densities() []string {
	return enabledValues(v.properties.Splits.Density.Enabled, v.properties.Splits.Density.Include, defaultDensities)
}

// Abis returns the ABIs to produce splits for, or nil if ABI splits are disabled.
func (v *Variant) Abis() []string {
	return enabledValues(v.properties.Splits.Abi.Enabled, v.properties.Splits.Abi.Include, defaultAbis)
}

// Languages returns the languages to produce splits for, or nil if language splits are disabled.
func (v *Variant) Languages() []string {
	return enabledValues(v.properties.Splits.Language.Enabled, v.properties.Splits.Language.Include, nil)
}

func (v *Variant) UniversalApk() bool {
	return proptools.Bool(v.properties.Splits.Abi.Universal_apk)
}

func (v *Variant) InjectedAbis() []string {
	return android.CopyOf(v.properties.Injected_abis)
}

// Fingerprint is a hash of the properties of the variant. It changes whenever the set of APKs the
// variant produces may change.
func (v *Variant) Fingerprint() (uint64, error) {
	return proptools.CalculateHash(v.properties)
}

func enabledValues(enabled *bool, include []string, defaults []string) []string {
	if !proptools.Bool(enabled) {
		return nil
	}
	if len(include) == 0 {
		return android.CopyOf(defaults)
	}
	return android.FirstUniqueStrings(include)
}
