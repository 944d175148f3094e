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
	"strings"
	"testing"

	"github.com/google/blueprint/proptools"

	"android/apksplits/android"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("variants.star", `
defaults = struct(project_base_name = "app", version_code = 3, product_flavors = ["free"])

variants = [
    struct(
        build_type = "debug",
        min_sdk_version = 21,
        generate_pure_splits = True,
        splits = struct(
            density = struct(enabled = True, include = ["hdpi", "xhdpi"]),
            abi = struct(enabled = True, include = ("x86", "arm64-v8a"), universal_apk = True),
            language = struct(enabled = False, include = []),
        ),
        injected_abis = ["x86"],
    ),
    struct(
        build_type = "release",
        project_base_name = "demo",
        signed = True,
        version_name = None,
    ),
]
`, nil)
	android.FailIfErrored(t, err)
	android.AssertIntEquals(t, "variants", 2, len(config.Variants))

	debug := config.Variant("freeDebug")
	if debug == nil {
		t.Fatal("expected a freeDebug variant")
	}
	android.AssertStringEquals(t, "project base name from defaults", "app", debug.ProjectBaseName())
	android.AssertIntEquals(t, "version code from defaults", 3, debug.VersionCode())
	android.AssertIntEquals(t, "min sdk", 21, debug.MinSdkVersion())
	android.AssertArrayString(t, "densities", []string{"hdpi", "xhdpi"}, debug.Densities())
	android.AssertArrayString(t, "abis", []string{"x86", "arm64-v8a"}, debug.Abis())
	android.AssertIntEquals(t, "languages", 0, len(debug.Languages()))
	android.AssertBoolEquals(t, "universal", true, debug.UniversalApk())
	android.AssertArrayString(t, "injected abis", []string{"x86"}, debug.InjectedAbis())

	release := config.Variant("freeRelease")
	if release == nil {
		t.Fatal("expected a freeRelease variant")
	}
	android.AssertStringEquals(t, "project base name overrides defaults", "demo", release.ProjectBaseName())
	android.AssertBoolEquals(t, "signed", true, release.IsSigned())
	android.AssertStringEquals(t, "version name", "", release.VersionName())
	android.AssertIntEquals(t, "densities", 0, len(release.Densities()))

	if config.Variant("paidDebug") != nil {
		t.Errorf("expected no paidDebug variant")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		err  []string
	}{
		{
			name: "missing variants",
			src:  `defaults = struct(build_type = "debug")`,
			err:  []string{"variants.star: variants is not defined"},
		},
		{
			name: "variants not a list",
			src:  `variants = "debug"`,
			err:  []string{"variants: expected list, got string"},
		},
		{
			name: "unknown attribute",
			src:  `variants = [struct(build_type = "debug", flavour = "free")]`,
			err:  []string{"variants[0].flavour: unknown attribute"},
		},
		{
			name: "wrong type",
			src:  `variants = [struct(build_type = "debug", splits = struct(abi = struct(enabled = "yes")))]`,
			err:  []string{"variants[0].splits.abi.enabled: expected bool, got string"},
		},
		{
			name: "wrong list element type",
			src:  `variants = [struct(build_type = "debug", product_flavors = ["free", 1])]`,
			err:  []string{"variants[0].product_flavors[1]: expected string, got int"},
		},
		{
			name: "invalid variants",
			src: `variants = [
    struct(product_flavors = ["free"]),
    struct(build_type = "debug", version_code = -1, min_sdk_version = 0),
]`,
			err: []string{
				"variants[0]: build_type: must be set",
				"variants[1]: version_code: must not be negative, got -1",
				"min_sdk_version: must be positive, got 0",
			},
		},
		{
			name: "duplicate variant",
			src:  `variants = [struct(build_type = "debug"), struct(build_type = "debug")]`,
			err:  []string{`variants[1]: variant "debug" is already defined by variants[0]`},
		},
		{
			name: "starlark error",
			src:  `variants = [struct(build_type = debug)]`,
			err:  []string{"undefined: debug"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig("variants.star", tc.src, nil)
			for _, e := range tc.err {
				android.AssertErrorMessageContains(t, "error", e, err)
			}
		})
	}
}

func TestVariantNaming(t *testing.T) {
	testCases := []struct {
		name           string
		flavors        []string
		fullName       string
		baseName       string
		baseWithSplits string
		fullWithSplits string
	}{
		{
			name:           "no flavors",
			fullName:       "debug",
			baseName:       "debug",
			baseWithSplits: "hdpiX86-debug",
			fullWithSplits: "hdpiX86Debug",
		},
		{
			name:           "one flavor",
			flavors:        []string{"free"},
			fullName:       "freeDebug",
			baseName:       "free-debug",
			baseWithSplits: "free-hdpiX86-debug",
			fullWithSplits: "freeHdpiX86Debug",
		},
		{
			name:           "two flavors",
			flavors:        []string{"free", "arm"},
			fullName:       "freeArmDebug",
			baseName:       "free-arm-debug",
			baseWithSplits: "free-arm-hdpiX86-debug",
			fullWithSplits: "freeArmHdpiX86Debug",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := NewVariant(VariantProperties{
				Build_type:      proptools.StringPtr("debug"),
				Product_flavors: tc.flavors,
			})
			android.FailIfErrored(t, err)
			android.AssertStringEquals(t, "full name", tc.fullName, v.FullName())
			android.AssertStringEquals(t, "base name", tc.baseName, v.BaseName())
			android.AssertStringEquals(t, "base name with splits", tc.baseWithSplits, v.ComputeBaseNameWithSplits("hdpiX86"))
			android.AssertStringEquals(t, "full name with splits", tc.fullWithSplits, v.ComputeFullNameWithSplits("hdpiX86"))
			android.AssertStringEquals(t, "base name unchanged", tc.baseName, v.BaseName())
		})
	}
}

func TestVariantDefaults(t *testing.T) {
	v, err := NewVariant(VariantProperties{Build_type: proptools.StringPtr("debug")})
	android.FailIfErrored(t, err)
	android.AssertStringEquals(t, "project base name", "app", v.ProjectBaseName())
	android.AssertBoolEquals(t, "signed", false, v.IsSigned())
	android.AssertBoolEquals(t, "base module", true, v.IsBaseModule())
	android.AssertIntEquals(t, "version code", 1, v.VersionCode())

	enabled := proptools.BoolPtr(true)
	v, err = NewVariant(VariantProperties{
		Build_type: proptools.StringPtr("debug"),
		Splits: SplitsProperties{
			Density: SplitProperties{Enabled: enabled},
			Abi:     AbiSplitProperties{Enabled: enabled, Include: []string{"x86", "x86"}},
		},
	})
	android.FailIfErrored(t, err)
	android.AssertArrayString(t, "default densities", defaultDensities, v.Densities())
	android.AssertArrayString(t, "deduplicated abis", []string{"x86"}, v.Abis())
}

func TestFingerprint(t *testing.T) {
	load := func(src string) *Variant {
		config, err := LoadConfig("variants.star", src, nil)
		android.FailIfErrored(t, err)
		return config.Variants[0]
	}
	a, err := load(`variants = [struct(build_type = "debug", version_code = 1)]`).Fingerprint()
	android.FailIfErrored(t, err)
	b, err := load(`variants = [struct(build_type = "debug", version_code = 1)]`).Fingerprint()
	android.FailIfErrored(t, err)
	c, err := load(`variants = [struct(build_type = "debug", version_code = 2)]`).Fingerprint()
	android.FailIfErrored(t, err)

	android.AssertBoolEquals(t, "same properties", true, a == b)
	android.AssertBoolEquals(t, "different properties", false, a == c)
}

func TestPrintGoesToVerboseLog(t *testing.T) {
	var buf strings.Builder
	log := newTestLogger(&buf)
	_, err := LoadConfig("variants.star", `
print("configuring")
variants = [struct(build_type = "debug")]
`, log)
	android.FailIfErrored(t, err)
	android.AssertStringDoesContain(t, "verbose log", buf.String(), "configuring")
}
