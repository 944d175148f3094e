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

// SplitProperties configures the splits along one filter dimension.
type SplitProperties struct {
	// Whether to produce one split per value of this dimension.
	Enabled *bool

	// The values to produce splits for. Density and ABI splits default to every known value
	// when enabled with an empty list.
	Include []string
}

type AbiSplitProperties struct {
	Enabled *bool
	Include []string

	// Whether to produce a universal APK next to the per-ABI APKs, for the pre-21 policy only.
	Universal_apk *bool
}

type SplitsProperties struct {
	Density  SplitProperties
	Abi      AbiSplitProperties
	Language SplitProperties
}

// VariantProperties are the properties of one variant in a configuration file.
type VariantProperties struct {
	// Build type of the variant, e.g. "debug" or "release". Required.
	Build_type *string

	// Product flavors of the variant, from the highest priority flavor dimension to the lowest.
	Product_flavors []string

	// Whether the APKs of the variant are signed. Defaults to false.
	Signed *bool

	// Whether the variant belongs to the base module of the application. Defaults to true.
	Base_module *bool

	Min_sdk_version *int64

	// Whether to produce configuration splits instead of full splits. Only honored with a
	// min_sdk_version of 21 or higher.
	Generate_pure_splits *bool

	// Prefix of the names of all APK files. Defaults to "app".
	Project_base_name *string

	Version_code *int64
	Version_name *string

	Splits SplitsProperties

	// ABIs of the device the build targets. When set, full splits for other ABIs are not built.
	Injected_abis []string
}
