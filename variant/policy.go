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
	"github.com/google/blueprint/proptools"

	"android/apksplits/splits"
	"android/apksplits/ui/logger"
)

// pureSplitsMinSdk is the first API level that can install configuration splits.
const pureSplitsMinSdk = 21

// SplitHandlingPolicy returns the policy used to split the APKs of v. Configuration splits are
// only produced when requested and supported by the minimum SDK version of the variant.
func SplitHandlingPolicy(v *Variant, log logger.Logger) splits.SplitHandlingPolicy {
	if !proptools.Bool(v.properties.Generate_pure_splits) {
		return splits.Pre21Policy
	}
	if v.MinSdkVersion() < pureSplitsMinSdk {
		if log != nil {
			log.Printf("warning: %s: generate_pure_splits requires min_sdk_version %d or higher, got %d; producing full splits",
				v.FullName(), pureSplitsMinSdk, v.MinSdkVersion())
		}
		return splits.Pre21Policy
	}
	return splits.Release21AndAfterPolicy
}
