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
	"io"

	"android/apksplits/splits"
	"android/apksplits/ui/logger"
)

// NewOutputFactory returns an OutputFactory populated with the APKs v produces. The factory is not
// sealed yet, so callers can still register extra outputs before calling Output.
func NewOutputFactory(v *Variant, log logger.Logger) (*splits.OutputFactory, error) {
	if log == nil {
		log = logger.New(io.Discard)
	}
	policy := SplitHandlingPolicy(v, log)
	f := splits.NewOutputFactory(v, policy, log)

	densities := v.Densities()
	abis := v.Abis()
	languages := v.Languages()

	if policy == splits.Pre21Policy && len(languages) > 0 {
		log.Printf("warning: %s: language splits require generate_pure_splits and min_sdk_version %d or higher; ignoring them",
			v.FullName(), pureSplitsMinSdk)
		languages = nil
	}

	if len(densities) == 0 && len(abis) == 0 && len(languages) == 0 {
		if _, err := f.AddMainApk(); err != nil {
			return nil, err
		}
		return f, nil
	}

	var err error
	switch policy {
	case splits.Pre21Policy:
		err = planFullSplits(f, v, densities, abis)
	case splits.Release21AndAfterPolicy:
		err = planConfigurationSplits(f, v, log, densities, abis, languages)
	}
	if err != nil {
		return nil, err
	}

	if injected := v.InjectedAbis(); len(injected) > 0 {
		if err := f.RestrictToAbis(injected...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Plan returns the sealed scope holding the APKs v produces.
func Plan(v *Variant, log logger.Logger) (*splits.SplitScope, error) {
	f, err := NewOutputFactory(v, log)
	if err != nil {
		return nil, err
	}
	return f.Output(), nil
}

// planFullSplits adds one standalone APK per combination of density and ABI, where either may be
// absent but not both.
func planFullSplits(f *splits.OutputFactory, v *Variant, densities, abis []string) error {
	if v.UniversalApk() {
		if _, err := f.AddUniversalApk(); err != nil {
			return err
		}
	}
	for _, density := range append(densities, "") {
		for _, abi := range append(abis, "") {
			var filters []splits.Filter
			if density != "" {
				filters = append(filters, splits.DensityFilterOf(density))
			}
			if abi != "" {
				filters = append(filters, splits.AbiFilterOf(abi))
			}
			if len(filters) == 0 {
				continue
			}
			if _, err := f.AddFullSplit(filters...); err != nil {
				return err
			}
		}
	}
	return nil
}

// planConfigurationSplits adds the main APK and one configuration split per density, language
// and ABI.
func planConfigurationSplits(f *splits.OutputFactory, v *Variant, log logger.Logger,
	densities, abis, languages []string) error {

	if v.UniversalApk() {
		log.Verbosef("%s: universal_apk only applies to full splits; ignoring it", v.FullName())
	}
	if _, err := f.AddMainApk(); err != nil {
		return err
	}
	var filters []splits.Filter
	for _, density := range densities {
		filters = append(filters, splits.DensityFilterOf(density))
	}
	for _, language := range languages {
		filters = append(filters, splits.LanguageFilterOf(language))
	}
	for _, abi := range abis {
		filters = append(filters, splits.AbiFilterOf(abi))
	}
	for _, filter := range filters {
		if _, err := f.AddConfigurationSplit(filter); err != nil {
			return err
		}
	}
	return nil
}
