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
	"encoding/json"
	"fmt"
)

// OutputCategory distinguishes outputs produced by a task from anchor outputs, which only mark a
// position in the pipeline that other steps attach their outputs to.
type OutputCategory int

const (
	TaskOutput OutputCategory = iota
	AnchorOutput
)

// OutputType names a pipeline output that can be recorded per split, e.g. the packaged APK or
// the processed resources. Task outputs and anchor outputs share a single namespace.
type OutputType string

const (
	MergedManifests                    OutputType = "MERGED_MANIFESTS"
	ProcessedRes                       OutputType = "PROCESSED_RES"
	Apk                                OutputType = "APK"
	AbiProcessedSplitRes               OutputType = "ABI_PROCESSED_SPLIT_RES"
	DensityOrLanguageSplitProcessedRes OutputType = "DENSITY_OR_LANGUAGE_SPLIT_PROCESSED_RES"
	AbiPackagedSplit                   OutputType = "ABI_PACKAGED_SPLIT"
	DensityOrLanguagePackagedSplit     OutputType = "DENSITY_OR_LANGUAGE_PACKAGED_SPLIT"
	InstantRunMergedManifests          OutputType = "INSTANT_RUN_MERGED_MANIFESTS"
	InstantRunPackagedRes              OutputType = "INSTANT_RUN_PACKAGED_RES"
	ManifestMetadata                   OutputType = "MANIFEST_METADATA"
	ApkMapping                         OutputType = "APK_MAPPING"
	SplitList                          OutputType = "SPLIT_LIST"
	FullApk                            OutputType = "FULL_APK"

	GeneratedRes OutputType = "GENERATED_RES"
	GeneratedSrc OutputType = "GENERATED_SRC"
	AllClasses   OutputType = "ALL_CLASSES"
)

var outputTypeCategories = map[OutputType]OutputCategory{
	MergedManifests:                    TaskOutput,
	ProcessedRes:                       TaskOutput,
	Apk:                                TaskOutput,
	AbiProcessedSplitRes:               TaskOutput,
	DensityOrLanguageSplitProcessedRes: TaskOutput,
	AbiPackagedSplit:                   TaskOutput,
	DensityOrLanguagePackagedSplit:     TaskOutput,
	InstantRunMergedManifests:          TaskOutput,
	InstantRunPackagedRes:              TaskOutput,
	ManifestMetadata:                   TaskOutput,
	ApkMapping:                         TaskOutput,
	SplitList:                          TaskOutput,
	FullApk:                            TaskOutput,

	GeneratedRes: AnchorOutput,
	GeneratedSrc: AnchorOutput,
	AllClasses:   AnchorOutput,
}

// ParseOutputType returns the output type with the given symbolic name.
func ParseOutputType(name string) (OutputType, error) {
	if _, ok := outputTypeCategories[OutputType(name)]; ok {
		return OutputType(name), nil
	}
	return "", fmt.Errorf("unknown output type %q", name)
}

func (t OutputType) Category() OutputCategory {
	return outputTypeCategories[t]
}

func (t OutputType) Valid() bool {
	_, ok := outputTypeCategories[t]
	return ok
}

func (t OutputType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown output type %q", string(t))
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts both the plain symbolic name and the older {"type": "NAME"} object form.
func (t *OutputType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var wrapped struct {
			Type *string `json:"type"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Type == nil {
			return fmt.Errorf("output type must be a string or an object with a type: %s", data)
		}
		name = *wrapped.Type
	}
	parsed, err := ParseOutputType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
