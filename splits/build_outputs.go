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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/blueprint/pathtools"

	"android/apksplits/android"
)

// MetadataFileName is the name of the file build outputs are persisted to.
const MetadataFileName = "output.json"

// MetadataFile returns the path of the metadata file in folder.
func MetadataFile(folder string) string {
	return filepath.Join(folder, MetadataFileName)
}

type filterJSON struct {
	FilterType string `json:"filterType"`
	Value      string `json:"value"`
}

type apkInfoJSON struct {
	Type        string       `json:"type"`
	Splits      []filterJSON `json:"splits"`
	VersionCode int          `json:"versionCode"`
}

type buildOutputJSON struct {
	Type       OutputType        `json:"type"`
	ApkInfo    *apkInfoJSON      `json:"apkInfo"`
	OutputFile string            `json:"outputFile"`
	Properties map[string]string `json:"properties"`
}

// toJSON converts output to its persisted form. An output without a split is written with a null
// apkInfo, which DecodeBuildOutputs drops.
func toJSON(output *BuildOutput) buildOutputJSON {
	var apkInfo *apkInfoJSON
	if output.apkInfo != nil {
		apkInfo = &apkInfoJSON{
			Type:        string(output.OutputKind()),
			Splits:      []filterJSON{},
			VersionCode: output.VersionCode(),
		}
		for _, f := range output.apkInfo.filters {
			apkInfo.Splits = append(apkInfo.Splits, filterJSON{FilterType: string(f.Type), Value: f.Identifier})
		}
	}
	return buildOutputJSON{
		Type:       output.outputType,
		ApkInfo:    apkInfo,
		OutputFile: output.outputFile,
		Properties: output.Properties(),
	}
}

func fromJSON(record buildOutputJSON) (*BuildOutput, error) {
	kind, err := ParseOutputKind(record.ApkInfo.Type)
	if err != nil {
		return nil, err
	}
	var filters []Filter
	for _, f := range record.ApkInfo.Splits {
		if f.FilterType == "" || f.Value == "" {
			continue
		}
		filterType, err := ParseFilterType(f.FilterType)
		if err != nil {
			return nil, err
		}
		filters = append(filters, NewFilter(filterType, f.Value))
	}
	apkInfo, err := newPersistedApkInfo(kind, filters, record.ApkInfo.VersionCode)
	if err != nil {
		return nil, err
	}
	return NewBuildOutput(record.Type, apkInfo, record.OutputFile, record.Properties), nil
}

// EncodeBuildOutputs returns the output.json representation of outputs. Only the output kind, the
// filters and the version code of each split are kept.
func EncodeBuildOutputs(outputs []*BuildOutput) ([]byte, error) {
	records := make([]buildOutputJSON, 0, len(outputs))
	for _, output := range outputs {
		records = append(records, toJSON(output))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeBuildOutputs parses the content of an output.json file. Records without split
// information are dropped.
func DecodeBuildOutputs(data []byte) ([]*BuildOutput, error) {
	var records []buildOutputJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	var ret []*BuildOutput
	for i, record := range records {
		if record.ApkInfo == nil {
			continue
		}
		output, err := fromJSON(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ret = append(ret, output)
	}
	return ret, nil
}

// WriteBuildOutputs writes outputs to output.json in folder, creating folder if needed. The file
// is left untouched when its content would not change.
func WriteBuildOutputs(outputs []*BuildOutput, folder string) error {
	data, err := EncodeBuildOutputs(outputs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(folder, 0777); err != nil {
		return err
	}
	return pathtools.WriteFileIfChanged(MetadataFile(folder), data, 0666)
}

// LoadBuildOutputs reads the outputs persisted in folder. A missing or unreadable metadata file
// means nothing was recorded yet and is not an error; a malformed one is.
func LoadBuildOutputs(folder string) ([]*BuildOutput, error) {
	metadataFile := MetadataFile(folder)
	data, err := os.ReadFile(metadataFile)
	if err != nil {
		return nil, nil
	}
	outputs, err := DecodeBuildOutputs(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metadataFile, err)
	}
	return outputs, nil
}

// LoadBuildOutputsOfTypes is LoadBuildOutputs restricted to the given output types.
func LoadBuildOutputsOfTypes(outputTypes []OutputType, folder string) ([]*BuildOutput, error) {
	outputs, err := LoadBuildOutputs(folder)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(outputs, func(output *BuildOutput) bool {
		return !slices.Contains(outputTypes, output.outputType)
	}), nil
}

// GetOutput returns the output of outputType recorded for a split matching apkInfo, or nil. Splits
// match on output kind and filter set, so descriptors reloaded from disk match live ones. Outputs
// without a split never match.
func GetOutput(outputs []*BuildOutput, outputType OutputType, apkInfo *ApkInfo) *BuildOutput {
	if apkInfo == nil {
		return nil
	}
	key := apkInfo.MatchKey()
	for _, output := range outputs {
		if output.outputType == outputType && output.apkInfo != nil && output.apkInfo.MatchKey() == key {
			return output
		}
	}
	return nil
}

// GetOutputForKind returns the first output of outputType recorded for a split of the given kind,
// or nil.
func GetOutputForKind(outputs []*BuildOutput, outputType OutputType, kind OutputKind) *BuildOutput {
	for _, output := range outputs {
		if output.outputType == outputType && output.apkInfo != nil && output.OutputKind() == kind {
			return output
		}
	}
	return nil
}

// CheckFileNameUniqueness returns an error for every output file used by more than one output.
// Each conflicting output is listed by its output kind when it has no filters, else by its filter
// identifiers.
func CheckFileNameUniqueness(outputs []*BuildOutput) error {
	byFile := make(map[string][]*BuildOutput)
	for _, output := range outputs {
		byFile[output.outputFile] = append(byFile[output.outputFile], output)
	}
	var errs []error
	for _, file := range android.SortedKeys(byFile) {
		conflicts := byFile[file]
		if len(conflicts) < 2 {
			continue
		}
		var apks []string
		for _, output := range conflicts {
			if filters := output.Filters(); len(filters) > 0 {
				apks = append(apks, FilterNameForSplits(filters))
			} else {
				apks = append(apks, string(output.OutputKind()))
			}
		}
		errs = append(errs, fmt.Errorf("Several variant outputs are configured to use the same file name %q, filters : %s",
			filepath.Base(file), strings.Join(apks, ":")))
	}
	return errors.Join(errs...)
}
