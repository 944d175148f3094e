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
	"maps"
	"path/filepath"
	"strings"

	"github.com/google/blueprint/gobtools"
)

var (
	// Names of the properties commonly attached to build outputs. Any other key is accepted too.
	BuildOutputProp = struct {
		PACKAGE_ID   string
		SPLIT        string
		VERSION_NAME string
		DIR_NAME     string
		FULL_NAME    string
		FILTER_NAME  string
		// Set on outputs of splits that were disabled for this build.
		DISABLED string
	}{
		"packageId",
		"split",
		"versionName",
		"dirName",
		"fullName",
		"filterName",
		"disabled",
	}
)

// BuildOutput records that a pipeline step produced outputFile for one split under one output
// type. It is the unit persisted to output.json.
type BuildOutput struct {
	outputType OutputType
	apkInfo    *ApkInfo
	outputFile string
	properties map[string]string
}

type buildOutputGob struct {
	OutputType OutputType
	ApkInfo    *ApkInfo
	OutputFile string
	Properties map[string]string
}

func NewBuildOutput(outputType OutputType, apkInfo *ApkInfo, outputFile string, properties map[string]string) *BuildOutput {
	return &BuildOutput{
		outputType: outputType,
		apkInfo:    apkInfo,
		outputFile: outputFile,
		properties: maps.Clone(properties),
	}
}

func (b *BuildOutput) ToGob() *buildOutputGob {
	return &buildOutputGob{
		OutputType: b.outputType,
		ApkInfo:    b.apkInfo,
		OutputFile: b.outputFile,
		Properties: b.properties,
	}
}

func (b *BuildOutput) FromGob(data *buildOutputGob) {
	b.outputType = data.OutputType
	b.apkInfo = data.ApkInfo
	b.outputFile = data.OutputFile
	b.properties = data.Properties
}

func (b *BuildOutput) GobEncode() ([]byte, error) {
	return gobtools.CustomGobEncode[buildOutputGob](b)
}

func (b *BuildOutput) GobDecode(data []byte) error {
	return gobtools.CustomGobDecode[buildOutputGob](data, b)
}

func (b *BuildOutput) Type() OutputType   { return b.outputType }
func (b *BuildOutput) ApkInfo() *ApkInfo  { return b.apkInfo }
func (b *BuildOutput) OutputFile() string { return b.outputFile }

// OutputKind returns the output kind of the split, or "" if the output has no split.
func (b *BuildOutput) OutputKind() OutputKind {
	if b.apkInfo == nil {
		return ""
	}
	return b.apkInfo.OutputKind()
}

func (b *BuildOutput) Filters() []Filter {
	if b.apkInfo == nil {
		return nil
	}
	return b.apkInfo.Filters()
}

func (b *BuildOutput) VersionCode() int {
	if b.apkInfo == nil {
		return 0
	}
	return b.apkInfo.VersionCode()
}

// FileName returns the last element of the output file path.
func (b *BuildOutput) FileName() string {
	return filepath.Base(b.outputFile)
}

// Properties returns a copy of the free-form properties of this output.
func (b *BuildOutput) Properties() map[string]string {
	ret := maps.Clone(b.properties)
	if ret == nil {
		ret = map[string]string{}
	}
	return ret
}

func (b *BuildOutput) Property(name string) string {
	return b.properties[name]
}

// Equal reports whether b and other record the same file for the same split and output type.
func (b *BuildOutput) Equal(other *BuildOutput) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.outputType == other.outputType &&
		b.apkInfo.Equal(other.apkInfo) &&
		b.outputFile == other.outputFile &&
		propertiesEqual(b.properties, other.properties)
}

// PersistedEqual is Equal restricted to the split information that survives output.json.
func (b *BuildOutput) PersistedEqual(other *BuildOutput) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.outputType == other.outputType &&
		b.apkInfo.PersistedEqual(other.apkInfo) &&
		b.outputFile == other.outputFile &&
		propertiesEqual(b.properties, other.properties)
}

// propertiesEqual treats nil and empty property maps as equal.
func propertiesEqual(a, b map[string]string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return maps.Equal(a, b)
}

func (b *BuildOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s", b.outputType, b.apkInfo, b.outputFile)
	if len(b.properties) > 0 {
		fmt.Fprintf(&sb, " %v", b.properties)
	}
	return sb.String()
}
