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
	"sync"

	"github.com/google/blueprint/gobtools"
)

// SplitHandlingPolicy selects how a variant is split into several APKs.
type SplitHandlingPolicy int

const (
	// Pre21Policy produces full split APKs, each installable on its own.
	Pre21Policy SplitHandlingPolicy = iota
	// Release21AndAfterPolicy produces a main APK plus configuration splits.
	Release21AndAfterPolicy
)

func (p SplitHandlingPolicy) String() string {
	switch p {
	case Pre21Policy:
		return "PRE_21_POLICY"
	case Release21AndAfterPolicy:
		return "RELEASE_21_AND_AFTER_POLICY"
	}
	panic(fmt.Errorf("unknown SplitHandlingPolicy %d", int(p)))
}

// SplitScope holds the splits of one variant and the files produced for them.
//
// The list of splits is populated by an OutputFactory during configuration and is read-only once
// the scope is sealed. Outputs can be recorded concurrently at any time.
type SplitScope struct {
	policy SplitHandlingPolicy

	// splits is in insertion order, which MainSplit relies on.
	splits []*ApkInfo
	sealed bool

	// Registry indexes, updated with splits. The first split registered under a key wins.
	indexByKey   map[ApkKey]int
	splitByMatch map[MatchKey]*ApkInfo

	outputsLock sync.Mutex
	outputs     map[OutputType]map[ApkKey][]*BuildOutput
}

type splitScopeGob struct {
	Policy  SplitHandlingPolicy
	Splits  []*ApkInfo
	Sealed  bool
	Outputs map[OutputType][]*BuildOutput
}

func NewSplitScope(policy SplitHandlingPolicy) *SplitScope {
	return &SplitScope{
		policy:       policy,
		indexByKey:   make(map[ApkKey]int),
		splitByMatch: make(map[MatchKey]*ApkInfo),
		outputs:      make(map[OutputType]map[ApkKey][]*BuildOutput),
	}
}

func (s *SplitScope) ToGob() *splitScopeGob {
	outputs := make(map[OutputType][]*BuildOutput)
	for outputType := range s.outputTypes() {
		outputs[outputType] = s.Outputs(outputType)
	}
	return &splitScopeGob{
		Policy:  s.policy,
		Splits:  s.splits,
		Sealed:  s.sealed,
		Outputs: outputs,
	}
}

func (s *SplitScope) outputTypes() map[OutputType]bool {
	s.outputsLock.Lock()
	defer s.outputsLock.Unlock()
	ret := make(map[OutputType]bool, len(s.outputs))
	for outputType := range s.outputs {
		ret[outputType] = true
	}
	return ret
}

// FromGob restores a scope. Recorded outputs are re-pointed at the decoded registry entries so
// that lookups by identity keep working.
func (s *SplitScope) FromGob(data *splitScopeGob) {
	s.policy = data.Policy
	s.sealed = data.Sealed
	s.indexByKey = make(map[ApkKey]int, len(data.Splits))
	s.splitByMatch = make(map[MatchKey]*ApkInfo, len(data.Splits))
	s.splits = nil
	for _, split := range data.Splits {
		s.register(split)
	}
	s.outputs = make(map[OutputType]map[ApkKey][]*BuildOutput, len(data.Outputs))
	for _, outputs := range data.Outputs {
		for _, output := range outputs {
			if live := s.registered(output.apkInfo); live != nil {
				output.apkInfo = live
			}
			s.addOutput(output)
		}
	}
}

func (s *SplitScope) GobEncode() ([]byte, error) {
	return gobtools.CustomGobEncode[splitScopeGob](s)
}

func (s *SplitScope) GobDecode(data []byte) error {
	return gobtools.CustomGobDecode[splitScopeGob](data, s)
}

func (s *SplitScope) Policy() SplitHandlingPolicy {
	return s.policy
}

// AddSplit appends a split to the registry. It fails once the scope is sealed, and when a second
// main split is added.
func (s *SplitScope) AddSplit(apkInfo *ApkInfo) error {
	if apkInfo == nil {
		return fmt.Errorf("cannot add a nil split")
	}
	if s.sealed {
		return fmt.Errorf("cannot add split %s: the split registry is sealed", apkInfo)
	}
	if apkInfo.OutputKind() == MainOutput {
		if main := s.firstOfKind(MainOutput); main != nil {
			return fmt.Errorf("cannot add main split %s: %s is already the main split", apkInfo, main)
		}
	}
	s.register(apkInfo)
	return nil
}

// replaceSplit swaps the registry entry at index i for apkInfo, which has the same key.
func (s *SplitScope) replaceSplit(i int, apkInfo *ApkInfo) {
	old := s.splits[i]
	s.splits[i] = apkInfo
	if s.splitByMatch[old.MatchKey()] == old {
		s.splitByMatch[apkInfo.MatchKey()] = apkInfo
	}
}

func (s *SplitScope) register(apkInfo *ApkInfo) {
	if _, exists := s.indexByKey[apkInfo.Key()]; !exists {
		s.indexByKey[apkInfo.Key()] = len(s.splits)
	}
	if _, exists := s.splitByMatch[apkInfo.MatchKey()]; !exists {
		s.splitByMatch[apkInfo.MatchKey()] = apkInfo
	}
	s.splits = append(s.splits, apkInfo)
}

// Seal makes the split registry read-only. Recording outputs is still allowed.
func (s *SplitScope) Seal() {
	s.sealed = true
}

func (s *SplitScope) Sealed() bool {
	return s.sealed
}

// ApkDatas returns the enabled splits, in registration order.
func (s *SplitScope) ApkDatas() []*ApkInfo {
	var ret []*ApkInfo
	for _, split := range s.splits {
		if split.Enabled() {
			ret = append(ret, split)
		}
	}
	return ret
}

// AllSplits returns every registered split, including the disabled ones.
func (s *SplitScope) AllSplits() []*ApkInfo {
	return slices.Clone(s.splits)
}

// SplitsByType returns the registered splits of the given kind, including the disabled ones.
func (s *SplitScope) SplitsByType(kind OutputKind) []*ApkInfo {
	var ret []*ApkInfo
	for _, split := range s.splits {
		if split.OutputKind() == kind {
			ret = append(ret, split)
		}
	}
	return ret
}

// Split returns the registered split with exactly the given set of filters, or nil. The order of
// filters does not matter.
func (s *SplitScope) Split(filters []Filter) *ApkInfo {
	for _, split := range s.splits {
		if sameFilters(split.filters, filters) {
			return split
		}
	}
	return nil
}

// MainSplit returns the split tooling should treat as the output of the variant: the main split,
// else the enabled universal APK, else the first enabled full split, else nil.
func (s *SplitScope) MainSplit() *ApkInfo {
	if main := s.firstOfKind(MainOutput); main != nil {
		return main
	}
	for _, split := range s.splits {
		if split.Enabled() && split.OutputKind() == FullSplitOutput && split.FilterName() == Universal {
			return split
		}
	}
	for _, split := range s.splits {
		if split.Enabled() && split.OutputKind() == FullSplitOutput {
			return split
		}
	}
	return nil
}

// splitOfKind is Split restricted to one output kind, so that a universal APK and a main APK,
// which both have no filters, are told apart.
func (s *SplitScope) splitOfKind(kind OutputKind, filters []Filter) *ApkInfo {
	return s.splitByMatch[newMatchKey(kind, filters)]
}

func (s *SplitScope) firstOfKind(kind OutputKind) *ApkInfo {
	for _, split := range s.splits {
		if split.OutputKind() == kind {
			return split
		}
	}
	return nil
}

// registered returns the registry entry with the identity of apkInfo, else the first one matching
// its output kind and filters, or nil.
func (s *SplitScope) registered(apkInfo *ApkInfo) *ApkInfo {
	if apkInfo == nil {
		return nil
	}
	if i, ok := s.indexByKey[apkInfo.Key()]; ok {
		return s.splits[i]
	}
	return s.splitByMatch[apkInfo.MatchKey()]
}

// registryIndex returns the registration index of the split apkInfo describes, or the number of
// splits if it is not registered.
func (s *SplitScope) registryIndex(apkInfo *ApkInfo) int {
	if apkInfo == nil {
		return len(s.splits)
	}
	if i, ok := s.indexByKey[apkInfo.Key()]; ok {
		return i
	}
	return len(s.splits)
}

// AddOutputForSplit records that outputFile was produced for apkInfo under outputType. An empty
// outputFile or a nil apkInfo records nothing.
func (s *SplitScope) AddOutputForSplit(outputType OutputType, apkInfo *ApkInfo, outputFile string) {
	s.AddOutputForSplitWithProperties(outputType, apkInfo, outputFile, nil)
}

func (s *SplitScope) AddOutputForSplitWithProperties(outputType OutputType, apkInfo *ApkInfo,
	outputFile string, properties map[string]string) {

	if outputFile == "" || apkInfo == nil {
		return
	}
	s.addOutput(NewBuildOutput(outputType, apkInfo, outputFile, properties))
}

func (s *SplitScope) addOutput(output *BuildOutput) {
	if output.apkInfo == nil {
		return
	}
	key := output.apkInfo.Key()

	s.outputsLock.Lock()
	defer s.outputsLock.Unlock()
	bySplit := s.outputs[output.outputType]
	if bySplit == nil {
		bySplit = make(map[ApkKey][]*BuildOutput)
		s.outputs[output.outputType] = bySplit
	}
	for _, existing := range bySplit[key] {
		if existing.Equal(output) {
			return
		}
	}
	bySplit[key] = append(bySplit[key], output)
}

// Outputs returns the outputs recorded under outputType, ordered by the registration order of
// their split, then by file.
func (s *SplitScope) Outputs(outputType OutputType) []*BuildOutput {
	s.outputsLock.Lock()
	var ret []*BuildOutput
	for _, outputs := range s.outputs[outputType] {
		ret = append(ret, outputs...)
	}
	s.outputsLock.Unlock()

	slices.SortStableFunc(ret, func(a, b *BuildOutput) int {
		if c := cmp.Compare(s.registryIndex(a.apkInfo), s.registryIndex(b.apkInfo)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.outputFile, b.outputFile); c != 0 {
			return c
		}
		return cmp.Compare(a.String(), b.String())
	})
	return ret
}

// AllOutputs returns the outputs of all the given types, in the order of outputTypes.
func (s *SplitScope) AllOutputs(outputTypes ...OutputType) []*BuildOutput {
	var ret []*BuildOutput
	for _, outputType := range outputTypes {
		ret = append(ret, s.Outputs(outputType)...)
	}
	return ret
}

// Output returns the output recorded for apkInfo under outputType, or nil.
func (s *SplitScope) Output(outputType OutputType, apkInfo *ApkInfo) *BuildOutput {
	return GetOutput(s.Outputs(outputType), outputType, apkInfo)
}

// OutputForKind returns the first output recorded under outputType for a split of the given
// kind, or nil.
func (s *SplitScope) OutputForKind(outputType OutputType, kind OutputKind) *BuildOutput {
	return GetOutputForKind(s.Outputs(outputType), outputType, kind)
}

// DeleteAllEntries forgets every output recorded under outputType.
func (s *SplitScope) DeleteAllEntries(outputType OutputType) {
	s.outputsLock.Lock()
	defer s.outputsLock.Unlock()
	delete(s.outputs, outputType)
}

// Persist returns the output.json content for the outputs of the given types. The result is
// "[]" when nothing was recorded.
func (s *SplitScope) Persist(outputTypes []OutputType) (string, error) {
	data, err := EncodeBuildOutputs(s.AllOutputs(outputTypes...))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Save writes the outputs of the given types to output.json in folder. Nothing is written when
// no output of these types was recorded.
func (s *SplitScope) Save(outputTypes []OutputType, folder string) error {
	outputs := s.AllOutputs(outputTypes...)
	if len(outputs) == 0 {
		return nil
	}
	return WriteBuildOutputs(outputs, folder)
}

// SplitCreator builds the split of a persisted record that is not in the registry, typically a
// configuration split produced downstream of the planner. It returns nil to skip the record.
type SplitCreator func(kind OutputKind, filters []Filter) *ApkInfo

// Load records the outputs of the given types found in folder's output.json. Persisted splits are
// resolved against this scope's registry; records of unknown splits are skipped. A missing file
// loads nothing.
func (s *SplitScope) Load(outputTypes []OutputType, folder string) error {
	return s.LoadWithCreator(outputTypes, folder, nil)
}

// LoadWithCreator is Load, except that records of unknown splits are attached to the split
// returned by create. Created splits are not added to the registry.
func (s *SplitScope) LoadWithCreator(outputTypes []OutputType, folder string, create SplitCreator) error {
	outputs, err := LoadBuildOutputsOfTypes(outputTypes, folder)
	if err != nil {
		return err
	}
	for _, output := range outputs {
		split := s.splitOfKind(output.OutputKind(), output.apkInfo.filters)
		if split == nil && create != nil {
			split = create(output.OutputKind(), output.Filters())
		}
		if split == nil {
			continue
		}
		s.addOutput(NewBuildOutput(output.outputType, split, output.outputFile, output.properties))
	}
	return nil
}

// ForEach runs action on every registered split in registration order and records the files it
// returns under outputType. It stops at the first error.
func (s *SplitScope) ForEach(outputType OutputType, action SplitAction) error {
	for _, split := range s.splits {
		outputFile, err := action(split)
		if err != nil {
			return fmt.Errorf("processing split %s: %w", split, err)
		}
		s.AddOutputForSplit(outputType, split, outputFile)
	}
	return nil
}
