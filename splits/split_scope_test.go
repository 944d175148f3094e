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
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"android/apksplits/android"
)

func TestMainSplitFallback(t *testing.T) {
	t.Run("main", func(t *testing.T) {
		f := newTestFactory(Pre21Policy)
		mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
		main := mustAdd(t)(f.AddMainApk())
		mustAdd(t)(f.AddUniversalApk())
		if got := f.Output().MainSplit(); got != main {
			t.Errorf("expected %s, got %s", main, got)
		}
	})

	t.Run("universal", func(t *testing.T) {
		f := newTestFactory(Pre21Policy)
		mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
		mustAdd(t)(f.AddFullSplit(AbiFilterOf("arm64-v8a")))
		universal := mustAdd(t)(f.AddUniversalApk())
		if got := f.Output().MainSplit(); got != universal {
			t.Errorf("expected %s, got %s", universal, got)
		}
	})

	t.Run("first full split", func(t *testing.T) {
		f := newTestFactory(Pre21Policy)
		mustAdd(t)(f.AddConfigurationSplit(LanguageFilterOf("fr")))
		first := mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
		mustAdd(t)(f.AddFullSplit(AbiFilterOf("arm64-v8a")))
		if got := f.Output().MainSplit(); got != first {
			t.Errorf("expected %s, got %s", first, got)
		}
	})

	t.Run("disabled universal skipped", func(t *testing.T) {
		scope := NewSplitScope(Pre21Policy)
		f := newTestFactory(Pre21Policy)
		universal := mustAdd(t)(f.AddUniversalApk())
		split := mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
		android.FailIfErrored(t, scope.AddSplit(universal.Disabled()))
		android.FailIfErrored(t, scope.AddSplit(split))
		if got := scope.MainSplit(); got != split {
			t.Errorf("expected %s, got %s", split, got)
		}
	})

	t.Run("none", func(t *testing.T) {
		f := newTestFactory(Release21AndAfterPolicy)
		mustAdd(t)(f.AddConfigurationSplit(AbiFilterOf("x86")))
		if got := f.Output().MainSplit(); got != nil {
			t.Errorf("expected no main split, got %s", got)
		}
	})
}

func TestDisabledSplitExclusion(t *testing.T) {
	f := newTestFactory(Release21AndAfterPolicy)
	main := mustAdd(t)(f.AddMainApk())
	x86 := mustAdd(t)(f.AddConfigurationSplit(AbiFilterOf("x86")))

	scope := NewSplitScope(Release21AndAfterPolicy)
	android.FailIfErrored(t, scope.AddSplit(main))
	android.FailIfErrored(t, scope.AddSplit(x86.Disabled()))

	apkDatas := scope.ApkDatas()
	android.AssertIntEquals(t, "apk datas", 1, len(apkDatas))
	android.AssertBoolEquals(t, "apk data is main", true, apkDatas[0] == main)

	bySplit := scope.SplitsByType(SplitOutput)
	android.AssertIntEquals(t, "splits by type", 1, len(bySplit))
	android.AssertBoolEquals(t, "disabled split kept", false, bySplit[0].Enabled())
}

func TestSplitLookupBySet(t *testing.T) {
	f := newTestFactory(Pre21Policy)
	split := mustAdd(t)(f.AddFullSplit(DensityFilterOf("hdpi"), AbiFilterOf("x86")))
	mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
	scope := f.Output()

	if got := scope.Split([]Filter{AbiFilterOf("x86"), DensityFilterOf("hdpi")}); got != split {
		t.Errorf("expected %s, got %s", split, got)
	}
	if got := scope.Split([]Filter{AbiFilterOf("mips")}); got != nil {
		t.Errorf("expected no split, got %s", got)
	}
}

func TestAddOutputForSplit(t *testing.T) {
	f := newTestFactory(Pre21Policy)
	x86 := mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
	arm := mustAdd(t)(f.AddFullSplit(AbiFilterOf("arm64-v8a")))
	scope := f.Output()

	scope.AddOutputForSplit(Apk, arm, "out/arm.apk")
	scope.AddOutputForSplit(Apk, x86, "out/x86.apk")
	scope.AddOutputForSplit(Apk, x86, "out/x86.apk")
	scope.AddOutputForSplit(Apk, x86, "")
	scope.AddOutputForSplitWithProperties(ProcessedRes, x86, "out/x86.ap_",
		map[string]string{BuildOutputProp.PACKAGE_ID: "0x7f"})

	var files []string
	for _, output := range scope.Outputs(Apk) {
		files = append(files, output.OutputFile())
	}
	android.AssertArrayString(t, "apk outputs in registration order", []string{"out/x86.apk", "out/arm.apk"}, files)

	output := scope.Output(ProcessedRes, x86)
	if output == nil {
		t.Fatal("expected a processed resources output")
	}
	android.AssertStringEquals(t, "property", "0x7f", output.Property(BuildOutputProp.PACKAGE_ID))
	if got := scope.Output(ProcessedRes, arm); got != nil {
		t.Errorf("expected no output for %s, got %s", arm, got)
	}
	if got := scope.OutputForKind(Apk, FullSplitOutput); got == nil || got.OutputFile() != "out/x86.apk" {
		t.Errorf("expected out/x86.apk, got %s", got)
	}

	scope.DeleteAllEntries(Apk)
	android.AssertIntEquals(t, "apk outputs after delete", 0, len(scope.Outputs(Apk)))
	android.AssertIntEquals(t, "other outputs kept", 1, len(scope.Outputs(ProcessedRes)))
}

func TestConcurrentAddOutputForSplit(t *testing.T) {
	f := newTestFactory(Pre21Policy)
	var splits []*ApkInfo
	for i := 0; i < 8; i++ {
		splits = append(splits, mustAdd(t)(f.AddFullSplit(DensityFilterOf(fmt.Sprintf("d%d", i)))))
	}
	scope := f.Output()

	var wg sync.WaitGroup
	for _, split := range splits {
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scope.AddOutputForSplit(Apk, split, fmt.Sprintf("out/%s/%d.apk", split.DirName(), j))
			}()
		}
	}
	wg.Wait()

	android.AssertIntEquals(t, "outputs", 80, len(scope.Outputs(Apk)))
}

func TestSaveWithoutOutputsDoesNotWrite(t *testing.T) {
	f := newTestFactory(Pre21Policy)
	main := mustAdd(t)(f.AddMainApk())
	scope := f.Output()
	scope.AddOutputForSplit(ProcessedRes, main, "out/res.ap_")
	dir := t.TempDir()

	android.FailIfErrored(t, scope.Save(nil, dir))
	android.FailIfErrored(t, scope.Save([]OutputType{Apk}, dir))

	if _, err := os.Stat(filepath.Join(dir, MetadataFileName)); !os.IsNotExist(err) {
		t.Errorf("expected no %s, got %v", MetadataFileName, err)
	}

	persisted, err := scope.Persist([]OutputType{Apk})
	android.FailIfErrored(t, err)
	android.AssertStringEquals(t, "empty persist", "[]\n", persisted)
}

func TestSaveWithoutOutputsKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	metadataFile := filepath.Join(dir, MetadataFileName)
	previous := "[]\n"
	android.FailIfErrored(t, os.WriteFile(metadataFile, []byte(previous), 0666))
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	android.FailIfErrored(t, os.Chtimes(metadataFile, old, old))

	f := newTestFactory(Pre21Policy)
	universal := mustAdd(t)(f.AddUniversalApk())
	scope := f.Output()
	scope.AddOutputForSplit(ProcessedRes, universal, "out/res.ap_")
	android.FailIfErrored(t, scope.Save([]OutputType{Apk}, dir))

	data, err := os.ReadFile(metadataFile)
	android.FailIfErrored(t, err)
	android.AssertStringEquals(t, "content", previous, string(data))
	info, err := os.Stat(metadataFile)
	android.FailIfErrored(t, err)
	if !info.ModTime().Equal(old) {
		t.Errorf("expected %s to keep its modification time %s, got %s", metadataFile, old, info.ModTime())
	}
}

func TestAddOutputWithoutSplit(t *testing.T) {
	scope := newTestFactory(Pre21Policy).Output()
	scope.AddOutputForSplit(Apk, nil, "out/orphan.apk")

	android.AssertIntEquals(t, "outputs", 0, len(scope.Outputs(Apk)))
	persisted, err := scope.Persist([]OutputType{Apk})
	android.FailIfErrored(t, err)
	android.AssertStringEquals(t, "persisted", "[]\n", persisted)
}

func TestSaveAndLoad(t *testing.T) {
	build := func() *SplitScope {
		f := newTestFactory(Pre21Policy)
		mustAdd(t)(f.AddUniversalApk())
		mustAdd(t)(f.AddFullSplit(DensityFilterOf("hdpi"), AbiFilterOf("x86")))
		mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
		return f.Output()
	}
	dir := t.TempDir()

	first := build()
	for _, split := range first.ApkDatas() {
		first.AddOutputForSplit(Apk, split, filepath.Join("out", split.DirName(), split.OutputFileName()))
		first.AddOutputForSplit(ProcessedRes, split, filepath.Join("res", split.DirName(), "res.ap_"))
	}
	android.FailIfErrored(t, first.Save([]OutputType{Apk}, dir))

	second := build()
	android.FailIfErrored(t, second.Load([]OutputType{Apk, ProcessedRes}, dir))

	android.AssertIntEquals(t, "apk outputs", 3, len(second.Outputs(Apk)))
	android.AssertIntEquals(t, "processed res not saved", 0, len(second.Outputs(ProcessedRes)))
	for _, split := range second.ApkDatas() {
		output := second.Output(Apk, split)
		if output == nil {
			t.Fatalf("no output loaded for %s", split)
		}
		if output.ApkInfo() != split {
			t.Errorf("expected loaded output to point at the live split %s, got %s", split, output.ApkInfo())
		}
		android.AssertStringEquals(t, "output file",
			filepath.Join("out", split.DirName(), split.OutputFileName()), output.OutputFile())
	}
}

func TestLoadSkipsUnknownSplits(t *testing.T) {
	dir := t.TempDir()
	data := `[
  {"type": "APK", "apkInfo": {"type": "FULL_SPLIT", "splits": [{"filterType": "ABI", "value": "mips"}], "versionCode": 1}, "outputFile": "mips.apk", "properties": {}},
  {"type": "APK", "apkInfo": {"type": "FULL_SPLIT", "splits": [{"filterType": "ABI", "value": "x86"}], "versionCode": 1}, "outputFile": "x86.apk", "properties": {}}
]`
	android.FailIfErrored(t, os.WriteFile(filepath.Join(dir, MetadataFileName), []byte(data), 0666))

	f := newTestFactory(Pre21Policy)
	x86 := mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
	scope := f.Output()
	android.FailIfErrored(t, scope.Load([]OutputType{Apk}, dir))

	outputs := scope.Outputs(Apk)
	android.AssertIntEquals(t, "outputs", 1, len(outputs))
	android.AssertBoolEquals(t, "x86 output", true, outputs[0].ApkInfo() == x86)
}

func TestLoadWithCreator(t *testing.T) {
	dir := t.TempDir()
	data := `[
  {"type": "APK", "apkInfo": {"type": "MAIN", "splits": [], "versionCode": 12}, "outputFile": "main.apk", "properties": {}},
  {"type": "APK", "apkInfo": {"type": "DefaultSplit", "splits": [{"filterType": "LANGUAGE", "value": "fr"}], "versionCode": 12}, "outputFile": "fr.apk", "properties": {}},
  {"type": "APK", "apkInfo": {"type": "FULL_SPLIT", "splits": [{"filterType": "ABI", "value": "mips"}], "versionCode": 12}, "outputFile": "mips.apk", "properties": {}}
]`
	android.FailIfErrored(t, os.WriteFile(filepath.Join(dir, MetadataFileName), []byte(data), 0666))

	f := newTestFactory(Release21AndAfterPolicy)
	main := mustAdd(t)(f.AddMainApk())
	scope := f.Output()
	android.FailIfErrored(t, scope.LoadWithCreator([]OutputType{Apk}, dir, f.SplitCreator()))

	outputs := scope.Outputs(Apk)
	android.AssertIntEquals(t, "outputs", 2, len(outputs))
	android.AssertBoolEquals(t, "main output", true, outputs[0].ApkInfo() == main)
	fr := outputs[1].ApkInfo()
	android.AssertStringEquals(t, "created split", "fr", fr.FilterName())
	android.AssertStringEquals(t, "created split kind", string(SplitOutput), string(fr.OutputKind()))
	android.AssertStringEquals(t, "created split file", "fr.apk", outputs[1].OutputFile())
	android.AssertIntEquals(t, "created splits are not registered", 1, len(scope.AllSplits()))
}

func TestLoadResolvesRestrictedSplits(t *testing.T) {
	dir := t.TempDir()
	data := `[
  {"type": "APK", "apkInfo": {"type": "FULL_SPLIT", "splits": [{"filterType": "ABI", "value": "x86"}], "versionCode": 12}, "outputFile": "x86.apk", "properties": {}}
]`
	android.FailIfErrored(t, os.WriteFile(filepath.Join(dir, MetadataFileName), []byte(data), 0666))

	f := newTestFactory(Pre21Policy)
	mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
	android.FailIfErrored(t, f.RestrictToAbis("arm64-v8a"))
	scope := f.Output()
	android.FailIfErrored(t, scope.Load([]OutputType{Apk}, dir))

	x86 := scope.Split([]Filter{AbiFilterOf("x86")})
	android.AssertBoolEquals(t, "registry holds the disabled split", false, x86.Enabled())
	output := scope.Output(Apk, x86)
	if output == nil {
		t.Fatal("expected the x86 output to be loaded")
	}
	android.AssertBoolEquals(t, "output points at the disabled split", true, output.ApkInfo() == x86)
}

func TestLoadMissingFile(t *testing.T) {
	scope := newTestFactory(Pre21Policy).Output()
	android.FailIfErrored(t, scope.Load([]OutputType{Apk}, filepath.Join(t.TempDir(), "missing")))
	android.AssertIntEquals(t, "outputs", 0, len(scope.Outputs(Apk)))
}

func TestForEach(t *testing.T) {
	f := newTestFactory(Pre21Policy)
	mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
	mustAdd(t)(f.AddFullSplit(AbiFilterOf("arm64-v8a")))
	scope := f.Output()

	var visited []string
	err := scope.ForEach(Apk, func(split *ApkInfo) (string, error) {
		visited = append(visited, split.FilterName())
		if split.FilterName() == "arm64-v8a" {
			return "", nil
		}
		return split.OutputFileName(), nil
	})
	android.FailIfErrored(t, err)
	android.AssertArrayString(t, "visited", []string{"x86", "arm64-v8a"}, visited)
	android.AssertIntEquals(t, "recorded", 1, len(scope.Outputs(Apk)))

	err = scope.ForEach(Apk, func(split *ApkInfo) (string, error) {
		return "", fmt.Errorf("no toolchain")
	})
	android.AssertErrorMessageContains(t, "error", "no toolchain", err)
}

func TestSplitScopeGob(t *testing.T) {
	f := newTestFactory(Pre21Policy)
	mustAdd(t)(f.AddUniversalApk())
	x86 := mustAdd(t)(f.AddFullSplit(AbiFilterOf("x86")))
	scope := f.Output()
	scope.AddOutputForSplitWithProperties(Apk, x86, "out/x86.apk", map[string]string{BuildOutputProp.SPLIT: "x86"})

	var buf bytes.Buffer
	android.FailIfErrored(t, gob.NewEncoder(&buf).Encode(scope))
	decoded := NewSplitScope(Release21AndAfterPolicy)
	android.FailIfErrored(t, gob.NewDecoder(&buf).Decode(decoded))

	android.AssertStringEquals(t, "policy", Pre21Policy.String(), decoded.Policy().String())
	android.AssertBoolEquals(t, "sealed", true, decoded.Sealed())
	android.AssertIntEquals(t, "splits", 2, len(decoded.AllSplits()))

	live := decoded.Split([]Filter{AbiFilterOf("x86")})
	output := decoded.Output(Apk, live)
	if output == nil {
		t.Fatal("expected the x86 output to survive")
	}
	android.AssertBoolEquals(t, "output points at decoded split", true, output.ApkInfo() == live)
	android.AssertStringEquals(t, "property", "x86", output.Property(BuildOutputProp.SPLIT))
	android.AssertStringEquals(t, "full name", x86.FullName(), live.FullName())
}
