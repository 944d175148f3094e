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

// apk_outputs plans the APKs of the variants of an Android application and tracks the files
// produced for them across builds.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/blueprint/metrics"

	"android/apksplits/android"
	"android/apksplits/splits"
	"android/apksplits/ui/logger"
	"android/apksplits/variant"
)

var (
	configFile  string
	outDir      string
	variantName string
	jobs        int
	metricsFile string
	logFile     string
	verbose     bool
)

const configCacheFile = "config.cache"

// ConfigCache records the configuration the output.json next to it was written for.
type ConfigCache struct {
	PropertiesHash uint64
	Policy         string
}

func init() {
	flag.StringVar(&configFile, "config", "variants.star", "Starlark file describing the variants")
	flag.StringVar(&outDir, "out", "out", "output directory, with one subdirectory per variant")
	flag.StringVar(&variantName, "variant", "", "only process the variant with this full name")
	flag.IntVar(&jobs, "j", 0, "number of splits to process in parallel (default: number of CPUs)")
	flag.StringVar(&metricsFile, "metrics", "", "write build metrics to this file")
	flag.StringVar(&logFile, "log", "", "write a verbose log to this file")
	flag.BoolVar(&verbose, "v", false, "verbose output")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <plan|record|show> [-type OUTPUT_TYPE]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "  plan    print the APKs of each variant")
		fmt.Fprintln(flag.CommandLine.Output(), "  record  record the APKs found under -out and save them to output.json")
		fmt.Fprintln(flag.CommandLine.Output(), "  show    print the outputs saved in output.json")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	log := logger.New(os.Stderr)
	log.SetVerbose(verbose)
	if logFile != "" {
		log.SetOutput(logFile)
	}
	defer log.Cleanup()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)
	commandFlags := flag.NewFlagSet(command, flag.ExitOnError)
	typeName := commandFlags.String("type", string(splits.Apk), "output type to record or show")
	commandFlags.Parse(flag.Args()[1:])
	outputType, err := splits.ParseOutputType(*typeName)
	maybeQuit(err, "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eventHandler := &metrics.EventHandler{}
	counters := map[string]int{}

	eventHandler.Begin("load_config")
	config, err := variant.LoadConfig(configFile, nil, log)
	eventHandler.End("load_config")
	maybeQuit(err, "error loading variants")

	variants := config.Variants
	if variantName != "" {
		v := config.Variant(variantName)
		if v == nil {
			maybeQuit(fmt.Errorf("no variant %q in %s", variantName, configFile), "")
		}
		variants = []*variant.Variant{v}
	}
	counters["variants"] = len(variants)

	pool := splits.NewWorkerPool(jobs)
	var scopes splits.VariantScopes
	eventHandler.Do("plan", func() {
		err = planVariants(ctx, pool, &scopes, variants, log)
	})
	maybeQuit(err, "error planning variants")

	switch command {
	case "plan":
		printPlan(os.Stdout, &scopes, variants)
	case "record":
		for _, v := range variants {
			eventHandler.Do("record."+v.FullName(), func() {
				var recorded int
				recorded, err = recordVariant(ctx, pool, v, scopes.Output(v.FullName()), outputType, log)
				counters["outputs"] += recorded
			})
			maybeQuit(err, "error recording %s", v.FullName())
		}
	case "show":
		eventHandler.Do("show", func() {
			err = show(os.Stdout, variants, outputType)
		})
		maybeQuit(err, "")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if metricsFile != "" {
		err := android.WriteMetrics("apk_outputs", eventHandler, counters, metricsFile)
		maybeQuit(err, "error writing metrics %s", metricsFile)
	}
	log.Verbose(android.MetricsText("apk_outputs", eventHandler, counters))
}

// planVariants creates the splits of every variant in parallel and registers them in scopes.
func planVariants(ctx context.Context, pool *splits.WorkerPool, scopes *splits.VariantScopes,
	variants []*variant.Variant, log logger.Logger) error {

	executor := pool.NewExecutor()
	for _, v := range variants {
		executor.Execute(func() error {
			factory, err := variant.NewOutputFactory(v, log)
			if err != nil {
				return fmt.Errorf("%s: %w", v.FullName(), err)
			}
			scopes.GetOrCreate(v.FullName(), func() *splits.OutputFactory { return factory })
			return nil
		})
	}
	results, err := executor.WaitForAllTasks(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return errors.Join(errs...)
}

func printPlan(w io.Writer, scopes *splits.VariantScopes, variants []*variant.Variant) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	defer tw.Flush()
	for _, v := range variants {
		scope := scopes.Output(v.FullName())
		fmt.Fprintf(tw, "%s (%s)\n", v.FullName(), scope.Policy())
		main := scope.MainSplit()
		for _, split := range scope.AllSplits() {
			var notes []string
			if split == main {
				notes = append(notes, "main")
			}
			if !split.Enabled() {
				notes = append(notes, "disabled")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", split.OutputKind(), split.FilterName(),
				filepath.Join(split.DirName(), split.OutputFileName()), split.FullName(), strings.Join(notes, ","))
		}
	}
}

// recordVariant records the APKs of v present in its output directory and saves them to
// output.json, keeping the outputs of other types already saved there. It returns the number of
// outputs recorded.
func recordVariant(ctx context.Context, pool *splits.WorkerPool, v *variant.Variant,
	scope *splits.SplitScope, outputType splits.OutputType, log logger.Logger) (int, error) {

	variantDir := filepath.Join(outDir, v.FullName())
	configCache, valid, err := configCacheValid(v, scope, variantDir)
	if err != nil {
		return 0, err
	}
	if !valid {
		log.Verbosef("%s: configuration changed, discarding %s", v.FullName(), splits.MetadataFile(variantDir))
		if err := os.Remove(splits.MetadataFile(variantDir)); err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}

	previous, err := splits.LoadBuildOutputs(variantDir)
	if err != nil {
		return 0, err
	}
	outputTypes := []splits.OutputType{outputType}
	for _, output := range previous {
		if !android.InList(output.Type(), outputTypes) {
			outputTypes = append(outputTypes, output.Type())
		}
	}
	if err := scope.Load(outputTypes, variantDir); err != nil {
		return 0, err
	}
	scope.DeleteAllEntries(outputType)

	err = scope.ParallelForEach(ctx, pool, outputType, func(split *splits.ApkInfo) (string, error) {
		path := filepath.Join(variantDir, split.DirName(), split.OutputFileName())
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				log.Verbosef("%s: %s not built", v.FullName(), path)
				return "", nil
			}
			return "", err
		}
		return path, nil
	})
	if err != nil {
		return 0, err
	}

	outputs := scope.Outputs(outputType)
	if err := splits.CheckFileNameUniqueness(outputs); err != nil {
		return 0, err
	}
	if len(scope.AllOutputs(outputTypes...)) == 0 {
		// Nothing left to track; drop the outputs saved by an earlier run.
		if err := os.Remove(splits.MetadataFile(variantDir)); err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	} else if err := scope.Save(outputTypes, variantDir); err != nil {
		return 0, err
	}
	if len(outputs) > 0 {
		if err := writeConfigCache(configCache, filepath.Join(variantDir, configCacheFile)); err != nil {
			return 0, err
		}
	}
	log.Verbosef("%s: recorded %d %s outputs", v.FullName(), len(outputs), outputType)
	return len(outputs), nil
}

// configCacheValid reports whether the output.json of a variant was written for its current
// configuration. It also returns the cache to write for the current configuration.
func configCacheValid(v *variant.Variant, scope *splits.SplitScope, variantDir string) (*ConfigCache, bool, error) {
	var newConfigCache ConfigCache
	var err error
	newConfigCache.PropertiesHash, err = v.Fingerprint()
	if err != nil {
		return nil, false, err
	}
	newConfigCache.Policy = scope.Policy().String()

	data, err := os.ReadFile(filepath.Join(variantDir, configCacheFile))
	if os.IsNotExist(err) {
		return &newConfigCache, false, nil
	} else if err != nil {
		return nil, false, err
	}
	var configCache ConfigCache
	if err := json.Unmarshal(data, &configCache); err != nil {
		return &newConfigCache, false, nil
	}
	return &newConfigCache, newConfigCache == configCache, nil
}

func writeConfigCache(configCache *ConfigCache, configCacheFile string) error {
	data, err := json.Marshal(*configCache)
	if err != nil {
		return err
	}
	return os.WriteFile(configCacheFile, append(data, '\n'), 0666)
}

func show(w io.Writer, variants []*variant.Variant, outputType splits.OutputType) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	defer tw.Flush()
	for _, v := range variants {
		outputs, err := splits.LoadBuildOutputsOfTypes([]splits.OutputType{outputType}, filepath.Join(outDir, v.FullName()))
		if err != nil {
			return err
		}
		for _, output := range outputs {
			var filters []string
			for _, f := range output.Filters() {
				filters = append(filters, f.String())
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", v.FullName(), output.OutputKind(), strings.Join(filters, ","),
				output.OutputFile(), output.VersionCode())
		}
	}
	return nil
}

func maybeQuit(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	if format != "" {
		fmt.Fprintln(os.Stderr, fmt.Sprintf(format, args...)+": "+err.Error())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
