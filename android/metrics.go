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

package android

import (
	"fmt"

	"github.com/google/blueprint/metrics"
	"github.com/google/blueprint/pathtools"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// CollectMetrics turns the completed events of eventHandler and the given counters into a
// protobuf Struct:
//
//	name: <tool name>
//	events: [{description, start_time_ms, real_time_ns}, ...]
//	counters: {<counter>: <value>, ...}
func CollectMetrics(name string, eventHandler *metrics.EventHandler, counters map[string]int) *structpb.Struct {
	events := &structpb.ListValue{}
	for _, event := range eventHandler.CompletedEvents() {
		events.Values = append(events.Values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"description":   structpb.NewStringValue(event.Id),
				"start_time_ms": structpb.NewNumberValue(float64(event.Start.UnixMilli())),
				"real_time_ns":  structpb.NewNumberValue(float64(event.RuntimeNanoseconds())),
			},
		}))
	}

	counterFields := make(map[string]*structpb.Value, len(counters))
	for _, k := range SortedKeys(counters) {
		counterFields[k] = structpb.NewNumberValue(float64(counters[k]))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"name":     structpb.NewStringValue(name),
			"events":   structpb.NewListValue(events),
			"counters": structpb.NewStructValue(&structpb.Struct{Fields: counterFields}),
		},
	}
}

// WriteMetrics writes the metrics collected from eventHandler as a binary protobuf to metricsFile.
// The file is left untouched when its contents would not change.
func WriteMetrics(name string, eventHandler *metrics.EventHandler, counters map[string]int, metricsFile string) error {
	m := CollectMetrics(name, eventHandler, counters)
	buf, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	return pathtools.WriteFileIfChanged(metricsFile, buf, 0666)
}

// MetricsText renders the metrics in protobuf text format for human consumption. The output is not
// stable and must not be parsed.
func MetricsText(name string, eventHandler *metrics.EventHandler, counters map[string]int) string {
	return prototext.MarshalOptions{Multiline: true}.Format(CollectMetrics(name, eventHandler, counters))
}
