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
	"github.com/google/blueprint/syncmap"
)

// VariantScopes maps variant names to their OutputFactory. Variants may be configured from
// several goroutines; each name gets exactly one factory.
type VariantScopes struct {
	factories syncmap.SyncMap[string, *OutputFactory]
}

// GetOrCreate returns the factory of the named variant, calling create if there is none yet. When
// two callers race, both get the factory that was stored first.
func (v *VariantScopes) GetOrCreate(name string, create func() *OutputFactory) *OutputFactory {
	if factory, ok := v.factories.Load(name); ok {
		return factory
	}
	factory, _ := v.factories.LoadOrStore(name, create())
	return factory
}

// Get returns the factory of the named variant, or nil.
func (v *VariantScopes) Get(name string) *OutputFactory {
	factory, _ := v.factories.Load(name)
	return factory
}

// Output returns the scope of the named variant, or nil if the variant is unknown.
func (v *VariantScopes) Output(name string) *SplitScope {
	if factory := v.Get(name); factory != nil {
		return factory.Output()
	}
	return nil
}
