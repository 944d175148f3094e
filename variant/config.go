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
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/google/blueprint/proptools"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"android/apksplits/ui/logger"
)

// Config is a parsed variant configuration file.
type Config struct {
	Variants []*Variant
}

var predeclared = starlark.StringDict{
	"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
}

// LoadConfig evaluates a Starlark variant configuration. The file must define a list of structs
// named variants and may define a struct named defaults whose properties apply to every variant
// that does not set them. src is passed to starlark.ExecFile; if it is nil the file is read from
// filename.
func LoadConfig(filename string, src interface{}, log logger.Logger) (*Config, error) {
	if log == nil {
		log = logger.New(io.Discard)
	}
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			log.Verboseln(msg)
		},
	}
	globals, err := starlark.ExecFile(thread, filename, src, predeclared)
	if err != nil {
		return nil, err
	}

	var defaults VariantProperties
	if value, ok := globals["defaults"]; ok {
		if err := unmarshalProperties(value, reflect.ValueOf(&defaults).Elem(), "defaults"); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	value, ok := globals["variants"]
	if !ok {
		return nil, fmt.Errorf("%s: variants is not defined", filename)
	}
	variantValues, ok := value.(starlark.Indexable)
	if _, isString := value.(starlark.String); !ok || isString {
		return nil, fmt.Errorf("%s: variants: expected list, got %s", filename, value.Type())
	}

	config := &Config{}
	var errs []error
	seen := make(map[string]int)
	for i := 0; i < variantValues.Len(); i++ {
		path := fmt.Sprintf("variants[%d]", i)
		var props VariantProperties
		if err := unmarshalProperties(variantValues.Index(i), reflect.ValueOf(&props).Elem(), path); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := proptools.PrependMatchingProperties([]interface{}{&props}, &defaults, nil); err != nil {
			if propertyErr, ok := err.(*proptools.ExtendPropertyError); ok {
				errs = append(errs, fmt.Errorf("%s.%s: %s", path, propertyErr.Property, propertyErr.Err))
				continue
			}
			return nil, err
		}
		v, err := NewVariant(props)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if prev, exists := seen[v.FullName()]; exists {
			errs = append(errs, fmt.Errorf("%s: variant %q is already defined by variants[%d]", path, v.FullName(), prev))
			continue
		}
		seen[v.FullName()] = i
		config.Variants = append(config.Variants, v)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return config, nil
}

// Variant returns the variant with the given full name, or nil.
func (c *Config) Variant(fullName string) *Variant {
	for _, v := range c.Variants {
		if v.FullName() == fullName {
			return v
		}
	}
	return nil
}
