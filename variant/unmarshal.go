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
	"fmt"
	"reflect"

	"github.com/google/blueprint/proptools"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// unmarshalProperties sets dst, a value of a property struct or of one of its fields, from a
// Starlark value. Struct attributes map to fields with proptools.FieldNameForProperty. None leaves
// dst untouched.
func unmarshalProperties(value starlark.Value, dst reflect.Value, path string) error {
	if _, ok := value.(starlark.NoneType); ok {
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		elem := reflect.New(dst.Type().Elem())
		if err := unmarshalProperties(value, elem.Elem(), path); err != nil {
			return err
		}
		dst.Set(elem)
	case reflect.String:
		s, ok := value.(starlark.String)
		if !ok {
			return typeError(path, "string", value)
		}
		dst.SetString(s.GoString())
	case reflect.Bool:
		b, ok := value.(starlark.Bool)
		if !ok {
			return typeError(path, "bool", value)
		}
		dst.SetBool(bool(b))
	case reflect.Int64:
		i, ok := value.(starlark.Int)
		if !ok {
			return typeError(path, "int", value)
		}
		i64, ok := i.Int64()
		if !ok {
			return fmt.Errorf("%s: starlark int didn't fit in go int64", path)
		}
		dst.SetInt(i64)
	case reflect.Slice:
		if _, ok := value.(starlark.String); ok {
			return typeError(path, "list", value)
		}
		list, ok := value.(starlark.Indexable)
		if !ok {
			return typeError(path, "list", value)
		}
		result := reflect.MakeSlice(dst.Type(), 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := unmarshalProperties(list.Index(i), elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
			result = reflect.Append(result, elem)
		}
		dst.Set(result)
	case reflect.Struct:
		s, ok := value.(*starlarkstruct.Struct)
		if !ok {
			return typeError(path, "struct", value)
		}
		for _, attrName := range s.AttrNames() {
			attrPath := attrName
			if path != "" {
				attrPath = path + "." + attrName
			}
			field := dst.FieldByName(proptools.FieldNameForProperty(attrName))
			if !field.IsValid() || !field.CanSet() {
				return fmt.Errorf("%s: unknown attribute", attrPath)
			}
			attr, err := s.Attr(attrName)
			if err != nil {
				return fmt.Errorf("%s: %w", attrPath, err)
			}
			if err := unmarshalProperties(attr, field, attrPath); err != nil {
				return err
			}
		}
	default:
		panic(fmt.Errorf("unsupported property type %s at %s", dst.Type(), path))
	}
	return nil
}

func typeError(path string, expected string, value starlark.Value) error {
	return fmt.Errorf("%s: expected %s, got %s", path, expected, value.Type())
}
