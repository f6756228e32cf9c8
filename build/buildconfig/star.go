// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/rcg/scandeps"
)

func builtinModule() starlark.StringDict {
	runtimeModule := &starlarkstruct.Module{
		Name: "runtime",
		Members: map[string]starlark.Value{
			"os":   starlark.String(runtime.GOOS),
			"arch": starlark.String(runtime.GOARCH),
		},
	}
	runtimeModule.Freeze()

	pathModule := &starlarkstruct.Module{
		Name: "path",
		Members: map[string]starlark.Value{
			"base": starlark.NewBuiltin("base", starPathBase),
			"ext":  starlark.NewBuiltin("ext", starPathExt),
		},
	}
	pathModule.Freeze()

	return starlark.StringDict{
		"runtime": runtimeModule,
		"path":    pathModule,
		"struct":  starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
}

// Starlark function `path.base(fname)` to return base name of fname.
func starPathBase(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("base", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(filepath.Base(fname)), nil
}

// Starlark function `path.ext(fname)` to return extension of fname.
func starPathExt(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("ext", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(filepath.Ext(fname)), nil
}

func packFiles(files []scandeps.SourceFile) starlark.Value {
	values := make([]starlark.Value, 0, len(files))
	for _, f := range files {
		values = append(values, starlarkstruct.FromStringDict(starlark.String("file"), starlark.StringDict{
			"name":     starlark.String(f.Name),
			"includes": packTuple(f.Includes),
		}))
	}
	list := starlark.NewList(values)
	list.Freeze()
	return list
}

func packFlags(flags map[string]string) starlark.Value {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dict := starlark.NewDict(len(flags))
	for _, k := range keys {
		// SetKey on a fresh dict with string keys never fails.
		_ = dict.SetKey(starlark.String(k), starlark.String(flags[k]))
	}
	dict.Freeze()
	return dict
}

func packTuple(list []string) starlark.Value {
	values := make([]starlark.Value, 0, len(list))
	for _, elem := range list {
		values = append(values, starlark.String(elem))
	}
	return starlark.Tuple(values)
}

func unpackList(v starlark.Value) ([]string, error) {
	iterator := starlark.Iterate(v)
	if iterator == nil {
		return nil, fmt.Errorf("got %v; want iterator", v.Type())
	}
	defer iterator.Done()
	var elem starlark.Value
	list := []string{}
	for iterator.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("got %v in %v; want string", elem.Type(), v.Type())
		}
		list = append(list, s)
	}
	return list, nil
}
