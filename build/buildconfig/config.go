// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides starlark config for `rcg gen`.
//
// A config file defines `init(ctx)` that returns a struct.
//
//	def init(ctx):
//	    return struct(
//	        project = ctx.project,
//	        cxx_standard = 17,
//	        exclude_packages = ["memory", "vector"],
//	    )
//
// ctx has `project` (default project name), `source_dir`,
// `files` (list of struct(name, includes)) and `flags` (dict).
// All fields of the returned struct are optional.
package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/rcg/build/cmakegen"
	"go.chromium.org/infra/build/rcg/scandeps"
)

const configEntryPoint = "init"

// fields of the struct returned by init.
const (
	fieldProject             = "project"
	fieldCMakeMinimumVersion = "cmake_minimum_version"
	fieldCXXStandard         = "cxx_standard"
	fieldCompileOptions      = "compile_options"
	fieldBuildToolPackage    = "build_tool_package"
	fieldExcludePackages     = "exclude_packages"
)

// Config is a generator config.
type Config struct {
	fname string

	// flags used to run the generator.
	flags map[string]string

	// global variables loaded by the config.
	globals starlark.StringDict
}

// Result is a result of init.
type Result struct {
	Project string
	Options cmakegen.Options
}

// New loads config fname in fsys.
func New(ctx context.Context, fsys fs.FS, fname string, flags map[string]string) (*Config, error) {
	loader := &fsLoader{
		fsys:        fsys,
		predeclared: builtinModule(),
		cache:       make(map[string]*loadEntry),
	}
	thread := &starlark.Thread{
		Name: "load",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: loader.Load,
	}
	globals, err := loader.Load(thread, fname)
	if err != nil {
		log.Warnf("thread:%s failed to exec file %s: %v", thread.Name, fname, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return nil, err
	}
	v, ok := globals[configEntryPoint]
	if !ok {
		return nil, fmt.Errorf("%s is not defined in %s", configEntryPoint, fname)
	}
	if _, ok := v.(starlark.Callable); !ok {
		return nil, fmt.Errorf("%s %s is not callable in %s", configEntryPoint, v.Type(), fname)
	}
	return &Config{
		fname:   fname,
		flags:   flags,
		globals: globals,
	}, nil
}

// InitError is error of init.
type InitError struct {
	fname string
	err   *starlark.EvalError
}

func (e InitError) Error() string {
	return fmt.Sprintf("failed to run %s in %s: %v", configEntryPoint, e.fname, e.err)
}

// Backtrace returns starlark backtrace of the error.
func (e InitError) Backtrace() string {
	return e.err.Backtrace()
}

func (e InitError) Unwrap() error {
	return e.err
}

// Init runs `init` for the project and files, and returns
// project name and options overridden by the config.
func (cfg *Config) Init(ctx context.Context, project string, files []scandeps.SourceFile, opts cmakegen.Options) (Result, error) {
	fun := cfg.globals[configEntryPoint]
	thread := &starlark.Thread{
		Name: configEntryPoint,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load is not allowed in %s", configEntryPoint)
		},
	}
	ictx := starlarkstruct.FromStringDict(starlark.String("ctx"), map[string]starlark.Value{
		"project":    starlark.String(project),
		"source_dir": starlark.String(opts.SourceDir),
		"files":      packFiles(files),
		"flags":      packFlags(cfg.flags),
	})
	ret, err := starlark.Call(thread, fun, starlark.Tuple{ictx}, nil)
	if err != nil {
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
			return Result{}, InitError{fname: cfg.fname, err: eerr}
		}
		return Result{}, fmt.Errorf("failed to run %s in %s: %w", configEntryPoint, cfg.fname, err)
	}
	st, ok := ret.(*starlarkstruct.Struct)
	if !ok {
		return Result{}, fmt.Errorf("%s returned %s, want struct", configEntryPoint, ret.Type())
	}
	result := Result{
		Project: project,
		Options: opts,
	}
	err = unpackResult(st, &result)
	if err != nil {
		return Result{}, fmt.Errorf("bad result of %s in %s: %w", configEntryPoint, cfg.fname, err)
	}
	log.Debugf("config %s: project=%q options=%#v", cfg.fname, result.Project, result.Options)
	return result, nil
}

func unpackResult(st *starlarkstruct.Struct, result *Result) error {
	for _, name := range st.AttrNames() {
		v, err := st.Attr(name)
		if err != nil {
			return err
		}
		switch name {
		case fieldProject:
			s, ok := starlark.AsString(v)
			if !ok {
				return fmt.Errorf("%s: got %s, want string", name, v.Type())
			}
			result.Project = s
		case fieldCMakeMinimumVersion:
			s, ok := starlark.AsString(v)
			if !ok {
				return fmt.Errorf("%s: got %s, want string", name, v.Type())
			}
			result.Options.CMakeMinimumVersion = s
		case fieldCXXStandard:
			n, err := starlark.AsInt32(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			result.Options.CXXStandard = n
		case fieldCompileOptions:
			list, err := unpackList(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			result.Options.CompileOptions = list
		case fieldBuildToolPackage:
			s, ok := starlark.AsString(v)
			if !ok {
				return fmt.Errorf("%s: got %s, want string", name, v.Type())
			}
			result.Options.BuildToolPackage = s
		case fieldExcludePackages:
			list, err := unpackList(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			result.Options.ExcludePackages = list
		default:
			return fmt.Errorf("unknown field %q", name)
		}
	}
	return nil
}
