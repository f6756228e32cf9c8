// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cmakegen generates CMakeLists.txt for an ament C++ package.
package cmakegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.chromium.org/infra/build/rcg/o11y/clog"
	"go.chromium.org/infra/build/rcg/scandeps"
)

// CollisionPolicy is a policy for source files that have the same
// target name.
type CollisionPolicy int

const (
	// CollisionFail fails with CollisionError.
	CollisionFail CollisionPolicy = iota
	// CollisionLastWins replaces the earlier target with the later one.
	CollisionLastWins
)

// String implements flag.Value.
func (p CollisionPolicy) String() string {
	switch p {
	case CollisionFail:
		return "error"
	case CollisionLastWins:
		return "last"
	}
	return fmt.Sprintf("CollisionPolicy(%d)", int(p))
}

// Set implements flag.Value.
func (p *CollisionPolicy) Set(s string) error {
	switch s {
	case "error":
		*p = CollisionFail
	case "last":
		*p = CollisionLastWins
	default:
		return fmt.Errorf("unknown collision policy %q. want \"error\" or \"last\"", s)
	}
	return nil
}

// Options is options of the generated CMakeLists.txt.
type Options struct {
	// CMakeMinimumVersion is a version for cmake_minimum_required.
	CMakeMinimumVersion string

	// CXXStandard is a default CMAKE_CXX_STANDARD.
	CXXStandard int

	// CompileOptions are warning flags for GNU or Clang.
	CompileOptions []string

	// BuildToolPackage is a package required by the build tool itself.
	BuildToolPackage string

	// ExcludePackages are packages not to emit, e.g. headers of the
	// C++ standard library.
	ExcludePackages []string

	// SourceDir is a directory of source files relative to
	// CMakeLists.txt.
	SourceDir string

	// OnCollision is a policy for target name collision.
	OnCollision CollisionPolicy
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		CMakeMinimumVersion: "3.5",
		CXXStandard:         14,
		CompileOptions:      []string{"-Wall", "-Wextra", "-Wpedantic"},
		BuildToolPackage:    "ament_cmake",
		SourceDir:           "src",
	}
}

// Target is an executable target.
type Target struct {
	// Name is a target name.
	Name string

	// Source is a source file name in the source dir.
	Source string

	// Packages are packages the target depends on, in include order.
	Packages []string
}

// Descriptor is a project descriptor.
type Descriptor struct {
	Project string

	// Packages are unique required packages in first-seen order.
	Packages []string

	Targets []Target

	Options Options
}

// CollisionError is an error for source files that have the same
// target name.
type CollisionError struct {
	Target string
	Files  []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("target %q is generated from multiple files: %q", e.Target, e.Files)
}

// PackageName returns a package name of the include path,
// i.e. the first path component.
func PackageName(incpath string) string {
	pkg, _, _ := strings.Cut(incpath, "/")
	return pkg
}

// TargetName returns a target name of the source file,
// i.e. the file name before its first ".".
func TargetName(fname string) string {
	name, _, _ := strings.Cut(fname, ".")
	return name
}

// New creates a descriptor for files of the project.
func New(ctx context.Context, project string, files []scandeps.SourceFile, opts Options) (*Descriptor, error) {
	if project == "" {
		return nil, errors.New("empty project name")
	}
	excluded := make(map[string]bool)
	for _, pkg := range opts.ExcludePackages {
		excluded[pkg] = true
	}

	d := &Descriptor{
		Project: project,
		Options: opts,
	}
	// find_package of the build tool package is always rendered,
	// but targets still link to it.
	seen := make(map[string]bool)
	if opts.BuildToolPackage != "" {
		seen[opts.BuildToolPackage] = true
	}
	targetIndex := make(map[string]int)
	for _, f := range files {
		t := Target{
			Name:   TargetName(f.Name),
			Source: f.Name,
		}
		if t.Name == "" {
			return nil, fmt.Errorf("empty target name for %q", f.Name)
		}
		for _, inc := range f.Includes {
			pkg := PackageName(inc)
			if excluded[pkg] {
				continue
			}
			t.Packages = append(t.Packages, pkg)
			if !seen[pkg] {
				seen[pkg] = true
				d.Packages = append(d.Packages, pkg)
			}
		}
		i, ok := targetIndex[t.Name]
		if !ok {
			targetIndex[t.Name] = len(d.Targets)
			d.Targets = append(d.Targets, t)
			continue
		}
		if opts.OnCollision != CollisionLastWins {
			return nil, &CollisionError{
				Target: t.Name,
				Files:  []string{d.Targets[i].Source, f.Name},
			}
		}
		clog.Warningf(ctx, "target %q: %s overrides %s", t.Name, f.Name, d.Targets[i].Source)
		d.Targets[i] = t
	}
	return d, nil
}
