// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmakegen

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/rcg/o11y/clog"
)

// Render writes CMakeLists.txt of d to w.
//
// The output ends with `ament_package()` without newline.
func (d *Descriptor) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	opts := d.Options

	fmt.Fprintf(bw, "cmake_minimum_required(VERSION %s)\n", opts.CMakeMinimumVersion)
	fmt.Fprintf(bw, "project(%s)\n", d.Project)

	fmt.Fprintf(bw, "\nif(NOT CMAKE_CXX_STANDARD)\n")
	fmt.Fprintf(bw, "\tset(CMAKE_CXX_STANDARD %d)\n", opts.CXXStandard)
	fmt.Fprintf(bw, "endif()\n")

	if len(opts.CompileOptions) > 0 {
		fmt.Fprintf(bw, "\nif(CMAKE_COMPILER_IS_GNUCXX OR CMAKE_CXX_COMPILER_ID MATCHES \"Clang\")\n")
		fmt.Fprintf(bw, "\tadd_compile_options(%s)\n", strings.Join(opts.CompileOptions, " "))
		fmt.Fprintf(bw, "endif()\n")
	}

	fmt.Fprintln(bw)
	if opts.BuildToolPackage != "" {
		fmt.Fprintf(bw, "find_package(%s REQUIRED)\n", opts.BuildToolPackage)
	}
	for _, pkg := range d.Packages {
		fmt.Fprintf(bw, "find_package(%s REQUIRED)\n", pkg)
	}

	fmt.Fprintln(bw)
	for _, t := range d.Targets {
		fmt.Fprintf(bw, "add_executable(%s %s)\n", t.Name, path.Join(opts.SourceDir, t.Source))
	}

	fmt.Fprintln(bw)
	for _, t := range d.Targets {
		fmt.Fprintf(bw, "ament_target_dependencies(%s %s)\n", t.Name, strings.Join(t.Packages, " "))
	}

	fmt.Fprintln(bw)
	for _, t := range d.Targets {
		fmt.Fprintf(bw, "install(TARGETS %s DESTINATION lib/${PROJECT_NAME})\n", t.Name)
	}

	fmt.Fprint(bw, "\nament_package()")
	return bw.Flush()
}

// WriteFile writes CMakeLists.txt of d to fname.
// It renders all contents before creating the file, and replaces fname
// atomically, so fname is left untouched on error.
func WriteFile(ctx context.Context, fname string, d *Descriptor) error {
	var buf bytes.Buffer
	err := d.Render(&buf)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(fname), filepath.Base(fname)+".tmp*")
	if err != nil {
		return err
	}
	tmpname := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpname)
		}
	}()
	_, err = f.Write(buf.Bytes())
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpname, err)
	}
	mode := fs.FileMode(0644)
	if fi, serr := os.Stat(fname); serr == nil {
		mode = fi.Mode().Perm()
	}
	err = os.Chmod(tmpname, mode)
	if err != nil {
		return err
	}
	err = os.Rename(tmpname, fname)
	if err != nil {
		return err
	}
	clog.Infof(ctx, "wrote %s: %d packages %d targets", fname, len(d.Packages), len(d.Targets))
	return nil
}
