// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cmakegen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/rcg/scandeps"
)

func TestRender(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name  string
		files []scandeps.SourceFile
		opts  func(*Options)
		want  string
	}{
		{
			name: "talker_listener",
			files: []scandeps.SourceFile{
				{Name: "listener.cpp", Includes: []string{"rclcpp/rclcpp.hpp", "std_msgs/msg/string.hpp"}},
				{Name: "talker.cpp", Includes: []string{"chrono", "rclcpp/rclcpp.hpp", "std_msgs/msg/string.hpp"}},
			},
			want: `cmake_minimum_required(VERSION 3.5)
project(demo)

if(NOT CMAKE_CXX_STANDARD)
	set(CMAKE_CXX_STANDARD 14)
endif()

if(CMAKE_COMPILER_IS_GNUCXX OR CMAKE_CXX_COMPILER_ID MATCHES "Clang")
	add_compile_options(-Wall -Wextra -Wpedantic)
endif()

find_package(ament_cmake REQUIRED)
find_package(rclcpp REQUIRED)
find_package(std_msgs REQUIRED)
find_package(chrono REQUIRED)

add_executable(listener src/listener.cpp)
add_executable(talker src/talker.cpp)

ament_target_dependencies(listener rclcpp std_msgs)
ament_target_dependencies(talker chrono rclcpp std_msgs)

install(TARGETS listener DESTINATION lib/${PROJECT_NAME})
install(TARGETS talker DESTINATION lib/${PROJECT_NAME})

ament_package()`,
		},
		{
			name: "empty",
			want: `cmake_minimum_required(VERSION 3.5)
project(demo)

if(NOT CMAKE_CXX_STANDARD)
	set(CMAKE_CXX_STANDARD 14)
endif()

if(CMAKE_COMPILER_IS_GNUCXX OR CMAKE_CXX_COMPILER_ID MATCHES "Clang")
	add_compile_options(-Wall -Wextra -Wpedantic)
endif()

find_package(ament_cmake REQUIRED)




ament_package()`,
		},
		{
			name: "custom_options",
			files: []scandeps.SourceFile{
				{Name: "node.cc", Includes: []string{"vector", "rclcpp/rclcpp.hpp"}},
			},
			opts: func(o *Options) {
				o.CMakeMinimumVersion = "3.8"
				o.CXXStandard = 17
				o.CompileOptions = nil
				o.ExcludePackages = []string{"vector"}
				o.SourceDir = "nodes"
			},
			want: `cmake_minimum_required(VERSION 3.8)
project(demo)

if(NOT CMAKE_CXX_STANDARD)
	set(CMAKE_CXX_STANDARD 17)
endif()

find_package(ament_cmake REQUIRED)
find_package(rclcpp REQUIRED)

add_executable(node nodes/node.cc)

ament_target_dependencies(node rclcpp)

install(TARGETS node DESTINATION lib/${PROJECT_NAME})

ament_package()`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tc.opts != nil {
				tc.opts(&opts)
			}
			d, err := New(ctx, "demo", tc.files, opts)
			if err != nil {
				t.Fatalf("New(ctx, %q, files, opts)=_, %v; want nil err", "demo", err)
			}
			var sb strings.Builder
			err = d.Render(&sb)
			if err != nil {
				t.Fatalf("Render()=%v; want nil err", err)
			}
			if diff := cmp.Diff(tc.want, sb.String()); diff != "" {
				t.Errorf("Render() diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestRender_Counts(t *testing.T) {
	ctx := context.Background()
	files := []scandeps.SourceFile{
		{Name: "a.cpp", Includes: []string{"foo/bar.hpp"}},
		{Name: "b.cpp", Includes: []string{"foo/bar.hpp", "vector"}},
		{Name: "c.cpp"},
	}
	d, err := New(ctx, "demo", files, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	err = d.Render(&sb)
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	for _, line := range strings.Split(sb.String(), "\n") {
		directive, _, ok := strings.Cut(line, "(")
		if !ok {
			continue
		}
		counts[directive]++
	}
	want := map[string]int{
		"cmake_minimum_required":    1,
		"project":                   1,
		"if":                        2,
		"\tset":                     1,
		"\tadd_compile_options":     1,
		"endif":                     2,
		"find_package":              3,
		"add_executable":            len(files),
		"ament_target_dependencies": len(files),
		"install":                   len(files),
		"ament_package":             1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("directive counts diff -want +got:\n%s", diff)
	}
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "CMakeLists.txt")
	err := os.WriteFile(fname, []byte("old"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(ctx, "demo", []scandeps.SourceFile{{Name: "a.cpp", Includes: []string{"foo/bar.hpp"}}}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	err = WriteFile(ctx, fname, d)
	if err != nil {
		t.Fatalf("WriteFile(ctx, %q, d)=%v; want nil err", fname, err)
	}
	got, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	err = d.Render(&sb)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sb.String(), string(got)); diff != "" {
		t.Errorf("%s diff -want +got:\n%s", fname, diff)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 1 {
		t.Errorf("files in %s=%v; want only CMakeLists.txt", dir, ents)
	}
}

func TestWriteFile_KeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no unix permission bits on windows")
	}
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "CMakeLists.txt")
	err := os.WriteFile(fname, []byte("old"), 0600)
	if err != nil {
		t.Fatal(err)
	}
	err = os.Chmod(fname, 0640)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(ctx, "demo", nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	err = WriteFile(ctx, fname, d)
	if err != nil {
		t.Fatalf("WriteFile(ctx, %q, d)=%v; want nil err", fname, err)
	}
	fi, err := os.Stat(fname)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fi.Mode().Perm(), os.FileMode(0640); got != want {
		t.Errorf("mode of %s=%v; want %v", fname, got, want)
	}

	newname := filepath.Join(dir, "new", "CMakeLists.txt")
	err = os.Mkdir(filepath.Dir(newname), 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = WriteFile(ctx, newname, d)
	if err != nil {
		t.Fatalf("WriteFile(ctx, %q, d)=%v; want nil err", newname, err)
	}
	fi, err = os.Stat(newname)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fi.Mode().Perm(), os.FileMode(0644); got != want {
		t.Errorf("mode of %s=%v; want %v", newname, got, want)
	}
}

func TestWriteFile_Unwritable(t *testing.T) {
	ctx := context.Background()
	fname := filepath.Join(t.TempDir(), "nonexistent", "CMakeLists.txt")
	d, err := New(ctx, "demo", nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	err = WriteFile(ctx, fname, d)
	if err == nil {
		t.Errorf("WriteFile(ctx, %q, d)=nil; want err", fname)
	}
}
