// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRcgMain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo_nodes")
	err := os.MkdirAll(filepath.Join(dir, "src"), 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "src", "talker.cpp"), []byte("#include <rclcpp/rclcpp.hpp>\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	exitCode := rcgMain(nil)
	if exitCode != 0 {
		t.Fatalf("rcgMain(nil) returned exit code %d", exitCode)
	}
	got, err := os.ReadFile(filepath.Join(dir, "CMakeLists.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"project(demo_nodes)\n",
		"find_package(rclcpp REQUIRED)\n",
		"add_executable(talker src/talker.cpp)\n",
	} {
		if !strings.Contains(string(got), want) {
			t.Errorf("CMakeLists.txt doesn't contain %q:\n%s", want, got)
		}
	}
}

func TestRcgMain_ParseError(t *testing.T) {
	dir := t.TempDir()
	err := os.MkdirAll(filepath.Join(dir, "src"), 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "src", "a.cpp"), []byte("#include FOO_H\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	exitCode := rcgMain([]string{"gen", "-C", dir})
	if exitCode != 1 {
		t.Errorf("rcgMain(gen -C %s) returned exit code %d; want 1", dir, exitCode)
	}
	_, err = os.Stat(filepath.Join(dir, "CMakeLists.txt"))
	if err == nil {
		t.Errorf("CMakeLists.txt is generated on parse error")
	}
}
