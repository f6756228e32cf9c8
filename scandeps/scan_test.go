// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/rcg/scandeps"
)

func TestDiscover(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"src/talker.cpp": &fstest.MapFile{
			Data: []byte("#include <rclcpp/rclcpp.hpp>\n#include <std_msgs/msg/string.hpp>\n"),
		},
		"src/listener.cpp": &fstest.MapFile{
			Data: []byte("#include <rclcpp/rclcpp.hpp>\n#include <vector>\n"),
		},
		"src/README": &fstest.MapFile{
			Data: []byte("no includes here\n"),
		},
		"src/detail/impl.hpp": &fstest.MapFile{
			Data: []byte("#include \"broken\n"),
		},
		"include/a.hpp": &fstest.MapFile{
			Data: []byte("#include <ignored/outside_src.hpp>\n"),
		},
	}
	got, err := scandeps.Discover(ctx, fsys, "src", scandeps.Options{})
	if err != nil {
		t.Fatalf("Discover(ctx, fsys, %q)=_, %v; want nil err", "src", err)
	}
	want := []scandeps.SourceFile{
		{
			Name: "README",
		},
		{
			Name:     "listener.cpp",
			Includes: []string{"rclcpp/rclcpp.hpp", "vector"},
		},
		{
			Name:     "talker.cpp",
			Includes: []string{"rclcpp/rclcpp.hpp", "std_msgs/msg/string.hpp"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Discover(ctx, fsys, %q) diff -want +got:\n%s", "src", diff)
	}
}

func TestDiscover_Empty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	err := os.Mkdir(filepath.Join(dir, "src"), 0755)
	if err != nil {
		t.Fatal(err)
	}
	got, err := scandeps.Discover(ctx, os.DirFS(dir), "src", scandeps.Options{})
	if err != nil {
		t.Fatalf("Discover(ctx, %q, %q)=_, %v; want nil err", dir, "src", err)
	}
	if len(got) != 0 {
		t.Errorf("Discover(ctx, %q, %q)=%v; want empty", dir, "src", got)
	}
}

func TestDiscover_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_dir", func(t *testing.T) {
		_, err := scandeps.Discover(ctx, fstest.MapFS{}, "src", scandeps.Options{})
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Discover(ctx, {}, %q)=_, %v; want %v", "src", err, fs.ErrNotExist)
		}
	})

	t.Run("parse_error", func(t *testing.T) {
		fsys := fstest.MapFS{
			"src/a.cpp": &fstest.MapFile{Data: []byte("#include <ok>\n")},
			"src/b.cpp": &fstest.MapFile{Data: []byte("#include \"local.h\"\n")},
		}
		_, err := scandeps.Discover(ctx, fsys, "src", scandeps.Options{})
		var perr *scandeps.ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("Discover(ctx, fsys, %q)=_, %v; want ParseError", "src", err)
		}
		if perr.File != "src/b.cpp" || perr.Line != 1 {
			t.Errorf("ParseError at %s:%d; want src/b.cpp:1", perr.File, perr.Line)
		}
	})

	t.Run("skip_local_includes", func(t *testing.T) {
		fsys := fstest.MapFS{
			"src/b.cpp": &fstest.MapFile{Data: []byte("#include \"local.h\"\n#include <foo/bar.hpp>\n")},
		}
		got, err := scandeps.Discover(ctx, fsys, "src", scandeps.Options{SkipLocalIncludes: true})
		if err != nil {
			t.Fatalf("Discover(ctx, fsys, %q)=_, %v; want nil err", "src", err)
		}
		want := []scandeps.SourceFile{
			{Name: "b.cpp", Includes: []string{"foo/bar.hpp"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Discover(ctx, fsys, %q) diff -want +got:\n%s", "src", diff)
		}
	})
}
