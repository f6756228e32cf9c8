// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Rcg generates CMakeLists.txt of an ament C++ package from includes
// of its sources.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/rcg/o11y/clog"
	"go.chromium.org/infra/build/rcg/subcmd/gen"
	"go.chromium.org/infra/build/rcg/subcmd/help"
	"go.chromium.org/infra/build/rcg/subcmd/scan"
	"go.chromium.org/infra/build/rcg/subcmd/version"
	"go.chromium.org/infra/build/rcg/ui"
)

const rcgVersion = "v0.1.0"

var (
	logLevel  = flag.String("log_level", "warn", `log level. "debug", "info", "warn" or "error"`)
	verbosity = flag.Int("v", 0, "log verbosity of scanning")
)

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "rcg",
		Title: "CMakeLists.txt generator for ament C++ packages",
		Context: func(ctx context.Context) context.Context {
			return newLoggerContext(ctx, *logLevel, *verbosity, uuid.New().String())
		},
		Commands: []*subcommands.Command{
			gen.Cmd(),
			scan.Cmd(),

			help.Cmd(),
			version.Cmd(rcgVersion),
		},
	}
}

func newLoggerContext(ctx context.Context, level string, v int, runID string) context.Context {
	lv, err := log.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -log_level %q: %v. use warn\n", level, err)
		lv = log.WarnLevel
	}
	log.SetLevel(lv)
	logger := clog.New(os.Stderr, clog.Options{
		Level:     lv,
		Verbosity: v,
	})
	ctx = clog.NewContext(ctx, logger)
	return clog.NewSpan(ctx, map[string]string{"run": runID})
}

func main() {
	os.Exit(rcgMain(os.Args[1:]))
}

func rcgMain(args []string) int {
	flag.CommandLine.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	err := flag.CommandLine.Parse(args)
	if err != nil {
		return 2
	}
	args = flag.Args()
	if len(args) == 0 {
		// `rcg` without subcommand runs `rcg gen`.
		args = []string{"gen"}
	}

	ui.Init()
	defer ui.Restore()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	if buildinfo, ok := debug.ReadBuildInfo(); ok {
		log.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
	}
	return subcommands.Run(getApplication(), args)
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
