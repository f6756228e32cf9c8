// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gen is gen subcommand to generate CMakeLists.txt.
package gen

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/rcg/build/buildconfig"
	"go.chromium.org/infra/build/rcg/build/cmakegen"
	"go.chromium.org/infra/build/rcg/o11y/clog"
	"go.chromium.org/infra/build/rcg/o11y/iometrics"
	"go.chromium.org/infra/build/rcg/scandeps"
	"go.chromium.org/infra/build/rcg/ui"
)

const usage = `generate CMakeLists.txt of an ament C++ package.

 $ rcg gen [-C <dir>] [options]

It scans '#include <...>' lines in every file of <dir>/src,
and writes <dir>/CMakeLists.txt that has find_package for each
package (first path component of include path) and an executable
target for each file.

If <dir>/rcg.star exists, it runs init(ctx) in it to override
project name and options. See go doc
go.chromium.org/infra/build/rcg/build/buildconfig.
`

// Cmd returns the Command for the `gen` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "gen [-C <dir>] [options]",
		ShortDesc: "generate CMakeLists.txt from includes of sources",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	dir               string
	srcDir            string
	project           string
	output            string
	configFilename    string
	skipLocalIncludes bool
	collision         cmakegen.CollisionPolicy
	dryRun            bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "package directory")
	c.Flags.StringVar(&c.srcDir, "src", "src", "source directory (relative to -C)")
	c.Flags.StringVar(&c.project, "project", "", "project name. default is the base name of -C")
	c.Flags.StringVar(&c.output, "o", "CMakeLists.txt", "output filename (relative to -C)")
	c.Flags.StringVar(&c.configFilename, "load", "rcg.star", "config filename (relative to -C). ignored if default file doesn't exist")
	c.Flags.BoolVar(&c.skipLocalIncludes, "skip_local_includes", false, `skip '#include "..."' rather than failing`)
	c.Flags.Var(&c.collision, "collision", `policy for files that have the same target name. "error" or "last"`)
	c.Flags.BoolVar(&c.dryRun, "n", false, "dry run. print CMakeLists.txt to stdout")
}

type flagError struct {
	err error
}

func (f flagError) Error() string {
	return f.err.Error()
}

func (f flagError) Unwrap() error {
	return f.err
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	started := time.Now()
	ctx := cli.GetContext(a, c, env)
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n%s", a.GetName(), usage)
		return 2
	}
	d, err := c.run(ctx, a.GetOut())
	if err != nil {
		var errFlag flagError
		var errParse *scandeps.ParseError
		var errCollision *cmakegen.CollisionError
		var errInit buildconfig.InitError
		switch {
		case errors.As(err, &errFlag):
			fmt.Fprintf(a.GetErr(), "%v\n%s", err, usage)
			return 2
		case errors.As(err, &errParse):
			ui.Status(a.GetErr(), ui.BackgroundRed, "Parse Failure", "%v", errParse)
		case errors.As(err, &errCollision):
			ui.Status(a.GetErr(), ui.BackgroundRed, "Target Collision", "%v\nrename one of the files, or pass -collision=last", errCollision)
		case errors.As(err, &errInit):
			ui.Status(a.GetErr(), ui.BackgroundRed, "Config Failure", "%v\n%s", errInit, errInit.Backtrace())
		default:
			ui.Status(a.GetErr(), ui.BackgroundRed, "Error", "%v", err)
		}
		return 1
	}
	if !c.dryRun {
		ui.Status(a.GetErr(), ui.Green, "Generated", "%s: %d packages %d targets in %s", filepath.Join(c.dir, c.output), len(d.Packages), len(d.Targets), ui.FormatDuration(time.Since(started)))
	}
	return 0
}

// ProjectName returns a project name for the dir, i.e. the last path
// component of the absolute dir.
func ProjectName(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absDir = strings.TrimRight(strings.ReplaceAll(absDir, `\`, "/"), "/")
	return absDir[strings.LastIndex(absDir, "/")+1:], nil
}

func (c *run) run(ctx context.Context, stdout io.Writer) (*cmakegen.Descriptor, error) {
	if c.dir == "" {
		return nil, flagError{err: errors.New("-C must not be empty")}
	}
	srcDir := path.Clean(filepath.ToSlash(c.srcDir))
	if !fs.ValidPath(srcDir) {
		return nil, flagError{err: fmt.Errorf("-src %q must be a relative path in -C", c.srcDir)}
	}
	project := c.project
	if project == "" {
		var err error
		project, err = ProjectName(c.dir)
		if err != nil {
			return nil, err
		}
	}
	ctx = clog.NewSpan(ctx, map[string]string{"project": project})
	iom := iometrics.New(c.dir)
	fsys := iom.FS(os.DirFS(c.dir))

	files, err := scandeps.Discover(ctx, fsys, srcDir, scandeps.Options{
		SkipLocalIncludes: c.skipLocalIncludes,
	})
	if err != nil {
		return nil, err
	}
	clog.Infof(ctx, "scanned %d files in %s", len(files), srcDir)

	opts := cmakegen.DefaultOptions()
	opts.SourceDir = srcDir
	opts.OnCollision = c.collision

	cfg, err := c.initConfig(ctx, fsys)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		result, err := cfg.Init(ctx, project, files, opts)
		if err != nil {
			return nil, err
		}
		opts = result.Options
		if c.project == "" {
			project = result.Project
		}
	}

	clog.Infof(ctx, "io %s", iom)

	d, err := cmakegen.New(ctx, project, files, opts)
	if err != nil {
		return nil, err
	}
	if c.dryRun {
		return d, d.Render(stdout)
	}
	return d, cmakegen.WriteFile(ctx, filepath.Join(c.dir, c.output), d)
}

// initConfig loads config file.
// It returns nil config if the default config file doesn't exist.
func (c *run) initConfig(ctx context.Context, fsys fs.FS) (*buildconfig.Config, error) {
	flags := make(map[string]string)
	explicit := false
	c.Flags.Visit(func(f *flag.Flag) {
		name := f.Name
		switch name {
		case "C":
			name = "dir"
		case "load":
			explicit = true
		}
		flags[name] = f.Value.String()
	})
	if c.configFilename == "" {
		return nil, nil
	}
	fname := path.Clean(filepath.ToSlash(c.configFilename))
	if !fs.ValidPath(fname) {
		return nil, flagError{err: fmt.Errorf("-load %q must be a relative path in -C", c.configFilename)}
	}
	_, err := fs.Stat(fsys, fname)
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		clog.Infof(ctx, "no config %s", fname)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return buildconfig.New(ctx, fsys, fname, flags)
}
