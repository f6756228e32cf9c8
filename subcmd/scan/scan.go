// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scan is scan subcommand for debugging include scanning.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/rcg/build/cmakegen"
	"go.chromium.org/infra/build/rcg/scandeps"
)

const usage = `scan includes of sources.

 $ rcg scan [-C <dir>] [-src <srcdir>] [-json]

prints include paths of each file in <dir>/<srcdir>
as rcg gen sees them.
`

// Cmd returns the Command for the `scan` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scan <args>...",
		ShortDesc: "scan includes of sources",
		LongDesc:  usage,
		Advanced:  true,
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
	skipLocalIncludes bool
	jsonOutput        bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "package directory")
	c.Flags.StringVar(&c.srcDir, "src", "src", "source directory (relative to -C)")
	c.Flags.BoolVar(&c.skipLocalIncludes, "skip_local_includes", false, `skip '#include "..."' rather than failing`)
	c.Flags.BoolVar(&c.jsonOutput, "json", false, "output in json")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, a.GetOut())
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(a.GetErr(), "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(a.GetErr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, w io.Writer) error {
	srcDir := path.Clean(filepath.ToSlash(c.srcDir))
	if !fs.ValidPath(srcDir) {
		return fmt.Errorf("bad -src %q: %w", c.srcDir, flag.ErrHelp)
	}
	files, err := scandeps.Discover(ctx, os.DirFS(c.dir), srcDir, scandeps.Options{
		SkipLocalIncludes: c.skipLocalIncludes,
	})
	if err != nil {
		return err
	}
	if c.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		return enc.Encode(files)
	}
	for _, f := range files {
		fmt.Fprintf(w, "%s: target=%s\n", f.Name, cmakegen.TargetName(f.Name))
		for _, inc := range f.Includes {
			fmt.Fprintf(w, " <%s> => %s\n", inc, cmakegen.PackageName(inc))
		}
	}
	return nil
}
