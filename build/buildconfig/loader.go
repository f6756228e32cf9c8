// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
)

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

// fsLoader is a Starlark module loader on fs.FS.
// Relative module name is resolved from the directory of the
// loading module.
type fsLoader struct {
	fsys        fs.FS
	predeclared starlark.StringDict

	// fullname -> loaded module. nil entry while loading.
	cache map[string]*loadEntry
}

// Load loads a Starlark module.
func (l *fsLoader) Load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	fname := module
	if curname, ok := thread.Local("modulename").(string); ok && !path.IsAbs(module) {
		fname = path.Join(path.Dir(curname), module)
	}
	fname = path.Clean(fname)
	log.Debugf("load %s as %s", module, fname)
	e, ok := l.cache[fname]
	if ok {
		if e == nil {
			return nil, fmt.Errorf("cycle in load graph: %s", fname)
		}
		return e.globals, e.err
	}
	buf, err := fs.ReadFile(l.fsys, fname)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", fname, err)
	}
	l.cache[fname] = nil
	t := &starlark.Thread{
		Name: "module " + fname,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: l.Load,
	}
	t.SetLocal("modulename", fname)
	globals, err := starlark.ExecFile(t, fname, buf, l.predeclared)
	l.cache[fname] = &loadEntry{globals: globals, err: err}
	return globals, err
}
