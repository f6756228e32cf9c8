// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"time"

	"go.chromium.org/infra/build/rcg/o11y/clog"
)

// SourceFile is a source file and its include paths.
type SourceFile struct {
	// Name is a file name in the source dir.
	Name string `json:"name"`

	// Includes are include paths in the order of lines.
	Includes []string `json:"includes"`
}

// Discover scans all files in dir on fsys.
// Files are returned in the order of fs.ReadDir, i.e. sorted by name.
// Subdirectories are not scanned.
func Discover(ctx context.Context, fsys fs.FS, dir string, opts Options) ([]SourceFile, error) {
	started := time.Now()
	ents, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dir %s: %w", dir, err)
	}
	files := make([]SourceFile, 0, len(ents))
	for _, ent := range ents {
		if ent.IsDir() {
			clog.Warningf(ctx, "skip subdirectory %s", path.Join(dir, ent.Name()))
			continue
		}
		fname := path.Join(dir, ent.Name())
		buf, err := fs.ReadFile(fsys, fname)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fname, err)
		}
		includes, err := ExtractIncludes(ctx, fname, buf, opts)
		if err != nil {
			return nil, err
		}
		if clog.V(ctx, 1) {
			clog.Infof(ctx, "scan %s: %q", fname, includes)
		}
		files = append(files, SourceFile{
			Name:     ent.Name(),
			Includes: includes,
		})
	}
	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow scan %s %s", dir, dur)
	}
	return files, nil
}
