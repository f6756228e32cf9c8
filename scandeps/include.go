// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.chromium.org/infra/build/rcg/o11y/clog"
)

var includeMarker = []byte("#include")

// ParseError is an error for an include directive that doesn't have
// `<path>`.
type ParseError struct {
	File   string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.File, e.Line, e.Reason, e.Text)
}

// Options is scan options.
type Options struct {
	// SkipLocalIncludes skips `#include "foo.h"` rather than
	// reporting ParseError.
	SkipLocalIncludes bool
}

// ExtractIncludes extracts include paths in buf of fname.
// It returns paths in the order of lines.
func ExtractIncludes(ctx context.Context, fname string, buf []byte, opts Options) ([]string, error) {
	var includes []string
	for lineno := 1; len(buf) > 0; lineno++ {
		var line []byte
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			line = buf
			buf = nil
		} else {
			line = buf[:i]
			buf = buf[i+1:]
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		if !bytes.Contains(line, includeMarker) {
			continue
		}
		incpath, err := includePath(line, opts)
		if err != nil {
			return nil, &ParseError{
				File:   fname,
				Line:   lineno,
				Text:   string(line),
				Reason: err.Error(),
			}
		}
		if incpath == "" {
			if clog.V(ctx, 1) {
				clog.Infof(ctx, "%s:%d: skip local include %q", fname, lineno, line)
			}
			continue
		}
		if clog.V(ctx, 2) {
			clog.Infof(ctx, "%s:%d: include <%s>", fname, lineno, incpath)
		}
		includes = append(includes, incpath)
	}
	return includes, nil
}

// includePath returns a path between `<` and `>` in line.
// It returns empty string without error for a local include to skip.
func includePath(line []byte, opts Options) (string, error) {
	i := bytes.IndexAny(line, `<"`)
	if i < 0 {
		return "", fmt.Errorf("no '<' in include directive")
	}
	if line[i] == '"' {
		if opts.SkipLocalIncludes {
			return "", nil
		}
		return "", fmt.Errorf("local include directive")
	}
	rest := line[i+1:]
	j := bytes.IndexByte(rest, '>')
	if j < 0 {
		return "", fmt.Errorf("unclosed '<' in include directive")
	}
	if j == 0 {
		return "", fmt.Errorf("empty path in include directive")
	}
	return strings.Clone(string(rest[:j])), nil
}
