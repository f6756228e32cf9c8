// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps provides a simple include scanner for the sources
// of an ament C++ package.
//
// It only checks lines containing `#include` and extracts the path
// in angle brackets
//
//	#include <foo/bar.hpp>
//
// The directive is detected by substring match, so it doesn't process
// `#if` or `#ifdef`, and commented out directives are scanned as well.
// It doesn't allow multiline (\ at the end of line) directives, nor
// `#include MACRO`.
//
// `#include "foo.h"` is a local header and is rejected as a parse
// error unless Options.SkipLocalIncludes is set.
package scandeps
