// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// SymlinkAllowOpts configure which destinations symlinks found in
// directories may point to.
type SymlinkAllowOpts struct {
	AllowAll        bool
	AllowedDstPaths []string
}

// Resolving /dev/fd/N of a pipe fails on Linux with this message; such
// a file cannot point into the file system.
var pipeSymlinkErr = regexp.MustCompile(`^lstat /proc/\d+/fd/pipe:\[\d+\]: no such file or directory$`)

func checkSymlink(path string, opts SymlinkAllowOpts) error {
	if opts.AllowAll {
		return nil
	}

	dstPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if pipeSymlinkErr.MatchString(err.Error()) {
			return nil
		}
		return fmt.Errorf("Eval symlink: %s", err)
	}

	for _, allowedDstPath := range opts.AllowedDstPaths {
		within, err := isWithin(dstPath, allowedDstPath)
		if err != nil {
			return err
		}
		if within {
			return nil
		}
	}

	return fmt.Errorf("Expected symlink file '%s' -> '%s' to be allowed, but was not", path, dstPath)
}

// isWithin reports whether path is dir or is below it.
func isWithin(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("Abs path '%s': %s", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("Abs path '%s': %s", dir, err)
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
