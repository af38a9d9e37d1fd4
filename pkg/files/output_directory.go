// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"os"
	"path"
	"strings"
)

var suspiciousOutputDirectoryPaths = []string{"/", ".", "./", ""}

// OutputDirectory replaces the contents of a directory with rendered files.
type OutputDirectory struct {
	path  string
	files []OutputFile
	ui    UI
}

func NewOutputDirectory(path string, files []OutputFile, ui UI) *OutputDirectory {
	return &OutputDirectory{path, files, ui}
}

func (d *OutputDirectory) Files() []OutputFile { return d.files }

// Write removes the directory and writes all files into it. Nothing is
// removed when validation fails.
func (d *OutputDirectory) Write() error {
	if err := d.validate(); err != nil {
		return err
	}
	if err := os.RemoveAll(d.path); err != nil {
		return err
	}
	return d.WriteFiles()
}

func (d *OutputDirectory) WriteFiles() error {
	if err := os.MkdirAll(d.path, 0700); err != nil {
		return err
	}
	for _, file := range d.files {
		d.ui.Printf("creating: %s\n", file.Path(d.path))

		if err := file.Create(d.path); err != nil {
			return err
		}
	}
	return nil
}

func (d *OutputDirectory) validate() error {
	for _, suspicious := range suspiciousOutputDirectoryPaths {
		if d.path == suspicious {
			return fmt.Errorf("Expected output directory path to not be one of '%s'",
				strings.Join(suspiciousOutputDirectoryPaths, "', '"))
		}
	}

	seen := map[string]struct{}{}
	for _, file := range d.files {
		relPath := file.RelativePath()
		if _, found := seen[relPath]; found {
			return fmt.Errorf("Multiple files have same output destination paths: %s", relPath)
		}
		seen[relPath] = struct{}{}

		cleanPath := path.Clean(relPath)
		if path.IsAbs(cleanPath) || cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
			return fmt.Errorf("Expected output file path '%s' to stay within output directory", relPath)
		}
	}
	return nil
}
