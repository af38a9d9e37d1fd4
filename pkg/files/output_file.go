// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"os"
	"path/filepath"
)

// OutputFile is a rendered template destined for a path relative to
// an output directory.
type OutputFile struct {
	relativePath string
	data         []byte
}

func NewOutputFile(relativePath string, data []byte) OutputFile {
	return OutputFile{relativePath, data}
}

func (f OutputFile) RelativePath() string { return f.relativePath }
func (f OutputFile) Bytes() []byte        { return f.data }

func (f OutputFile) Path(dirPath string) string {
	return filepath.Join(dirPath, filepath.FromSlash(f.relativePath))
}

// Create writes the file below dirPath, creating parent directories.
func (f OutputFile) Create(dirPath string) error {
	resultPath := f.Path(dirPath)
	if err := os.MkdirAll(filepath.Dir(resultPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(resultPath, f.data, 0600)
}
