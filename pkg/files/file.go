// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"carvel.dev/mtpl/pkg/markup"
)

var (
	templateExts = []string{".tpl", ".html", ".htm", ".xml", ".svg", ".txt"}
	starlarkExts = []string{".star"}
	yamlExts     = []string{".yaml", ".yml"}
	tomlExts     = []string{".toml"}
	partialExt   = "partial" // eg card.partial.html
)

type Type int

const (
	TypeUnknown Type = iota
	TypeTemplate
	TypeStarlark
	TypeYAML
	TypeTOML
)

type File struct {
	src     Source
	relPath string
}

// NewSortedFilesFromPaths lists files of paths: '-' for stdin, http(s)
// URLs, files and (recursively) directories. Symlinks must be allowed
// by symlinkOpts.
func NewSortedFilesFromPaths(paths []string, symlinkOpts SymlinkAllowOpts) ([]*File, error) {
	var fileSrcs []Source

	for _, path := range paths {
		switch {
		case path == "-":
			fileSrcs = append(fileSrcs, NewStdinSource())

		case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
			fileSrcs = append(fileSrcs, NewHTTPSource(path))

		default:
			fileInfo, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("Checking file '%s': %s", path, err)
			}

			if fileInfo.IsDir() {
				var selectedPaths []string

				err := filepath.Walk(path, func(walkedPath string, fi os.FileInfo, err error) error {
					if err != nil || fi.IsDir() {
						return err
					}
					if fi.Mode()&os.ModeSymlink != 0 {
						if err := checkSymlink(walkedPath, symlinkOpts); err != nil {
							return err
						}
					}
					selectedPaths = append(selectedPaths, walkedPath)
					return nil
				})
				if err != nil {
					return nil, fmt.Errorf("Listing files '%s': %s", path, err)
				}

				sort.Strings(selectedPaths)

				for _, selectedPath := range selectedPaths {
					fileSrcs = append(fileSrcs, NewLocalSource(selectedPath, path))
				}
			} else {
				fileSrcs = append(fileSrcs, NewLocalSource(path, ""))
			}
		}
	}

	var files []*File

	for _, fileSrc := range fileSrcs {
		file, err := NewFileFromSource(fileSrc)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, nil
}

func NewFileFromSource(fileSrc Source) (*File, error) {
	relPath, err := fileSrc.RelativePath()
	if err != nil {
		return nil, fmt.Errorf("Calculating relative path for '%s': %s", fileSrc.Description(), err)
	}

	return &File{src: NewCachedSource(fileSrc), relPath: filepath.ToSlash(relPath)}, nil
}

func MustNewFileFromSource(fileSrc Source) *File {
	file, err := NewFileFromSource(fileSrc)
	if err != nil {
		panic(err)
	}
	return file
}

func (r *File) Description() string    { return r.src.Description() }
func (r *File) RelativePath() string   { return r.relPath }
func (r *File) Bytes() ([]byte, error) { return r.src.Bytes() }

func (r *File) Type() Type {
	switch {
	case r.matchesExt(templateExts):
		return TypeTemplate
	case r.matchesExt(starlarkExts):
		return TypeStarlark
	case r.matchesExt(yamlExts):
		return TypeYAML
	case r.matchesExt(tomlExts):
		return TypeTOML
	default:
		return TypeUnknown
	}
}

// IsTemplate reports whether the file is rendered to an output file.
// Partials are templates only reachable through invoke statements.
func (r *File) IsTemplate() bool {
	return r.Type() == TypeTemplate && !r.IsPartial()
}

func (r *File) IsPartial() bool {
	exts := strings.Split(filepath.Base(r.RelativePath()), ".")
	return len(exts) > 2 && exts[len(exts)-2] == partialExt
}

// Format is the markup format the file renders in.
func (r *File) Format() markup.Format {
	return markup.FromExtension(r.RelativePath())
}

// OutputRelativePath is the destination of a rendered template: the
// '.tpl' suffix is dropped.
func (r *File) OutputRelativePath() string {
	return strings.TrimSuffix(r.RelativePath(), ".tpl")
}

func (r *File) matchesExt(exts []string) bool {
	filename := filepath.Base(r.RelativePath())
	for _, ext := range exts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

func SplitPath(path string) ([]string, string) {
	pieces := strings.Split(path, "/")
	if len(pieces) == 1 {
		return nil, pieces[0]
	}
	return pieces[:len(pieces)-1], pieces[len(pieces)-1]
}

func JoinPath(pieces []string) string {
	return strings.Join(pieces, "/")
}
