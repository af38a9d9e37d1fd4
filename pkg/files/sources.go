// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Source provides the contents of a template, partial, or values file.
type Source interface {
	Description() string
	RelativePath() (string, error)
	Bytes() ([]byte, error)
}

var _ []Source = []Source{BytesSource{}, StdinSource{},
	LocalSource{}, HTTPSource{}, &CachedSource{}}

// BytesSource serves in-memory contents, e.g. files posted to the website.
type BytesSource struct {
	path string
	data []byte
}

func NewBytesSource(path string, data []byte) BytesSource {
	return BytesSource{path: path, data: data}
}

func (s BytesSource) Description() string           { return s.path }
func (s BytesSource) RelativePath() (string, error) { return s.path, nil }
func (s BytesSource) Bytes() ([]byte, error)        { return s.data, nil }

// StdinTemplateName names the template read from '-'.
const StdinTemplateName = "stdin.tpl"

type StdinSource struct {
	data []byte
	err  error
}

func NewStdinSource() StdinSource {
	data, err := stdin.read()
	return StdinSource{data: data, err: err}
}

func (s StdinSource) Description() string           { return StdinTemplateName }
func (s StdinSource) RelativePath() (string, error) { return StdinTemplateName, nil }
func (s StdinSource) Bytes() ([]byte, error)        { return s.data, s.err }

// LocalSource is a file on disk. When dir is set (the file was found
// while walking a directory) its relative path is taken from dir.
type LocalSource struct {
	path string
	dir  string
}

func NewLocalSource(path, dir string) LocalSource { return LocalSource{path: path, dir: dir} }

func (s LocalSource) Description() string { return fmt.Sprintf("file '%s'", s.path) }

func (s LocalSource) RelativePath() (string, error) {
	if len(s.dir) == 0 {
		return filepath.Base(s.path), nil
	}

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("Expected file '%s' to be within directory '%s'", s.path, s.dir)
	}
	return rel, nil
}

func (s LocalSource) Bytes() ([]byte, error) { return os.ReadFile(s.path) }

const (
	// HTTPTimeout bounds fetching a single remote template.
	HTTPTimeout = 30 * time.Second
	// MaxHTTPBytes bounds the size of a single remote template.
	MaxHTTPBytes = 10 << 20
)

// HTTPSource fetches a template over HTTP(S). Client may be replaced
// before the first call to Bytes.
type HTTPSource struct {
	url    string
	Client *http.Client
}

func NewHTTPSource(url string) HTTPSource {
	return HTTPSource{url: url, Client: &http.Client{Timeout: HTTPTimeout}}
}

func (s HTTPSource) Description() string { return fmt.Sprintf("HTTP URL '%s'", s.url) }

func (s HTTPSource) RelativePath() (string, error) { return path.Base(s.url), nil }

func (s HTTPSource) Bytes() ([]byte, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxHTTPBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Reading URL '%s': %s", s.url, err)
	}
	if len(data) > MaxHTTPBytes {
		return nil, fmt.Errorf("Reading URL '%s': response exceeds %d bytes", s.url, MaxHTTPBytes)
	}
	return data, nil
}

// CachedSource reads the wrapped source at most once and is safe for
// concurrent use.
type CachedSource struct {
	src Source

	once sync.Once
	data []byte
	err  error
}

func NewCachedSource(src Source) *CachedSource { return &CachedSource{src: src} }

func (s *CachedSource) Description() string           { return s.src.Description() }
func (s *CachedSource) RelativePath() (string, error) { return s.src.RelativePath() }

func (s *CachedSource) Bytes() ([]byte, error) {
	s.once.Do(func() { s.data, s.err = s.src.Bytes() })
	return s.data, s.err
}
