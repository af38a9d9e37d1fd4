// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"carvel.dev/mtpl/pkg/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req), nil }

func respondWith(status int, body []byte) roundTripFunc {
	return func(*http.Request) *http.Response {
		return &http.Response{
			StatusCode: status,
			Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
			Body:       io.NopCloser(bytes.NewReader(body)),
			Header:     make(http.Header),
		}
	}
}

func TestHTTPSource(t *testing.T) {
	const url = "http://example.com/pages/index.html"

	cases := []struct {
		desc      string
		transport roundTripFunc
		body      string
		err       string
	}{
		{desc: "ok", transport: respondWith(http.StatusOK, []byte("<p>$x</p>")), body: "<p>$x</p>"},
		{desc: "any 2xx", transport: respondWith(http.StatusIMUsed, []byte("ok")), body: "ok"},
		{
			desc:      "not found",
			transport: respondWith(http.StatusNotFound, nil),
			err:       "Requesting URL '" + url + "': 404 Not Found",
		},
		{
			desc:      "too large",
			transport: respondWith(http.StatusOK, make([]byte, files.MaxHTTPBytes+1)),
			err:       fmt.Sprintf("Reading URL '%s': response exceeds %d bytes", url, files.MaxHTTPBytes),
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			src := files.NewHTTPSource(url)
			src.Client = &http.Client{Transport: tc.transport}

			relPath, err := src.RelativePath()
			require.NoError(t, err)
			assert.Equal(t, "index.html", relPath)

			data, err := src.Bytes()
			if len(tc.err) > 0 {
				require.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(data))
		})
	}
}

type countingSource struct {
	files.Source
	reads int32
}

func (s *countingSource) Bytes() ([]byte, error) {
	atomic.AddInt32(&s.reads, 1)
	return s.Source.Bytes()
}

func TestCachedSourceReadsOnce(t *testing.T) {
	inner := &countingSource{Source: files.NewBytesSource("a.txt", []byte("a"))}
	src := files.NewCachedSource(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := src.Bytes()
			assert.NoError(t, err)
			assert.Equal(t, "a", string(data))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.reads))
	assert.Equal(t, "a.txt", src.Description())
}
