// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// stdinReader hands out standard input to the first '-' argument only.
type stdinReader struct {
	mu   sync.Mutex
	in   io.Reader
	used bool
}

var stdin = &stdinReader{in: os.Stdin}

func (r *stdinReader) read() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.used {
		return nil, fmt.Errorf("Expected standard input to be used by at most one '-' argument")
	}
	r.used = true
	return io.ReadAll(r.in)
}
