// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"
	"sync"

	"carvel.dev/mtpl/pkg/resolver"
	"carvel.dev/mtpl/pkg/texttemplate"
	"github.com/zeebo/blake3"
)

type cacheKey struct {
	hash           [32]byte
	allowFreeNames bool
}

// TreeCache keeps resolved trees keyed by a hash of template name and
// contents. Resolved trees are read-only so a cached tree is shared by
// all renders. Safe for concurrent use.
type TreeCache struct {
	mu     sync.Mutex
	trees  map[cacheKey]*resolver.ResolvedTree
	hits   int
	misses int
}

func NewTreeCache() *TreeCache {
	return &TreeCache{trees: map[cacheKey]*resolver.ResolvedTree{}}
}

// Get returns the resolved tree of a template, parsing and resolving
// it on first use.
func (c *TreeCache) Get(name string, data []byte, opts resolver.Options) (*resolver.ResolvedTree, bool, error) {
	key := cacheKey{hash: contentHash(name, data), allowFreeNames: opts.AllowFreeNames}

	c.mu.Lock()
	tree, found := c.trees[key]
	if found {
		c.hits++
	}
	c.mu.Unlock()

	if found {
		return tree, true, nil
	}

	// concurrent misses of the same key may parse twice; trees are equivalent
	tpl, err := texttemplate.NewParser().Parse(data, name)
	if err != nil {
		return nil, false, err
	}
	tree, err = resolver.Resolve(tpl, opts)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.trees[key] = tree
	c.misses++
	c.mu.Unlock()

	return tree, false, nil
}

// Stats returns number of cache hits and misses so far.
func (c *TreeCache) Stats() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *TreeCache) String() string {
	hits, misses := c.Stats()
	return fmt.Sprintf("tree cache: %d hits, %d misses", hits, misses)
}

func contentHash(name string, data []byte) [32]byte {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00", name)
	h.Write(data)

	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}
