// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"carvel.dev/mtpl/pkg/filepos"
)

// Pos0 is the span of nodes built in Go code rather than parsed.
func Pos0() filepos.Span { return filepos.UnknownSpan() }
