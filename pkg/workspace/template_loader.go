// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"fmt"

	"carvel.dev/mtpl/pkg/eval"
	"carvel.dev/mtpl/pkg/files"
	"carvel.dev/mtpl/pkg/resolver"
)

// TemplateLoader finds invoked templates among workspace files.
// Locators are paths relative to the workspace root; the '.tpl'
// suffix may be omitted, and so may the extension when a format tag
// is given.
type TemplateLoader struct {
	ws *Workspace
}

var _ eval.TemplateLoader = TemplateLoader{}

func (l TemplateLoader) Load(_ context.Context, locator, format string) (*resolver.ResolvedTree, error) {
	file, err := l.ws.FindTemplate(locator, format)
	if err != nil {
		return nil, err
	}
	if file.Type() != files.TypeTemplate {
		return nil, fmt.Errorf("Expected file '%s' to be a template", file.RelativePath())
	}
	// invoked templates take their free names as parameters
	return l.ws.resolve(file, resolver.Options{AllowFreeNames: true})
}
