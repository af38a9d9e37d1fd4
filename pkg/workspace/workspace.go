// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"carvel.dev/mtpl/pkg/eval"
	"carvel.dev/mtpl/pkg/files"
	"carvel.dev/mtpl/pkg/funcs"
	"carvel.dev/mtpl/pkg/markup"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/resolver"
)

type Options struct {
	// StrictParams makes unbound names of rendered templates errors.
	// Otherwise they are parameters supplied from top level data values.
	StrictParams bool

	// MaxDepth limits nested invocations; eval.DefaultMaxDepth when 0.
	MaxDepth int
}

// Workspace is a set of files rendered together. It is safe for
// concurrent renders once constructed.
type Workspace struct {
	files  []*files.File
	byPath map[string]*files.File

	values *model.Data
	funcs  funcs.Registry
	cache  *TreeCache

	ui   files.UI
	opts Options
}

// New builds a workspace over fs. Starlark files among fs provide
// functions in addition to the builtins; templates may call builtins
// from starlark code too.
func New(fs []*files.File, values *model.Data, ui files.UI, opts Options) (*Workspace, error) {
	ws := &Workspace{
		byPath: map[string]*files.File{},
		values: values,
		cache:  NewTreeCache(),
		ui:     ui,
		opts:   opts,
	}
	if ws.values == nil {
		ws.values = model.NewData()
	}

	var starFiles []funcs.StarlarkFile

	for _, file := range fs {
		if _, found := ws.byPath[file.RelativePath()]; found {
			return nil, fmt.Errorf("Expected file '%s' to be included only once", file.RelativePath())
		}
		ws.byPath[file.RelativePath()] = file
		ws.files = append(ws.files, file)

		if file.Type() == files.TypeStarlark {
			src, err := file.Bytes()
			if err != nil {
				return nil, fmt.Errorf("Reading %s: %s", file.Description(), err)
			}
			starFiles = append(starFiles, funcs.StarlarkFile{Name: file.RelativePath(), Source: src})
		}
	}

	builtins := funcs.Builtins()
	ws.funcs = builtins

	if len(starFiles) > 0 {
		starlarkFuncs, err := funcs.NewStarlarkRegistry(starFiles, builtins)
		if err != nil {
			return nil, err
		}
		ws.funcs = funcs.Chain(starlarkFuncs, builtins)
	}

	return ws, nil
}

func (w *Workspace) Files() []*files.File { return w.files }
func (w *Workspace) Values() *model.Data  { return w.values }
func (w *Workspace) Cache() *TreeCache    { return w.cache }

// Templates returns files rendered to outputs, sorted by path.
func (w *Workspace) Templates() []*files.File {
	var result []*files.File
	for _, file := range w.files {
		if file.IsTemplate() {
			result = append(result, file)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RelativePath() < result[j].RelativePath()
	})
	return result
}

func (w *Workspace) FindFile(locator string) (*files.File, error) {
	locator = strings.TrimPrefix(locator, "/")
	for _, path := range []string{locator, locator + ".tpl"} {
		if file, found := w.byPath[path]; found {
			return file, nil
		}
	}
	return nil, fmt.Errorf("Expected to find file '%s' (hint: paths are relative to workspace root)", locator)
}

// FindTemplate finds the template at locator with the named format.
// The format's extensions may be omitted from locator, e.g. "card"
// with format "html" finds "card.html". An empty format accepts any.
func (w *Workspace) FindTemplate(locator, format string) (*files.File, error) {
	if len(format) == 0 {
		return w.FindFile(locator)
	}

	candidates := []string{locator}
	for _, ext := range markup.Extensions(format) {
		candidates = append(candidates, locator+"."+ext)
	}

	var mismatched *files.File
	for _, candidate := range candidates {
		file, err := w.FindFile(candidate)
		if err != nil {
			continue
		}
		if file.Format().Name() == format {
			return file, nil
		}
		if mismatched == nil {
			mismatched = file
		}
	}
	if mismatched != nil {
		return nil, fmt.Errorf("Expected file '%s' to have format '%s', but was '%s'",
			mismatched.RelativePath(), format, mismatched.Format().Name())
	}
	return w.FindFile(locator)
}

// Resolve returns the resolved tree of a top level template.
func (w *Workspace) Resolve(file *files.File) (*resolver.ResolvedTree, error) {
	return w.resolve(file, resolver.Options{AllowFreeNames: !w.opts.StrictParams})
}

func (w *Workspace) resolve(file *files.File, opts resolver.Options) (*resolver.ResolvedTree, error) {
	data, err := file.Bytes()
	if err != nil {
		return nil, fmt.Errorf("Reading %s: %s", file.Description(), err)
	}

	tree, cached, err := w.cache.Get(file.RelativePath(), data, opts)
	if err != nil {
		return nil, err
	}
	if cached {
		w.ui.Debugf("cache hit: %s\n", file.RelativePath())
	}
	return tree, nil
}

// Render evaluates a template of the workspace. Data values are the
// model; in non-strict mode top level data values also supply free
// names of the template.
func (w *Workspace) Render(ctx context.Context, file *files.File) ([]byte, error) {
	t1 := time.Now()
	defer func() { w.ui.Debugf("render %s: %s\n", file.RelativePath(), time.Since(t1)) }()

	tree, err := w.Resolve(file)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	env := eval.Env{
		Model:    w.values,
		Funcs:    w.funcs,
		Loader:   TemplateLoader{w},
		Sink:     eval.NewWriterSink(&buf, file.Format()),
		MaxDepth: w.opts.MaxDepth,
		Logger:   w.ui,
	}
	if !w.opts.StrictParams {
		env.Params = w.values.Root()
	}

	err = eval.Evaluate(ctx, tree, env)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderAll renders every template of the workspace.
func (w *Workspace) RenderAll(ctx context.Context) ([]files.OutputFile, error) {
	var result []files.OutputFile
	for _, file := range w.Templates() {
		out, err := w.Render(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("Rendering %s:\n%s", file.Description(), err)
		}
		result = append(result, files.NewOutputFile(file.OutputRelativePath(), out))
	}
	return result, nil
}
