// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"fmt"
	"time"

	"carvel.dev/mtpl/pkg/cmd/ui"
	"carvel.dev/mtpl/pkg/eval"
	"carvel.dev/mtpl/pkg/files"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/version"
	"carvel.dev/mtpl/pkg/workspace"
	"github.com/spf13/cobra"
)

type RenderOptions struct {
	Debug          bool
	StrictParams   bool
	MaxDepth       int
	RequireVersion string

	BulkFilesSourceOpts    BulkFilesSourceOpts
	RegularFilesSourceOpts RegularFilesSourceOpts
	DataValuesFlags        DataValuesFlags
}

type RenderInput struct {
	Files []*files.File
}

type RenderOutput struct {
	Files []files.OutputFile
	Err   error
	Empty bool
}

type FileSource interface {
	HasInput() bool
	HasOutput() bool
	Input() (RenderInput, error)
	Output(RenderOutput) error
}

var _ []FileSource = []FileSource{&BulkFilesSource{}, &RegularFilesSource{}}

func NewOptions() *RenderOptions {
	return &RenderOptions{MaxDepth: eval.DefaultMaxDepth}
}

func NewCmd(o *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render",
		Aliases: []string{"r"},
		Short:   "Render templates",
		RunE:    func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	cmd.Flags().BoolVar(&o.StrictParams, "strict", false,
		"Configure whether names not bound in a rendered template are errors (instead of being looked up in data values)")
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", o.MaxDepth, "Maximum depth of nested template invocations")
	cmd.Flags().StringVar(&o.RequireVersion, "require-version", "", "Fail unless mtpl is at least this version")
	o.BulkFilesSourceOpts.Set(cmd)
	o.RegularFilesSourceOpts.Set(cmd)
	o.DataValuesFlags.Set(cmd)
	return cmd
}

func (o *RenderOptions) Run() error {
	ui := ui.NewTTY(o.Debug)
	t1 := time.Now()

	defer func() {
		ui.Debugf("total: %s\n", time.Since(t1))
	}()

	srcs := []FileSource{
		NewBulkFilesSource(o.BulkFilesSourceOpts, ui),
		NewRegularFilesSource(o.RegularFilesSourceOpts, ui),
	}

	in, err := o.pickSource(srcs, func(s FileSource) bool { return s.HasInput() }).Input()
	if err != nil {
		return err
	}

	out := o.RunWithFiles(context.Background(), in, ui)
	if out.Empty {
		return nil
	}

	return o.pickSource(srcs, func(s FileSource) bool { return s.HasOutput() }).Output(out)
}

func (o *RenderOptions) RunWithFiles(ctx context.Context, in RenderInput, ui ui.UI) RenderOutput {
	if len(o.RequireVersion) > 0 {
		if err := version.RequireAtLeast(o.RequireVersion); err != nil {
			return RenderOutput{Err: err}
		}
	}

	values, err := o.DataValuesFlags.Values()
	if err != nil {
		return RenderOutput{Err: err}
	}

	if o.DataValuesFlags.Inspect {
		return o.inspectValues(values, ui)
	}

	ws, err := workspace.New(in.Files, values, ui, workspace.Options{
		StrictParams: o.StrictParams,
		MaxDepth:     o.MaxDepth,
	})
	if err != nil {
		return RenderOutput{Err: err}
	}

	if len(ws.Templates()) == 0 {
		ui.Warnf("Warning: no templates found among %d file(s)\n", len(in.Files))
	}

	outputs, err := ws.RenderAll(ctx)
	if err != nil {
		return RenderOutput{Err: err}
	}

	ui.Debugf("%s\n", ws.Cache())

	return RenderOutput{Files: outputs}
}

func (o *RenderOptions) pickSource(srcs []FileSource, pickFunc func(FileSource) bool) FileSource {
	for _, src := range srcs {
		if pickFunc(src) {
			return src
		}
	}
	return srcs[len(srcs)-1]
}

func (o *RenderOptions) inspectValues(values *model.Data, ui ui.UI) RenderOutput {
	docBytes, err := model.ToYAML(values.Root())
	if err != nil {
		return RenderOutput{Err: fmt.Errorf("Marshaling data values: %s", err)}
	}

	ui.Printf("%s", docBytes) // no newline

	return RenderOutput{Empty: true}
}
