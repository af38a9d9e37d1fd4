// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"carvel.dev/mtpl/pkg/cmd/ui"
	"carvel.dev/mtpl/pkg/files"
	"carvel.dev/mtpl/pkg/resolver"
	"carvel.dev/mtpl/pkg/template"
	"carvel.dev/mtpl/pkg/texttemplate"
	"github.com/spf13/cobra"
)

// ASTOptions print parsed templates for debugging.
type ASTOptions struct {
	Files   []string
	Script  bool
	Resolve bool

	ui ui.UI
}

func NewASTOptions() *ASTOptions {
	return &ASTOptions{ui: ui.NewTTY(false)}
}

func NewASTCmd(o *ASTOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast",
		Short: "Print syntax tree of templates",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().StringArrayVarP(&o.Files, "file", "f", nil, "File (ie local path, HTTP URL, -) (can be specified multiple times)")
	cmd.Flags().BoolVar(&o.Script, "script", false, "Parse files as statement lists instead of text")
	cmd.Flags().BoolVar(&o.Resolve, "resolve", false, "Also resolve names and report free names")
	return cmd
}

func (o *ASTOptions) Run() error {
	fs, err := files.NewSortedFilesFromPaths(o.Files, files.SymlinkAllowOpts{})
	if err != nil {
		return err
	}

	for _, file := range fs {
		if file.Type() != files.TypeTemplate {
			continue
		}
		if err := o.printFile(file); err != nil {
			return err
		}
	}
	return nil
}

func (o *ASTOptions) printFile(file *files.File) error {
	src, err := file.Bytes()
	if err != nil {
		return fmt.Errorf("Reading %s: %s", file.Description(), err)
	}

	parser := texttemplate.NewParser()
	parse := parser.Parse
	if o.Script {
		parse = parser.ParseScript
	}

	tpl, err := parse(src, file.RelativePath())
	if err != nil {
		return err
	}

	o.ui.Printf("### %s\n%s\n", file.RelativePath(), template.Pretty(tpl))

	if o.Resolve {
		tree, err := resolver.Resolve(tpl, resolver.Options{AllowFreeNames: true})
		if err != nil {
			return err
		}
		o.ui.Printf("### free names: %v\n", tree.FreeNames)
	}
	return nil
}
