// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	cmdrender "carvel.dev/mtpl/pkg/cmd/render"
	"carvel.dev/mtpl/pkg/version"
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"
)

type MtplOptions struct{}

func NewDefaultMtplOptions() *MtplOptions {
	return &MtplOptions{}
}

func NewDefaultMtplCmd() *cobra.Command {
	return NewMtplCmd(NewDefaultMtplOptions())
}

func NewMtplCmd(o *MtplOptions) *cobra.Command {
	cmd := cmdrender.NewCmd(cmdrender.NewOptions())

	cmd.Use = "mtpl"
	cmd.Aliases = nil
	cmd.Version = version.Version
	cmd.Short = "mtpl renders markup templates"
	cmd.Long = `mtpl renders markup templates (HTML, XML, text).

Templates interleave text with <%= expressions %>, <% statements %>,
$model.references and ${expressions}. Files named name.partial.ext are
only rendered when invoked.`

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(cmdrender.NewCmd(cmdrender.NewOptions()))
	cmd.AddCommand(NewASTCmd(NewASTOptions()))
	cmd.AddCommand(NewWebsiteCmd(NewWebsiteOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
