// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"time"

	cmdrender "carvel.dev/mtpl/pkg/cmd/render"
	"carvel.dev/mtpl/pkg/cmd/ui"
	"carvel.dev/mtpl/pkg/funcs"
	"carvel.dev/mtpl/pkg/website"
	"github.com/spf13/cobra"
)

type WebsiteOptions struct {
	ListenAddr      string
	RedirectToHTTPS bool
	RenderTimeout   time.Duration
	StrictParams    bool
	Debug           bool
}

func NewWebsiteOptions() *WebsiteOptions {
	return &WebsiteOptions{RenderTimeout: 10 * time.Second}
}

func NewWebsiteCmd(o *WebsiteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "website",
		Short: "Starts website HTTP server",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().StringVar(&o.ListenAddr, "listen-addr", "localhost:8080", "Listen address")
	cmd.Flags().BoolVar(&o.RedirectToHTTPS, "redirect-to-https", true, "Redirect to HTTPs address")
	cmd.Flags().DurationVar(&o.RenderTimeout, "render-timeout", o.RenderTimeout, "Maximum duration of a single render request")
	cmd.Flags().BoolVar(&o.StrictParams, "strict", false, "Configure whether names not bound in a rendered template are errors")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	return cmd
}

func (o *WebsiteOptions) Server() *website.Server {
	opts := website.ServerOpts{
		ListenAddr:      o.ListenAddr,
		RedirectToHTTPS: o.RedirectToHTTPS,
		RenderTimeout:   o.RenderTimeout,
		TemplateFunc:    o.render,
		ErrorFunc:       o.bulkOutErr,
		FunctionNames:   funcs.Builtins().Names(),
	}
	return website.NewServer(opts)
}

func (o *WebsiteOptions) Run() error {
	return o.Server().Run()
}

// render renders files given in bulk format. Rendering errors are
// reported inside the bulk response.
func (o *WebsiteOptions) render(ctx context.Context, data []byte) ([]byte, error) {
	in, err := cmdrender.NewBulkInput(data)
	if err != nil {
		return nil, err
	}

	renderOpts := cmdrender.NewOptions()
	renderOpts.StrictParams = o.StrictParams

	return renderOpts.RunWithFiles(ctx, in, ui.NewTTY(o.Debug)).AsBulkBytes()
}

func (*WebsiteOptions) bulkOutErr(err error) ([]byte, error) {
	return json.Marshal(cmdrender.BulkFiles{Errors: err.Error()})
}
