// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"

	"carvel.dev/mtpl/pkg/cmd"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// ALBProxy serves load balancer events with an http.Handler.
type ALBProxy struct {
	RequestAccessor
	handler http.Handler
}

func NewALBProxy(handler http.Handler) *ALBProxy {
	return &ALBProxy{handler: handler}
}

// Handle runs one event through the handler. The request carries ctx,
// so a Lambda deadline cancels in-flight renders.
func (p *ALBProxy) Handle(ctx context.Context, event events.ALBTargetGroupRequest) (events.ALBTargetGroupResponse, error) {
	req, err := p.ProxyEventToHTTPRequest(event)
	if err != nil {
		return events.ALBTargetGroupResponse{StatusCode: http.StatusBadRequest},
			fmt.Errorf("Converting event to request: %s", err)
	}

	w := NewProxyResponseWriter()
	p.handler.ServeHTTP(w, req.WithContext(ctx))

	resp, err := w.GetProxyResponse()
	if err != nil {
		return events.ALBTargetGroupResponse{StatusCode: http.StatusInternalServerError},
			fmt.Errorf("Building response: %s", err)
	}
	return resp, nil
}

func main() {
	lambda.Start(NewALBProxy(cmd.NewWebsiteOptions().Server().Mux()).Handle)
}
