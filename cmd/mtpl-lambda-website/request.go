// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// CustomHostVariable names the environment variable holding the host
// (with protocol, e.g. https://mtpl.example.com) requests are addressed to.
const CustomHostVariable = "MTPL_WEBSITE_HOST"

// DefaultServerAddress is prepended to request paths when CustomHostVariable is not set.
const DefaultServerAddress = "https://mtpl-website.local"

type RequestAccessor struct {
	stripBasePath string
}

func (r *RequestAccessor) ProxyEventToHTTPRequest(req events.ALBTargetGroupRequest) (*http.Request, error) {
	decodedBody := []byte(req.Body)
	if req.IsBase64Encoded {
		base64Body, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("Decoding base64 body: %s", err)
		}
		decodedBody = base64Body
	}

	path := req.Path
	if len(r.stripBasePath) > 1 {
		path = strings.TrimPrefix(path, r.stripBasePath)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	serverAddress := DefaultServerAddress
	if customAddress, ok := os.LookupEnv(CustomHostVariable); ok {
		serverAddress = customAddress
	}
	path = serverAddress + path

	if query := r.queryString(req); len(query) > 0 {
		path += "?" + query
	}

	httpRequest, err := http.NewRequest(strings.ToUpper(req.HTTPMethod), path, bytes.NewReader(decodedBody))
	if err != nil {
		return nil, fmt.Errorf("Converting request %s %s: %s", req.HTTPMethod, req.Path, err)
	}

	for h, v := range req.Headers {
		httpRequest.Header.Add(h, v)
	}
	for hk, hvs := range req.MultiValueHeaders {
		for _, hv := range hvs {
			httpRequest.Header.Add(hk, hv)
		}
	}

	return httpRequest, nil
}

func (r *RequestAccessor) queryString(req events.ALBTargetGroupRequest) string {
	query := url.Values{}
	for q, vals := range req.MultiValueQueryStringParameters {
		for _, v := range vals {
			query.Add(q, v)
		}
	}
	if len(query) == 0 {
		for q, v := range req.QueryStringParameters {
			query.Add(q, v)
		}
	}
	return query.Encode()
}
