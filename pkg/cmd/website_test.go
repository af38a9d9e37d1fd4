// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carvel.dev/mtpl/pkg/cmd"
	cmdrender "carvel.dev/mtpl/pkg/cmd/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	opts := cmd.NewWebsiteOptions()
	opts.RedirectToHTTPS = false
	server := httptest.NewServer(opts.Server().Mux())
	t.Cleanup(server.Close)
	return server
}

func postTemplate(t *testing.T, server *httptest.Server, body string) cmdrender.BulkFiles {
	resp, err := http.Post(server.URL+"/template", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result cmdrender.BulkFiles
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestWebsiteRender(t *testing.T) {
	server := newTestServer(t)

	result := postTemplate(t, server, `{"files":[
		{"name":"list.html","data":"<ul><% foreach i in range(2) { <% invoke \"item.partial.html\" (n: i) %> } %></ul>"},
		{"name":"item.partial.html","data":"<li>${n}</li>"}
	]}`)
	assert.Equal(t, "", result.Errors)
	assert.Equal(t, []cmdrender.BulkFile{{Name: "list.html", Data: "<ul><li>0</li><li>1</li></ul>"}}, result.Files)
}

func TestWebsiteRenderErrors(t *testing.T) {
	server := newTestServer(t)

	result := postTemplate(t, server, `{"files":[{"name":"a.txt","data":"<% if 1 { x } %>"}]}`)
	assert.Contains(t, result.Errors, "Expected if condition to be a bool, but was int")

	result = postTemplate(t, server, `not json`)
	assert.NotEmpty(t, result.Errors)
	assert.Len(t, result.Files, 0)
}

func TestWebsiteEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/template")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/functions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Contains(t, names, "upper")
	assert.Contains(t, names, "version_ge")
}
