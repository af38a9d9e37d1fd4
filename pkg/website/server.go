// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package website

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// MaxRequestBytes limits bodies of render requests.
const MaxRequestBytes = 1 << 20

type ServerOpts struct {
	ListenAddr      string
	RedirectToHTTPS bool
	RenderTimeout   time.Duration
	TemplateFunc    func(context.Context, []byte) ([]byte, error)
	ErrorFunc       func(error) ([]byte, error)
	FunctionNames   []string
}

type Server struct {
	opts ServerOpts
}

func NewServer(opts ServerOpts) *Server {
	return &Server{opts}
}

// middleware wraps a handler with a cross-cutting concern.
type middleware func(http.HandlerFunc) http.HandlerFunc

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/functions", s.with(s.functionsHandler, s.requireHTTPS, noCache, allowCORS))
	// no need for caching as it's a POST
	mux.HandleFunc("/template", s.with(s.templateHandler, s.requireHTTPS, allowCORS))
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// with applies middlewares outermost first.
func (s *Server) with(h http.HandlerFunc, mws ...middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (s *Server) Run() error {
	server := &http.Server{
		Addr:              s.opts.ListenAddr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Printf("Listening on http://%s\n", server.Addr)
	return server.ListenAndServe()
}

func (s *Server) functionsHandler(w http.ResponseWriter, r *http.Request) {
	namesBytes, err := json.Marshal(s.opts.FunctionNames)
	if err != nil {
		s.logError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	s.write(w, namesBytes)
}

func (s *Server) templateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "expected POST request", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBytes+1))
	if err != nil {
		s.logError(w, err)
		return
	}
	if len(data) > MaxRequestBytes {
		s.logError(w, fmt.Errorf("Expected request body to be at most %d bytes", MaxRequestBytes))
		return
	}

	ctx := r.Context()
	if s.opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RenderTimeout)
		defer cancel()
	}

	resp, err := s.opts.TemplateFunc(ctx, data)
	if err != nil {
		s.logError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.write(w, resp)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.write(w, []byte("ok"))
}

func (s *Server) logError(w http.ResponseWriter, err error) {
	log.Print(err.Error())

	resp, err := s.opts.ErrorFunc(err)
	if err != nil {
		fmt.Fprintf(w, "generation error: %s", err.Error())
		return
	}

	s.write(w, resp)
}

func (s *Server) write(w http.ResponseWriter, data []byte) {
	w.Write(data) // not fmt.Fprintf!
}

// requireHTTPS redirects plain GET and HEAD requests to https and
// rejects other plain requests. Local clients are exempt.
func (s *Server) requireHTTPS(next http.HandlerFunc) http.HandlerFunc {
	if !s.opts.RedirectToHTTPS {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if isLocalClient(r) || r.Header.Get("X-Forwarded-Proto") == "https" {
			next(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead:
			if len(r.Host) == 0 {
				s.logError(w, fmt.Errorf("expected non-empty Host header"))
				return
			}
			http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
		default:
			// body may have been sent in the clear already
			s.logError(w, fmt.Errorf("expected HTTPs connection"))
		}
	}
}

func isLocalClient(r *http.Request) bool {
	clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(clientIP)
	return ip != nil && ip.IsLoopback()
}

var noCacheHeaders = map[string]string{
	"Expires":         time.Unix(0, 0).Format(time.RFC1123),
	"Cache-Control":   "no-cache, private, max-age=0",
	"Pragma":          "no-cache",
	"X-Accel-Expires": "0",
}

func noCache(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range noCacheHeaders {
			w.Header().Set(k, v)
		}
		next(w, r)
	}
}

func allowCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		next(w, r)
	}
}
