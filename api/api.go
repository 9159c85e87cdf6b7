// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the read-only query surface of the node over HTTP.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/meridianchain/meridian/api/blocks"
	"github.com/meridianchain/meridian/api/states"
	"github.com/meridianchain/meridian/chain"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins    string
	AllowGetAllValues bool
	AllowGetTrie      bool
	EnableReqLogger   bool
	EnableMetrics     bool
}

// New returns the api handler.
func New(repo *chain.Repository, eng *engine.EngineState, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	st := states.New(repo, eng, opts.AllowGetAllValues, opts.AllowGetTrie)
	st.Mount(router, "/state")
	st.MountTrie(router, "/trie")
	blocks.New(repo).
		Mount(router, "/blocks")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler.ServeHTTP
}
