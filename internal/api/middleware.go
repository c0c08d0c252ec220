// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/pawhaven/pawcore/internal/correlation"
	"github.com/pawhaven/pawcore/internal/log"
)

// CorrelationMiddleware resolves or mints a correlation context per
// request. An inbound X-Correlation-ID referring to a stored context is
// adopted as-is; anything else derives a fresh context (the unknown
// inbound id becomes a recorded-but-unvalidated parent). The resolved
// ids are placed on the request context and echoed as response headers.
func CorrelationMiddleware(contexts *correlation.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inbound := r.Header.Get(correlation.HeaderCorrelationID)

			var cc *correlation.Context
			if existing, ok := contexts.Get(inbound); ok {
				cc = existing
			} else {
				cc = contexts.NewContext(r.Header.Get(correlation.HeaderUserID), inbound)
			}

			ctx := log.ContextWithCorrelationID(r.Context(), cc.CorrelationID)
			ctx = log.ContextWithSessionID(ctx, cc.SessionID)

			w.Header().Set(correlation.HeaderCorrelationID, cc.CorrelationID)
			w.Header().Set(correlation.HeaderSessionID, cc.SessionID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
