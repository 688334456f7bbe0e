// Copyright 2026 The ClubLedger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/operator"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/go-chi/chi/v5/middleware"
)

// Tenant inputs, in precedence order after the Host header.
const (
	ClubHeader = "X-Club-Subdomain"
	ClubParam  = "club"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// TenantMiddleware resolves the club a request is for and stores the
// resolution in the request context. Unresolvable clubs fail the request;
// nothing downstream runs without a scope.
func (h *Handler) TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.resolver.Resolve(r.Context(), tenant.Input{
			Host:   r.Host,
			Header: r.Header.Get(ClubHeader),
			Param:  r.URL.Query().Get(ClubParam),
		})
		if err != nil {
			if errors.Is(err, tenant.ErrTenantNotFound) {
				slog.WarnContext(r.Context(), "tenant resolution failed",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Path(r.URL.Path),
					logger.String("host", r.Host),
				)
			}
			fail(w, r, "resolve_tenant", err)
			return
		}

		if res.FellBack {
			slog.WarnContext(r.Context(), "unknown club, serving default tenant",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.TenantSlug(res.Slug),
				logger.TenantSource(res.Source),
			)
		}
		slog.DebugContext(r.Context(), "tenant resolved",
			logger.TenantID(res.Scope.TenantID),
			logger.TenantSlug(res.Slug),
			logger.TenantSource(res.Source),
		)

		next.ServeHTTP(w, r.WithContext(withResolution(r.Context(), res)))
	})
}

// OperatorMiddleware admits requests carrying a valid operator bearer token.
func (h *Handler) OperatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.operators == nil || !h.operators.Enabled() {
			respondError(w, http.StatusForbidden, "operator access disabled")
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			respondError(w, http.StatusUnauthorized, "operator token required")
			return
		}

		claims, err := h.operators.Verify(strings.TrimSpace(raw))
		if err != nil {
			slog.WarnContext(r.Context(), "operator token rejected",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.RemoteAddr(r.RemoteAddr),
				logger.Error(err),
			)
			msg := "invalid operator token"
			if errors.Is(err, operator.ErrExpiredToken) {
				msg = "operator token expired"
			}
			respondError(w, http.StatusUnauthorized, msg)
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
