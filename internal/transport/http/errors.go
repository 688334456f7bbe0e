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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/ranking"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/clubledger/clubledger/internal/visit"
	"github.com/go-chi/chi/v5/middleware"
)

// errBadRequest marks malformed query or path input.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

var (
	notFoundErrors = []error{
		member.ErrMemberNotFound,
		session.ErrSessionNotFound,
		match.ErrMatchNotFound,
		attendance.ErrAttendanceNotFound,
	}
	invalidErrors = []error{
		errBadRequest,
		member.ErrInvalidMember,
		session.ErrInvalidLabel,
		attendance.ErrInvalidStatus,
		attendance.ErrGuestAttendance,
		ranking.ErrInvalidRange,
		visit.ErrInvalidVisitor,
		tenant.ErrInvalidSlug,
	}
	conflictErrors = []error{
		tenant.ErrSlugTaken,
		member.ErrMemberInUse,
		session.ErrSessionExists,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps domain errors onto HTTP statuses. The message is safe to
// return to clients for every status below 500.
func statusFor(err error) (int, string) {
	var verr *match.ValidationError
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "club not found"
	case errors.Is(err, tenant.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, tenant.ErrInvalidJoinCode):
		return http.StatusForbidden, "invalid join code"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case isAny(err, invalidErrors):
		return http.StatusBadRequest, err.Error()
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, err.Error()
	case isAny(err, conflictErrors):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail writes err as a JSON error. Storage and unexpected failures are
// logged with the operation that triggered them and returned opaque.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Operation(op),
			logger.TenantID(scopeFrom(r.Context()).TenantID),
			logger.ErrorType("storage_error"),
			logger.Error(err),
		)
	} else {
		slog.DebugContext(r.Context(), "request rejected",
			logger.Operation(op),
			logger.StatusCode(status),
			logger.Error(err),
		)
	}
	respondError(w, status, msg)
}
