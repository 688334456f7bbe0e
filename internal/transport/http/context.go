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

	"github.com/clubledger/clubledger/internal/tenant"
)

type contextKey string

const (
	resolutionKey contextKey = "tenant_resolution"
	operatorKey   contextKey = "operator_subject"
)

func withResolution(ctx context.Context, res *tenant.Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, res)
}

// GetResolution retrieves the tenant resolution from context.
func GetResolution(ctx context.Context) *tenant.Resolution {
	if val, ok := ctx.Value(resolutionKey).(*tenant.Resolution); ok {
		return val
	}
	return nil
}

// scopeFrom returns the request's isolation scope. Requests that never
// passed tenant resolution get a scope for a tenant that cannot exist, so
// a missing middleware fails closed instead of exposing every club.
func scopeFrom(ctx context.Context) tenant.Scope {
	if res := GetResolution(ctx); res != nil {
		return res.Scope
	}
	return tenant.ForTenant(unresolvedTenant)
}

const unresolvedTenant = "unresolved"

// GetOperator retrieves the authenticated operator subject from context.
func GetOperator(ctx context.Context) string {
	if val, ok := ctx.Value(operatorKey).(string); ok {
		return val
	}
	return ""
}
