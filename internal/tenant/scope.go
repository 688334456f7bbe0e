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

package tenant

// Scope is the isolation predicate every tenant-owned query and mutation
// goes through.
//
// A zero Scope is unscoped and matches every row; it only arises in
// single-tenant mode. IncludeLegacy additionally admits rows whose tenant
// reference is null, and is set only for the default tenant while legacy
// compatibility is enabled.
type Scope struct {
	TenantID      string
	IncludeLegacy bool
}

// Unscoped returns the identity predicate.
func Unscoped() Scope {
	return Scope{}
}

// ForTenant scopes to a single tenant without legacy rows.
func ForTenant(id string) Scope {
	return Scope{TenantID: id}
}

// IsUnscoped reports whether the scope matches every row.
func (s Scope) IsUnscoped() bool {
	return s.TenantID == ""
}

// Allows reports whether a row owned by owner is visible in this scope.
func (s Scope) Allows(owner *string) bool {
	if s.IsUnscoped() {
		return true
	}
	if owner == nil {
		return s.IncludeLegacy
	}
	return *owner == s.TenantID
}

// Authorize returns ErrAccessDenied when owner is outside the scope. Lookups
// by id use this instead of a not-found so that a cross-tenant id is
// reported as a denial.
func (s Scope) Authorize(owner *string) error {
	if !s.Allows(owner) {
		return ErrAccessDenied
	}
	return nil
}

// OwnerID is the tenant reference stamped on rows created in this scope.
func (s Scope) OwnerID() *string {
	if s.IsUnscoped() {
		return nil
	}
	id := s.TenantID
	return &id
}

// CacheKey identifies the scope in cache keys.
func (s Scope) CacheKey() string {
	if s.IsUnscoped() {
		return "_all"
	}
	return s.TenantID
}
