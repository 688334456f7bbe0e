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

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Mode selects how unresolvable tenant inputs are handled.
type Mode string

const (
	// ModeSingle skips resolution entirely and grants unscoped access.
	ModeSingle Mode = "single"
	// ModePermissive falls back to the default tenant on unknown slugs.
	ModePermissive Mode = "permissive"
	// ModeStrict fails unknown slugs with ErrTenantNotFound.
	ModeStrict Mode = "strict"
)

// ParseMode parses a mode name; empty means permissive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePermissive:
		return ModePermissive, nil
	case ModeStrict:
		return ModeStrict, nil
	case ModeSingle:
		return ModeSingle, nil
	default:
		return "", fmt.Errorf("unknown tenancy mode %q", s)
	}
}

// Source names where a slug was taken from.
const (
	SourceSubdomain = "subdomain"
	SourceHeader    = "header"
	SourceParam     = "param"
	SourceDefault   = "default"
)

// Config is fixed at construction; the resolver never reads process state.
type Config struct {
	Mode        Mode
	DefaultSlug string
	// BaseDomain, when set, is the parent domain club subdomains hang off.
	BaseDomain string
	// LegacyNullCompat treats rows without a tenant as the default tenant's.
	LegacyNullCompat bool
}

// Input carries the raw request values the resolver inspects.
type Input struct {
	Host   string
	Header string
	Param  string
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	Tenant *Tenant
	Scope  Scope
	Slug   string
	Source string
	// FellBack is set when an unknown slug was replaced by the default tenant.
	FellBack bool
}

// Resolver maps request inputs to a tenant and its isolation scope.
type Resolver struct {
	cfg  Config
	repo Repository
}

// NewResolver creates a resolver.
func NewResolver(cfg Config, repo Repository) *Resolver {
	if cfg.Mode == "" {
		cfg.Mode = ModePermissive
	}
	cfg.DefaultSlug = NormalizeSlug(cfg.DefaultSlug)
	cfg.BaseDomain = strings.ToLower(strings.Trim(strings.TrimSpace(cfg.BaseDomain), "."))
	return &Resolver{cfg: cfg, repo: repo}
}

// Config returns the resolver's configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve picks a slug from the inputs in priority order and looks it up.
func (r *Resolver) Resolve(ctx context.Context, in Input) (*Resolution, error) {
	if r.cfg.Mode == ModeSingle {
		return &Resolution{Scope: Unscoped(), Source: SourceDefault}, nil
	}

	slug, source := r.Candidate(in)
	return r.lookup(ctx, slug, source)
}

// ResolveSlug resolves an explicit slug with strict semantics regardless of
// mode. Operator endpoints address clubs by slug and must not fall back.
func (r *Resolver) ResolveSlug(ctx context.Context, slug string) (*Resolution, error) {
	slug = NormalizeSlug(slug)
	t, err := r.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	return &Resolution{Tenant: t, Scope: r.ScopeFor(t), Slug: slug, Source: SourceParam}, nil
}

// Candidate returns the slug the inputs select and where it came from.
func (r *Resolver) Candidate(in Input) (string, string) {
	if sub := SubdomainOf(in.Host, r.cfg.BaseDomain); sub != "" {
		return sub, SourceSubdomain
	}
	if h := NormalizeSlug(in.Header); h != "" {
		return h, SourceHeader
	}
	if p := NormalizeSlug(in.Param); p != "" {
		return p, SourceParam
	}
	return r.cfg.DefaultSlug, SourceDefault
}

// ScopeFor builds the isolation predicate for t.
func (r *Resolver) ScopeFor(t *Tenant) Scope {
	if t == nil {
		return Unscoped()
	}
	return Scope{
		TenantID:      t.ID,
		IncludeLegacy: r.cfg.LegacyNullCompat && t.Slug == r.cfg.DefaultSlug,
	}
}

func (r *Resolver) lookup(ctx context.Context, slug, source string) (*Resolution, error) {
	if slug != "" {
		t, err := r.repo.GetBySlug(ctx, slug)
		switch {
		case err == nil:
			return &Resolution{Tenant: t, Scope: r.ScopeFor(t), Slug: slug, Source: source}, nil
		case !errors.Is(err, ErrTenantNotFound):
			return nil, fmt.Errorf("failed to resolve tenant: %w", err)
		}
	}

	if r.cfg.Mode == ModeStrict || slug == r.cfg.DefaultSlug || r.cfg.DefaultSlug == "" {
		return nil, ErrTenantNotFound
	}

	def, err := r.repo.GetBySlug(ctx, r.cfg.DefaultSlug)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to resolve default tenant: %w", err)
	}
	return &Resolution{
		Tenant:   def,
		Scope:    r.ScopeFor(def),
		Slug:     def.Slug,
		Source:   SourceDefault,
		FellBack: true,
	}, nil
}

var reservedLabels = map[string]bool{
	"www":       true,
	"api":       true,
	"localhost": true,
}

// SubdomainOf extracts a club slug from a Host header value. It returns ""
// for bare domains, IP literals, localhost and reserved labels.
func SubdomainOf(host, baseDomain string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if host == "" || host == "localhost" || net.ParseIP(host) != nil {
		return ""
	}

	var label string
	if baseDomain != "" {
		suffix := "." + baseDomain
		if !strings.HasSuffix(host, suffix) {
			return ""
		}
		label = strings.TrimSuffix(host, suffix)
		if strings.Contains(label, ".") {
			return ""
		}
	} else {
		parts := strings.Split(host, ".")
		if len(parts) < 3 {
			return ""
		}
		label = parts[0]
	}

	if reservedLabels[label] || !ValidSlug(label) {
		return ""
	}
	return label
}
