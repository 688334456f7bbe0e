package tenant

import (
	"regexp"
	"strings"
	"time"
)

// Tenant is an independent club sharing the deployment.
type Tenant struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	AdminPasswordHash string    `json:"-"`
	JoinCodeHash      string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// HasJoinCode reports whether self-registration is open for the club.
func (t *Tenant) HasJoinCode() bool {
	return t.JoinCodeHash != ""
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,61}[a-z0-9]$`)

// NormalizeSlug lowercases and trims a slug candidate.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidSlug reports whether s is usable as a subdomain label.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
