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

// Package memory is a process-local store with the same uniqueness rules as
// the postgres schema. It backs development mode and handler tests.
package memory

import (
	"sync"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/clubledger/clubledger/internal/visit"
)

// Store holds every table behind one lock.
type Store struct {
	mu          sync.RWMutex
	clubs       map[string]*tenant.Tenant
	members     map[string]*member.Member
	sessions    map[string]*session.Session
	matches     map[string]*match.Match
	attendances map[string]*attendance.Attendance
	visits      []*visit.Visit
}

func New() *Store {
	return &Store{
		clubs:       map[string]*tenant.Tenant{},
		members:     map[string]*member.Member{},
		sessions:    map[string]*session.Session{},
		matches:     map[string]*match.Match{},
		attendances: map[string]*attendance.Attendance{},
	}
}

func (s *Store) Tenants() *TenantRepository         { return &TenantRepository{s} }
func (s *Store) Summaries() *SummaryRepository      { return &SummaryRepository{s} }
func (s *Store) Members() *MemberRepository         { return &MemberRepository{s} }
func (s *Store) Sessions() *SessionRepository       { return &SessionRepository{s} }
func (s *Store) Matches() *MatchRepository          { return &MatchRepository{s} }
func (s *Store) Attendances() *AttendanceRepository { return &AttendanceRepository{s} }
func (s *Store) Visits() *VisitRepository           { return &VisitRepository{s} }

func ownerKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func sameOwner(a, b *string) bool {
	return ownerKey(a) == ownerKey(b)
}
