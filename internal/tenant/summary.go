package tenant

import "github.com/clubledger/clubledger/internal/clock"

// Summary is the operator-facing activity overview of one club.
type Summary struct {
	Club                *Tenant     `json:"club"`
	MemberCount         int         `json:"memberCount"`
	GuestCount          int         `json:"guestCount"`
	SessionCount        int         `json:"sessionCount"`
	MatchCount          int         `json:"matchCount"`
	AttendanceCount     int         `json:"attendanceCount"`
	LatestSessionDate   *clock.Date `json:"latestSessionDate,omitempty"`
	UniqueVisitorsToday int         `json:"uniqueVisitorsToday"`
}
