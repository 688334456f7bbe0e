package ranking

import (
	"sort"
)

// LeaderboardSize caps each leaderboard.
const LeaderboardSize = 3

const minDecidedForWinRate = 3

// Leaderboards are the three monthly rankings.
type Leaderboards struct {
	WinRate    []*Stats `json:"winRateLeaders"`
	Wins       []*Stats `json:"winCountLeaders"`
	Attendance []*Stats `json:"attendanceLeaders"`
}

// BuildLeaderboards ranks stats. Ties keep input order.
func BuildLeaderboards(all []*Stats, size int) Leaderboards {
	if size <= 0 {
		size = LeaderboardSize
	}
	return Leaderboards{
		WinRate: top(all, size,
			func(s *Stats) bool { return s.Decided() >= minDecidedForWinRate && s.Wins >= 1 },
			func(a, b *Stats) bool { return a.WinRate > b.WinRate }),
		Wins: top(all, size,
			func(s *Stats) bool { return s.Wins >= 1 },
			func(a, b *Stats) bool { return a.Wins > b.Wins }),
		Attendance: top(all, size,
			func(s *Stats) bool { return s.Attended >= 1 },
			func(a, b *Stats) bool { return a.Attended > b.Attended }),
	}
}

func top(all []*Stats, size int, keep func(*Stats) bool, better func(a, b *Stats) bool) []*Stats {
	out := make([]*Stats, 0, len(all))
	for _, s := range all {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	if len(out) > size {
		out = out[:size]
	}
	return out
}
