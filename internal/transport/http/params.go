package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/clock"
)

func queryDate(r *http.Request, key string) (clock.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return clock.Date{}, nil
	}
	d, err := clock.ParseDate(raw)
	if err != nil {
		return clock.Date{}, badRequest("%s must be YYYY-MM-DD", key)
	}
	return d, nil
}

func queryInt(r *http.Request, key string) (int, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, badRequest("%s must be an integer", key)
	}
	return n, true, nil
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// queryMonth reads year and month. Both default to the current month;
// giving only one of them is an error.
func (h *Handler) queryMonth(r *http.Request) (int, time.Month, error) {
	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, hasMonth, err := queryInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	if hasYear != hasMonth {
		return 0, 0, badRequest("year and month go together")
	}
	if !hasYear {
		y, m := h.calendar.CurrentMonth()
		return y, m, nil
	}
	if month < 1 || month > 12 {
		return 0, 0, badRequest("month must be 1-12")
	}
	return year, time.Month(month), nil
}

// querySpan reads either year+month or from/to. With neither it returns
// all time. from and to are inclusive civil dates.
func (h *Handler) querySpan(r *http.Request) (clock.Span, error) {
	q := r.URL.Query()
	if q.Get("year") != "" || q.Get("month") != "" {
		y, m, err := h.queryMonth(r)
		if err != nil {
			return clock.Span{}, err
		}
		return h.calendar.MonthSpan(y, m), nil
	}

	from, err := queryDate(r, "from")
	if err != nil {
		return clock.Span{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return clock.Span{}, err
	}
	switch {
	case from.IsZero() && to.IsZero():
		return clock.AllTime(), nil
	case !from.IsZero() && !to.IsZero() && to.Before(from):
		return clock.Span{}, badRequest("to is before from")
	}
	return clock.Between(from, to), nil
}
