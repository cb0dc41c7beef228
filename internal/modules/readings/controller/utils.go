package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type historyQuery struct {
	limit  int
	ranged bool
	from   time.Time
	to     time.Time
}

func parseHistoryQuery(r *http.Request) (historyQuery, error) {
	q := historyQuery{limit: defaultHistoryLimit}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return q, fmt.Errorf("invalid limit %q", s)
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		q.limit = n
	}

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" && toStr == "" {
		return q, nil
	}
	if fromStr == "" || toStr == "" {
		return q, fmt.Errorf("from and to must be given together")
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return q, fmt.Errorf("invalid from %q: %w", fromStr, err)
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return q, fmt.Errorf("invalid to %q: %w", toStr, err)
	}
	if to.Before(from) {
		return q, fmt.Errorf("to must not precede from")
	}

	q.ranged = true
	q.from = from
	q.to = to
	return q, nil
}
