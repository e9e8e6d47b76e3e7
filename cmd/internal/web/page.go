package web

import (
	"net/http"
	"strconv"
)

// Page is an offset/limit window over a collection.
type Page struct {
	Skip  int
	Limit int
}

// PageFromRequest reads skip/limit query parameters. Absent or malformed
// values fall back to skip=0 and the given default limit; negative values
// are clamped to zero. Stores apply their own upper bound on limit.
func PageFromRequest(r *http.Request, defaultLimit int) Page {
	p := Page{Skip: 0, Limit: defaultLimit}

	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Skip = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	return p
}
