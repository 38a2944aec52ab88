package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// PageParams carries limit/offset extracted from a list request.
type PageParams struct {
	Limit  int
	Offset int
}

// ParsePageParams reads limit/offset query parameters with sane bounds.
func ParsePageParams(r *http.Request) PageParams {
	p := PageParams{Limit: defaultPageSize}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}
	return p
}
