package util

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
)

// SetPaginationHeaders writes X-Total-Count/X-Total-Pages plus RFC 5988 Link
// headers for next/prev, derived from the current request URL.
func SetPaginationHeaders(r *http.Request, setHeader func(key, value string), p models.Pagination) {
	setHeader("X-Total-Count", fmt.Sprintf("%d", p.TotalRecords))
	setHeader("X-Total-Pages", fmt.Sprintf("%d", p.TotalPages))

	var links []string
	if p.Next != nil {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, pageURL(r, *p.Next, p.RecordsPerPage)))
	}
	if p.Previous != nil {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, pageURL(r, *p.Previous, p.RecordsPerPage)))
	}
	if len(links) > 0 {
		setHeader("Link", strings.Join(links, ", "))
	}
}

func pageURL(r *http.Request, page, perPage int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("perPage", fmt.Sprintf("%d", perPage))
	u.RawQuery = q.Encode()
	return u.String()
}
