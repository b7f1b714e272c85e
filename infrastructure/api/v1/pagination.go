package v1

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/infrastructure/api/jsonapi"
)

// Page sizes for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a 1-indexed page request.
type PaginationParams struct {
	page     int
	pageSize int
}

// ParsePagination reads page and page_size from the query string.
// Missing or invalid values fall back to page 1 of DefaultPageSize;
// page_size is capped at MaxPageSize.
func ParsePagination(r *http.Request) PaginationParams {
	q := r.URL.Query()
	return PaginationParams{
		page:     positiveInt(q.Get("page"), 1),
		pageSize: min(positiveInt(q.Get("page_size"), DefaultPageSize), MaxPageSize),
	}
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Page returns the page number.
func (p PaginationParams) Page() int { return p.page }

// PageSize returns the page size.
func (p PaginationParams) PageSize() int { return p.pageSize }

// Offset returns the number of rows to skip.
func (p PaginationParams) Offset() int { return (p.page - 1) * p.pageSize }

// Limit returns the number of rows to return.
func (p PaginationParams) Limit() int { return p.pageSize }

// Options returns the store options selecting this page.
func (p PaginationParams) Options() []repository.Option {
	return repository.WithPagination(p.Limit(), p.Offset())
}

func (p PaginationParams) totalPages(total int64) int {
	return int((total + int64(p.pageSize) - 1) / int64(p.pageSize))
}

// PaginationMeta describes the page and the size of the whole result.
func PaginationMeta(p PaginationParams, total int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        p.Page(),
		"page_size":   p.PageSize(),
		"total_count": total,
		"total_pages": p.totalPages(total),
	}
}

// PaginationLinks returns self, first, last, prev and next links. Other
// query parameters of the request are carried over.
func PaginationLinks(r *http.Request, p PaginationParams, total int64) *jsonapi.Links {
	pages := p.totalPages(total)
	link := func(page int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(p.pageSize))
		return (&url.URL{Path: r.URL.Path, RawQuery: q.Encode()}).String()
	}

	links := &jsonapi.Links{
		Self:  link(p.page),
		First: link(1),
	}
	if pages > 0 {
		links.Last = link(pages)
	}
	if p.page > 1 {
		links.Prev = link(p.page - 1)
	}
	if p.page < pages {
		links.Next = link(p.page + 1)
	}
	return links
}
