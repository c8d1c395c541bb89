package pagination

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/trackerzenith/docpipe/pkg/query"
)

// SortFields accepts either "vendor_name,-created_at" or an array of
// SortField objects in JSON.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = query.ParseSortFields(str)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest is the page, search and sort portion of a list or search call.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps the page to 1 or more and the page size into (0, MaxPageSize].
// A blank search is dropped and a long one is cut to MaxSearchLength runes.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}

	if r.Search == nil {
		return
	}
	s := strings.TrimSpace(*r.Search)
	if s == "" {
		r.Search = nil
		return
	}
	if cfg.MaxSearchLength > 0 {
		if runes := []rune(s); len(runes) > cfg.MaxSearchLength {
			s = string(runes[:cfg.MaxSearchLength])
		}
	}
	r.Search = &s
}

// Apply adds the free-text search across searchFields and the requested sort
// to qb. Without a requested sort the builder keeps its default order.
func (r *PageRequest) Apply(qb *query.Builder, searchFields ...string) *query.Builder {
	qb.WhereSearch(r.Search, searchFields...)
	if len(r.Sort) > 0 {
		qb.OrderByFields(r.Sort)
	}
	return qb
}

// PageRequestFromQuery reads page, page_size, search and sort from a query
// string. Unparseable numbers fall back to the configured defaults.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("page_size"))

	search := values.Get("search")

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   &search,
		Sort:     query.ParseSortFields(values.Get("sort")),
	}

	req.Normalize(cfg)
	return req
}

// PageResult is one page of T plus the totals a client needs to page further.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult derives TotalPages, which is at least 1 so an empty result
// still reports a valid page.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := 1
	if pageSize > 0 && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
