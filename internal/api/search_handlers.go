package api

import (
	"net/http"
	"strconv"

	"github.com/circulateapp/circulate-server/internal/http/response"
	"github.com/circulateapp/circulate-server/internal/search"
)

// handleSearch runs a full-text catalog search.
//
// Query parameters:
//
//	q         search query (empty matches everything)
//	category  exact category filter
//	status    exact status filter (available, unavailable, maintenance)
//	available "true" restricts to books with free copies
//	limit     max results (default 20, capped at 100)
//	offset    pagination offset
//	sort      relevance (default), title, author, recent
//	order     asc or desc
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.catalogIndex == nil {
		response.Error(w, http.StatusServiceUnavailable, "Search is not enabled", s.logger)
		return
	}

	params := search.DefaultParams()
	q := r.URL.Query()

	params.Query = q.Get("q")
	params.Category = q.Get("category")
	params.Status = q.Get("status")
	params.AvailableOnly = q.Get("available") == "true"

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			if limit > 100 {
				limit = 100
			}
			params.Limit = limit
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			params.Offset = offset
		}
	}
	if sortBy := q.Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := q.Get("order"); order != "" {
		params.SortOrder = order
	}

	result, err := s.catalogIndex.Search(r.Context(), params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", params.Query)
		response.InternalError(w, "Search failed", s.logger)
		return
	}

	response.Success(w, result, s.logger)
}
