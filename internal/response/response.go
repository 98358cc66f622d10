// Package response implements the standard envelope every endpoint replies
// with: {"success": bool, "data"?, "error"?, "pagination"?}.
package response

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Pagination carries list metadata in the envelope
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Envelope is the standard response body
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// JSON writes a success envelope
func JSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// Page writes a success envelope with pagination metadata
func Page(c echo.Context, status int, data interface{}, p Pagination) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Pagination: &p})
}

// Error writes a failure envelope with a human-readable message
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Error: message})
}

// PageParams parses page/limit query parameters with the shared defaults
// (page 1, limit 20, capped at 100) and returns the derived offset.
func PageParams(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return page, limit, (page - 1) * limit
}

// NewPagination builds pagination metadata from a total row count
func NewPagination(page, limit int, total int64) Pagination {
	pages := int(total+int64(limit)-1) / limit
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
