// Package pagination validates page/size parameters for list operations.
package pagination

import (
	"fmt"
	"math"

	"identity-platform/backend/internal/apperr"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a validated 1-based page request.
type Params struct {
	page    int
	perPage int
}

// New validates page (>= 1) and perPage (1..MaxPerPage). A zero perPage means DefaultPerPage
// and a zero page means the first page.
func New(page, perPage int) (Params, error) {
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page < 1 || perPage < 1 || perPage > MaxPerPage {
		return Params{}, apperr.Wrap(apperr.ErrInvalidPaginationParams,
			fmt.Sprintf("invalid pagination params: page=%d per_page=%d (per_page must be 1..%d)", page, perPage, MaxPerPage), nil)
	}
	if int64(page-1)*int64(perPage) > math.MaxInt32 {
		return Params{}, apperr.Wrap(apperr.ErrInvalidPaginationParams,
			fmt.Sprintf("invalid pagination params: page=%d is out of range", page), nil)
	}
	return Params{page: page, perPage: perPage}, nil
}

func (p Params) Page() int    { return p.page }
func (p Params) PerPage() int { return p.perPage }

// Limit and Offset translate the page into SQL/Redis range terms.
func (p Params) Limit() int32  { return int32(p.perPage) }
func (p Params) Offset() int32 { return int32((p.page - 1) * p.perPage) }
