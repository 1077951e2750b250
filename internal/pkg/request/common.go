package request

import (
	"strings"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/apperror"
)

var ErrInvalidSortOrder = apperror.New(400, "sort_order must be asc or desc")

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListParams are the pagination and ordering query parameters shared by list endpoints.
type ListParams struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"page_size,default=20" binding:"min=1,max=100"`
	SortOrder string `form:"sort_order"`
}

// Validate normalizes SortOrder to upper case and rejects unknown values.
func (p *ListParams) Validate() error {
	switch strings.ToUpper(p.SortOrder) {
	case "":
		p.SortOrder = "ASC"
	case "ASC", "DESC":
		p.SortOrder = strings.ToUpper(p.SortOrder)
	default:
		return ErrInvalidSortOrder
	}
	return nil
}
