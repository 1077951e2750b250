package http

import (
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/request"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
)

// ResourceTag is the compact form embedded in other responses.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func NewResourceTag(r *resource.Resource) ResourceTag {
	return ResourceTag{ID: r.ID, Name: r.Name, Type: string(r.Type)}
}

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

func NewResourceResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		Type:      string(r.Type),
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}

type ListResourcesRequest struct {
	request.ListParams
	Type    string `form:"type" binding:"omitempty,resource_type"`
	Keyword string `form:"q"`
	SortBy  string `form:"sort_by" binding:"omitempty,oneof=name type created_at"`
}

type CreateResourceBody struct {
	Name     string `json:"name" binding:"required,max=120"`
	Type     string `json:"type" binding:"required,resource_type"`
	Location string `json:"location" binding:"max=255"`
}

type UpdateResourceBody struct {
	Name     *string `json:"name" binding:"omitempty,max=120"`
	Type     *string `json:"type" binding:"omitempty,resource_type"`
	Location *string `json:"location" binding:"omitempty,max=255"`
}
