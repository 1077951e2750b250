package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/response"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	"github.com/nekogravitycat/campus-scheduler/internal/timeline"
)

type Handler struct {
	service timeline.Service
}

func NewHandler(service timeline.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Day(c *gin.Context) {
	var req DayRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	view, err := h.service.Day(c.Request.Context(), timeline.DayQuery{
		Date:           req.Date,
		ResourceID:     req.ResourceID,
		Type:           resource.Type(req.Type),
		StartHour:      req.StartHour,
		EndHour:        req.EndHour,
		UnitsPerMinute: req.UnitsPerMinute,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewDayResponse(view))
}
