package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/campus-scheduler/internal/auth"
	"github.com/nekogravitycat/campus-scheduler/internal/pkg/apperror"
	"github.com/nekogravitycat/campus-scheduler/internal/pkg/request"
	"github.com/nekogravitycat/campus-scheduler/internal/pkg/response"
	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

type Handler struct {
	service reservation.Service
	// bookingsRequireApproval makes bookings by students and lecturers start as pending.
	bookingsRequireApproval bool
}

func NewHandler(service reservation.Service, bookingsRequireApproval bool) *Handler {
	return &Handler{service: service, bookingsRequireApproval: bookingsRequireApproval}
}

// canSee reports whether the caller may read or cancel r.
func canSee(c *gin.Context, r *reservation.Reservation) bool {
	return auth.GetUserRole(c).IsStaff() || r.OwnedBy(auth.GetUserID(c))
}

func failureMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func (h *Handler) Submit(c *gin.Context) {
	var body SubmitReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	role := auth.GetUserRole(c)
	kind := reservation.KindBooking
	if body.Kind != "" {
		kind = reservation.Kind(body.Kind)
	}
	// Only staff may place blocks that ignore existing bookings.
	if kind.Override() && !role.IsStaff() {
		response.Error(c, apperror.ErrForbidden)
		return
	}

	res, err := h.service.Submit(c.Request.Context(), reservation.SubmitRequest{
		ResourceID:       body.ResourceID,
		Range:            schedule.NewTimeRange(body.StartTime, body.EndTime),
		RequesterID:      auth.GetUserID(c),
		Purpose:          body.Purpose,
		Kind:             kind,
		RequiresApproval: h.bookingsRequireApproval && !role.IsStaff(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReservationResponse(res))
}

func (h *Handler) List(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	filter := reservation.Filter{
		ResourceID: req.ResourceID,
		UserID:     req.UserID,
		Status:     reservation.Status(req.Status),
		Kind:       reservation.Kind(req.Kind),
		From:       req.From,
		To:         req.To,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	// Students and lecturers only ever see their own reservations.
	if !auth.GetUserRole(c).IsStaff() {
		filter.UserID = auth.GetUserID(c)
	}

	rs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newReservationResponses(rs), req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canSee(c, res) {
		// Do not reveal that the reservation exists.
		response.Error(c, reservation.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) Approve(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	res, err := h.service.Approve(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) Reject(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body RejectReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.service.Reject(c.Request.Context(), uri.ID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	ctx := c.Request.Context()
	existing, err := h.service.GetByID(ctx, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canSee(c, existing) {
		response.Error(c, reservation.ErrNotFound)
		return
	}

	res, err := h.service.Cancel(ctx, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) Check(c *gin.Context) {
	var body CheckAvailabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	result, err := h.service.Check(c.Request.Context(), body.ResourceID, schedule.NewTimeRange(body.StartTime, body.EndTime))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckAvailabilityResponse{
		Conflict:    result.Conflict,
		Conflicting: newReservationResponses(result.Conflicting),
	})
}

func (h *Handler) Clashes(c *gin.Context) {
	var req ClashesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	clashes, rs, err := h.service.Clashes(c.Request.Context(), req.ResourceID, schedule.Day(req.Date))
	if err != nil {
		response.Error(c, err)
		return
	}

	pairs := make([]ClashPair, len(clashes))
	for i, cl := range clashes {
		pairs[i] = ClashPair{A: cl.A, B: cl.B}
	}
	c.JSON(http.StatusOK, ClashesResponse{
		ResourceID:   req.ResourceID,
		Date:         req.Date.Format("2006-01-02"),
		Clashes:      pairs,
		Reservations: newReservationResponses(reservation.Active(rs)),
	})
}

func (h *Handler) ScheduleExamOverride(c *gin.Context) {
	var body ExamOverrideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	result, err := h.service.ScheduleExamOverride(c.Request.Context(), reservation.ExamOverrideRequest{
		Range:       schedule.NewTimeRange(body.StartTime, body.EndTime),
		ResourceIDs: body.ResourceIDs,
		IssuerID:    auth.GetUserID(c),
		Purpose:     body.Purpose,
	})
	var batchErr *reservation.BatchError
	switch {
	case errors.As(err, &batchErr):
		c.JSON(http.StatusMultiStatus, NewExamOverrideResponse(batchErr.Result))
	case err != nil:
		response.Error(c, err)
	default:
		c.JSON(http.StatusCreated, NewExamOverrideResponse(result))
	}
}
