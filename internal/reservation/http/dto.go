package http

import (
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/request"
	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
)

type ReservationResponse struct {
	ID           string    `json:"id"`
	ResourceID   string    `json:"resource_id"`
	ResourceName string    `json:"resource_name,omitempty"`
	UserID       *string   `json:"user_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	Kind         string    `json:"kind"`
	RenderClass  string    `json:"render_class"`
	Purpose      string    `json:"purpose,omitempty"`
	RejectReason string    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:           r.ID,
		ResourceID:   r.ResourceID,
		ResourceName: r.ResourceName,
		UserID:       r.UserID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Status:       string(r.Status),
		Kind:         string(r.Kind),
		RenderClass:  string(reservation.Classify(r).RenderClass),
		Purpose:      r.Purpose,
		RejectReason: r.RejectReason,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newReservationResponses(rs []*reservation.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(rs))
	for i, r := range rs {
		out[i] = NewReservationResponse(r)
	}
	return out
}

type ListReservationsRequest struct {
	request.ListParams
	ResourceID string     `form:"resource_id" binding:"omitempty,uuid"`
	UserID     string     `form:"user_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending approved confirmed rejected cancelled maintenance"`
	Kind       string     `form:"kind" binding:"omitempty,reservation_kind"`
	From       *time.Time `form:"from"`
	To         *time.Time `form:"to"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status kind"`
}

type SubmitReservationBody struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Kind       string    `json:"kind" binding:"omitempty,reservation_kind"`
	Purpose    string    `json:"purpose" binding:"max=500"`
}

type RejectReservationBody struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type CheckAvailabilityBody struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
}

type CheckAvailabilityResponse struct {
	Conflict    bool                  `json:"conflict"`
	Conflicting []ReservationResponse `json:"conflicting"`
}

type ClashesRequest struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	Date       time.Time `form:"date" binding:"required" time_format:"2006-01-02" time_utc:"1"`
}

type ClashPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

type ClashesResponse struct {
	ResourceID   string                `json:"resource_id"`
	Date         string                `json:"date"`
	Clashes      []ClashPair           `json:"clashes"`
	Reservations []ReservationResponse `json:"reservations"`
}

type ExamOverrideBody struct {
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	ResourceIDs []string  `json:"resource_ids" binding:"omitempty,dive,uuid"`
	Purpose     string    `json:"purpose" binding:"max=500"`
}

type ExamOverrideItem struct {
	ResourceID  string              `json:"resource_id"`
	Reservation ReservationResponse `json:"reservation"`
	ClashesWith []string            `json:"clashes_with"`
}

type ExamOverrideFailure struct {
	ResourceID string `json:"resource_id"`
	Error      string `json:"error"`
}

type ExamOverrideResponse struct {
	Succeeded []ExamOverrideItem    `json:"succeeded"`
	Failed    []ExamOverrideFailure `json:"failed"`
}

func NewExamOverrideResponse(result *reservation.BatchResult) ExamOverrideResponse {
	resp := ExamOverrideResponse{
		Succeeded: make([]ExamOverrideItem, len(result.Succeeded)),
		Failed:    make([]ExamOverrideFailure, len(result.Failed)),
	}
	for i, item := range result.Succeeded {
		clashes := item.ClashesWith
		if clashes == nil {
			clashes = []string{}
		}
		resp.Succeeded[i] = ExamOverrideItem{
			ResourceID:  item.ResourceID,
			Reservation: NewReservationResponse(item.Reservation),
			ClashesWith: clashes,
		}
	}
	for i, f := range result.Failed {
		resp.Failed[i] = ExamOverrideFailure{ResourceID: f.ResourceID, Error: failureMessage(f.Err)}
	}
	return resp
}
