package http

import (
	"time"

	resourceHttp "github.com/nekogravitycat/campus-scheduler/internal/resource/http"
	"github.com/nekogravitycat/campus-scheduler/internal/timeline"
)

type DayRequest struct {
	Date           time.Time `form:"date" binding:"required" time_format:"2006-01-02" time_utc:"1"`
	ResourceID     string    `form:"resource_id" binding:"omitempty,uuid"`
	Type           string    `form:"type" binding:"omitempty,resource_type"`
	StartHour      *int      `form:"start_hour" binding:"omitempty,min=0,max=23"`
	EndHour        *int      `form:"end_hour" binding:"omitempty,min=1,max=24"`
	UnitsPerMinute *float64  `form:"units_per_minute" binding:"omitempty,gt=0,lte=60"`
}

type PlacementResponse struct {
	ReservationID string    `json:"reservation_id"`
	UserID        *string   `json:"user_id"`
	Status        string    `json:"status"`
	Kind          string    `json:"kind"`
	Purpose       string    `json:"purpose,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	ClippedHead   bool      `json:"clipped_head"`
	ClippedTail   bool      `json:"clipped_tail"`
	Offset        float64   `json:"offset"`
	Length        float64   `json:"length"`
	StackIndex    int       `json:"stack_index"`
	Top           float64   `json:"top"`
	IsClash       bool      `json:"is_clash"`
	RenderClass   string    `json:"render_class"`
	Priority      int       `json:"priority"`
}

func NewPlacementResponse(p timeline.Placement) PlacementResponse {
	r := p.Reservation
	return PlacementResponse{
		ReservationID: r.ID,
		UserID:        r.UserID,
		Status:        string(r.Status),
		Kind:          string(r.Kind),
		Purpose:       r.Purpose,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		ClippedHead:   p.ClippedHead,
		ClippedTail:   p.ClippedTail,
		Offset:        p.Offset,
		Length:        p.Length,
		StackIndex:    p.StackIndex,
		Top:           p.Top,
		IsClash:       p.IsClash,
		RenderClass:   string(p.RenderClass),
		Priority:      int(p.Priority),
	}
}

type RowResponse struct {
	Resource   resourceHttp.ResourceTag `json:"resource"`
	Depth      int                      `json:"depth"`
	Height     float64                  `json:"height"`
	Placements []PlacementResponse      `json:"placements"`
}

type TickResponse struct {
	Label  string  `json:"label"`
	Offset float64 `json:"offset"`
}

type DayResponse struct {
	Date           string         `json:"date"`
	WindowStart    time.Time      `json:"window_start"`
	WindowEnd      time.Time      `json:"window_end"`
	UnitsPerMinute float64        `json:"units_per_minute"`
	StackStep      float64        `json:"stack_step"`
	Width          float64        `json:"width"`
	Ticks          []TickResponse `json:"ticks"`
	Rows           []RowResponse  `json:"rows"`
}

func NewDayResponse(v *timeline.DayView) DayResponse {
	resp := DayResponse{
		Date:           v.Date.Format("2006-01-02"),
		WindowStart:    v.Window.Start,
		WindowEnd:      v.Window.End,
		UnitsPerMinute: v.Options.UnitsPerMinute,
		StackStep:      v.Options.StackStep,
		Width:          v.Window.Duration().Minutes() * v.Options.UnitsPerMinute,
		Ticks:          make([]TickResponse, len(v.Ticks)),
		Rows:           make([]RowResponse, len(v.Rows)),
	}
	for i, t := range v.Ticks {
		resp.Ticks[i] = TickResponse{Label: t.Label, Offset: t.Offset}
	}
	for i, row := range v.Rows {
		placements := make([]PlacementResponse, len(row.Layout.Placements))
		for j, p := range row.Layout.Placements {
			placements[j] = NewPlacementResponse(p)
		}
		resp.Rows[i] = RowResponse{
			Resource:   resourceHttp.NewResourceTag(row.Resource),
			Depth:      row.Layout.Depth,
			Height:     row.Height,
			Placements: placements,
		}
	}
	return resp
}
