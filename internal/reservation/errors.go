package reservation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/apperror"
)

var (
	ErrInvalidRange        = apperror.New(http.StatusBadRequest, "end time must be after start time and within the allowed span")
	ErrUnknownResource     = apperror.New(http.StatusNotFound, "resource not found")
	ErrConflict            = apperror.New(http.StatusConflict, "time slot already booked")
	ErrPartialBatchFailure = apperror.New(http.StatusMultiStatus, "exam override was not written for every resource")
	ErrNotFound            = apperror.New(http.StatusNotFound, "reservation not found")
	ErrInvalidTransition   = apperror.New(http.StatusConflict, "reservation cannot move to the requested status")
	ErrInvalidKind         = apperror.New(http.StatusBadRequest, "kind must be one of booking, maintenance, exam")
	ErrReasonRequired      = apperror.New(http.StatusBadRequest, "a rejection reason is required")
	ErrRequesterRequired   = apperror.New(http.StatusBadRequest, "bookings need a requester")
	ErrNoTargets           = apperror.New(http.StatusBadRequest, "no resources to schedule")
)

// ConflictError rejects a booking and names the reservations it overlaps.
type ConflictError struct {
	ReservationIDs []string
}

func (e *ConflictError) Error() string {
	if len(e.ReservationIDs) == 0 {
		return ErrConflict.Message
	}
	return fmt.Sprintf("%s: clashes with %s", ErrConflict.Message, strings.Join(e.ReservationIDs, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func (e *ConflictError) ErrorDetails() any {
	return map[string]any{"reservation_ids": e.ReservationIDs}
}

// BatchError is returned by ScheduleExamOverride when at least one target
// resource did not receive its reservation. Result lists both outcomes.
type BatchError struct {
	Result *BatchResult
}

func (e *BatchError) Error() string {
	failed := make([]string, len(e.Result.Failed))
	for i, f := range e.Result.Failed {
		failed[i] = f.ResourceID
	}
	return fmt.Sprintf("%s: %d succeeded, failed for %s",
		ErrPartialBatchFailure.Message, len(e.Result.Succeeded), strings.Join(failed, ", "))
}

func (e *BatchError) Unwrap() error {
	return ErrPartialBatchFailure
}

func (e *BatchError) ErrorDetails() any {
	succeeded := make([]string, len(e.Result.Succeeded))
	for i, s := range e.Result.Succeeded {
		succeeded[i] = s.ResourceID
	}
	failed := make([]map[string]string, len(e.Result.Failed))
	for i, f := range e.Result.Failed {
		failed[i] = map[string]string{"resource_id": f.ResourceID, "error": f.Err.Error()}
	}
	return map[string]any{"succeeded": succeeded, "failed": failed}
}
