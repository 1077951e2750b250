package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName     = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidType   = apperror.New(http.StatusBadRequest, "type must be one of lab, equipment, room")
	ErrDuplicateName = apperror.New(http.StatusConflict, "a resource with this name already exists")
	ErrInUse         = apperror.New(http.StatusConflict, "resource still has reservations")
)

// Type classifies a bookable resource.
type Type string

const (
	TypeLab       Type = "lab"
	TypeEquipment Type = "equipment"
	TypeRoom      Type = "room"
)

// ValidTypes lists every accepted Type. Extend it together with the resources_type_check constraint.
var ValidTypes = []Type{TypeLab, TypeEquipment, TypeRoom}

// Valid reports whether t is one of ValidTypes.
func (t Type) Valid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Resource represents a bookable facility (Lab 2, Room B101, the 3D printer).
type Resource struct {
	ID        string
	Name      string
	Type      Type
	Location  string
	CreatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Type      Type
	Keyword   string // Matches Name or Location, case-insensitive
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
