// Package validation registers the custom binding tags used by the HTTP DTOs
// on gin's validator engine.
package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nekogravitycat/campus-scheduler/internal/auth"
	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
)

var (
	once    sync.Once
	initErr error
)

// Register installs the custom tags. It is safe to call more than once.
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			initErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		initErr = registerOn(v)
	})
	return initErr
}

// MustRegister is Register for router setup and tests.
func MustRegister() {
	if err := Register(); err != nil {
		panic(err)
	}
}

func registerOn(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"resource_type":    validateResourceType,
		"reservation_kind": validateReservationKind,
		"user_role":        validateUserRole,
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}

func validateResourceType(fl validator.FieldLevel) bool {
	return resource.Type(fl.Field().String()).Valid()
}

func validateReservationKind(fl validator.FieldLevel) bool {
	return reservation.Kind(fl.Field().String()).Valid()
}

func validateUserRole(fl validator.FieldLevel) bool {
	return auth.Role(fl.Field().String()).Valid()
}
