package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/campus-scheduler/internal/auth"
	"github.com/nekogravitycat/campus-scheduler/internal/user"
)

// currentUser loads the authenticated user from the store, aborting the
// request when the user is missing or the lookup fails.
func currentUser(c *gin.Context, userService user.Service) (*user.User, bool) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	u, err := userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	return u, true
}

// RefreshRole replaces the role carried by the token with the one currently
// stored, so handlers that branch on the role see a demotion at once.
// Inactive users are refused.
// It MUST be used after auth.AuthRequired middleware.
func RefreshRole(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c, userService)
		if !ok {
			return
		}
		if !u.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user is inactive"})
			return
		}

		auth.SetUserRole(c, u.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated user
// currently holds one of roles. The role is re-read from the user store so a
// demotion takes effect before the token expires.
// It MUST be used after auth.AuthRequired middleware.
func RequireRole(userService user.Service, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c, userService)
		if !ok {
			return
		}

		if !u.IsActive || !slices.Contains(roles, u.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		auth.SetUserRole(c, u.Role)
		c.Next()
	}
}
