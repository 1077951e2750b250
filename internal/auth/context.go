package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// GetUserRole returns the role carried by the access token, or "" when unauthenticated.
func GetUserRole(c *gin.Context) Role {
	if v, ok := c.Get(ctxUserRole); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}
	return ""
}

// SetUserRole overrides the role for the rest of the request, used after
// the role has been re-read from storage.
func SetUserRole(c *gin.Context, r Role) {
	c.Set(ctxUserRole, r)
}
