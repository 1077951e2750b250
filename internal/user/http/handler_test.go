package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/campus-scheduler/internal/auth"
	"github.com/nekogravitycat/campus-scheduler/internal/pkg/validation"
	"github.com/nekogravitycat/campus-scheduler/internal/user"
)

func executeRequest(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validation.MustRegister()

	svc := user.NewService(user.NewMemoryRepository(), auth.NewBcryptPasswordHasher(bcrypt.MinCost))
	jwtManager := auth.NewJWTManager("test-secret", 30*time.Minute)
	adminOnly := func(c *gin.Context) {
		if auth.GetUserRole(c) != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, jwtManager), auth.AuthRequired(jwtManager), adminOnly)

	var accessToken string
	var userID string

	t.Run("Register User", func(t *testing.T) {
		w := executeRequest(r, "POST", "/v1/auth/register", RegisterRequest{
			Email: "test@example.com", Password: "password123", DisplayName: "Tester",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code, "Register should succeed")

		var resp MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "student", resp.User.Role)
		userID = resp.User.ID
	})

	t.Run("Duplicate Register", func(t *testing.T) {
		w := executeRequest(r, "POST", "/v1/auth/register", RegisterRequest{
			Email: "test@example.com", Password: "password123",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code, "Duplicate email should return 409")
	})

	t.Run("Invalid Email", func(t *testing.T) {
		w := executeRequest(r, "POST", "/v1/auth/register", RegisterRequest{
			Email: "not-an-email", Password: "password123",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Login", func(t *testing.T) {
		w := executeRequest(r, "POST", "/v1/auth/login", LoginRequest{Email: "test@example.com", Password: "password123"}, "")
		require.Equal(t, http.StatusOK, w.Code, "Login should succeed")

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotNil(t, resp.User.LastLoginAt)

		claims, err := jwtManager.ParseAndValidate(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStudent, claims.Role)
		accessToken = resp.AccessToken
	})

	t.Run("Get Current User", func(t *testing.T) {
		w := executeRequest(r, "GET", "/v1/me", nil, accessToken)
		require.Equal(t, http.StatusOK, w.Code)

		var resp MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, userID, resp.User.ID)
	})

	t.Run("Login with Wrong Password", func(t *testing.T) {
		w := executeRequest(r, "POST", "/v1/auth/login", LoginRequest{Email: "test@example.com", Password: "wrongpassword"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Students cannot list users", func(t *testing.T) {
		w := executeRequest(r, "GET", "/v1/users", nil, accessToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin promotes the user", func(t *testing.T) {
		adminToken, err := jwtManager.GenerateAccessToken("admin-id", "admin@example.com", auth.RoleAdmin)
		require.NoError(t, err)

		role := "lecturer"
		w := executeRequest(r, "PATCH", "/v1/users/"+userID, UpdateUserRequest{Role: &role}, adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		bad := "root"
		w = executeRequest(r, "PATCH", "/v1/users/"+userID, UpdateUserRequest{Role: &bad}, adminToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = executeRequest(r, "GET", "/v1/users?role=lecturer", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		var page struct {
			Items []UserResponse `json:"items"`
			Total int            `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, userID, page.Items[0].ID)
	})
}
