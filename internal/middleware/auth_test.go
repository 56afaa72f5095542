package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patient-companion/internal/apiclient"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims Claims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(userID, role string) Claims {
	return Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "patient-companion",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newAuthEngine(auth *AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{auth.Authenticate()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":  c.GetString(ContextUserID),
			"role":  c.GetString(ContextRole),
			"token": apiclient.TokenFrom(c.Request.Context()),
		})
	})
	r.GET("/me", handlers...)
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateStoresCallerAndForwardsToken(t *testing.T) {
	auth := NewAuthMiddleware(testSecret, "patient-companion")
	token := signToken(t, validClaims("u-1", RolePatient), jwt.SigningMethodHS256, []byte(testSecret))

	w := get(newAuthEngine(auth), "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"u-1"`)
	assert.Contains(t, w.Body.String(), `"role":"patient"`)
	assert.Contains(t, w.Body.String(), token)
}

func TestAuthenticateRejects(t *testing.T) {
	auth := NewAuthMiddleware(testSecret, "patient-companion")
	expired := validClaims("u-1", RolePatient)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := validClaims("u-1", RolePatient)
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"bad signature", "Bearer " + signToken(t, validClaims("u-1", RolePatient), jwt.SigningMethodHS256, []byte("other"))},
		{"expired", "Bearer " + signToken(t, expired, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong issuer", "Bearer " + signToken(t, wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret))},
		{"no subject", "Bearer " + signToken(t, validClaims("", RolePatient), jwt.SigningMethodHS256, []byte(testSecret))},
	}

	r := newAuthEngine(auth)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"kind":"unauthorized"`)
		})
	}
}

func TestParseTokenFallsBackToSubject(t *testing.T) {
	auth := NewAuthMiddleware(testSecret, "")
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-9"}}
	parsed, err := auth.ParseToken(signToken(t, claims, jwt.SigningMethodHS256, []byte(testSecret)))
	require.NoError(t, err)
	assert.Equal(t, "u-9", parsed.UserID)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	auth := NewAuthMiddleware(testSecret, "")
	token := signToken(t, validClaims("u-1", RoleAdmin), jwt.SigningMethodHS512, []byte(testSecret))
	_, err := auth.ParseToken(token)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthMiddleware(testSecret, "patient-companion")
	r := newAuthEngine(auth, auth.RequireRole(RoleDoctor, RoleAdmin))

	doctor := signToken(t, validClaims("d-1", RoleDoctor), jwt.SigningMethodHS256, []byte(testSecret))
	patient := signToken(t, validClaims("p-1", RolePatient), jwt.SigningMethodHS256, []byte(testSecret))

	assert.Equal(t, http.StatusOK, get(r, "/me", doctor).Code)
	w := get(r, "/me", patient)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient role")
}
