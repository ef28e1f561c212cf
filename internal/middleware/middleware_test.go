package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"community-match-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth *Authenticator) *gin.Engine {
	r := gin.New()
	r.GET("/me", auth.Required(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequiredAcceptsValidToken(t *testing.T) {
	auth := NewAuthenticator("secret")
	token, err := auth.Token(42, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newRouter(auth).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(42), decode(t, w)["user_id"])
}

func TestRequiredAcceptsSubjectClaim(t *testing.T) {
	auth := NewAuthenticator("secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	id, err := auth.Identify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestIdentifyRejectsMalformedIDs(t *testing.T) {
	auth := NewAuthenticator("secret")
	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return token
	}

	cases := map[string]jwt.MapClaims{
		"fractional":    {"user_id": 1.5},
		"zero":          {"user_id": 0},
		"negative":      {"user_id": -3},
		"too large":     {"user_id": 1e12},
		"string":        {"user_id": "12"},
		"bad subject":   {"sub": "12abc"},
		"large subject": {"sub": "99999999999"},
		"no id":         {"name": "x"},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Identify(sign(claims))
			assert.Error(t, err)
		})
	}

	id, err := auth.Identify(sign(jwt.MapClaims{"user_id": 4294967295}))
	require.NoError(t, err)
	assert.Equal(t, uint(4294967295), id)
}

func TestRequiredRejects(t *testing.T) {
	auth := NewAuthenticator("secret")
	foreign, err := NewAuthenticator("other").Token(1, nil)
	require.NoError(t, err)
	expired, err := auth.Token(1, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Token abc",
		"bad signature":  "Bearer " + foreign,
		"expired":        "Bearer " + expired,
		"garbage":        "Bearer abc.def.ghi",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			newRouter(auth).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
		})
	}
}

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{models.NewValidationError("body must not be empty"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{models.NewForbiddenError("blocked"), http.StatusForbidden, "FORBIDDEN"},
		{models.NewNotFoundError("Conversation", 9), http.StatusNotFound, "NOT_FOUND"},
		{models.NewUnauthorizedError("no"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondError(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		body := decode(t, w)
		assert.Equal(t, tc.code, body["code"])
		assert.NotContains(t, body["error"], "boom")
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "abc-123", entry.Data["request_id"])
	assert.Equal(t, "/ping", entry.Data["route"])
}
