package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"community-match-service/internal/config"
	"community-match-service/internal/middleware"
	"community-match-service/internal/testutil"
	"community-match-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	auth   *middleware.Authenticator
}

func newTestServer(t *testing.T, withRedis bool) *testServer {
	t.Helper()
	cfg := config.Load()
	cfg.JWTSecret = "test-secret"

	db := testutil.NewDB(t)
	testutil.SeedProfiles(t, db, 1, 2, 3)
	log, _ := testutil.NewLogger()
	hub := websocket.NewHub(cfg.AllowedOrigins, log)

	deps := buildServices(cfg, db, nil, hub, log)
	if withRedis {
		client, _ := testutil.NewRedis(t)
		deps = buildServices(cfg, db, client, hub, log)
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecret)
	return &testServer{router: setupRoutes(cfg, db, auth, deps, hub, log), auth: auth}
}

func (s *testServer) do(t *testing.T, userID uint, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := s.auth.Token(userID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	w, body := s.do(t, 0, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRequiresIdentity(t *testing.T) {
	s := newTestServer(t, false)
	w, body := s.do(t, 0, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 2})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestMatchAndMessageFlow(t *testing.T) {
	s := newTestServer(t, true)

	w, body := s.do(t, 1, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["created"])
	assert.Equal(t, false, body["matched"])

	w, body = s.do(t, 1, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["created"])

	w, body = s.do(t, 2, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["matched"])
	match := body["match"].(map[string]interface{})
	matchID := uint(match["id"].(float64))

	w, body = s.do(t, 1, http.MethodGet, "/api/v1/matches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	matches := body["matches"].([]interface{})
	require.Len(t, matches, 1)
	assert.EqualValues(t, 2, matches[0].(map[string]interface{})["other_user_id"])

	w, body = s.do(t, 1, http.MethodGet, fmt.Sprintf("/api/v1/matches/%d/conversation", matchID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	convID := uint(body["id"].(float64))

	w, _ = s.do(t, 3, http.MethodGet, fmt.Sprintf("/api/v1/matches/%d/conversation", matchID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	msgPath := fmt.Sprintf("/api/v1/conversations/%d/messages", convID)
	w, body = s.do(t, 1, http.MethodPost, msgPath, gin.H{"body": "hola"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, body["sequence"])

	w, body = s.do(t, 2, http.MethodPost, msgPath, gin.H{"body": "hey"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 2, body["sequence"])

	w, body = s.do(t, 1, http.MethodPost, msgPath, gin.H{"body": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	w, body = s.do(t, 2, http.MethodGet, msgPath+"?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body["messages"], 1)
	assert.EqualValues(t, 1, body["next_cursor"])

	w, body = s.do(t, 2, http.MethodGet, msgPath+"?cursor=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "hey", msgs[0].(map[string]interface{})["body"])
	assert.Nil(t, body["next_cursor"])

	w, _ = s.do(t, 2, http.MethodGet, "/api/v1/conversations/999/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = s.do(t, 1, http.MethodDelete, "/api/v1/likes/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["removed"])

	w, body = s.do(t, 1, http.MethodGet, "/api/v1/matches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["matches"], 1)
}

func TestBlockAndReportFlow(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(t, 1, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := s.do(t, 1, http.MethodPost, "/api/v1/blocks", gin.H{"blocked_id": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["created"])

	w, body = s.do(t, 2, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	w, body = s.do(t, 1, http.MethodGet, "/api/v1/blocks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["blocks"], 1)

	w, body = s.do(t, 1, http.MethodDelete, "/api/v1/blocks/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["removed"])

	w, body = s.do(t, 2, http.MethodPost, "/api/v1/likes", gin.H{"target_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["matched"])

	w, _ = s.do(t, 1, http.MethodPost, "/api/v1/reports", gin.H{"target_id": 3, "reason": "spam", "details": "links"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, body = s.do(t, 1, http.MethodPost, "/api/v1/reports", gin.H{"target_id": 1, "reason": "spam"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	w, _ = s.do(t, 1, http.MethodPost, "/api/v1/blocks", gin.H{"blocked_id": 404})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViewCounting(t *testing.T) {
	for _, withRedis := range []bool{false, true} {
		t.Run(fmt.Sprintf("redis=%v", withRedis), func(t *testing.T) {
			s := newTestServer(t, withRedis)

			for i := 1; i <= 2; i++ {
				w, body := s.do(t, 1, http.MethodPost, "/api/v1/posts/10/view", nil)
				require.Equal(t, http.StatusOK, w.Code)
				assert.EqualValues(t, i, body["views_count"])
			}

			w, body := s.do(t, 2, http.MethodGet, "/api/v1/posts/10/views", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.EqualValues(t, 2, body["views_count"])

			w, _ = s.do(t, 2, http.MethodPost, "/api/v1/posts/abc/view", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
