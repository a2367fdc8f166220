package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"budgetbuddy/authgate"
	"budgetbuddy/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate() *authgate.Gate {
	return authgate.New(authgate.Policy{
		PIN:           "1234",
		AllowedEmails: []string{"me@example.com"},
	})
}

func TestAuthHandler_GetGoogleConfig_Disabled(t *testing.T) {
	cfg := setupTestConfig(t)
	cfg.Google.Enabled = false

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, newTestGate())
	router.GET("/auth/google/config", h.GetGoogleConfig)

	req := httptest.NewRequest("GET", "/auth/google/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp.Data["enabled"])
	assert.NotContains(t, resp.Data, "auth_url")
}

func TestAuthHandler_GetGoogleConfig_Enabled(t *testing.T) {
	cfg := setupTestConfig(t)
	cfg.Google.Enabled = true
	cfg.Google.ClientID = "client-id"
	cfg.Server.BaseURL = "https://budget.example.com"

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, newTestGate())
	router.GET("/auth/google/config", h.GetGoogleConfig)

	req := httptest.NewRequest("GET", "/auth/google/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp.Data["enabled"])
	authURL, _ := resp.Data["auth_url"].(string)
	assert.Contains(t, authURL, "accounts.google.com")
	assert.Contains(t, authURL, "client-id")
	assert.Contains(t, authURL, "budget.example.com")
}

func TestAuthHandler_GoogleCallback_Disabled(t *testing.T) {
	cfg := setupTestConfig(t)
	cfg.Google.Enabled = false

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, newTestGate())
	router.GET("/auth/google/callback", h.GoogleCallback)

	req := httptest.NewRequest("GET", "/auth/google/callback?code=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestAuthHandler_GoogleCallback_MissingCode(t *testing.T) {
	cfg := setupTestConfig(t)
	cfg.Google.Enabled = true

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, newTestGate())
	router.GET("/auth/google/callback", h.GoogleCallback)

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "缺少授权码", resp["message"])
}

func TestAuthHandler_SubmitPin_Success(t *testing.T) {
	cfg := setupTestConfig(t)
	gate := newTestGate()

	// 模拟 Google 登录已通过白名单，等待 PIN
	state, err := gate.SignIn(1, "me@example.com")
	require.NoError(t, err)
	require.Equal(t, authgate.StatePinPending, state)

	pendingToken, err := middleware.GenerateToken(1, "me@example.com", middleware.ScopePinPending, cfg.JWT.PendingExpireTime)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.POST("/auth/pin", middleware.PinAuth(), h.SubmitPin)

	req := httptest.NewRequest("POST", "/auth/pin", bytes.NewBufferString(`{"pin":"1234"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pendingToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, middleware.ScopeFull, resp.Data.Scope)
	assert.Equal(t, "authorized", resp.Data.GateState)
	assert.True(t, gate.IsAuthorized(1))

	// 返回的完整 token 可通过完整会话校验
	claims, err := middleware.ParseToken(resp.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, middleware.ScopeFull, claims.Scope)
}

func TestAuthHandler_SubmitPin_Wrong(t *testing.T) {
	cfg := setupTestConfig(t)
	gate := newTestGate()

	_, err := gate.SignIn(1, "me@example.com")
	require.NoError(t, err)

	pendingToken, err := middleware.GenerateToken(1, "me@example.com", middleware.ScopePinPending, cfg.JWT.PendingExpireTime)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.POST("/auth/pin", middleware.PinAuth(), h.SubmitPin)

	req := httptest.NewRequest("POST", "/auth/pin", bytes.NewBufferString(`{"pin":"9999"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pendingToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
	// PIN 错误后验证状态作废，需要重新走 Google 登录
	assert.Equal(t, authgate.StateUnauthenticated, gate.State(1))
}

func TestAuthHandler_SubmitPin_BadFormat(t *testing.T) {
	cfg := setupTestConfig(t)
	gate := newTestGate()

	pendingToken, err := middleware.GenerateToken(1, "me@example.com", middleware.ScopePinPending, cfg.JWT.PendingExpireTime)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.POST("/auth/pin", middleware.PinAuth(), h.SubmitPin)

	for _, pin := range []string{"12", "12345", "abcd", ""} {
		req := httptest.NewRequest("POST", "/auth/pin", bytes.NewBufferString(`{"pin":"`+pin+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+pendingToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, "pin=%q", pin)
	}
}

func TestAuthHandler_SubmitPin_NoPendingSignIn(t *testing.T) {
	cfg := setupTestConfig(t)
	gate := newTestGate()

	pendingToken, err := middleware.GenerateToken(1, "me@example.com", middleware.ScopePinPending, cfg.JWT.PendingExpireTime)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.POST("/auth/pin", middleware.PinAuth(), h.SubmitPin)

	req := httptest.NewRequest("POST", "/auth/pin", bytes.NewBufferString(`{"pin":"1234"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pendingToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAuthHandler_SubmitPin_FullTokenRejected(t *testing.T) {
	cfg := setupTestConfig(t)
	gate := newTestGate()

	fullToken, err := middleware.GenerateToken(1, "me@example.com", middleware.ScopeFull, cfg.JWT.ExpireTime)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.POST("/auth/pin", middleware.PinAuth(), h.SubmitPin)

	// 完整 token 不能用于 PIN 提交接口
	req := httptest.NewRequest("POST", "/auth/pin", bytes.NewBufferString(`{"pin":"1234"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+fullToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	cfg := setupTestConfig(t)
	gate := newTestGate()

	_, err := gate.SignIn(1, "me@example.com")
	require.NoError(t, err)
	_, err = gate.SubmitPIN(1, "1234")
	require.NoError(t, err)
	require.True(t, gate.IsAuthorized(1))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.POST("/auth/logout", asUser(1, "me@example.com"), h.Logout)

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	// 登出后下次登录需要重新输入 PIN
	assert.Equal(t, authgate.StateUnauthenticated, gate.State(1))
}

func TestAuthHandler_GetProfile(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupTestConfig(t)
	gate := newTestGate()

	_, err := gate.SignIn(1, "me@example.com")
	require.NoError(t, err)
	_, err = gate.SubmitPIN(1, "1234")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "google_sub", "email", "display_name", "avatar_url", "last_login_at", "created_at", "updated_at", "deleted_at"}).
		AddRow(1, "sub-1", "me@example.com", "Me", "", time.Now(), time.Now(), time.Now(), nil)
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(rows)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg, gate)
	router.GET("/auth/profile", asUser(1, "me@example.com"), h.GetProfile)

	req := httptest.NewRequest("GET", "/auth/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
			GateState string `json:"gate_state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "me@example.com", resp.Data.User.Email)
	assert.Equal(t, "authorized", resp.Data.GateState)
	require.NoError(t, mock.ExpectationsWereMet())
}
