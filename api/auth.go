package api

import (
	"errors"
	"log"
	"time"

	"budgetbuddy/authgate"
	"budgetbuddy/config"
	"budgetbuddy/database"
	"budgetbuddy/middleware"
	"budgetbuddy/models"
	"budgetbuddy/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
// 登录分两道门禁：Google 身份验证 + 邮箱白名单，通过后还需提交 PIN 才能换取完整会话
type AuthHandler struct {
	cfg          *config.Config
	gate         *authgate.Gate
	emailService *service.EmailService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, gate *authgate.Gate) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		gate:         gate,
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// googleRedirectURI 授权回调地址
func (h *AuthHandler) googleRedirectURI() string {
	return h.cfg.Server.BaseURL + "/api/v1/auth/google/callback"
}

// PinRequest PIN 验证请求
type PinRequest struct {
	Pin string `json:"pin" binding:"required,len=4,numeric" example:"1234"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	Token     string       `json:"token"`
	Scope     string       `json:"scope"`
	GateState string       `json:"gate_state"`
	User      *models.User `json:"user,omitempty"`
}

// GetGoogleConfig 获取 Google 登录配置
// @Summary 获取 Google 登录配置
// @Description 获取 Google 登录是否启用及授权页面 URL
// @Tags 认证
// @Accept json
// @Produce json
// @Success 200 {object} Response "获取成功"
// @Router /api/v1/auth/google/config [get]
func (h *AuthHandler) GetGoogleConfig(c *gin.Context) {
	if !h.cfg.Google.Enabled {
		Success(c, gin.H{"enabled": false})
		return
	}
	Success(c, gin.H{
		"enabled":  true,
		"auth_url": service.BuildGoogleAuthURL(h.cfg.Google.ClientID, h.googleRedirectURI(), ""),
	})
}

// GoogleCallback Google 授权回调
// @Summary Google 授权回调
// @Description 处理 Google 授权回调。换取用户信息后先过邮箱白名单：不通过返回 403 并触发告警邮件；通过则返回待验证 token，需继续提交 PIN。此前已完成过 PIN 验证且身份未变化的用户直接拿到完整 token。
// @Tags 认证
// @Accept json
// @Produce json
// @Param code query string true "授权码"
// @Success 200 {object} Response{data=TokenResponse} "登录成功或等待 PIN 验证"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "邮箱不在授权名单内"
// @Router /api/v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if !h.cfg.Google.Enabled {
		BadRequest(c, "Google 登录未启用")
		return
	}

	code := c.Query("code")
	if code == "" {
		BadRequest(c, "缺少授权码")
		return
	}

	tokenData, err := service.ExchangeGoogleToken(
		h.cfg.Google.ClientID, h.cfg.Google.ClientSecret, code, h.googleRedirectURI())
	if err != nil {
		BadRequest(c, SafeErrorMessage(err, "获取 Google 授权失败"))
		return
	}

	userInfo, err := service.GetGoogleUserInfo(tokenData.AccessToken)
	if err != nil {
		BadRequest(c, SafeErrorMessage(err, "获取 Google 用户信息失败"))
		return
	}

	user, err := h.upsertUser(userInfo)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "保存用户信息失败"))
		return
	}

	state, err := h.gate.SignIn(user.ID, user.Email)
	if err != nil {
		if errors.Is(err, authgate.ErrEmailNotAllowed) {
			h.notifyDenial(user.Email, err.Error())
			Forbidden(c, err.Error())
			return
		}
		InternalError(c, SafeErrorMessage(err, "登录失败"))
		return
	}

	// 此前已授权的用户免重复输 PIN
	if state == authgate.StateAuthorized {
		token, err := middleware.GenerateToken(user.ID, user.Email, middleware.ScopeFull, h.cfg.JWT.ExpireTime)
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "生成 token 失败"))
			return
		}
		SuccessWithMessage(c, "登录成功", TokenResponse{
			Token:     token,
			Scope:     middleware.ScopeFull,
			GateState: state.String(),
			User:      user,
		})
		return
	}

	// 白名单通过，签发短期的待验证 token，仅能用于提交 PIN
	token, err := middleware.GenerateToken(user.ID, user.Email, middleware.ScopePinPending, h.cfg.JWT.PendingExpireTime)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 token 失败"))
		return
	}
	SuccessWithMessage(c, "请输入 PIN 完成验证", TokenResponse{
		Token:     token,
		Scope:     middleware.ScopePinPending,
		GateState: state.String(),
		User:      user,
	})
}

// upsertUser 按 Google sub 查找或创建用户，并同步资料与最近登录时间
func (h *AuthHandler) upsertUser(info *service.GoogleUserInfo) (*models.User, error) {
	now := time.Now()

	var user models.User
	err := database.DB.Where("google_sub = ?", info.Sub).First(&user).Error
	if err != nil {
		user = models.User{
			GoogleSub:   info.Sub,
			Email:       info.Email,
			DisplayName: info.Name,
			AvatarURL:   info.Picture,
			LastLoginAt: &now,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}

	updates := map[string]interface{}{
		"email":         info.Email,
		"display_name":  info.Name,
		"avatar_url":    info.Picture,
		"last_login_at": now,
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	user.Email = info.Email
	user.DisplayName = info.Name
	user.AvatarURL = info.Picture
	user.LastLoginAt = &now
	return &user, nil
}

// notifyDenial 异步发送授权拒绝告警邮件
func (h *AuthHandler) notifyDenial(email, reason string) {
	if !h.cfg.Email.Enabled {
		return
	}
	go func() {
		if err := h.emailService.SendDenialAlert(email, reason); err != nil {
			log.Printf("发送授权拒绝告警失败: %v", err)
		}
	}()
}

// SubmitPin 提交 PIN 完成验证
// @Summary 提交 PIN 完成验证
// @Description 使用待验证 token 提交 4 位 PIN。正确则换取完整会话 token；错误则验证状态作废，需要重新走 Google 登录。
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PinRequest true "PIN"
// @Success 200 {object} Response{data=TokenResponse} "验证成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "PIN 错误或没有待验证的登录"
// @Router /api/v1/auth/pin [post]
func (h *AuthHandler) SubmitPin(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	email := middleware.GetCurrentEmail(c)

	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "PIN 必须为 4 位数字")
		return
	}

	state, err := h.gate.SubmitPIN(userID, req.Pin)
	if err != nil {
		if errors.Is(err, authgate.ErrPINMismatch) {
			h.notifyDenial(email, err.Error())
		}
		Unauthorized(c, err.Error())
		return
	}

	token, err := middleware.GenerateToken(userID, email, middleware.ScopeFull, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 token 失败"))
		return
	}

	SuccessWithMessage(c, "验证成功", TokenResponse{
		Token:     token,
		Scope:     middleware.ScopeFull,
		GateState: state.String(),
	})
}

// Logout 登出
// @Summary 登出
// @Description 登出并清除缓存的验证状态，下次登录需要重新输入 PIN
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "登出成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	h.gate.SignOut(userID)
	SuccessWithMessage(c, "登出成功", nil)
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Description 获取当前登录用户的资料和门禁状态
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	Success(c, gin.H{
		"user":       user,
		"gate_state": h.gate.State(userID).String(),
	})
}
