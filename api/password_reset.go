package api

import (
	"fmt"
	"time"

	"ledger/config"
	"ledger/database"
	"ledger/models"
	"ledger/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetHandler 密码重置处理器
type PasswordResetHandler struct {
	cfg          *config.Config
	emailService *service.EmailService
}

// NewPasswordResetHandler 创建密码重置处理器
func NewPasswordResetHandler(cfg *config.Config) *PasswordResetHandler {
	return &PasswordResetHandler{
		cfg:          cfg,
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// RequestResetRequest 请求密码重置
type RequestResetRequest struct {
	Email string `json:"email" binding:"required,email" example:"user@example.com"`
}

// RequestReset 请求密码重置
// @Summary 请求密码重置
// @Description 根据邮箱生成重置令牌并发送重置邮件。无论邮箱是否存在均返回成功，避免探测已注册邮箱。
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RequestResetRequest true "邮箱"
// @Success 200 {object} Response "若邮箱存在，重置邮件已发送"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/auth/password/request-reset [post]
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 邮箱不存在时同样返回成功
	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		SuccessWithMessage(c, "若邮箱已注册，重置邮件将发送至该邮箱", nil)
		return
	}

	token, err := models.GenerateToken()
	if err != nil {
		InternalError(c, "生成令牌失败")
		return
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	if err := database.DB.Create(&reset).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建重置记录失败"))
		return
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", h.cfg.Server.BaseURL, token)
	if err := h.emailService.SendPasswordResetEmail(user.Email, user.DisplayName(), resetLink); err != nil {
		InternalError(c, SafeErrorMessage(err, "发送重置邮件失败"))
		return
	}

	SuccessWithMessage(c, "若邮箱已注册，重置邮件将发送至该邮箱", nil)
}

// SendTestEmailRequest 测试邮件请求
type SendTestEmailRequest struct {
	Email string `json:"email" binding:"required,email" example:"admin@example.com"`
}

// SendTestEmail 发送测试邮件
// @Summary 发送测试邮件
// @Description 向指定邮箱发送一封测试邮件，用于验证 SMTP 配置（仅管理员）
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendTestEmailRequest true "收件邮箱"
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response "邮件服务未启用"
// @Failure 500 {object} Response "发送失败"
// @Router /api/v1/email/test [post]
func (h *PasswordResetHandler) SendTestEmail(c *gin.Context) {
	var req SendTestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !h.cfg.Email.Enabled {
		BadRequest(c, "邮件服务未启用，请在配置中开启 email.enabled")
		return
	}

	if err := h.emailService.SendTestEmail(req.Email); err != nil {
		InternalError(c, SafeErrorMessage(err, "发送测试邮件失败"))
		return
	}

	SuccessWithMessage(c, "测试邮件已发送", nil)
}

// VerifyToken 校验重置令牌
// @Summary 校验重置令牌
// @Description 校验令牌是否有效（存在、未使用、未过期）
// @Tags 认证
// @Accept json
// @Produce json
// @Param token query string true "重置令牌"
// @Success 200 {object} Response "令牌有效"
// @Failure 400 {object} Response "令牌无效或已过期"
// @Router /api/v1/auth/password/verify-token [get]
func (h *PasswordResetHandler) VerifyToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		BadRequest(c, "token 参数必填")
		return
	}

	var reset models.PasswordReset
	if err := database.DB.Where("token = ?", token).First(&reset).Error; err != nil {
		BadRequest(c, "令牌无效")
		return
	}

	if !reset.IsValid() {
		BadRequest(c, "令牌已使用或已过期")
		return
	}

	Success(c, gin.H{"email": reset.Email})
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required" example:"a1b2c3..."`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50" example:"newpassword123"`
}

// ResetPassword 使用令牌重置密码
// @Summary 使用令牌重置密码
// @Description 校验令牌并设置新密码，令牌一次性使用
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "令牌与新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "令牌无效或已过期"
// @Router /api/v1/auth/password/reset [post]
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var reset models.PasswordReset
	if err := database.DB.Where("token = ?", req.Token).First(&reset).Error; err != nil {
		BadRequest(c, "令牌无效")
		return
	}

	if !reset.IsValid() {
		BadRequest(c, "令牌已使用或已过期")
		return
	}

	var user models.User
	if err := database.DB.First(&user, reset.UserID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	if err := database.DB.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新密码失败"))
		return
	}

	// 标记令牌已使用
	if err := database.DB.Model(&reset).Update("used", true).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新令牌状态失败"))
		return
	}

	SuccessWithMessage(c, "密码重置成功", nil)
}
