package api

import (
	"strconv"

	"ledger/database"
	"ledger/middleware"
	"ledger/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler 用户管理处理器（仅管理员）
type UserHandler struct{}

// NewUserHandler 创建用户管理处理器
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// UserListResponse 用户列表响应
type UserListResponse struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// List 获取用户列表
// @Summary 获取用户列表
// @Description 分页获取全部用户（密码字段不返回）
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} Response{data=UserListResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var total int64
	database.DB.Model(&models.User{}).Count(&total)

	var users []models.User
	offset := (page - 1) * limit
	if err := database.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	Success(c, UserListResponse{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

// UpdateRoleRequest 更新角色请求
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required" example:"editor"`
}

// UpdateRole 更新用户角色
// @Summary 更新用户角色
// @Description 管理员修改指定用户的角色（admin/editor/viewer）。不允许管理员降低自己的角色，避免系统失去最后一个管理员。
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body UpdateRoleRequest true "角色信息"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足或不能降低自己的角色"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !models.IsValidRole(req.Role) {
		BadRequest(c, "角色只支持 admin、editor、viewer")
		return
	}

	// 不允许降低自己的角色
	currentUserID := middleware.GetCurrentUserID(c)
	if currentUserID == uint(id) && req.Role != models.RoleAdmin {
		Forbidden(c, "不能降低自己的角色")
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	if err := database.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新角色失败"))
		return
	}

	database.DB.First(&user, user.ID)
	SuccessWithMessage(c, "角色更新成功", user)
}

// AdminResetPasswordRequest 管理员重置密码请求
type AdminResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=50" example:"newpassword123"`
}

// ResetPassword 管理员重置用户密码
// @Summary 管理员重置用户密码
// @Description 管理员为指定用户设置新密码
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body AdminResetPasswordRequest true "新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/users/{id}/password [put]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req AdminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	if err := database.DB.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "重置密码失败"))
		return
	}

	SuccessWithMessage(c, "密码重置成功", nil)
}
