package api

import (
	"errors"
	"fmt"

	"ledger/config"
	"ledger/database"
	"ledger/middleware"
	"ledger/models"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// BackupHandler 云备份处理器（仅管理员）
type BackupHandler struct {
	backup *service.BackupService
}

// NewBackupHandler 创建云备份处理器
func NewBackupHandler() *BackupHandler {
	return &BackupHandler{
		backup: service.NewBackupService(&config.GlobalConfig.Backup),
	}
}

// mapBackupError 将备份服务错误映射为 HTTP 响应
func (h *BackupHandler) mapBackupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBackupDisabled):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidBackupName):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrBackupNotFound):
		NotFound(c, err.Error())
	default:
		InternalError(c, SafeErrorMessage(err, "备份操作失败"))
	}
}

// Create 创建备份
// @Summary 创建云备份
// @Description 将供应商、流水和用户数据打包为 JSON 快照上传到云端存储
// @Tags 云备份
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.BackupInfo} "备份成功"
// @Failure 400 {object} Response "备份未启用"
// @Failure 500 {object} Response "备份失败"
// @Router /api/v1/backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	var creator *service.BackupCreator
	if userID := middleware.GetCurrentUserID(c); userID > 0 {
		var user models.User
		if err := database.DB.First(&user, userID).Error; err == nil {
			creator = &service.BackupCreator{
				ID:    user.ID,
				Name:  user.DisplayName(),
				Email: user.Email,
			}
		}
	}

	info, err := h.backup.Create(c.Request.Context(), creator)
	if err != nil {
		h.mapBackupError(c, err)
		return
	}
	SuccessWithMessage(c, "备份创建成功", info)
}

// List 获取备份列表
// @Summary 获取备份列表
// @Description 列出云端已有的备份文件，按创建时间倒序
// @Tags 云备份
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.BackupInfo} "获取成功"
// @Failure 400 {object} Response "备份未启用"
// @Router /api/v1/backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backup.List(c.Request.Context())
	if err != nil {
		h.mapBackupError(c, err)
		return
	}
	if backups == nil {
		backups = []service.BackupInfo{}
	}
	Success(c, backups)
}

// Download 下载备份
// @Summary 下载备份
// @Description 下载指定备份文件的 JSON 内容
// @Tags 云备份
// @Produce json
// @Security BearerAuth
// @Param name query string true "备份文件名"
// @Success 200 {file} binary "备份内容"
// @Failure 404 {object} Response "备份不存在"
// @Router /api/v1/backups/download [get]
func (h *BackupHandler) Download(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		BadRequest(c, "请指定备份文件名")
		return
	}

	data, err := h.backup.Download(c.Request.Context(), name)
	if err != nil {
		h.mapBackupError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(200, "application/json", data)
}

// Delete 删除备份
// @Summary 删除备份
// @Description 删除指定的云端备份文件
// @Tags 云备份
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name query string true "备份文件名"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "备份不存在"
// @Router /api/v1/backups [delete]
func (h *BackupHandler) Delete(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		BadRequest(c, "请指定备份文件名")
		return
	}

	if err := h.backup.Delete(c.Request.Context(), name); err != nil {
		h.mapBackupError(c, err)
		return
	}
	SuccessWithMessage(c, "备份删除成功", nil)
}

// Status 检查备份服务状态
// @Summary 检查备份服务状态
// @Description 检查云端存储桶是否可访问
// @Tags 云备份
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "服务正常"
// @Failure 500 {object} Response "服务不可用"
// @Router /api/v1/backups/status [get]
func (h *BackupHandler) Status(c *gin.Context) {
	if err := h.backup.Status(c.Request.Context()); err != nil {
		h.mapBackupError(c, err)
		return
	}
	SuccessWithMessage(c, "备份服务正常", gin.H{
		"enabled": true,
		"bucket":  config.GlobalConfig.Backup.Bucket,
	})
}
