package api

import (
	"errors"
	"strconv"
	"strings"

	"ledger/database"
	"ledger/models"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// SupplierHandler 供应商处理器
type SupplierHandler struct {
	ledger *service.LedgerService
}

// NewSupplierHandler 创建供应商处理器
func NewSupplierHandler() *SupplierHandler {
	return &SupplierHandler{ledger: service.NewLedgerService()}
}

// CreateSupplierRequest 创建供应商请求
type CreateSupplierRequest struct {
	Name           string  `json:"name" binding:"required,max=100" example:"华东食品批发"`
	Phone          string  `json:"phone" binding:"max=30" example:"13800138000"`
	Email          string  `json:"email" binding:"omitempty,email" example:"supplier@example.com"`
	Address        string  `json:"address" binding:"max=255" example:"上海市某某区某某路1号"`
	Category       string  `json:"category" binding:"required" example:"食品原料"`
	Notes          string  `json:"notes" binding:"max=500" example:"月结30天"`
	OpeningBalance float64 `json:"opening_balance" example:"500"`
}

// UpdateSupplierRequest 更新供应商请求
// 字段为指针：nil 表示本次不修改，空字符串表示清空该字段。
// 注意：不包含余额字段。余额只能通过交易流水的创建/删除变动，
// 不允许在编辑接口直接改写，避免与流水记录产生偏差。
type UpdateSupplierRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100" example:"华东食品批发"`
	Phone    *string `json:"phone" binding:"omitempty,max=30" example:"13800138000"`
	Email    *string `json:"email" binding:"omitempty,email" example:"supplier@example.com"`
	Address  *string `json:"address" binding:"omitempty,max=255" example:"上海市某某区某某路1号"`
	Category *string `json:"category" example:"食品原料"`
	Notes    *string `json:"notes" binding:"omitempty,max=500" example:"月结30天"`
}

// SupplierListRequest 供应商列表请求
type SupplierListRequest struct {
	Page     int    `form:"page" example:"1"`
	PageSize int    `form:"page_size" example:"10"`
	Keyword  string `form:"keyword" example:"食品"`
	Category string `form:"category" example:"食品原料"`
}

// checkCategory 校验类别是否存在（来源于数据库）
func checkCategory(name string) bool {
	var cat models.SupplierCategory
	return database.DB.Where("name = ?", name).First(&cat).Error == nil
}

// Create 创建供应商
// @Summary 创建供应商
// @Description 创建一个新的供应商，可指定期初余额（默认 0）
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSupplierRequest true "供应商信息"
// @Success 200 {object} Response{data=models.Supplier} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "供应商名称不能为空")
		return
	}

	if !checkCategory(req.Category) {
		BadRequest(c, "无效的供应商类别，请先在后台维护类别")
		return
	}

	supplier := models.Supplier{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Category: req.Category,
		Notes:    req.Notes,
		Balance:  req.OpeningBalance,
	}

	if err := database.DB.Create(&supplier).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建供应商失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", supplier)
}

// List 获取供应商列表
// @Summary 获取供应商列表
// @Description 获取供应商列表，支持分页、名称关键字和类别筛选
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param keyword query string false "名称关键字"
// @Param category query string false "类别筛选"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Supplier}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/suppliers [get]
func (h *SupplierHandler) List(c *gin.Context) {
	var req SupplierListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Supplier{})

	if req.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+req.Keyword+"%")
	}
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	// 获取总数
	var total int64
	query.Count(&total)

	// 获取列表
	var suppliers []models.Supplier
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("name ASC, id ASC").Offset(offset).Limit(req.PageSize).Find(&suppliers).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     suppliers,
	})
}

// Get 获取单个供应商
// @Summary 获取单个供应商
// @Description 根据ID获取供应商详情（含当前余额）
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "供应商ID"
// @Success 200 {object} Response{data=models.Supplier} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "供应商不存在"
// @Router /api/v1/suppliers/{id} [get]
func (h *SupplierHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var supplier models.Supplier
	if err := database.DB.First(&supplier, id).Error; err != nil {
		NotFound(c, "供应商不存在")
		return
	}

	Success(c, supplier)
}

// Update 更新供应商
// @Summary 更新供应商
// @Description 部分更新供应商基础信息。余额字段不可通过本接口修改，只随交易流水变动。
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "供应商ID"
// @Param request body UpdateSupplierRequest true "供应商信息"
// @Success 200 {object} Response{data=models.Supplier} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "供应商不存在"
// @Router /api/v1/suppliers/{id} [put]
func (h *SupplierHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var supplier models.Supplier
	if err := database.DB.First(&supplier, id).Error; err != nil {
		NotFound(c, "供应商不存在")
		return
	}

	var req UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 更新字段：nil 表示未提供，空字符串可以清空可选字段
	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "供应商名称不能为空")
			return
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Category != nil {
		if !checkCategory(*req.Category) {
			BadRequest(c, "无效的供应商类别，请先在后台维护类别")
			return
		}
		updates["category"] = *req.Category
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&supplier).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	// 重新获取更新后的记录
	database.DB.First(&supplier, supplier.ID)
	SuccessWithMessage(c, "更新成功", supplier)
}

// Delete 删除供应商
// @Summary 删除供应商
// @Description 删除供应商及其全部交易流水（级联，单事务内完成）
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "供应商ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "供应商不存在"
// @Router /api/v1/suppliers/{id} [delete]
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	if err := h.ledger.DeleteSupplier(uint(id)); err != nil {
		if errors.Is(err, service.ErrSupplierNotFound) {
			NotFound(c, "供应商不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// GetTransactions 获取供应商的交易流水
// @Summary 获取供应商的交易流水
// @Description 获取指定供应商的全部交易流水，按业务日期倒序（同日期按ID倒序）
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "供应商ID"
// @Success 200 {object} Response{data=[]models.Transaction} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "供应商不存在"
// @Router /api/v1/suppliers/{id}/transactions [get]
func (h *SupplierHandler) GetTransactions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var supplier models.Supplier
	if err := database.DB.First(&supplier, id).Error; err != nil {
		NotFound(c, "供应商不存在")
		return
	}

	var transactions []models.Transaction
	if err := database.DB.Where("supplier_id = ?", id).
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, transactions)
}

// GetCategories 获取供应商类别列表
// @Summary 获取供应商类别列表
// @Description 获取所有可用的供应商类别，按排序字段升序排列
// @Tags 供应商
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.SupplierCategory} "获取成功"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/supplier-categories [get]
func (h *SupplierHandler) GetCategories(c *gin.Context) {
	var list []models.SupplierCategory
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}
