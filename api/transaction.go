package api

import (
	"errors"
	"strconv"
	"time"

	"ledger/database"
	"ledger/models"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// TransactionHandler 交易流水处理器
type TransactionHandler struct {
	ledger *service.LedgerService
}

// NewTransactionHandler 创建交易流水处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{ledger: service.NewLedgerService()}
}

// CreateTransactionRequest 创建交易流水请求
type CreateTransactionRequest struct {
	SupplierID  uint    `json:"supplier_id" binding:"required" example:"1"`
	Type        string  `json:"type" binding:"required,oneof=credit debit" example:"debit"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"1500"`
	Description string  `json:"description" binding:"max=255" example:"进货一批"`
	Date        string  `json:"date" binding:"required" example:"2024-01-15"`
}

// TransactionListRequest 交易流水列表请求
type TransactionListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"10"`
	SupplierID uint   `form:"supplier_id" example:"1"`
	Type       string `form:"type" example:"debit"`
	StartDate  string `form:"start_date" example:"2024-01-01"`
	EndDate    string `form:"end_date" example:"2024-12-31"`
}

// Create 创建交易流水
// @Summary 创建交易流水
// @Description 创建一笔交易流水并同步调整供应商余额：credit（付款）增加余额，debit（进货）减少余额。插入流水与余额调整在同一数据库事务内完成。
// @Tags 交易流水
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "流水信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "供应商不存在"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 解析业务日期
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	txn, err := h.ledger.CreateTransaction(service.CreateTransactionInput{
		SupplierID:  req.SupplierID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSupplierNotFound):
			NotFound(c, "供应商不存在")
		case errors.Is(err, service.ErrInvalidTransactionType), errors.Is(err, service.ErrInvalidAmount):
			BadRequest(c, err.Error())
		default:
			InternalError(c, SafeErrorMessage(err, "创建流水失败"))
		}
		return
	}

	SuccessWithMessage(c, "创建成功", txn)
}

// List 获取交易流水列表
// @Summary 获取交易流水列表
// @Description 获取交易流水列表，支持分页、供应商/类型/日期范围筛选。默认按业务日期倒序，同日期按ID倒序。
// @Tags 交易流水
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param supplier_id query int false "供应商ID筛选"
// @Param type query string false "类型筛选 credit/debit"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var req TransactionListRequest
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

	query := database.DB.Model(&models.Transaction{})

	if req.SupplierID > 0 {
		query = query.Where("supplier_id = ?", req.SupplierID)
	}
	if req.Type != "" {
		if !models.IsValidTransactionType(req.Type) {
			BadRequest(c, "类型筛选只支持 credit 或 debit")
			return
		}
		query = query.Where("type = ?", req.Type)
	}

	// 日期范围筛选
	if req.StartDate != "" {
		startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err == nil {
			query = query.Where("date >= ?", startDate)
		}
	}
	if req.EndDate != "" {
		endDate, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local)
		if err == nil {
			query = query.Where("date <= ?", endDate)
		}
	}

	// 获取总数
	var total int64
	query.Count(&total)

	// 获取列表
	var transactions []models.Transaction
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("date DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&transactions).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     transactions,
	})
}

// Get 获取单笔交易流水
// @Summary 获取单笔交易流水
// @Description 根据ID获取交易流水详情
// @Tags 交易流水
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "流水ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "流水不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.First(&txn, id).Error; err != nil {
		NotFound(c, "流水不存在")
		return
	}

	Success(c, txn)
}

// Delete 删除交易流水
// @Summary 删除交易流水
// @Description 删除一笔交易流水并冲销其余额影响：删除 credit 减少余额，删除 debit 增加余额。冲销与删除在同一数据库事务内完成。
// @Tags 交易流水
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "流水ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "流水不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	if err := h.ledger.DeleteTransaction(uint(id)); err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			NotFound(c, "流水不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
