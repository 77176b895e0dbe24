package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ledger/config"
	"ledger/database"
	"ledger/models"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// transactionExportRow 带供应商名称的流水导出行
type transactionExportRow struct {
	models.Transaction
	SupplierName string `json:"supplier_name"`
}

// exportFilter 导出筛选条件
type exportFilter struct {
	Supplier  *models.Supplier
	StartDate string
	EndDate   string
}

// parseExportFilter 解析导出筛选参数，参数非法时直接写入错误响应并返回 nil
func (h *ExportHandler) parseExportFilter(c *gin.Context) *exportFilter {
	filter := &exportFilter{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	if filter.StartDate != "" {
		if _, err := time.ParseInLocation("2006-01-02", filter.StartDate, time.Local); err != nil {
			BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
			return nil
		}
	}
	if filter.EndDate != "" {
		if _, err := time.ParseInLocation("2006-01-02", filter.EndDate, time.Local); err != nil {
			BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
			return nil
		}
	}

	if supplierIDStr := c.Query("supplier_id"); supplierIDStr != "" {
		supplierID, err := strconv.ParseUint(supplierIDStr, 10, 32)
		if err != nil {
			BadRequest(c, "无效的供应商 ID")
			return nil
		}
		var supplier models.Supplier
		if err := database.DB.First(&supplier, uint(supplierID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, "供应商不存在")
			} else {
				InternalError(c, SafeErrorMessage(err, "查询供应商失败"))
			}
			return nil
		}
		filter.Supplier = &supplier
	}
	return filter
}

// queryRows 按筛选条件查询流水，按业务日期倒序，同日按 ID 倒序
func (h *ExportHandler) queryRows(filter *exportFilter) ([]transactionExportRow, error) {
	query := database.DB.Model(&models.Transaction{}).
		Select("transactions.*, suppliers.name AS supplier_name").
		Joins("LEFT JOIN suppliers ON transactions.supplier_id = suppliers.id")

	if filter.Supplier != nil {
		query = query.Where("transactions.supplier_id = ?", filter.Supplier.ID)
	}
	if filter.StartDate != "" {
		query = query.Where("transactions.date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		query = query.Where("transactions.date <= ?", filter.EndDate)
	}

	var rows []transactionExportRow
	err := query.Order("transactions.date DESC, transactions.id DESC").Scan(&rows).Error
	return rows, err
}

// typeLabel 流水类型的中文展示
func typeLabel(t string) string {
	if t == models.TransactionTypeCredit {
		return "贷记"
	}
	return "借记"
}

// exportFilename 生成导出文件名
func (h *ExportHandler) exportFilename(filter *exportFilter, ext string) string {
	name := "台账流水"
	if filter.Supplier != nil {
		name = "台账_" + filter.Supplier.Name
	}
	return fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102"), ext)
}

// ExportCSV 导出交易流水为 CSV
// @Summary 导出交易流水为 CSV
// @Description 按供应商和日期范围导出交易流水为 CSV 文件
// @Tags 导出
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param supplier_id query int false "供应商 ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	filter := h.parseExportFilter(c)
	if filter == nil {
		return
	}

	rows, err := h.queryRows(filter)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	headers := []string{"ID", "供应商", "类型", "金额", "摘要", "日期", "创建时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	for _, row := range rows {
		record := []string{
			fmt.Sprintf("%d", row.ID),
			row.SupplierName,
			typeLabel(row.Type),
			fmt.Sprintf("%.2f", row.Amount),
			row.Description,
			row.Date.Format("2006-01-02"),
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := h.exportFilename(filter, "csv")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出交易流水为 JSON
// @Summary 导出交易流水为 JSON
// @Description 按供应商和日期范围导出交易流水及汇总信息
// @Tags 导出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param supplier_id query int false "供应商 ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	filter := h.parseExportFilter(c)
	if filter == nil {
		return
	}

	rows, err := h.queryRows(filter)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	// 计算汇总信息
	var totalCredit, totalDebit float64
	for _, row := range rows {
		if row.Type == models.TransactionTypeCredit {
			totalCredit += row.Amount
		} else {
			totalDebit += row.Amount
		}
	}

	result := gin.H{
		"start_date":   filter.StartDate,
		"end_date":     filter.EndDate,
		"total_count":  len(rows),
		"total_credit": totalCredit,
		"total_debit":  totalDebit,
		"net_change":   totalCredit - totalDebit,
		"transactions": rows,
	}
	if filter.Supplier != nil {
		result["supplier"] = filter.Supplier
	}
	Success(c, result)
}

// ExportExcel 导出 Excel
// @Summary 导出台账为 Excel
// @Description 导出供应商台账为 Excel 文件，包含供应商余额表和交易流水表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param supplier_id query int false "供应商 ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	filter := h.parseExportFilter(c)
	if filter == nil {
		return
	}

	rows, err := h.queryRows(filter)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	var suppliers []models.Supplier
	supplierQuery := database.DB.Order("name ASC")
	if filter.Supplier != nil {
		supplierQuery = supplierQuery.Where("id = ?", filter.Supplier.ID)
	}
	if err := supplierQuery.Find(&suppliers).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	// 表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 数据样式
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 供应商余额表
	supplierSheet := "供应商余额"
	f.SetSheetName("Sheet1", supplierSheet)
	f.SetColWidth(supplierSheet, "A", "A", 10)
	f.SetColWidth(supplierSheet, "B", "B", 25)
	f.SetColWidth(supplierSheet, "C", "C", 15)
	f.SetColWidth(supplierSheet, "D", "D", 18)
	f.SetColWidth(supplierSheet, "E", "E", 25)
	f.SetColWidth(supplierSheet, "F", "F", 15)

	supplierHeaders := []string{"ID", "名称", "类别", "电话", "邮箱", "当前余额"}
	for i, header := range supplierHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(supplierSheet, cell, header)
		f.SetCellStyle(supplierSheet, cell, cell, headerStyle)
	}
	for i, supplier := range suppliers {
		row := i + 2
		f.SetCellValue(supplierSheet, fmt.Sprintf("A%d", row), supplier.ID)
		f.SetCellValue(supplierSheet, fmt.Sprintf("B%d", row), supplier.Name)
		f.SetCellValue(supplierSheet, fmt.Sprintf("C%d", row), supplier.Category)
		f.SetCellValue(supplierSheet, fmt.Sprintf("D%d", row), supplier.Phone)
		f.SetCellValue(supplierSheet, fmt.Sprintf("E%d", row), supplier.Email)
		f.SetCellValue(supplierSheet, fmt.Sprintf("F%d", row), supplier.Balance)
		f.SetCellStyle(supplierSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), dataStyle)
	}

	// 交易流水表
	txnSheet := "交易流水"
	f.NewSheet(txnSheet)
	f.SetColWidth(txnSheet, "A", "A", 10)
	f.SetColWidth(txnSheet, "B", "B", 25)
	f.SetColWidth(txnSheet, "C", "C", 10)
	f.SetColWidth(txnSheet, "D", "D", 15)
	f.SetColWidth(txnSheet, "E", "E", 30)
	f.SetColWidth(txnSheet, "F", "F", 15)
	f.SetColWidth(txnSheet, "G", "G", 20)

	txnHeaders := []string{"ID", "供应商", "类型", "金额", "摘要", "日期", "创建时间"}
	for i, header := range txnHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(txnSheet, cell, header)
		f.SetCellStyle(txnSheet, cell, cell, headerStyle)
	}

	var totalCredit, totalDebit float64
	for i, row := range rows {
		r := i + 2
		f.SetCellValue(txnSheet, fmt.Sprintf("A%d", r), row.ID)
		f.SetCellValue(txnSheet, fmt.Sprintf("B%d", r), row.SupplierName)
		f.SetCellValue(txnSheet, fmt.Sprintf("C%d", r), typeLabel(row.Type))
		f.SetCellValue(txnSheet, fmt.Sprintf("D%d", r), row.Amount)
		f.SetCellValue(txnSheet, fmt.Sprintf("E%d", r), row.Description)
		f.SetCellValue(txnSheet, fmt.Sprintf("F%d", r), row.Date.Format("2006-01-02"))
		f.SetCellValue(txnSheet, fmt.Sprintf("G%d", r), row.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellStyle(txnSheet, fmt.Sprintf("A%d", r), fmt.Sprintf("G%d", r), dataStyle)

		if row.Type == models.TransactionTypeCredit {
			totalCredit += row.Amount
		} else {
			totalDebit += row.Amount
		}
	}

	// 汇总行
	summaryRow := len(rows) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	f.SetCellValue(txnSheet, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(txnSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("C%d", summaryRow))
	f.SetCellValue(txnSheet, fmt.Sprintf("D%d", summaryRow),
		fmt.Sprintf("贷记 %.2f / 借记 %.2f", totalCredit, totalDebit))
	f.SetCellValue(txnSheet, fmt.Sprintf("E%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(rows)))
	f.MergeCell(txnSheet, fmt.Sprintf("E%d", summaryRow), fmt.Sprintf("G%d", summaryRow))
	f.SetCellStyle(txnSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	filename := h.exportFilename(filter, "xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}

// ExportPDF 导出 PDF 对账单
// @Summary 导出台账为 PDF
// @Description 按供应商和日期范围生成 PDF 对账单，需要在配置中指定中文字体
// @Tags 导出
// @Produce application/pdf
// @Security BearerAuth
// @Param supplier_id query int false "供应商 ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "PDF 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/pdf [get]
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	fontPath := config.GlobalConfig.Export.PDFFont
	if fontPath == "" {
		BadRequest(c, "未配置 PDF 中文字体，请在配置中设置 export.pdf_font")
		return
	}

	filter := h.parseExportFilter(c)
	if filter == nil {
		return
	}

	rows, err := h.queryRows(filter)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font("cjk", "", fontPath)
	pdf.SetFont("cjk", "", 16)
	pdf.AddPage()

	// 标题
	title := "供应商台账对账单"
	if filter.Supplier != nil {
		title = fmt.Sprintf("对账单 - %s", filter.Supplier.Name)
	}
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont("cjk", "", 10)
	meta := fmt.Sprintf("生成时间: %s", time.Now().Format("2006-01-02 15:04:05"))
	if filter.StartDate != "" || filter.EndDate != "" {
		meta += fmt.Sprintf("    日期范围: %s ~ %s", filter.StartDate, filter.EndDate)
	}
	pdf.CellFormat(0, 8, meta, "", 1, "C", false, 0, "")
	if filter.Supplier != nil {
		pdf.CellFormat(0, 8, fmt.Sprintf("当前余额: %.2f", filter.Supplier.Balance), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// 表头
	colWidths := []float64{15, 45, 15, 25, 55, 35}
	headers := []string{"ID", "供应商", "类型", "金额", "摘要", "日期"}
	pdf.SetFont("cjk", "", 11)
	pdf.SetFillColor(79, 129, 189)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 9, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	// 数据行
	pdf.SetFont("cjk", "", 10)
	pdf.SetTextColor(0, 0, 0)
	var totalCredit, totalDebit float64
	for _, row := range rows {
		pdf.CellFormat(colWidths[0], 8, fmt.Sprintf("%d", row.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, row.SupplierName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, typeLabel(row.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, fmt.Sprintf("%.2f", row.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[4], 8, row.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[5], 8, row.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)

		if row.Type == models.TransactionTypeCredit {
			totalCredit += row.Amount
		} else {
			totalDebit += row.Amount
		}
	}

	// 汇总
	pdf.Ln(4)
	pdf.SetFont("cjk", "", 11)
	summary := fmt.Sprintf("共 %d 条记录    贷记合计: %.2f    借记合计: %.2f    净变动: %.2f",
		len(rows), totalCredit, totalDebit, totalCredit-totalDebit)
	pdf.CellFormat(0, 9, summary, "", 1, "L", false, 0, "")

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 PDF 失败"))
		return
	}

	filename := h.exportFilename(filter, "pdf")
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
