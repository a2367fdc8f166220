package api

import (
	"strconv"
	"strings"
	"time"

	"budgetbuddy/database"
	"budgetbuddy/middleware"
	"budgetbuddy/models"
	"budgetbuddy/stats"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct{}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{}
}

// ExpenseRequest 创建/更新消费记录请求
// 创建和更新使用同一套必填字段（整条替换而非部分更新）
type ExpenseRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0" example:"99.99"`
	Description   string  `json:"description" binding:"required" example:"lunch at cafe"`
	Category      string  `json:"category" binding:"required" example:"Food & Dining"`
	Date          string  `json:"date" binding:"required" example:"2024-03-05"`
	PaymentMethod string  `json:"payment_method" binding:"omitempty,oneof=upi card cash bank" example:"upi"`
}

// validate 请求级校验，全部通过后才允许触达数据库
func (r *ExpenseRequest) validate() (time.Time, string) {
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return time.Time{}, "描述不能为空"
	}
	if !models.IsValidCategory(r.Category) {
		return time.Time{}, "无效的消费类别"
	}
	if r.PaymentMethod == "" {
		// 与前端表单的默认值保持一致
		r.PaymentMethod = models.PaymentMethodUPI
	}
	if !models.IsValidPaymentMethod(r.PaymentMethod) {
		return time.Time{}, "无效的支付方式"
	}
	date, err := time.ParseInLocation("2006-01-02", r.Date, time.Local)
	if err != nil {
		return time.Time{}, "日期格式错误，应为: 2006-01-02"
	}
	return date, ""
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	FilterRequest
	Page     int `form:"page" example:"1"`
	PageSize int `form:"page_size" example:"10"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条新的消费记录。金额、描述、类别、日期为必填，校验不通过不会写库。
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	date, msg := req.validate()
	if msg != "" {
		BadRequest(c, msg)
		return
	}

	expense := models.Expense{
		UserID:        userID,
		Amount:        req.Amount,
		Description:   req.Description,
		Category:      req.Category,
		ExpenseDate:   date,
		PaymentMethod: req.PaymentMethod,
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建消费记录失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 获取当前用户的消费记录列表。筛选条件（类别、搜索词、时间范围、金额上下限）为 AND 关系，在取回的全量记录上应用，结果保持时间降序，支持分页。
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category query string false "类别精确匹配"
// @Param search query string false "描述搜索词（大小写不敏感子串）"
// @Param date_range query string false "时间范围" Enums(all,week,month,year)
// @Param min_amount query number false "金额下限（含）"
// @Param max_amount query number false "金额上限（含）"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
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

	expenses, err := fetchExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	filtered := stats.Apply(expenses, req.ToFilter(), time.Now())

	// 内存分页
	total := int64(len(filtered))
	start := (req.Page - 1) * req.PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + req.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     filtered[start:end],
	})
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Description 根据ID获取消费记录详情
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 更新指定的消费记录，字段要求与创建一致（整条替换）
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body ExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	date, msg := req.validate()
	if msg != "" {
		BadRequest(c, msg)
		return
	}

	updates := map[string]interface{}{
		"amount":         req.Amount,
		"description":    req.Description,
		"category":       req.Category,
		"expense_date":   date,
		"payment_method": req.PaymentMethod,
	}

	if err := database.DB.Model(&expense).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	// 重新获取更新后的记录
	database.DB.First(&expense, expense.ID)
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除指定的消费记录
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	if err := database.DB.Delete(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// GetCategories 获取消费类别列表
// @Summary 获取消费类别列表
// @Description 获取固定的消费类别列表，按排序字段升序排列，每个类别带有展示颜色
// @Tags 消费记录
// @Accept json
// @Produce json
// @Success 200 {object} Response{data=[]models.ExpenseCategory} "获取成功"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	var list []models.ExpenseCategory
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// GetPaymentMethods 获取支付方式列表
// @Summary 获取支付方式列表
// @Description 获取所有可用的支付方式
// @Tags 消费记录
// @Accept json
// @Produce json
// @Success 200 {object} Response{data=[]string} "获取成功"
// @Router /api/v1/payment-methods [get]
func (h *ExpenseHandler) GetPaymentMethods(c *gin.Context) {
	Success(c, models.GetPaymentMethods())
}
