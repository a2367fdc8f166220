package api

import (
	"time"

	"budgetbuddy/middleware"
	"budgetbuddy/stats"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 概览处理器
type DashboardHandler struct{}

// NewDashboardHandler 创建概览处理器
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// DashboardRequest 概览请求：筛选条件 + 周期选择
type DashboardRequest struct {
	FilterRequest
	PeriodRequest
}

// DashboardResponse 概览响应
// monthly_data 仅年视图返回，trend_data 仅月视图返回
type DashboardResponse struct {
	ViewMode         string                 `json:"view_mode"`
	Month            int                    `json:"month"` // 0–11
	Year             int                    `json:"year"`
	TotalExpenses    float64                `json:"total_expenses"`
	AverageExpense   float64                `json:"average_expense"`
	DailyAverage     float64                `json:"daily_average"`
	TransactionCount int                    `json:"transaction_count"`
	MonthlyData      []stats.MonthBucket    `json:"monthly_data,omitempty"`
	TrendData        []stats.DayBucket      `json:"trend_data,omitempty"`
	CategoryData     []stats.CategoryAmount `json:"category_data"`
	AvailableYears   []int                  `json:"available_years"`
}

// GetDashboard 获取消费概览
// @Summary 获取消费概览
// @Description 获取选定周期内的消费概览。逐月序列基于筛选后的全量记录按年份分桶，逐日序列和类别汇总基于周期收窄后的记录，两者口径不同。
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param view_mode query string false "视图模式" Enums(monthly,yearly) default(monthly)
// @Param month query int false "月份（0-11）"
// @Param year query int false "年份"
// @Param category query string false "类别精确匹配"
// @Param search query string false "描述搜索词"
// @Param date_range query string false "时间范围" Enums(all,week,month,year)
// @Param min_amount query number false "金额下限（含）"
// @Param max_amount query number false "金额上限（含）"
// @Success 200 {object} Response{data=DashboardResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	all, err := fetchExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	now := time.Now()
	mode, month, year := req.Resolve(now)
	filtered := stats.Apply(all, req.ToFilter(), now)
	current := stats.SelectPeriod(filtered, mode, month, year)

	total := stats.Total(current)
	resp := DashboardResponse{
		ViewMode:         mode,
		Month:            int(month) - 1,
		Year:             year,
		TotalExpenses:    total,
		AverageExpense:   stats.Average(current),
		DailyAverage:     stats.DailyAverage(total, mode, year, month),
		TransactionCount: len(current),
		CategoryData:     stats.CategoryBreakdown(current),
		AvailableYears:   stats.AvailableYears(all, now),
	}
	if mode == stats.ViewYearly {
		resp.MonthlyData = stats.MonthlySeries(filtered, year)
	} else {
		resp.TrendData = stats.DailySeries(current, year, month)
	}

	Success(c, resp)
}

// GetAvailableYears 获取可选年份列表
// @Summary 获取可选年份列表
// @Description 获取当前用户消费记录中出现过的年份，降序去重；无记录时返回当前年份
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]int} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/years [get]
func (h *DashboardHandler) GetAvailableYears(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	all, err := fetchExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, stats.AvailableYears(all, time.Now()))
}
