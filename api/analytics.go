package api

import (
	"time"

	"budgetbuddy/middleware"
	"budgetbuddy/stats"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 分析处理器
type AnalyticsHandler struct{}

// NewAnalyticsHandler 创建分析处理器
func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{}
}

// AnalyticsRequest 分析请求：筛选条件 + 周期选择
type AnalyticsRequest struct {
	FilterRequest
	PeriodRequest
}

// AnalyticsResponse 分析响应
type AnalyticsResponse struct {
	ViewMode          string                 `json:"view_mode"`
	Month             int                    `json:"month"` // 0–11
	Year              int                    `json:"year"`
	TotalExpenses     float64                `json:"total_expenses"`
	TransactionCount  int                    `json:"transaction_count"`
	Averages          stats.Averages         `json:"averages"`
	CategoryData      []stats.CategoryAmount `json:"category_data"`
	PaymentMethodData []stats.MethodAmount   `json:"payment_method_data"`
	TopSpendingDays   []stats.SpendingDay    `json:"top_spending_days"`
	SpendingTrend     *stats.Trend           `json:"spending_trend,omitempty"`
}

// topSpendingDaysLimit 最高消费日取前几名
const topSpendingDaysLimit = 5

// GetAnalytics 获取消费分析
// @Summary 获取消费分析
// @Description 获取选定周期内的消费分析：支付方式占比、最高消费日前五、日均/周均，年视图下额外返回当月环比趋势
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
// @Success 200 {object} Response{data=AnalyticsResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req AnalyticsRequest
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
	resp := AnalyticsResponse{
		ViewMode:          mode,
		Month:             int(month) - 1,
		Year:              year,
		TotalExpenses:     total,
		TransactionCount:  len(current),
		Averages:          stats.PeriodAverages(total, mode, year, month),
		CategoryData:      stats.CategoryBreakdown(current),
		PaymentMethodData: stats.PaymentMethodBreakdown(current),
		TopSpendingDays:   stats.TopSpendingDays(current, topSpendingDaysLimit),
	}
	if mode == stats.ViewYearly {
		trend := stats.SpendingTrend(stats.MonthlySeries(filtered, year), now)
		resp.SpendingTrend = &trend
	}

	Success(c, resp)
}
