package api

import (
	"time"

	"budgetbuddy/database"
	"budgetbuddy/models"
	"budgetbuddy/stats"
)

// FilterRequest 列表筛选参数
// 所有筛选在取回记录后于内存中完成，与前端展示口径一致
type FilterRequest struct {
	Category  string   `form:"category" example:"Food & Dining"`
	Search    string   `form:"search" example:"lunch"`
	DateRange string   `form:"date_range" binding:"omitempty,oneof=all week month year" example:"month"`
	MinAmount *float64 `form:"min_amount" example:"10"`
	MaxAmount *float64 `form:"max_amount" example:"500"`
}

// ToFilter 转换为筛选条件
func (r FilterRequest) ToFilter() stats.Filter {
	dateRange := r.DateRange
	if dateRange == "" {
		dateRange = stats.RangeAll
	}
	return stats.Filter{
		Category:   r.Category,
		SearchTerm: r.Search,
		DateRange:  dateRange,
		MinAmount:  r.MinAmount,
		MaxAmount:  r.MaxAmount,
	}
}

// PeriodRequest 周期选择参数
// month 为 0–11（与前端月份下标一致），缺省为当前月/年
type PeriodRequest struct {
	ViewMode string `form:"view_mode" binding:"omitempty,oneof=monthly yearly" example:"monthly"`
	Month    *int   `form:"month" binding:"omitempty,min=0,max=11" example:"2"`
	Year     int    `form:"year" binding:"omitempty,min=2000,max=2100" example:"2024"`
}

// Resolve 填充缺省值并返回视图模式、月份、年份
func (r PeriodRequest) Resolve(now time.Time) (mode string, month time.Month, year int) {
	mode = r.ViewMode
	if mode == "" {
		mode = stats.ViewMonthly
	}
	if r.Month != nil {
		month = time.Month(*r.Month + 1)
	} else {
		month = now.Month()
	}
	year = r.Year
	if year == 0 {
		year = now.Year()
	}
	return mode, month, year
}

// fetchExpenses 取当前用户的全部消费记录（时间降序，与存储层约定一致）
func fetchExpenses(userID uint) ([]models.Expense, error) {
	var expenses []models.Expense
	err := database.DB.
		Where("user_id = ?", userID).
		Order("expense_date DESC, id DESC").
		Find(&expenses).Error
	return expenses, err
}
