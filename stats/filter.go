package stats

import (
	"strings"
	"time"

	"budgetbuddy/models"
)

// DateRange 相对时间范围取值
const (
	RangeAll   = "all"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

// ViewMode 视图模式取值
const (
	ViewMonthly = "monthly"
	ViewYearly  = "yearly"
)

// Filter 列表筛选条件
// 所有条件为 AND 关系，零值条件视为未启用
type Filter struct {
	Category   string   // 类别精确匹配，空为不限
	SearchTerm string   // 描述的大小写不敏感子串匹配，空为不限
	DateRange  string   // all|week|month|year，相对当前时间，空视为 all
	MinAmount  *float64 // 金额下限（含），nil 为不限
	MaxAmount  *float64 // 金额上限（含），nil 为不限
}

// Match 判断单条记录是否满足全部已启用的筛选条件
func (f Filter) Match(e models.Expense, now time.Time) bool {
	// 类别筛选
	if f.Category != "" && e.Category != f.Category {
		return false
	}

	// 搜索词筛选（大小写不敏感）
	if f.SearchTerm != "" &&
		!strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.SearchTerm)) {
		return false
	}

	// 时间范围筛选：下界为闭区间，无上界（未来日期的记录也会通过）
	switch f.DateRange {
	case RangeWeek:
		if e.ExpenseDate.Before(now.AddDate(0, 0, -7)) {
			return false
		}
	case RangeMonth:
		if e.ExpenseDate.Before(now.AddDate(0, -1, 0)) {
			return false
		}
	case RangeYear:
		if e.ExpenseDate.Before(now.AddDate(-1, 0, 0)) {
			return false
		}
	}

	// 金额范围筛选
	if f.MinAmount != nil && e.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && e.Amount > *f.MaxAmount {
		return false
	}

	return true
}

// Apply 对记录序列应用筛选条件，保持输入顺序，不修改记录
func Apply(expenses []models.Expense, f Filter, now time.Time) []models.Expense {
	result := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Match(e, now) {
			result = append(result, e)
		}
	}
	return result
}

// SelectPeriod 按视图模式把筛选后的序列收窄到选定周期
// monthly: 月份和年份都要匹配；yearly: 只匹配年份
func SelectPeriod(expenses []models.Expense, mode string, month time.Month, year int) []models.Expense {
	result := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		switch mode {
		case ViewMonthly:
			if e.ExpenseDate.Month() == month && e.ExpenseDate.Year() == year {
				result = append(result, e)
			}
		case ViewYearly:
			if e.ExpenseDate.Year() == year {
				result = append(result, e)
			}
		}
	}
	return result
}
