package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"budgetbuddy/models"
)

// MonthBucket 年视图下单个月份的汇总
type MonthBucket struct {
	Month  string  `json:"month"` // Jan..Dec
	Amount float64 `json:"amount"`
}

// DayBucket 月视图下单日的汇总
type DayBucket struct {
	Date   string  `json:"date"` // 两位数日标签，如 "05"
	Amount float64 `json:"amount"`
}

// CategoryAmount 按类别汇总的金额
type CategoryAmount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MethodAmount 按支付方式汇总的金额
type MethodAmount struct {
	Name  string  `json:"name"` // 首字母大写的显示名
	Value float64 `json:"value"`
}

// SpendingDay 单日消费合计
type SpendingDay struct {
	Date   string  `json:"date"` // 2006-01-02
	Amount float64 `json:"amount"`
}

// Trend 消费趋势（当月与上月对比）
type Trend struct {
	Direction  string  `json:"trend"` // up|down|neutral
	Percentage float64 `json:"percentage"`
}

// Averages 分析视图的日均/周均
type Averages struct {
	Daily  float64 `json:"daily"`
	Weekly float64 `json:"weekly"`
}

var shortMonthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Total 金额合计，空集合为 0
func Total(expenses []models.Expense) float64 {
	var sum float64
	for _, e := range expenses {
		sum += e.Amount
	}
	return sum
}

// Average 平均单笔金额，空集合为 0（不会除零）
func Average(expenses []models.Expense) float64 {
	if len(expenses) == 0 {
		return 0
	}
	return Total(expenses) / float64(len(expenses))
}

// DaysInMonth 返回指定年月的天数
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// DailyAverage 概览卡片的"日均"口径
// 月视图按当月天数均摊；年视图按 12 均摊（历史口径如此，按月均摊而非按天，保持不变）
func DailyAverage(total float64, mode string, year int, month time.Month) float64 {
	if mode == ViewYearly {
		return total / 12
	}
	return total / float64(DaysInMonth(year, month))
}

// PeriodAverages 分析视图的日均/周均口径
// 月视图按当月天数，年视图按 365 天；周均为日均的 7 倍
func PeriodAverages(total float64, mode string, year int, month time.Month) Averages {
	var daily float64
	if mode == ViewYearly {
		daily = total / 365
	} else {
		daily = total / float64(DaysInMonth(year, month))
	}
	return Averages{Daily: daily, Weekly: daily * 7}
}

// MonthlySeries 年视图的逐月序列，固定 12 个桶（Jan..Dec）
// 注意：汇总对象是筛选后的全量序列（而非周期收窄后的序列），
// 按选定年份直接重新分桶，与月视图的逐日序列口径不同，保持原有行为
func MonthlySeries(filtered []models.Expense, year int) []MonthBucket {
	buckets := make([]MonthBucket, 12)
	for i := range buckets {
		buckets[i].Month = shortMonthNames[i]
	}
	for _, e := range filtered {
		if e.ExpenseDate.Year() == year {
			buckets[e.ExpenseDate.Month()-1].Amount += e.Amount
		}
	}
	return buckets
}

// DailySeries 月视图的逐日序列，桶数等于当月天数（28–31）
// 日标签为两位数字符串
func DailySeries(current []models.Expense, year int, month time.Month) []DayBucket {
	days := DaysInMonth(year, month)
	buckets := make([]DayBucket, days)
	for i := range buckets {
		buckets[i].Date = fmt.Sprintf("%02d", i+1)
	}
	for _, e := range current {
		if e.ExpenseDate.Month() == month && e.ExpenseDate.Year() == year {
			buckets[e.ExpenseDate.Day()-1].Amount += e.Amount
		}
	}
	return buckets
}

// CategoryBreakdown 按类别汇总，顺序为遍历时首次遇到该类别的顺序
func CategoryBreakdown(current []models.Expense) []CategoryAmount {
	index := make(map[string]int)
	result := make([]CategoryAmount, 0)
	for _, e := range current {
		i, ok := index[e.Category]
		if !ok {
			i = len(result)
			index[e.Category] = i
			result = append(result, CategoryAmount{Name: e.Category})
		}
		result[i].Value += e.Amount
	}
	return result
}

// PaymentMethodBreakdown 按支付方式汇总，显示名首字母大写
func PaymentMethodBreakdown(current []models.Expense) []MethodAmount {
	index := make(map[string]int)
	result := make([]MethodAmount, 0)
	for _, e := range current {
		i, ok := index[e.PaymentMethod]
		if !ok {
			i = len(result)
			index[e.PaymentMethod] = i
			result = append(result, MethodAmount{Name: titleCase(e.PaymentMethod)})
		}
		result[i].Value += e.Amount
	}
	return result
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TopSpendingDays 按日期分组求和，金额降序取前 limit 个
func TopSpendingDays(current []models.Expense, limit int) []SpendingDay {
	index := make(map[string]int)
	days := make([]SpendingDay, 0)
	for _, e := range current {
		key := e.ExpenseDate.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, SpendingDay{Date: key})
		}
		days[i].Amount += e.Amount
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Amount > days[j].Amount
	})
	if len(days) > limit {
		days = days[:limit]
	}
	return days
}

// SpendingTrend 当前自然月与上一个月桶的环比变化
// 上月为 0 或变化恰为 0 时方向为 neutral；仅年视图下有意义
func SpendingTrend(monthly []MonthBucket, now time.Time) Trend {
	if len(monthly) == 0 {
		return Trend{Direction: "neutral"}
	}
	cur := int(now.Month()) - 1
	var current, previous float64
	if cur >= 0 && cur < len(monthly) {
		current = monthly[cur].Amount
	}
	if cur-1 >= 0 && cur-1 < len(monthly) {
		previous = monthly[cur-1].Amount
	}
	if previous == 0 {
		return Trend{Direction: "neutral"}
	}
	pct := (current - previous) / previous * 100
	direction := "neutral"
	if pct > 0 {
		direction = "up"
	} else if pct < 0 {
		direction = "down"
	}
	if pct < 0 {
		pct = -pct
	}
	return Trend{Direction: direction, Percentage: pct}
}

// AvailableYears 全部记录中出现过的年份，降序去重
// 无任何记录时返回只含当前年份的单元素序列
func AvailableYears(all []models.Expense, now time.Time) []int {
	if len(all) == 0 {
		return []int{now.Year()}
	}
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, e := range all {
		y := e.ExpenseDate.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
