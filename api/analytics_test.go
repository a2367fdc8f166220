package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"budgetbuddy/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsHandler_Monthly(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)
	seedScenarioExpenses(mock)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAnalyticsHandler()
	router.GET("/analytics", asUser(1, "me@example.com"), h.GetAnalytics)

	req := httptest.NewRequest("GET", "/analytics?view_mode=monthly&month=2&year=2024", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data AnalyticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	d := resp.Data

	assert.InDelta(t, 150, d.TotalExpenses, 0.001)
	assert.Equal(t, 2, d.TransactionCount)
	assert.InDelta(t, 150.0/31, d.Averages.Daily, 0.001)
	assert.InDelta(t, 150.0/31*7, d.Averages.Weekly, 0.001)

	// 支付方式显示名首字母大写
	require.Len(t, d.PaymentMethodData, 2)
	assert.Equal(t, "Card", d.PaymentMethodData[0].Name)
	assert.InDelta(t, 50, d.PaymentMethodData[0].Value, 0.001)
	assert.Equal(t, "Upi", d.PaymentMethodData[1].Name)
	assert.InDelta(t, 100, d.PaymentMethodData[1].Value, 0.001)

	// 两笔同日记录合并为一个消费日
	require.Len(t, d.TopSpendingDays, 1)
	assert.Equal(t, "2024-03-05", d.TopSpendingDays[0].Date)
	assert.InDelta(t, 150, d.TopSpendingDays[0].Amount, 0.001)

	// 月视图不返回环比趋势
	assert.Nil(t, d.SpendingTrend)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsHandler_Yearly(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)
	seedScenarioExpenses(mock)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAnalyticsHandler()
	router.GET("/analytics", asUser(1, "me@example.com"), h.GetAnalytics)

	req := httptest.NewRequest("GET", "/analytics?view_mode=yearly&year=2024", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data AnalyticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	d := resp.Data

	assert.InDelta(t, 180, d.TotalExpenses, 0.001)
	assert.Equal(t, 3, d.TransactionCount)
	// 年视图日均按 365 天
	assert.InDelta(t, 180.0/365, d.Averages.Daily, 0.001)

	// 消费日金额降序
	require.Len(t, d.TopSpendingDays, 2)
	assert.Equal(t, "2024-03-05", d.TopSpendingDays[0].Date)
	assert.Equal(t, "2024-04-01", d.TopSpendingDays[1].Date)

	// 年视图返回环比趋势
	require.NotNil(t, d.SpendingTrend)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsHandler_FilterByCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)
	seedScenarioExpenses(mock)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAnalyticsHandler()
	router.GET("/analytics", asUser(1, "me@example.com"), h.GetAnalytics)

	req := httptest.NewRequest("GET", "/analytics?view_mode=yearly&year=2024&category=Travel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data AnalyticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	d := resp.Data

	assert.InDelta(t, 30, d.TotalExpenses, 0.001)
	assert.Equal(t, 1, d.TransactionCount)
	require.Len(t, d.CategoryData, 1)
	assert.Equal(t, models.CategoryTravel, d.CategoryData[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
