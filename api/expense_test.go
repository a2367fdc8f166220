package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"budgetbuddy/config"
	"budgetbuddy/database"
	"budgetbuddy/middleware"
	"budgetbuddy/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func setupTestConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			ExpireTime:        time.Hour,
			PendingExpireTime: 10 * time.Minute,
		},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })
	return cfg
}

// asUser 在请求上下文中注入已认证用户
func asUser(userID uint, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userEmail", email)
		c.Next()
	}
}

var expenseColumns = []string{
	"id", "user_id", "amount", "description", "category",
	"expense_date", "payment_method", "created_at", "updated_at", "deleted_at",
}

func expenseRow(rows *sqlmock.Rows, id uint, amount float64, description, category string, date time.Time, method string) *sqlmock.Rows {
	return rows.AddRow(id, 1, amount, description, category, date, method, time.Now(), time.Now(), nil)
}

func TestExpenseHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.POST("/expenses", asUser(1, "me@example.com"), h.Create)

	body := `{"amount":99.5,"description":"dinner","category":"Food & Dining","date":"2024-03-05","payment_method":"upi"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Create_InvalidCategory(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.POST("/expenses", asUser(1, "me@example.com"), h.Create)

	body := `{"amount":10,"description":"x","category":"Nonsense","date":"2024-03-05"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "无效的消费类别", resp["message"])
}

func TestExpenseHandler_Create_InvalidDate(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.POST("/expenses", asUser(1, "me@example.com"), h.Create)

	body := `{"amount":10,"description":"x","category":"Travel","date":"05/03/2024"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestExpenseHandler_Create_AmountRequired(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.POST("/expenses", asUser(1, "me@example.com"), h.Create)

	// 金额为 0 不通过 gt=0 校验
	body := `{"amount":0,"description":"x","category":"Travel","date":"2024-03-05"}`
	req := httptest.NewRequest("POST", "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestExpenseHandler_List_FilterAndPagination(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	rows := sqlmock.NewRows(expenseColumns)
	expenseRow(rows, 3, 30, "bus ticket", models.CategoryTravel, time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local), "cash")
	expenseRow(rows, 2, 50, "lunch", models.CategoryFoodDining, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), "card")
	expenseRow(rows, 1, 100, "dinner", models.CategoryFoodDining, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), "upi")
	mock.ExpectQuery("SELECT .* FROM `expenses`").
		WithArgs(1).
		WillReturnRows(rows)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.GET("/expenses", asUser(1, "me@example.com"), h.List)

	req := httptest.NewRequest("GET", "/expenses?category=Food+%26+Dining&page=1&page_size=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Code int `json:"code"`
		Data struct {
			Total    int64            `json:"total"`
			Page     int              `json:"page"`
			PageSize int              `json:"page_size"`
			List     []models.Expense `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Total)
	require.Len(t, resp.Data.List, 1)
	// 保持取回时的时间降序
	assert.Equal(t, "lunch", resp.Data.List[0].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Update_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	mock.ExpectQuery("SELECT .* FROM `expenses`").
		WillReturnRows(sqlmock.NewRows(expenseColumns))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.PUT("/expenses/:id", asUser(1, "me@example.com"), h.Update)

	body := `{"amount":10,"description":"x","category":"Travel","date":"2024-03-05"}`
	req := httptest.NewRequest("PUT", "/expenses/99", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_Delete(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	rows := sqlmock.NewRows(expenseColumns)
	expenseRow(rows, 1, 100, "dinner", models.CategoryFoodDining, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), "upi")
	mock.ExpectQuery("SELECT .* FROM `expenses`").
		WillReturnRows(rows)

	// 软删除为 UPDATE deleted_at
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.DELETE("/expenses/:id", asUser(1, "me@example.com"), h.Delete)

	req := httptest.NewRequest("DELETE", "/expenses/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_GetCategories(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	setupTestConfig(t)

	rows := sqlmock.NewRows([]string{"id", "name", "sort", "color", "created_at", "updated_at"}).
		AddRow(1, models.CategoryFoodDining, 10, "#FF6B6B", time.Now(), time.Now()).
		AddRow(2, models.CategoryTransportation, 20, "#4ECDC4", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .* FROM `expense_categories`").
		WillReturnRows(rows)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.GET("/categories", h.GetCategories)

	req := httptest.NewRequest("GET", "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data []models.ExpenseCategory `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, models.CategoryFoodDining, resp.Data[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_GetPaymentMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExpenseHandler()
	router.GET("/payment-methods", h.GetPaymentMethods)

	req := httptest.NewRequest("GET", "/payment-methods", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"upi", "card", "cash", "bank"}, resp.Data)
}
