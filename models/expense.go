package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense 消费记录模型
type Expense struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"index;not null"`
	Amount        float64        `json:"amount" gorm:"type:decimal(10,2);not null"`
	Description   string         `json:"description" gorm:"size:255;not null"`
	Category      string         `json:"category" gorm:"size:50;not null"`
	ExpenseDate   time.Time      `json:"date" gorm:"type:date;not null;index"`
	PaymentMethod string         `json:"payment_method" gorm:"size:20;not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
	User          User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// Category 消费类别常量（固定类别集合）
const (
	CategoryFoodDining     = "Food & Dining"
	CategoryTransportation = "Transportation"
	CategoryShopping       = "Shopping"
	CategoryEntertainment  = "Entertainment"
	CategoryFamilySupport  = "Family support"
	CategoryBillsUtilities = "Bills & Utilities"
	CategoryHealthcare     = "Healthcare"
	CategoryEducation      = "Education"
	CategoryTravel         = "Travel"
	CategoryOther          = "Other"
)

// GetCategories 获取所有消费类别
func GetCategories() []string {
	return []string{
		CategoryFoodDining,
		CategoryTransportation,
		CategoryShopping,
		CategoryEntertainment,
		CategoryFamilySupport,
		CategoryBillsUtilities,
		CategoryHealthcare,
		CategoryEducation,
		CategoryTravel,
		CategoryOther,
	}
}

// IsValidCategory 校验消费类别是否在固定集合内
func IsValidCategory(name string) bool {
	for _, c := range GetCategories() {
		if c == name {
			return true
		}
	}
	return false
}

// PaymentMethod 支付方式常量
const (
	PaymentMethodUPI  = "upi"
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
	PaymentMethodBank = "bank"
)

// GetPaymentMethods 获取所有支付方式
func GetPaymentMethods() []string {
	return []string{
		PaymentMethodUPI,
		PaymentMethodCard,
		PaymentMethodCash,
		PaymentMethodBank,
	}
}

// IsValidPaymentMethod 校验支付方式是否合法
func IsValidPaymentMethod(method string) bool {
	for _, m := range GetPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}
