package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
// 身份由 Google 登录提供，本系统不保存密码
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GoogleSub   string         `json:"-" gorm:"size:64;uniqueIndex;not null"` // Google 账号唯一标识（sub）
	Email       string         `json:"email" gorm:"size:100;index;not null"`
	DisplayName string         `json:"display_name" gorm:"size:100"`
	AvatarURL   string         `json:"avatar_url" gorm:"size:255"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
