package model

import "time"

// User 用户模型，注册后不可修改、不会删除
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;comment:用户标识" json:"id"`
	Username     string    `gorm:"size:80;not null;uniqueIndex;comment:用户名" json:"username"`
	PasswordHash string    `gorm:"size:255;not null;comment:密码哈希" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime;comment:注册时间" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
