package dto

import "time"

// LoginRequest 登录请求（JSON 或表单）
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=80"`
	Password string `json:"password" form:"password" binding:"required,max=255"`
}

// RegisterRequest 注册请求（JSON 或表单）
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=80"`
	Password string `json:"password" form:"password" binding:"required,max=255"`
}

// TokenData 登录成功返回的会话令牌
type TokenData struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo 用户公开信息（不含密码）
type UserInfo struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionInfo 当前会话信息
type SessionInfo struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
