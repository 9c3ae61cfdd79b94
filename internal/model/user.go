package model

import "time"

const (
	RoleDonor   = "donor"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

// User 结构体表示用户模型
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"` // 密码哈希不应在JSON中暴露
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal 当前调用者身份，由认证中间件从令牌解析
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
