package interfaces

import (
	"context"

	"donation-backend/internal/model"
)

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	// Create 邮箱重复时返回 ErrDuplicateEmail
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateRole(ctx context.Context, id int64, role string) (bool, error)
}
