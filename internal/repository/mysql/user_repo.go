package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

// UserRepository 实现了 interfaces.UserRepository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

var _ interfaces.UserRepository = (*UserRepository)(nil)

// Create 创建一个新用户
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.Phone, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if _, ok := duplicateKey(err); ok {
			return fmt.Errorf("%w: %v", interfaces.ErrDuplicateEmail, err)
		}
		util.Logger.Error("创建用户失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return err
	}
	user.ID = id
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, password_hash, role, created_at, updated_at
		FROM users WHERE `+where, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		util.Logger.Error("查找用户失败", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// FindByID 通过ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail 通过邮箱查找用户
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// UpdateRole 更新用户角色
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	return affected(result)
}
