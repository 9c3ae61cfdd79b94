package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// UserServiceInterface 定义了用户服务的方法
type UserServiceInterface interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserRole(ctx context.Context, id int64, role string) error
}

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo    interfaces.UserRepository
	jwtSecret   string
	adminEmails map[string]struct{}
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)

// NewUserService adminEmails 中的邮箱注册时直接获得管理员角色
func NewUserService(userRepo interfaces.UserRepository, jwtSecret string, adminEmails []string) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &UserService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		adminEmails: admins,
	}
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// 生成密码哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	role := model.RoleDonor
	if _, ok := s.adminEmails[email]; ok {
		role = model.RoleAdmin
	}

	now := time.Now().UTC()
	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, interfaces.ErrDuplicateEmail) {
			return nil, errors.New(errors.ErrResourceExists, "email already registered")
		}
		return nil, errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}

	util.Logger.Info("用户注册成功", zap.Int64("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// Login 校验密码并签发令牌
func (s *UserService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		util.Logger.Info("用户登录失败，未找到用户", zap.String("email", email))
		return "", nil, errors.New(errors.ErrInvalidCredentials, "invalid email or password")
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("用户登录失败，密码不正确", zap.Int64("user_id", user.ID))
		return "", nil, errors.New(errors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := util.GenerateToken(s.jwtSecret, user.ID, user.Role)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInternal, "生成令牌失败", err)
	}

	util.Logger.Info("用户登录成功", zap.Int64("user_id", user.ID))
	return token, user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "user not found")
	}
	return user, nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, id int64, role string) error {
	switch role {
	case model.RoleDonor, model.RoleCreator, model.RoleAdmin:
	default:
		return errors.Newf(errors.ErrValidation, "invalid role %q", role)
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新用户角色失败", err)
	}
	if !updated {
		// MySQL 在值未变化时返回 0 行，需要确认用户是否存在
		if _, err := s.GetUserByID(ctx, id); err != nil {
			return err
		}
	}

	util.Logger.Info("用户角色已更新", zap.Int64("user_id", id), zap.String("role", role))
	return nil
}
