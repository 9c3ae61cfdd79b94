package service

import (
	"context"
	"testing"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	args := m.Called(id, role)
	return args.Bool(0), args.Error(1)
}

var _ interfaces.UserRepository = (*MockUserRepository)(nil)

func TestRegister(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := NewUserService(mockRepo, "secret", []string{"root@example.com"})
	ctx := context.Background()

	mockRepo.On("Create", mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "test@example.com" && u.Role == model.RoleDonor
	})).Return(nil).Once()

	user, err := userService.Register(ctx, RegisterInput{Name: "Test", Email: " Test@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	mockRepo.On("Create", mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "root@example.com" && u.Role == model.RoleAdmin
	})).Return(nil).Once()
	admin, err := userService.Register(ctx, RegisterInput{Name: "Root", Email: "ROOT@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	mockRepo.On("Create", mock.Anything).Return(interfaces.ErrDuplicateEmail).Once()
	_, err = userService.Register(ctx, RegisterInput{Name: "Dup", Email: "test@example.com", Password: "password123"})
	assert.True(t, errors.HasCode(err, errors.ErrResourceExists))

	mockRepo.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := NewUserService(mockRepo, "secret", nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	mockUser := &model.User{ID: 3, Email: "test@example.com", PasswordHash: string(hash), Role: model.RoleCreator}

	mockRepo.On("FindByEmail", "test@example.com").Return(mockUser, nil)
	mockRepo.On("FindByEmail", "nobody@example.com").Return(nil, nil)

	token, user, err := userService.Login(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	claims, err := util.ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, model.RoleCreator, claims.Role)

	_, _, err = userService.Login(ctx, "test@example.com", "wrong")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidCredentials))

	_, _, err = userService.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidCredentials))
}

func TestGetUserByID(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := NewUserService(mockRepo, "secret", nil)

	mockRepo.On("FindByID", int64(1)).Return(&model.User{ID: 1, Name: "A"}, nil)
	mockRepo.On("FindByID", int64(2)).Return(nil, nil)

	user, err := userService.GetUserByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "A", user.Name)

	_, err = userService.GetUserByID(context.Background(), 2)
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))
}

func TestUpdateUserRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := NewUserService(mockRepo, "secret", nil)
	ctx := context.Background()

	assert.True(t, errors.HasCode(userService.UpdateUserRole(ctx, 1, "owner"), errors.ErrValidation))

	mockRepo.On("UpdateRole", int64(1), model.RoleCreator).Return(true, nil)
	assert.NoError(t, userService.UpdateUserRole(ctx, 1, model.RoleCreator))

	mockRepo.On("UpdateRole", int64(9), model.RoleAdmin).Return(false, nil)
	mockRepo.On("FindByID", int64(9)).Return(nil, nil)
	assert.True(t, errors.HasCode(userService.UpdateUserRole(ctx, 9, model.RoleAdmin), errors.ErrResourceNotFound))

	mockRepo.AssertExpectations(t)
}
