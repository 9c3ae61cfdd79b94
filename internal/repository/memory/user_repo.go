package memory

import (
	"context"
	"strings"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
)

type UserRepository struct {
	s *Store
}

var _ interfaces.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := r.s.userByEmail[key]; exists {
		return interfaces.ErrDuplicateEmail
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	cp := *user
	r.s.users[user.ID] = &cp
	r.s.userByEmail[key] = user.ID
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.userByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}
