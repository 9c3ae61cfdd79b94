package service

import (
	"context"
	"testing"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCampaignReviewer struct {
	mock.Mock
}

func (m *MockCampaignReviewer) Approve(ctx context.Context, id int64) error {
	return m.Called(id).Error(0)
}

func (m *MockCampaignReviewer) Reject(ctx context.Context, id int64, comment string) error {
	return m.Called(id, comment).Error(0)
}

func TestModerationRequiresAdmin(t *testing.T) {
	reviewer := new(MockCampaignReviewer)
	gate := NewModerationService(reviewer)
	ctx := context.Background()

	donor := model.Principal{UserID: 2, Role: model.RoleDonor}
	assert.True(t, errors.HasCode(gate.Approve(ctx, donor, 1), errors.ErrForbidden))
	assert.True(t, errors.HasCode(gate.Reject(ctx, donor, 1, "no"), errors.ErrForbidden))
	reviewer.AssertNotCalled(t, "Approve", mock.Anything)
	reviewer.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything)

	admin := model.Principal{UserID: 1, Role: model.RoleAdmin}
	reviewer.On("Approve", int64(1)).Return(nil)
	reviewer.On("Reject", int64(2), "spam").Return(nil)
	assert.NoError(t, gate.Approve(ctx, admin, 1))
	assert.NoError(t, gate.Reject(ctx, admin, 2, "spam"))
	reviewer.AssertExpectations(t)
}

func TestModerationWithRegistry(t *testing.T) {
	env := newTestEnv(t, 0, nil, nil)
	gate := NewModerationService(env.campaigns)
	ctx := context.Background()
	admin := model.Principal{UserID: 1, Role: model.RoleAdmin}

	id, err := env.campaigns.Create(ctx, 1, model.CampaignInput{Title: "Gate", GoalAmount: dec("10")})
	require.NoError(t, err)

	require.NoError(t, gate.Approve(ctx, admin, id))
	assert.True(t, errors.HasCode(gate.Reject(ctx, admin, id, "late"), errors.ErrInvalidState))
}
