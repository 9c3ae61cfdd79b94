package service

import (
	"context"
	"testing"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignCreateValidation(t *testing.T) {
	env := newTestEnv(t, 0, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input model.CampaignInput
	}{
		{"empty title", model.CampaignInput{Title: "   ", GoalAmount: dec("100")}},
		{"zero goal", model.CampaignInput{Title: "School", GoalAmount: dec("0")}},
		{"negative goal", model.CampaignInput{Title: "School", GoalAmount: dec("-5")}},
		{"sub-cent goal", model.CampaignInput{Title: "School", GoalAmount: dec("100.005")}},
		{"goal out of range", model.CampaignInput{Title: "School", GoalAmount: dec("1000000000000")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.campaigns.Create(ctx, 1, tt.input)
			assert.True(t, errors.HasCode(err, errors.ErrValidation), "got %v", err)
		})
	}

	id, err := env.campaigns.Create(ctx, 7, model.CampaignInput{Title: "School", GoalAmount: dec("100")})
	require.NoError(t, err)
	c, err := env.campaigns.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignPending, c.Status)
	assert.Equal(t, int64(7), c.OwnerID)
	assert.True(t, c.RaisedAmount.IsZero())
}

func TestCampaignReviewTransitions(t *testing.T) {
	env := newTestEnv(t, 0, nil, nil)
	ctx := context.Background()

	id, err := env.campaigns.Create(ctx, 1, model.CampaignInput{Title: "A", GoalAmount: dec("10")})
	require.NoError(t, err)

	require.NoError(t, env.campaigns.Approve(ctx, id))
	err = env.campaigns.Approve(ctx, id)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidState))
	err = env.campaigns.Reject(ctx, id, "late")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidState))

	other, err := env.campaigns.Create(ctx, 1, model.CampaignInput{Title: "B", GoalAmount: dec("10")})
	require.NoError(t, err)
	require.NoError(t, env.campaigns.Reject(ctx, other, "incomplete documents"))
	c, err := env.campaigns.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignRejected, c.Status)
	assert.Equal(t, "incomplete documents", c.ReviewComment)
	assert.NotNil(t, c.ReviewedAt)

	err = env.campaigns.Approve(ctx, 999)
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))
}

func TestCampaignIncrementRaised(t *testing.T) {
	env := newTestEnv(t, 0, nil, nil)
	ctx := context.Background()
	id := env.approvedCampaign(t, "1000", false)

	require.NoError(t, env.campaigns.IncrementRaised(ctx, id, dec("250.50")))
	c, err := env.campaigns.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, c.RaisedAmount.Equal(dec("250.50")))
	assert.True(t, c.Progress().Equal(dec("25.05")))

	assert.True(t, errors.HasCode(env.campaigns.IncrementRaised(ctx, id, dec("0")), errors.ErrValidation))
	assert.True(t, errors.HasCode(env.campaigns.IncrementRaised(ctx, id, dec("0.001")), errors.ErrValidation))
	assert.True(t, errors.HasCode(env.campaigns.IncrementRaised(ctx, id, dec("1000000000000")), errors.ErrValidation))
	assert.True(t, errors.HasCode(env.campaigns.IncrementRaised(ctx, 404, dec("1")), errors.ErrResourceNotFound))
}

func TestCampaignListApproved(t *testing.T) {
	env := newTestEnv(t, 0, nil, nil)
	env.campaigns.pageSize = 2
	ctx := context.Background()

	var approved []int64
	for i := 0; i < 5; i++ {
		approved = append(approved, env.approvedCampaign(t, "100", false))
	}
	_, err := env.campaigns.Create(ctx, 1, model.CampaignInput{Title: "pending", GoalAmount: dec("1")})
	require.NoError(t, err)
	require.NoError(t, env.campaigns.Archive(ctx, approved[4]))

	collect := func() []int64 {
		var ids []int64
		for c, err := range env.campaigns.ListApproved(ctx, "health") {
			require.NoError(t, err)
			ids = append(ids, c.ID)
		}
		return ids
	}
	assert.Equal(t, approved[:4], collect())
	// 再次 range 从头开始
	assert.Equal(t, approved[:4], collect())

	var first []int64
	for c := range env.campaigns.ListApproved(ctx, "") {
		first = append(first, c.ID)
		if len(first) == 3 {
			break
		}
	}
	assert.Equal(t, approved[:3], first)

	var rest []int64
	for c, err := range env.campaigns.ListApprovedAfter(ctx, "health", approved[1]) {
		require.NoError(t, err)
		rest = append(rest, c.ID)
	}
	assert.Equal(t, approved[2:4], rest)

	for range env.campaigns.ListApproved(ctx, "education") {
		t.Fatal("no campaign expected in category")
	}
}

func TestCampaignArchive(t *testing.T) {
	env := newTestEnv(t, 0, nil, nil)
	ctx := context.Background()
	id := env.approvedCampaign(t, "100", false)

	require.NoError(t, env.campaigns.Archive(ctx, id))
	require.NoError(t, env.campaigns.Archive(ctx, id))
	assert.True(t, errors.HasCode(env.campaigns.Archive(ctx, 404), errors.ErrResourceNotFound))
}
