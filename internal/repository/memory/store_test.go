package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCampaign(t *testing.T, s *Store) *model.Campaign {
	t.Helper()
	c := &model.Campaign{
		OwnerID:    1,
		Title:      "Clean water",
		GoalAmount: decimal.NewFromInt(10000),
		Status:     model.CampaignApproved,
	}
	require.NoError(t, s.Campaigns().Create(context.Background(), c))
	return c
}

func TestRollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := seedCampaign(t, s)
	d := &model.Donation{DonorID: 2, CampaignID: c.ID, Amount: decimal.NewFromInt(100), Status: model.DonationPending}
	require.NoError(t, s.Donations().Create(ctx, d))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	ok, err := s.Donations().MarkSuccessTx(ctx, tx, d.ID, "txn-1", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Receipts().CreateTx(ctx, tx, &model.Receipt{DonationID: d.ID, ReceiptNumber: "RCPT-1"}))
	ok, err = s.Campaigns().IncrementRaisedTx(ctx, tx, c.ID, d.Amount)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, tx.Commit(), sql.ErrTxDone)

	got, err := s.Donations().GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DonationPending, got.Status)

	rc, err := s.Receipts().GetByDonationID(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, rc)

	campaign, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, campaign.RaisedAmount.IsZero())
}

func TestReceiptUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Receipts().CreateTx(ctx, tx, &model.Receipt{DonationID: 1, ReceiptNumber: "RCPT-A"}))
	assert.ErrorIs(t, s.Receipts().CreateTx(ctx, tx, &model.Receipt{DonationID: 1, ReceiptNumber: "RCPT-B"}), interfaces.ErrDuplicateDonation)
	assert.ErrorIs(t, s.Receipts().CreateTx(ctx, tx, &model.Receipt{DonationID: 2, ReceiptNumber: "RCPT-A"}), interfaces.ErrDuplicateReceiptNumber)
	require.NoError(t, tx.Commit())
}

func TestConditionalUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := &model.Campaign{Title: "School books", GoalAmount: decimal.NewFromInt(500), Status: model.CampaignPending}
	require.NoError(t, s.Campaigns().Create(ctx, c))

	ok, err := s.Campaigns().Review(ctx, c.ID, model.CampaignApproved, "", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Campaigns().Review(ctx, c.ID, model.CampaignRejected, "", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	d := &model.Donation{CampaignID: c.ID, Amount: decimal.NewFromInt(5), Status: model.DonationPending}
	require.NoError(t, s.Donations().Create(ctx, d))
	ok, err = s.Donations().MarkFailed(ctx, d.ID, "declined", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Donations().MarkFailed(ctx, d.ID, "declined", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListApprovedPaging(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i := 0; i < 5; i++ {
		category := "health"
		if i%2 == 1 {
			category = "education"
		}
		require.NoError(t, s.Campaigns().Create(ctx, &model.Campaign{
			Title: "c", Category: category, GoalAmount: decimal.NewFromInt(1), Status: model.CampaignApproved,
		}))
	}
	_, err := s.Campaigns().Archive(ctx, 5, time.Now())
	require.NoError(t, err)

	page, err := s.Campaigns().ListApproved(ctx, "", 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(1), page[0].ID)

	page, err = s.Campaigns().ListApproved(ctx, "health", 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)
}

func TestDraftVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Drafts().Save(ctx, &model.CampaignDraft{OwnerID: 7, Step: 2, Version: 2}))
	require.NoError(t, s.Drafts().Save(ctx, &model.CampaignDraft{OwnerID: 7, Step: 1, Version: 1}))

	d, err := s.Drafts().Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Step)
}
