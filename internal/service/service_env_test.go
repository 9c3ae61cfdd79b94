package service

import (
	"context"
	"testing"

	"donation-backend/internal/model"
	"donation-backend/internal/notification"
	"donation-backend/internal/repository/memory"
	"donation-backend/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, n notification.Notification) (notification.Result, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(notification.Result), args.Error(1)
}

// inlineRunner 在调用方协程中直接执行任务
type inlineRunner struct{}

func (inlineRunner) Submit(name string, task func(ctx context.Context)) bool {
	task(context.Background())
	return true
}

type testEnv struct {
	store     *memory.Store
	campaigns *CampaignService
	receipts  *ReceiptService
	donations *DonationService
}

func newTestEnv(t *testing.T, feePercent float64, notifier Notifier, async AsyncRunner) *testEnv {
	t.Helper()
	store := memory.NewStore()
	files, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	receipts := NewReceiptService(store.Receipts(), store, files, notifier, feePercent)
	return &testEnv{
		store:     store,
		campaigns: NewCampaignService(store.Campaigns(), nil),
		receipts:  receipts,
		donations: NewDonationService(store.Donations(), store.Campaigns(), store.Users(), store, receipts, async),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// approvedCampaign 创建并审核通过一个活动
func (e *testEnv) approvedCampaign(t *testing.T, goal string, taxDeductible bool) int64 {
	t.Helper()
	id, err := e.campaigns.Create(context.Background(), 1, model.CampaignInput{
		Title:           "Clean water",
		Category:        "health",
		BeneficiaryName: "Village council",
		GoalAmount:      dec(goal),
		IsTaxDeductible: taxDeductible,
	})
	require.NoError(t, err)
	require.NoError(t, e.campaigns.Approve(context.Background(), id))
	return id
}

func (e *testEnv) donor(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{Name: "Donor", Email: email, Phone: "123", Role: model.RoleDonor}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}
