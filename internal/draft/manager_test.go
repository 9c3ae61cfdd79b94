package draft

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCampaignCreator struct {
	mock.Mock
}

func (m *MockCampaignCreator) Create(ctx context.Context, ownerID int64, input model.CampaignInput) (int64, error) {
	args := m.Called(ownerID, input)
	return args.Get(0).(int64), args.Error(1)
}

func fields(kv map[string]string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		out[k] = json.RawMessage(v)
	}
	return out
}

func TestAutosaveFlushesDirtyDraft(t *testing.T) {
	store := memory.NewStore()
	m := NewManager(store.Drafts(), new(MockCampaignCreator), 10*time.Millisecond, time.Hour)
	defer m.Close()
	ctx := context.Background()

	d, err := m.SaveStep(ctx, 1, 1, fields(map[string]string{"title": `"Clean water"`}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Version)

	assert.Eventually(t, func() bool {
		saved, err := store.Drafts().Get(ctx, 1)
		return err == nil && saved != nil && saved.Version == 1
	}, time.Second, 5*time.Millisecond)

	_, err = m.SaveStep(ctx, 1, 2, fields(map[string]string{"goal_amount": `"1000"`}))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		saved, err := store.Drafts().Get(ctx, 1)
		return err == nil && saved != nil && saved.Version == 2 && saved.Step == 2 && len(saved.Fields) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSaveStepValidation(t *testing.T) {
	m := NewManager(memory.NewStore().Drafts(), new(MockCampaignCreator), time.Hour, time.Hour)
	defer m.Close()

	_, err := m.SaveStep(context.Background(), 1, 0, nil)
	assert.True(t, errors.HasCode(err, errors.ErrValidation))
	assert.Equal(t, 0, m.Active())
}

func TestSubmitCreatesCampaignAndDeletesDraft(t *testing.T) {
	store := memory.NewStore()
	creator := new(MockCampaignCreator)
	m := NewManager(store.Drafts(), creator, time.Hour, time.Hour)
	defer m.Close()
	ctx := context.Background()

	_, err := m.SaveStep(ctx, 7, 1, fields(map[string]string{"title": `"School roof"`, "category": `"education"`}))
	require.NoError(t, err)
	_, err = m.SaveStep(ctx, 7, 2, fields(map[string]string{"goal_amount": `"5000"`, "is_tax_deductible": `true`}))
	require.NoError(t, err)

	creator.On("Create", int64(7), mock.MatchedBy(func(in model.CampaignInput) bool {
		return in.Title == "School roof" && in.Category == "education" &&
			in.GoalAmount.String() == "5000" && in.IsTaxDeductible
	})).Return(int64(42), nil)

	id, err := m.Submit(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 0, m.Active())

	saved, err := store.Drafts().Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, saved)
	creator.AssertExpectations(t)
}

func TestConcurrentSubmitCreatesOneCampaign(t *testing.T) {
	store := memory.NewStore()
	creator := new(MockCampaignCreator)
	m := NewManager(store.Drafts(), creator, time.Hour, time.Hour)
	defer m.Close()
	ctx := context.Background()

	_, err := m.SaveStep(ctx, 7, 1, fields(map[string]string{"title": `"School roof"`, "goal_amount": `"5000"`}))
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	creator.On("Create", int64(7), mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(int64(42), nil).Once()

	type result struct {
		id  int64
		err error
	}
	first := make(chan result, 1)
	go func() {
		id, err := m.Submit(ctx, 7)
		first <- result{id, err}
	}()

	<-entered
	_, err = m.Submit(ctx, 7)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidState))

	close(release)
	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, int64(42), r.id)

	// 提交完成后草稿已删除
	_, err = m.Submit(ctx, 7)
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))
	creator.AssertNumberOfCalls(t, "Create", 1)
}

func TestSubmitKeepsDraftOnValidationError(t *testing.T) {
	store := memory.NewStore()
	creator := new(MockCampaignCreator)
	m := NewManager(store.Drafts(), creator, time.Hour, time.Hour)
	defer m.Close()
	ctx := context.Background()

	_, err := m.SaveStep(ctx, 3, 1, fields(map[string]string{"title": `""`}))
	require.NoError(t, err)
	creator.On("Create", int64(3), mock.Anything).Return(int64(0), errors.New(errors.ErrValidation, "invalid"))

	_, err = m.Submit(ctx, 3)
	assert.True(t, errors.HasCode(err, errors.ErrValidation))
	assert.Equal(t, 1, m.Active())

	_, err = m.SaveStep(ctx, 3, 1, fields(map[string]string{"goal_amount": `{}`}))
	require.NoError(t, err)
	_, err = m.Submit(ctx, 3)
	assert.True(t, errors.HasCode(err, errors.ErrValidation))
}

func TestDiscardAndSweep(t *testing.T) {
	store := memory.NewStore()
	m := NewManager(store.Drafts(), new(MockCampaignCreator), time.Hour, time.Minute)
	defer m.Close()
	ctx := context.Background()

	_, err := m.SaveStep(ctx, 1, 1, fields(map[string]string{"title": `"A"`}))
	require.NoError(t, err)
	_, err = m.SaveStep(ctx, 2, 1, fields(map[string]string{"title": `"B"`}))
	require.NoError(t, err)

	require.NoError(t, m.Discard(ctx, 1))
	_, err = m.Get(ctx, 1)
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))

	assert.Equal(t, 0, m.SweepIdle())
	m.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	assert.Equal(t, 1, m.SweepIdle())
	assert.Equal(t, 0, m.Active())

	// 会话关闭时最后一次落库，之后可以恢复
	saved, err := store.Drafts().Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.JSONEq(t, `"B"`, string(saved.Fields["title"]))

	d, err := m.SaveStep(ctx, 2, 2, fields(map[string]string{"category": `"arts"`}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Version)
	assert.Len(t, d.Fields, 2)
}
