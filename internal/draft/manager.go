package draft

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

// CampaignCreator 提交草稿时创建活动；service.CampaignService 满足该接口
type CampaignCreator interface {
	Create(ctx context.Context, ownerID int64, input model.CampaignInput) (int64, error)
}

// Manager 管理创建向导的服务端会话，每个用户一个会话
type Manager struct {
	repo     interfaces.DraftRepository
	creator  CampaignCreator
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time

	mu         sync.Mutex
	sessions   map[int64]*session
	submitting map[int64]bool
}

type session struct {
	mu         sync.Mutex
	draft      *model.CampaignDraft
	dirty      bool
	lastActive time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(repo interfaces.DraftRepository, creator CampaignCreator, interval, ttl time.Duration) *Manager {
	return &Manager{
		repo:       repo,
		creator:    creator,
		interval:   interval,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
		sessions:   make(map[int64]*session),
		submitting: make(map[int64]bool),
	}
}

// SaveStep 合并某一步的字段到草稿，由自动保存协程异步落库
func (m *Manager) SaveStep(ctx context.Context, ownerID int64, step int, fields map[string]json.RawMessage) (*model.CampaignDraft, error) {
	if step < 1 {
		return nil, errors.New(errors.ErrValidation, "step must be positive")
	}
	s, err := m.session(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range fields {
		s.draft.Fields[k] = append(json.RawMessage(nil), v...)
	}
	if step > s.draft.Step {
		s.draft.Step = step
	}
	s.draft.Version++
	s.draft.UpdatedAt = m.now()
	s.dirty = true
	s.lastActive = s.draft.UpdatedAt
	return s.draft.Clone(), nil
}

// Get 返回当前草稿，会话不存在时从存储恢复
func (m *Manager) Get(ctx context.Context, ownerID int64) (*model.CampaignDraft, error) {
	m.mu.Lock()
	s, ok := m.sessions[ownerID]
	m.mu.Unlock()
	if ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.draft.Clone(), nil
	}

	d, err := m.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询草稿失败", err)
	}
	if d == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "draft not found")
	}
	return d, nil
}

// Submit 用草稿创建活动；校验失败时草稿保留。同一用户同时只允许一个提交
func (m *Manager) Submit(ctx context.Context, ownerID int64) (int64, error) {
	m.mu.Lock()
	if m.submitting[ownerID] {
		m.mu.Unlock()
		return 0, errors.New(errors.ErrInvalidState, "draft is already being submitted")
	}
	m.submitting[ownerID] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.submitting, ownerID)
		m.mu.Unlock()
	}()

	d, err := m.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	input, err := decodeInput(d)
	if err != nil {
		return 0, err
	}
	campaignID, err := m.creator.Create(ctx, ownerID, input)
	if err != nil {
		return 0, err
	}

	m.close(ownerID, false)
	if err := m.repo.Delete(ctx, ownerID); err != nil {
		util.Logger.Error("删除草稿失败", zap.Error(err), zap.Int64("owner_id", ownerID))
	}
	util.Logger.Info("草稿已提交", zap.Int64("owner_id", ownerID), zap.Int64("campaign_id", campaignID))
	return campaignID, nil
}

// Discard 放弃草稿
func (m *Manager) Discard(ctx context.Context, ownerID int64) error {
	m.close(ownerID, false)
	if err := m.repo.Delete(ctx, ownerID); err != nil {
		return errors.Wrap(errors.ErrDatabase, "删除草稿失败", err)
	}
	return nil
}

// SweepIdle 落库并关闭超过 TTL 未活动的会话，返回关闭数量
func (m *Manager) SweepIdle() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var idle []int64
	for ownerID, s := range m.sessions {
		s.mu.Lock()
		if s.lastActive.Before(cutoff) {
			idle = append(idle, ownerID)
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()

	for _, ownerID := range idle {
		m.close(ownerID, true)
	}
	return len(idle)
}

// Close 落库并关闭全部会话
func (m *Manager) Close() {
	m.mu.Lock()
	owners := make([]int64, 0, len(m.sessions))
	for ownerID := range m.sessions {
		owners = append(owners, ownerID)
	}
	m.mu.Unlock()

	for _, ownerID := range owners {
		m.close(ownerID, true)
	}
}

// Active 当前会话数量
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) session(ctx context.Context, ownerID int64) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[ownerID]; ok {
		return s, nil
	}

	d, err := m.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询草稿失败", err)
	}
	if d == nil {
		d = &model.CampaignDraft{OwnerID: ownerID, Fields: map[string]json.RawMessage{}}
	}
	if d.Fields == nil {
		d.Fields = map[string]json.RawMessage{}
	}

	autosaveCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		draft:      d,
		lastActive: m.now(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	m.sessions[ownerID] = s
	go m.autosave(autosaveCtx, s)
	return s, nil
}

// autosave 定时把脏草稿写入存储，会话取消后退出
func (m *Manager) autosave(ctx context.Context, s *session) {
	defer close(s.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.flush(ctx, s); err != nil {
				util.Logger.Warn("自动保存草稿失败", zap.Error(err), zap.Int64("owner_id", s.draft.OwnerID))
			}
		}
	}
}

func (m *Manager) flush(ctx context.Context, s *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := m.repo.Save(ctx, s.draft.Clone()); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// close 停止自动保存；persist 为 true 时最后落库一次
func (m *Manager) close(ownerID int64, persist bool) {
	m.mu.Lock()
	s, ok := m.sessions[ownerID]
	delete(m.sessions, ownerID)
	m.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	<-s.done
	if persist {
		if err := m.flush(context.Background(), s); err != nil {
			util.Logger.Error("保存草稿失败", zap.Error(err), zap.Int64("owner_id", ownerID))
		}
	}
}

func decodeInput(d *model.CampaignDraft) (model.CampaignInput, error) {
	var input model.CampaignInput
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return input, errors.Wrap(errors.ErrInternal, "序列化草稿失败", err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, errors.Wrap(errors.ErrValidation, "草稿字段格式错误", err)
	}
	return input, nil
}
