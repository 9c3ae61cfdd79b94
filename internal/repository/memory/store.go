// Package memory 提供进程内的仓库实现，用于本地开发 (DB_DRIVER=memory) 与测试。
// 唯一约束与条件更新的语义与 MySQL 实现保持一致。
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
)

// Store 所有集合共用一把锁；事务持有该锁直到提交或回滚
type Store struct {
	mu sync.Mutex

	campaigns map[int64]*model.Campaign
	donations map[int64]*model.Donation
	receipts  map[int64]*model.Receipt
	users     map[int64]*model.User
	drafts    map[int64]*model.CampaignDraft

	receiptByDonation map[int64]int64
	receiptByNumber   map[string]int64
	userByEmail       map[string]int64

	nextCampaignID int64
	nextDonationID int64
	nextReceiptID  int64
	nextUserID     int64
}

func NewStore() *Store {
	return &Store{
		campaigns:         make(map[int64]*model.Campaign),
		donations:         make(map[int64]*model.Donation),
		receipts:          make(map[int64]*model.Receipt),
		users:             make(map[int64]*model.User),
		drafts:            make(map[int64]*model.CampaignDraft),
		receiptByDonation: make(map[int64]int64),
		receiptByNumber:   make(map[string]int64),
		userByEmail:       make(map[string]int64),
	}
}

func (s *Store) Campaigns() *CampaignRepository { return &CampaignRepository{s} }
func (s *Store) Donations() *DonationRepository { return &DonationRepository{s} }
func (s *Store) Receipts() *ReceiptRepository   { return &ReceiptRepository{s} }
func (s *Store) Users() *UserRepository         { return &UserRepository{s} }
func (s *Store) Drafts() *DraftRepository       { return &DraftRepository{s} }

type tx struct {
	s    *Store
	undo []func()
	done bool
}

// BeginTx 获取全局锁，事务之间完全串行
func (s *Store) BeginTx(ctx context.Context) (interfaces.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &tx{s: s}, nil
}

func (t *tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.s.mu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.s.mu.Unlock()
	return nil
}

func (t *tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *Store) txOf(t interfaces.Tx) (*tx, error) {
	mt, ok := t.(*tx)
	if !ok || mt.s != s {
		return nil, errors.New("transaction does not belong to this store")
	}
	if mt.done {
		return nil, sql.ErrTxDone
	}
	return mt, nil
}
