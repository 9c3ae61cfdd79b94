package memory

import (
	"context"
	"sort"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"

	"github.com/shopspring/decimal"
)

type CampaignRepository struct {
	s *Store
}

var _ interfaces.CampaignRepository = (*CampaignRepository)(nil)

func copyCampaign(c *model.Campaign) *model.Campaign {
	cp := *c
	return &cp
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextCampaignID++
	c.ID = r.s.nextCampaignID
	r.s.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, nil
	}
	return copyCampaign(c), nil
}

func (r *CampaignRepository) Review(ctx context.Context, id int64, status model.CampaignStatus, comment string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok || c.Status != model.CampaignPending {
		return false, nil
	}
	reviewedAt := at
	c.Status = status
	c.ReviewComment = comment
	c.ReviewedAt = &reviewedAt
	c.UpdatedAt = at
	return true, nil
}

func (r *CampaignRepository) increment(id int64, amount decimal.Decimal) (*model.Campaign, bool) {
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, false
	}
	prev := *c
	c.RaisedAmount = c.RaisedAmount.Add(amount)
	c.UpdatedAt = time.Now().UTC()
	return &prev, true
}

func (r *CampaignRepository) IncrementRaised(ctx context.Context, id int64, amount decimal.Decimal) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.increment(id, amount)
	return ok, nil
}

func (r *CampaignRepository) IncrementRaisedTx(ctx context.Context, t interfaces.Tx, id int64, amount decimal.Decimal) (bool, error) {
	mt, err := r.s.txOf(t)
	if err != nil {
		return false, err
	}
	prev, ok := r.increment(id, amount)
	if ok {
		mt.onRollback(func() { r.s.campaigns[id] = prev })
	}
	return ok, nil
}

func (r *CampaignRepository) Archive(ctx context.Context, id int64, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok || c.Archived {
		return false, nil
	}
	c.Archived = true
	c.UpdatedAt = at
	return true, nil
}

func (r *CampaignRepository) ListApproved(ctx context.Context, category string, afterID int64, limit int) ([]*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.Campaign
	for _, c := range r.s.campaigns {
		if c.ID <= afterID || c.Status != model.CampaignApproved || c.Archived {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		out = append(out, copyCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
