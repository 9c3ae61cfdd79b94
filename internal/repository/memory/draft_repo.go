package memory

import (
	"context"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
)

type DraftRepository struct {
	s *Store
}

var _ interfaces.DraftRepository = (*DraftRepository)(nil)

func (r *DraftRepository) Save(ctx context.Context, d *model.CampaignDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if cur, ok := r.s.drafts[d.OwnerID]; ok && cur.Version >= d.Version {
		return nil
	}
	r.s.drafts[d.OwnerID] = d.Clone()
	return nil
}

func (r *DraftRepository) Get(ctx context.Context, ownerID int64) (*model.CampaignDraft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drafts[ownerID]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

func (r *DraftRepository) Delete(ctx context.Context, ownerID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.drafts, ownerID)
	return nil
}
