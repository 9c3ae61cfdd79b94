package memory

import (
	"context"
	"sort"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
)

type DonationRepository struct {
	s *Store
}

var _ interfaces.DonationRepository = (*DonationRepository)(nil)

func copyDonation(d *model.Donation) *model.Donation {
	cp := *d
	return &cp
}

func (r *DonationRepository) Create(ctx context.Context, d *model.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextDonationID++
	d.ID = r.s.nextDonationID
	r.s.donations[d.ID] = copyDonation(d)
	return nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.donations[id]
	if !ok {
		return nil, nil
	}
	return copyDonation(d), nil
}

func (r *DonationRepository) MarkSuccessTx(ctx context.Context, t interfaces.Tx, id int64, transactionID string, at time.Time) (bool, error) {
	mt, err := r.s.txOf(t)
	if err != nil {
		return false, err
	}

	d, ok := r.s.donations[id]
	if !ok || d.Status != model.DonationPending {
		return false, nil
	}
	prev := *d
	completedAt := at
	d.Status = model.DonationSuccess
	d.TransactionID = transactionID
	d.CompletedAt = &completedAt
	mt.onRollback(func() { r.s.donations[id] = &prev })
	return true, nil
}

func (r *DonationRepository) MarkFailed(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.donations[id]
	if !ok || d.Status != model.DonationPending {
		return false, nil
	}
	completedAt := at
	d.Status = model.DonationFailed
	d.FailureReason = reason
	d.CompletedAt = &completedAt
	return true, nil
}

func (r *DonationRepository) ListByDonor(ctx context.Context, donorID, beforeID int64, limit int) ([]*model.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.Donation
	for _, d := range r.s.donations {
		if d.DonorID != donorID || (beforeID > 0 && d.ID >= beforeID) {
			continue
		}
		out = append(out, copyDonation(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
