package memory

import (
	"context"
	"sort"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
)

type ReceiptRepository struct {
	s *Store
}

var _ interfaces.ReceiptRepository = (*ReceiptRepository)(nil)

func copyReceipt(rc *model.Receipt) *model.Receipt {
	cp := *rc
	return &cp
}

func (r *ReceiptRepository) CreateTx(ctx context.Context, t interfaces.Tx, rc *model.Receipt) error {
	mt, err := r.s.txOf(t)
	if err != nil {
		return err
	}
	if _, exists := r.s.receiptByDonation[rc.DonationID]; exists {
		return interfaces.ErrDuplicateDonation
	}
	if _, exists := r.s.receiptByNumber[rc.ReceiptNumber]; exists {
		return interfaces.ErrDuplicateReceiptNumber
	}

	r.s.nextReceiptID++
	rc.ID = r.s.nextReceiptID
	r.s.receipts[rc.ID] = copyReceipt(rc)
	r.s.receiptByDonation[rc.DonationID] = rc.ID
	r.s.receiptByNumber[rc.ReceiptNumber] = rc.ID

	id, donationID, number := rc.ID, rc.DonationID, rc.ReceiptNumber
	mt.onRollback(func() {
		delete(r.s.receipts, id)
		delete(r.s.receiptByDonation, donationID)
		delete(r.s.receiptByNumber, number)
	})
	return nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id int64) (*model.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, nil
	}
	return copyReceipt(rc), nil
}

func (r *ReceiptRepository) GetByDonationID(ctx context.Context, donationID int64) (*model.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.receiptByDonation[donationID]
	if !ok {
		return nil, nil
	}
	return copyReceipt(r.s.receipts[id]), nil
}

func (r *ReceiptRepository) filter(keep func(*model.Receipt) bool, desc bool) []*model.Receipt {
	var out []*model.Receipt
	for _, rc := range r.s.receipts {
		if keep(rc) {
			out = append(out, copyReceipt(rc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *ReceiptRepository) ListByDonor(ctx context.Context, donorID int64) ([]*model.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.filter(func(rc *model.Receipt) bool { return rc.DonorID == donorID }, true), nil
}

func (r *ReceiptRepository) ListEmailUnsent(ctx context.Context, limit int) ([]*model.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.filter(func(rc *model.Receipt) bool { return !rc.EmailSent && rc.DonorEmail != "" }, false)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReceiptRepository) MarkEmailSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rc, ok := r.s.receipts[id]
	if !ok || rc.EmailSent {
		return false, nil
	}
	sentAt := at
	rc.EmailSent = true
	rc.EmailSentAt = &sentAt
	return true, nil
}

func (r *ReceiptRepository) SetDocumentURL(ctx context.Context, id int64, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rc, ok := r.s.receipts[id]; ok {
		rc.DocumentURL = url
	}
	return nil
}

func (r *ReceiptRepository) AttachTaxCertificate(ctx context.Context, id int64, url string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rc, ok := r.s.receipts[id]
	if !ok || !rc.IsTaxDeductible || rc.TaxCertificateURL != "" {
		return false, nil
	}
	rc.TaxCertificateURL = url
	return true, nil
}
