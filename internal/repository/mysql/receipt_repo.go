package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

const receiptColumns = `id, receipt_number, donation_id, campaign_id, donor_id,
	donor_name, donor_email, donor_phone, campaign_title, beneficiary_name,
	amount, transaction_fee, net_amount, payment_method, transaction_id,
	document_url, email_sent, email_sent_at, is_tax_deductible, tax_certificate_url, issued_at`

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db}
}

var _ interfaces.ReceiptRepository = (*ReceiptRepository)(nil)

func scanReceipt(row rowScanner) (*model.Receipt, error) {
	var rc model.Receipt
	var emailSentAt sql.NullTime
	err := row.Scan(
		&rc.ID, &rc.ReceiptNumber, &rc.DonationID, &rc.CampaignID, &rc.DonorID,
		&rc.DonorName, &rc.DonorEmail, &rc.DonorPhone, &rc.CampaignTitle, &rc.BeneficiaryName,
		&rc.Amount, &rc.TransactionFee, &rc.NetAmount, &rc.PaymentMethod, &rc.TransactionID,
		&rc.DocumentURL, &rc.EmailSent, &emailSentAt, &rc.IsTaxDeductible, &rc.TaxCertificateURL, &rc.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	rc.EmailSentAt = nullTime(emailSentAt)
	return &rc, nil
}

// CreateTx 唯一索引 uk_receipts_donation 保证一笔捐款只有一张收据
func (r *ReceiptRepository) CreateTx(ctx context.Context, tx interfaces.Tx, rc *model.Receipt) error {
	stx, err := sqlTx(tx)
	if err != nil {
		return err
	}

	result, err := stx.ExecContext(ctx, `
		INSERT INTO receipts (
			receipt_number, donation_id, campaign_id, donor_id,
			donor_name, donor_email, donor_phone, campaign_title, beneficiary_name,
			amount, transaction_fee, net_amount, payment_method, transaction_id,
			is_tax_deductible, issued_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rc.ReceiptNumber, rc.DonationID, rc.CampaignID, rc.DonorID,
		rc.DonorName, rc.DonorEmail, rc.DonorPhone, rc.CampaignTitle, rc.BeneficiaryName,
		rc.Amount, rc.TransactionFee, rc.NetAmount, rc.PaymentMethod, rc.TransactionID,
		rc.IsTaxDeductible, rc.IssuedAt)
	if err != nil {
		if key, ok := duplicateKey(err); ok {
			switch key {
			case "uk_receipts_donation":
				return fmt.Errorf("%w: %v", interfaces.ErrDuplicateDonation, err)
			case "uk_receipts_number":
				return fmt.Errorf("%w: %v", interfaces.ErrDuplicateReceiptNumber, err)
			}
		}
		util.Logger.Error("插入收据失败", zap.Error(err), zap.Int64("donation_id", rc.DonationID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rc.ID = id
	return nil
}

func (r *ReceiptRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Receipt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE `+where, arg)
	rc, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		util.Logger.Error("查询收据失败", zap.Error(err))
		return nil, err
	}
	return rc, nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id int64) (*model.Receipt, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *ReceiptRepository) GetByDonationID(ctx context.Context, donationID int64) (*model.Receipt, error) {
	return r.getOne(ctx, "donation_id = ?", donationID)
}

func (r *ReceiptRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		util.Logger.Error("查询收据列表失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var receipts []*model.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

func (r *ReceiptRepository) ListByDonor(ctx context.Context, donorID int64) ([]*model.Receipt, error) {
	return r.list(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE donor_id = ? ORDER BY id DESC`, donorID)
}

func (r *ReceiptRepository) ListEmailUnsent(ctx context.Context, limit int) ([]*model.Receipt, error) {
	return r.list(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE email_sent = FALSE AND donor_email <> '' ORDER BY id ASC LIMIT ?`, limit)
}

func (r *ReceiptRepository) MarkEmailSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET email_sent = TRUE, email_sent_at = ? WHERE id = ? AND email_sent = FALSE`, at, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (r *ReceiptRepository) SetDocumentURL(ctx context.Context, id int64, url string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE receipts SET document_url = ? WHERE id = ?`, url, id)
	return err
}

func (r *ReceiptRepository) AttachTaxCertificate(ctx context.Context, id int64, url string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE receipts SET tax_certificate_url = ?
		WHERE id = ? AND is_tax_deductible = TRUE AND tax_certificate_url = ''`, url, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}
