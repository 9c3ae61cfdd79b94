package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

const donationColumns = `id, donor_id, campaign_id, amount, payment_method, transaction_id,
	status, failure_reason, created_at, completed_at`

type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db}
}

var _ interfaces.DonationRepository = (*DonationRepository)(nil)

func scanDonation(row rowScanner) (*model.Donation, error) {
	var d model.Donation
	var completedAt sql.NullTime
	err := row.Scan(
		&d.ID, &d.DonorID, &d.CampaignID, &d.Amount, &d.PaymentMethod, &d.TransactionID,
		&d.Status, &d.FailureReason, &d.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	d.CompletedAt = nullTime(completedAt)
	return &d, nil
}

// Create 插入一条 pending 捐款记录
func (r *DonationRepository) Create(ctx context.Context, d *model.Donation) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO donations (donor_id, campaign_id, amount, payment_method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.DonorID, d.CampaignID, d.Amount, d.PaymentMethod, d.Status, d.CreatedAt)
	if err != nil {
		util.Logger.Error("创建捐款记录失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取捐款ID失败", zap.Error(err))
		return err
	}
	d.ID = id
	return nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id)
	d, err := scanDonation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		util.Logger.Error("获取捐款记录失败", zap.Error(err), zap.Int64("donation_id", id))
		return nil, err
	}
	return d, nil
}

// MarkSuccessTx 条件更新会对行加锁，并发回调中只有一个事务能看到 1 行受影响
func (r *DonationRepository) MarkSuccessTx(ctx context.Context, tx interfaces.Tx, id int64, transactionID string, at time.Time) (bool, error) {
	stx, err := sqlTx(tx)
	if err != nil {
		return false, err
	}
	result, err := stx.ExecContext(ctx, `
		UPDATE donations
		SET status = ?, transaction_id = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		model.DonationSuccess, transactionID, at, id, model.DonationPending)
	if err != nil {
		util.Logger.Error("更新捐款状态失败", zap.Error(err), zap.Int64("donation_id", id))
		return false, err
	}
	return affected(result)
}

func (r *DonationRepository) MarkFailed(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE donations
		SET status = ?, failure_reason = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		model.DonationFailed, reason, at, id, model.DonationPending)
	if err != nil {
		util.Logger.Error("更新捐款状态失败", zap.Error(err), zap.Int64("donation_id", id))
		return false, err
	}
	return affected(result)
}

func (r *DonationRepository) ListByDonor(ctx context.Context, donorID, beforeID int64, limit int) ([]*model.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_id = ?`
	args := []interface{}{donorID}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		util.Logger.Error("查询捐款列表失败", zap.Error(err), zap.Int64("donor_id", donorID))
		return nil, err
	}
	defer rows.Close()

	var donations []*model.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}
