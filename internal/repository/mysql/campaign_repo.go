package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const campaignColumns = `id, owner_id, title, short_description, category, beneficiary_name,
	goal_amount, raised_amount, status, review_comment, is_tax_deductible, archived,
	created_at, updated_at, reviewed_at`

// CampaignRepository 实现了活动相关的数据库操作
type CampaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository 创建一个新的 CampaignRepository 实例
func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db}
}

var _ interfaces.CampaignRepository = (*CampaignRepository)(nil)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var reviewedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.ShortDescription, &c.Category, &c.BeneficiaryName,
		&c.GoalAmount, &c.RaisedAmount, &c.Status, &c.ReviewComment, &c.IsTaxDeductible, &c.Archived,
		&c.CreatedAt, &c.UpdatedAt, &reviewedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ReviewedAt = nullTime(reviewedAt)
	return &c, nil
}

// Create 插入新活动
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (
			owner_id, title, short_description, category, beneficiary_name,
			goal_amount, raised_amount, status, is_tax_deductible, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.OwnerID, c.Title, c.ShortDescription, c.Category, c.BeneficiaryName,
		c.GoalAmount, c.RaisedAmount, c.Status, c.IsTaxDeductible, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		util.Logger.Error("插入活动失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取活动ID失败", zap.Error(err))
		return err
	}
	c.ID = id
	return nil
}

// GetByID 通过ID获取活动
func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		util.Logger.Error("获取活动失败", zap.Error(err), zap.Int64("campaign_id", id))
		return nil, err
	}
	return c, nil
}

// Review 以 status = 'pending' 为条件更新，保证审核只发生一次
func (r *CampaignRepository) Review(ctx context.Context, id int64, status model.CampaignStatus, comment string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = ?, review_comment = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, comment, at, at, id, model.CampaignPending)
	if err != nil {
		util.Logger.Error("更新活动审核状态失败", zap.Error(err), zap.Int64("campaign_id", id))
		return false, err
	}
	return affected(result)
}

const incrementRaisedQuery = `
	UPDATE campaigns
	SET raised_amount = raised_amount + ?, updated_at = ?
	WHERE id = ?`

// IncrementRaised 原子累加已筹金额
func (r *CampaignRepository) IncrementRaised(ctx context.Context, id int64, amount decimal.Decimal) (bool, error) {
	result, err := r.db.ExecContext(ctx, incrementRaisedQuery, amount, time.Now().UTC(), id)
	if err != nil {
		util.Logger.Error("更新活动金额失败", zap.Error(err), zap.Int64("campaign_id", id))
		return false, err
	}
	return affected(result)
}

// IncrementRaisedTx 在事务中原子累加已筹金额
func (r *CampaignRepository) IncrementRaisedTx(ctx context.Context, tx interfaces.Tx, id int64, amount decimal.Decimal) (bool, error) {
	stx, err := sqlTx(tx)
	if err != nil {
		return false, err
	}
	result, err := stx.ExecContext(ctx, incrementRaisedQuery, amount, time.Now().UTC(), id)
	if err != nil {
		util.Logger.Error("更新活动金额失败", zap.Error(err), zap.Int64("campaign_id", id))
		return false, err
	}
	return affected(result)
}

// Archive 归档活动
func (r *CampaignRepository) Archive(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET archived = TRUE, updated_at = ? WHERE id = ? AND archived = FALSE`, at, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// ListApproved 键集分页查询已审核活动
func (r *CampaignRepository) ListApproved(ctx context.Context, category string, afterID int64, limit int) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE status = ? AND archived = FALSE AND id > ?`
	args := []interface{}{model.CampaignApproved, afterID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		util.Logger.Error("查询活动列表失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var campaigns []*model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
