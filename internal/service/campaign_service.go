package service

import (
	"context"
	"iter"
	"strings"
	"time"

	"donation-backend/internal/errors"
	"donation-backend/internal/metrics"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const campaignPageSize = 50

// CampaignService 活动登记：创建、审核、已筹金额计数
type CampaignService struct {
	campaignRepo interfaces.CampaignRepository
	validate     *validator.Validate
	pageSize     int
	now          func() time.Time
}

func NewCampaignService(campaignRepo interfaces.CampaignRepository, validate *validator.Validate) *CampaignService {
	if validate == nil {
		validate = util.NewValidator()
	}
	return &CampaignService{
		campaignRepo: campaignRepo,
		validate:     validate,
		pageSize:     campaignPageSize,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建待审核的活动
func (s *CampaignService) Create(ctx context.Context, ownerID int64, input model.CampaignInput) (int64, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validate.Struct(input); err != nil {
		return 0, errors.Wrap(errors.ErrValidation, "活动信息不合法", err)
	}

	now := s.now()
	campaign := &model.Campaign{
		OwnerID:          ownerID,
		Title:            input.Title,
		ShortDescription: input.ShortDescription,
		Category:         input.Category,
		BeneficiaryName:  input.BeneficiaryName,
		GoalAmount:       input.GoalAmount,
		RaisedAmount:     decimal.Zero,
		Status:           model.CampaignPending,
		IsTaxDeductible:  input.IsTaxDeductible,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		util.Logger.Error("创建活动失败", zap.Error(err), zap.Int64("owner_id", ownerID))
		return 0, errors.Wrap(errors.ErrDatabase, "创建活动失败", err)
	}

	util.Logger.Info("活动已创建", zap.Int64("campaign_id", campaign.ID), zap.Int64("owner_id", ownerID))
	return campaign.ID, nil
}

func (s *CampaignService) Get(ctx context.Context, id int64) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询活动失败", err)
	}
	if campaign == nil {
		return nil, errors.Newf(errors.ErrResourceNotFound, "campaign %d not found", id)
	}
	return campaign, nil
}

func (s *CampaignService) Approve(ctx context.Context, id int64) error {
	return s.review(ctx, id, model.CampaignApproved, "")
}

func (s *CampaignService) Reject(ctx context.Context, id int64, comment string) error {
	return s.review(ctx, id, model.CampaignRejected, comment)
}

// review 审核只能从 pending 发生一次，由存储层的条件更新保证
func (s *CampaignService) review(ctx context.Context, id int64, status model.CampaignStatus, comment string) error {
	updated, err := s.campaignRepo.Review(ctx, id, status, comment, s.now())
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新审核状态失败", err)
	}
	if !updated {
		campaign, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		return errors.Newf(errors.ErrInvalidState, "campaign %d is already %s", id, campaign.Status)
	}

	metrics.ModerationDecisions.WithLabelValues(string(status)).Inc()
	util.Logger.Info("活动审核完成", zap.Int64("campaign_id", id), zap.String("status", string(status)))
	return nil
}

// IncrementRaised 原子增加已筹金额
func (s *CampaignService) IncrementRaised(ctx context.Context, id int64, amount decimal.Decimal) error {
	if !util.ValidAmount(amount) {
		return errors.New(errors.ErrValidation, "amount must be positive with at most 2 decimals and below 1e12")
	}
	updated, err := s.campaignRepo.IncrementRaised(ctx, id, amount)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新已筹金额失败", err)
	}
	if !updated {
		return errors.Newf(errors.ErrResourceNotFound, "campaign %d not found", id)
	}
	util.Logger.Info("已筹金额已增加", zap.Int64("campaign_id", id), zap.String("amount", amount.String()))
	return nil
}

// Archive 归档后活动不再展示也不再接受捐款，重复归档视为成功
func (s *CampaignService) Archive(ctx context.Context, id int64) error {
	updated, err := s.campaignRepo.Archive(ctx, id, s.now())
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "归档活动失败", err)
	}
	if !updated {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListApproved 按页惰性读取已审核活动；每次 range 都从头查询
func (s *CampaignService) ListApproved(ctx context.Context, category string) iter.Seq2[*model.Campaign, error] {
	return s.ListApprovedAfter(ctx, category, 0)
}

// ListApprovedAfter 从 afterID 之后（不含）继续列出
func (s *CampaignService) ListApprovedAfter(ctx context.Context, category string, afterID int64) iter.Seq2[*model.Campaign, error] {
	return func(yield func(*model.Campaign, error) bool) {
		afterID := afterID
		for {
			page, err := s.campaignRepo.ListApproved(ctx, category, afterID, s.pageSize)
			if err != nil {
				yield(nil, errors.Wrap(errors.ErrDatabase, "查询活动列表失败", err))
				return
			}
			for _, c := range page {
				if !yield(c, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			afterID = page[len(page)-1].ID
		}
	}
}
