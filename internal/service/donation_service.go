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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const donationPageSize = 50

// AsyncRunner 在请求之外执行任务；notification.Dispatcher 满足该接口
type AsyncRunner interface {
	Submit(name string, task func(ctx context.Context)) bool
}

// DonationService 捐款台账：记录、确认、失败
type DonationService struct {
	donationRepo interfaces.DonationRepository
	campaignRepo interfaces.CampaignRepository
	userRepo     interfaces.UserRepository
	transactor   interfaces.Transactor
	receipts     *ReceiptService
	async        AsyncRunner
	pageSize     int
	now          func() time.Time
}

// NewDonationService async 为 nil 时不做提交后的收据投递
func NewDonationService(
	donationRepo interfaces.DonationRepository,
	campaignRepo interfaces.CampaignRepository,
	userRepo interfaces.UserRepository,
	transactor interfaces.Transactor,
	receipts *ReceiptService,
	async AsyncRunner,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		transactor:   transactor,
		receipts:     receipts,
		async:        async,
		pageSize:     donationPageSize,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RecordPending 为已审核且未归档的活动记录一笔待支付捐款
func (s *DonationService) RecordPending(ctx context.Context, donorID, campaignID int64, amount decimal.Decimal, method string) (int64, error) {
	method = strings.TrimSpace(method)
	if !util.ValidAmount(amount) {
		return 0, errors.New(errors.ErrValidation, "amount must be positive with at most 2 decimals and below 1e12")
	}
	if method == "" {
		return 0, errors.New(errors.ErrValidation, "payment method is required")
	}

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "查询活动失败", err)
	}
	if campaign == nil {
		return 0, errors.Newf(errors.ErrResourceNotFound, "campaign %d not found", campaignID)
	}
	if !campaign.AcceptsDonations() {
		return 0, errors.Newf(errors.ErrValidation, "campaign %d is not accepting donations", campaignID)
	}

	donation := &model.Donation{
		DonorID:       donorID,
		CampaignID:    campaignID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        model.DonationPending,
		CreatedAt:     s.now(),
	}
	if err := s.donationRepo.Create(ctx, donation); err != nil {
		util.Logger.Error("记录捐款失败", zap.Error(err), zap.Int64("campaign_id", campaignID))
		return 0, errors.Wrap(errors.ErrDatabase, "记录捐款失败", err)
	}

	metrics.DonationsRecorded.Inc()
	util.Logger.Info("捐款已记录",
		zap.Int64("donation_id", donation.ID),
		zap.Int64("campaign_id", campaignID),
		zap.String("amount", amount.String()))
	return donation.ID, nil
}

func (s *DonationService) Get(ctx context.Context, id int64) (*model.Donation, error) {
	donation, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐款失败", err)
	}
	if donation == nil {
		return nil, errors.Newf(errors.ErrResourceNotFound, "donation %d not found", id)
	}
	return donation, nil
}

// MarkSuccess 确认支付成功并开具收据。
// 状态更新、收据写入、已筹金额累加在同一事务内完成；重复调用返回已有收据。
func (s *DonationService) MarkSuccess(ctx context.Context, donationID int64, providerTxnID string) (*model.Receipt, error) {
	donation, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	switch donation.Status {
	case model.DonationSuccess:
		return s.receipts.GetByDonation(ctx, donationID)
	case model.DonationFailed:
		return nil, errors.Newf(errors.ErrInvalidState, "donation %d already failed", donationID)
	}

	providerTxnID = strings.TrimSpace(providerTxnID)
	if providerTxnID == "" {
		return nil, errors.New(errors.ErrValidation, "transaction id is required")
	}

	campaign, err := s.campaignRepo.GetByID(ctx, donation.CampaignID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询活动失败", err)
	}
	if campaign == nil {
		return nil, errors.Newf(errors.ErrInternal, "campaign %d of donation %d missing", donation.CampaignID, donationID)
	}
	donor, err := s.donorSnapshot(ctx, donation.DonorID)
	if err != nil {
		return nil, err
	}

	receipt, committed, err := s.completeSuccess(ctx, donation, campaign, donor, providerTxnID)
	if err != nil {
		return nil, err
	}
	if !committed {
		// 并发确认中落败的一方，以数据库中的状态为准
		return s.resolveLostRace(ctx, donationID)
	}

	metrics.DonationOutcomes.WithLabelValues(string(model.DonationSuccess)).Inc()
	util.Logger.Info("捐款已确认",
		zap.Int64("donation_id", donationID),
		zap.String("receipt_number", receipt.ReceiptNumber))

	if s.async != nil {
		receiptID := receipt.ID
		s.async.Submit("receipt_delivery", func(ctx context.Context) {
			if err := s.receipts.Deliver(ctx, receiptID); err != nil {
				util.Logger.Error("收据投递失败", zap.Error(err), zap.Int64("receipt_id", receiptID))
			}
		})
	}
	return receipt, nil
}

// completeSuccess 执行确认事务；committed 为 false 表示条件更新未命中且事务已回滚
func (s *DonationService) completeSuccess(ctx context.Context, donation *model.Donation, campaign *model.Campaign, donor model.DonorSnapshot, providerTxnID string) (*model.Receipt, bool, error) {
	tx, err := s.transactor.BeginTx(ctx)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrDatabase, "开启事务失败", err)
	}
	rollback := func() {
		if err := tx.Rollback(); err != nil {
			util.Logger.Error("回滚事务失败", zap.Error(err), zap.Int64("donation_id", donation.ID))
		}
	}

	at := s.now()
	updated, err := s.donationRepo.MarkSuccessTx(ctx, tx, donation.ID, providerTxnID, at)
	if err != nil {
		rollback()
		return nil, false, errors.Wrap(errors.ErrDatabase, "更新捐款状态失败", err)
	}
	if !updated {
		rollback()
		return nil, false, nil
	}

	confirmed := *donation
	confirmed.Status = model.DonationSuccess
	confirmed.TransactionID = providerTxnID
	confirmed.CompletedAt = &at

	receipt, err := s.receipts.IssueTx(ctx, tx, &confirmed, campaign, donor)
	if err != nil {
		rollback()
		if errors.HasCode(err, errors.ErrDuplicate) {
			return nil, false, nil
		}
		return nil, false, err
	}

	incremented, err := s.campaignRepo.IncrementRaisedTx(ctx, tx, campaign.ID, confirmed.Amount)
	if err != nil {
		rollback()
		return nil, false, errors.Wrap(errors.ErrDatabase, "更新已筹金额失败", err)
	}
	if !incremented {
		rollback()
		return nil, false, errors.Newf(errors.ErrInternal, "campaign %d vanished during confirmation", campaign.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
	}
	return receipt, true, nil
}

func (s *DonationService) resolveLostRace(ctx context.Context, donationID int64) (*model.Receipt, error) {
	current, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if current.Status == model.DonationSuccess {
		return s.receipts.GetByDonation(ctx, donationID)
	}
	return nil, errors.Newf(errors.ErrInvalidState, "donation %d is %s", donationID, current.Status)
}

// donorSnapshot 捐赠人不存在时按匿名处理
func (s *DonationService) donorSnapshot(ctx context.Context, donorID int64) (model.DonorSnapshot, error) {
	user, err := s.userRepo.FindByID(ctx, donorID)
	if err != nil {
		return model.DonorSnapshot{}, errors.Wrap(errors.ErrDatabase, "查询捐赠人失败", err)
	}
	if user == nil {
		return model.DonorSnapshot{}, nil
	}
	return model.DonorSnapshot{Name: user.Name, Email: user.Email, Phone: user.Phone}, nil
}

// MarkFailed 仅 pending 捐款可以置为失败
func (s *DonationService) MarkFailed(ctx context.Context, donationID int64, reason string) error {
	updated, err := s.donationRepo.MarkFailed(ctx, donationID, reason, s.now())
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新捐款状态失败", err)
	}
	if !updated {
		donation, err := s.Get(ctx, donationID)
		if err != nil {
			return err
		}
		return errors.Newf(errors.ErrInvalidState, "donation %d is already %s", donationID, donation.Status)
	}

	metrics.DonationOutcomes.WithLabelValues(string(model.DonationFailed)).Inc()
	util.Logger.Info("捐款失败", zap.Int64("donation_id", donationID), zap.String("reason", reason))
	return nil
}

// ListByDonor 按时间倒序惰性读取捐赠人的捐款
func (s *DonationService) ListByDonor(ctx context.Context, donorID int64) iter.Seq2[*model.Donation, error] {
	return s.ListByDonorBefore(ctx, donorID, 0)
}

// ListByDonorBefore 从 beforeID 之前（不含）开始倒序列出，beforeID 为 0 时从最新一条开始
func (s *DonationService) ListByDonorBefore(ctx context.Context, donorID, beforeID int64) iter.Seq2[*model.Donation, error] {
	return func(yield func(*model.Donation, error) bool) {
		beforeID := beforeID
		for {
			page, err := s.donationRepo.ListByDonor(ctx, donorID, beforeID, s.pageSize)
			if err != nil {
				yield(nil, errors.Wrap(errors.ErrDatabase, "查询捐款记录失败", err))
				return
			}
			for _, d := range page {
				if !yield(d, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			beforeID = page[len(page)-1].ID
		}
	}
}
