package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"donation-backend/internal/errors"
	"donation-backend/internal/metrics"
	"donation-backend/internal/model"
	"donation-backend/internal/notification"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/storage"
	"donation-backend/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier 发送通知；notification.Dispatcher 满足该接口
type Notifier interface {
	Send(ctx context.Context, n notification.Notification) (notification.Result, error)
}

// ReceiptService 收据开具与后续投递
type ReceiptService struct {
	receiptRepo interfaces.ReceiptRepository
	transactor  interfaces.Transactor
	storage     storage.Storage
	notifier    Notifier
	feePercent  decimal.Decimal
	now         func() time.Time
}

// NewReceiptService storage 与 notifier 可以为 nil，此时跳过文档生成或邮件发送
func NewReceiptService(receiptRepo interfaces.ReceiptRepository, transactor interfaces.Transactor, store storage.Storage, notifier Notifier, feePercent float64) *ReceiptService {
	return &ReceiptService{
		receiptRepo: receiptRepo,
		transactor:  transactor,
		storage:     store,
		notifier:    notifier,
		feePercent:  decimal.NewFromFloat(feePercent),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Fee 按费率计算手续费，保留两位小数
func (s *ReceiptService) Fee(amount decimal.Decimal) decimal.Decimal {
	if s.feePercent.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(s.feePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Issue 在独立事务中为成功的捐款开具收据
func (s *ReceiptService) Issue(ctx context.Context, donation *model.Donation, campaign *model.Campaign, donor model.DonorSnapshot) (*model.Receipt, error) {
	tx, err := s.transactor.BeginTx(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "开启事务失败", err)
	}
	receipt, err := s.IssueTx(ctx, tx, donation, campaign, donor)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "提交收据失败", err)
	}
	return receipt, nil
}

// IssueTx 在调用方事务中写入收据；唯一性只依赖存储层唯一索引
func (s *ReceiptService) IssueTx(ctx context.Context, tx interfaces.Tx, donation *model.Donation, campaign *model.Campaign, donor model.DonorSnapshot) (*model.Receipt, error) {
	if donation == nil || campaign == nil {
		return nil, errors.New(errors.ErrValidation, "donation and campaign are required")
	}
	if donation.Status != model.DonationSuccess {
		return nil, errors.Newf(errors.ErrInvalidState, "donation %d is %s, receipt requires success", donation.ID, donation.Status)
	}

	issuedAt := s.now()
	fee := s.Fee(donation.Amount)
	receipt := &model.Receipt{
		ReceiptNumber:   model.ReceiptNumberFor(donation.ID, issuedAt),
		DonationID:      donation.ID,
		CampaignID:      campaign.ID,
		DonorID:         donation.DonorID,
		DonorName:       donor.Name,
		DonorEmail:      donor.Email,
		DonorPhone:      donor.Phone,
		CampaignTitle:   campaign.Title,
		BeneficiaryName: campaign.BeneficiaryName,
		Amount:          donation.Amount,
		TransactionFee:  fee,
		NetAmount:       donation.Amount.Sub(fee),
		PaymentMethod:   donation.PaymentMethod,
		TransactionID:   donation.TransactionID,
		IsTaxDeductible: campaign.IsTaxDeductible,
		IssuedAt:        issuedAt,
	}

	if err := s.receiptRepo.CreateTx(ctx, tx, receipt); err != nil {
		switch {
		case stderrors.Is(err, interfaces.ErrDuplicateDonation):
			return nil, errors.Wrap(errors.ErrDuplicate, "收据已存在", err)
		case stderrors.Is(err, interfaces.ErrDuplicateReceiptNumber):
			util.Logger.Error("收据编号冲突",
				zap.String("receipt_number", receipt.ReceiptNumber),
				zap.Int64("donation_id", donation.ID))
			return nil, errors.Wrap(errors.ErrInternal, "收据编号冲突", err)
		default:
			return nil, errors.Wrap(errors.ErrDatabase, "保存收据失败", err)
		}
	}

	metrics.ReceiptsIssued.Inc()
	return receipt, nil
}

func (s *ReceiptService) Get(ctx context.Context, id int64) (*model.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询收据失败", err)
	}
	if receipt == nil {
		return nil, errors.Newf(errors.ErrResourceNotFound, "receipt %d not found", id)
	}
	return receipt, nil
}

func (s *ReceiptService) GetByDonation(ctx context.Context, donationID int64) (*model.Receipt, error) {
	receipt, err := s.receiptRepo.GetByDonationID(ctx, donationID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询收据失败", err)
	}
	if receipt == nil {
		return nil, errors.Newf(errors.ErrResourceNotFound, "receipt for donation %d not found", donationID)
	}
	return receipt, nil
}

func (s *ReceiptService) ListByDonor(ctx context.Context, donorID int64) ([]*model.Receipt, error) {
	receipts, err := s.receiptRepo.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询收据失败", err)
	}
	return receipts, nil
}

// MarkEmailSent 幂等，已标记的收据保持原时间
func (s *ReceiptService) MarkEmailSent(ctx context.Context, id int64, at time.Time) error {
	updated, err := s.receiptRepo.MarkEmailSent(ctx, id, at)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新邮件状态失败", err)
	}
	if !updated {
		_, err := s.Get(ctx, id)
		return err
	}
	return nil
}

// AttachTaxCertificate 只对可抵税收据附加一次
func (s *ReceiptService) AttachTaxCertificate(ctx context.Context, id int64, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New(errors.ErrValidation, "certificate url is required")
	}
	updated, err := s.receiptRepo.AttachTaxCertificate(ctx, id, url)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "附加税务证书失败", err)
	}
	if updated {
		util.Logger.Info("税务证书已附加", zap.Int64("receipt_id", id))
		return nil
	}

	receipt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !receipt.IsTaxDeductible {
		return errors.Newf(errors.ErrInvalidState, "receipt %d is not tax deductible", id)
	}
	return errors.Newf(errors.ErrInvalidState, "receipt %d already has a tax certificate", id)
}

// Deliver 生成收据文档并发送邮件；失败只记录日志，email_sent 保持 false 以便补发
func (s *ReceiptService) Deliver(ctx context.Context, receiptID int64) error {
	receipt, err := s.Get(ctx, receiptID)
	if err != nil {
		return err
	}

	if receipt.DocumentURL == "" && s.storage != nil {
		if err := s.storeDocument(ctx, receipt); err != nil {
			util.Logger.Error("生成收据文档失败", zap.Error(err), zap.Int64("receipt_id", receipt.ID))
		}
	}

	if receipt.EmailSent || receipt.DonorEmail == "" || s.notifier == nil {
		return nil
	}

	res, err := s.notifier.Send(ctx, notification.Notification{
		Channel:   notification.ChannelEmail,
		Recipient: receipt.DonorEmail,
		Subject:   fmt.Sprintf("您的捐款收据 %s", receipt.ReceiptNumber),
		Template:  notification.TemplateReceiptEmail,
		Data:      receipt,
	})
	if err != nil {
		return fmt.Errorf("发送收据邮件失败: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("收据邮件未送达: receipt %d", receipt.ID)
	}

	if err := s.MarkEmailSent(ctx, receipt.ID, s.now()); err != nil {
		return err
	}
	util.Logger.Info("收据邮件已发送",
		zap.Int64("receipt_id", receipt.ID),
		zap.String("message_id", res.ProviderMessageID))
	return nil
}

func (s *ReceiptService) storeDocument(ctx context.Context, receipt *model.Receipt) error {
	html, err := notification.Render(notification.TemplateReceiptDocument, receipt)
	if err != nil {
		return err
	}
	path := util.ReceiptDocumentPath(receipt.ReceiptNumber, receipt.IssuedAt)
	url, err := s.storage.Put(ctx, path, "text/html; charset=utf-8", []byte(html))
	if err != nil {
		return err
	}
	if err := s.receiptRepo.SetDocumentURL(ctx, receipt.ID, url); err != nil {
		return err
	}
	receipt.DocumentURL = url
	return nil
}

// ResendUnsent 补发尚未送达的收据邮件，返回成功数量
func (s *ReceiptService) ResendUnsent(ctx context.Context, limit int) (int, error) {
	receipts, err := s.receiptRepo.ListEmailUnsent(ctx, limit)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "查询未发送收据失败", err)
	}

	sent := 0
	for _, receipt := range receipts {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.Deliver(ctx, receipt.ID); err != nil {
			util.Logger.Warn("补发收据邮件失败", zap.Error(err), zap.Int64("receipt_id", receipt.ID))
			continue
		}
		sent++
	}
	return sent, nil
}
