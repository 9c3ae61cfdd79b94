package task

import (
	"context"
	"time"

	"donation-backend/internal/util"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const receiptEmailBatch = 100

// ReceiptResender 补发收据邮件；service.ReceiptService 满足该接口
type ReceiptResender interface {
	ResendUnsent(ctx context.Context, limit int) (int, error)
}

// ReceiptEmailJob 补发未送达的收据邮件
type ReceiptEmailJob struct {
	receipts ReceiptResender
	interval time.Duration
}

func NewReceiptEmailJob(receipts ReceiptResender, interval time.Duration) *ReceiptEmailJob {
	return &ReceiptEmailJob{receipts: receipts, interval: interval}
}

func (j *ReceiptEmailJob) GetName() string {
	return "receipt_email_retry"
}

func (j *ReceiptEmailJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *ReceiptEmailJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	sent, err := j.receipts.ResendUnsent(ctx, receiptEmailBatch)
	if err != nil {
		util.Logger.Error("补发收据邮件失败", zap.Error(err))
		return
	}
	if sent > 0 {
		util.Logger.Info("收据邮件补发完成", zap.Int("sent", sent))
	}
}
