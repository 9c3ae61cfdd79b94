package interfaces

import (
	"context"
	"time"

	"donation-backend/internal/model"
)

type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) error
	GetByID(ctx context.Context, id int64) (*model.Donation, error)
	// MarkSuccessTx 仅当捐款为 pending 时置为 success，返回是否发生了更新
	MarkSuccessTx(ctx context.Context, tx Tx, id int64, transactionID string, at time.Time) (bool, error)
	// MarkFailed 仅当捐款为 pending 时置为 failed，返回是否发生了更新
	MarkFailed(ctx context.Context, id int64, reason string, at time.Time) (bool, error)
	// ListByDonor 按 id 降序返回 beforeID 之前的一页，beforeID 为 0 表示从最新开始
	ListByDonor(ctx context.Context, donorID, beforeID int64, limit int) ([]*model.Donation, error)
}
