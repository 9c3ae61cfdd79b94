package interfaces

import (
	"context"
	"time"

	"donation-backend/internal/model"

	"github.com/shopspring/decimal"
)

// CampaignRepository 查询不存在时返回 nil, nil
type CampaignRepository interface {
	Create(ctx context.Context, campaign *model.Campaign) error
	GetByID(ctx context.Context, id int64) (*model.Campaign, error)
	// Review 仅当活动仍为 pending 时写入审核结果，返回是否发生了更新
	Review(ctx context.Context, id int64, status model.CampaignStatus, comment string, at time.Time) (bool, error)
	IncrementRaised(ctx context.Context, id int64, amount decimal.Decimal) (bool, error)
	IncrementRaisedTx(ctx context.Context, tx Tx, id int64, amount decimal.Decimal) (bool, error)
	Archive(ctx context.Context, id int64, at time.Time) (bool, error)
	// ListApproved 按 id 升序返回 afterID 之后的一页已审核、未归档活动
	ListApproved(ctx context.Context, category string, afterID int64, limit int) ([]*model.Campaign, error)
}
