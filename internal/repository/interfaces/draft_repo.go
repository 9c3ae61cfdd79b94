package interfaces

import (
	"context"

	"donation-backend/internal/model"
)

type DraftRepository interface {
	// Save 以 owner 为键写入草稿；版本号不大于已存版本时忽略
	Save(ctx context.Context, draft *model.CampaignDraft) error
	Get(ctx context.Context, ownerID int64) (*model.CampaignDraft, error)
	Delete(ctx context.Context, ownerID int64) error
}
