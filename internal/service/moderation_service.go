package service

import (
	"context"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

// CampaignReviewer 审核操作；CampaignService 满足该接口
type CampaignReviewer interface {
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, comment string) error
}

// ModerationService 只允许管理员审核活动
type ModerationService struct {
	reviewer CampaignReviewer
}

func NewModerationService(reviewer CampaignReviewer) *ModerationService {
	return &ModerationService{reviewer: reviewer}
}

func (s *ModerationService) Approve(ctx context.Context, principal model.Principal, campaignID int64) error {
	if err := s.authorize(principal, campaignID); err != nil {
		return err
	}
	return s.reviewer.Approve(ctx, campaignID)
}

func (s *ModerationService) Reject(ctx context.Context, principal model.Principal, campaignID int64, comment string) error {
	if err := s.authorize(principal, campaignID); err != nil {
		return err
	}
	return s.reviewer.Reject(ctx, campaignID, comment)
}

func (s *ModerationService) authorize(principal model.Principal, campaignID int64) error {
	if principal.IsAdmin() {
		return nil
	}
	util.Logger.Warn("非管理员尝试审核活动",
		zap.Int64("user_id", principal.UserID),
		zap.Int64("campaign_id", campaignID))
	return errors.New(errors.ErrForbidden, "admin role required")
}
