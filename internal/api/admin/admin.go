package admin

import (
	"context"
	"net/http"

	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Moderator 审核活动
type Moderator interface {
	Approve(ctx context.Context, principal model.Principal, campaignID int64) error
	Reject(ctx context.Context, principal model.Principal, campaignID int64, comment string) error
}

// CampaignAdmin 活动的管理操作
type CampaignAdmin interface {
	Archive(ctx context.Context, id int64) error
	IncrementRaised(ctx context.Context, id int64, amount decimal.Decimal) error
}

// ReceiptAdmin 收据的管理操作
type ReceiptAdmin interface {
	AttachTaxCertificate(ctx context.Context, id int64, url string) error
}

// RoleUpdater 修改用户角色
type RoleUpdater interface {
	UpdateUserRole(ctx context.Context, id int64, role string) error
}

// StatsProvider 错误统计
type StatsProvider interface {
	Stats() model.SystemStats
}

// AdminHandler 按功能模块组织处理方法
type AdminHandler struct {
	moderation Moderator
	campaigns  CampaignAdmin
	receipts   ReceiptAdmin
	users      RoleUpdater
	stats      StatsProvider
}

func NewAdminHandler(moderation Moderator, campaigns CampaignAdmin, receipts ReceiptAdmin, users RoleUpdater, stats StatsProvider) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		campaigns:  campaigns,
		receipts:   receipts,
		users:      users,
		stats:      stats,
	}
}

// 活动审核
func (h *AdminHandler) ApproveCampaign(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)
	if err := h.moderation.Approve(c.Request.Context(), principal, id); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"status": model.CampaignApproved}, "活动已通过审核")
}

func (h *AdminHandler) RejectCampaign(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "请填写驳回原因", err))
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	if err := h.moderation.Reject(c.Request.Context(), principal, id, req.Comment); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"status": model.CampaignRejected}, "活动已驳回")
}

func (h *AdminHandler) ArchiveCampaign(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.campaigns.Archive(c.Request.Context(), id); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, nil, "活动已归档")
}

// IncrementRaised 线下到账等场景的人工调整
func (h *AdminHandler) IncrementRaised(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"positive_decimal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的金额", err))
		return
	}
	if err := h.campaigns.IncrementRaised(c.Request.Context(), id, req.Amount); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, nil, "已筹金额已更新")
}

// 收据管理
func (h *AdminHandler) AttachTaxCertificate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的证书地址", err))
		return
	}
	if err := h.receipts.AttachTaxCertificate(c.Request.Context(), id, req.URL); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, nil, "税务证书已附加")
}

// 用户管理
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}
	if err := h.users.UpdateUserRole(c.Request.Context(), id, req.Role); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, nil, "用户角色已更新")
}

// 系统管理
func (h *AdminHandler) GetSystemStats(c *gin.Context) {
	errors.HandleSuccess(c, http.StatusOK, h.stats.Stats(), "")
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := util.ParamID(c, "id")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的ID", err))
		return 0, false
	}
	return id, true
}
