package campaign

import (
	"context"
	"iter"
	"net/http"
	"strconv"

	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CampaignService 活动处理器依赖的服务
type CampaignService interface {
	Create(ctx context.Context, ownerID int64, input model.CampaignInput) (int64, error)
	Get(ctx context.Context, id int64) (*model.Campaign, error)
	ListApprovedAfter(ctx context.Context, category string, afterID int64) iter.Seq2[*model.Campaign, error]
}

// CampaignHandler 处理与活动相关的HTTP请求
type CampaignHandler struct {
	campaigns CampaignService
}

func NewCampaignHandler(campaigns CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

type campaignView struct {
	*model.Campaign
	Progress decimal.Decimal `json:"progress"`
}

func viewOf(c *model.Campaign) campaignView {
	return campaignView{Campaign: c, Progress: c.Progress()}
}

// CreateCampaign 创建待审核的活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var input model.CampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	id, err := h.campaigns.Create(c.Request.Context(), principal.UserID, input)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, gin.H{"id": id}, "活动已提交审核")
}

// GetCampaign 获取活动详情，未通过审核的活动不公开
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := util.ParamID(c, "id")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的活动ID", err))
		return
	}

	campaign, err := h.campaigns.Get(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if campaign.Status != model.CampaignApproved {
		errors.HandleError(c, errors.Newf(errors.ErrResourceNotFound, "campaign %d not found", id))
		return
	}
	errors.HandleSuccess(c, http.StatusOK, viewOf(campaign), "")
}

// ListCampaigns 列出已审核的活动，after 为上一页最后一个ID
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	limit := util.QueryLimit(c, 20, 100)
	after, _ := strconv.ParseInt(c.Query("after"), 10, 64)

	items := make([]campaignView, 0, limit)
	for campaign, err := range h.campaigns.ListApprovedAfter(c.Request.Context(), c.Query("category"), after) {
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		items = append(items, viewOf(campaign))
		if len(items) == limit {
			break
		}
	}

	var next int64
	if len(items) == limit {
		next = items[len(items)-1].ID
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{
		"campaigns": items,
		"next":      next,
	}, "")
}
