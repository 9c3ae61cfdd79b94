package campaign

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"

	"github.com/gin-gonic/gin"
)

// DraftService 创建向导的会话操作
type DraftService interface {
	SaveStep(ctx context.Context, ownerID int64, step int, fields map[string]json.RawMessage) (*model.CampaignDraft, error)
	Get(ctx context.Context, ownerID int64) (*model.CampaignDraft, error)
	Submit(ctx context.Context, ownerID int64) (int64, error)
	Discard(ctx context.Context, ownerID int64) error
}

// DraftHandler 处理创建向导的HTTP请求
type DraftHandler struct {
	drafts DraftService
}

func NewDraftHandler(drafts DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

func (h *DraftHandler) SaveStep(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的步骤", err))
		return
	}

	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	draft, err := h.drafts.SaveStep(c.Request.Context(), principal.UserID, step, fields)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, draft, "")
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	draft, err := h.drafts.Get(c.Request.Context(), principal.UserID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, draft, "")
}

func (h *DraftHandler) Submit(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	id, err := h.drafts.Submit(c.Request.Context(), principal.UserID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, gin.H{"id": id}, "活动已提交审核")
}

func (h *DraftHandler) Discard(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	if err := h.drafts.Discard(c.Request.Context(), principal.UserID); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, nil, "草稿已删除")
}
