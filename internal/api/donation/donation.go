package donation

import (
	"context"
	"crypto/subtle"
	"iter"
	"net/http"
	"strconv"

	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const CallbackSecretHeader = "X-Callback-Secret"

// DonationService 捐款处理器依赖的服务
type DonationService interface {
	RecordPending(ctx context.Context, donorID, campaignID int64, amount decimal.Decimal, method string) (int64, error)
	Get(ctx context.Context, id int64) (*model.Donation, error)
	MarkSuccess(ctx context.Context, donationID int64, providerTxnID string) (*model.Receipt, error)
	MarkFailed(ctx context.Context, donationID int64, reason string) error
	ListByDonorBefore(ctx context.Context, donorID, beforeID int64) iter.Seq2[*model.Donation, error]
}

// ReceiptReader 查询收据
type ReceiptReader interface {
	GetByDonation(ctx context.Context, donationID int64) (*model.Receipt, error)
}

// DonationHandler 处理捐款与支付回调
type DonationHandler struct {
	donations      DonationService
	receipts       ReceiptReader
	callbackSecret string
}

func NewDonationHandler(donations DonationService, receipts ReceiptReader, callbackSecret string) *DonationHandler {
	return &DonationHandler{
		donations:      donations,
		receipts:       receipts,
		callbackSecret: callbackSecret,
	}
}

// CreateDonation 为活动发起一笔待支付捐款
func (h *DonationHandler) CreateDonation(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	campaignID, err := util.ParamID(c, "id")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的活动ID", err))
		return
	}

	var req struct {
		Amount        decimal.Decimal `json:"amount" binding:"positive_decimal"`
		PaymentMethod string          `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	id, err := h.donations.RecordPending(c.Request.Context(), principal.UserID, campaignID, req.Amount, req.PaymentMethod)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, gin.H{"donation_id": id}, "捐款已创建，等待支付")
}

// ListDonations 当前用户的捐款记录，按时间倒序
func (h *DonationHandler) ListDonations(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	limit := util.QueryLimit(c, 20, 100)
	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)

	items := make([]*model.Donation, 0, limit)
	for d, err := range h.donations.ListByDonorBefore(c.Request.Context(), principal.UserID, before) {
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		items = append(items, d)
		if len(items) == limit {
			break
		}
	}

	var next int64
	if len(items) == limit {
		next = items[len(items)-1].ID
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"donations": items, "next": next}, "")
}

// GetReceipt 捐赠人或管理员查看收据
func (h *DonationHandler) GetReceipt(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	donationID, err := util.ParamID(c, "id")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的捐款ID", err))
		return
	}

	donation, err := h.donations.Get(c.Request.Context(), donationID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if donation.DonorID != principal.UserID && !principal.IsAdmin() {
		errors.HandleError(c, errors.New(errors.ErrForbidden, "无权查看该收据"))
		return
	}

	receipt, err := h.receipts.GetByDonation(c.Request.Context(), donationID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, receipt, "")
}

type callbackRequest struct {
	DonationID    int64  `json:"donation_id" binding:"required"`
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome" binding:"required,oneof=success failed"`
	Reason        string `json:"reason"`
}

// PaymentCallback 支付渠道回调，可能重复投递
func (h *DonationHandler) PaymentCallback(c *gin.Context) {
	secret := c.GetHeader(CallbackSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.callbackSecret)) != 1 {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "回调签名无效"))
		return
	}

	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的回调数据", err))
		return
	}

	ctx := c.Request.Context()
	util.Logger.Info("收到支付回调",
		zap.Int64("donation_id", req.DonationID),
		zap.String("outcome", req.Outcome),
		zap.String("transaction_id", req.TransactionID))

	if req.Outcome == string(model.DonationSuccess) {
		receipt, err := h.donations.MarkSuccess(ctx, req.DonationID, req.TransactionID)
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		errors.HandleSuccess(c, http.StatusOK, gin.H{
			"status":         model.DonationSuccess,
			"receipt_number": receipt.ReceiptNumber,
		}, "")
		return
	}

	if err := h.donations.MarkFailed(ctx, req.DonationID, req.Reason); err != nil {
		// 重复的失败回调直接确认
		if errors.HasCode(err, errors.ErrInvalidState) {
			if d, getErr := h.donations.Get(ctx, req.DonationID); getErr == nil && d.Status == model.DonationFailed {
				errors.HandleSuccess(c, http.StatusOK, gin.H{"status": model.DonationFailed}, "")
				return
			}
		}
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"status": model.DonationFailed}, "")
}
