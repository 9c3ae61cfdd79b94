package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonationStatus 支付状态，success 与 failed 为终态
type DonationStatus string

const (
	DonationPending DonationStatus = "pending"
	DonationSuccess DonationStatus = "success"
	DonationFailed  DonationStatus = "failed"
)

// IsTerminal 是否已是终态
func (s DonationStatus) IsTerminal() bool {
	return s == DonationSuccess || s == DonationFailed
}

type Donation struct {
	ID            int64           `json:"id"`
	DonorID       int64           `json:"donor_id"`
	CampaignID    int64           `json:"campaign_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Status        DonationStatus  `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}
