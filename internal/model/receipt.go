package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Receipt struct {
	ID                int64           `json:"id"`
	ReceiptNumber     string          `json:"receipt_number"`
	DonationID        int64           `json:"donation_id"`
	CampaignID        int64           `json:"campaign_id"`
	DonorID           int64           `json:"donor_id"`
	DonorName         string          `json:"donor_name"`
	DonorEmail        string          `json:"donor_email"`
	DonorPhone        string          `json:"donor_phone,omitempty"`
	CampaignTitle     string          `json:"campaign_title"`
	BeneficiaryName   string          `json:"beneficiary_name"`
	Amount            decimal.Decimal `json:"amount"`
	TransactionFee    decimal.Decimal `json:"transaction_fee"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	PaymentMethod     string          `json:"payment_method"`
	TransactionID     string          `json:"transaction_id"`
	DocumentURL       string          `json:"document_url,omitempty"`
	EmailSent         bool            `json:"email_sent"`
	EmailSentAt       *time.Time      `json:"email_sent_at,omitempty"`
	IsTaxDeductible   bool            `json:"is_tax_deductible"`
	TaxCertificateURL string          `json:"tax_certificate_url,omitempty"`
	IssuedAt          time.Time       `json:"issued_at"`
}

// DonorSnapshot 开具收据时的捐赠人信息快照
type DonorSnapshot struct {
	Name  string
	Email string
	Phone string
}

// ReceiptNumberFor 由捐款ID生成收据编号
// 格式: RCPT-年份-8位捐款ID，例如: RCPT-2026-00000042
// 捐款ID全局唯一，编号因此不会冲突，且生成后存库不再变化
func ReceiptNumberFor(donationID int64, issuedAt time.Time) string {
	return fmt.Sprintf("RCPT-%d-%08d", issuedAt.Year(), donationID)
}
