package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus 审核状态
type CampaignStatus string

const (
	CampaignPending  CampaignStatus = "pending"
	CampaignApproved CampaignStatus = "approved"
	CampaignRejected CampaignStatus = "rejected"
)

type Campaign struct {
	ID               int64           `json:"id"`
	OwnerID          int64           `json:"owner_id"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	Category         string          `json:"category"`
	BeneficiaryName  string          `json:"beneficiary_name"`
	GoalAmount       decimal.Decimal `json:"goal_amount"`
	RaisedAmount     decimal.Decimal `json:"raised_amount"` // 唯一可信的已筹金额计数
	Status           CampaignStatus  `json:"status"`
	ReviewComment    string          `json:"review_comment,omitempty"`
	IsTaxDeductible  bool            `json:"is_tax_deductible"`
	Archived         bool            `json:"archived"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
}

// Progress 筹款进度（百分比，保留两位小数）
func (c *Campaign) Progress() decimal.Decimal {
	if !c.GoalAmount.IsPositive() {
		return decimal.Zero
	}
	return c.RaisedAmount.Div(c.GoalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// AcceptsDonations 只有审核通过且未归档的活动可以接受捐款
func (c *Campaign) AcceptsDonations() bool {
	return c.Status == CampaignApproved && !c.Archived
}

// CampaignInput 创建活动时的输入
type CampaignInput struct {
	Title            string          `json:"title" validate:"required,max=200"`
	ShortDescription string          `json:"short_description" validate:"max=500"`
	Category         string          `json:"category" validate:"max=64"`
	BeneficiaryName  string          `json:"beneficiary_name" validate:"max=120"`
	GoalAmount       decimal.Decimal `json:"goal_amount" validate:"positive_decimal"`
	IsTaxDeductible  bool            `json:"is_tax_deductible"`
}
