package interfaces

import (
	"context"
	"time"

	"donation-backend/internal/model"
)

type ReceiptRepository interface {
	// CreateTx 违反唯一约束时返回 ErrDuplicateDonation 或 ErrDuplicateReceiptNumber
	CreateTx(ctx context.Context, tx Tx, receipt *model.Receipt) error
	GetByID(ctx context.Context, id int64) (*model.Receipt, error)
	GetByDonationID(ctx context.Context, donationID int64) (*model.Receipt, error)
	ListByDonor(ctx context.Context, donorID int64) ([]*model.Receipt, error)
	// ListEmailUnsent 返回有收件邮箱但尚未发送邮件的收据
	ListEmailUnsent(ctx context.Context, limit int) ([]*model.Receipt, error)
	// MarkEmailSent 仅当尚未标记时写入，返回是否发生了更新
	MarkEmailSent(ctx context.Context, id int64, at time.Time) (bool, error)
	SetDocumentURL(ctx context.Context, id int64, url string) error
	// AttachTaxCertificate 仅当收据可抵税且尚未附加证书时写入，返回是否发生了更新
	AttachTaxCertificate(ctx context.Context, id int64, url string) (bool, error)
}
