package util

import (
	"fmt"
	"time"
)

// ReceiptDocumentPath 生成收据文档的存储路径，按年月分目录
func ReceiptDocumentPath(receiptNumber string, issuedAt time.Time) string {
	return fmt.Sprintf("receipts/%04d/%02d/%s.html", issuedAt.Year(), int(issuedAt.Month()), receiptNumber)
}
