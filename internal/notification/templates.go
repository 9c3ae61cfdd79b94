package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	TemplateReceiptEmail    = "receipt_email"
	TemplateReceiptDocument = "receipt_document"
)

const receiptEmailHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head><meta charset="UTF-8"><title>捐款收据 {{.ReceiptNumber}}</title></head>
<body>
	<p>亲爱的 {{if .DonorName}}{{.DonorName}}{{else}}爱心人士{{end}}，</p>
	<p>感谢您对「{{.CampaignTitle}}」的捐助，您的捐款 {{.Amount.StringFixed 2}} 已确认到账。</p>
	<p>收据编号：{{.ReceiptNumber}}</p>
	{{if .DocumentURL}}<p>电子收据：<a href="{{.DocumentURL}}">{{.DocumentURL}}</a></p>{{end}}
	<p>此邮件由系统自动发送，请勿回复。</p>
</body>
</html>`

const receiptDocumentHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head><meta charset="UTF-8"><title>{{.ReceiptNumber}}</title></head>
<body>
	<h1>捐款收据</h1>
	<table>
		<tr><td>收据编号</td><td>{{.ReceiptNumber}}</td></tr>
		<tr><td>开具时间</td><td>{{.IssuedAt.Format "2006-01-02 15:04:05"}}</td></tr>
		<tr><td>捐赠人</td><td>{{if .DonorName}}{{.DonorName}}{{else}}匿名{{end}}</td></tr>
		<tr><td>活动</td><td>{{.CampaignTitle}}</td></tr>
		<tr><td>受益人</td><td>{{.BeneficiaryName}}</td></tr>
		<tr><td>捐款金额</td><td>{{.Amount.StringFixed 2}}</td></tr>
		<tr><td>手续费</td><td>{{.TransactionFee.StringFixed 2}}</td></tr>
		<tr><td>实收金额</td><td>{{.NetAmount.StringFixed 2}}</td></tr>
		<tr><td>支付方式</td><td>{{.PaymentMethod}}</td></tr>
		<tr><td>交易号</td><td>{{.TransactionID}}</td></tr>
		{{if .IsTaxDeductible}}<tr><td>税务</td><td>可抵税</td></tr>{{end}}
	</table>
</body>
</html>`

var templates = template.Must(template.New(TemplateReceiptEmail).Parse(receiptEmailHTML))

func init() {
	template.Must(templates.New(TemplateReceiptDocument).Parse(receiptDocumentHTML))
}

// Render 按模板名渲染 HTML
func Render(name string, data any) (string, error) {
	t := templates.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("渲染模板 %s 失败: %w", name, err)
	}
	return buf.String(), nil
}
