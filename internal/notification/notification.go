package notification

import "context"

// Channel 通知渠道
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelLog   Channel = "log"
)

// Notification 一条待发送的通知，正文由 Template 与 Data 渲染
type Notification struct {
	Channel   Channel
	Recipient string
	Subject   string
	Template  string
	Data      any
}

// Result 发送结果
type Result struct {
	Success           bool
	ProviderMessageID string
}

// Sender 某一渠道的发送能力
type Sender interface {
	Send(ctx context.Context, n Notification) (Result, error)
}
