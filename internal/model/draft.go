package model

import (
	"encoding/json"
	"time"
)

// CampaignDraft 创建向导的草稿，每个用户只保留一份
type CampaignDraft struct {
	OwnerID   int64                      `json:"owner_id"`
	Step      int                        `json:"step"`
	Fields    map[string]json.RawMessage `json:"fields"`
	Version   int64                      `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Clone 深拷贝草稿，避免自动保存与请求处理共享同一份 map
func (d *CampaignDraft) Clone() *CampaignDraft {
	cp := *d
	cp.Fields = make(map[string]json.RawMessage, len(d.Fields))
	for k, v := range d.Fields {
		cp.Fields[k] = append(json.RawMessage(nil), v...)
	}
	return &cp
}
