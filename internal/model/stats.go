package model

// SystemStats 系统统计数据
type SystemStats struct {
	TotalErrors  int            `json:"total_errors"`
	ErrorsByCode map[int]int    `json:"errors_by_code"`
	ErrorsByPath map[string]int `json:"errors_by_path"`
}
