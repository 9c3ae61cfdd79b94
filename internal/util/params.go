package util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParamID 解析路径中的正整数ID
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("无效的%s: %q", name, c.Param(name))
	}
	return id, nil
}

// QueryLimit 解析分页大小，超出范围时使用默认值
func QueryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
