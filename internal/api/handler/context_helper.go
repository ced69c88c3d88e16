package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nayochev/schedule-arranger/internal/attendance"
	"github.com/nayochev/schedule-arranger/pkg/response"
)

// 与 middleware.JWTAuth 注入的键一致
const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetViewer 提取当前用户作为出欠表的 viewer
func MustGetViewer(c *gin.Context) (attendance.User, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return attendance.User{}, false
	}
	return attendance.User{UserID: id, Username: c.GetString(ctxUsername)}, true
}

// tokenInfo 当前 Token 的 jti 与过期时间，登出时使用
func tokenInfo(c *gin.Context) (string, time.Time) {
	exp, _ := c.Get(ctxTokenExp)
	t, _ := exp.(time.Time)
	return c.GetString(ctxTokenJTI), t
}

// parseInt64Param 解析路径中的非负整数 ID（0 合法），失败时写入 400
func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 0 {
		response.BadRequest(c, 10001, name+" 格式无效")
		return 0, false
	}
	return id, true
}
