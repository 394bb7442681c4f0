package shared

import (
	"github.com/pizzaria-cajazeiras/internal/http/response"
	"github.com/pizzaria-cajazeiras/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionContextKey gin 上下文中的客户端会话键
const SessionContextKey = "client_session"

// GetSession 读取中间件注入的客户端会话，缺失时直接返回错误响应。
func GetSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		RespondError(c, response.CodeBadRequest, "error.client_id_invalid", nil)
		return nil, false
	}
	sess, ok := value.(*session.Session)
	if !ok || sess == nil {
		RespondError(c, response.CodeInternal, "error.internal", nil)
		return nil, false
	}
	return sess, true
}
