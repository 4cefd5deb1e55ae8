package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/middleware"
	"github.com/formlead/formlead/internal/service"
	"github.com/formlead/formlead/internal/service/chat"
)

// ChatHandler 访客聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 小组件聊天端点，租户由 API Key 中间件解析
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	var req chat.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Chat.Chat(ctx, tenantID, &req)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, resp)
}

// ClearSession 清空会话历史
// @Router /api/v1/chat/sessions/{session_id} [delete]
func (h *ChatHandler) ClearSession(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	sessionID := c.Param("session_id")

	if err := h.svc.SessionMgr.Clear(ctx, tenantID, sessionID); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}
