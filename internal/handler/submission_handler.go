package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/middleware"
	"github.com/formlead/formlead/internal/service"
	"github.com/formlead/formlead/internal/service/submission"
)

// SubmissionHandler 联系表单提交处理器
type SubmissionHandler struct {
	svc *service.Services
}

// NewSubmissionHandler 创建提交处理器
func NewSubmissionHandler(svc *service.Services) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

// Submit 公开提交端点，租户由 API Key 中间件解析
// @Router /api/v1/forms/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	var req submission.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sub, err := h.svc.Submission.Submit(ctx, tenantID, &req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, sub)
}

// List 分页列出提交记录
// @Router /api/v1/tenants/{tenant_id}/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	subs, total, err := h.svc.Submission.List(ctx, tenantID, (page-1)*pageSize, pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, subs, total, page, pageSize)
}

// Get 获取单条提交记录
// @Router /api/v1/tenants/{tenant_id}/submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid submission id")
		return
	}

	sub, err := h.svc.Submission.Get(ctx, tenantID, id)
	if err != nil {
		NotFound(c, "submission not found")
		return
	}
	Success(c, sub)
}

// updateStatusRequest 状态更新请求
type updateStatusRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
	Reason    string `json:"reason"`
}

// UpdateStatus 更新线索状态并按映射转发 GA4 事件
// @Router /api/v1/tenants/{tenant_id}/submissions/{id}/status [patch]
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid submission id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sub, err := h.svc.Submission.UpdateStatus(ctx, tenantID, id, req.NewStatus, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrInvalidStatus):
			BadRequest(c, err.Error())
		case errors.Is(err, submission.ErrNotFound):
			NotFound(c, "submission not found")
		default:
			Error(c, err)
		}
		return
	}
	Success(c, sub)
}
