package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/middleware"
	"github.com/formlead/formlead/internal/service"
	"github.com/formlead/formlead/internal/service/submission"
)

// GAConfigHandler 表单 GA4 配置处理器
type GAConfigHandler struct {
	svc *service.Services
}

// NewGAConfigHandler 创建 GA4 配置处理器
func NewGAConfigHandler(svc *service.Services) *GAConfigHandler {
	return &GAConfigHandler{svc: svc}
}

// Create 创建配置
// @Router /api/v1/tenants/{tenant_id}/ga_configurations [post]
func (h *GAConfigHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	var req submission.GAConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	cfg, err := h.svc.Submission.CreateGAConfig(ctx, tenantID, &req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, cfg)
}

// List 列出租户的配置
// @Router /api/v1/tenants/{tenant_id}/ga_configurations [get]
func (h *GAConfigHandler) List(c *gin.Context) {
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

	cfgs, err := h.svc.Submission.ListGAConfigs(ctx, tenantID, (page-1)*pageSize, pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, cfgs)
}

// Get 获取表单的配置
// @Router /api/v1/tenants/{tenant_id}/ga_configurations/{form_id} [get]
func (h *GAConfigHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	formID := c.Param("form_id")

	cfg, err := h.svc.Submission.GetGAConfig(ctx, tenantID, formID)
	if err != nil {
		NotFound(c, "GA4 configuration not found")
		return
	}
	Success(c, cfg)
}

// Update 更新表单的配置
// @Router /api/v1/tenants/{tenant_id}/ga_configurations/{form_id} [put]
func (h *GAConfigHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	formID := c.Param("form_id")

	var req submission.GAConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	cfg, err := h.svc.Submission.UpdateGAConfig(ctx, tenantID, formID, &req)
	if err != nil {
		if errors.Is(err, submission.ErrConfigNotFound) {
			NotFound(c, "GA4 configuration not found")
			return
		}
		Error(c, err)
		return
	}
	Success(c, cfg)
}

// Delete 删除表单的配置
// @Router /api/v1/tenants/{tenant_id}/ga_configurations/{form_id} [delete]
func (h *GAConfigHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	formID := c.Param("form_id")

	if err := h.svc.Submission.DeleteGAConfig(ctx, tenantID, formID); err != nil {
		if errors.Is(err, submission.ErrConfigNotFound) {
			NotFound(c, "GA4 configuration not found")
			return
		}
		Error(c, err)
		return
	}
	NoContent(c)
}
