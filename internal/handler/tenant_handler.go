package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/service"
	"github.com/formlead/formlead/internal/service/tenant"
)

// TenantHandler 租户管理处理器，仅超级管理员可用
type TenantHandler struct {
	svc *service.Services
}

// NewTenantHandler 创建租户处理器
func NewTenantHandler(svc *service.Services) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// Create 创建租户
// @Router /api/v1/tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req tenant.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	t, err := h.svc.Tenant.Create(ctx, &req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, t)
}

// List 分页列出租户
// @Router /api/v1/tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	showDeleted := c.Query("show_deleted") == "true"
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	tenants, total, err := h.svc.Tenant.List(ctx, (page-1)*pageSize, pageSize, showDeleted)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, tenants, total, page, pageSize)
}

// Get 获取租户详情
// @Router /api/v1/tenants/{tenant_id} [get]
func (h *TenantHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant_id")

	t, err := h.svc.Tenant.Get(ctx, tenantID)
	if err != nil {
		NotFound(c, "tenant not found")
		return
	}
	Success(c, t)
}

// Update 更新租户
// @Router /api/v1/tenants/{tenant_id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant_id")

	var req tenant.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	t, err := h.svc.Tenant.Update(ctx, tenantID, &req)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			NotFound(c, "tenant not found")
			return
		}
		Error(c, err)
		return
	}
	Success(c, t)
}

// Delete 逻辑删除租户
// @Router /api/v1/tenants/{tenant_id} [delete]
func (h *TenantHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant_id")

	if err := h.svc.Tenant.Delete(ctx, tenantID); err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			NotFound(c, "tenant not found")
			return
		}
		Error(c, err)
		return
	}
	NoContent(c)
}

// ProvisionCorpus 为租户补建检索语料库
// @Router /api/v1/tenants/{tenant_id}/rag_corpus [post]
func (h *TenantHandler) ProvisionCorpus(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenant_id")

	if err := h.svc.Tenant.ProvisionCorpus(ctx, tenantID); err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			NotFound(c, "tenant not found")
			return
		}
		Error(c, err)
		return
	}

	t, err := h.svc.Tenant.Get(ctx, tenantID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, t)
}
