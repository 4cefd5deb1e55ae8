package handler

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/middleware"
	"github.com/formlead/formlead/internal/service"
	"github.com/formlead/formlead/internal/service/rag"
)

// RagFileHandler 知识文件处理器
type RagFileHandler struct {
	svc *service.Services
}

// NewRagFileHandler 创建知识文件处理器
func NewRagFileHandler(svc *service.Services) *RagFileHandler {
	return &RagFileHandler{svc: svc}
}

// Upload 批量上传知识文件
// 受理即返回 202，摄取进度通过状态端点轮询
// @Router /api/v1/tenants/{tenant_id}/rag_files [post]
func (h *RagFileHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	userID, _ := middleware.GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "multipart form is required")
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		BadRequest(c, "no files provided")
		return
	}

	files := make([]*rag.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		uf := &rag.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}
		// 超限文件在服务层按大小拒绝，不读内容
		if fh.Size <= h.svc.Config.RAG.MaxFileSize {
			f, err := fh.Open()
			if err != nil {
				log.Printf("upload: failed to open %s: %v", fh.Filename, err)
				uf.ReadErr = err
				files = append(files, uf)
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				log.Printf("upload: failed to read %s: %v", fh.Filename, err)
				uf.ReadErr = err
				files = append(files, uf)
				continue
			}
			uf.Data = data
		}
		files = append(files, uf)
	}

	results, err := h.svc.RAG.Intake(ctx, tenantID, userID, files)
	for _, r := range results {
		if r.Accepted {
			r.StatusURL = fmt.Sprintf("/api/v1/tenants/%s/rag_files/%s/status", tenantID, r.ProcessingID)
		}
	}
	if err != nil {
		if errors.Is(err, rag.ErrNoValidFiles) {
			c.JSON(400, SuccessResponse{Success: false, Data: results})
			return
		}
		Error(c, err)
		return
	}

	Accepted(c, results)
}

// List 列出租户的知识文件
// @Router /api/v1/tenants/{tenant_id}/rag_files [get]
func (h *RagFileHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)

	files, err := h.svc.RAG.List(ctx, tenantID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, files)
}

// Get 查询单个文件的处理状态
// @Router /api/v1/tenants/{tenant_id}/rag_files/{processing_id} [get]
func (h *RagFileHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	processingID := c.Param("processing_id")

	rec, err := h.svc.RAG.Get(ctx, tenantID, processingID)
	if err != nil {
		NotFound(c, "file not found")
		return
	}
	Success(c, rec)
}

// Delete 删除文件及其存储对象与索引条目
// @Router /api/v1/tenants/{tenant_id}/rag_files/{processing_id} [delete]
func (h *RagFileHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.GetTenantID(c)
	processingID := c.Param("processing_id")

	if err := h.svc.RAG.Delete(ctx, tenantID, processingID); err != nil {
		if errors.Is(err, rag.ErrNotFound) {
			NotFound(c, "file not found")
			return
		}
		Error(c, err)
		return
	}
	NoContent(c)
}
