package handler

import (
	"encoding/json"
	"log"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/service"
	"github.com/formlead/formlead/internal/service/tasks"
)

// PipelineHandler 摄取流水线内部端点处理器
// 三个端点分别由存储事件（Eventarc）、任务队列回调与外部调度器触发，
// 均受共享密钥中间件保护
type PipelineHandler struct {
	svc *service.Services
}

// NewPipelineHandler 创建流水线处理器
func NewPipelineHandler(svc *service.Services) *PipelineHandler {
	return &PipelineHandler{svc: svc}
}

// gcsObjectData 存储事件中的对象信息
type gcsObjectData struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// StorageEvent 阶段3触发：存储写入事件
// 返回非 2xx 时事件基础设施会按自身策略重投
// @Router /internal/rag/events [post]
func (h *PipelineHandler) StorageEvent(c *gin.Context) {
	e, err := cloudevents.NewEventFromHTTPRequest(c.Request)
	if err != nil {
		BadRequest(c, "invalid cloud event: "+err.Error())
		return
	}

	var obj gcsObjectData
	if err := json.Unmarshal(e.Data(), &obj); err != nil {
		log.Printf("storage event: failed to unmarshal data: %v", err)
		BadRequest(c, "invalid event data")
		return
	}
	if obj.Bucket == "" || obj.Name == "" {
		BadRequest(c, "event data missing bucket or object name")
		return
	}

	if err := h.svc.RAG.Preprocess(c.Request.Context(), obj.Bucket, obj.Name); err != nil {
		InternalServerError(c, err.Error())
		return
	}
	Success(c, gin.H{"processed": obj.Name})
}

// ImportTask 阶段4触发：任务队列回调
// @Router /internal/rag/import [post]
func (h *PipelineHandler) ImportTask(c *gin.Context) {
	var task tasks.ImportTask
	if err := c.ShouldBindJSON(&task); err != nil {
		BadRequest(c, "invalid task payload: "+err.Error())
		return
	}
	if task.ProcessingID == "" || task.TenantID == "" {
		BadRequest(c, "task payload missing processing_id or tenant_id")
		return
	}

	if err := h.svc.RAG.Import(c.Request.Context(), &task); err != nil {
		InternalServerError(c, err.Error())
		return
	}
	Success(c, gin.H{"processing_id": task.ProcessingID})
}

// MonitorSweep 阶段5触发：调度器定期调用
// @Router /internal/rag/monitor [post]
func (h *PipelineHandler) MonitorSweep(c *gin.Context) {
	result, err := h.svc.RAG.Sweep(c.Request.Context())
	if err != nil {
		InternalServerError(c, err.Error())
		return
	}
	Success(c, result)
}
