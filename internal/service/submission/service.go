package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/analytics"
)

var (
	// ErrNotFound 提交记录不存在或不属于该租户
	ErrNotFound = errors.New("submission not found")
	// ErrInvalidStatus 未知的线索状态
	ErrInvalidStatus = errors.New("invalid submission status")
)

// ga4Event 线索状态对应的 GA4 事件
type ga4Event struct {
	name   string
	params map[string]interface{}
}

// statusToGA4Event 线索状态到 GA4 事件的映射
// converted 事件的 transaction_id 发送时动态补充
var statusToGA4Event = map[string]ga4Event{
	model.SubmissionStatusContacted:    {name: "working_lead", params: map[string]interface{}{"lead_status": "contacted"}},
	model.SubmissionStatusQualified:    {name: "qualify_lead"},
	model.SubmissionStatusConverted:    {name: "close_convert_lead"},
	model.SubmissionStatusUnconverted:  {name: "lead_unconverted"},
	model.SubmissionStatusDisqualified: {name: "lead_disqualified"},
}

// validStatuses 可设置的线索状态
var validStatuses = map[string]bool{
	model.SubmissionStatusNew:          true,
	model.SubmissionStatusContacted:    true,
	model.SubmissionStatusQualified:    true,
	model.SubmissionStatusConverted:    true,
	model.SubmissionStatusUnconverted:  true,
	model.SubmissionStatusDisqualified: true,
	model.SubmissionStatusSpam:         true,
}

// SubmissionRepo 提交仓库接口
type SubmissionRepo interface {
	Create(sub *model.ContactSubmission) error
	GetByID(tenantID string, id int64) (*model.ContactSubmission, error)
	ListByTenant(tenantID string, offset, limit int) ([]*model.ContactSubmission, int64, error)
	UpdateStatus(tenantID string, id int64, newStatus, reason string) (*model.ContactSubmission, error)
}

// GAConfigRepo GA4 配置仓库接口
type GAConfigRepo interface {
	Create(cfg *model.FormGAConfiguration) error
	GetByForm(tenantID, formID string) (*model.FormGAConfiguration, error)
	ListByTenant(tenantID string, offset, limit int) ([]*model.FormGAConfiguration, error)
	Update(cfg *model.FormGAConfiguration) error
	Delete(tenantID, formID string) (bool, error)
}

// Service 联系表单提交服务
type Service struct {
	subs      SubmissionRepo
	gaConfigs GAConfigRepo
	ga4       analytics.Sender
}

// NewService 创建提交服务
func NewService(subs SubmissionRepo, gaConfigs GAConfigRepo, ga4 analytics.Sender) *Service {
	return &Service{subs: subs, gaConfigs: gaConfigs, ga4: ga4}
}

// SubmitRequest 表单提交请求
type SubmitRequest struct {
	FormID      string `json:"form_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Message     string `json:"message"`
	GAClientID  string `json:"ga_client_id"`
	GASessionID string `json:"ga_session_id"`
}

// Submit 受理表单提交
func (s *Service) Submit(ctx context.Context, tenantID string, req *SubmitRequest) (*model.ContactSubmission, error) {
	sub := &model.ContactSubmission{
		TenantID:         tenantID,
		FormID:           req.FormID,
		Name:             req.Name,
		Email:            req.Email,
		Message:          req.Message,
		GAClientID:       req.GAClientID,
		GASessionID:      req.GASessionID,
		SubmissionStatus: model.SubmissionStatusNew,
	}
	if err := s.subs.Create(sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return sub, nil
}

// Get 获取提交记录
func (s *Service) Get(ctx context.Context, tenantID string, id int64) (*model.ContactSubmission, error) {
	sub, err := s.subs.GetByID(tenantID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return sub, nil
}

// List 分页列出提交记录
func (s *Service) List(ctx context.Context, tenantID string, offset, limit int) ([]*model.ContactSubmission, int64, error) {
	return s.subs.ListByTenant(tenantID, offset, limit)
}

// UpdateStatus 更新线索状态
// 状态实际变化且有映射事件时向 GA4 转发；转发失败只记日志，不影响更新结果
func (s *Service) UpdateStatus(ctx context.Context, tenantID string, id int64, newStatus, reason string) (*model.ContactSubmission, error) {
	if !validStatuses[newStatus] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, newStatus)
	}

	current, err := s.subs.GetByID(tenantID, id)
	if err != nil {
		return nil, ErrNotFound
	}

	statusChanged := current.SubmissionStatus != newStatus

	updated, err := s.subs.UpdateStatus(tenantID, id, newStatus, reason)
	if err != nil {
		return nil, ErrNotFound
	}

	if statusChanged {
		s.forwardGA4Event(ctx, updated, newStatus)
	}
	return updated, nil
}

// forwardGA4Event 按状态映射向 GA4 转发线索事件
func (s *Service) forwardGA4Event(ctx context.Context, sub *model.ContactSubmission, newStatus string) {
	event, ok := statusToGA4Event[newStatus]
	if !ok {
		return
	}
	if sub.FormID == "" || sub.GAClientID == "" {
		log.Printf("GA4: skipping %s event, form_id or ga_client_id missing for submission %d", newStatus, sub.ID)
		return
	}

	cfg, err := s.gaConfigs.GetByForm(sub.TenantID, sub.FormID)
	if err != nil {
		log.Printf("GA4: no configuration for form %s, cannot send %s event for submission %d", sub.FormID, newStatus, sub.ID)
		return
	}
	if cfg.GA4APISecret == "" || cfg.GA4MeasurementID == "" {
		log.Printf("GA4: incomplete configuration for form %s, cannot send %s event for submission %d", sub.FormID, newStatus, sub.ID)
		return
	}

	params := map[string]interface{}{"form_id": sub.FormID}
	for k, v := range event.params {
		params[k] = v
	}
	if sub.GASessionID != "" {
		params["session_id"] = sub.GASessionID
	}
	if newStatus == model.SubmissionStatusConverted {
		params["transaction_id"] = strconv.FormatInt(sub.ID, 10)
	}

	err = s.ga4.SendEvent(ctx, cfg.GA4APISecret, cfg.GA4MeasurementID, sub.GAClientID,
		[]*analytics.Event{{Name: event.name, Params: params}})
	if err != nil {
		log.Printf("GA4: failed to send %s event for submission %d: %v", event.name, sub.ID, err)
	}
}
