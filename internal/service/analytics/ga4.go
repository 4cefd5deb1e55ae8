package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// ga4CollectURL Measurement Protocol 收集端点
const ga4CollectURL = "https://www.google-analytics.com/mp/collect"

// Event GA4 事件
type Event struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Sender GA4 事件发送接口
type Sender interface {
	// SendEvent 向 GA4 Measurement Protocol 发送事件
	SendEvent(ctx context.Context, apiSecret, measurementID, clientID string, events []*Event) error
}

// GA4Client GA4 Measurement Protocol 客户端
type GA4Client struct {
	httpClient *http.Client
	endpoint   string
	now        func() time.Time
}

// NewGA4Client 创建 GA4 客户端
func NewGA4Client() *GA4Client {
	return &GA4Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   ga4CollectURL,
		now:        time.Now,
	}
}

// collectPayload Measurement Protocol 请求体
type collectPayload struct {
	ClientID           string   `json:"client_id"`
	NonPersonalizedAds bool     `json:"non_personalized_ads"`
	TimestampMicros    int64    `json:"timestamp_micros"`
	Events             []*Event `json:"events"`
}

// SendEvent 发送事件
func (c *GA4Client) SendEvent(ctx context.Context, apiSecret, measurementID, clientID string, events []*Event) error {
	if apiSecret == "" || measurementID == "" {
		return errors.New("GA4 api secret or measurement id is missing")
	}
	if clientID == "" {
		return errors.New("GA4 client id is missing")
	}
	if len(events) == 0 {
		return nil
	}

	payload := &collectPayload{
		ClientID:        clientID,
		TimestampMicros: c.now().UnixMicro(),
		Events:          events,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal GA4 payload: %w", err)
	}

	q := url.Values{}
	q.Set("api_secret", apiSecret)
	q.Set("measurement_id", measurementID)
	reqURL := c.endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send GA4 event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GA4 endpoint returned status %d", resp.StatusCode)
	}

	log.Printf("GA4: sent %d event(s) to measurement id %s", len(events), measurementID)
	return nil
}
