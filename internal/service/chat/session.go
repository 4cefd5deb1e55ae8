package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

const (
	// 会话在 Redis 中的过期时间（24小时）
	sessionTTL = 24 * time.Hour
	// Redis key 前缀，按租户隔离
	sessionKeyPrefix = "chat:"
)

// SessionManager 聊天会话管理器
// 进程内缓存加 Redis 持久化，Redis 不可用时退化为纯内存
// 内存侧按与 Redis 相同的 TTL 清理，空闲会话不会无限累积
type SessionManager struct {
	mu     sync.RWMutex
	memory map[string]*Session
	redis  *redis.Client
	now    func() time.Time
}

// Session 会话状态
type Session struct {
	ID        string
	TenantID  string
	Messages  []*schema.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// sessionData 会话数据（用于 Redis 存储）
type sessionData struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenant_id"`
	Messages  []messageData `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// messageData 消息数据（用于 Redis 存储）
type messageData struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// roleToSchema 将字符串角色转换为 schema.RoleType
func roleToSchema(role string) schema.RoleType {
	switch role {
	case "system":
		return schema.System
	case "assistant":
		return schema.Assistant
	default:
		return schema.User
	}
}

// NewSessionManager 创建会话管理器
func NewSessionManager(redisClient *redis.Client) *SessionManager {
	return &SessionManager{
		memory: make(map[string]*Session),
		redis:  redisClient,
		now:    time.Now,
	}
}

// evictStale 清理超过 TTL 未活跃的内存会话，调用方需持有写锁
func (m *SessionManager) evictStale() {
	cutoff := m.now().Add(-sessionTTL)
	for key, sess := range m.memory {
		if sess.UpdatedAt.Before(cutoff) {
			delete(m.memory, key)
		}
	}
}

// sessionKey 租户隔离的 Redis key
func sessionKey(tenantID, sessionID string) string {
	return fmt.Sprintf("%s%s:%s", sessionKeyPrefix, tenantID, sessionID)
}

// Get 获取会话，不存在时创建
func (m *SessionManager) Get(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	key := sessionKey(tenantID, sessionID)

	m.mu.RLock()
	sess, ok := m.memory[key]
	m.mu.RUnlock()
	// 过期的缓存条目视同不存在，与 Redis 的 TTL 行为一致
	if ok && m.now().Sub(sess.UpdatedAt) <= sessionTTL {
		return sess, nil
	}

	if m.redis != nil {
		if sess := m.loadFromRedis(ctx, key); sess != nil {
			m.mu.Lock()
			m.evictStale()
			m.memory[key] = sess
			m.mu.Unlock()
			return sess, nil
		}
	}

	now := m.now()
	sess = &Session{
		ID:        sessionID,
		TenantID:  tenantID,
		Messages:  []*schema.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.evictStale()
	m.memory[key] = sess
	m.mu.Unlock()
	return sess, nil
}

// Append 追加消息并同步到 Redis
func (m *SessionManager) Append(ctx context.Context, tenantID, sessionID string, msgs ...*schema.Message) error {
	sess, err := m.Get(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	sess.Messages = append(sess.Messages, msgs...)
	sess.UpdatedAt = m.now()
	m.mu.Unlock()

	if m.redis != nil {
		if err := m.saveToRedis(ctx, sess); err != nil {
			log.Printf("session %s: failed to save to redis: %v", sessionID, err)
		}
	}
	return nil
}

// History 获取历史消息
func (m *SessionManager) History(ctx context.Context, tenantID, sessionID string) ([]*schema.Message, error) {
	sess, err := m.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*schema.Message{}, sess.Messages...), nil
}

// Clear 清空会话
func (m *SessionManager) Clear(ctx context.Context, tenantID, sessionID string) error {
	key := sessionKey(tenantID, sessionID)

	m.mu.Lock()
	delete(m.memory, key)
	m.mu.Unlock()

	if m.redis != nil {
		if err := m.redis.Del(ctx, key).Err(); err != nil {
			log.Printf("session %s: failed to delete from redis: %v", sessionID, err)
		}
	}
	return nil
}

// loadFromRedis 从 Redis 加载会话
func (m *SessionManager) loadFromRedis(ctx context.Context, key string) *Session {
	data, err := m.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var sd sessionData
	if err := json.Unmarshal([]byte(data), &sd); err != nil {
		return nil
	}

	messages := make([]*schema.Message, len(sd.Messages))
	for i, md := range sd.Messages {
		messages[i] = &schema.Message{
			Role:    roleToSchema(md.Role),
			Content: md.Content,
		}
	}

	return &Session{
		ID:        sd.ID,
		TenantID:  sd.TenantID,
		Messages:  messages,
		CreatedAt: sd.CreatedAt,
		UpdatedAt: sd.UpdatedAt,
	}
}

// saveToRedis 保存会话到 Redis
func (m *SessionManager) saveToRedis(ctx context.Context, sess *Session) error {
	m.mu.RLock()
	messages := make([]messageData, len(sess.Messages))
	for i, msg := range sess.Messages {
		messages[i] = messageData{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	sd := sessionData{
		ID:        sess.ID,
		TenantID:  sess.TenantID,
		Messages:  messages,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	m.mu.RUnlock()

	data, err := json.Marshal(sd)
	if err != nil {
		return err
	}
	return m.redis.Set(ctx, sessionKey(sess.TenantID, sess.ID), data, sessionTTL).Err()
}
