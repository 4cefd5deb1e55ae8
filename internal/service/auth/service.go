package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/formlead/formlead/internal/config"
	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/repository"
)

var (
	// ErrInvalidToken 令牌无效
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownKey JWKS 中找不到对应的签名密钥
	ErrUnknownKey = errors.New("unknown signing key")
	// ErrNoProfile 用户档案不存在
	ErrNoProfile = errors.New("user profile not found")
)

// userStore 用户档案查询接口
type userStore interface {
	GetByID(id string) (*model.User, error)
}

// Service 认证服务
// 通过托管认证服务的 JWKS 端点验证 RS256 令牌，公钥按 TTL 缓存
type Service struct {
	users    userStore
	jwksURI  string
	issuer   string
	audience string
	cacheTTL time.Duration

	httpClient *http.Client
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewService 创建认证服务
func NewService(repo *repository.Repositories, cfg *config.Config) *Service {
	ttl := time.Duration(cfg.Auth.JWKSCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		users:      repo.User,
		jwksURI:    cfg.Auth.JWKSURI,
		issuer:     cfg.Auth.Issuer,
		audience:   cfg.Auth.Audience,
		cacheTTL:   ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// ValidateToken 验证令牌并返回用户档案
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrInvalidToken)
		}
		return s.keyForKid(ctx, kid)
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	user, err := s.users.GetByID(sub)
	if err != nil {
		return nil, ErrNoProfile
	}
	return user, nil
}

// keyForKid 按 kid 取公钥
// 缓存过期或 kid 未命中时各触发一次重取，避免轮换窗口内的误拒
func (s *Service) keyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	fresh := s.now().Sub(s.fetchedAt) < s.cacheTTL
	s.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := s.refreshKeys(ctx); err != nil {
		// 重取失败时继续用旧缓存
		if ok {
			return key, nil
		}
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok = s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid=%s", ErrUnknownKey, kid)
	}
	return key, nil
}

// jwks JWKS 文档
type jwks struct {
	Keys []jwk `json:"keys"`
}

// jwk 单个 RSA 公钥
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// refreshKeys 重取 JWKS 并重建缓存
func (s *Service) refreshKeys(ctx context.Context) error {
	if s.jwksURI == "" {
		return errors.New("JWKS URI not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURI, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read JWKS response: %w", err)
	}

	var doc jwks
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return errors.New("JWKS contains no usable RSA keys")
	}

	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return nil
}

// parseRSAKey 从 base64url 编码的模数与指数构造公钥
func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
