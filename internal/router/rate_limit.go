package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	handlershared "github.com/pizzaria-cajazeiras/internal/http/handlers/shared"
	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// RateLimitStore 计数存储，返回窗口内计数与剩余秒数
type RateLimitStore interface {
	Hit(ctx context.Context, key string, rule RateLimitRule) (count int64, ttlSeconds int64, err error)
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
if tonumber(ARGV[2]) > 0 and current == tonumber(ARGV[3]) + 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// NewRateLimitStore Redis 可用时使用 Redis，否则使用进程内计数
func NewRateLimitStore(client *redis.Client) RateLimitStore {
	if client != nil {
		return &redisRateLimitStore{client: client}
	}
	return newMemoryRateLimitStore()
}

type redisRateLimitStore struct {
	client *redis.Client
}

func (s *redisRateLimitStore) Hit(ctx context.Context, key string, rule RateLimitRule) (int64, int64, error) {
	result, err := rateLimitScript.Run(ctx, s.client, []string{key}, rule.WindowSeconds, rule.BlockSeconds, rule.MaxRequests).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit result: %v", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit count: %v", values[0])
	}
	ttl, _ := toInt64(values[1])
	return count, ttl, nil
}

type memoryWindow struct {
	count     int64
	expiresAt time.Time
}

type memoryRateLimitStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

func newMemoryRateLimitStore() *memoryRateLimitStore {
	return &memoryRateLimitStore{windows: make(map[string]*memoryWindow), now: time.Now}
}

func (s *memoryRateLimitStore) Hit(_ context.Context, key string, rule RateLimitRule) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, w := range s.windows {
		if !now.Before(w.expiresAt) {
			delete(s.windows, k)
		}
	}
	w, ok := s.windows[key]
	if !ok {
		w = &memoryWindow{expiresAt: now.Add(time.Duration(rule.WindowSeconds) * time.Second)}
		s.windows[key] = w
	}
	w.count++
	if rule.BlockSeconds > 0 && w.count == int64(rule.MaxRequests)+1 {
		w.expiresAt = now.Add(time.Duration(rule.BlockSeconds) * time.Second)
	}
	ttl := int64(w.expiresAt.Sub(now).Round(time.Second) / time.Second)
	return w.count, ttl, nil
}

// RateLimitMiddleware 频率限制中间件
func RateLimitMiddleware(store RateLimitStore, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		count, ttlSeconds, err := store.Hit(c.Request.Context(), key, rule)
		if err != nil {
			handlershared.RespondError(c, response.CodeInternal, "error.rate_limit_unavailable", err)
			c.Abort()
			return
		}
		if count > int64(rule.MaxRequests) {
			waitSeconds := int(ttlSeconds)
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.rate_limited"
			}
			c.Header("Retry-After", fmt.Sprintf("%d", waitSeconds))
			response.Error(c, response.CodeTooManyRequests, fmt.Sprintf(handlershared.Message(msgKey), waitSeconds))
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndHeader 使用请求头 + IP 作为限流 key
func KeyByIPAndHeader(header string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.TrimSpace(c.GetHeader(header))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
