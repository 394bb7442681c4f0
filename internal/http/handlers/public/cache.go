package public

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pizzaria-cajazeiras/internal/cache"
	handlershared "github.com/pizzaria-cajazeiras/internal/http/handlers/shared"
	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PutCacheRequest 写入缓存请求
type PutCacheRequest struct {
	Data       json.RawMessage `json:"data" binding:"required"`
	TTLMinutes *float64        `json:"ttl_minutes"`
	NoExpiry   bool            `json:"no_expiry"`
}

// ttlFromMinutes 0 表示永不过期；负数表示写入即过期；小数按毫秒精度换算
func ttlFromMinutes(minutes float64) (bool, time.Duration) {
	if minutes == 0 {
		return true, 0
	}
	ttl := time.Duration(minutes * float64(time.Minute))
	if ttl == 0 {
		// 过小的正数仍需有效期，避免回落到默认 TTL
		ttl = time.Nanosecond
	}
	return false, ttl
}

func queryBool(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return err == nil && value
}

func cacheKeyParam(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		respondError(c, response.CodeBadRequest, "error.cache_key_invalid", nil)
		return "", false
	}
	return key, true
}

// GetCacheInfo 缓存统计
func (h *Handler) GetCacheInfo(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	info := sess.Cache.GetCacheInfo(c.Request.Context(), cache.Options{UseSession: queryBool(c, "session")})
	if info == nil {
		respondError(c, response.CodeUnavailable, "error.cache_unavailable", nil)
		return
	}
	response.Success(c, info)
}

// GetCacheEntry 读取缓存数据
func (h *Handler) GetCacheEntry(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	key, ok := cacheKeyParam(c)
	if !ok {
		return
	}
	data, hit := sess.Cache.GetRaw(c.Request.Context(), key, cache.GetOptions{
		UseSession:   queryBool(c, "session"),
		IgnoreExpiry: queryBool(c, "ignore_expiry"),
	})
	response.Success(c, gin.H{"key": key, "hit": hit, "data": data})
}

// PutCacheEntry 写入缓存数据
func (h *Handler) PutCacheEntry(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	key, ok := cacheKeyParam(c)
	if !ok {
		return
	}
	var req PutCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	opts := cache.SetOptions{UseSession: queryBool(c, "session"), NoExpiry: req.NoExpiry}
	if req.TTLMinutes != nil && !opts.NoExpiry {
		opts.NoExpiry, opts.TTL = ttlFromMinutes(*req.TTLMinutes)
	}
	if !sess.Cache.SetCache(c.Request.Context(), key, req.Data, opts) {
		respondError(c, response.CodeUnavailable, "error.cache_unavailable", nil)
		return
	}
	response.Success(c, gin.H{"key": key, "stored": true})
}

// RemoveCacheEntry 删除单个缓存
func (h *Handler) RemoveCacheEntry(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	key, ok := cacheKeyParam(c)
	if !ok {
		return
	}
	if !sess.Cache.RemoveCache(c.Request.Context(), key, cache.Options{UseSession: queryBool(c, "session")}) {
		respondError(c, response.CodeUnavailable, "error.cache_unavailable", nil)
		return
	}
	response.Success(c, gin.H{"key": key, "removed": true})
}

// ClearCache 清理缓存，only_expired=true 时仅清理过期项
func (h *Handler) ClearCache(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	cleared := sess.Cache.ClearCache(c.Request.Context(), cache.ClearOptions{
		UseSession:  queryBool(c, "session"),
		OnlyExpired: queryBool(c, "only_expired"),
	})
	if !cleared {
		respondError(c, response.CodeUnavailable, "error.cache_unavailable", nil)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
