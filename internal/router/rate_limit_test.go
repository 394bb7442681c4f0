package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := KeyByIPAndHeader(constants.HeaderClientID)(c); key != "1.2.3.4" {
		t.Fatalf("key without header want 1.2.3.4 got %s", key)
	}
	c.Request.Header.Set(constants.HeaderClientID, " device-1 ")
	if key := KeyByIPAndHeader(constants.HeaderClientID)(c); key != "device-1|1.2.3.4" {
		t.Fatalf("key want device-1|1.2.3.4 got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("expected handler response body, got %s", w.Body.String())
		}
	}
}

func TestRateLimitMiddlewareMemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimitStore(nil), RateLimitRule{Prefix: "test", WindowSeconds: 60, MaxRequests: 2, BlockSeconds: 300}, KeyByIP))
	r.POST("/checkout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	}
	var resp response.Response
	if err := json.Unmarshal(last.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != response.CodeTooManyRequests {
		t.Fatalf("status_code want 429 got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Msg, "300") || last.Header().Get("Retry-After") != "300" {
		t.Fatalf("block seconds should be reported, got %q / %q", resp.Msg, last.Header().Get("Retry-After"))
	}
}

func TestMemoryRateLimitStoreWindowExpires(t *testing.T) {
	store := newMemoryRateLimitStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	rule := RateLimitRule{WindowSeconds: 10, MaxRequests: 1}

	if count, ttl, _ := store.Hit(context.Background(), "k", rule); count != 1 || ttl != 10 {
		t.Fatalf("first hit want 1/10 got %d/%d", count, ttl)
	}
	if count, _, _ := store.Hit(context.Background(), "k", rule); count != 2 {
		t.Fatalf("second hit want 2 got %d", count)
	}
	store.now = func() time.Time { return base.Add(11 * time.Second) }
	if count, _, _ := store.Hit(context.Background(), "k", rule); count != 1 {
		t.Fatalf("expired window should restart, got %d", count)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
