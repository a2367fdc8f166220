package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// attemptStore 按 IP 记录滑动窗口内的尝试时间
type attemptStore struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptStore(window time.Duration) *attemptStore {
	s := &attemptStore{
		window:  window,
		entries: make(map[string][]time.Time),
	}
	// 定期清理过期数据
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.mu.Lock()
			cutoff := time.Now().Add(-s.window)
			for ip, ts := range s.entries {
				kept := ts[:0]
				for _, t := range ts {
					if t.After(cutoff) {
						kept = append(kept, t)
					}
				}
				if len(kept) == 0 {
					delete(s.entries, ip)
				} else {
					s.entries[ip] = kept
				}
			}
			s.mu.Unlock()
		}
	}()
	return s
}

// allow 在窗口内未超限时记录本次尝试并放行
func (s *attemptStore) allow(ip string, max int) bool {
	now := time.Now()
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[ip][:0]
	for _, t := range s.entries[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= max {
		s.entries[ip] = kept
		return false
	}
	s.entries[ip] = append(kept, now)
	return true
}

// LoginRateLimit 登录/PIN 接口限流中间件
// 每 IP 每窗口最多 maxAttempts 次尝试，超过则返回 429
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	store := newAttemptStore(window)
	return func(c *gin.Context) {
		if !store.allow(c.ClientIP(), maxAttempts) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
