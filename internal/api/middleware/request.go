package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"go.uber.org/zap"
)

// loginAttemptTracker counts recent login attempts per client IP and flags
// addresses that hammer the endpoint. Entries age out after a short window.
type loginAttemptTracker struct {
	attempts     map[string]*attemptInfo
	mu           sync.RWMutex
	maxAttempts  int
	window       time.Duration
	cleanupEvery time.Duration
}

type attemptInfo struct {
	count       int
	lastAttempt time.Time
}

func newLoginAttemptTracker() *loginAttemptTracker {
	tracker := &loginAttemptTracker{
		attempts:     make(map[string]*attemptInfo),
		maxAttempts:  10,
		window:       time.Minute,
		cleanupEvery: 5 * time.Minute,
	}

	go tracker.startCleanup()

	return tracker
}

func (t *loginAttemptTracker) startCleanup() {
	ticker := time.NewTicker(t.cleanupEvery)
	defer ticker.Stop()

	for range ticker.C {
		t.cleanOldEntries()
	}
}

func (t *loginAttemptTracker) cleanOldEntries() {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry := time.Now().Add(-t.window)
	for ip, info := range t.attempts {
		if info.lastAttempt.Before(expiry) {
			delete(t.attempts, ip)
		}
	}
}

func (t *loginAttemptTracker) record(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, exists := t.attempts[ip]
	if !exists || time.Since(info.lastAttempt) > t.window {
		info = &attemptInfo{}
		t.attempts[ip] = info
	}
	info.count++
	info.lastAttempt = time.Now()
}

func (t *loginAttemptTracker) blocked(ip string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.attempts[ip]
	return exists && info.count > t.maxAttempts
}

// RequestMiddleware carries the cross-cutting request concerns: request id,
// start/finish logging, panic recovery and login throttling.
type RequestMiddleware struct {
	logger         *zap.Logger
	metrics        *metrics.Collector
	attemptTracker *loginAttemptTracker
}

func NewRequestMiddleware(logger *zap.Logger, collector *metrics.Collector) *RequestMiddleware {
	return &RequestMiddleware{
		logger:         logger,
		metrics:        collector,
		attemptTracker: newLoginAttemptTracker(),
	}
}

func (rm *RequestMiddleware) ProcessRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		rm.logger.Info("Request started",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()))
		c.Next()

		// The route template keeps the label cardinality bounded; requests
		// that matched no route are lumped together.
		operation := c.FullPath()
		if operation == "" {
			operation = "unmatched"
		}
		rm.metrics.ObserveLatency(c.Request.Method+" "+operation, time.Since(start))

		rm.logger.Info("Request completed",
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("size", c.Writer.Size()))
	}
}

// LoginAttemptMiddleware throttles repeated login attempts per client IP.
func (rm *RequestMiddleware) LoginAttemptMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && c.Request.URL.Path == "/api/v1/auth/login" {
			clientIP := c.ClientIP()
			rm.attemptTracker.record(clientIP)
			if rm.attemptTracker.blocked(clientIP) {
				rm.logger.Warn("Throttling login attempts",
					zap.String("client_ip", clientIP))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error": "too many login attempts, try again later",
				})
				return
			}
		}
		c.Next()
	}
}

func (rm *RequestMiddleware) RecoverPanic() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString("request_id")
				rm.logger.Error("Panic recovered",
					zap.String("request_id", requestID),
					zap.Any("error", err),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
