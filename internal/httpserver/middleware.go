package httpserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront/internal/session"
)

const (
	sessionCtxKey = "session"
	loggerCtxKey  = "logger"
	loginPath     = "/admin/login"
)

// requestLogger logs one line per request, at a level chosen by status.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		reqLogger := log.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		c.Set(loggerCtxKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		switch {
		case status >= 500:
			reqLogger.Error("request", fields...)
		case status >= 400:
			reqLogger.Warn("request", fields...)
		default:
			reqLogger.Debug("request", fields...)
		}
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

func requestLog(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerCtxKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

// corsMiddleware allows the listed origins with credentials so the session
// cookie travels. A lone "*" allows any origin without credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// ipRateLimiter keeps one token bucket per client IP. Buckets of idle IPs
// expire.
type ipRateLimiter struct {
	mu  sync.Mutex
	ips *cache.Cache
	r   rate.Limit
	b   int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	if b <= 0 {
		b = 1
	}
	return &ipRateLimiter{
		ips: cache.New(10*time.Minute, 10*time.Minute),
		r:   r,
		b:   b,
	}
}

func (i *ipRateLimiter) limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	if v, ok := i.ips.Get(ip); ok {
		l := v.(*rate.Limiter)
		i.ips.SetDefault(ip, l)
		return l
	}
	l := rate.NewLimiter(i.r, i.b)
	i.ips.SetDefault(ip, l)
	return l
}

func rateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := newIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// sessionMiddleware resolves the browser session from its cookie, issuing a
// new cookie when the session is new.
func sessionMiddleware(reg *session.Registry, secure bool, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(session.CookieName)
		s := reg.Get(c.Request.Context(), id)
		if s.ID != id {
			setSessionCookie(c, s.ID, secure, ttl)
		}
		c.Set(sessionCtxKey, s)
		c.Next()
	}
}

func setSessionCookie(c *gin.Context, id string, secure bool, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if maxAge <= 0 {
		maxAge = int(session.DefaultTTL / time.Second)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, maxAge, "/", "", secure, true)
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionCtxKey).(*session.Session)
}

// requireAdmin sends callers without an admin token to the login page.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).Auth.LoggedIn(c.Request.Context()) {
			redirectToLogin(c)
			return
		}
		c.Next()
	}
}

// redirectToLogin answers browsers with a 303 and API callers with a 401
// naming where to log in.
func redirectToLogin(c *gin.Context) {
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required", "redirect": loginPath})
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
