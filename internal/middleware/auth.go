package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/opticheck/screening-api/internal/handler"
	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/service/audit"
	"github.com/opticheck/screening-api/pkg/auth"
	"github.com/opticheck/screening-api/pkg/authz"
	"github.com/opticheck/screening-api/pkg/metrics"
)

// claimsCacheTTL is short on purpose: it only collapses repeated
// verification of the same bearer token within a burst, it must never
// outlive a token by enough to matter.
const claimsCacheTTL = 30 * time.Second

type AuthMiddleware struct {
	jwtSvc  *auth.Service
	auditor *audit.Service
	metrics *metrics.Metrics
	cache   *gocache.Cache
	now     func() time.Time
}

func NewAuthMiddleware(jwtSvc *auth.Service, auditor *audit.Service, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSvc:  jwtSvc,
		auditor: auditor,
		metrics: m,
		cache:   gocache.New(claimsCacheTTL, time.Minute),
		now:     time.Now,
	}
}

// Authenticate verifies the bearer token and stores its claims in the
// context. Every rejection is the same 401; the token service logs the
// real reason.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}
		token := parts[1]

		// A cache hit never extends a token's life: expiry is
		// re-checked against the claims, and entries are stored with a
		// TTL capped at the token's remaining validity.
		if cached, ok := m.cache.Get(token); ok {
			claims := cached.(*auth.Claims)
			if claims.ExpiresAt == nil || !claims.ExpiresAt.After(m.now()) {
				m.cache.Delete(token)
				if m.metrics != nil {
					m.metrics.TokenRejections.Inc()
				}
				c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
				c.Abort()
				return
			}
			c.Set(handler.ContextClaimsKey, claims)
			c.Next()
			return
		}

		claims, err := m.jwtSvc.Verify(token)
		if err != nil {
			if m.metrics != nil {
				m.metrics.TokenRejections.Inc()
			}
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		ttl := claimsCacheTTL
		if claims.ExpiresAt != nil {
			if until := claims.ExpiresAt.Sub(m.now()); until < ttl {
				ttl = until
			}
		}
		m.cache.Set(token, claims, ttl)
		c.Set(handler.ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireCapability gates a route on the shared capability matrix.
// Every route asking for the same action consults the same table, so a
// role granted the action passes everywhere or nowhere. Denials are
// recorded as security events.
func (m *AuthMiddleware) RequireCapability(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(handler.ContextClaimsKey)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing token claims"))
			c.Abort()
			return
		}
		claims := v.(*auth.Claims)

		if !authz.Can(claims.Role, action) {
			m.auditor.Record(c.Request.Context(), model.EventTypeAccessDenied,
				string(action)+" denied for role "+string(claims.Role),
				handler.CurrentActor(c))
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}
