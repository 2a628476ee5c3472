package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

// Context keys populated by the authentication gate.
const (
	ContextUsername = "username"
	ContextRoles    = "roles"
)

// Requirement is what a route demands from the caller.
type Requirement int

const (
	// Public routes never reject and never attach identity, even when a
	// valid token is presented.
	Public Requirement = iota
	// Optional routes never reject either, but a valid bearer token does
	// attach identity so handlers can answer differently per caller.
	Optional
	// Authenticated routes need a valid bearer token.
	Authenticated
)

// RouteRule is one entry of the declarative allow/deny table. Method ""
// matches any method; PathPrefix is matched against the request path.
type RouteRule struct {
	Method     string
	PathPrefix string
	Require    Requirement
	Roles      []string
}

// AuthMiddleware is the per-request authentication gate plus the terminal
// authorization decision. The gate only populates (or fails to populate)
// identity; the authorization step is where 401/403 happen, so routes can
// be public without special-casing the gate's control flow.
type AuthMiddleware struct {
	tokens *services.TokenService
	auth   *services.AuthService
	rules  []RouteRule
	logger *zap.Logger
}

func NewAuthMiddleware(tokens *services.TokenService, auth *services.AuthService, rules []RouteRule, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		auth:   auth,
		rules:  rules,
		logger: logger.With(zap.String("middleware", "auth")),
	}
}

// resolve walks the rule table top to bottom. No match means deny by
// default: the request needs authentication.
func (am *AuthMiddleware) resolve(method, path string) RouteRule {
	for _, rule := range am.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if strings.HasPrefix(path, rule.PathPrefix) {
			return rule
		}
	}
	return RouteRule{Require: Authenticated}
}

// Authenticate attaches the caller's identity when a valid bearer token is
// presented on an optional or authenticated route. It never rejects:
// missing, malformed and invalid tokens all just leave the request
// unauthenticated.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Preflight requests pass through without authentication attempts.
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		rule := am.resolve(c.Request.Method, c.Request.URL.Path)
		if rule.Require == Public {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := am.tokens.Parse(tokenString)
		if err != nil {
			c.Next()
			return
		}

		user, err := am.auth.FindPrincipal(claims.Subject)
		if err != nil || !user.Enabled || !am.tokens.IsValid(tokenString, user.Username) {
			c.Next()
			return
		}

		c.Set(ContextUsername, user.Username)
		c.Set(ContextRoles, user.RoleList())
		c.Next()
	}
}

// Authorize is the terminal accept/reject decision: 401 when the route
// needs authentication and none was attached, 403 when authenticated but
// missing a required role.
func (am *AuthMiddleware) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		rule := am.resolve(c.Request.Method, c.Request.URL.Path)
		if rule.Require == Public || rule.Require == Optional {
			c.Next()
			return
		}

		username, authenticated := c.Get(ContextUsername)
		if !authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if len(rule.Roles) > 0 && !hasAnyRole(c, rule.Roles) {
			am.logger.Warn("Access denied",
				zap.String("username", username.(string)),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.Next()
	}
}

func hasAnyRole(c *gin.Context, required []string) bool {
	value, ok := c.Get(ContextRoles)
	if !ok {
		return false
	}
	roles, ok := value.([]string)
	if !ok {
		return false
	}
	have := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		have[r] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[models.NormalizeRole(r)]; ok {
			return true
		}
	}
	return false
}

// Identity returns the authenticated username and roles from the context,
// or ok=false when the request is unauthenticated.
func Identity(c *gin.Context) (username string, roles []string, ok bool) {
	value, exists := c.Get(ContextUsername)
	if !exists {
		return "", nil, false
	}
	username, _ = value.(string)
	if rv, exists := c.Get(ContextRoles); exists {
		roles, _ = rv.([]string)
	}
	return username, roles, true
}
