package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"BIBLIO-backend/internal/platform/apierr"
)

const ctxPrincipalKey = "principal"

// RequireAuth: Authorization: Bearer <token> を検証して context に Principal を詰める
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "missing Authorization header"))
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "invalid Authorization header"))
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "empty token"))
			return
		}

		p, err := v.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "invalid token"))
			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

// OptionalAuth: トークンがあれば検証して Principal を詰める。無い・不正なら匿名のまま通す
func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if p, err := v.Verify(c.Request.Context(), strings.TrimSpace(parts[1])); err == nil {
				SetPrincipal(c, p)
			}
		}
		c.Next()
	}
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || p.Role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, apierr.Body(apierr.CodeForbidden, "missing role"))
			return
		}

		if _, allowed := roleSet[p.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, apierr.Body(apierr.CodeForbidden, "forbidden"))
			return
		}

		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(ctxPrincipalKey, p)
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ctxPrincipalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// Routes: 権限ごとのルートグループ
type Routes struct {
	Public gin.IRoutes
	Member gin.IRoutes
	Staff  gin.IRoutes
	Admin  gin.IRoutes
}

func NewRoutes(api *gin.RouterGroup, v TokenVerifier) Routes {
	member := api.Group("", RequireAuth(v))
	return Routes{
		Public: api.Group("", OptionalAuth(v)),
		Member: member,
		Staff:  member.Group("", RequireRole(RoleLibrarian, RoleAdmin)),
		Admin:  member.Group("", RequireRole(RoleAdmin)),
	}
}
