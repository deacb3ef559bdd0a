package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	"github.com/smallbiznis/scraprates/internal/authorization"
	obscontext "github.com/smallbiznis/scraprates/internal/observability/context"
)

const contextPrincipalKey = "principal"

// AdminRequired authenticates the bearer credential and stores the
// resolved principal on the request and its context.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authn == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.authn.Authorize(c.Request)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPrincipalKey, principal)
		ctx := obscontext.WithActor(c.Request.Context(), actorType(principal), principal.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authorizeAction gates a route on the principal's role policy.
func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), principal, strings.TrimSpace(object), strings.TrimSpace(action)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func principalFromContext(c *gin.Context) (authorization.Principal, bool) {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return authorization.Principal{}, false
	}
	principal, ok := value.(authorization.Principal)
	if !ok || principal.Subject == "" {
		return authorization.Principal{}, false
	}
	return principal, true
}

func actorType(p authorization.Principal) string {
	switch p.Role {
	case authorization.RoleAdmin:
		return string(auditdomain.ActorTypeAdmin)
	case authorization.RoleOperator:
		return string(auditdomain.ActorTypeOperator)
	default:
		return string(auditdomain.ActorTypeSystem)
	}
}
