package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	obscontext "github.com/smallbiznis/seatwise/internal/observability/context"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
)

const (
	HeaderOrg        = "X-Org-ID"
	contextUserIDKey = "user_id"
	contextUserKey   = "user"
)

// AuthRequired resolves the caller from the session cookie, falling back to a bearer token.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.authenticate(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithUserID(c.Request.Context(), int64(user.ID))
		ctx = obscontext.WithActor(ctx, "user", user.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Set(contextUserIDKey, user.ID.String())
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context) (*authdomain.User, error) {
	ctx := c.Request.Context()
	if token, ok := s.sessions.ReadToken(c); ok {
		return s.authsvc.Authenticate(ctx, token)
	}
	if token, ok := s.sessions.ReadBearer(c); ok {
		return s.authsvc.AuthenticateBearer(ctx, token)
	}
	return nil, ErrUnauthorized
}

// OrgContext resolves the caller's membership and scopes the request to its organization.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hint := strings.TrimSpace(c.GetHeader(HeaderOrg))
		profile, err := s.organizationSvc.ResolveProfile(c.Request.Context(), userID, hint)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), int64(profile.OrgID))
		ctx = orgcontext.WithRole(ctx, profile.Role)
		ctx = obscontext.WithOrgID(ctx, profile.OrgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	if id, ok := orgcontext.UserIDFromContext(c.Request.Context()); ok {
		return id, true
	}
	raw := strings.TrimSpace(c.GetString(contextUserIDKey))
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func userFromContext(c *gin.Context) (*authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok && user != nil
}
