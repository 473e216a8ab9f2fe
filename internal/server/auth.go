package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
)

type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	User                 *authdomain.User `json:"user"`
	ExpiresAt            time.Time        `json:"expires_at"`
	AccessToken          string           `json:"access_token,omitempty"`
	AccessTokenExpiresAt *time.Time       `json:"access_token_expires_at,omitempty"`
}

type profileView struct {
	OrganizationID string  `json:"organization_id"`
	Role           string  `json:"role"`
	FullName       string  `json:"full_name"`
	DepartmentID   *string `json:"department_id,omitempty"`
}

func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	email := strings.TrimSpace(req.Email)
	if _, err := s.authsvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		Email:       email,
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	s.login(c, email, req.Password, http.StatusCreated)
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	s.login(c, strings.TrimSpace(req.Email), req.Password, http.StatusOK)
}

func (s *Server) login(c *gin.Context, email, password string, status int) {
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(status, gin.H{"data": loginResponse{
		User:                 result.User,
		ExpiresAt:            result.ExpiresAt,
		AccessToken:          result.AccessToken,
		AccessTokenExpiresAt: result.AccessTokenExpiresAt,
	}})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

// Me returns the caller and, when one exists, the membership used for org-scoped routes.
func (s *Server) Me(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var view *profileView
	profile, err := s.organizationSvc.ResolveProfile(c.Request.Context(), user.ID, c.GetHeader(HeaderOrg))
	switch {
	case err == nil:
		view = &profileView{
			OrganizationID: profile.OrgID.String(),
			Role:           profile.Role,
			FullName:       profile.FullName,
		}
		if profile.DepartmentID != nil {
			id := profile.DepartmentID.String()
			view.DepartmentID = &id
		}
	case errors.Is(err, organizationdomain.ErrProfileNotFound):
	default:
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user":    user,
		"profile": view,
	}})
}
