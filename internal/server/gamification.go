package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gamificationdomain "github.com/smallbiznis/seatwise/internal/gamification/domain"
)

func (s *Server) CalculateScores(c *gin.Context) {
	var req gamificationdomain.CalculateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, bindError(err))
			return
		}
	}

	resp, err := s.gamificationSvc.CalculateScores(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLeaderboard(c *gin.Context) {
	var query gamificationdomain.LeaderboardRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.gamificationSvc.Leaderboard(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDepartmentPerformance(c *gin.Context) {
	var query gamificationdomain.PerformanceRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	query.DepartmentID = strings.TrimSpace(c.Param("id"))

	resp, err := s.gamificationSvc.DepartmentPerformance(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBadges(c *gin.Context) {
	resp, err := s.gamificationSvc.DepartmentBadges(c.Request.Context(), queryString(c, "department_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AwardBadge(c *gin.Context) {
	var req gamificationdomain.AwardBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.gamificationSvc.AwardBadge(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func isGamificationValidationError(err error) bool {
	switch {
	case errors.Is(err, gamificationdomain.ErrInvalidOrganization),
		errors.Is(err, gamificationdomain.ErrInvalidDepartment),
		errors.Is(err, gamificationdomain.ErrInvalidBadgeType):
		return true
	default:
		return false
	}
}
