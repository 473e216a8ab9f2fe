package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
)

const headerIdempotencyKey = "Idempotency-Key"

func (s *Server) ListInsights(c *gin.Context) {
	var query insightdomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.insightSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GenerateInsights replays the stored report when the Idempotency-Key was seen before.
func (s *Server) GenerateInsights(c *gin.Context) {
	resp, err := s.insightSvc.GenerateUnusedLicenseInsights(c.Request.Context(), insightdomain.GenerateRequest{
		IdempotencyKey: strings.TrimSpace(c.GetHeader(headerIdempotencyKey)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInsightStatus(c *gin.Context) {
	var req insightdomain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.insightSvc.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isInsightValidationError(err error) bool {
	switch {
	case errors.Is(err, insightdomain.ErrInvalidOrganization),
		errors.Is(err, insightdomain.ErrInvalidID),
		errors.Is(err, insightdomain.ErrInvalidStatus),
		errors.Is(err, insightdomain.ErrInvalidType),
		errors.Is(err, insightdomain.ErrInvalidStatusTransition),
		errors.Is(err, insightdomain.ErrInvalidIdempotencyKey):
		return true
	default:
		return false
	}
}
