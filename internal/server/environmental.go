package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	environmentaldomain "github.com/smallbiznis/seatwise/internal/environmental/domain"
	"github.com/smallbiznis/seatwise/internal/period"
)

func (s *Server) CalculateImpact(c *gin.Context) {
	var req environmentaldomain.CalculateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, bindError(err))
			return
		}
	}

	resp, err := s.environmentalSvc.Calculate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetImpactOverview(c *gin.Context) {
	resp, err := s.environmentalSvc.Overview(c.Request.Context(), queryString(c, "period"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetImpactTrend(c *gin.Context) {
	months, err := queryInt(c, "months")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.environmentalSvc.Trend(c.Request.Context(), months)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetImpactRankings(c *gin.Context) {
	resp, err := s.environmentalSvc.DepartmentRankings(c.Request.Context(), queryString(c, "period"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadImpactReport(c *gin.Context) {
	selected := queryString(c, "period")

	var buf bytes.Buffer
	if err := s.environmentalSvc.Report(c.Request.Context(), selected, &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	if selected == "" {
		selected = period.Default(s.clock.Now(), period.Monthly)
	}
	c.Header("Content-Disposition", `attachment; filename="sustainability-`+selected+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
