package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) ListLicenses(c *gin.Context) {
	var query licensedomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.licenseSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLicenseByID(c *gin.Context) {
	resp, err := s.licenseSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateLicense(c *gin.Context) {
	var req licensedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.licenseSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateLicense(c *gin.Context) {
	var req licensedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.licenseSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteLicense(c *gin.Context) {
	if err := s.licenseSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListLicenseUsage(c *gin.Context) {
	resp, err := s.licenseSvc.ListUsage(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecordLicenseUsage(c *gin.Context) {
	var req licensedomain.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	req.LicenseID = strings.TrimSpace(c.Param("id"))

	resp, err := s.licenseSvc.RecordUsage(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// ExportLicenses buffers the workbook so a failed export still gets a JSON error.
func (s *Server) ExportLicenses(c *gin.Context) {
	var query licensedomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	var buf bytes.Buffer
	if err := s.licenseSvc.Export(c.Request.Context(), query, &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "licenses-" + s.clock.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func isLicenseValidationError(err error) bool {
	switch {
	case errors.Is(err, licensedomain.ErrInvalidOrganization),
		errors.Is(err, licensedomain.ErrInvalidID),
		errors.Is(err, licensedomain.ErrInvalidName),
		errors.Is(err, licensedomain.ErrInvalidVendor),
		errors.Is(err, licensedomain.ErrInvalidLicenseType),
		errors.Is(err, licensedomain.ErrInvalidBillingCycle),
		errors.Is(err, licensedomain.ErrInvalidStatus),
		errors.Is(err, licensedomain.ErrInvalidSeats),
		errors.Is(err, licensedomain.ErrInvalidCost),
		errors.Is(err, licensedomain.ErrInvalidDate),
		errors.Is(err, licensedomain.ErrInvalidDepartment),
		errors.Is(err, licensedomain.ErrInvalidEmail):
		return true
	default:
		return false
	}
}
