package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
)

func (s *Server) ListDepartments(c *gin.Context) {
	resp, err := s.departmentSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDepartment(c *gin.Context) {
	var req departmentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.departmentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateDepartment(c *gin.Context) {
	var req departmentdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.departmentSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDepartment(c *gin.Context) {
	if err := s.departmentSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isDepartmentValidationError(err error) bool {
	switch {
	case errors.Is(err, departmentdomain.ErrInvalidOrganization),
		errors.Is(err, departmentdomain.ErrInvalidName),
		errors.Is(err, departmentdomain.ErrInvalidBudget),
		errors.Is(err, departmentdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}
