package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/services"
)

type InternshipHandler struct {
	Internships *services.InternshipService
}

func NewInternshipHandler(s *services.InternshipService) *InternshipHandler {
	return &InternshipHandler{Internships: s}
}

// List is GET /api/internships?studentId=&status=
func (h *InternshipHandler) List(c *gin.Context) {
	list, err := h.Internships.List(c.Request.Context(), middleware.CurrentIdentity(c), services.InternshipFilter{
		StudentID: c.Query("studentId"),
		Status:    c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *InternshipHandler) Create(c *gin.Context) {
	var req dtos.InternshipRequest
	if !bindJSON(c, &req) {
		return
	}
	studentID, _ := middleware.CurrentUserID(c)
	it, err := h.Internships.Create(c.Request.Context(), studentID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (h *InternshipHandler) Validate(c *gin.Context) {
	var req dtos.ValidateInternshipRequest
	if !bindJSON(c, &req) {
		return
	}
	facultyID, _ := middleware.CurrentUserID(c)
	it, err := h.Internships.Validate(c.Request.Context(), facultyID, c.Param("id"), req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}
