package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/services"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type ContactHandler struct {
	Contact *services.ContactService
}

func NewContactHandler(s *services.ContactService) *ContactHandler {
	return &ContactHandler{Contact: s}
}

// Send is POST /api/contact. Responses use {ok, error} rather than the usual
// error shape.
func (h *ContactHandler) Send(c *gin.Context) {
	var req dtos.ContactRequest
	// A malformed body leaves req empty and fails validation below.
	_ = c.ShouldBindJSON(&req)
	id, err := h.Contact.Send(c.Request.Context(), &req)
	if err != nil {
		status, msg := errorResponse(c, err)
		if status == http.StatusInternalServerError && msg == "server error" {
			msg = err.Error()
		}
		c.JSON(status, gin.H{"ok": false, "error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "messageId": id})
}

type ExportHandler struct {
	Export *services.ExportService
}

func NewExportHandler(s *services.ExportService) *ExportHandler {
	return &ExportHandler{Export: s}
}

// ExportInternships is GET /export/internships.
func (h *ExportHandler) ExportInternships(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Export.WriteValidatedInternships(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
