package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/services"
)

// multipartOverhead is the room left for form boundaries and headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

type ApplicationHandler struct {
	Apps           *services.ApplicationService
	MaxResumeBytes int64
}

func NewApplicationHandler(apps *services.ApplicationService, maxResumeBytes int64) *ApplicationHandler {
	return &ApplicationHandler{Apps: apps, MaxResumeBytes: maxResumeBytes}
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req dtos.ApplyRequest
	if !bindJSON(c, &req) {
		return
	}
	studentID, _ := middleware.CurrentUserID(c)
	app, err := h.Apps.Apply(c.Request.Context(), studentID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	studentID, _ := middleware.CurrentUserID(c)
	apps, err := h.Apps.ListMine(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) ListForCompany(c *gin.Context) {
	ownerID, _ := middleware.CurrentUserID(c)
	apps, err := h.Apps.ListForCompany(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) ListAll(c *gin.Context) {
	apps, err := h.Apps.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Decide(c *gin.Context) {
	var req dtos.DecisionRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, _ := middleware.CurrentUserID(c)
	app, err := h.Apps.Decide(c.Request.Context(), callerID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	studentID, _ := middleware.CurrentUserID(c)
	app, err := h.Apps.Withdraw(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// UploadResume is POST /api/applications/upload-resume with the file in the
// multipart field "resume".
func (h *ApplicationHandler) UploadResume(c *gin.Context) {
	if h.MaxResumeBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxResumeBytes+multipartOverhead)
	}
	header, err := c.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fileTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if h.MaxResumeBytes > 0 && header.Size > h.MaxResumeBytes {
		h.fileTooLarge(c)
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	uploaderID, _ := middleware.CurrentUserID(c)
	saved, err := h.Apps.UploadResume(c.Request.Context(), uploaderID, header.Filename, header.Header.Get("Content-Type"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.UploadResumeResponse{
		FileID:       saved.ID,
		Filename:     saved.Filename,
		OriginalName: header.Filename,
	})
}

func (h *ApplicationHandler) fileTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("file too large (max %d MB)", h.MaxResumeBytes>>20),
	})
}

// DownloadResume streams the resume attached to an application.
func (h *ApplicationHandler) DownloadResume(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
		return
	}
	dl, err := h.Apps.OpenResume(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer dl.Body.Close()

	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, dl.Name),
	})
}
