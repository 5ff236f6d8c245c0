package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/middleware"
	"github.com/justsurfingit/internship-tracker/internal/services"
)

// JobExtractor is the part of the LLM service the handler needs.
type JobExtractor interface {
	ExtractJobDetails(ctx context.Context, raw string) (*dtos.JobDraft, error)
}

type JobHandler struct {
	LLMService JobExtractor
	JobService *services.JobService
}

// NewJobHandler creates the handler with dependencies. llm may be nil when
// no model is configured.
func NewJobHandler(llm JobExtractor, j *services.JobService) *JobHandler {
	return &JobHandler{
		LLMService: llm,
		JobService: j,
	}
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.JobService.ListJobs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ParseJob is the POST /api/jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if !bindJSON(c, &req) {
		return
	}
	if h.LLMService == nil {
		respondError(c, services.ErrLLMUnavailable)
		return
	}
	draft, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}

// CreateJob is POST /api/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, _ := middleware.CurrentUserID(c)
	job, err := h.JobService.CreateJob(c.Request.Context(), callerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.JobService.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
