package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/board"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/services"
)

const maxPerPage = 100

type applicationService interface {
	ListPage(ctx context.Context, page, perPage int) ([]models.JobApplication, int64, error)
	GetApplication(ctx context.Context, id string) (*models.JobApplication, error)
	CreateApplication(ctx context.Context, req *dtos.ApplicationRequest) (*models.JobApplication, error)
	UpdateApplication(ctx context.Context, id string, req *dtos.ApplicationRequest) (*models.JobApplication, error)
	DeleteApplication(ctx context.Context, id string) error
	Events(ctx context.Context, id string) ([]models.ApplicationEvent, error)
}

type PostingExtractor interface {
	ExtractApplicationDetails(ctx context.Context, rawHTML string) (*dtos.ApplicationRequest, error)
}

type ApplicationHandler struct {
	Service   applicationService
	Extractor PostingExtractor
}

// NewApplicationHandler wires the JSON API. extractor may be nil when no LLM
// key is configured.
func NewApplicationHandler(svc applicationService, extractor PostingExtractor) *ApplicationHandler {
	return &ApplicationHandler{Service: svc, Extractor: extractor}
}

// ListApplications is GET /applications?page=&perPage=
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	perPage, err := positiveQueryInt(c, "perPage", board.ItemsPerPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	perPage = min(perPage, maxPerPage)

	apps, total, err := h.Service.ListPage(c.Request.Context(), page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applications: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, dtos.ApplicationListResponse{
		Data: apps,
		Pagination: dtos.Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      int(total),
			TotalPages: board.TotalPages(int(total), perPage),
		},
	})
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	app, err := h.Service.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, "Failed to fetch application", err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if err := req.CheckValues(nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.Service.CreateApplication(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	existing, err := h.Service.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, "Failed to update application", err)
		return
	}
	if err := req.CheckValues(existing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.Service.UpdateApplication(c.Request.Context(), existing.ID, &req)
	if err != nil {
		respondServiceError(c, "Failed to update application", err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	if err := h.Service.DeleteApplication(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, "Failed to delete application", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ApplicationHandler) ListEvents(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Service.GetApplication(c.Request.Context(), id); err != nil {
		respondServiceError(c, "Failed to fetch application", err)
		return
	}
	events, err := h.Service.Events(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

// ExtractApplication is POST /applications/extract: raw posting in, prefilled
// form out.
func (h *ApplicationHandler) ExtractApplication(c *gin.Context) {
	if h.Extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrLLMDisabled.Error()})
		return
	}

	var req dtos.ExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	extracted, err := h.Extractor.ExtractApplicationDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI Extraction failed: " + err.Error()})
		return
	}
	if extracted.JobLink == "" {
		extracted.JobLink = req.URL
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extracted,
	})
}

func respondServiceError(c *gin.Context, msg string, err error) {
	if errors.Is(err, services.ErrApplicationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg + ": " + err.Error()})
}

func positiveQueryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return n, nil
}
