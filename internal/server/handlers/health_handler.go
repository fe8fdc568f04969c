package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
	"github.com/mamadbah2/swinewatch/internal/monitoring"
	"github.com/mamadbah2/swinewatch/internal/service/health"
	"github.com/mamadbah2/swinewatch/internal/service/whatsapp"
)

// HealthService is the part of the health service exposed over HTTP.
type HealthService interface {
	RecordObservation(ctx context.Context, pigID string, input models.ObservationInput) (models.Observation, models.RiskReport, error)
	AnalyzeRisk(ctx context.Context, pigID string) (models.RiskReport, error)
	HerdRisk(ctx context.Context) ([]models.RiskReport, error)
	MonitoringStatus(ctx context.Context, pigID string) (models.MonitoringTiming, error)
	RegisterPig(ctx context.Context, pig models.Pig) (models.Pig, error)
	ListPigs(ctx context.Context) ([]models.Pig, error)
	RegisterBreed(ctx context.Context, breed models.BreedProfile) (models.BreedProfile, error)
	RegisterChecklistItem(ctx context.Context, item models.ChecklistItem) (models.ChecklistItem, error)
	ListChecklistItems(ctx context.Context) ([]models.ChecklistItem, error)
	SetStartTime(ctx context.Context, value string) (monitoring.ClockTime, error)
}

// HealthHandler adapts the health service to gin.
type HealthHandler struct {
	svc       HealthService
	messaging whatsapp.MessagingService
	logger    *zap.Logger
}

// NewHealthHandler constructs the HTTP handler adapter.
func NewHealthHandler(svc HealthService, messaging whatsapp.MessagingService, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{svc: svc, messaging: messaging, logger: logger}
}

// RecordObservation stores a new check for a pig.
func (h *HealthHandler) RecordObservation(c *gin.Context) {
	var input models.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid observation payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	obs, report, err := h.svc.RecordObservation(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		var closed *health.MonitoringClosedError
		if errors.As(err, &closed) {
			c.JSON(http.StatusConflict, gin.H{"error": closed.Error(), "timing": closed.Timing})
			return
		}
		h.fail(c, "record observation", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"observation": obs, "risk": report})
}

// Risk returns the risk report of one pig.
func (h *HealthHandler) Risk(c *gin.Context) {
	report, err := h.svc.AnalyzeRisk(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "analyze risk", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// HerdRisk returns the risk report of every pig.
func (h *HealthHandler) HerdRisk(c *gin.Context) {
	reports, err := h.svc.HerdRisk(c.Request.Context())
	if err != nil {
		h.fail(c, "herd risk", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pigs": reports})
}

// Monitoring tells whether a pig may be checked now.
func (h *HealthHandler) Monitoring(c *gin.Context) {
	timing, err := h.svc.MonitoringStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "monitoring status", err)
		return
	}
	c.JSON(http.StatusOK, timing)
}

// CreatePig registers a pig.
func (h *HealthHandler) CreatePig(c *gin.Context) {
	var pig models.Pig
	if err := c.ShouldBindJSON(&pig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.RegisterPig(c.Request.Context(), pig)
	if err != nil {
		h.fail(c, "register pig", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListPigs lists registered pigs.
func (h *HealthHandler) ListPigs(c *gin.Context) {
	pigs, err := h.svc.ListPigs(c.Request.Context())
	if err != nil {
		h.fail(c, "list pigs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pigs": pigs})
}

// CreateBreed registers a breed profile.
func (h *HealthHandler) CreateBreed(c *gin.Context) {
	var breed models.BreedProfile
	if err := c.ShouldBindJSON(&breed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.RegisterBreed(c.Request.Context(), breed)
	if err != nil {
		h.fail(c, "register breed", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CreateChecklistItem adds a symptom to the catalog.
func (h *HealthHandler) CreateChecklistItem(c *gin.Context) {
	var item models.ChecklistItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.RegisterChecklistItem(c.Request.Context(), item)
	if err != nil {
		h.fail(c, "register checklist item", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListChecklistItems returns the symptom catalog.
func (h *HealthHandler) ListChecklistItems(c *gin.Context) {
	items, err := h.svc.ListChecklistItems(c.Request.Context())
	if err != nil {
		h.fail(c, "list checklist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SetStartTime updates the daily monitoring start time.
func (h *HealthHandler) SetStartTime(c *gin.Context) {
	var req models.StartTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	start, err := h.svc.SetStartTime(c.Request.Context(), req.StartTime)
	if err != nil {
		h.fail(c, "set start time", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"start_time": start.String()})
}

// SendMessage allows operators to push a manual WhatsApp message.
func (h *HealthHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.messaging.SendOutbound(c.Request.Context(), req); err != nil {
		if errors.Is(err, whatsapp.ErrDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}

func (h *HealthHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, health.ErrPigNotFound), errors.Is(err, health.ErrBreedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, health.ErrUnknownSymptom),
		errors.Is(err, health.ErrInvalidTemperature),
		errors.Is(err, health.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
