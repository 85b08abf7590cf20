package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lebelle-app/agenda-api/internal/httperr"
	"github.com/lebelle-app/agenda-api/internal/httpresp"
	"github.com/lebelle-app/agenda-api/internal/middleware"
	"github.com/lebelle-app/agenda-api/internal/models"
)

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// List returns the salon's recent audit entries, newest first.
func (h *AuditLogsHandler) List(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	var logs []models.AuditLog
	err = h.db.WithContext(c.Request.Context()).
		Where("salon_id = ?", salonID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		httperr.Internal(c, "failed_to_list_audit_logs", "Não foi possível carregar o histórico.")
		return
	}

	httpresp.List(c, logs)
}
