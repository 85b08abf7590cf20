package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/agenda"
	"github.com/lebelle-app/agenda-api/internal/audit"
	"github.com/lebelle-app/agenda-api/internal/config"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/httperr"
	"github.com/lebelle-app/agenda-api/internal/httpresp"
	"github.com/lebelle-app/agenda-api/internal/middleware"
	"github.com/lebelle-app/agenda-api/internal/store"
	"github.com/lebelle-app/agenda-api/internal/timezone"
)

type ScheduleHandler struct {
	docs   *docstore.Store
	audit  *audit.Dispatcher
	cfg    *config.Config
	logger *zap.Logger
}

func NewScheduleHandler(docs *docstore.Store, auditDisp *audit.Dispatcher, cfg *config.Config, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{docs: docs, audit: auditDisp, cfg: cfg, logger: logger}
}

type scheduleRequest struct {
	Date       string `json:"date"`
	Title      string `json:"title"`
	ClientID   string `json:"client_id"`
	ValueCents int64  `json:"value_cents"`
	Payment    string `json:"payment"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// ListByDay returns the selected day's appointments sorted by start time.
// Without a date parameter, today (salon timezone) is used.
func (h *ScheduleHandler) ListByDay(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)

	day := c.Query("date")
	if day == "" {
		day = timezone.TodayYMD(h.cfg.Timezone)
	}

	schedules, err := h.loadSchedules(c.Request.Context(), salonID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_schedules", "Não foi possível carregar os agendamentos.")
		return
	}

	httpresp.List(c, agenda.ItemsForDay(schedules, day))
}

// Month returns the per-day appointment counts plus the capped badge text
// for every day of the given month ("2024-01").
func (h *ScheduleHandler) Month(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)

	month := c.Query("month")
	if month == "" {
		month = timezone.TodayYMD(h.cfg.Timezone)[:7]
	}

	schedules, err := h.loadSchedules(c.Request.Context(), salonID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_schedules", "Não foi possível carregar os agendamentos.")
		return
	}

	counts := make(map[string]int)
	badges := make(map[string]string)
	for day, n := range agenda.CountByDay(schedules) {
		if !strings.HasPrefix(day, month) {
			continue
		}
		counts[day] = n
		badges[day] = agenda.Badge(n)
	}

	httpresp.OK(c, gin.H{"month": month, "counts": counts, "badges": badges})
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	userID := c.MustGet(middleware.ContextUserID).(string)

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	in := store.ScheduleInput{
		Date:       strings.TrimSpace(req.Date),
		Title:      strings.TrimSpace(req.Title),
		ClientID:   req.ClientID,
		ValueCents: req.ValueCents,
		Payment:    req.Payment,
		StartTime:  agenda.FormatTimeInput(req.StartTime),
		EndTime:    agenda.FormatTimeInput(req.EndTime),
	}
	if in.Date == "" {
		in.Date = timezone.TodayYMD(h.cfg.Timezone)
	}
	if err := in.Validate(); err != nil {
		httperr.BadRequest(c, "invalid_schedule", err.Error())
		return
	}

	// denormalized onto the schedule so the day list renders without joins
	client, err := h.docs.Get(c.Request.Context(), docstore.Clients, in.ClientID)
	if err != nil {
		httperr.BadRequest(c, "client_not_found", "Cliente não encontrado.")
		return
	}
	if owner, _ := client.Data["salonId"].(string); owner != salonID {
		httperr.BadRequest(c, "client_not_found", "Cliente não encontrado.")
		return
	}
	in.ClientName, _ = client.Data["name"].(string)

	data := map[string]any{
		"date":       in.Date,
		"title":      in.Title,
		"clientId":   in.ClientID,
		"clientName": in.ClientName,
		"value":      in.Value(),
		"startTime":  in.StartTime,
		"userId":     userID,
		"salonId":    salonID,
		"createdAt":  time.Now().UTC().Format(time.RFC3339),
	}
	if in.Payment != "" {
		data["payment"] = in.Payment
	}
	if len(in.EndTime) >= 4 {
		data["endTime"] = in.EndTime
	}

	id, err := h.docs.Create(c.Request.Context(), docstore.Schedules, data)
	if err != nil {
		httperr.Internal(c, "failed_to_create_schedule", "Não foi possível salvar o agendamento.")
		return
	}

	h.audit.Dispatch(audit.Event{
		SalonID:  salonID,
		UserID:   userID,
		Action:   "schedule_created",
		Entity:   "schedule",
		EntityID: id,
	})

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	id := c.Param("id")

	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	patch := map[string]any{}
	for _, field := range []string{"date", "title", "payment"} {
		if v, ok := req[field].(string); ok {
			patch[field] = v
		}
	}
	for _, field := range []string{"start_time", "end_time"} {
		if v, ok := req[field].(string); ok {
			patch[timeField(field)] = agenda.FormatTimeInput(v)
		}
	}
	if v, ok := req["value_cents"].(float64); ok {
		patch["value"] = v / 100
	}
	if len(patch) == 0 {
		httperr.BadRequest(c, "empty_patch", "Nada para atualizar.")
		return
	}
	if payment, ok := patch["payment"].(string); ok && payment != "" && !store.IsPaymentMethod(payment) {
		httperr.BadRequest(c, "invalid_payment", "Forma de pagamento inválida.")
		return
	}

	if !h.scheduleOwnedBySalon(c.Request.Context(), id, salonID) {
		httperr.NotFound(c, "schedule_not_found", "Agendamento não encontrado.")
		return
	}

	if err := h.docs.Update(c.Request.Context(), docstore.Schedules, id, patch); err != nil {
		httperr.Internal(c, "failed_to_update_schedule", "Não foi possível salvar o agendamento.")
		return
	}

	httpresp.OK(c, gin.H{"id": id})
}

// Delete cancels an appointment.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	userID := c.MustGet(middleware.ContextUserID).(string)
	id := c.Param("id")

	if !h.scheduleOwnedBySalon(c.Request.Context(), id, salonID) {
		httperr.NotFound(c, "schedule_not_found", "Agendamento não encontrado.")
		return
	}

	if err := h.docs.Delete(c.Request.Context(), docstore.Schedules, id); err != nil {
		httperr.Internal(c, "failed_to_cancel_schedule", "Não foi possível cancelar.")
		return
	}

	h.audit.Dispatch(audit.Event{
		SalonID:  salonID,
		UserID:   userID,
		Action:   "schedule_cancelled",
		Entity:   "schedule",
		EntityID: id,
	})

	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) loadSchedules(ctx context.Context, salonID string) ([]store.Schedule, error) {
	docs, err := h.docs.Query(ctx, docstore.Schedules, docstore.Where("salonId", salonID))
	if err != nil {
		return nil, err
	}
	schedules := make([]store.Schedule, 0, len(docs))
	for _, d := range docs {
		schedules = append(schedules, store.ScheduleFromDocument(d))
	}
	return schedules, nil
}

func (h *ScheduleHandler) scheduleOwnedBySalon(ctx context.Context, id, salonID string) bool {
	doc, err := h.docs.Get(ctx, docstore.Schedules, id)
	if err != nil {
		return false
	}
	owner, _ := doc.Data["salonId"].(string)
	return owner == salonID
}

func timeField(jsonField string) string {
	if jsonField == "start_time" {
		return "startTime"
	}
	return "endTime"
}
