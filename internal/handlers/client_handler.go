package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/audit"
	"github.com/lebelle-app/agenda-api/internal/contacts"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/httperr"
	"github.com/lebelle-app/agenda-api/internal/httpresp"
	"github.com/lebelle-app/agenda-api/internal/middleware"
	"github.com/lebelle-app/agenda-api/internal/search"
	"github.com/lebelle-app/agenda-api/internal/store"
)

type ClientHandler struct {
	docs   *docstore.Store
	audit  *audit.Dispatcher
	logger *zap.Logger
}

func NewClientHandler(docs *docstore.Store, auditDisp *audit.Dispatcher, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{docs: docs, audit: auditDisp, logger: logger}
}

type clientRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address"`
}

type clientPatchRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// List returns the salon's clients ordered by normalized name, optionally
// filtered by the search box query (name or phone digits).
func (h *ClientHandler) List(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	query := c.Query("query")

	docs, err := h.docs.Query(c.Request.Context(), docstore.Clients, docstore.Where("salonId", salonID))
	if err != nil {
		httperr.Internal(c, "failed_to_list_clients", "Não foi possível carregar os clientes.")
		return
	}

	clients := make([]store.Client, 0, len(docs))
	for _, d := range docs {
		cl := store.ClientFromDocument(d)
		if search.Matches(query, cl.Name, cl.Phone) {
			clients = append(clients, cl)
		}
	}
	sortClientsByName(clients)

	httpresp.List(c, clients)
}

func (h *ClientHandler) Create(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	userID := c.MustGet(middleware.ContextUserID).(string)

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	id, err := h.docs.Create(c.Request.Context(), docstore.Clients, map[string]any{
		"name":      req.Name,
		"phone":     req.Phone,
		"address":   req.Address,
		"userId":    userID,
		"salonId":   salonID,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		httperr.Internal(c, "failed_to_create_client", "Não foi possível salvar o cliente.")
		return
	}

	h.audit.Dispatch(audit.Event{
		SalonID:  salonID,
		UserID:   userID,
		Action:   "client_created",
		Entity:   "client",
		EntityID: id,
	})

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ClientHandler) Update(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	id := c.Param("id")

	var req clientPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Phone != nil {
		patch["phone"] = *req.Phone
	}
	if req.Address != nil {
		patch["address"] = *req.Address
	}
	if len(patch) == 0 {
		httperr.BadRequest(c, "empty_patch", "Nada para atualizar.")
		return
	}

	if !h.ownedBySalon(c.Request.Context(), id, salonID) {
		httperr.NotFound(c, "client_not_found", "Cliente não encontrado.")
		return
	}

	if err := h.docs.Update(c.Request.Context(), docstore.Clients, id, patch); err != nil {
		httperr.Internal(c, "failed_to_update_client", "Não foi possível atualizar.")
		return
	}

	httpresp.OK(c, gin.H{"id": id})
}

func (h *ClientHandler) Delete(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	userID := c.MustGet(middleware.ContextUserID).(string)
	id := c.Param("id")

	if !h.ownedBySalon(c.Request.Context(), id, salonID) {
		httperr.NotFound(c, "client_not_found", "Cliente não encontrado.")
		return
	}

	if err := h.docs.Delete(c.Request.Context(), docstore.Clients, id); err != nil {
		httperr.Internal(c, "failed_to_remove_client", "Não foi possível remover.")
		return
	}

	h.audit.Dispatch(audit.Event{
		SalonID:  salonID,
		UserID:   userID,
		Action:   "client_removed",
		Entity:   "client",
		EntityID: id,
	})

	c.Status(http.StatusNoContent)
}

// --------- Import ---------

type importContact struct {
	Name         string   `json:"name"`
	PhoneNumbers []string `json:"phone_numbers"`
}

type importRequest struct {
	PermissionGranted bool            `json:"permission_granted"`
	Contacts          []importContact `json:"contacts"`
}

// Import runs the address-book import over a payload the device uploaded:
// the app reads the contacts after the runtime permission grant and ships
// them here in one request.
func (h *ClientHandler) Import(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)
	userID := c.MustGet(middleware.ContextUserID).(string)

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	importer := contacts.NewImporter(
		payloadBook{req: req},
		&clientDirectory{docs: h.docs, salonID: salonID, userID: userID},
		h.logger,
	)

	result, err := importer.Run(c.Request.Context())
	switch {
	case errors.Is(err, contacts.ErrPermissionDenied):
		httperr.Forbidden(c, "permission_denied", "Habilite o acesso aos contatos nas configurações.")
		return
	case errors.Is(err, contacts.ErrNoContacts):
		httperr.BadRequest(c, "no_contacts", "Nenhum contato encontrado.")
		return
	case err != nil:
		h.logger.Error("contact import failed", zap.Error(err))
		httperr.Internal(c, "import_failed", "Erro ao importar. Tente novamente.")
		return
	}

	if result.Imported == 0 {
		httpresp.OK(c, gin.H{"imported": 0, "message": "Todos já cadastrados."})
		return
	}

	h.audit.Dispatch(audit.Event{
		SalonID:  salonID,
		UserID:   userID,
		Action:   "clients_imported",
		Entity:   "client",
		Metadata: gin.H{"count": result.Imported},
	})

	httpresp.OK(c, gin.H{"imported": result.Imported})
}

func (h *ClientHandler) ownedBySalon(ctx context.Context, id, salonID string) bool {
	doc, err := h.docs.Get(ctx, docstore.Clients, id)
	if err != nil {
		return false
	}
	owner, _ := doc.Data["salonId"].(string)
	return owner == salonID
}

func sortClientsByName(clients []store.Client) {
	sort.Slice(clients, func(i, j int) bool {
		return search.Normalize(clients[i].Name) < search.Normalize(clients[j].Name)
	})
}

// payloadBook adapts the uploaded request body to the importer's
// address-book contract.
type payloadBook struct {
	req importRequest
}

func (p payloadBook) RequestPermission(context.Context) (bool, error) {
	return p.req.PermissionGranted, nil
}

func (p payloadBook) Read(context.Context) ([]contacts.Contact, error) {
	entries := make([]contacts.Contact, 0, len(p.req.Contacts))
	for _, c := range p.req.Contacts {
		entries = append(entries, contacts.Contact{Name: c.Name, PhoneNumbers: c.PhoneNumbers})
	}
	return entries, nil
}

// clientDirectory is the docstore-backed counterpart of the ClientsStore
// directory used on-device.
type clientDirectory struct {
	docs    *docstore.Store
	salonID string
	userID  string
}

func (d *clientDirectory) ExistingPhones(ctx context.Context) (map[string]struct{}, error) {
	docs, err := d.docs.Query(ctx, docstore.Clients, docstore.Where("salonId", d.salonID))
	if err != nil {
		return nil, err
	}
	phones := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		phone, _ := doc.Data["phone"].(string)
		phones[search.OnlyDigits(phone)] = struct{}{}
	}
	return phones, nil
}

func (d *clientDirectory) AddClient(ctx context.Context, cand contacts.Candidate) error {
	return d.BatchAdd(ctx, []contacts.Candidate{cand})
}

func (d *clientDirectory) BatchAdd(ctx context.Context, cands []contacts.Candidate) error {
	docs := make([]docstore.Document, 0, len(cands))
	now := time.Now().UTC().Format(time.RFC3339)
	for _, cand := range cands {
		docs = append(docs, docstore.Document{
			ID: cand.ID,
			Data: map[string]any{
				"name":      cand.Name,
				"phone":     cand.Phone,
				"userId":    d.userID,
				"salonId":   d.salonID,
				"createdAt": now,
			},
		})
	}
	return d.docs.BatchCreate(ctx, docstore.Clients, docs)
}
