package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/audit"
	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/httperr"
	"github.com/lebelle-app/agenda-api/internal/securestore"
	"github.com/lebelle-app/agenda-api/internal/validators"
)

type AuthHandler struct {
	auth   *auth.Service
	docs   *docstore.Store
	vault  *securestore.PasswordVault
	audit  *audit.Dispatcher
	logger *zap.Logger
}

func NewAuthHandler(
	authSvc *auth.Service,
	docs *docstore.Store,
	vault *securestore.PasswordVault,
	auditDisp *audit.Dispatcher,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{auth: authSvc, docs: docs, vault: vault, audit: auditDisp, logger: logger}
}

// --------- Requests ---------

type RegisterRequest struct {
	SalonName     string `json:"salon_name" binding:"required"`
	SalonDocument string `json:"salon_document" binding:"required"`

	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	SalonDocument string `json:"salon_document" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// --------- Handlers ---------

// Register creates the salon (merge-put keyed by its document digits, so a
// second professional attaches to the same salon) and the professional.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	if !validators.IsValidDocument(req.SalonDocument) {
		httperr.BadRequest(c, "invalid_document", "CPF ou CNPJ inválido.")
		return
	}
	salonID := validators.SalonID(req.SalonDocument)

	if !validators.IsEmailDomainValid(req.Email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	user, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	err = h.docs.Put(c.Request.Context(), docstore.Salons, salonID, map[string]any{
		"name":      req.SalonName,
		"document":  validators.FormatDocument(req.SalonDocument),
		"ownerId":   user.UID,
		"createdAt": now,
	}, true)
	if err != nil {
		httperr.Internal(c, "failed_to_create_salon", "Não foi possível criar a conta.")
		return
	}

	err = h.docs.Put(c.Request.Context(), docstore.Users, user.UID, map[string]any{
		"uid":       user.UID,
		"name":      user.DisplayName,
		"email":     user.Email,
		"salonId":   salonID,
		"salonName": req.SalonName,
		"createdAt": now,
	}, false)
	if err != nil {
		httperr.Internal(c, "failed_to_create_profile", "Não foi possível criar a conta.")
		return
	}

	// cached for the account switcher; losing this only costs convenience
	if err := h.vault.Save(user.UID, req.Password); err != nil {
		h.logger.Warn("password cache failed", zap.String("uid", user.UID), zap.Error(err))
	}

	token, err := h.auth.Token(user, salonID)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Não foi possível criar a conta.")
		return
	}

	h.audit.Dispatch(audit.Event{
		SalonID:  salonID,
		UserID:   user.UID,
		Action:   "professional_registered",
		Entity:   "user",
		EntityID: user.UID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
		"salon": gin.H{
			"id":   salonID,
			"name": req.SalonName,
		},
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	if !validators.IsValidDocument(req.SalonDocument) {
		httperr.BadRequest(c, "invalid_document", "CNPJ/CPF do estabelecimento inválido.")
		return
	}
	salonID := validators.SalonID(req.SalonDocument)

	user, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	// the professional must belong to the salon on the login form
	profile, err := h.docs.Get(c.Request.Context(), docstore.Users, user.UID)
	if err == nil {
		if userSalon, _ := profile.Data["salonId"].(string); userSalon != salonID {
			httperr.Forbidden(c, "access_denied", "Este usuário não pertence ao estabelecimento informado.")
			return
		}
	} else if !errors.Is(err, docstore.ErrNotFound) {
		httperr.Internal(c, "internal_error", "Ocorreu um erro ao fazer login.")
		return
	}

	if err := h.vault.Save(user.UID, req.Password); err != nil {
		h.logger.Warn("password cache failed", zap.String("uid", user.UID), zap.Error(err))
	}

	token, err := h.auth.Token(user, salonID)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Ocorreu um erro ao fazer login.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Por favor, digite seu e-mail.")
		return
	}

	if err := h.auth.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Verifique sua caixa de entrada (e spam) para redefinir sua senha.",
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Senha redefinida com sucesso."})
}

// writeAuthError maps the provider's typed failures onto the user-facing
// messages the screens show; anything unknown gets the generic fallback.
func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		httperr.BadRequest(c, "invalid_email", "E-mail inválido.")
	case errors.Is(err, auth.ErrUserNotFound):
		httperr.Unauthorized(c, "user_not_found", "Usuário não encontrado.")
	case errors.Is(err, auth.ErrWrongPassword):
		httperr.Unauthorized(c, "wrong_password", "Senha incorreta.")
	case errors.Is(err, auth.ErrInvalidCredential):
		httperr.Unauthorized(c, "invalid_credential", "Credenciais inválidas.")
	case errors.Is(err, auth.ErrEmailInUse):
		httperr.BadRequest(c, "email_already_in_use", "Este e-mail já está em uso.")
	case errors.Is(err, auth.ErrWeakPassword):
		httperr.BadRequest(c, "weak_password", "A senha deve ter pelo menos 6 caracteres.")
	case errors.Is(err, auth.ErrNotAuthenticated):
		httperr.Unauthorized(c, "not_authenticated", "Sessão expirada. Faça login novamente.")
	default:
		httperr.Internal(c, "internal_error", "Ocorreu um erro. Tente novamente.")
	}
}
