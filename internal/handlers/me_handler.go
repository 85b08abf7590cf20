package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/httperr"
	"github.com/lebelle-app/agenda-api/internal/httpresp"
	"github.com/lebelle-app/agenda-api/internal/imagehost"
	"github.com/lebelle-app/agenda-api/internal/middleware"
	"github.com/lebelle-app/agenda-api/internal/securestore"
)

type MeHandler struct {
	auth     *auth.Service
	docs     *docstore.Store
	vault    *securestore.PasswordVault
	uploader *imagehost.Uploader
	logger   *zap.Logger
}

func NewMeHandler(
	authSvc *auth.Service,
	docs *docstore.Store,
	vault *securestore.PasswordVault,
	uploader *imagehost.Uploader,
	logger *zap.Logger,
) *MeHandler {
	return &MeHandler{auth: authSvc, docs: docs, vault: vault, uploader: uploader, logger: logger}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		httperr.Internal(c, "failed_to_load_profile", "Não foi possível carregar o perfil.")
		return
	}

	resp := gin.H{"user": user}
	if profile, err := h.docs.Get(c.Request.Context(), docstore.Users, userID); err == nil {
		resp["profile"] = profile.Data
	}

	httpresp.OK(c, resp)
}

// UpdateAvatar receives the picked image, ships it to the host and points
// both the account and the profile document at the hosted URL.
func (h *MeHandler) UpdateAvatar(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(string)

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "missing_photo", "Envie uma imagem no campo photo.")
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), file)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.String("uid", userID), zap.Error(err))
		httperr.Internal(c, "upload_failed", "Não foi possível enviar a foto.")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, "", url)
	if err != nil {
		httperr.Internal(c, "failed_to_update_profile", "Não foi possível atualizar a foto.")
		return
	}

	// profile doc is a mirror; the account already holds the URL
	if err := h.docs.Update(c.Request.Context(), docstore.Users, userID, map[string]any{"photoURL": url}); err != nil {
		h.logger.Warn("profile photo sync failed", zap.String("uid", userID), zap.Error(err))
	}

	httpresp.OK(c, gin.H{"user": user, "photo_url": url})
}

// ListAccounts returns the professionals registered under the same salon,
// which is what the account switcher shows.
func (h *MeHandler) ListAccounts(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)

	docs, err := h.docs.Query(c.Request.Context(), docstore.Users, docstore.Where("salonId", salonID))
	if err != nil {
		httperr.Internal(c, "failed_to_list_accounts", "Não foi possível carregar as contas.")
		return
	}

	accounts := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		uid, _ := d.Data["uid"].(string)
		name, _ := d.Data["name"].(string)
		email, _ := d.Data["email"].(string)
		photo, _ := d.Data["photoURL"].(string)

		_, loadErr := h.vault.Load(uid)
		accounts = append(accounts, gin.H{
			"uid":             uid,
			"name":            name,
			"email":           email,
			"photo_url":       photo,
			"can_quick_login": loadErr == nil,
		})
	}

	httpresp.OK(c, gin.H{"accounts": accounts})
}

type switchAccountRequest struct {
	UID string `json:"uid" binding:"required"`
}

// SwitchAccount re-authenticates as another professional of the same salon
// using the cached password. A stale cached password is forgotten so the
// switcher stops offering the quick path.
func (h *MeHandler) SwitchAccount(c *gin.Context) {
	salonID := c.MustGet(middleware.ContextSalonID).(string)

	var req switchAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	profile, err := h.docs.Get(c.Request.Context(), docstore.Users, req.UID)
	if err != nil {
		httperr.NotFound(c, "account_not_found", "Conta não encontrada.")
		return
	}
	if userSalon, _ := profile.Data["salonId"].(string); userSalon != salonID {
		httperr.Forbidden(c, "access_denied", "Esta conta não pertence ao seu estabelecimento.")
		return
	}

	password, err := h.vault.Load(req.UID)
	if err != nil {
		httperr.Unauthorized(c, "password_not_cached", "Faça login com e-mail e senha.")
		return
	}

	email, _ := profile.Data["email"].(string)
	user, err := h.auth.SignIn(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrWrongPassword) || errors.Is(err, auth.ErrInvalidCredential) {
			if ferr := h.vault.Forget(req.UID); ferr != nil {
				h.logger.Warn("stale password cleanup failed", zap.String("uid", req.UID), zap.Error(ferr))
			}
			httperr.Unauthorized(c, "password_changed", "A senha desta conta mudou. Faça login novamente.")
			return
		}
		writeAuthError(c, err)
		return
	}

	token, err := h.auth.Token(user, salonID)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Não foi possível trocar de conta.")
		return
	}

	httpresp.OK(c, gin.H{"user": user, "token": token})
}
